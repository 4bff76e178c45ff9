package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func usableCandidate() deviceCandidate {
	return deviceCandidate{
		Name:                  "test-gpu",
		DeviceType:            vk.PhysicalDeviceTypeIntegratedGpu,
		MaxImageDimension2D:   8192,
		CombinedQueueFamily:   0,
		HasGraphicsFamily:     true,
		HasPresentFamily:      true,
		HasSwapchainExtension: true,
		FormatCount:           4,
		PresentModeCount:      2,
	}
}

func TestScoreDeviceCandidateRejectsMissingCombinedFamily(t *testing.T) {
	c := usableCandidate()
	c.CombinedQueueFamily = -1
	if got := scoreDeviceCandidate(c); got != 0 {
		t.Errorf("device without a combined graphics+present family scored %d, want 0", got)
	}
}

func TestScoreDeviceCandidateRejectsMissingSwapchainExtension(t *testing.T) {
	c := usableCandidate()
	c.HasSwapchainExtension = false
	if got := scoreDeviceCandidate(c); got != 0 {
		t.Errorf("device without swapchain extension scored %d, want 0", got)
	}
}

func TestScoreDeviceCandidateRejectsEmptySurfaceSupport(t *testing.T) {
	c := usableCandidate()
	c.FormatCount = 0
	if got := scoreDeviceCandidate(c); got != 0 {
		t.Errorf("device without surface formats scored %d, want 0", got)
	}

	c = usableCandidate()
	c.PresentModeCount = 0
	if got := scoreDeviceCandidate(c); got != 0 {
		t.Errorf("device without present modes scored %d, want 0", got)
	}
}

func TestScoreDeviceCandidatePrefersDiscrete(t *testing.T) {
	integrated := usableCandidate()

	discrete := usableCandidate()
	discrete.DeviceType = vk.PhysicalDeviceTypeDiscreteGpu
	// Even a much weaker discrete GPU should outrank an integrated one.
	discrete.MaxImageDimension2D = 4096

	if scoreDeviceCandidate(discrete) <= scoreDeviceCandidate(integrated) {
		t.Error("discrete GPU did not outrank integrated GPU")
	}
}

func TestScoreDeviceCandidateBreaksTiesOnImageDimension(t *testing.T) {
	small := usableCandidate()
	small.MaxImageDimension2D = 4096
	large := usableCandidate()
	large.MaxImageDimension2D = 16384

	if scoreDeviceCandidate(large) <= scoreDeviceCandidate(small) {
		t.Error("larger max image dimension did not break the tie")
	}
}
