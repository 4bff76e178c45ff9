package vulkan

import (
	"math"
	"testing"

	vk "github.com/goki/vulkan"
)

func TestSelectSurfaceFormatPrefersBGRA8SRGB(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	got := selectSurfaceFormat(formats, preferredSurfaceFormats)
	if got.Format != vk.FormatB8g8r8a8Unorm {
		t.Errorf("expected preferred format to win, got %v", got.Format)
	}
}

func TestSelectSurfaceFormatMatchesPreferenceList(t *testing.T) {
	// Supported [A, B, C] against preferences [B, D]: the exact match B wins
	// even though D is preferred over nothing supported.
	a := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	b := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	c := vk.SurfaceFormat{Format: vk.FormatR5g6b5UnormPack16, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	d := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	e := vk.SurfaceFormat{Format: vk.FormatA2b10g10r10UnormPack32, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	supported := []vk.SurfaceFormat{a, b, c}

	got := selectSurfaceFormat(supported, []vk.SurfaceFormat{b, d})
	if got.Format != b.Format {
		t.Errorf("expected exact preference match, got %v", got.Format)
	}

	// Preferences [D, E] with no supported match fall back to the first
	// supported format, A.
	got = selectSurfaceFormat(supported, []vk.SurfaceFormat{d, e})
	if got.Format != a.Format {
		t.Errorf("expected first advertised format, got %v", got.Format)
	}
}

func TestSelectPresentMode(t *testing.T) {
	modes := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeMailbox, vk.PresentModeFifo}

	if got := selectPresentMode(modes, true); got != vk.PresentModeFifo {
		t.Errorf("vsync on: expected FIFO, got %v", got)
	}
	if got := selectPresentMode(modes, false); got != vk.PresentModeMailbox {
		t.Errorf("vsync off: expected mailbox, got %v", got)
	}
	if got := selectPresentMode([]vk.PresentMode{vk.PresentModeFifo}, false); got != vk.PresentModeFifo {
		t.Errorf("vsync off without mailbox: expected FIFO fallback, got %v", got)
	}
}

func TestSelectImageCount(t *testing.T) {
	caps := vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}
	if got := selectImageCount(caps, 0, 2); got != 3 {
		t.Errorf("expected min+1, got %d", got)
	}

	// A desired count beyond the minimum is honored.
	caps = vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}
	if got := selectImageCount(caps, 5, 2); got != 5 {
		t.Errorf("expected desired count, got %d", got)
	}

	// At least framesInFlight images.
	caps = vk.SurfaceCapabilities{MinImageCount: 1, MaxImageCount: 8}
	if got := selectImageCount(caps, 0, 3); got != 3 {
		t.Errorf("expected frames-in-flight floor, got %d", got)
	}

	// Capped by the maximum, even against the desired count.
	caps = vk.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}
	if got := selectImageCount(caps, 6, 2); got != 3 {
		t.Errorf("expected capability cap, got %d", got)
	}

	// Zero max means unbounded.
	caps = vk.SurfaceCapabilities{MinImageCount: 4, MaxImageCount: 0}
	if got := selectImageCount(caps, 0, 2); got != 5 {
		t.Errorf("expected min+1 with unbounded max, got %d", got)
	}
}

func TestClampExtentUsesCurrentExtentWhenFixed(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 800, Height: 600},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}
	got := clampExtent(caps, 1920, 1080)
	if got.Width != 800 || got.Height != 600 {
		t.Errorf("expected surface-fixed extent 800x600, got %dx%d", got.Width, got.Height)
	}
}

func TestClampExtentClampsRequestedSize(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: vk.Extent2D{Width: 1024, Height: 1024},
	}
	got := clampExtent(caps, 4000, 10)
	if got.Width != 1024 {
		t.Errorf("expected width clamped to 1024, got %d", got.Width)
	}
	if got.Height != 64 {
		t.Errorf("expected height clamped to 64, got %d", got.Height)
	}
}
