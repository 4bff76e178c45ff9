package renderer

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestFrameViewportAndScissorFollowSwapchainExtent(t *testing.T) {
	// The surface may clamp the requested framebuffer size, so the render
	// area must come from the extent the framebuffers were built at, not
	// from the raw window size.
	extent := vk.Extent2D{Width: 1024, Height: 768}

	viewport := frameViewport(extent)
	if viewport.Width != 1024 || viewport.Height != 768 {
		t.Errorf("viewport %gx%g does not match extent %dx%d",
			viewport.Width, viewport.Height, extent.Width, extent.Height)
	}
	if viewport.X != 0 || viewport.Y != 0 {
		t.Errorf("viewport origin should be zero, got (%g, %g)", viewport.X, viewport.Y)
	}
	if viewport.MinDepth != 0 || viewport.MaxDepth != 1 {
		t.Errorf("depth range should be [0, 1], got [%g, %g]", viewport.MinDepth, viewport.MaxDepth)
	}

	scissor := frameScissor(extent)
	if scissor.Extent.Width != extent.Width || scissor.Extent.Height != extent.Height {
		t.Errorf("scissor extent %dx%d does not match %dx%d",
			scissor.Extent.Width, scissor.Extent.Height, extent.Width, extent.Height)
	}
	if scissor.Offset.X != 0 || scissor.Offset.Y != 0 {
		t.Errorf("scissor offset should be zero, got %v", scissor.Offset)
	}
}
