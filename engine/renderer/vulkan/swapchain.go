package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/vetro-engine/vetro/engine/core"
)

type Swapchain struct {
	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	Extent      vk.Extent2D
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView

	DepthAttachment *Image

	// framebuffers used for on-screen rendering, one per swapchain image.
	Framebuffers []*Framebuffer
}

type SwapchainSupportInfo struct {
	Capabilities     vk.SurfaceCapabilities
	FormatCount      uint32
	Formats          []vk.SurfaceFormat
	PresentModeCount uint32
	PresentModes     []vk.PresentMode
}

// SwapchainConfig carries the caller's preferences into swapchain creation.
// DesiredImageCount is a hint (zero means one beyond the surface minimum);
// FramesInFlight bounds the minimum image count; VSync selects FIFO over
// mailbox.
type SwapchainConfig struct {
	Width             uint32
	Height            uint32
	DesiredImageCount uint32
	FramesInFlight    uint32
	VSync             bool
}

// preferredSurfaceFormats is the format preference order for swapchain
// creation, best first.
var preferredSurfaceFormats = []vk.SurfaceFormat{
	{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
}

// selectSurfaceFormat returns the first preference exactly matched by the
// surface's supported formats, falling back to the first advertised format.
func selectSurfaceFormat(formats, preferred []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, want := range preferred {
		for _, format := range formats {
			if format.Format == want.Format && format.ColorSpace == want.ColorSpace {
				return format
			}
		}
	}
	return formats[0]
}

// selectPresentMode prefers mailbox when vsync is off. FIFO is the only mode
// the standard guarantees, so it remains the fallback either way.
func selectPresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// selectImageCount resolves the desired image count, asking for at least one
// image beyond the surface minimum so the driver never blocks acquire on the
// image being presented, keeps at least framesInFlight images, and respects
// the capability maximum (zero meaning unbounded). A zero desired count means
// no preference.
func selectImageCount(capabilities vk.SurfaceCapabilities, desired, framesInFlight uint32) uint32 {
	count := desired
	if count < capabilities.MinImageCount+1 {
		count = capabilities.MinImageCount + 1
	}
	if count < framesInFlight {
		count = framesInFlight
	}
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

// clampExtent resolves the swapchain extent. When the surface reports a
// concrete current extent that wins; otherwise the requested size is clamped
// to the allowed range.
func clampExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}
	return vk.Extent2D{
		Width:  core.Clamp(width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: core.Clamp(height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

func SwapchainCreate(context *Context, config SwapchainConfig) (*Swapchain, error) {
	return createSwapchain(context, config)
}

// SwapchainRecreate destroys the current swapchain resources and builds a
// fresh set against the latest surface capabilities. The caller must have
// drained the device first.
func (s *Swapchain) SwapchainRecreate(context *Context, config SwapchainConfig) (*Swapchain, error) {
	s.destroySwapchain(context)
	return createSwapchain(context, config)
}

func (s *Swapchain) SwapchainDestroy(context *Context) {
	s.destroySwapchain(context)
}

// AcquireNextImageIndex fetches the next presentable image index. Out-of-date
// and suboptimal surface states are reported through the returned error so
// the frame loop can schedule recreation; acquisition still succeeded in the
// suboptimal case and the index is valid.
func (s *Swapchain) AcquireNextImageIndex(context *Context, timeoutNS uint64, imageAvailableSemaphore vk.Semaphore, fence vk.Fence) (uint32, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, s.Handle, timeoutNS, imageAvailableSemaphore, fence, &imageIndex)
	if result == vk.Suboptimal {
		return imageIndex, core.ErrSwapchainSuboptimal
	}
	if result != vk.Success {
		return 0, resultErr(result, "vkAcquireNextImageKHR")
	}
	return imageIndex, nil
}

// Present queues the image for presentation, waiting on the render-complete
// semaphore. Out-of-date and suboptimal results come back as recoverable
// errors.
func (s *Swapchain) Present(queue vk.Queue, renderCompleteSemaphore vk.Semaphore, imageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderCompleteSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.Handle},
		PImageIndices:      []uint32{imageIndex},
		PResults:           nil,
	}

	result := vk.QueuePresent(queue, &presentInfo)
	if result != vk.Success {
		return resultErr(result, "vkQueuePresentKHR")
	}
	return nil
}

func createSwapchain(context *Context, config SwapchainConfig) (*Swapchain, error) {
	// Capabilities may have changed since device selection (or the last
	// resize), so query them fresh every time.
	if err := DeviceQuerySwapchainSupport(context.Device.PhysicalDevice, context.Surface, &context.Device.SwapchainSupport); err != nil {
		return nil, err
	}
	support := &context.Device.SwapchainSupport
	if support.FormatCount == 0 || support.PresentModeCount == 0 {
		return nil, fmt.Errorf("%w: surface reports no formats or present modes", core.ErrInitialization)
	}

	swapchain := &Swapchain{}
	swapchain.ImageFormat = selectSurfaceFormat(support.Formats, preferredSurfaceFormats)
	presentMode := selectPresentMode(support.PresentModes, config.VSync)
	swapchain.Extent = clampExtent(support.Capabilities, config.Width, config.Height)
	imageCount := selectImageCount(support.Capabilities, config.DesiredImageCount, config.FramesInFlight)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		// Graphics and present share one queue family, so exclusive
		// sharing needs no ownership transfers.
		ImageSharingMode:      vk.SharingModeExclusive,
		QueueFamilyIndexCount: 0,
		PQueueFamilyIndices:   nil,
		PreTransform:          support.Capabilities.CurrentTransform,
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           presentMode,
		Clipped:               vk.True,
		OldSwapchain:          vk.NullSwapchain,
	}

	var swapchainHandle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &swapchainHandle); res != vk.Success {
		return nil, resultErr(res, "vkCreateSwapchainKHR")
	}
	swapchain.Handle = swapchainHandle

	// Images are owned by the swapchain; only their count and handles are
	// queried here.
	swapchain.ImageCount = 0
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, nil); res != vk.Success {
		return nil, resultErr(res, "vkGetSwapchainImagesKHR")
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	swapchain.Views = make([]vk.ImageView, swapchain.ImageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, swapchain.Images); res != vk.Success {
		return nil, resultErr(res, "vkGetSwapchainImagesKHR")
	}

	for i := 0; i < int(swapchain.ImageCount); i++ {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    swapchain.Images[i],
			ViewType: vk.ImageViewType2d,
			Format:   swapchain.ImageFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &swapchain.Views[i]); res != vk.Success {
			return nil, resultErr(res, "vkCreateImageView")
		}
	}
	context.tally.recordCreate("swapchain-image-view", int(swapchain.ImageCount))

	if !DeviceDetectDepthFormat(context.Device) {
		context.Device.DepthFormat = vk.FormatUndefined
		return nil, fmt.Errorf("%w: no supported depth format found", core.ErrInitialization)
	}

	depthAttachment, err := ImageCreate(
		context,
		vk.ImageType2d,
		swapchain.Extent.Width,
		swapchain.Extent.Height,
		context.Device.DepthFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		return nil, err
	}
	swapchain.DepthAttachment = depthAttachment
	context.tally.recordCreate("depth-attachment", 1)

	core.LogInfo("Swapchain created (%dx%d, %d images, present mode %d).",
		swapchain.Extent.Width, swapchain.Extent.Height, swapchain.ImageCount, presentMode)

	return swapchain, nil
}

// destroySwapchain tears down in reverse creation order: depth attachment,
// then views, then the swapchain handle. Images belong to the swapchain and
// go with it.
func (s *Swapchain) destroySwapchain(context *Context) {
	vk.DeviceWaitIdle(context.Device.LogicalDevice)

	if s.DepthAttachment != nil {
		s.DepthAttachment.ImageDestroy(context)
		s.DepthAttachment = nil
		context.tally.recordDestroy("depth-attachment", 1)
	}

	for i := 0; i < int(s.ImageCount); i++ {
		vk.DestroyImageView(context.Device.LogicalDevice, s.Views[i], context.Allocator)
	}
	context.tally.recordDestroy("swapchain-image-view", int(s.ImageCount))

	vk.DestroySwapchain(context.Device.LogicalDevice, s.Handle, context.Allocator)
	s.Handle = vk.NullSwapchain
}
