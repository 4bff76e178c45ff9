package vulkan

import (
	vk "github.com/goki/vulkan"
)

type Framebuffer struct {
	Handle      vk.Framebuffer
	Attachments []vk.ImageView
	RenderPass  *RenderPass
}

// FramebufferCreate wraps one framebuffer over the given attachments. A copy
// of the attachment slice is kept so the caller may reuse theirs.
func FramebufferCreate(context *Context, renderPass *RenderPass, width uint32, height uint32, attachments []vk.ImageView) (*Framebuffer, error) {
	framebuffer := &Framebuffer{
		Attachments: make([]vk.ImageView, len(attachments)),
		RenderPass:  renderPass,
	}
	copy(framebuffer.Attachments, attachments)

	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass.Handle,
		AttachmentCount: uint32(len(framebuffer.Attachments)),
		PAttachments:    framebuffer.Attachments,
		Width:           width,
		Height:          height,
		Layers:          1,
	}

	var handle vk.Framebuffer
	if res := vk.CreateFramebuffer(context.Device.LogicalDevice, &framebufferCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, resultErr(res, "vkCreateFramebuffer")
	}
	framebuffer.Handle = handle
	context.tally.recordCreate("framebuffer", 1)
	return framebuffer, nil
}

func (f *Framebuffer) Destroy(context *Context) {
	if f.Handle != vk.NullFramebuffer {
		vk.DestroyFramebuffer(context.Device.LogicalDevice, f.Handle, context.Allocator)
		f.Handle = vk.NullFramebuffer
		context.tally.recordDestroy("framebuffer", 1)
	}
	f.Attachments = nil
	f.RenderPass = nil
}
