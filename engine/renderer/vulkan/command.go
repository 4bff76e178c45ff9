package vulkan

import (
	vk "github.com/goki/vulkan"
)

type CommandBufferState int

const (
	CommandBufferStateReady CommandBufferState = iota
	CommandBufferStateRecording
	CommandBufferStateInRenderPass
	CommandBufferStateRecordingEnded
	CommandBufferStateSubmitted
	CommandBufferStateNotAllocated
)

type CommandBuffer struct {
	Handle vk.CommandBuffer
	State  CommandBufferState
}

func NewCommandBuffer(context *Context, pool vk.CommandPool, isPrimary bool) (*CommandBuffer, error) {
	commandBuffer := &CommandBuffer{
		State: CommandBufferStateNotAllocated,
	}

	level := vk.CommandBufferLevelPrimary
	if !isPrimary {
		level = vk.CommandBufferLevelSecondary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              level,
	}

	handles := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, handles); res != vk.Success {
		return nil, resultErr(res, "vkAllocateCommandBuffers")
	}
	commandBuffer.Handle = handles[0]
	commandBuffer.State = CommandBufferStateReady

	return commandBuffer, nil
}

func (c *CommandBuffer) Free(context *Context, pool vk.CommandPool) {
	vk.FreeCommandBuffers(context.Device.LogicalDevice, pool, 1, []vk.CommandBuffer{c.Handle})
	c.Handle = nil
	c.State = CommandBufferStateNotAllocated
}

func (c *CommandBuffer) Begin(isSingleUse, isRenderPassContinue, isSimultaneousUse bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: 0,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderPassContinue {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if res := vk.BeginCommandBuffer(c.Handle, &beginInfo); res != vk.Success {
		return resultErr(res, "vkBeginCommandBuffer")
	}
	c.State = CommandBufferStateRecording
	return nil
}

func (c *CommandBuffer) End() error {
	if res := vk.EndCommandBuffer(c.Handle); res != vk.Success {
		return resultErr(res, "vkEndCommandBuffer")
	}
	c.State = CommandBufferStateRecordingEnded
	return nil
}

func (c *CommandBuffer) UpdateSubmitted() {
	c.State = CommandBufferStateSubmitted
}

// Reset returns the buffer to the ready state. The pool is created with the
// reset bit, so the implicit reset on the next Begin is enough; only the
// host-side state is rolled back here. Used both on reuse and when a frame
// is abandoned mid-record.
func (c *CommandBuffer) Reset() {
	c.State = CommandBufferStateReady
}

// AllocateAndBeginSingleUse allocates a primary buffer and starts a
// one-time-submit recording, for short transfer work outside the frame loop.
func AllocateAndBeginSingleUse(context *Context, pool vk.CommandPool) (*CommandBuffer, error) {
	commandBuffer, err := NewCommandBuffer(context, pool, true)
	if err != nil {
		return nil, err
	}
	if err := commandBuffer.Begin(true, false, false); err != nil {
		commandBuffer.Free(context, pool)
		return nil, err
	}
	return commandBuffer, nil
}

// EndSingleUse ends recording, submits, waits for the queue to drain and
// frees the buffer.
func (c *CommandBuffer) EndSingleUse(context *Context, pool vk.CommandPool, queue vk.Queue) error {
	if err := c.End(); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{c.Handle},
	}
	if res := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		return resultErr(res, "vkQueueSubmit")
	}
	if res := vk.QueueWaitIdle(queue); res != vk.Success {
		return resultErr(res, "vkQueueWaitIdle")
	}

	c.Free(context, pool)
	return nil
}
