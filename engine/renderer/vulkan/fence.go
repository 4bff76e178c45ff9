package vulkan

import (
	vk "github.com/goki/vulkan"
)

// Fence wraps a vk.Fence together with a host-side signaled flag so a wait
// on a fence known to be signaled costs nothing. Slots start signaled, which
// makes the first frames fall straight through their reuse wait.
type Fence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(context *Context, createSignaled bool) (*Fence, error) {
	fence := &Fence{
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, resultErr(res, "vkCreateFence")
	}
	fence.Handle = handle
	return fence, nil
}

func (f *Fence) FenceDestroy(context *Context) {
	if f.Handle != vk.NullFence {
		vk.DestroyFence(context.Device.LogicalDevice, f.Handle, context.Allocator)
		f.Handle = vk.NullFence
	}
	f.IsSignaled = false
}

// FenceWait blocks until the fence signals or the timeout elapses. Already
// signaled fences return immediately without a device call.
func (f *Fence) FenceWait(context *Context, timeoutNs uint64) error {
	if f.IsSignaled {
		return nil
	}
	result := vk.WaitForFences(context.Device.LogicalDevice, 1, []vk.Fence{f.Handle}, vk.True, timeoutNs)
	if result != vk.Success {
		return resultErr(result, "vkWaitForFences")
	}
	f.IsSignaled = true
	return nil
}

func (f *Fence) FenceReset(context *Context) error {
	if !f.IsSignaled {
		return nil
	}
	if res := vk.ResetFences(context.Device.LogicalDevice, 1, []vk.Fence{f.Handle}); res != vk.Success {
		return resultErr(res, "vkResetFences")
	}
	f.IsSignaled = false
	return nil
}
