package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/vetro-engine/vetro/engine/core"
)

// Context holds the process-level Vulkan state. It is constructed explicitly
// and passed by reference to every subsystem; nothing in this package hangs
// off hidden globals except the C debug-callback trampoline (see debug.go).
type Context struct {
	// The framebuffer's current width.
	FramebufferWidth uint32
	// The framebuffer's current height.
	FramebufferHeight uint32
	// Current generation of framebuffer size. If it does not match
	// FramebufferSizeLastGeneration, the swapchain must be recreated.
	FramebufferSizeGeneration uint64
	// The generation of the framebuffer when the swapchain was last
	// (re)created.
	FramebufferSizeLastGeneration uint64

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugMessenger vk.DebugReportCallback

	Device    *Device
	Swapchain *Swapchain

	// Create/destroy accounting for per-image resources, kept so leaks
	// across swapchain recreations are observable.
	tally resourceTally
}

// resourceTally counts create and destroy events per resource kind. Repeated
// swapchain recreation must leave every kind balanced except for the one
// live generation.
type resourceTally struct {
	created   map[string]int
	destroyed map[string]int
}

func (t *resourceTally) recordCreate(kind string, n int) {
	if t.created == nil {
		t.created = make(map[string]int)
	}
	t.created[kind] += n
}

func (t *resourceTally) recordDestroy(kind string, n int) {
	if t.destroyed == nil {
		t.destroyed = make(map[string]int)
	}
	t.destroyed[kind] += n
}

// outstanding reports creates minus destroys for one resource kind.
func (t *resourceTally) outstanding(kind string) int {
	return t.created[kind] - t.destroyed[kind]
}

// balanced reports whether every kind has been destroyed exactly as many
// times as it was created.
func (t *resourceTally) balanced() bool {
	for kind := range t.created {
		if t.outstanding(kind) != 0 {
			return false
		}
	}
	for kind, n := range t.destroyed {
		if t.created[kind] != n {
			return false
		}
	}
	return true
}

// FramebufferSizeOutOfDate reports whether a resize notification has arrived
// since the swapchain was last created.
func (c *Context) FramebufferSizeOutOfDate() bool {
	return c.FramebufferSizeGeneration != c.FramebufferSizeLastGeneration
}

// NotifyResized records a new framebuffer size. The swapchain itself is
// rebuilt lazily, at the next frame boundary.
func (c *Context) NotifyResized(width, height uint32) {
	c.FramebufferWidth = width
	c.FramebufferHeight = height
	c.FramebufferSizeGeneration++
}

// FindMemoryIndex locates a device memory type matching typeFilter and the
// requested property flags, or -1 when none qualifies.
func (c *Context) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(c.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (memoryProperties.MemoryTypes[i].PropertyFlags&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
