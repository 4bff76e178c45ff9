package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/vetro-engine/vetro/engine/core"
)

// Vertex matches the layout the triangle shaders consume: position then
// color, tightly packed.
type Vertex struct {
	Position [3]float32
	Color    [3]float32
}

// VertexStride is the byte size of one Vertex.
const VertexStride = uint32(unsafe.Sizeof(Vertex{}))

// VertexAttributes describes the Vertex layout for pipeline creation.
func VertexAttributes() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Location: 0,
			Binding:  0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   0,
		},
		{
			Location: 1,
			Binding:  0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
}

// VertexBuffer holds vertex data in host-visible memory. The amount of
// geometry here is small enough that a staging copy to device-local memory
// buys nothing.
type VertexBuffer struct {
	Handle      vk.Buffer
	Memory      vk.DeviceMemory
	VertexCount uint32
}

// NewVertexBuffer creates the buffer, allocates host-visible coherent memory
// for it and uploads the vertices through a map/copy/unmap.
func NewVertexBuffer(context *Context, vertices []Vertex) (*VertexBuffer, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("%w: vertex buffer needs at least one vertex", core.ErrInitialization)
	}

	buffer := &VertexBuffer{
		VertexCount: uint32(len(vertices)),
	}
	size := vk.DeviceSize(len(vertices)) * vk.DeviceSize(VertexStride)

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
		SharingMode: vk.SharingModeExclusive,
	}
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferCreateInfo, context.Allocator, &buffer.Handle); res != vk.Success {
		return nil, resultErr(res, "vkCreateBuffer")
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType := context.FindMemoryIndex(
		memoryRequirements.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if memoryType == -1 {
		return nil, fmt.Errorf("%w: no host-visible coherent memory type for vertex buffer", core.ErrInitialization)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &buffer.Memory); res != vk.Success {
		return nil, resultErr(res, "vkAllocateMemory")
	}

	var data unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, buffer.Memory, 0, size, 0, &data); res != vk.Success {
		return nil, resultErr(res, "vkMapMemory")
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), int(size))
	vk.Memcopy(data, src)
	vk.UnmapMemory(context.Device.LogicalDevice, buffer.Memory)

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		return nil, resultErr(res, "vkBindBufferMemory")
	}

	return buffer, nil
}

// Bind attaches the buffer to binding zero for subsequent draws.
func (b *VertexBuffer) Bind(commandBuffer *CommandBuffer) {
	vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{b.Handle}, []vk.DeviceSize{0})
}

func (b *VertexBuffer) Destroy(context *Context) {
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
		b.Handle = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
		b.Memory = vk.NullDeviceMemory
	}
	b.VertexCount = 0
}
