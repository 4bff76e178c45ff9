package vulkan

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/vetro-engine/vetro/engine/core"
)

// SlotState tracks where a frame slot is in the acquire/record/submit cycle.
// Transitions are enforced so a slot can never be submitted twice or
// recorded before its previous use retired.
type SlotState int

const (
	SlotIdle SlotState = iota
	SlotAcquired
	SlotRecording
	SlotSubmitted
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotAcquired:
		return "acquired"
	case SlotRecording:
		return "recording"
	case SlotSubmitted:
		return "submitted"
	}
	return "unknown"
}

// validTransition is the slot state machine. Idle moves forward through
// acquired, recording and submitted; submitted wraps back to idle when the
// slot is reused; any state may abort straight to idle.
func validTransition(from, to SlotState) bool {
	if to == SlotIdle {
		return true
	}
	switch from {
	case SlotIdle:
		return to == SlotAcquired
	case SlotAcquired:
		return to == SlotRecording
	case SlotRecording:
		return to == SlotSubmitted
	}
	return false
}

// FrameSlot owns the per-frame synchronization objects: one command buffer,
// the acquire and render-complete semaphores, and the fence signaled when
// the slot's submission retires. Fences start signaled so the first pass
// through each slot does not block.
type FrameSlot struct {
	CommandBuffer  *CommandBuffer
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       *Fence
	State          SlotState
}

func (s *FrameSlot) transition(to SlotState) error {
	if !validTransition(s.State, to) {
		return fmt.Errorf("invalid frame slot transition %s -> %s", s.State, to)
	}
	s.State = to
	return nil
}

// FrameSynchronizer rotates through a fixed ring of frame slots and tracks
// which in-flight fence last rendered to each swapchain image, so the CPU
// never records into resources the GPU still reads.
type FrameSynchronizer struct {
	Slots       []*FrameSlot
	CurrentSlot uint32

	// Fence of the submission currently using each swapchain image, nil
	// when the image has never been rendered to.
	imagesInFlight []*Fence
}

func NewFrameSynchronizer(context *Context, framesInFlight uint32, imageCount uint32) (*FrameSynchronizer, error) {
	if framesInFlight == 0 {
		return nil, fmt.Errorf("%w: frames in flight must be at least 1", core.ErrInitialization)
	}

	fs := &FrameSynchronizer{
		Slots:          make([]*FrameSlot, framesInFlight),
		imagesInFlight: make([]*Fence, imageCount),
	}

	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	for i := range fs.Slots {
		slot := &FrameSlot{State: SlotIdle}

		commandBuffer, err := NewCommandBuffer(context, context.Device.GraphicsCommandPool, true)
		if err != nil {
			return nil, err
		}
		slot.CommandBuffer = commandBuffer

		if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &slot.ImageAvailable); res != vk.Success {
			return nil, resultErr(res, "vkCreateSemaphore")
		}
		if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &slot.RenderFinished); res != vk.Success {
			return nil, resultErr(res, "vkCreateSemaphore")
		}

		fence, err := NewFence(context, true)
		if err != nil {
			return nil, err
		}
		slot.InFlight = fence

		fs.Slots[i] = slot
	}

	core.LogDebug("Frame synchronizer created (%d slots, %d swapchain images).", framesInFlight, imageCount)
	return fs, nil
}

// Slot returns the slot frames are currently recorded into.
func (fs *FrameSynchronizer) Slot() *FrameSlot {
	return fs.Slots[fs.CurrentSlot]
}

// ResetImageTracking drops the per-image fence associations. Must be called
// after swapchain recreation, when image identities change.
func (fs *FrameSynchronizer) ResetImageTracking(imageCount uint32) {
	fs.imagesInFlight = make([]*Fence, imageCount)
}

// AcquireFrame waits for the current slot's previous submission to retire,
// acquires the next swapchain image and resolves any fence still attached to
// that image. On success the slot holds the image index and is ready for
// recording.
func (fs *FrameSynchronizer) AcquireFrame(context *Context, swapchain *Swapchain, timeoutNs uint64) (uint32, error) {
	slot := fs.Slot()

	if err := slot.InFlight.FenceWait(context, timeoutNs); err != nil {
		return 0, fmt.Errorf("waiting for frame slot %d: %w", fs.CurrentSlot, err)
	}

	imageIndex, err := swapchain.AcquireNextImageIndex(context, timeoutNs, slot.ImageAvailable, vk.NullFence)
	if err != nil && !IsRecoverableAcquire(err) {
		return 0, err
	}
	acquireErr := err

	if err := checkImageIndex(imageIndex, uint32(len(fs.imagesInFlight))); err != nil {
		return 0, err
	}

	// Another slot may still be rendering to this image; wait its fence out
	// before reusing the image.
	if imageFence := fs.imagesInFlight[imageIndex]; imageFence != nil && imageFence != slot.InFlight {
		if err := imageFence.FenceWait(context, timeoutNs); err != nil {
			return 0, fmt.Errorf("waiting for image %d fence: %w", imageIndex, err)
		}
	}
	fs.imagesInFlight[imageIndex] = slot.InFlight

	if err := slot.transition(SlotAcquired); err != nil {
		return 0, err
	}

	// Suboptimal still delivered a usable image; surface it so the caller
	// can schedule recreation after this frame.
	return imageIndex, acquireErr
}

// checkImageIndex guards the per-image bookkeeping against an acquired index
// outside the swapchain's image range. The driver must never hand one out;
// indexing imagesInFlight with it anyway would corrupt fence tracking.
func checkImageIndex(imageIndex, imageCount uint32) error {
	if imageIndex >= imageCount {
		return fmt.Errorf("acquired image index %d out of range (%d images)", imageIndex, imageCount)
	}
	return nil
}

// IsRecoverableAcquire reports whether an acquire error still produced a
// usable image this frame.
func IsRecoverableAcquire(err error) bool {
	return errors.Is(err, core.ErrSwapchainSuboptimal)
}

// BeginRecording moves the slot into the recording state and starts its
// command buffer.
func (fs *FrameSynchronizer) BeginRecording() (*CommandBuffer, error) {
	slot := fs.Slot()
	if err := slot.transition(SlotRecording); err != nil {
		return nil, err
	}
	slot.CommandBuffer.Reset()
	if err := slot.CommandBuffer.Begin(false, false, false); err != nil {
		slot.State = SlotIdle
		return nil, err
	}
	return slot.CommandBuffer, nil
}

// SubmitFrame ends recording and submits the slot's command buffer: waits
// on image-available at the color attachment output stage, signals
// render-finished, and fences the slot. The fence is reset only here, after
// a successful acquire, so an abandoned frame never deadlocks its slot.
func (fs *FrameSynchronizer) SubmitFrame(context *Context, queue vk.Queue) error {
	slot := fs.Slot()

	if err := slot.CommandBuffer.End(); err != nil {
		return err
	}
	if err := slot.transition(SlotSubmitted); err != nil {
		return err
	}

	if err := slot.InFlight.FenceReset(context); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{slot.ImageAvailable},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{slot.CommandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{slot.RenderFinished},
	}

	if res := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, slot.InFlight.Handle); res != vk.Success {
		return resultErr(res, "vkQueueSubmit")
	}
	slot.CommandBuffer.UpdateSubmitted()
	return nil
}

// PresentFrame queues the image for presentation and advances to the next
// slot. A recoverable present error is returned after the slot has already
// advanced, since the submission itself succeeded.
func (fs *FrameSynchronizer) PresentFrame(context *Context, swapchain *Swapchain, queue vk.Queue, imageIndex uint32) error {
	slot := fs.Slot()
	err := swapchain.Present(queue, slot.RenderFinished, imageIndex)
	fs.advance()
	return err
}

// Abort abandons the current frame without submitting, rolling the slot back
// to idle. Used when acquire reports out-of-date or recording fails. The
// in-flight fence was not reset, so the next pass through this slot will not
// block on a submission that never happened.
func (fs *FrameSynchronizer) Abort() {
	slot := fs.Slot()
	slot.CommandBuffer.Reset()
	slot.State = SlotIdle
}

func (fs *FrameSynchronizer) advance() {
	fs.Slot().State = SlotIdle
	fs.CurrentSlot = (fs.CurrentSlot + 1) % uint32(len(fs.Slots))
}

// WaitIdle blocks until every slot's in-flight work has retired.
func (fs *FrameSynchronizer) WaitIdle(context *Context, timeoutNs uint64) error {
	for i, slot := range fs.Slots {
		if err := slot.InFlight.FenceWait(context, timeoutNs); err != nil {
			return fmt.Errorf("waiting for frame slot %d: %w", i, err)
		}
	}
	return nil
}

func (fs *FrameSynchronizer) Destroy(context *Context) {
	for _, slot := range fs.Slots {
		if slot.ImageAvailable != vk.NullSemaphore {
			vk.DestroySemaphore(context.Device.LogicalDevice, slot.ImageAvailable, context.Allocator)
			slot.ImageAvailable = vk.NullSemaphore
		}
		if slot.RenderFinished != vk.NullSemaphore {
			vk.DestroySemaphore(context.Device.LogicalDevice, slot.RenderFinished, context.Allocator)
			slot.RenderFinished = vk.NullSemaphore
		}
		if slot.InFlight != nil {
			slot.InFlight.FenceDestroy(context)
		}
		if slot.CommandBuffer != nil && slot.CommandBuffer.Handle != nil {
			slot.CommandBuffer.Free(context, context.Device.GraphicsCommandPool)
		}
	}
	fs.Slots = nil
	fs.imagesInFlight = nil
}
