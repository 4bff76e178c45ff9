package vulkan

import (
	"testing"
)

func TestValidTransition(t *testing.T) {
	allowed := []struct{ from, to SlotState }{
		{SlotIdle, SlotAcquired},
		{SlotAcquired, SlotRecording},
		{SlotRecording, SlotSubmitted},
		{SlotSubmitted, SlotIdle},
		// Aborting is legal from anywhere.
		{SlotAcquired, SlotIdle},
		{SlotRecording, SlotIdle},
		{SlotIdle, SlotIdle},
	}
	for _, tc := range allowed {
		if !validTransition(tc.from, tc.to) {
			t.Errorf("transition %s -> %s should be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct{ from, to SlotState }{
		{SlotIdle, SlotRecording},
		{SlotIdle, SlotSubmitted},
		{SlotAcquired, SlotSubmitted},
		{SlotSubmitted, SlotAcquired},
		{SlotSubmitted, SlotRecording},
		{SlotRecording, SlotAcquired},
	}
	for _, tc := range forbidden {
		if validTransition(tc.from, tc.to) {
			t.Errorf("transition %s -> %s should be rejected", tc.from, tc.to)
		}
	}
}

func TestSlotTransitionRejectsDoubleSubmit(t *testing.T) {
	slot := &FrameSlot{State: SlotIdle}
	if err := slot.transition(SlotAcquired); err != nil {
		t.Fatal(err)
	}
	if err := slot.transition(SlotRecording); err != nil {
		t.Fatal(err)
	}
	if err := slot.transition(SlotSubmitted); err != nil {
		t.Fatal(err)
	}
	if err := slot.transition(SlotSubmitted); err == nil {
		t.Error("second submit transition should fail")
	}
}

func TestAdvanceWrapsAndResetsState(t *testing.T) {
	fs := &FrameSynchronizer{
		Slots: []*FrameSlot{
			{State: SlotSubmitted},
			{State: SlotIdle},
			{State: SlotIdle},
		},
	}

	fs.advance()
	if fs.CurrentSlot != 1 {
		t.Errorf("expected slot 1, got %d", fs.CurrentSlot)
	}
	if fs.Slots[0].State != SlotIdle {
		t.Errorf("advance should reset the departed slot to idle, got %s", fs.Slots[0].State)
	}

	fs.advance()
	fs.advance()
	if fs.CurrentSlot != 0 {
		t.Errorf("expected wrap to slot 0, got %d", fs.CurrentSlot)
	}
}

func TestCheckImageIndex(t *testing.T) {
	for index := uint32(0); index < 3; index++ {
		if err := checkImageIndex(index, 3); err != nil {
			t.Errorf("index %d of 3 should be accepted, got %v", index, err)
		}
	}
	if err := checkImageIndex(3, 3); err == nil {
		t.Error("index equal to the image count should be rejected")
	}
	if err := checkImageIndex(7, 3); err == nil {
		t.Error("index beyond the image count should be rejected")
	}
	if err := checkImageIndex(0, 0); err == nil {
		t.Error("any index is out of range for zero images")
	}
}

func TestAbortReturnsSlotToIdle(t *testing.T) {
	fs := &FrameSynchronizer{
		Slots: []*FrameSlot{
			{State: SlotAcquired, CommandBuffer: &CommandBuffer{State: CommandBufferStateRecording}},
		},
	}
	fs.Abort()
	if fs.Slots[0].State != SlotIdle {
		t.Errorf("expected idle after abort, got %s", fs.Slots[0].State)
	}
	if fs.Slots[0].CommandBuffer.State != CommandBufferStateReady {
		t.Errorf("expected command buffer reset after abort, got %d", fs.Slots[0].CommandBuffer.State)
	}
	if fs.CurrentSlot != 0 {
		t.Error("abort must not advance the slot")
	}
}
