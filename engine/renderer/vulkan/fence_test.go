package vulkan

import "testing"

func TestFenceWaitReturnsImmediatelyWhenSignaled(t *testing.T) {
	// A signaled fence must not reach the device at all; nil context proves
	// no call is made.
	f := &Fence{IsSignaled: true}
	if err := f.FenceWait(nil, 0); err != nil {
		t.Errorf("signaled fence wait returned %v", err)
	}
}

func TestFenceResetSkipsUnsignaledFence(t *testing.T) {
	f := &Fence{IsSignaled: false}
	if err := f.FenceReset(nil); err != nil {
		t.Errorf("reset of unsignaled fence returned %v", err)
	}
}
