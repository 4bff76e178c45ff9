package core

import (
	"fmt"
	"testing"
)

func TestIsRecoverable(t *testing.T) {
	if !IsRecoverable(ErrSwapchainOutOfDate) {
		t.Error("out-of-date should be recoverable")
	}
	if !IsRecoverable(ErrSwapchainSuboptimal) {
		t.Error("suboptimal should be recoverable")
	}
	if IsRecoverable(ErrDeviceLost) {
		t.Error("device loss is not recoverable")
	}
	if IsRecoverable(ErrNoSuitableDevice) {
		t.Error("missing device is not recoverable")
	}
	if IsRecoverable(nil) {
		t.Error("nil is not recoverable")
	}
}

func TestIsRecoverableSeesWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("vkQueuePresentKHR: %w", ErrSwapchainOutOfDate)
	if !IsRecoverable(wrapped) {
		t.Error("wrapped out-of-date should be recoverable")
	}
}
