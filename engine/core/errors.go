package core

import (
	"errors"
)

// Sentinel errors for every failure class the renderer can surface. Callers
// match on these with errors.Is after any amount of wrapping.
var (
	// ErrInitialization covers missing instance extensions or validation
	// layers. Fatal at startup.
	ErrInitialization = errors.New("initialization failed")

	// ErrNoSuitableDevice means no physical device met the queue, extension
	// and surface-support requirements. Fatal.
	ErrNoSuitableDevice = errors.New("no suitable physical device")

	// ErrPipelineBuild covers shader-stage linkage problems detected while
	// building a graphics pipeline. Fatal at build time.
	ErrPipelineBuild = errors.New("pipeline build failed")

	// ErrSwapchainOutOfDate is raised when the presentation engine reports
	// a stale swapchain. Recoverable: recreate and retry the frame.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")

	// ErrSwapchainSuboptimal means the swapchain still works but no longer
	// matches the surface exactly. Recoverable: recreate opportunistically.
	ErrSwapchainSuboptimal = errors.New("swapchain suboptimal")

	// ErrDeviceLost is an unrecoverable device fault. Full teardown required.
	ErrDeviceLost = errors.New("device lost")

	// ErrTimeout means a fence or acquire wait exceeded its bound.
	ErrTimeout = errors.New("wait timed out")
)

// IsRecoverable reports whether the frame loop may handle err by recreating
// the swapchain and retrying, rather than terminating.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSwapchainOutOfDate) || errors.Is(err, ErrSwapchainSuboptimal)
}
