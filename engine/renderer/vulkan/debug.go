package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/vetro-engine/vetro/engine/core"
)

// DebugSink receives validation-layer messages. The callback is invoked
// synchronously on whichever thread triggered the validating call.
type DebugSink interface {
	ValidationMessage(severity DebugSeverity, layerPrefix string, code int32, message string)
}

type DebugSeverity int

const (
	DebugSeverityInfo DebugSeverity = iota
	DebugSeverityWarning
	DebugSeverityPerformance
	DebugSeverityError
)

// logSink is the default sink, forwarding into the engine logger.
type logSink struct{}

func (logSink) ValidationMessage(severity DebugSeverity, layerPrefix string, code int32, message string) {
	switch severity {
	case DebugSeverityError:
		core.LogError("[%s] Code %d : %s", layerPrefix, code, message)
	case DebugSeverityWarning, DebugSeverityPerformance:
		core.LogWarn("[%s] Code %d : %s", layerPrefix, code, message)
	default:
		core.LogInfo("[%s] Code %d : %s", layerPrefix, code, message)
	}
}

// The C trampoline requires a plain function, so the active sink lives in a
// package variable. One renderer per process, set during instance creation.
var activeSink DebugSink = logSink{}

func createDebugMessenger(context *Context, sink DebugSink) error {
	if sink != nil {
		activeSink = sink
	}

	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: dbgCallbackFunc,
	}

	var dbg vk.DebugReportCallback
	if res := vk.CreateDebugReportCallback(context.Instance, &debugCreateInfo, context.Allocator, &dbg); res != vk.Success {
		core.LogWarn("vkCreateDebugReportCallbackEXT failed with %s; continuing without validation output", ResultString(res))
		return nil
	}
	context.debugMessenger = dbg

	core.LogDebug("Vulkan debug messenger created.")
	return nil
}

func destroyDebugMessenger(context *Context) {
	if context.debugMessenger != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(context.Instance, context.debugMessenger, context.Allocator)
		context.debugMessenger = vk.NullDebugReportCallback
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	severity := DebugSeverityInfo
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		severity = DebugSeverityError
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		severity = DebugSeverityPerformance
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		severity = DebugSeverityWarning
	}
	activeSink.ValidationMessage(severity, pLayerPrefix, messageCode, pMessage)
	return vk.Bool32(vk.False)
}
