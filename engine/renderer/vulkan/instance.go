package vulkan

import (
	"fmt"
	"runtime"

	vk "github.com/goki/vulkan"

	"github.com/vetro-engine/vetro/engine/core"
)

// InstanceConfig is everything instance creation needs from the caller: the
// application identity, the extensions the windowing system requires, and
// whether the validation layers should be loaded.
type InstanceConfig struct {
	AppName            string
	RequiredExtensions []string
	Validation         bool
	// Sink receives validation-layer messages when Validation is on. A nil
	// sink falls back to the engine logger.
	Sink DebugSink
}

// CreateInstance creates the Vulkan instance on the context, verifying that
// every required extension and validation layer is present first. Missing
// prerequisites surface as core.ErrInitialization.
func CreateInstance(context *Context, config *InstanceConfig) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   SafeString(config.AppName),
		PEngineName:        SafeString("Vetro"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, config.RequiredExtensions...)

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		createInfo.Flags |= 1 // VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
	}

	if config.Validation {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
	}

	if err := verifyInstanceExtensions(requiredExtensions); err != nil {
		return err
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = SafeStrings(requiredExtensions)

	requiredLayers := []string{}
	if config.Validation {
		requiredLayers = []string{"VK_LAYER_KHRONOS_validation"}
		if err := verifyValidationLayers(requiredLayers); err != nil {
			return err
		}
	}

	createInfo.EnabledLayerCount = uint32(len(requiredLayers))
	createInfo.PpEnabledLayerNames = SafeStrings(requiredLayers)

	if res := vk.CreateInstance(&createInfo, context.Allocator, &context.Instance); res != vk.Success {
		return fmt.Errorf("%w: vkCreateInstance failed with %s", core.ErrInitialization, ResultString(res))
	}
	if err := vk.InitInstance(context.Instance); err != nil {
		return fmt.Errorf("%w: %s", core.ErrInitialization, err)
	}

	core.LogInfo("Vulkan instance created.")

	if config.Validation {
		if err := createDebugMessenger(context, config.Sink); err != nil {
			return err
		}
	}
	return nil
}

// DestroyInstance tears down the debug messenger and then the instance. The
// instance is created first and destroyed last.
func DestroyInstance(context *Context) {
	destroyDebugMessenger(context)
	if context.Instance != nil {
		vk.DestroyInstance(context.Instance, context.Allocator)
		context.Instance = nil
	}
}

func verifyInstanceExtensions(required []string) error {
	var availableCount uint32
	if res := vk.EnumerateInstanceExtensionProperties("", &availableCount, nil); res != vk.Success {
		return fmt.Errorf("%w: cannot enumerate instance extensions", core.ErrInitialization)
	}
	available := make([]vk.ExtensionProperties, availableCount)
	if res := vk.EnumerateInstanceExtensionProperties("", &availableCount, available); res != vk.Success {
		return fmt.Errorf("%w: cannot enumerate instance extensions", core.ErrInitialization)
	}

	for _, want := range required {
		found := false
		for i := range available {
			available[i].Deref()
			e := findFirstZeroInByteArray(available[i].ExtensionName[:])
			if SafeString(want) == vk.ToString(available[i].ExtensionName[:e+1]) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: required instance extension is missing: %s", core.ErrInitialization, want)
		}
	}
	return nil
}

func verifyValidationLayers(required []string) error {
	core.LogInfo("Validation layers enabled. Enumerating...")

	var availableCount uint32
	if res := vk.EnumerateInstanceLayerProperties(&availableCount, nil); res != vk.Success {
		return fmt.Errorf("%w: cannot enumerate instance layers", core.ErrInitialization)
	}
	available := make([]vk.LayerProperties, availableCount)
	if res := vk.EnumerateInstanceLayerProperties(&availableCount, available); res != vk.Success {
		return fmt.Errorf("%w: cannot enumerate instance layers", core.ErrInitialization)
	}

	for _, want := range required {
		found := false
		for i := range available {
			available[i].Deref()
			e := findFirstZeroInByteArray(available[i].LayerName[:])
			if SafeString(want) == vk.ToString(available[i].LayerName[:e+1]) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: required validation layer is missing: %s", core.ErrInitialization, want)
		}
	}
	core.LogInfo("All required validation layers are present.")
	return nil
}
