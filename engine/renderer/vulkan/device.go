package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/vetro-engine/vetro/engine/core"
)

// Device bundles the selected physical device, the logical device created on
// it, and the single combined graphics+present queue this core runs on.
// Devices whose graphics and present families never coincide are rejected at
// selection time; cross-queue image ownership transfer is deliberately
// unsupported.
type Device struct {
	PhysicalDevice   vk.PhysicalDevice
	LogicalDevice    vk.Device
	SwapchainSupport SwapchainSupportInfo

	// Index of the queue family used for both graphics and presentation.
	QueueFamilyIndex int32
	Queue            vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	DepthFormat vk.Format
}

// deviceCandidate is the scoring input gathered for one physical device.
// Kept free of Vulkan calls so the scoring policy is testable.
type deviceCandidate struct {
	Name                string
	DeviceType          vk.PhysicalDeviceType
	MaxImageDimension2D uint32

	CombinedQueueFamily int32 // family supporting both graphics and present, -1 when none
	HasGraphicsFamily   bool
	HasPresentFamily    bool

	HasSwapchainExtension bool
	FormatCount           uint32
	PresentModeCount      uint32
}

// scoreDeviceCandidate ranks a candidate. Zero means unusable. Discrete GPUs
// beat integrated ones; the maximum 2D image dimension breaks ties, as a
// rough proxy for overall capability.
func scoreDeviceCandidate(c deviceCandidate) int {
	if c.CombinedQueueFamily < 0 {
		return 0
	}
	if !c.HasSwapchainExtension {
		return 0
	}
	if c.FormatCount == 0 || c.PresentModeCount == 0 {
		return 0
	}

	score := int(c.MaxImageDimension2D)
	switch c.DeviceType {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		score += 100000
	case vk.PhysicalDeviceTypeIntegratedGpu:
		score += 10000
	case vk.PhysicalDeviceTypeVirtualGpu:
		score += 1000
	}
	return score
}

// DeviceCreate selects the best physical device for the surface on the
// context, creates the logical device, fetches the combined queue and builds
// the graphics command pool.
func DeviceCreate(context *Context) error {
	if err := selectPhysicalDevice(context); err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")

	var queuePriority float32 = 1.0
	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: uint32(context.Device.QueueFamilyIndex),
		QueueCount:       1,
		PQueuePriorities: []float32{queuePriority},
	}}

	deviceFeatures := vk.PhysicalDeviceFeatures{}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if deviceHasExtension(context.Device.PhysicalDevice, "VK_KHR_portability_subset") {
		core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
		extensionNames = append(extensionNames, "VK_KHR_portability_subset")
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: SafeStrings(extensionNames),
	}

	if res := vk.CreateDevice(
		context.Device.PhysicalDevice,
		&deviceCreateInfo,
		context.Allocator,
		&context.Device.LogicalDevice); res != vk.Success {
		return fmt.Errorf("vkCreateDevice failed with %s", ResultString(res))
	}
	core.LogInfo("Logical device created.")

	vk.GetDeviceQueue(
		context.Device.LogicalDevice,
		uint32(context.Device.QueueFamilyIndex),
		0,
		&context.Device.Queue)

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(context.Device.QueueFamilyIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if res := vk.CreateCommandPool(
		context.Device.LogicalDevice,
		&poolCreateInfo,
		context.Allocator,
		&context.Device.GraphicsCommandPool); res != vk.Success {
		return fmt.Errorf("vkCreateCommandPool failed with %s", ResultString(res))
	}
	core.LogDebug("Graphics command pool created.")

	return nil
}

// DeviceDestroy releases the command pool and the logical device. The
// physical device handle is owned by the instance and only unset here.
func DeviceDestroy(context *Context) {
	context.Device.Queue = nil

	if context.Device.GraphicsCommandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(
			context.Device.LogicalDevice,
			context.Device.GraphicsCommandPool,
			context.Allocator)
		context.Device.GraphicsCommandPool = vk.NullCommandPool
	}

	core.LogDebug("Destroying logical device...")
	if context.Device.LogicalDevice != nil {
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
	}

	context.Device.PhysicalDevice = nil
	context.Device.SwapchainSupport = SwapchainSupportInfo{}
	context.Device.QueueFamilyIndex = -1
}

// DeviceQuerySwapchainSupport refreshes the surface capabilities, formats and
// present modes for the given physical device.
func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface, supportInfo *SwapchainSupportInfo) error {
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &supportInfo.Capabilities); res != vk.Success {
		return fmt.Errorf("failed to get surface capabilities: %s", ResultString(res))
	}
	supportInfo.Capabilities.Deref()
	supportInfo.Capabilities.CurrentExtent.Deref()
	supportInfo.Capabilities.MinImageExtent.Deref()
	supportInfo.Capabilities.MaxImageExtent.Deref()

	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &supportInfo.FormatCount, nil); res != vk.Success {
		return fmt.Errorf("failed to get surface formats: %s", ResultString(res))
	}
	if supportInfo.FormatCount != 0 {
		supportInfo.Formats = make([]vk.SurfaceFormat, supportInfo.FormatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &supportInfo.FormatCount, supportInfo.Formats); res != vk.Success {
			return fmt.Errorf("failed to get surface formats: %s", ResultString(res))
		}
		for i := range supportInfo.Formats {
			supportInfo.Formats[i].Deref()
		}
	}

	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &supportInfo.PresentModeCount, nil); res != vk.Success {
		return fmt.Errorf("failed to get surface present modes: %s", ResultString(res))
	}
	if supportInfo.PresentModeCount != 0 {
		supportInfo.PresentModes = make([]vk.PresentMode, supportInfo.PresentModeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &supportInfo.PresentModeCount, supportInfo.PresentModes); res != vk.Success {
			return fmt.Errorf("failed to get surface present modes: %s", ResultString(res))
		}
	}
	return nil
}

// DeviceDetectDepthFormat picks the first depth format the device supports
// as a depth/stencil attachment, preferring higher precision.
func DeviceDetectDepthFormat(device *Device) bool {
	candidates := []vk.Format{
		vk.FormatD32Sfloat,
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
	}
	flags := vk.FormatFeatureDepthStencilAttachmentBit
	for _, candidate := range candidates {
		var properties vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, candidate, &properties)
		properties.Deref()
		if (vk.FormatFeatureFlagBits(properties.LinearTilingFeatures) & flags) == flags {
			device.DepthFormat = candidate
			return true
		} else if (vk.FormatFeatureFlagBits(properties.OptimalTilingFeatures) & flags) == flags {
			device.DepthFormat = candidate
			return true
		}
	}
	return false
}

func selectPhysicalDevice(context *Context) error {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return fmt.Errorf("%w: vkEnumeratePhysicalDevices failed with %s", core.ErrNoSuitableDevice, ResultString(res))
	}
	if physicalDeviceCount == 0 {
		return fmt.Errorf("%w: no devices which support Vulkan were found", core.ErrNoSuitableDevice)
	}

	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return fmt.Errorf("%w: vkEnumeratePhysicalDevices failed with %s", core.ErrNoSuitableDevice, ResultString(res))
	}

	bestScore := 0
	var bestDevice vk.PhysicalDevice
	var bestCandidate deviceCandidate
	var bestSupport SwapchainSupportInfo
	sawSeparateOnly := false

	for _, pd := range physicalDevices {
		candidate, support, err := gatherDeviceCandidate(pd, context.Surface)
		if err != nil {
			core.LogWarn("skipping device: %s", err.Error())
			continue
		}
		if candidate.CombinedQueueFamily < 0 && candidate.HasGraphicsFamily && candidate.HasPresentFamily {
			sawSeparateOnly = true
		}

		score := scoreDeviceCandidate(candidate)
		core.LogDebug("Device '%s' scored %d.", candidate.Name, score)
		if score > bestScore {
			bestScore = score
			bestDevice = pd
			bestCandidate = candidate
			bestSupport = support
		}
	}

	if bestDevice == nil {
		if sawSeparateOnly {
			return fmt.Errorf("%w: separate graphics/present queue families are unsupported", core.ErrNoSuitableDevice)
		}
		return fmt.Errorf("%w: no physical device meets the requirements", core.ErrNoSuitableDevice)
	}

	properties := vk.PhysicalDeviceProperties{}
	vk.GetPhysicalDeviceProperties(bestDevice, &properties)
	properties.Deref()
	features := vk.PhysicalDeviceFeatures{}
	vk.GetPhysicalDeviceFeatures(bestDevice, &features)
	features.Deref()
	memory := vk.PhysicalDeviceMemoryProperties{}
	vk.GetPhysicalDeviceMemoryProperties(bestDevice, &memory)
	memory.Deref()

	context.Device.PhysicalDevice = bestDevice
	context.Device.QueueFamilyIndex = bestCandidate.CombinedQueueFamily
	context.Device.SwapchainSupport = bestSupport
	context.Device.Properties = properties
	context.Device.Features = features
	context.Device.Memory = memory

	core.LogInfo("Selected device: '%s'.", bestCandidate.Name)
	switch properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version.Major(vk.Version(properties.ApiVersion)),
		vk.Version.Minor(vk.Version(properties.ApiVersion)),
		vk.Version.Patch(vk.Version(properties.ApiVersion)),
	)

	return nil
}

func gatherDeviceCandidate(pd vk.PhysicalDevice, surface vk.Surface) (deviceCandidate, SwapchainSupportInfo, error) {
	candidate := deviceCandidate{CombinedQueueFamily: -1}
	support := SwapchainSupportInfo{}

	properties := vk.PhysicalDeviceProperties{}
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()
	properties.Limits.Deref()

	e := findFirstZeroInByteArray(properties.DeviceName[:])
	candidate.Name = vk.ToString(properties.DeviceName[:e+1])
	candidate.DeviceType = properties.DeviceType
	candidate.MaxImageDimension2D = properties.Limits.MaxImageDimension2D

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &queueFamilyCount, queueFamilies)

	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()

		graphics := vk.QueueFlagBits(queueFamilies[i].QueueFlags)&vk.QueueGraphicsBit != 0
		if graphics {
			candidate.HasGraphicsFamily = true
		}

		var supportsPresent vk.Bool32 = vk.False
		if res := vk.GetPhysicalDeviceSurfaceSupport(pd, i, surface, &supportsPresent); res != vk.Success {
			return candidate, support, fmt.Errorf("vkGetPhysicalDeviceSurfaceSupportKHR failed with %s", ResultString(res))
		}
		if supportsPresent == vk.True {
			candidate.HasPresentFamily = true
		}

		if graphics && supportsPresent == vk.True && candidate.CombinedQueueFamily < 0 {
			candidate.CombinedQueueFamily = int32(i)
		}
	}

	candidate.HasSwapchainExtension = deviceHasExtension(pd, vk.KhrSwapchainExtensionName)

	if candidate.CombinedQueueFamily >= 0 && candidate.HasSwapchainExtension {
		if err := DeviceQuerySwapchainSupport(pd, surface, &support); err != nil {
			return candidate, support, err
		}
		candidate.FormatCount = support.FormatCount
		candidate.PresentModeCount = support.PresentModeCount
	}

	return candidate, support, nil
}

func deviceHasExtension(pd vk.PhysicalDevice, name string) bool {
	var availableCount uint32
	if res := vk.EnumerateDeviceExtensionProperties(pd, "", &availableCount, nil); res != vk.Success {
		return false
	}
	if availableCount == 0 {
		return false
	}
	available := make([]vk.ExtensionProperties, availableCount)
	if res := vk.EnumerateDeviceExtensionProperties(pd, "", &availableCount, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		e := findFirstZeroInByteArray(available[i].ExtensionName[:])
		if SafeString(name) == vk.ToString(available[i].ExtensionName[:e+1]) {
			return true
		}
	}
	return false
}
