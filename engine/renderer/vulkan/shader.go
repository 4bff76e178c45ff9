package vulkan

import (
	"fmt"
	"os"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/vetro-engine/vetro/engine/core"
)

// spirvMagic is the little-endian magic number opening every SPIR-V module.
const spirvMagic = 0x07230203

// ShaderStage is one compiled SPIR-V module plus the create info that wires
// it into a pipeline.
type ShaderStage struct {
	Module          vk.ShaderModule
	Stage           vk.ShaderStageFlagBits
	StageCreateInfo vk.PipelineShaderStageCreateInfo
}

// validateSPIRV rejects byte blobs that cannot be a SPIR-V module before
// they reach the driver.
func validateSPIRV(code []byte) error {
	if len(code) == 0 {
		return fmt.Errorf("%w: shader code is empty", core.ErrPipelineBuild)
	}
	if len(code)%4 != 0 {
		return fmt.Errorf("%w: shader code length %d is not a multiple of 4", core.ErrPipelineBuild, len(code))
	}
	words := sliceUint32(code)
	if words[0] != spirvMagic {
		return fmt.Errorf("%w: shader code has bad magic 0x%08x", core.ErrPipelineBuild, words[0])
	}
	return nil
}

// sliceUint32 reinterprets a byte slice as the uint32 word stream the shader
// module create info expects. The caller must keep the backing bytes alive
// until vkCreateShaderModule returns.
func sliceUint32(data []byte) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

// shaderModuleCreateInfo wraps validated SPIR-V bytes for vkCreateShaderModule.
// CodeSize is in bytes while PCode is in 32-bit words.
func shaderModuleCreateInfo(code []byte) vk.ShaderModuleCreateInfo {
	return vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    sliceUint32(code),
	}
}

// LoadShaderStage reads a .spv file from disk and builds a shader module for
// the given stage. The entry point is always "main".
func LoadShaderStage(context *Context, path string, stage vk.ShaderStageFlagBits) (*ShaderStage, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading shader %q: %v", core.ErrPipelineBuild, path, err)
	}
	if err := validateSPIRV(code); err != nil {
		return nil, fmt.Errorf("%v (file %q)", err, path)
	}

	moduleCreateInfo := shaderModuleCreateInfo(code)

	var module vk.ShaderModule
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &moduleCreateInfo, context.Allocator, &module); res != vk.Success {
		return nil, resultErr(res, "vkCreateShaderModule")
	}

	shaderStage := &ShaderStage{
		Module: module,
		Stage:  stage,
		StageCreateInfo: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: module,
			PName:  SafeString("main"),
		},
	}

	core.LogDebug("Loaded shader stage from '%s' (%d bytes).", path, len(code))
	return shaderStage, nil
}

func (s *ShaderStage) Destroy(context *Context) {
	if s.Module != vk.NullShaderModule {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Module, context.Allocator)
		s.Module = vk.NullShaderModule
	}
}
