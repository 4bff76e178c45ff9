package vulkan

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/vetro-engine/vetro/engine/core"
)

func stageOf(bit vk.ShaderStageFlagBits) vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType: vk.StructureTypePipelineShaderStageCreateInfo,
		Stage: bit,
	}
}

func TestValidateStageLinkageAcceptsVertexPlusFragment(t *testing.T) {
	stages := []vk.PipelineShaderStageCreateInfo{
		stageOf(vk.ShaderStageVertexBit),
		stageOf(vk.ShaderStageFragmentBit),
	}
	if err := validateStageLinkage(stages); err != nil {
		t.Errorf("vertex+fragment should validate, got %v", err)
	}
}

func TestValidateStageLinkageRejectsEmpty(t *testing.T) {
	err := validateStageLinkage(nil)
	if !errors.Is(err, core.ErrPipelineBuild) {
		t.Errorf("expected ErrPipelineBuild, got %v", err)
	}
}

func TestValidateStageLinkageRejectsMissingFragment(t *testing.T) {
	stages := []vk.PipelineShaderStageCreateInfo{stageOf(vk.ShaderStageVertexBit)}
	if err := validateStageLinkage(stages); !errors.Is(err, core.ErrPipelineBuild) {
		t.Errorf("expected ErrPipelineBuild, got %v", err)
	}
}

func TestValidateStageLinkageRejectsDuplicateVertex(t *testing.T) {
	stages := []vk.PipelineShaderStageCreateInfo{
		stageOf(vk.ShaderStageVertexBit),
		stageOf(vk.ShaderStageVertexBit),
		stageOf(vk.ShaderStageFragmentBit),
	}
	if err := validateStageLinkage(stages); !errors.Is(err, core.ErrPipelineBuild) {
		t.Errorf("expected ErrPipelineBuild, got %v", err)
	}
}

func TestValidateStageLinkageRejectsUnsupportedStage(t *testing.T) {
	stages := []vk.PipelineShaderStageCreateInfo{
		stageOf(vk.ShaderStageVertexBit),
		stageOf(vk.ShaderStageGeometryBit),
		stageOf(vk.ShaderStageFragmentBit),
	}
	if err := validateStageLinkage(stages); !errors.Is(err, core.ErrPipelineBuild) {
		t.Errorf("expected ErrPipelineBuild, got %v", err)
	}
}
