package vulkan

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/vetro-engine/vetro/engine/core"
)

func spirvBlob(words ...uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[4*i:], w)
	}
	return out
}

func TestValidateSPIRVAcceptsWellFormedModule(t *testing.T) {
	code := spirvBlob(spirvMagic, 0x00010000, 0, 1, 0)
	if err := validateSPIRV(code); err != nil {
		t.Errorf("well-formed module rejected: %v", err)
	}
}

func TestValidateSPIRVRejectsEmpty(t *testing.T) {
	if err := validateSPIRV(nil); !errors.Is(err, core.ErrPipelineBuild) {
		t.Errorf("expected ErrPipelineBuild, got %v", err)
	}
}

func TestValidateSPIRVRejectsTruncated(t *testing.T) {
	code := spirvBlob(spirvMagic)[:3]
	if err := validateSPIRV(code); !errors.Is(err, core.ErrPipelineBuild) {
		t.Errorf("expected ErrPipelineBuild, got %v", err)
	}
}

func TestValidateSPIRVRejectsBadMagic(t *testing.T) {
	code := spirvBlob(0xdeadbeef, 0x00010000)
	if err := validateSPIRV(code); !errors.Is(err, core.ErrPipelineBuild) {
		t.Errorf("expected ErrPipelineBuild, got %v", err)
	}
}

func TestShaderModuleCreateInfoSizesInBytes(t *testing.T) {
	code := spirvBlob(spirvMagic, 0x00010000, 0, 1, 0)
	info := shaderModuleCreateInfo(code)
	if info.CodeSize != uint64(len(code)) {
		t.Errorf("expected code size %d bytes, got %d", len(code), info.CodeSize)
	}
	if len(info.PCode) != len(code)/4 {
		t.Errorf("expected %d words, got %d", len(code)/4, len(info.PCode))
	}
}

func TestSliceUint32Roundtrip(t *testing.T) {
	code := spirvBlob(spirvMagic, 42, 0xffffffff)
	words := sliceUint32(code)
	if len(words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(words))
	}
	if words[0] != spirvMagic || words[1] != 42 || words[2] != 0xffffffff {
		t.Errorf("unexpected words: %#v", words)
	}
}
