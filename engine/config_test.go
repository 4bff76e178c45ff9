package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	defaults := DefaultConfig()
	if config != defaults {
		t.Errorf("expected defaults, got %+v", config)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vetro.toml")
	content := `
[application]
name = "demo"
width = 800
height = 600

[renderer]
frames_in_flight = 3
desired_image_count = 4
vsync = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if config.Application.Name != "demo" || config.Application.Width != 800 {
		t.Errorf("application section not applied: %+v", config.Application)
	}
	if config.Renderer.FramesInFlight != 3 || config.Renderer.DesiredImageCount != 4 || config.Renderer.VSync {
		t.Errorf("renderer section not applied: %+v", config.Renderer)
	}
	// Untouched sections keep their defaults.
	if config.Renderer.ShaderDir != "shaders" {
		t.Errorf("expected default shader dir, got %q", config.Renderer.ShaderDir)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected default log level, got %q", config.Logging.Level)
	}
}

func TestLoadConfigRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vetro.toml")
	if err := os.WriteFile(path, []byte("[application\nname="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("malformed TOML should error")
	}
}

func TestValidate(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	config = DefaultConfig()
	config.Application.Width = 0
	if err := config.Validate(); err == nil {
		t.Error("zero width should be rejected")
	}

	config = DefaultConfig()
	config.Renderer.FramesInFlight = 0
	if err := config.Validate(); err == nil {
		t.Error("zero frames in flight should be rejected")
	}

	config = DefaultConfig()
	config.Renderer.FramesInFlight = 4
	if err := config.Validate(); err == nil {
		t.Error("more than 3 frames in flight should be rejected")
	}

	config = DefaultConfig()
	config.Renderer.ShaderDir = ""
	if err := config.Validate(); err == nil {
		t.Error("empty shader dir should be rejected")
	}
}
