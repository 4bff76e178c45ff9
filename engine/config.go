package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/vetro-engine/vetro/engine/core"
)

// Config is the application configuration, loaded from a TOML file with
// sane defaults for anything not set.
type Config struct {
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
	Logging     LoggingConfig     `toml:"logging"`
}

type ApplicationConfig struct {
	Name   string `toml:"name"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type RendererConfig struct {
	// Number of frames the CPU may record ahead of the GPU.
	FramesInFlight uint32 `toml:"frames_in_flight"`
	// Swapchain image count hint. Zero asks for one beyond the surface
	// minimum; the surface capabilities always have the final say.
	DesiredImageCount uint32 `toml:"desired_image_count"`
	VSync             bool   `toml:"vsync"`
	// Enables the Khronos validation layer and the debug messenger.
	Validation bool   `toml:"validation"`
	ShaderDir  string `toml:"shader_dir"`
	// Rebuild pipelines when compiled shaders change on disk.
	WatchShaders bool `toml:"watch_shaders"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

func DefaultConfig() Config {
	return Config{
		Application: ApplicationConfig{
			Name:   "Vetro",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			FramesInFlight:    2,
			DesiredImageCount: 3,
			VSync:             true,
			Validation:        false,
			ShaderDir:         "shaders",
			WatchShaders:      true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the TOML file at path over the defaults. A missing file
// is not an error; the defaults are returned as-is.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			core.LogDebug("No config file at '%s', using defaults.", path)
			return config, nil
		}
		return config, fmt.Errorf("reading config %q: %w", path, err)
	}

	if err := toml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parsing config %q: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate rejects configurations the renderer cannot run with.
func (c *Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return fmt.Errorf("window dimensions must be non-zero, got %dx%d", c.Application.Width, c.Application.Height)
	}
	if c.Renderer.FramesInFlight < 1 || c.Renderer.FramesInFlight > 3 {
		return fmt.Errorf("frames_in_flight must be between 1 and 3, got %d", c.Renderer.FramesInFlight)
	}
	if c.Renderer.ShaderDir == "" {
		return fmt.Errorf("shader_dir must not be empty")
	}
	return nil
}
