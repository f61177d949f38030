// Copyright (c) 2025 Cubyte.online under the AGPL License

package asch

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the settings of a viewer.
type Config struct {
	Window WindowConfig `toml:"window"`
	Render RenderConfig `toml:"render"`
	Scene  SceneConfig  `toml:"scene"`
}

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

type RenderConfig struct {
	// number of recording workers, 0 for max(2, NumCPU)
	Workers int `toml:"workers"`

	// RGBA
	ClearColor []float32 `toml:"clear_color"`
	ClearDepth float32   `toml:"clear_depth"`

	// enables the validation layers
	Validation bool `toml:"validation"`
	Debug      bool `toml:"debug"`
}

type SceneConfig struct {
	// SPIR-V files of the mesh pipeline; without them only the clear
	// color is shown
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`

	// SPIR-V files of the point light billboards; without them lights
	// still move and shade the cubes but are not drawn
	LightVertexShader   string `toml:"light_vertex_shader"`
	LightFragmentShader string `toml:"light_fragment_shader"`

	// rebuild the pipelines when a shader file changes
	Watch bool `toml:"watch"`

	// cubes per side of the floor grid
	Grid int `toml:"grid"`

	Lights int `toml:"lights"`
}

// MaxLights is the number of point lights the global uniform holds.
const MaxLights = 10

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{Width: 1280, Height: 720, Title: "ashframe"},
		Render: RenderConfig{
			ClearColor: []float32{0.01, 0.01, 0.01, 1},
			ClearDepth: 1,
		},
		Scene: SceneConfig{Grid: 8, Lights: 6},
	}
}

// LoadConfig reads a TOML file over the defaults and validates the
// result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings for values the viewer can't work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Render.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d must not be negative", c.Render.Workers))
	}
	if len(c.Render.ClearColor) != 4 {
		errs = append(errs, fmt.Errorf("clear_color needs 4 components, got %d", len(c.Render.ClearColor)))
	}
	if c.Render.ClearDepth < 0 || c.Render.ClearDepth > 1 {
		errs = append(errs, fmt.Errorf("clear_depth %g out of [0, 1]", c.Render.ClearDepth))
	}
	if (c.Scene.VertexShader == "") != (c.Scene.FragmentShader == "") {
		errs = append(errs, errors.New("vertex_shader and fragment_shader must be set together"))
	}
	if (c.Scene.LightVertexShader == "") != (c.Scene.LightFragmentShader == "") {
		errs = append(errs, errors.New("light_vertex_shader and light_fragment_shader must be set together"))
	}
	if c.Scene.Grid < 0 {
		errs = append(errs, fmt.Errorf("grid %d must not be negative", c.Scene.Grid))
	}
	if c.Scene.Lights < 0 || c.Scene.Lights > MaxLights {
		errs = append(errs, fmt.Errorf("lights %d out of [0, %d]", c.Scene.Lights, MaxLights))
	}
	return errors.Join(errs...)
}
