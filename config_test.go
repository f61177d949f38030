// Copyright (c) 2025 Cubyte.online under the AGPL License

package asch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "viewer.toml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[window]
width = 640
title = "cubes"

[render]
workers = 3
clear_color = [0.1, 0.2, 0.3, 1.0]

[scene]
vertex_shader = "shaders/simple.vert.spv"
fragment_shader = "shaders/simple.frag.spv"
light_vertex_shader = "shaders/point_light.vert.spv"
light_fragment_shader = "shaders/point_light.frag.spv"
lights = 10
watch = true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "unset keys keep their defaults")
	assert.Equal(t, "cubes", cfg.Window.Title)
	assert.Equal(t, 3, cfg.Render.Workers)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 1}, cfg.Render.ClearColor)
	assert.Equal(t, float32(1), cfg.Render.ClearDepth)
	assert.Equal(t, "shaders/simple.vert.spv", cfg.Scene.VertexShader)
	assert.Equal(t, "shaders/point_light.frag.spv", cfg.Scene.LightFragmentShader)
	assert.True(t, cfg.Scene.Watch)
	assert.Equal(t, 8, cfg.Scene.Grid)
	assert.Equal(t, MaxLights, cfg.Scene.Lights)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeConfig(t, `
[window]
width = 0

[render]
workers = -1
clear_color = [1.0]

[scene]
vertex_shader = "only.vert.spv"
light_fragment_shader = "only.frag.spv"
lights = 11
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	for _, msg := range []string{"window size", "workers", "clear_color", "vertex_shader", "light_vertex_shader", "lights"} {
		assert.ErrorContains(t, err, msg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "[window\nwidth = "))
	assert.Error(t, err)
}
