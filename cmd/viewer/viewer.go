// Copyright (c) 2025 Cubyte.online under the AGPL License

//go:build (darwin && !ios) || windows || (linux && !android) || dragonfly || openbsd

package main

import (
	"fmt"
	"log/slog"
	"os"

	"cogentcore.org/core/base/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/tomas-mraz/vulkan"

	asch "github.com/tomas-mraz/ashframe"
	"github.com/tomas-mraz/ashframe/glfwwin"
	"github.com/tomas-mraz/ashframe/scene"
	"github.com/tomas-mraz/ashframe/vkb"
)

// viewer owns everything the frame loop uses.
type viewer struct {
	cfg asch.SceneConfig

	win      *glfwwin.Window
	dev      *vkb.Device
	fs       *asch.FrameScheduler
	recorder *asch.ParallelRecorder

	// per frame slot
	ubos      []*vkb.Buffer
	setLayout *vkb.DescriptorLayout
	sets      *vkb.UniformSets

	meshLayout    *vkb.PipelineLayout
	meshPipeline  *vkb.Pipeline
	lightLayout   *vkb.PipelineLayout
	lightPipeline *vkb.Pipeline

	basic      *scene.BasicSystem
	lights     *scene.PointLightSystem
	drawLights bool

	room *scene.Room

	// nil unless shaders are watched
	watcher *shaderWatcher
}

// newViewer opens the window and creates the device, the frame
// scheduler and the scene. On error everything created so far is
// destroyed again.
func newViewer(cfg asch.Config) (*viewer, error) {
	v := &viewer{cfg: cfg.Scene}
	if err := v.init(cfg); err != nil {
		v.destroy()
		return nil, err
	}
	return v, nil
}

func (v *viewer) init(cfg asch.Config) error {
	var err error
	v.win, err = glfwwin.NewWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title)
	if err != nil {
		return err
	}
	v.dev, err = vkb.NewDevice(cfg.Window.Title, v.win.RequiredExtensions(), v.win.Surface(), cfg.Render.Validation)
	if err != nil {
		return err
	}
	v.fs, err = asch.NewFrameScheduler(v.dev, v.win)
	if err != nil {
		return err
	}
	c := cfg.Render.ClearColor
	v.fs.SetClearColor(c[0], c[1], c[2], c[3])
	v.fs.SetClearDepthStencil(cfg.Render.ClearDepth, 0)

	n := asch.WorkerCount(cfg.Render.Workers)
	v.recorder, err = asch.NewParallelRecorder(v.dev, n)
	if err != nil {
		return err
	}
	if asch.Debug {
		slog.Debug(fmt.Sprintf("recording with %d workers", n))
	}

	for range asch.MaxFramesInFlight {
		ubo, err := v.dev.NewUniformBuffer(scene.GlobalUboSize)
		if err != nil {
			return err
		}
		v.ubos = append(v.ubos, ubo)
	}
	v.setLayout, err = v.dev.NewDescriptorLayout()
	if err != nil {
		return err
	}
	v.sets, err = v.dev.NewUniformSets(v.setLayout, v.ubos)
	if err != nil {
		return err
	}

	if err := v.initSystems(cfg.Scene); err != nil {
		return err
	}

	v.room, err = scene.NewRoom(v.dev, cfg.Scene.Grid, cfg.Scene.Lights)
	if err != nil {
		return err
	}

	if cfg.Scene.Watch {
		s := cfg.Scene
		v.watcher, err = newShaderWatcher(s.VertexShader, s.FragmentShader, s.LightVertexShader, s.LightFragmentShader)
		if err != nil {
			return err
		}
	}
	return nil
}

// initSystems creates the pipelines of the configured shaders and the
// render systems using them.
func (v *viewer) initSystems(cfg asch.SceneConfig) error {
	var err error
	if cfg.VertexShader != "" {
		v.meshLayout, err = v.dev.NewPipelineLayout(v.setLayout, scene.MeshPushSize)
		if err != nil {
			return err
		}
		v.meshPipeline, err = v.newPipeline(v.meshLayout, cfg.VertexShader, cfg.FragmentShader, false, &vkb.VertexLayout{
			Stride: scene.VertexStride,
			Attributes: []vkb.VertexAttribute{
				{Location: 0, Format: vk.FormatR32g32b32Sfloat, Offset: scene.VertexOffsets[0]},
				{Location: 1, Format: vk.FormatR32g32b32Sfloat, Offset: scene.VertexOffsets[1]},
				{Location: 2, Format: vk.FormatR32g32b32Sfloat, Offset: scene.VertexOffsets[2]},
				{Location: 3, Format: vk.FormatR32g32Sfloat, Offset: scene.VertexOffsets[3]},
			},
		})
		if err != nil {
			return err
		}
		v.basic = scene.NewBasicSystem(v.recorder, v.meshPipeline, v.meshLayout)
	} else {
		slog.Warn("no mesh shaders configured, only clearing the screen")
	}

	if cfg.LightVertexShader == "" {
		// lights still move and shade the cubes
		v.lights = scene.NewPointLightSystem(v.recorder, nil, nil)
		return nil
	}
	v.lightLayout, err = v.dev.NewPipelineLayout(v.setLayout, scene.LightPushSize)
	if err != nil {
		return err
	}
	v.lightPipeline, err = v.newPipeline(v.lightLayout, cfg.LightVertexShader, cfg.LightFragmentShader, true, nil)
	if err != nil {
		return err
	}
	v.lights = scene.NewPointLightSystem(v.recorder, v.lightPipeline, v.lightLayout)
	v.drawLights = true
	return nil
}

func (v *viewer) newPipeline(layout *vkb.PipelineLayout, vertPath, fragPath string, blend bool, vertex *vkb.VertexLayout) (*vkb.Pipeline, error) {
	vert, err := os.ReadFile(vertPath)
	if err != nil {
		return nil, errors.Log(err)
	}
	frag, err := os.ReadFile(fragPath)
	if err != nil {
		return nil, errors.Log(err)
	}
	return v.dev.NewPipeline(v.fs.RenderPass(), layout, vkb.PipelineConfig{
		VertexShader:   vert,
		FragmentShader: frag,
		Vertex:         vertex,
		AlphaBlend:     blend,
	})
}

// reloadShaders rebuilds the pipelines from the shader files. If that
// fails the scene is not drawn until the shaders are fixed.
func (v *viewer) reloadShaders() {
	slog.Info("shaders changed, rebuilding pipelines")
	if err := v.dev.WaitIdle(); err != nil {
		slog.Warn(fmt.Sprintf("wait idle failed with %s", err))
	}
	v.destroySystems()
	if err := v.initSystems(v.cfg); err != nil {
		slog.Error(fmt.Sprintf("rebuilding pipelines failed with %s", err))
		v.destroySystems()
	}
}

// destroySystems destroys the pipelines and drops the systems using
// them. Lights keep being updated.
func (v *viewer) destroySystems() {
	if v.lightPipeline != nil {
		v.lightPipeline.Destroy()
		v.lightPipeline = nil
	}
	if v.lightLayout != nil {
		v.lightLayout.Destroy()
		v.lightLayout = nil
	}
	if v.meshPipeline != nil {
		v.meshPipeline.Destroy()
		v.meshPipeline = nil
	}
	if v.meshLayout != nil {
		v.meshLayout.Destroy()
		v.meshLayout = nil
	}
	v.basic = nil
	v.lights = scene.NewPointLightSystem(v.recorder, nil, nil)
	v.drawLights = false
}

// destroy releases everything in reverse order of creation. It is safe
// on a partly created viewer.
func (v *viewer) destroy() {
	if v.watcher != nil {
		if err := v.watcher.Close(); err != nil {
			slog.Warn(fmt.Sprintf("closing shader watcher failed with %s", err))
		}
	}
	if v.dev != nil {
		if err := v.dev.WaitIdle(); err != nil {
			slog.Warn(fmt.Sprintf("wait idle failed with %s", err))
		}
	}
	if v.room != nil {
		v.room.Destroy()
	}
	if v.recorder != nil {
		v.recorder.Destroy()
	}
	v.destroySystems()
	if v.sets != nil {
		v.sets.Destroy()
	}
	if v.setLayout != nil {
		v.setLayout.Destroy()
	}
	for _, ubo := range v.ubos {
		ubo.Destroy()
	}
	if v.fs != nil {
		if v.fs.IsFrameInProgress() {
			slog.Warn("frame still in progress, leaving the surface to the device")
		} else {
			v.fs.Destroy()
		}
	}
	if v.dev != nil {
		v.dev.Destroy()
	}
	if v.win != nil {
		v.win.Destroy()
	}
}

var keys = map[scene.Action]glfw.Key{
	scene.MoveLeft:     glfw.KeyA,
	scene.MoveRight:    glfw.KeyD,
	scene.MoveForward:  glfw.KeyW,
	scene.MoveBackward: glfw.KeyS,
	scene.MoveUp:       glfw.KeyE,
	scene.MoveDown:     glfw.KeyQ,
	scene.LookLeft:     glfw.KeyLeft,
	scene.LookRight:    glfw.KeyRight,
	scene.LookUp:       glfw.KeyUp,
	scene.LookDown:     glfw.KeyDown,
}

// keyInput reads the camera controls from the keyboard.
type keyInput struct {
	win *glfwwin.Window
}

func (in keyInput) Pressed(a scene.Action) bool {
	key, ok := keys[a]
	return ok && in.win.KeyDown(key)
}
