// Copyright (c) 2025 Cubyte.online under the AGPL License

//go:build (darwin && !ios) || windows || (linux && !android) || dragonfly || openbsd

// Command viewer renders a room of cubes lit by moving point lights.
// Move with W/A/S/D, E/Q for up and down, and look around with the
// arrow keys. Escape quits.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"cogentcore.org/core/math32"

	asch "github.com/tomas-mraz/ashframe"
	"github.com/tomas-mraz/ashframe/glfwwin"
	"github.com/tomas-mraz/ashframe/scene"
)

func init() {
	// glfw and the frame loop must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	var (
		configPath = flag.String("config", "", "TOML config `file`")
		debug      = flag.Bool("debug", false, "enable debug diagnostics")
		workers    = flag.Int("workers", 0, "recording workers, 0 for max(2, NumCPU)")
		width      = flag.Int("width", 0, "window width")
		height     = flag.Int("height", 0, "window height")
		watch      = flag.Bool("watch", false, "rebuild pipelines when a shader file changes")
	)
	flag.Parse()

	cfg := asch.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = asch.LoadConfig(*configPath)
		if err != nil {
			fatal(err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			cfg.Render.Debug = *debug
		case "workers":
			cfg.Render.Workers = *workers
		case "width":
			cfg.Window.Width = *width
		case "height":
			cfg.Window.Height = *height
		case "watch":
			cfg.Scene.Watch = *watch
		}
	})
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	if cfg.Render.Debug {
		asch.SetDebug(true)
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := glfwwin.Init(); err != nil {
		fatal(err)
	}
	v, err := newViewer(cfg)
	if err != nil {
		glfwwin.Terminate()
		fatal(err)
	}
	err = v.run()
	v.destroy()
	glfwwin.Terminate()
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	slog.Error(err.Error())
	os.Exit(1)
}

// run is the frame loop. It returns when the window is closed or on
// the first error that is not a stale surface.
func (v *viewer) run() error {
	camera := scene.NewCamera()
	eye := scene.NewGameObject()
	eye.Transform.Translation.Z = -2.5
	controller := scene.NewKeyboardController()
	input := keyInput{win: v.win}

	last := time.Now()
	for !v.win.ShouldClose() {
		v.win.PollEvents()
		now := time.Now()
		frameTime := float32(now.Sub(last).Seconds())
		last = now

		if v.watcher != nil && v.watcher.Changed() {
			v.reloadShaders()
		}

		controller.Update(input, frameTime, eye)
		camera.SetViewYXZ(eye.Transform.Translation, eye.Transform.Rotation)
		camera.SetPerspectiveProjection(math32.DegToRad(50), v.fs.AspectRatio(), 0.1, 100)

		cmd, err := v.fs.BeginFrame()
		if err != nil {
			return fmt.Errorf("begin frame: %w", err)
		}
		if cmd == nil {
			// surface was recreated
			continue
		}
		if err := v.drawFrame(cmd, camera, frameTime); err != nil {
			return err
		}
		if err := v.fs.EndFrame(); err != nil {
			return fmt.Errorf("end frame: %w", err)
		}
	}
	return nil
}

// drawFrame updates the uniform of the frame slot and records the
// render systems into the surface render pass.
func (v *viewer) drawFrame(cmd asch.CommandBuffer, camera *scene.Camera, frameTime float32) error {
	slot := v.fs.FrameIndex()
	info := asch.FrameInfo{
		FrameIndex:    slot,
		FrameTime:     frameTime,
		CommandBuffer: cmd,
		Inheritance:   v.fs.Inheritance(),
		Extent:        v.fs.Surface.Extent(),
		GlobalSet:     v.sets.Sets[slot],
	}
	f := scene.NewFrame(info, camera, v.room.Objects)
	v.recorder.BeginFrame(slot)

	ubo := scene.NewGlobalUbo(camera)
	if err := v.lights.Update(f, ubo); err != nil {
		return err
	}
	if err := v.ubos[slot].Write(ubo.Bytes()); err != nil {
		return err
	}

	v.fs.BeginRenderPass(cmd, asch.SecondaryBuffers)
	defer v.fs.EndRenderPass(cmd)
	if v.basic != nil {
		if err := v.basic.Render(f); err != nil {
			return fmt.Errorf("basic system: %w", err)
		}
	}
	if v.drawLights {
		if err := v.lights.Render(f); err != nil {
			return fmt.Errorf("point light system: %w", err)
		}
	}
	return nil
}
