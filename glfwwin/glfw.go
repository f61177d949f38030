// Copyright (c) 2025 Cubyte.online under the AGPL License

//go:build (darwin && !ios) || windows || (linux && !android) || dragonfly || openbsd

// Package glfwwin provides desktop windows for the frame logic.
package glfwwin

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/tomas-mraz/vulkan"

	asch "github.com/tomas-mraz/ashframe"
	"github.com/tomas-mraz/ashframe/vkb"
)

// Init initializes glfw and the vulkan loader through it.
// IMPORTANT: must be called on the main initial thread!
func Init() error {
	err := glfw.Init()
	if err != nil {
		return errors.Log(err)
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	return errors.Log(vk.Init())
}

// Terminate shuts glfw down -- call as last thing before quitting.
// IMPORTANT: must be called on the main initial thread!
func Terminate() {
	glfw.Terminate()
}

// Window is a resizable glfw window without a client API.
// Its methods must be called on the main thread.
type Window struct {
	win     *glfw.Window
	resized bool
}

var _ asch.Window = (*Window)(nil)

// NewWindow opens a window of the given size.
func NewWindow(width, height int, title string) (*Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}
	w := &Window{win: win}
	win.SetFramebufferSizeCallback(w.frameBufferResizeCallback)
	win.SetKeyCallback(w.keyCallback)
	return w, nil
}

func (w *Window) frameBufferResizeCallback(_ *glfw.Window, width, height int) {
	w.resized = true
}

func (w *Window) keyCallback(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		win.SetShouldClose(true)
	}
}

// Extent returns the framebuffer size in pixels.
func (w *Window) Extent() asch.Extent {
	width, height := w.win.GetFramebufferSize()
	return asch.Extent{Width: uint32(max(width, 0)), Height: uint32(max(height, 0))}
}

func (w *Window) WasResized() bool { return w.resized }

func (w *Window) ResetResized() { w.resized = false }

func (w *Window) WaitEvents() { glfw.WaitEvents() }

// PollEvents processes pending events without blocking.
func (w *Window) PollEvents() { glfw.PollEvents() }

func (w *Window) ShouldClose() bool { return w.win.ShouldClose() }

// KeyDown reports whether key is held down.
func (w *Window) KeyDown(key glfw.Key) bool {
	action := w.win.GetKey(key)
	return action == glfw.Press || action == glfw.Repeat
}

// RequiredExtensions returns the instance extensions glfw needs to
// create surfaces.
func (w *Window) RequiredExtensions() []string {
	return w.win.GetRequiredInstanceExtensions()
}

// Surface returns the function that creates the window surface once
// the instance exists.
func (w *Window) Surface() vkb.SurfaceFunc {
	return func(instance vk.Instance) (vk.Surface, error) {
		surfPtr, err := w.win.CreateWindowSurface(instance, nil)
		if err != nil {
			return vk.NullSurface, errors.Log(fmt.Errorf("cannot create surface within GLFW window: %w", err))
		}
		return vk.SurfaceFromPointer(surfPtr), nil
	}
}

func (w *Window) Destroy() {
	if w.win == nil {
		return
	}
	w.win.Destroy()
	w.win = nil
}
