// Copyright (c) 2025 Cubyte.online under the AGPL License
// Copyright (c) 2022 Cogent Core. under the BSD-style License
// Copyright (c) 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package asch

import (
	"fmt"
	"log/slog"
)

// FrameScheduler drives the frame lifecycle: it acquires swapchain
// images, opens and closes the primary command buffer of each frame
// slot, and submits and presents finished frames.
// It is the only owner of the frame and image indices and the only
// caller of the Surface acquire and submit operations.
//
// The frame loop is
//
//	cmd, err := fs.BeginFrame()
//	if cmd != nil {
//		fs.BeginRenderPass(cmd, contents)
//		... record ...
//		fs.EndRenderPass(cmd)
//		err = fs.EndFrame()
//	}
//
// A nil command buffer with a nil error means the surface was stale
// and has been recreated; the frame must be skipped.
type FrameScheduler struct {
	// the surface we present to
	Surface *Surface

	// the window the surface belongs to
	Window Window

	// values for clearing color and depth when starting the render pass
	ClearValues []ClearValue

	cmds CmdPool

	frameIndex     int
	imageIndex     int
	isFrameStarted bool
}

// NewFrameScheduler creates the surface for win and allocates one
// primary command buffer per frame slot. It blocks while the window
// is minimized.
func NewFrameScheduler(dev Device, win Window) (*FrameScheduler, error) {
	fs := &FrameScheduler{Window: win}
	fs.SetClearColor(0.01, 0.01, 0.01, 1)
	fs.SetClearDepthStencil(1, 0)

	sf, err := NewSurface(dev, waitForExtent(win))
	if err != nil {
		return nil, err
	}
	fs.Surface = sf
	if err := fs.cmds.Init(dev, Primary); err != nil {
		sf.Destroy()
		return nil, err
	}
	return fs, nil
}

// SetClearColor sets the RGBA colors to set when starting new render
func (fs *FrameScheduler) SetClearColor(r, g, b, a float32) {
	if len(fs.ClearValues) == 0 {
		fs.ClearValues = make([]ClearValue, 2)
	}
	fs.ClearValues[0].Color = [4]float32{r, g, b, a}
}

// SetClearDepthStencil sets the depth and stencil values when starting new render
func (fs *FrameScheduler) SetClearDepthStencil(depth float32, stencil uint32) {
	if len(fs.ClearValues) == 0 {
		fs.ClearValues = make([]ClearValue, 2)
	}
	fs.ClearValues[1].Depth = depth
	fs.ClearValues[1].Stencil = stencil
}

// BeginFrame acquires the next image and begins recording into the
// primary command buffer of the current frame slot.
// If the surface was stale it is recreated and BeginFrame returns a
// nil buffer; the frame index is left unchanged.
func (fs *FrameScheduler) BeginFrame() (CommandBuffer, error) {
	contract(!fs.isFrameStarted, "can't call BeginFrame while already in progress")

	idx, status, err := fs.Surface.AcquireNextImage(fs.frameIndex)
	if err != nil {
		return nil, err
	}
	if status == StatusStale {
		return nil, fs.recreateSurface()
	}
	cmd, err := fs.cmds.BeginCmd(fs.frameIndex, nil)
	if err != nil {
		return nil, err
	}
	fs.imageIndex = idx
	fs.isFrameStarted = true
	return cmd, nil
}

// EndFrame ends the primary command buffer, submits it and presents
// the image, then advances to the next frame slot. The surface is
// recreated if presentation reported it stale or suboptimal, or if
// the window was resized.
func (fs *FrameScheduler) EndFrame() error {
	contract(fs.isFrameStarted, "can't call EndFrame while frame is not in progress")

	if err := fs.cmds.EndCmd(fs.frameIndex); err != nil {
		return err
	}
	cmd := fs.cmds.Buffs[fs.frameIndex]
	status, err := fs.Surface.SubmitAndPresent(cmd, fs.imageIndex, fs.frameIndex)
	fs.isFrameStarted = false
	if err != nil {
		return err
	}
	fs.frameIndex = (fs.frameIndex + 1) % MaxFramesInFlight

	if status != StatusSuccess || fs.Window.WasResized() {
		fs.Window.ResetResized()
		return fs.recreateSurface()
	}
	return nil
}

// BeginRenderPass begins the surface render pass on cmd, which must
// be the buffer returned by the current BeginFrame. With Inline
// contents the viewport and scissor are set to the full extent.
func (fs *FrameScheduler) BeginRenderPass(cmd CommandBuffer, contents Contents) {
	contract(fs.isFrameStarted, "can't call BeginRenderPass if frame is not in progress")
	contract(cmd == fs.cmds.Buffs[fs.frameIndex], "can't begin render pass on command buffer from a different frame")

	extent := fs.Surface.Extent()
	cmd.BeginRenderPass(fs.Surface.RenderPass(), fs.Surface.Framebuffer(fs.imageIndex), extent, fs.ClearValues, contents)
	if contents == Inline {
		cmd.SetViewport(FullViewport(extent))
		cmd.SetScissor(extent)
	}
}

// EndRenderPass ends the surface render pass on cmd.
func (fs *FrameScheduler) EndRenderPass(cmd CommandBuffer) {
	contract(fs.isFrameStarted, "can't call EndRenderPass if frame is not in progress")
	contract(cmd == fs.cmds.Buffs[fs.frameIndex], "can't end render pass on command buffer from a different frame")

	cmd.EndRenderPass()
}

// Inheritance returns what secondary buffers executing in the current
// render pass must inherit.
func (fs *FrameScheduler) Inheritance() Inheritance {
	contract(fs.isFrameStarted, "can't get inheritance when frame not in progress")
	return Inheritance{
		Pass:        fs.Surface.RenderPass(),
		Subpass:     0,
		Framebuffer: fs.Surface.Framebuffer(fs.imageIndex),
	}
}

// CommandBuffer returns the primary buffer of the frame in progress.
func (fs *FrameScheduler) CommandBuffer() CommandBuffer {
	contract(fs.isFrameStarted, "cannot get command buffer when frame not in progress")
	return fs.cmds.Buffs[fs.frameIndex]
}

// FrameIndex returns the slot of the frame in progress.
func (fs *FrameScheduler) FrameIndex() int {
	contract(fs.isFrameStarted, "cannot get frame index when frame not in progress")
	return fs.frameIndex
}

// ImageIndex returns the swapchain image of the frame in progress.
func (fs *FrameScheduler) ImageIndex() int {
	contract(fs.isFrameStarted, "cannot get image index when frame not in progress")
	return fs.imageIndex
}

func (fs *FrameScheduler) IsFrameInProgress() bool { return fs.isFrameStarted }

func (fs *FrameScheduler) RenderPass() RenderPass { return fs.Surface.RenderPass() }

func (fs *FrameScheduler) ImageCount() int { return fs.Surface.ImageCount() }

func (fs *FrameScheduler) AspectRatio() float32 { return fs.Surface.AspectRatio() }

// recreateSurface blocks while the window is minimized, then rebuilds
// the surface for the current window extent.
func (fs *FrameScheduler) recreateSurface() error {
	extent := waitForExtent(fs.Window)
	if Debug {
		slog.Debug(fmt.Sprintf("recreating surface at %dx%d", extent.Width, extent.Height))
	}
	return fs.Surface.Recreate(extent)
}

// Destroy frees the command buffers and the surface. No frame may be
// in progress.
func (fs *FrameScheduler) Destroy() {
	contract(!fs.isFrameStarted, "can't destroy while frame is in progress")
	if fs.Surface == nil {
		return
	}
	if err := fs.Surface.Device.WaitIdle(); err != nil {
		slog.Warn(fmt.Sprintf("wait idle failed with %s", err))
	}
	fs.cmds.Destroy()
	fs.Surface.Destroy()
	fs.Surface = nil
}
