// Copyright (c) 2025 Cubyte.online under the AGPL License
// Copyright (c) 2022 Cogent Core. under the BSD-style License
// Copyright (c) 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package asch

import (
	"fmt"
	"log/slog"
)

// generation is one incarnation of the presentable surface with
// everything derived from its images. It is replaced as a whole when
// the surface is recreated.
type generation struct {
	dev Device

	swapchain   Swapchain
	colorFormat Format
	depthFormat Format
	extent      Extent

	depth        Image
	pass         RenderPass
	framebuffers []Framebuffer

	imageAvailable [MaxFramesInFlight]Semaphore
	renderFinished [MaxFramesInFlight]Semaphore
	inFlight       [MaxFramesInFlight]Fence

	// imagesInFlight maps each image to the fence of the frame that
	// last rendered into it, nil if none.
	imagesInFlight []Fence
}

// newGeneration creates a generation for extent. prev, if set, is
// handed to the backend as the swapchain being replaced; it is not
// destroyed here.
func newGeneration(dev Device, extent Extent, prev *generation) (*generation, error) {
	var old Swapchain
	if prev != nil {
		old = prev.swapchain
	}
	sc, err := dev.NewSwapchain(extent, old)
	if err != nil {
		return nil, fmt.Errorf("create swapchain failed with %w", err)
	}
	g := &generation{
		dev:         dev,
		swapchain:   sc,
		colorFormat: sc.ColorFormat(),
		extent:      sc.Extent(),
	}
	if err := g.init(); err != nil {
		g.destroy()
		return nil, err
	}
	if Debug {
		slog.Debug(fmt.Sprintf("swapchain generation: %d images, %dx%d, color %d depth %d",
			sc.ImageCount(), g.extent.Width, g.extent.Height, g.colorFormat, g.depthFormat))
	}
	return g, nil
}

func (g *generation) init() error {
	var err error

	// Phase 1: depth target shared by all framebuffers

	g.depthFormat, err = g.dev.DepthFormat()
	if err != nil {
		return fmt.Errorf("find depth format failed with %w", err)
	}
	g.depth, err = g.dev.NewDepthTarget(g.depthFormat, g.extent)
	if err != nil {
		return fmt.Errorf("create depth target failed with %w", err)
	}

	// Phase 2: render pass compatible with the images

	g.pass, err = g.dev.NewRenderPass(g.colorFormat, g.depthFormat)
	if err != nil {
		return fmt.Errorf("create render pass failed with %w", err)
	}

	// Phase 3: one framebuffer per image

	if err := g.createFramebuffers(); err != nil {
		return err
	}
	return g.createSyncObjects()
}

func (g *generation) createFramebuffers() error {
	n := g.swapchain.ImageCount()
	g.framebuffers = make([]Framebuffer, 0, n)
	for i := 0; i < n; i++ {
		fb, err := g.dev.NewFramebuffer(g.pass, g.swapchain, i, g.depth, g.extent)
		if err != nil {
			return fmt.Errorf("create framebuffer %d failed with %w", i, err)
		}
		g.framebuffers = append(g.framebuffers, fb)
	}
	g.imagesInFlight = make([]Fence, n)
	return nil
}

func (g *generation) createSyncObjects() error {
	for i := 0; i < MaxFramesInFlight; i++ {
		var err error
		if g.imageAvailable[i], err = g.dev.NewSemaphore(); err != nil {
			return fmt.Errorf("create image available semaphore failed with %w", err)
		}
		if g.renderFinished[i], err = g.dev.NewSemaphore(); err != nil {
			return fmt.Errorf("create render finished semaphore failed with %w", err)
		}
		// signaled so that the first wait on each slot returns at once
		if g.inFlight[i], err = g.dev.NewFence(true); err != nil {
			return fmt.Errorf("create in flight fence failed with %w", err)
		}
	}
	return nil
}

// compareFormats reports whether o has the same color and depth
// formats as g.
func (g *generation) compareFormats(o *generation) bool {
	return g.colorFormat == o.colorFormat && g.depthFormat == o.depthFormat
}

// destroy releases everything the generation created. It works on a
// partially initialized generation as well.
func (g *generation) destroy() {
	for i := 0; i < MaxFramesInFlight; i++ {
		destroy(g.imageAvailable[i])
		destroy(g.renderFinished[i])
		destroy(g.inFlight[i])
		g.imageAvailable[i], g.renderFinished[i], g.inFlight[i] = nil, nil, nil
	}
	for _, fb := range g.framebuffers {
		fb.Destroy()
	}
	g.framebuffers = nil
	g.imagesInFlight = nil
	destroy(g.pass)
	destroy(g.depth)
	destroy(g.swapchain)
	g.pass, g.depth, g.swapchain = nil, nil, nil
}

func destroy(d Destroyer) {
	if d != nil {
		d.Destroy()
	}
}
