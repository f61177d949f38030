// Copyright (c) 2025 Cubyte.online under the AGPL License
// Copyright (c) 2022 Cogent Core. under the BSD-style License
// Copyright (c) 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package asch

import (
	"errors"
	"fmt"
	"log/slog"
)

// Status is the outcome of acquiring or presenting an image.
type Status int

const (
	StatusSuccess Status = iota
	// StatusSuboptimal means the image was used but the swapchain
	// should be recreated.
	StatusSuboptimal
	// StatusStale means the swapchain is out of date. Nothing was
	// acquired or presented.
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusStale:
		return "stale"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Surface manages the swapchain of a window surface together with its
// depth target, render pass, framebuffers and the per-frame
// synchronization objects. It is recreated in place when the window
// changes size or the swapchain becomes out of date.
//
// Surface is not safe for concurrent use; only the goroutine running
// the frame loop may call it.
type Surface struct {
	Device Device // device owning every object of the surface

	gen *generation
}

// NewSurface returns a new surface for the given extent, which must
// not be zero.
func NewSurface(dev Device, extent Extent) (*Surface, error) {
	sf := &Surface{Device: dev}
	if err := sf.Recreate(extent); err != nil {
		return nil, err
	}
	return sf, nil
}

// Recreate rebuilds the swapchain images, depth target, render pass
// and framebuffers for extent. The device is idled first, so no frame
// of the current generation is still executing. The color and depth
// formats must match the previous generation; ErrFormatChanged is
// returned otherwise. The previous swapchain is retired by then, so
// both generations are destroyed and the surface is left without one.
func (sf *Surface) Recreate(extent Extent) error {
	contract(!extent.IsZero(), "can't recreate surface with a zero extent")
	if err := sf.Device.WaitIdle(); err != nil {
		return fmt.Errorf("wait idle failed with %w", err)
	}
	prev := sf.gen
	gen, err := newGeneration(sf.Device, extent, prev)
	if err != nil {
		return err
	}
	if prev != nil {
		if !prev.compareFormats(gen) {
			err := fmt.Errorf("%w: color %d -> %d, depth %d -> %d", ErrFormatChanged,
				prev.colorFormat, gen.colorFormat, prev.depthFormat, gen.depthFormat)
			gen.destroy()
			prev.destroy()
			sf.gen = nil
			return err
		}
		prev.destroy()
		if Debug {
			slog.Debug(fmt.Sprintf("surface recreated at %dx%d", gen.extent.Width, gen.extent.Height))
		}
	}
	sf.gen = gen
	return nil
}

// AcquireNextImage waits for the fence of frame slot to signal, so
// its resources can be reused, then gets the next image to render to.
// The image available semaphore of slot is signaled once the image can
// be written. On StatusStale nothing was acquired and the caller must
// recreate the surface and skip the frame.
func (sf *Surface) AcquireNextImage(slot int) (int, Status, error) {
	contract(slot >= 0 && slot < MaxFramesInFlight, "frame slot out of range")
	g := sf.current()
	if err := g.inFlight[slot].Wait(); err != nil {
		return 0, StatusSuccess, fmt.Errorf("wait for frame fence failed with %w", err)
	}
	idx, err := g.swapchain.Acquire(g.imageAvailable[slot])
	switch {
	case err == nil:
		return idx, StatusSuccess, nil
	case errors.Is(err, ErrSuboptimal):
		return idx, StatusSuboptimal, nil
	case errors.Is(err, ErrOutOfDate):
		if Debug {
			slog.Warn("acquire next image returned out of date")
		}
		return 0, StatusStale, nil
	default:
		return 0, StatusSuccess, fmt.Errorf("acquire swap chain image failed with %w", err)
	}
}

// SubmitAndPresent submits cmd for frame slot and presents image.
// If another frame still renders into image, its fence is waited on
// first. The submission waits on the image available semaphore of slot
// and signals the render finished semaphore and fence of slot; the
// presentation waits on the render finished semaphore.
func (sf *Surface) SubmitAndPresent(cmd CommandBuffer, image, slot int) (Status, error) {
	contract(slot >= 0 && slot < MaxFramesInFlight, "frame slot out of range")
	g := sf.current()
	contract(image >= 0 && image < len(g.imagesInFlight), "image index out of range")

	if owner := g.imagesInFlight[image]; owner != nil {
		if err := owner.Wait(); err != nil {
			return StatusSuccess, fmt.Errorf("wait for image fence failed with %w", err)
		}
	}
	g.imagesInFlight[image] = g.inFlight[slot]

	if err := g.inFlight[slot].Reset(); err != nil {
		return StatusSuccess, fmt.Errorf("reset frame fence failed with %w", err)
	}
	err := sf.Device.Submit(cmd, g.imageAvailable[slot], g.renderFinished[slot], g.inFlight[slot])
	if err != nil {
		return StatusSuccess, fmt.Errorf("submit draw command buffer failed with %w", err)
	}

	err = g.swapchain.Present(image, g.renderFinished[slot])
	switch {
	case err == nil:
		return StatusSuccess, nil
	case errors.Is(err, ErrSuboptimal):
		return StatusSuboptimal, nil
	case errors.Is(err, ErrOutOfDate):
		if Debug {
			slog.Warn("present returned out of date")
		}
		return StatusStale, nil
	default:
		return StatusSuccess, fmt.Errorf("present swap chain image failed with %w", err)
	}
}

// RenderPass returns the render pass of the current generation.
func (sf *Surface) RenderPass() RenderPass { return sf.current().pass }

// Framebuffer returns the framebuffer for image.
func (sf *Surface) Framebuffer(image int) Framebuffer { return sf.current().framebuffers[image] }

// Extent returns the size of the images.
func (sf *Surface) Extent() Extent { return sf.current().extent }

// ImageCount returns the number of swapchain images.
func (sf *Surface) ImageCount() int { return len(sf.current().framebuffers) }

// ColorFormat returns the format of the swapchain images.
func (sf *Surface) ColorFormat() Format { return sf.current().colorFormat }

// DepthFormat returns the format of the depth target.
func (sf *Surface) DepthFormat() Format { return sf.current().depthFormat }

// AspectRatio returns width divided by height.
func (sf *Surface) AspectRatio() float32 {
	extent := sf.current().extent
	return float32(extent.Width) / float32(extent.Height)
}

// current returns the live generation.
func (sf *Surface) current() *generation {
	contract(sf.gen != nil, "surface has no swapchain")
	return sf.gen
}

// Destroy waits for the device to be idle and destroys the current
// generation.
func (sf *Surface) Destroy() {
	if sf.gen == nil {
		return
	}
	if err := sf.Device.WaitIdle(); err != nil {
		slog.Warn(fmt.Sprintf("wait idle failed with %s", err))
	}
	sf.gen.destroy()
	sf.gen = nil
}
