// Copyright (c) 2025 Cubyte.online under the AGPL License

package asch

import "errors"

// MaxFramesInFlight bounds how many frames may be recorded or executing
// at the same time. Each frame slot owns its own command buffer and
// synchronization objects.
const MaxFramesInFlight = 2

// ErrOutOfDate means that the swapchain no longer matches the window
// surface and must be recreated before it can be used again.
var ErrOutOfDate = errors.New("asch: swapchain out of date")

// ErrSuboptimal means that the operation succeeded but the swapchain
// no longer matches the surface exactly.
var ErrSuboptimal = errors.New("asch: swapchain suboptimal")

// Extent is a size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero (e.g. minimized window).
func (e Extent) IsZero() bool { return e.Width == 0 || e.Height == 0 }

// Format identifies a pixel format of the backend.
// The value is opaque to the core and only compared for equality.
type Format int32

// Destroyer is implemented by every handle that owns memory not
// managed by the GC.
type Destroyer interface {
	Destroy()
}

// Device is the GPU collaborator of the frame logic.
// It creates every object the core needs and submits work.
type Device interface {
	// NewSwapchain creates a swapchain for the given extent.
	// old is the previous generation or nil; it stays valid until
	// the caller destroys it.
	NewSwapchain(extent Extent, old Swapchain) (Swapchain, error)

	// DepthFormat returns the depth format used for depth targets.
	DepthFormat() (Format, error)

	// NewDepthTarget creates a depth image and its view.
	NewDepthTarget(format Format, extent Extent) (Image, error)

	// NewRenderPass creates a single-subpass render pass with one
	// color attachment (presented at the end) and one depth attachment.
	NewRenderPass(color, depth Format) (RenderPass, error)

	// NewFramebuffer creates a framebuffer targeting the given
	// swapchain image and depth target.
	NewFramebuffer(pass RenderPass, sc Swapchain, image int, depth Image, extent Extent) (Framebuffer, error)

	NewSemaphore() (Semaphore, error)

	// NewFence creates a fence, optionally in the signaled state.
	NewFence(signaled bool) (Fence, error)

	// NewCommandPool creates a command pool. Pools and the buffers
	// allocated from them must only be used by one goroutine at a time.
	NewCommandPool() (CommandPool, error)

	// Submit submits a primary command buffer. Execution waits on wait
	// at the color output stage, and signal and fence are signaled
	// when it completes.
	Submit(cb CommandBuffer, wait, signal Semaphore, fence Fence) error

	// WaitIdle blocks until the device has no pending work.
	WaitIdle() error
}

// Swapchain is a ring of presentable images of one generation.
type Swapchain interface {
	Destroyer

	// ImageCount returns the number of images, decided by the backend.
	ImageCount() int

	// ColorFormat returns the format of the images.
	ColorFormat() Format

	// Extent returns the size of the images.
	Extent() Extent

	// Acquire returns the index of the next writable image. signal is
	// signaled when the image is actually available.
	// It returns ErrSuboptimal with a valid index, or ErrOutOfDate.
	Acquire(signal Semaphore) (int, error)

	// Present queues image for presentation after wait is signaled.
	// It may return ErrSuboptimal or ErrOutOfDate.
	Present(image int, wait Semaphore) error
}

// Fence is a GPU to CPU completion signal.
type Fence interface {
	Destroyer
	// Wait blocks until the fence is signaled.
	Wait() error
	// Reset puts the fence back in the unsignaled state.
	Reset() error
}

// Semaphore orders operations on the GPU.
type Semaphore interface{ Destroyer }

// Image is a device image together with its view.
type Image interface{ Destroyer }

// RenderPass describes the attachments a set of draw calls target.
type RenderPass interface{ Destroyer }

// Framebuffer binds concrete attachments to a render pass.
type Framebuffer interface{ Destroyer }

// Pipeline, PipelineLayout, DescriptorSet and Buffer are created by
// collaborators outside the frame logic; the core only passes them
// through to command buffers.
type (
	Pipeline       interface{ Destroyer }
	PipelineLayout interface{ Destroyer }
	DescriptorSet  interface{ Destroyer }
	Buffer         interface{ Destroyer }
)

// CmdLevel is the level of a command buffer.
type CmdLevel int

const (
	// Primary buffers are submitted to a queue.
	Primary CmdLevel = iota
	// Secondary buffers are executed from a primary buffer.
	Secondary
)

// Contents selects how the commands of a render pass are provided.
type Contents int

const (
	// Inline commands are recorded into the primary buffer.
	Inline Contents = iota
	// SecondaryBuffers means the render pass only executes
	// secondary command buffers.
	SecondaryBuffers
)

// Inheritance binds a secondary command buffer to the render pass
// instance it will execute in.
type Inheritance struct {
	Pass        RenderPass
	Subpass     int
	Framebuffer Framebuffer
}

// ClearValue is either an RGBA color or a depth/stencil pair.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// Viewport is a viewport transform.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// CommandPool allocates command buffers.
type CommandPool interface {
	Destroyer
	Allocate(level CmdLevel, n int) ([]CommandBuffer, error)
}

// CommandBuffer records GPU commands.
type CommandBuffer interface {
	// Begin starts recording. inh must be non-nil for secondary
	// buffers that continue a render pass and nil otherwise.
	Begin(inh *Inheritance) error
	End() error
	// Reset discards recorded commands, keeping the allocation.
	Reset() error

	BeginRenderPass(pass RenderPass, fb Framebuffer, extent Extent, clear []ClearValue, contents Contents)
	EndRenderPass()
	SetViewport(vp Viewport)
	SetScissor(extent Extent)
	BindPipeline(pl Pipeline)
	BindDescriptorSet(layout PipelineLayout, set DescriptorSet)
	PushConstants(layout PipelineLayout, data []byte)
	BindVertexBuffers(buf []Buffer)
	BindIndexBuffer(buf Buffer)
	Draw(vertexCount, instanceCount int)
	DrawIndexed(indexCount, instanceCount int)
	// ExecuteCommands executes secondary buffers in order.
	ExecuteCommands(secondary []CommandBuffer)
}

// FullViewport returns a viewport covering extent with depth range [0, 1].
func FullViewport(extent Extent) Viewport {
	return Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MaxDepth: 1,
	}
}
