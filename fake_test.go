// Copyright (c) 2025 Cubyte.online under the AGPL License

package asch

import (
	"errors"
	"fmt"
	"sync"
)

// fakeDevice is an in-memory Device. GPU work completes at submission:
// Submit signals the fence and semaphores right away.
type fakeDevice struct {
	mu sync.Mutex

	colorFormat Format
	depthFormat Format
	imageCount  int

	// scripted results, keyed by the 0-based number of the call
	acquireScript map[int]error
	presentScript map[int]error
	acquires      int
	presents      int

	swapchains []*fakeSwapchain
	pools      []*fakePool
	submits    []fakeSubmit
	waitIdles  int
	destroyed  int
}

type fakeSubmit struct {
	cmd    *fakeCmd
	wait   Semaphore
	signal Semaphore
	fence  *fakeFence
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		colorFormat:   44,
		depthFormat:   126,
		imageCount:    3,
		acquireScript: map[int]error{},
		presentScript: map[int]error{},
	}
}

func (d *fakeDevice) NewSwapchain(extent Extent, old Swapchain) (Swapchain, error) {
	sc := &fakeSwapchain{dev: d, extent: extent, images: d.imageCount, format: d.colorFormat}
	if old != nil {
		sc.old = old.(*fakeSwapchain)
	}
	d.swapchains = append(d.swapchains, sc)
	return sc, nil
}

func (d *fakeDevice) DepthFormat() (Format, error) { return d.depthFormat, nil }

func (d *fakeDevice) NewDepthTarget(format Format, extent Extent) (Image, error) {
	return &fakeHandle{dev: d, name: "depth"}, nil
}

func (d *fakeDevice) NewRenderPass(color, depth Format) (RenderPass, error) {
	return &fakeHandle{dev: d, name: "pass"}, nil
}

func (d *fakeDevice) NewFramebuffer(pass RenderPass, sc Swapchain, image int, depth Image, extent Extent) (Framebuffer, error) {
	return &fakeHandle{dev: d, name: fmt.Sprintf("fb%d", image)}, nil
}

func (d *fakeDevice) NewSemaphore() (Semaphore, error) {
	return &fakeHandle{dev: d, name: "semaphore"}, nil
}

func (d *fakeDevice) NewFence(signaled bool) (Fence, error) {
	return &fakeFence{dev: d, signaled: signaled}, nil
}

func (d *fakeDevice) NewCommandPool() (CommandPool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := &fakePool{dev: d}
	d.pools = append(d.pools, p)
	return p, nil
}

func (d *fakeDevice) Submit(cb CommandBuffer, wait, signal Semaphore, fence Fence) error {
	cmd := cb.(*fakeCmd)
	if cmd.recording {
		return errors.New("submit of a buffer still recording")
	}
	f := fence.(*fakeFence)
	if f.signaled {
		return errors.New("submit with a signaled fence")
	}
	f.signaled = true
	d.submits = append(d.submits, fakeSubmit{cmd: cmd, wait: wait, signal: signal, fence: f})
	return nil
}

func (d *fakeDevice) WaitIdle() error {
	d.waitIdles++
	return nil
}

func (d *fakeDevice) current() *fakeSwapchain { return d.swapchains[len(d.swapchains)-1] }

type fakeSwapchain struct {
	dev       *fakeDevice
	extent    Extent
	images    int
	format    Format
	next      int
	old       *fakeSwapchain
	destroyed bool
}

func (s *fakeSwapchain) Destroy() {
	s.destroyed = true
	s.dev.destroyed++
}

func (s *fakeSwapchain) ImageCount() int     { return s.images }
func (s *fakeSwapchain) ColorFormat() Format { return s.format }
func (s *fakeSwapchain) Extent() Extent      { return s.extent }

func (s *fakeSwapchain) Acquire(signal Semaphore) (int, error) {
	err := s.dev.acquireScript[s.dev.acquires]
	s.dev.acquires++
	if err != nil && !errors.Is(err, ErrSuboptimal) {
		return 0, err
	}
	idx := s.next
	s.next = (s.next + 1) % s.images
	return idx, err
}

func (s *fakeSwapchain) Present(image int, wait Semaphore) error {
	err := s.dev.presentScript[s.dev.presents]
	s.dev.presents++
	return err
}

type fakeHandle struct {
	dev       *fakeDevice
	name      string
	destroyed bool
}

func (h *fakeHandle) Destroy() {
	h.destroyed = true
	h.dev.destroyed++
}

type fakeFence struct {
	dev      *fakeDevice
	signaled bool
	waits    int
	resets   int
}

func (f *fakeFence) Destroy() { f.dev.destroyed++ }

func (f *fakeFence) Wait() error {
	f.waits++
	if !f.signaled {
		return errors.New("wait on a fence that is never signaled")
	}
	return nil
}

func (f *fakeFence) Reset() error {
	f.resets++
	f.signaled = false
	return nil
}

type fakePool struct {
	dev       *fakeDevice
	buffers   []*fakeCmd
	destroyed bool
}

func (p *fakePool) Destroy() { p.destroyed = true }

func (p *fakePool) Allocate(level CmdLevel, n int) ([]CommandBuffer, error) {
	cbs := make([]CommandBuffer, n)
	for i := range cbs {
		cmd := &fakeCmd{level: level}
		p.buffers = append(p.buffers, cmd)
		cbs[i] = cmd
	}
	return cbs, nil
}

// fakeCmd records calls as strings.
type fakeCmd struct {
	level     CmdLevel
	recording bool
	inh       *Inheritance
	resets    int
	resetErr  error
	calls     []string
	executed  [][]CommandBuffer
}

func (c *fakeCmd) Begin(inh *Inheritance) error {
	if c.recording {
		return errors.New("begin while recording")
	}
	c.recording = true
	c.inh = inh
	c.calls = c.calls[:0]
	return nil
}

func (c *fakeCmd) End() error {
	if !c.recording {
		return errors.New("end while not recording")
	}
	c.recording = false
	return nil
}

func (c *fakeCmd) Reset() error {
	if c.resetErr != nil {
		return c.resetErr
	}
	c.resets++
	c.recording = false
	c.calls = c.calls[:0]
	c.executed = nil
	return nil
}

func (c *fakeCmd) BeginRenderPass(pass RenderPass, fb Framebuffer, extent Extent, clear []ClearValue, contents Contents) {
	c.calls = append(c.calls, fmt.Sprintf("begin-pass:%s:%d", fb.(*fakeHandle).name, contents))
}

func (c *fakeCmd) EndRenderPass()           { c.calls = append(c.calls, "end-pass") }
func (c *fakeCmd) SetViewport(vp Viewport)  { c.calls = append(c.calls, "viewport") }
func (c *fakeCmd) SetScissor(extent Extent) { c.calls = append(c.calls, "scissor") }
func (c *fakeCmd) BindPipeline(pl Pipeline) { c.calls = append(c.calls, "pipeline") }

func (c *fakeCmd) BindDescriptorSet(layout PipelineLayout, set DescriptorSet) {
	c.calls = append(c.calls, "descriptor")
}

func (c *fakeCmd) PushConstants(layout PipelineLayout, data []byte) {
	c.calls = append(c.calls, "push")
}

func (c *fakeCmd) BindVertexBuffers(buf []Buffer) { c.calls = append(c.calls, "vertex") }
func (c *fakeCmd) BindIndexBuffer(buf Buffer)     { c.calls = append(c.calls, "index") }

func (c *fakeCmd) Draw(vertexCount, instanceCount int) {
	c.calls = append(c.calls, fmt.Sprintf("draw:%d", vertexCount))
}

func (c *fakeCmd) DrawIndexed(indexCount, instanceCount int) {
	c.calls = append(c.calls, fmt.Sprintf("draw-indexed:%d", indexCount))
}

func (c *fakeCmd) ExecuteCommands(secondary []CommandBuffer) {
	c.calls = append(c.calls, fmt.Sprintf("execute:%d", len(secondary)))
	c.executed = append(c.executed, append([]CommandBuffer(nil), secondary...))
}

// fakeWindow returns extents in order, advancing on WaitEvents.
type fakeWindow struct {
	extents []Extent
	resized bool
	waits   int
}

func newFakeWindow(extents ...Extent) *fakeWindow {
	return &fakeWindow{extents: extents}
}

func (w *fakeWindow) Extent() Extent   { return w.extents[0] }
func (w *fakeWindow) WasResized() bool { return w.resized }
func (w *fakeWindow) ResetResized()    { w.resized = false }

func (w *fakeWindow) WaitEvents() {
	w.waits++
	if len(w.extents) > 1 {
		w.extents = w.extents[1:]
	}
}

// resize makes the window report extents from now on.
func (w *fakeWindow) resize(extents ...Extent) {
	w.extents = extents
	w.resized = true
}

// fakeObject draws vertexCount vertices, or nothing if vertexCount is 0.
type fakeObject struct {
	vertexCount int
}

func (o *fakeObject) Geometry() Renderable {
	if o.vertexCount == 0 {
		return nil
	}
	return o
}

func (o *fakeObject) Bind(cmd CommandBuffer) { cmd.BindVertexBuffers(nil) }

func (o *fakeObject) Draw(cmd CommandBuffer) { cmd.Draw(o.vertexCount, 1) }

// panicsWithContract runs fn and reports whether it panicked with ErrContract.
func panicsWithContract(fn func()) (ok bool) {
	defer func() {
		r := recover()
		err, isErr := r.(error)
		ok = isErr && errors.Is(err, ErrContract)
	}()
	fn()
	return false
}
