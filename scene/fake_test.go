// Copyright (c) 2025 Cubyte.online under the AGPL License

package scene

import (
	"errors"
	"fmt"

	asch "github.com/tomas-mraz/ashframe"
)

type fakeBuffer struct {
	kind      string
	data      []byte
	destroyed bool
}

func (b *fakeBuffer) Destroy() { b.destroyed = true }

// fakeAllocator keeps the buffers it created. failIndex makes index
// buffer creation fail.
type fakeAllocator struct {
	buffers   []*fakeBuffer
	failIndex bool
}

func (a *fakeAllocator) NewVertexBuffer(data []byte) (asch.Buffer, error) {
	b := &fakeBuffer{kind: "vertex", data: data}
	a.buffers = append(a.buffers, b)
	return b, nil
}

func (a *fakeAllocator) NewIndexBuffer(data []byte) (asch.Buffer, error) {
	if a.failIndex {
		return nil, errors.New("out of device memory")
	}
	b := &fakeBuffer{kind: "index", data: data}
	a.buffers = append(a.buffers, b)
	return b, nil
}

// fakeCmd logs the commands recorded into it.
type fakeCmd struct {
	calls  []string
	pushes [][]byte
}

func (c *fakeCmd) log(s string) { c.calls = append(c.calls, s) }

func (c *fakeCmd) Begin(inh *asch.Inheritance) error { return nil }
func (c *fakeCmd) End() error                        { return nil }
func (c *fakeCmd) Reset() error                      { return nil }

func (c *fakeCmd) BeginRenderPass(asch.RenderPass, asch.Framebuffer, asch.Extent, []asch.ClearValue, asch.Contents) {
	c.log("begin")
}

func (c *fakeCmd) EndRenderPass()                  { c.log("end") }
func (c *fakeCmd) SetScissor(extent asch.Extent)   { c.log("scissor") }
func (c *fakeCmd) BindPipeline(pl asch.Pipeline)   { c.log("pipeline") }
func (c *fakeCmd) BindVertexBuffers([]asch.Buffer) { c.log("vertex") }
func (c *fakeCmd) BindIndexBuffer(asch.Buffer)     { c.log("index") }

func (c *fakeCmd) SetViewport(vp asch.Viewport) {
	c.log(fmt.Sprintf("viewport:%vx%v", vp.Width, vp.Height))
}

func (c *fakeCmd) Draw(vertexCount, instanceCount int) {
	c.log(fmt.Sprintf("draw:%d", vertexCount))
}

func (c *fakeCmd) DrawIndexed(indexCount, instanceCount int) {
	c.log(fmt.Sprintf("indexed:%d", indexCount))
}

func (c *fakeCmd) ExecuteCommands([]asch.CommandBuffer) { c.log("execute") }

func (c *fakeCmd) BindDescriptorSet(layout asch.PipelineLayout, set asch.DescriptorSet) {
	c.log("set")
}

func (c *fakeCmd) PushConstants(layout asch.PipelineLayout, data []byte) {
	c.log(fmt.Sprintf("push:%d", len(data)))
	c.pushes = append(c.pushes, data)
}

// fakeRecorder records every pass into one command buffer on the
// calling goroutine, the way a single worker would.
type fakeRecorder struct {
	cmd     *fakeCmd
	slots   []int
	serials int
}

func (r *fakeRecorder) Record(primary asch.CommandBuffer, slot int, inh asch.Inheritance, objects []asch.Object, pass asch.Pass) error {
	r.slots = append(r.slots, slot)
	if pass.Setup != nil {
		pass.Setup(r.cmd)
	}
	for _, obj := range objects {
		geom := obj.Geometry()
		if geom == nil {
			continue
		}
		if pass.Each != nil {
			pass.Each(r.cmd, obj)
		}
		geom.Bind(r.cmd)
		geom.Draw(r.cmd)
	}
	return nil
}

func (r *fakeRecorder) RecordSerial(primary asch.CommandBuffer, slot int, inh asch.Inheritance, fn func(cmd asch.CommandBuffer)) error {
	r.slots = append(r.slots, slot)
	r.serials++
	fn(r.cmd)
	return nil
}

type fakeInput map[Action]bool

func (in fakeInput) Pressed(a Action) bool { return in[a] }
