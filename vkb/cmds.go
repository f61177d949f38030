// Copyright (c) 2025 Cubyte.online under the AGPL License
// Copyright (c) 2022 Cogent Core. under the BSD-style License
// Copyright (c) 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vkb

import (
	"fmt"
	"unsafe"

	vk "github.com/tomas-mraz/vulkan"

	asch "github.com/tomas-mraz/ashframe"
)

// CommandPool is a resettable command pool on the device queue family.
type CommandPool struct {
	dev    vk.Device
	handle vk.CommandPool
	buffs  []vk.CommandBuffer
}

// CommandBuffer records into a vulkan command buffer.
type CommandBuffer struct {
	handle vk.CommandBuffer
	level  asch.CmdLevel
}

var (
	_ asch.CommandPool   = (*CommandPool)(nil)
	_ asch.CommandBuffer = (*CommandBuffer)(nil)
)

// NewCommandPool creates a pool whose buffers can be reset one by one.
func (d *Device) NewCommandPool() (asch.CommandPool, error) {
	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: d.QueueIndex,
	}
	cp := &CommandPool{dev: d.Device}
	err := vk.Error(vk.CreateCommandPool(d.Device, &poolInfo, nil, &cp.handle))
	if err != nil {
		return nil, fmt.Errorf("vk.CreateCommandPool failed with %s", err)
	}
	return cp, nil
}

// Allocate allocates n buffers at level.
func (cp *CommandPool) Allocate(level asch.CmdLevel, n int) ([]asch.CommandBuffer, error) {
	vkLevel := vk.CommandBufferLevelPrimary
	if level == asch.Secondary {
		vkLevel = vk.CommandBufferLevelSecondary
	}
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        cp.handle,
		Level:              vkLevel,
		CommandBufferCount: uint32(n),
	}
	buffs := make([]vk.CommandBuffer, n)
	err := vk.Error(vk.AllocateCommandBuffers(cp.dev, &allocInfo, buffs))
	if err != nil {
		return nil, fmt.Errorf("vk.AllocateCommandBuffers failed with %s", err)
	}
	cp.buffs = append(cp.buffs, buffs...)
	out := make([]asch.CommandBuffer, n)
	for i, b := range buffs {
		out[i] = &CommandBuffer{handle: b, level: level}
	}
	return out, nil
}

// Destroy frees the allocated buffers and destroys the pool.
func (cp *CommandPool) Destroy() {
	if cp.handle == vk.NullCommandPool {
		return
	}
	if len(cp.buffs) > 0 {
		vk.FreeCommandBuffers(cp.dev, cp.handle, uint32(len(cp.buffs)), cp.buffs)
		cp.buffs = nil
	}
	vk.DestroyCommandPool(cp.dev, cp.handle, nil)
	cp.handle = vk.NullCommandPool
}

// Begin starts one-time recording. Secondary buffers continue the render
// pass described by inh.
func (cb *CommandBuffer) Begin(inh *asch.Inheritance) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if cb.level == asch.Secondary {
		info := vk.CommandBufferInheritanceInfo{
			SType: vk.StructureTypeCommandBufferInheritanceInfo,
		}
		if inh != nil && inh.Pass != nil {
			beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
			info.RenderPass = inh.Pass.(*RenderPass).handle
			info.Subpass = uint32(inh.Subpass)
			if inh.Framebuffer != nil {
				info.Framebuffer = inh.Framebuffer.(*Framebuffer).handle
			}
		}
		beginInfo.PInheritanceInfo = []vk.CommandBufferInheritanceInfo{info}
	}
	err := vk.Error(vk.BeginCommandBuffer(cb.handle, &beginInfo))
	if err != nil {
		return fmt.Errorf("vk.BeginCommandBuffer failed with %s", err)
	}
	return nil
}

func (cb *CommandBuffer) End() error {
	if err := vk.Error(vk.EndCommandBuffer(cb.handle)); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer failed with %s", err)
	}
	return nil
}

func (cb *CommandBuffer) Reset() error {
	if err := vk.Error(vk.ResetCommandBuffer(cb.handle, 0)); err != nil {
		return fmt.Errorf("vk.ResetCommandBuffer failed with %s", err)
	}
	return nil
}

// clearValues converts clear values by attachment order: the first is
// the color, the others depth/stencil.
func clearValues(clear []asch.ClearValue) []vk.ClearValue {
	out := make([]vk.ClearValue, len(clear))
	for i, c := range clear {
		if i == 0 {
			out[i].SetColor(c.Color[:])
		} else {
			out[i].SetDepthStencil(c.Depth, c.Stencil)
		}
	}
	return out
}

func (cb *CommandBuffer) BeginRenderPass(pass asch.RenderPass, fb asch.Framebuffer, extent asch.Extent, clear []asch.ClearValue, contents asch.Contents) {
	subpassContents := vk.SubpassContentsInline
	if contents == asch.SecondaryBuffers {
		subpassContents = vk.SubpassContentsSecondaryCommandBuffers
	}
	values := clearValues(clear)
	renderPassInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  pass.(*RenderPass).handle,
		Framebuffer: fb.(*Framebuffer).handle,
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height},
		},
		ClearValueCount: uint32(len(values)),
		PClearValues:    values,
	}
	vk.CmdBeginRenderPass(cb.handle, &renderPassInfo, subpassContents)
}

func (cb *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(cb.handle)
}

func (cb *CommandBuffer) SetViewport(vp asch.Viewport) {
	vk.CmdSetViewport(cb.handle, 0, 1, []vk.Viewport{{
		X: vp.X, Y: vp.Y,
		Width:    vp.Width,
		Height:   vp.Height,
		MinDepth: vp.MinDepth,
		MaxDepth: vp.MaxDepth,
	}})
}

func (cb *CommandBuffer) SetScissor(extent asch.Extent) {
	vk.CmdSetScissor(cb.handle, 0, 1, []vk.Rect2D{{
		Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height},
	}})
}

func (cb *CommandBuffer) BindPipeline(pl asch.Pipeline) {
	vk.CmdBindPipeline(cb.handle, vk.PipelineBindPointGraphics, pl.(*Pipeline).handle)
}

func (cb *CommandBuffer) BindDescriptorSet(layout asch.PipelineLayout, set asch.DescriptorSet) {
	vk.CmdBindDescriptorSets(cb.handle, vk.PipelineBindPointGraphics, layout.(*PipelineLayout).handle,
		0, 1, []vk.DescriptorSet{set.(*DescriptorSet).handle}, 0, nil)
}

// PushConstants updates the push constant range of layout from offset 0.
func (cb *CommandBuffer) PushConstants(layout asch.PipelineLayout, data []byte) {
	if len(data) == 0 {
		return
	}
	pl := layout.(*PipelineLayout)
	vk.CmdPushConstants(cb.handle, pl.handle, pl.pushStages, 0, uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (cb *CommandBuffer) BindVertexBuffers(buf []asch.Buffer) {
	handles := make([]vk.Buffer, len(buf))
	offsets := make([]vk.DeviceSize, len(buf))
	for i, b := range buf {
		handles[i] = b.(*Buffer).handle
	}
	vk.CmdBindVertexBuffers(cb.handle, 0, uint32(len(handles)), handles, offsets)
}

func (cb *CommandBuffer) BindIndexBuffer(buf asch.Buffer) {
	vk.CmdBindIndexBuffer(cb.handle, buf.(*Buffer).handle, 0, vk.IndexTypeUint32)
}

func (cb *CommandBuffer) Draw(vertexCount, instanceCount int) {
	vk.CmdDraw(cb.handle, uint32(vertexCount), uint32(instanceCount), 0, 0)
}

func (cb *CommandBuffer) DrawIndexed(indexCount, instanceCount int) {
	vk.CmdDrawIndexed(cb.handle, uint32(indexCount), uint32(instanceCount), 0, 0, 0)
}

func (cb *CommandBuffer) ExecuteCommands(secondary []asch.CommandBuffer) {
	if len(secondary) == 0 {
		return
	}
	handles := make([]vk.CommandBuffer, len(secondary))
	for i, s := range secondary {
		handles[i] = s.(*CommandBuffer).handle
	}
	vk.CmdExecuteCommands(cb.handle, uint32(len(handles)), handles)
}
