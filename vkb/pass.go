package vkb

import (
	"fmt"

	vk "github.com/tomas-mraz/vulkan"

	asch "github.com/tomas-mraz/ashframe"
)

// RenderPass is a single subpass render pass. Attachment 0 is the
// color target that gets presented and attachment 1 the depth target,
// so clear values are matched by that order.
type RenderPass struct {
	dev    vk.Device
	handle vk.RenderPass
}

// Framebuffer binds a swapchain image view and a depth view.
type Framebuffer struct {
	dev    vk.Device
	handle vk.Framebuffer
}

// NewRenderPass creates the render pass every frame is drawn in. Both
// attachments are cleared on load; only the color is stored.
func (d *Device) NewRenderPass(color, depth asch.Format) (asch.RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         vk.Format(color),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}, {
		Format:         vk.Format(depth),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
		PDepthStencilAttachment: &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}
	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit)
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  stages,
		SrcAccessMask: 0,
		DstStageMask:  stages,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}
	renderPassInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
	rp := &RenderPass{dev: d.Device}
	err := vk.Error(vk.CreateRenderPass(d.Device, &renderPassInfo, nil, &rp.handle))
	if err != nil {
		return nil, fmt.Errorf("vk.CreateRenderPass failed with %s", err)
	}
	return rp, nil
}

func (rp *RenderPass) Destroy() {
	if rp.handle == vk.NullRenderPass {
		return
	}
	vk.DestroyRenderPass(rp.dev, rp.handle, nil)
	rp.handle = vk.NullRenderPass
}

// NewFramebuffer creates a framebuffer for image of sc with the shared
// depth target.
func (d *Device) NewFramebuffer(pass asch.RenderPass, sc asch.Swapchain, image int, depth asch.Image, extent asch.Extent) (asch.Framebuffer, error) {
	attachments := []vk.ImageView{
		sc.(*Swapchain).views[image], depth.(*Image).View,
	}
	fbCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass.(*RenderPass).handle,
		Layers:          1,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           extent.Width,
		Height:          extent.Height,
	}
	fb := &Framebuffer{dev: d.Device}
	err := vk.Error(vk.CreateFramebuffer(d.Device, &fbCreateInfo, nil, &fb.handle))
	if err != nil {
		return nil, fmt.Errorf("vk.CreateFramebuffer failed with %s", err)
	}
	return fb, nil
}

func (fb *Framebuffer) Destroy() {
	if fb.handle == vk.NullFramebuffer {
		return
	}
	vk.DestroyFramebuffer(fb.dev, fb.handle, nil)
	fb.handle = vk.NullFramebuffer
}
