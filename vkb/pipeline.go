// Copyright (c) 2025 Cubyte.online under the AGPL License
// Copyright (c) 2022 Cogent Core. under the BSD-style License
// Copyright (c) 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vkb

import (
	"encoding/binary"
	"errors"
	"fmt"

	vk "github.com/tomas-mraz/vulkan"

	asch "github.com/tomas-mraz/ashframe"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// DescriptorLayout is a set layout with a single uniform buffer at
// binding 0.
type DescriptorLayout struct {
	dev    vk.Device
	handle vk.DescriptorSetLayout
}

// DescriptorSet is allocated from a UniformSets pool and freed with it.
type DescriptorSet struct {
	handle vk.DescriptorSet
}

// UniformSets is a descriptor pool with one set per uniform buffer.
type UniformSets struct {
	dev  vk.Device
	pool vk.DescriptorPool
	Sets []*DescriptorSet
}

// PipelineLayout is a pipeline layout with one descriptor set and an
// optional push constant range starting at offset 0.
type PipelineLayout struct {
	dev        vk.Device
	handle     vk.PipelineLayout
	pushStages vk.ShaderStageFlags
}

// Pipeline is a graphics pipeline.
type Pipeline struct {
	dev    vk.Device
	handle vk.Pipeline
}

var (
	_ asch.DescriptorSet  = (*DescriptorSet)(nil)
	_ asch.PipelineLayout = (*PipelineLayout)(nil)
	_ asch.Pipeline       = (*Pipeline)(nil)
)

// graphicsStages are the stages the uniform buffer and push constants
// are visible to.
var graphicsStages = vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit)

func (d *Device) NewDescriptorLayout() (*DescriptorLayout, error) {
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings: []vk.DescriptorSetLayoutBinding{{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      graphicsStages,
		}},
	}
	dl := &DescriptorLayout{dev: d.Device}
	err := vk.Error(vk.CreateDescriptorSetLayout(d.Device, &layoutInfo, nil, &dl.handle))
	if err != nil {
		return nil, fmt.Errorf("vk.CreateDescriptorSetLayout failed with %s", err)
	}
	return dl, nil
}

func (dl *DescriptorLayout) Destroy() {
	if dl.handle == vk.NullDescriptorSetLayout {
		return
	}
	vk.DestroyDescriptorSetLayout(dl.dev, dl.handle, nil)
	dl.handle = vk.NullDescriptorSetLayout
}

// NewUniformSets allocates a set of layout for each buffer and points
// it at the whole buffer.
func (d *Device) NewUniformSets(layout *DescriptorLayout, buffers []*Buffer) (*UniformSets, error) {
	n := uint32(len(buffers))
	if n == 0 {
		return nil, errors.New("vkb: no uniform buffers")
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: n,
		}},
		MaxSets: n,
	}
	us := &UniformSets{dev: d.Device}
	err := vk.Error(vk.CreateDescriptorPool(d.Device, &poolInfo, nil, &us.pool))
	if err != nil {
		return nil, fmt.Errorf("vk.CreateDescriptorPool failed with %s", err)
	}

	layouts := make([]vk.DescriptorSetLayout, n)
	for i := range layouts {
		layouts[i] = layout.handle
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     us.pool,
		DescriptorSetCount: n,
		PSetLayouts:        layouts,
	}
	sets := make([]vk.DescriptorSet, n)
	err = vk.Error(vk.AllocateDescriptorSets(d.Device, &allocInfo, &sets[0]))
	if err != nil {
		us.Destroy()
		return nil, fmt.Errorf("vk.AllocateDescriptorSets failed with %s", err)
	}

	for i, set := range sets {
		writes := []vk.WriteDescriptorSet{{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: buffers[i].handle,
				Range:  vk.DeviceSize(vk.WholeSize),
			}},
		}}
		vk.UpdateDescriptorSets(d.Device, 1, writes, 0, nil)
		us.Sets = append(us.Sets, &DescriptorSet{handle: set})
	}
	return us, nil
}

// Destroy destroys the pool, which frees the sets.
func (us *UniformSets) Destroy() {
	if us.pool == vk.NullDescriptorPool {
		return
	}
	vk.DestroyDescriptorPool(us.dev, us.pool, nil)
	us.pool = vk.NullDescriptorPool
	us.Sets = nil
}

// Destroy does nothing, the set is freed with its pool.
func (ds *DescriptorSet) Destroy() {}

// NewPipelineLayout creates a layout using set and, if pushSize is not
// zero, a push constant range of pushSize bytes.
func (d *Device) NewPipelineLayout(set *DescriptorLayout, pushSize int) (*PipelineLayout, error) {
	pipelineLayoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{set.handle},
	}
	pl := &PipelineLayout{dev: d.Device}
	if pushSize > 0 {
		pl.pushStages = graphicsStages
		pipelineLayoutInfo.PushConstantRangeCount = 1
		pipelineLayoutInfo.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: graphicsStages,
			Size:       uint32(pushSize),
		}}
	}
	err := vk.Error(vk.CreatePipelineLayout(d.Device, &pipelineLayoutInfo, nil, &pl.handle))
	if err != nil {
		return nil, fmt.Errorf("vk.CreatePipelineLayout failed with %s", err)
	}
	return pl, nil
}

func (pl *PipelineLayout) Destroy() {
	if pl.handle == vk.NullPipelineLayout {
		return
	}
	vk.DestroyPipelineLayout(pl.dev, pl.handle, nil)
	pl.handle = vk.NullPipelineLayout
}

// VertexAttribute is one attribute of binding 0.
type VertexAttribute struct {
	Location uint32
	Format   vk.Format
	Offset   uint32
}

// VertexLayout describes per vertex data of a single binding.
type VertexLayout struct {
	Stride     uint32
	Attributes []VertexAttribute
}

func (vl *VertexLayout) config() *vk.PipelineVertexInputStateCreateInfo {
	info := &vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	if vl == nil {
		return info
	}
	attrs := make([]vk.VertexInputAttributeDescription, len(vl.Attributes))
	for i, a := range vl.Attributes {
		attrs[i] = vk.VertexInputAttributeDescription{
			Binding:  0,
			Location: a.Location,
			Format:   a.Format,
			Offset:   a.Offset,
		}
	}
	info.VertexBindingDescriptionCount = 1
	info.PVertexBindingDescriptions = []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    vl.Stride,
		InputRate: vk.VertexInputRateVertex,
	}}
	info.VertexAttributeDescriptionCount = uint32(len(attrs))
	info.PVertexAttributeDescriptions = attrs
	return info
}

// PipelineConfig holds what differs between the pipelines of the
// render systems.
type PipelineConfig struct {
	VertexShader   []byte
	FragmentShader []byte

	// Vertex is nil for pipelines that generate their vertices.
	Vertex *VertexLayout

	// AlphaBlend blends with one minus source alpha; otherwise the
	// new color overwrites the old one.
	AlphaBlend bool

	// CullBack culls back faces of counter clockwise triangles.
	CullBack bool
}

// NewPipeline creates a graphics pipeline for subpass 0 of pass with
// depth testing and dynamic viewport and scissor. The pipeline stays
// usable with any render pass of the same formats.
func (d *Device) NewPipeline(pass asch.RenderPass, layout *PipelineLayout, cfg PipelineConfig) (*Pipeline, error) {
	vertexModule, err := d.newShaderModule(cfg.VertexShader)
	if err != nil {
		return nil, fmt.Errorf("vertex shader: %w", err)
	}
	defer vk.DestroyShaderModule(d.Device, vertexModule, nil)
	fragmentModule, err := d.newShaderModule(cfg.FragmentShader)
	if err != nil {
		return nil, fmt.Errorf("fragment shader: %w", err)
	}
	defer vk.DestroyShaderModule(d.Device, fragmentModule, nil)

	shaderStages := []vk.PipelineShaderStageCreateInfo{{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageVertexBit,
		Module: vertexModule,
		PName:  "main\x00",
	}, {
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageFragmentBit,
		Module: fragmentModule,
		PName:  "main\x00",
	}}

	cullMode := vk.CullModeNone
	if cfg.CullBack {
		cullMode = vk.CullModeBackBit
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:             vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:        uint32(len(shaderStages)),
		PStages:           shaderStages,
		PVertexInputState: cfg.Vertex.config(),
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ScissorCount:  1,
			ViewportCount: 1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(cullMode),
			FrontFace:   vk.FrontFaceCounterClockwise,
			LineWidth:   1,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
			MinSampleShading:     1,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:  vk.True,
			DepthWriteEnable: vk.True,
			DepthCompareOp:   vk.CompareOpLess,
			Back: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
			Front: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
		},
		PColorBlendState: colorBlend(cfg.AlphaBlend),
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateScissor,
				vk.DynamicStateViewport,
			},
		},
		Layout:             layout.handle,
		RenderPass:         pass.(*RenderPass).handle,
		Subpass:            0,
		BasePipelineHandle: vk.NullPipeline,
		BasePipelineIndex:  -1,
	}

	var noCache vk.PipelineCache
	pipelines := make([]vk.Pipeline, 1)
	err = vk.Error(vk.CreateGraphicsPipelines(d.Device, noCache, 1,
		[]vk.GraphicsPipelineCreateInfo{pipelineInfo}, nil, pipelines))
	if err != nil {
		return nil, fmt.Errorf("vk.CreateGraphicsPipelines failed with %s", err)
	}
	return &Pipeline{dev: d.Device, handle: pipelines[0]}, nil
}

func colorBlend(alphaBlend bool) *vk.PipelineColorBlendStateCreateInfo {
	var cb vk.PipelineColorBlendAttachmentState
	cb.ColorWriteMask = 0xF
	if alphaBlend {
		cb.BlendEnable = vk.True
		cb.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		cb.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		cb.ColorBlendOp = vk.BlendOpAdd
		cb.SrcAlphaBlendFactor = vk.BlendFactorOne
		cb.DstAlphaBlendFactor = vk.BlendFactorZero
		cb.AlphaBlendOp = vk.BlendOpAdd
	} else {
		cb.BlendEnable = vk.False
	}
	return &vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{cb},
	}
}

func (pl *Pipeline) Destroy() {
	if pl.handle == vk.NullPipeline {
		return
	}
	vk.DestroyPipeline(pl.dev, pl.handle, nil)
	pl.handle = vk.NullPipeline
}

func (d *Device) newShaderModule(code []byte) (vk.ShaderModule, error) {
	words, err := shaderCode(code)
	if err != nil {
		return vk.NullShaderModule, err
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}
	var module vk.ShaderModule
	err = vk.Error(vk.CreateShaderModule(d.Device, &createInfo, nil, &module))
	if err != nil {
		return vk.NullShaderModule, fmt.Errorf("vk.CreateShaderModule failed with %s", err)
	}
	return module, nil
}

// shaderCode repacks SPIR-V bytes into words, checking the size and
// the magic number.
func shaderCode(data []byte) ([]uint32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V size %d is not a multiple of 4", len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("bad SPIR-V magic %#08x", words[0])
	}
	return words, nil
}
