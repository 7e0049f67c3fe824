package render

import (
	"fmt"
	"unsafe"

	"github.com/vulkan-go/vulkan"
)

// newRenderPass describes a single color attachment in the swapchain
// format: cleared on load, stored on write, transitioned from undefined
// straight to the present-source layout. One subpass references it as
// the sole color attachment, with an external dependency covering the
// first layout transition.
func newRenderPass(device vulkan.Device, format vulkan.Format) (vulkan.RenderPass, error) {
	colorAttachment := vulkan.AttachmentDescription{
		Format:         format,
		Samples:        vulkan.SampleCount1Bit,
		LoadOp:         vulkan.AttachmentLoadOpClear,
		StoreOp:        vulkan.AttachmentStoreOpStore,
		StencilLoadOp:  vulkan.AttachmentLoadOpDontCare,
		StencilStoreOp: vulkan.AttachmentStoreOpDontCare,
		InitialLayout:  vulkan.ImageLayoutUndefined,
		FinalLayout:    vulkan.ImageLayoutPresentSrc,
	}

	colorAttachmentRef := vulkan.AttachmentReference{
		Attachment: 0,
		Layout:     vulkan.ImageLayoutColorAttachmentOptimal,
	}

	subpass := vulkan.SubpassDescription{
		PipelineBindPoint:    vulkan.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vulkan.AttachmentReference{colorAttachmentRef},
	}

	dependency := vulkan.SubpassDependency{
		SrcSubpass:    vulkan.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vulkan.PipelineStageFlags(vulkan.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vulkan.PipelineStageFlags(vulkan.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vulkan.AccessFlags(vulkan.AccessColorAttachmentWriteBit),
	}

	createInfo := vulkan.RenderPassCreateInfo{
		SType:           vulkan.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vulkan.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vulkan.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vulkan.SubpassDependency{dependency},
	}

	var renderPass vulkan.RenderPass
	if res := vulkan.CreateRenderPass(device, &createInfo, nil, &renderPass); IsError(res) {
		return vulkan.NullRenderPass, fmt.Errorf("creating render pass: %w", NewError(res))
	}
	return renderPass, nil
}

// newPipelineLayout creates an empty layout: no descriptor sets, no
// push constants.
func newPipelineLayout(device vulkan.Device) (vulkan.PipelineLayout, error) {
	createInfo := vulkan.PipelineLayoutCreateInfo{
		SType: vulkan.StructureTypePipelineLayoutCreateInfo,
	}

	var layout vulkan.PipelineLayout
	if res := vulkan.CreatePipelineLayout(device, &createInfo, nil, &layout); IsError(res) {
		return vulkan.NullPipelineLayout, fmt.Errorf("creating pipeline layout: %w", NewError(res))
	}
	return layout, nil
}

// newGraphicsPipeline assembles the fixed-function pipeline: two shader
// stages with entry point "main", no vertex inputs (geometry is
// generated procedurally in the vertex stage), triangle-list topology,
// a static viewport and scissor at the negotiated extent, filled
// back-face-culled clockwise rasterization, single-sample, opaque
// single-attachment blending. The shader modules are transient: both
// are destroyed before this function returns.
func newGraphicsPipeline(device vulkan.Device, extent vulkan.Extent2D, renderPass vulkan.RenderPass, layout vulkan.PipelineLayout, vertCode, fragCode []byte) (vulkan.Pipeline, error) {
	vertModule, err := newShaderModule(device, vertCode)
	if err != nil {
		return vulkan.NullPipeline, fmt.Errorf("creating vertex shader module: %w", err)
	}
	defer vulkan.DestroyShaderModule(device, vertModule, nil)

	fragModule, err := newShaderModule(device, fragCode)
	if err != nil {
		return vulkan.NullPipeline, fmt.Errorf("creating fragment shader module: %w", err)
	}
	defer vulkan.DestroyShaderModule(device, fragModule, nil)

	shaderStages := []vulkan.PipelineShaderStageCreateInfo{
		{
			SType:  vulkan.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vulkan.ShaderStageVertexBit,
			Module: vertModule,
			PName:  "main\x00",
		},
		{
			SType:  vulkan.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vulkan.ShaderStageFragmentBit,
			Module: fragModule,
			PName:  "main\x00",
		},
	}

	vertexInput := vulkan.PipelineVertexInputStateCreateInfo{
		SType:                           vulkan.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   0,
		VertexAttributeDescriptionCount: 0,
	}

	inputAssembly := vulkan.PipelineInputAssemblyStateCreateInfo{
		SType:                  vulkan.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vulkan.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vulkan.False,
	}

	viewport := vulkan.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}

	scissor := vulkan.Rect2D{
		Offset: vulkan.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}

	viewportState := vulkan.PipelineViewportStateCreateInfo{
		SType:         vulkan.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vulkan.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vulkan.Rect2D{scissor},
	}

	rasterizer := vulkan.PipelineRasterizationStateCreateInfo{
		SType:                   vulkan.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vulkan.False,
		RasterizerDiscardEnable: vulkan.False,
		PolygonMode:             vulkan.PolygonModeFill,
		LineWidth:               1,
		CullMode:                vulkan.CullModeFlags(vulkan.CullModeBackBit),
		FrontFace:               vulkan.FrontFaceClockwise,
		DepthBiasEnable:         vulkan.False,
	}

	multisampling := vulkan.PipelineMultisampleStateCreateInfo{
		SType:                vulkan.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vulkan.SampleCount1Bit,
		SampleShadingEnable:  vulkan.False,
		MinSampleShading:     1,
	}

	blendAttachment := vulkan.PipelineColorBlendAttachmentState{
		ColorWriteMask: vulkan.ColorComponentFlags(
			vulkan.ColorComponentRBit |
				vulkan.ColorComponentGBit |
				vulkan.ColorComponentBBit |
				vulkan.ColorComponentABit,
		),
		BlendEnable:         vulkan.False,
		SrcColorBlendFactor: vulkan.BlendFactorOne,
		DstColorBlendFactor: vulkan.BlendFactorZero,
		ColorBlendOp:        vulkan.BlendOpAdd,
		SrcAlphaBlendFactor: vulkan.BlendFactorOne,
		DstAlphaBlendFactor: vulkan.BlendFactorZero,
		AlphaBlendOp:        vulkan.BlendOpAdd,
	}

	colorBlending := vulkan.PipelineColorBlendStateCreateInfo{
		SType:           vulkan.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vulkan.False,
		LogicOp:         vulkan.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vulkan.PipelineColorBlendAttachmentState{blendAttachment},
	}

	pipelineInfo := vulkan.GraphicsPipelineCreateInfo{
		SType:               vulkan.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(shaderStages)),
		PStages:             shaderStages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PColorBlendState:    &colorBlending,
		Layout:              layout,
		RenderPass:          renderPass,
		Subpass:             0,
		BasePipelineHandle:  vulkan.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vulkan.Pipeline, 1)
	res := vulkan.CreateGraphicsPipelines(
		device,
		vulkan.NullPipelineCache,
		1,
		[]vulkan.GraphicsPipelineCreateInfo{pipelineInfo},
		nil,
		pipelines,
	)
	if IsError(res) {
		return vulkan.NullPipeline, fmt.Errorf("creating graphics pipeline: %w", NewError(res))
	}
	return pipelines[0], nil
}

// newShaderModule wraps SPIR-V bytecode in a shader module. The code
// must be a whole number of 32-bit words.
func newShaderModule(device vulkan.Device, code []byte) (vulkan.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return vulkan.NullShaderModule,
			fmt.Errorf("shader bytecode length %d is not a positive multiple of 4", len(code))
	}

	createInfo := vulkan.ShaderModuleCreateInfo{
		SType:    vulkan.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    repackUint32(code),
	}

	var module vulkan.ShaderModule
	if res := vulkan.CreateShaderModule(device, &createInfo, nil, &module); IsError(res) {
		return vulkan.NullShaderModule, fmt.Errorf("creating shader module: %w", NewError(res))
	}
	return module, nil
}

func repackUint32(data []byte) []uint32 {
	buf := make([]uint32, len(data)/4)
	vulkan.Memcopy(unsafe.Pointer(&buf[0]), data)
	return buf
}

// newFramebuffer binds one image view as the sole attachment of a
// framebuffer sized to the negotiated extent.
func newFramebuffer(device vulkan.Device, renderPass vulkan.RenderPass, view vulkan.ImageView, extent vulkan.Extent2D) (vulkan.Framebuffer, error) {
	createInfo := vulkan.FramebufferCreateInfo{
		SType:           vulkan.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: 1,
		PAttachments:    []vulkan.ImageView{view},
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var framebuffer vulkan.Framebuffer
	if res := vulkan.CreateFramebuffer(device, &createInfo, nil, &framebuffer); IsError(res) {
		return vulkan.NullFramebuffer, fmt.Errorf("creating framebuffer: %w", NewError(res))
	}
	return framebuffer, nil
}
