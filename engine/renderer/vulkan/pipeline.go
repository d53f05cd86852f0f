package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type VulkanPipeline struct {
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	PipelineLayout vk.PipelineLayout
	/** @brief The stages the push constant range is visible to. */
	PushConstantStages vk.ShaderStageFlags
}

func pipelineOf(pipeline *metadata.Pipeline) *VulkanPipeline {
	return pipeline.InternalData.(*VulkanPipeline)
}

func shaderModuleOf(module *metadata.ShaderModule) vk.ShaderModule {
	return module.InternalData.(vk.ShaderModule)
}

func (vr *VulkanRenderer) CreateShaderModule(label string, stage metadata.ShaderStage, code []uint32) (*metadata.ShaderModule, error) {
	if len(code) == 0 {
		return nil, core.NewError(core.ErrorKindPipelineBuild, "vkCreateShaderModule "+label, fmt.Errorf("empty shader code"))
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(vr.context.Device.LogicalDevice, &createInfo, vr.context.Allocator, &module); res != vk.Success {
		return nil, resultError(core.ErrorKindPipelineBuild, "vkCreateShaderModule "+label, res)
	}
	vr.context.setObjectName(core.ResourceKindShaderModule, module, label)
	return &metadata.ShaderModule{Label: label, Stage: stage, InternalData: module}, nil
}

func (vr *VulkanRenderer) DestroyShaderModule(module *metadata.ShaderModule) {
	vk.DestroyShaderModule(vr.context.Device.LogicalDevice, shaderModuleOf(module), vr.context.Allocator)
}

// CreateGraphicsPipeline builds a triangle-list pipeline against the
// swapchain render pass. Viewport and scissor are dynamic so the pipeline
// survives swapchain recreation.
func (vr *VulkanRenderer) CreateGraphicsPipeline(label string, desc *metadata.PipelineDesc, vertex, fragment *metadata.ShaderModule) (*metadata.Pipeline, error) {
	device := vr.context.Device.LogicalDevice

	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: shaderModuleOf(vertex),
			PName:  VulkanSafeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: shaderModuleOf(fragment),
			PName:  VulkanSafeString("main"),
		},
	}

	// Viewport state
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	// Rasterizer
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             toVkPolygonMode(desc.PolygonMode),
		LineWidth:               1.0,
		CullMode:                toVkCullMode(desc.CullMode),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
	}

	// Multisampling.
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	// Depth and stencil testing.
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vk.False,
		DepthWriteEnable:  vk.False,
		DepthCompareOp:    vk.CompareOpLessOrEqual,
		StencilTestEnable: vk.False,
		MaxDepthBounds:    1.0,
	}
	if desc.DepthTest {
		depthStencil.DepthTestEnable = vk.True
	}
	if desc.DepthWrite {
		depthStencil.DepthWriteEnable = vk.True
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	// Dynamic state
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	// Vertex input
	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0, // Binding index
		Stride:    desc.VertexLayout.Stride,
		InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(desc.VertexLayout.Attributes))
	for i, a := range desc.VertexLayout.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  0,
			Format:   toVkVertexFormat(a.Format),
			Offset:   a.Offset,
		}
	}
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	// Input assembly
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	// Pipeline layout
	setLayouts := make([]vk.DescriptorSetLayout, len(desc.DescriptorSetLayouts))
	for i, l := range desc.DescriptorSetLayouts {
		setLayouts[i] = descriptorSetLayoutOf(l)
	}
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(setLayouts)),
		PSetLayouts:    setLayouts,
	}
	pushStages := toVkShaderStages(desc.PushConstantStages)
	if desc.PushConstantSize > 0 {
		pipelineLayoutCreateInfo.PushConstantRangeCount = 1
		pipelineLayoutCreateInfo.PPushConstantRanges = []vk.PushConstantRange{
			{
				StageFlags: pushStages,
				Offset:     0,
				Size:       desc.PushConstantSize,
			},
		}
	}

	outPipeline := &VulkanPipeline{PushConstantStages: pushStages}
	var pipelineLayout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(device, &pipelineLayoutCreateInfo, vr.context.Allocator, &pipelineLayout); res != vk.Success {
		return nil, resultError(core.ErrorKindPipelineBuild, "vkCreatePipelineLayout "+label, res)
	}
	outPipeline.PipelineLayout = pipelineLayout
	vr.context.setObjectName(core.ResourceKindPipelineLayout, pipelineLayout, label+"_layout")

	// Pipeline create
	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              outPipeline.PipelineLayout,
		RenderPass:          vr.context.Renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(device, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{pipelineCreateInfo}, vr.context.Allocator, pipelines); res != vk.Success {
		vk.DestroyPipelineLayout(device, pipelineLayout, vr.context.Allocator)
		return nil, resultError(core.ErrorKindPipelineBuild, "vkCreateGraphicsPipelines "+label, res)
	}
	outPipeline.Handle = pipelines[0]
	vr.context.setObjectName(core.ResourceKindPipeline, outPipeline.Handle, label)

	core.LogDebug("Graphics pipeline %s created.", label)
	return &metadata.Pipeline{
		Name:               label,
		PushConstantSize:   desc.PushConstantSize,
		PushConstantStages: desc.PushConstantStages,
		InternalData:       outPipeline,
	}, nil
}

func (vr *VulkanRenderer) DestroyPipeline(pipeline *metadata.Pipeline) {
	vp := pipelineOf(pipeline)
	device := vr.context.Device.LogicalDevice
	if vp.Handle != nil {
		vk.DestroyPipeline(device, vp.Handle, vr.context.Allocator)
		vp.Handle = nil
	}
	if vp.PipelineLayout != nil {
		vk.DestroyPipelineLayout(device, vp.PipelineLayout, vr.context.Allocator)
		vp.PipelineLayout = nil
	}
}
