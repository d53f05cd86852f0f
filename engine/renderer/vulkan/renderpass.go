package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// VulkanRenderpass is a single-subpass pass over the swapchain image and the
// depth image. Attachments enter and leave in their attachment layouts. The
// transitions to and from those layouts are recorded as explicit barriers by
// CmdBeginRendering and CmdEndRendering.
type VulkanRenderpass struct {
	Handle      vk.RenderPass
	ColorFormat vk.Format
	DepthFormat vk.Format
}

func hasStencil(format vk.Format) bool {
	return format == vk.FormatD32SfloatS8Uint || format == vk.FormatD24UnormS8Uint
}

func depthAspect(format vk.Format) vk.ImageAspectFlags {
	aspect := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	if hasStencil(format) {
		aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	return aspect
}

func RenderpassCreate(context *VulkanContext, colorFormat, depthFormat vk.Format) (*VulkanRenderpass, error) {
	attachmentDescriptions := []vk.AttachmentDescription{
		{
			Format:         colorFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutColorAttachmentOptimal,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		},
		{
			Format:         depthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpClear,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutDepthStencilAttachmentOptimal,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorAttachmentReference := []vk.AttachmentReference{
		{
			Attachment: 0, // Attachment description array index
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		},
	}
	depthAttachmentReference := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       colorAttachmentReference,
		PDepthStencilAttachment: &depthAttachmentReference,
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}

	var handle vk.RenderPass
	if res := vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, resultError(core.ErrorKindSwapchain, "vkCreateRenderPass", res)
	}
	return &VulkanRenderpass{Handle: handle, ColorFormat: colorFormat, DepthFormat: depthFormat}, nil
}

func (vr *VulkanRenderpass) Destroy(context *VulkanContext) {
	if vr.Handle != nil {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = nil
	}
}

func destroyFramebuffers(context *VulkanContext) {
	for _, fb := range context.Framebuffers {
		vk.DestroyFramebuffer(context.Device.LogicalDevice, fb, context.Allocator)
	}
	context.Framebuffers = nil
}

// regenerateFramebuffers builds one framebuffer per swapchain view, sharing
// the depth attachment.
func regenerateFramebuffers(context *VulkanContext) error {
	destroyFramebuffers(context)
	if context.DepthAttachment == nil {
		return core.NewError(core.ErrorKindSwapchain, "create framebuffers", fmt.Errorf("no depth attachment"))
	}
	extent := context.Swapchain.Extent
	for i, view := range context.Swapchain.Views {
		framebufferCreateInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      context.Renderpass.Handle,
			AttachmentCount: 2,
			PAttachments:    []vk.ImageView{view, context.DepthAttachment.View},
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		}
		var fb vk.Framebuffer
		if res := vk.CreateFramebuffer(context.Device.LogicalDevice, &framebufferCreateInfo, context.Allocator, &fb); res != vk.Success {
			destroyFramebuffers(context)
			return resultError(core.ErrorKindSwapchain, fmt.Sprintf("vkCreateFramebuffer %d", i), res)
		}
		context.Framebuffers = append(context.Framebuffers, fb)
	}
	return nil
}

// SetDepthAttachment rebuilds the framebuffers around image.
func (vr *VulkanRenderer) SetDepthAttachment(image *metadata.GpuImage) error {
	vi := imageOf(image)
	if vi.Width != vr.context.Swapchain.Extent.Width || vi.Height != vr.context.Swapchain.Extent.Height {
		core.LogWarn("depth image %s is %dx%d, swapchain is %dx%d", image.Label, vi.Width, vi.Height,
			vr.context.Swapchain.Extent.Width, vr.context.Swapchain.Extent.Height)
	}
	vr.context.DepthAttachment = vi
	return regenerateFramebuffers(vr.context)
}

func imageBarrier(cmd vk.CommandBuffer, image vk.Image, aspect vk.ImageAspectFlags,
	oldLayout, newLayout vk.ImageLayout,
	srcStage, dstStage vk.PipelineStageFlagBits,
	srcAccess, dstAccess vk.AccessFlagBits) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(srcAccess),
		DstAccessMask:       vk.AccessFlags(dstAccess),
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(srcStage),
		vk.PipelineStageFlags(dstStage),
		0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{barrier})
}

// CmdBeginRendering transitions the swapchain image and the depth image to
// their attachment layouts, begins the pass with the clear values and sets
// the viewport and scissor to the swapchain extent.
func (vr *VulkanRenderer) CmdBeginRendering(cmd *metadata.CommandBuffer, imageIndex uint32, clear metadata.ClearValues) {
	v := commandBufferOf(cmd)
	context := vr.context
	extent := context.Swapchain.Extent

	imageBarrier(v.Handle, context.Swapchain.Images[imageIndex], vk.ImageAspectFlags(vk.ImageAspectColorBit),
		vk.ImageLayoutUndefined, vk.ImageLayoutColorAttachmentOptimal,
		vk.PipelineStageColorAttachmentOutputBit, vk.PipelineStageColorAttachmentOutputBit,
		0, vk.AccessColorAttachmentWriteBit)
	imageBarrier(v.Handle, context.DepthAttachment.Handle, depthAspect(context.DepthAttachment.Format),
		vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal,
		vk.PipelineStageEarlyFragmentTestsBit|vk.PipelineStageLateFragmentTestsBit,
		vk.PipelineStageEarlyFragmentTestsBit|vk.PipelineStageLateFragmentTestsBit,
		vk.AccessDepthStencilAttachmentWriteBit, vk.AccessDepthStencilAttachmentReadBit|vk.AccessDepthStencilAttachmentWriteBit)

	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(clear.Color[:])
	clearValues[1].SetDepthStencil(clear.Depth, clear.Stencil)

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  context.Renderpass.Handle,
		Framebuffer: context.Framebuffers[imageIndex],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(v.Handle, &beginInfo, vk.SubpassContentsInline)
	v.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS

	// Dynamic state
	viewport := vk.Viewport{
		X:        0.0,
		Y:        0.0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	vk.CmdSetViewport(v.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(v.Handle, 0, 1, []vk.Rect2D{scissor})
}

// CmdEndRendering ends the pass and transitions the swapchain image for
// presentation.
func (vr *VulkanRenderer) CmdEndRendering(cmd *metadata.CommandBuffer, imageIndex uint32) {
	v := commandBufferOf(cmd)
	vk.CmdEndRenderPass(v.Handle)
	v.State = COMMAND_BUFFER_STATE_RECORDING

	imageBarrier(v.Handle, vr.context.Swapchain.Images[imageIndex], vk.ImageAspectFlags(vk.ImageAspectColorBit),
		vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutPresentSrc,
		vk.PipelineStageColorAttachmentOutputBit, vk.PipelineStageBottomOfPipeBit,
		vk.AccessColorAttachmentWriteBit, 0)
}
