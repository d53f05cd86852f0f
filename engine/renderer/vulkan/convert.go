package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

func toVkFormat(format metadata.ImageFormat) vk.Format {
	switch format {
	case metadata.ImageFormatB8G8R8A8Unorm:
		return vk.FormatB8g8r8a8Unorm
	case metadata.ImageFormatB8G8R8A8Srgb:
		return vk.FormatB8g8r8a8Srgb
	case metadata.ImageFormatR8G8B8A8Unorm:
		return vk.FormatR8g8b8a8Unorm
	case metadata.ImageFormatD32Sfloat:
		return vk.FormatD32Sfloat
	case metadata.ImageFormatD32SfloatS8Uint:
		return vk.FormatD32SfloatS8Uint
	case metadata.ImageFormatD24UnormS8Uint:
		return vk.FormatD24UnormS8Uint
	}
	return vk.FormatUndefined
}

func fromVkFormat(format vk.Format) metadata.ImageFormat {
	switch format {
	case vk.FormatB8g8r8a8Unorm:
		return metadata.ImageFormatB8G8R8A8Unorm
	case vk.FormatB8g8r8a8Srgb:
		return metadata.ImageFormatB8G8R8A8Srgb
	case vk.FormatR8g8b8a8Unorm:
		return metadata.ImageFormatR8G8B8A8Unorm
	case vk.FormatD32Sfloat:
		return metadata.ImageFormatD32Sfloat
	case vk.FormatD32SfloatS8Uint:
		return metadata.ImageFormatD32SfloatS8Uint
	case vk.FormatD24UnormS8Uint:
		return metadata.ImageFormatD24UnormS8Uint
	}
	return metadata.ImageFormatUndefined
}

func toVkBufferUsage(usage metadata.BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlagBits
	if usage&metadata.BufferUsageTransferSrc != 0 {
		flags |= vk.BufferUsageTransferSrcBit
	}
	if usage&metadata.BufferUsageTransferDst != 0 {
		flags |= vk.BufferUsageTransferDstBit
	}
	if usage&metadata.BufferUsageUniform != 0 {
		flags |= vk.BufferUsageUniformBufferBit
	}
	if usage&metadata.BufferUsageStorage != 0 {
		flags |= vk.BufferUsageStorageBufferBit
	}
	if usage&metadata.BufferUsageVertex != 0 {
		flags |= vk.BufferUsageVertexBufferBit
	}
	if usage&metadata.BufferUsageIndex != 0 {
		flags |= vk.BufferUsageIndexBufferBit
	}
	return vk.BufferUsageFlags(flags)
}

func toVkMemoryProperties(location metadata.MemoryLocation) vk.MemoryPropertyFlagBits {
	switch location {
	case metadata.MemoryLocationCpuToGpu, metadata.MemoryLocationCpuOnly:
		return vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
	}
	return vk.MemoryPropertyDeviceLocalBit
}

func toVkImageUsage(usage metadata.ImageUsage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlagBits
	if usage&metadata.ImageUsageTransferSrc != 0 {
		flags |= vk.ImageUsageTransferSrcBit
	}
	if usage&metadata.ImageUsageTransferDst != 0 {
		flags |= vk.ImageUsageTransferDstBit
	}
	if usage&metadata.ImageUsageSampled != 0 {
		flags |= vk.ImageUsageSampledBit
	}
	if usage&metadata.ImageUsageColorAttachment != 0 {
		flags |= vk.ImageUsageColorAttachmentBit
	}
	if usage&metadata.ImageUsageDepthStencilAttachment != 0 {
		flags |= vk.ImageUsageDepthStencilAttachmentBit
	}
	return vk.ImageUsageFlags(flags)
}

func toVkImageAspect(aspect metadata.ImageAspect) vk.ImageAspectFlags {
	var flags vk.ImageAspectFlagBits
	if aspect&metadata.ImageAspectColor != 0 {
		flags |= vk.ImageAspectColorBit
	}
	if aspect&metadata.ImageAspectDepth != 0 {
		flags |= vk.ImageAspectDepthBit
	}
	if aspect&metadata.ImageAspectStencil != 0 {
		flags |= vk.ImageAspectStencilBit
	}
	return vk.ImageAspectFlags(flags)
}

func toVkShaderStages(stages metadata.ShaderStage) vk.ShaderStageFlags {
	var flags vk.ShaderStageFlagBits
	if stages&metadata.ShaderStageVertex != 0 {
		flags |= vk.ShaderStageVertexBit
	}
	if stages&metadata.ShaderStageFragment != 0 {
		flags |= vk.ShaderStageFragmentBit
	}
	return vk.ShaderStageFlags(flags)
}

func toVkDescriptorType(kind metadata.DescriptorType) vk.DescriptorType {
	switch kind {
	case metadata.DescriptorTypeUniformBufferDynamic:
		return vk.DescriptorTypeUniformBufferDynamic
	case metadata.DescriptorTypeStorageBuffer:
		return vk.DescriptorTypeStorageBuffer
	}
	return vk.DescriptorTypeUniformBuffer
}

func toVkVertexFormat(format metadata.VertexFormat) vk.Format {
	switch format {
	case metadata.VertexFormatFloat2:
		return vk.FormatR32g32Sfloat
	case metadata.VertexFormatFloat4:
		return vk.FormatR32g32b32a32Sfloat
	}
	return vk.FormatR32g32b32Sfloat
}

func toVkCullMode(mode metadata.FaceCullMode) vk.CullModeFlags {
	switch mode {
	case metadata.FaceCullModeNone:
		return vk.CullModeFlags(vk.CullModeNone)
	case metadata.FaceCullModeFront:
		return vk.CullModeFlags(vk.CullModeFrontBit)
	case metadata.FaceCullModeFrontAndBack:
		return vk.CullModeFlags(vk.CullModeFrontAndBack)
	}
	return vk.CullModeFlags(vk.CullModeBackBit)
}

func toVkPolygonMode(mode metadata.PolygonMode) vk.PolygonMode {
	if mode == metadata.PolygonModeLine {
		return vk.PolygonModeLine
	}
	return vk.PolygonModeFill
}
