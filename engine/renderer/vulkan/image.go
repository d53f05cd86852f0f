package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Format vk.Format
	Width  uint32
	Height uint32
}

func imageOf(image *metadata.GpuImage) *VulkanImage {
	return image.InternalData.(*VulkanImage)
}

// CreateImage creates a 2D optimal-tiling image in device local memory.
func (vr *VulkanRenderer) CreateImage(label string, format metadata.ImageFormat, usage metadata.ImageUsage, extent metadata.Extent3D) (*metadata.GpuImage, error) {
	device := vr.context.Device.LogicalDevice
	vkFormat := toVkFormat(format)
	if vkFormat == vk.FormatUndefined {
		return nil, core.NewError(core.ErrorKindImageCreation, "create image "+label, fmt.Errorf("undefined format"))
	}
	depth := extent.Depth
	if depth == 0 {
		depth = 1
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  depth,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        vkFormat,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         toVkImageUsage(usage),
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var handle vk.Image
	if res := vk.CreateImage(device, &imageCreateInfo, vr.context.Allocator, &handle); res != vk.Success {
		return nil, resultError(core.ErrorKindImageCreation, "vkCreateImage "+label, res)
	}

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, handle, &requirements)
	requirements.Deref()

	memoryType := vr.context.FindMemoryIndex(requirements.MemoryTypeBits, vk.MemoryPropertyDeviceLocalBit)
	if memoryType < 0 {
		vk.DestroyImage(device, handle, vr.context.Allocator)
		return nil, core.NewError(core.ErrorKindImageCreation, "allocate image "+label, fmt.Errorf("no device local memory type"))
	}
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(device, &allocateInfo, vr.context.Allocator, &memory); res != vk.Success {
		vk.DestroyImage(device, handle, vr.context.Allocator)
		return nil, resultError(core.ErrorKindImageCreation, "vkAllocateMemory "+label, res)
	}
	if res := vk.BindImageMemory(device, handle, memory, 0); res != vk.Success {
		vk.FreeMemory(device, memory, vr.context.Allocator)
		vk.DestroyImage(device, handle, vr.context.Allocator)
		return nil, resultError(core.ErrorKindImageCreation, "vkBindImageMemory "+label, res)
	}

	vr.context.setObjectName(core.ResourceKindImage, handle, label)
	return &metadata.GpuImage{
		Label:  label,
		Format: format,
		Usage:  usage,
		Extent: metadata.Extent3D{Width: extent.Width, Height: extent.Height, Depth: depth},
		InternalData: &VulkanImage{
			Handle: handle,
			Memory: memory,
			Format: vkFormat,
			Width:  extent.Width,
			Height: extent.Height,
		},
	}, nil
}

func (vr *VulkanRenderer) CreateImageView(image *metadata.GpuImage, aspect metadata.ImageAspect) error {
	vi := imageOf(image)
	view, err := createImageView(vr.context, vi.Handle, vi.Format, toVkImageAspect(aspect))
	if err != nil {
		return err
	}
	vi.View = view
	image.HasView = true
	vr.context.setObjectName(core.ResourceKindImageView, view, image.Label+"_view")
	return nil
}

func (vr *VulkanRenderer) DestroyImage(image *metadata.GpuImage) {
	vi := imageOf(image)
	device := vr.context.Device.LogicalDevice
	if vi.View != nil {
		vk.DestroyImageView(device, vi.View, vr.context.Allocator)
		vi.View = nil
		image.HasView = false
	}
	if vi.Memory != nil {
		vk.FreeMemory(device, vi.Memory, vr.context.Allocator)
		vi.Memory = nil
	}
	if vi.Handle != nil {
		vk.DestroyImage(device, vi.Handle, vr.context.Allocator)
		vi.Handle = nil
	}
}

func createImageView(context *VulkanContext, image vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &view); res != vk.Success {
		return nil, resultError(core.ErrorKindViewCreation, "vkCreateImageView", res)
	}
	return view, nil
}
