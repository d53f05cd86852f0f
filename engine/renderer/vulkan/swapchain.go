package vulkan

import (
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	emath "github.com/spaghettifunk/anima/engine/math"
)

type VulkanSwapchain struct {
	ImageFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	Handle      vk.Swapchain
	Extent      vk.Extent2D
	Images      []vk.Image
	Views       []vk.ImageView
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// chooseSurfaceFormat prefers BGRA8 UNORM in the sRGB color space.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Unorm && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return formats[0]
}

// choosePresentMode returns FIFO with vsync. Without it IMMEDIATE is
// preferred, then MAILBOX, then FIFO which is always available.
func choosePresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	for _, preferred := range []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeMailbox} {
		for _, mode := range modes {
			if mode == preferred {
				return mode
			}
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent uses the surface extent when it dictates one and clamps the
// requested size otherwise.
func chooseExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}
	min := capabilities.MinImageExtent
	max := capabilities.MaxImageExtent
	return vk.Extent2D{
		Width:  emath.Clamp(width, min.Width, max.Width),
		Height: emath.Clamp(height, min.Height, max.Height),
	}
}

func chooseImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// SwapchainCreate builds a swapchain for the current surface. old, when not
// nil, is handed to the driver for reuse and then destroyed.
func SwapchainCreate(context *VulkanContext, width, height uint32, vsync bool, old *VulkanSwapchain) (*VulkanSwapchain, error) {
	support := &context.Device.SwapchainSupport
	if err := DeviceQuerySwapchainSupport(context.Device.PhysicalDevice, context.Surface, support); err != nil {
		return nil, err
	}
	if len(support.Formats) == 0 {
		return nil, core.NewResultError(core.ErrorKindSwapchain, "choose surface format", "no surface formats")
	}

	swapchain := &VulkanSwapchain{
		ImageFormat: chooseSurfaceFormat(support.Formats),
		PresentMode: choosePresentMode(support.PresentModes, vsync),
		Extent:      chooseExtent(support.Capabilities, width, height),
	}

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    chooseImageCount(support.Capabilities),
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      swapchain.PresentMode,
		Clipped:          vk.True,
	}

	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			context.Device.GraphicsQueueIndex,
			context.Device.PresentQueueIndex,
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}
	if old != nil {
		swapchainCreateInfo.OldSwapchain = old.Handle
	}

	var handle vk.Swapchain
	res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &handle)
	if old != nil {
		old.Destroy(context)
	}
	if res != vk.Success {
		return nil, resultError(core.ErrorKindSwapchain, "vkCreateSwapchainKHR", res)
	}
	swapchain.Handle = handle

	var imageCount uint32
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, handle, &imageCount, nil); res != vk.Success {
		swapchain.Destroy(context)
		return nil, resultError(core.ErrorKindSwapchain, "vkGetSwapchainImagesKHR", res)
	}
	swapchain.Images = make([]vk.Image, imageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, handle, &imageCount, swapchain.Images); res != vk.Success {
		swapchain.Destroy(context)
		return nil, resultError(core.ErrorKindSwapchain, "vkGetSwapchainImagesKHR", res)
	}

	swapchain.Views = make([]vk.ImageView, 0, imageCount)
	for i, image := range swapchain.Images {
		view, err := createImageView(context, image, swapchain.ImageFormat.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			swapchain.Destroy(context)
			return nil, err
		}
		swapchain.Views = append(swapchain.Views, view)
		context.setObjectName(core.ResourceKindImageView, view, swapchainImageLabel(i))
	}

	core.LogInfo("Swapchain created (%dx%d, %d images).", swapchain.Extent.Width, swapchain.Extent.Height, imageCount)
	return swapchain, nil
}

// Destroy releases the views and the swapchain. The images belong to the
// swapchain and go with it.
func (vs *VulkanSwapchain) Destroy(context *VulkanContext) {
	for _, view := range vs.Views {
		vk.DestroyImageView(context.Device.LogicalDevice, view, context.Allocator)
	}
	vs.Views = nil
	vs.Images = nil
	if vs.Handle != nil {
		vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
		vs.Handle = nil
	}
}

// AcquireNextImageIndex maps VK_ERROR_OUT_OF_DATE_KHR to ErrSwapchainBooting
// and reports VK_SUBOPTIMAL_KHR as suboptimal.
func (vs *VulkanSwapchain) AcquireNextImageIndex(context *VulkanContext, timeoutNS uint64, imageAvailable vk.Semaphore) (uint32, bool, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, timeoutNS, imageAvailable, vk.NullFence, &imageIndex)
	switch result {
	case vk.Success:
		return imageIndex, false, nil
	case vk.Suboptimal:
		return imageIndex, true, nil
	case vk.ErrorOutOfDate:
		return 0, false, core.ErrSwapchainBooting
	case vk.Timeout, vk.NotReady:
		return 0, false, core.NewResultError(core.ErrorKindFrameAcquire, "vkAcquireNextImageKHR", VulkanResultString(result))
	}
	return 0, false, resultError(core.ErrorKindFrameAcquire, "vkAcquireNextImageKHR", result)
}

// Present returns true when the swapchain is out of date or suboptimal.
func (vs *VulkanSwapchain) Present(context *VulkanContext, renderComplete vk.Semaphore, imageIndex uint32) (bool, error) {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderComplete},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{imageIndex},
	}

	var result vk.Result
	_ = context.locks.SafeCall(QueueManagement, func() error {
		result = vk.QueuePresent(context.Device.PresentQueue, &presentInfo)
		return nil
	})
	switch result {
	case vk.Success:
		return false, nil
	case vk.Suboptimal, vk.ErrorOutOfDate:
		return true, nil
	}
	return false, resultError(core.ErrorKindPresent, "vkQueuePresentKHR", result)
}
