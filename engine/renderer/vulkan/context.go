package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
)

type VulkanContext struct {
	// The framebuffer size requested by the window. The swapchain extent may
	// differ when the surface dictates one.
	FramebufferWidth  uint32
	FramebufferHeight uint32

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugCallback vk.DebugReportCallback

	// Validation enables the validation layer and the debug report callback.
	Validation bool
	// DebugMarkers is set when VK_EXT_debug_marker was enabled on the device.
	DebugMarkers bool

	Device *VulkanDevice

	Swapchain  *VulkanSwapchain
	Renderpass *VulkanRenderpass
	// One framebuffer per swapchain image, rebuilt with the swapchain.
	Framebuffers []vk.Framebuffer
	// Borrowed from the renderer, which owns the depth image.
	DepthAttachment *VulkanImage

	locks *VulkanLockPool
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlagBits) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		flags := vk.MemoryPropertyFlagBits(memoryProperties.MemoryTypes[i].PropertyFlags)
		if (typeFilter&(1<<i)) != 0 && flags&propertyFlags == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
