package vulkan

import (
	"errors"
	"math"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultErrorMapsKinds(t *testing.T) {
	assert.NoError(t, resultError(core.ErrorKindAllocation, "op", vk.Success))
	assert.NoError(t, resultError(core.ErrorKindAllocation, "op", vk.Suboptimal))

	err := resultError(core.ErrorKindAllocation, "vkAllocateMemory", vk.ErrorOutOfDeviceMemory)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrAllocation))
	assert.Contains(t, err.Error(), "VK_ERROR_OUT_OF_DEVICE_MEMORY")

	err = resultError(core.ErrorKindFrameSubmit, "vkQueueSubmit", vk.ErrorDeviceLost)
	assert.True(t, errors.Is(err, core.ErrDeviceLost))
}

func TestVulkanResultString(t *testing.T) {
	assert.Equal(t, "VK_ERROR_OUT_OF_DATE_KHR", VulkanResultString(vk.ErrorOutOfDate))
	assert.Equal(t, "VK_TIMEOUT", VulkanResultString(vk.Timeout))
	assert.Equal(t, "VK_ERROR_UNKNOWN", VulkanResultString(vk.Result(-123456)))
}

func TestSafeStrings(t *testing.T) {
	assert.Equal(t, "\x00", VulkanSafeString(""))
	assert.Equal(t, "main\x00", VulkanSafeString("main"))
	assert.Equal(t, "main\x00", VulkanSafeString("main\x00"))

	in := []string{"a", "b\x00"}
	out := VulkanSafeStrings(in)
	assert.Equal(t, []string{"a\x00", "b\x00"}, out)
	assert.Equal(t, "a", in[0])

	assert.True(t, containsName([]string{"VK_KHR_swapchain"}, "VK_KHR_swapchain\x00"))
	assert.False(t, containsName([]string{"VK_KHR_surface"}, "VK_KHR_swapchain"))
}

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	other := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	assert.Equal(t, preferred, chooseSurfaceFormat([]vk.SurfaceFormat{other, preferred}))
	assert.Equal(t, other, chooseSurfaceFormat([]vk.SurfaceFormat{other}))
}

func TestChoosePresentMode(t *testing.T) {
	all := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox, vk.PresentModeImmediate}
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(all, true))
	assert.Equal(t, vk.PresentModeImmediate, choosePresentMode(all, false))
	assert.Equal(t, vk.PresentModeMailbox, choosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}, false))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode([]vk.PresentMode{vk.PresentModeFifo}, false))
}

func TestChooseExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 800, Height: 600},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, chooseExtent(caps, 1024, 768))

	caps.CurrentExtent = vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, chooseExtent(caps, 1024, 768))
	assert.Equal(t, vk.Extent2D{Width: 4096, Height: 1}, chooseExtent(caps, 9000, 0))
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, uint32(3), chooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2}))
	assert.Equal(t, uint32(2), chooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
}

func TestDeviceTypeScorePrefersDiscrete(t *testing.T) {
	assert.Greater(t, deviceTypeScore(vk.PhysicalDeviceTypeDiscreteGpu), deviceTypeScore(vk.PhysicalDeviceTypeIntegratedGpu))
	assert.Greater(t, deviceTypeScore(vk.PhysicalDeviceTypeIntegratedGpu), deviceTypeScore(vk.PhysicalDeviceTypeCpu))
}

func TestQueueFamilyInfoComplete(t *testing.T) {
	assert.False(t, VulkanPhysicalDeviceQueueFamilyInfo{GraphicsFamilyIndex: 0, PresentFamilyIndex: -1}.Complete())
	assert.True(t, VulkanPhysicalDeviceQueueFamilyInfo{GraphicsFamilyIndex: 0, PresentFamilyIndex: 1}.Complete())
}

func TestFormatConversionRoundTrips(t *testing.T) {
	for _, f := range []metadata.ImageFormat{
		metadata.ImageFormatB8G8R8A8Unorm,
		metadata.ImageFormatB8G8R8A8Srgb,
		metadata.ImageFormatR8G8B8A8Unorm,
		metadata.ImageFormatD32Sfloat,
		metadata.ImageFormatD32SfloatS8Uint,
		metadata.ImageFormatD24UnormS8Uint,
	} {
		assert.Equal(t, f, fromVkFormat(toVkFormat(f)))
	}
	assert.Equal(t, vk.FormatUndefined, toVkFormat(metadata.ImageFormatUndefined))
}

func TestFlagConversions(t *testing.T) {
	usage := toVkBufferUsage(metadata.BufferUsageVertex | metadata.BufferUsageTransferDst)
	assert.Equal(t, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit|vk.BufferUsageTransferDstBit), usage)

	stages := toVkShaderStages(metadata.ShaderStageVertex | metadata.ShaderStageFragment)
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit), stages)

	assert.Equal(t, vk.MemoryPropertyDeviceLocalBit, toVkMemoryProperties(metadata.MemoryLocationGpuOnly))
	assert.Equal(t, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit, toVkMemoryProperties(metadata.MemoryLocationCpuToGpu))

	assert.Equal(t, vk.DescriptorTypeUniformBufferDynamic, toVkDescriptorType(metadata.DescriptorTypeUniformBufferDynamic))
	assert.Equal(t, vk.FormatR32g32Sfloat, toVkVertexFormat(metadata.VertexFormatFloat2))
	assert.Equal(t, vk.PolygonModeLine, toVkPolygonMode(metadata.PolygonModeLine))
	assert.Equal(t, vk.CullModeFlags(vk.CullModeNone), toVkCullMode(metadata.FaceCullModeNone))
}

func TestDepthAspect(t *testing.T) {
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit), depthAspect(vk.FormatD32Sfloat))
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit), depthAspect(vk.FormatD24UnormS8Uint))
}

func TestDebugObjectTypes(t *testing.T) {
	assert.Equal(t, vk.DebugReportObjectTypeBuffer, debugObjectType(core.ResourceKindBuffer))
	assert.Equal(t, vk.DebugReportObjectTypePipeline, debugObjectType(core.ResourceKindPipeline))
	assert.Equal(t, vk.DebugReportObjectTypeUnknown, debugObjectType(core.ResourceKindUnknown))

	x := 42
	assert.NotZero(t, handleValue(&x))
	assert.Zero(t, handleValue(7))
	assert.Equal(t, "swapchain_view2", swapchainImageLabel(2))
}

func TestSetObjectNameSkipsWithoutMarkers(t *testing.T) {
	ctx := &VulkanContext{Device: &VulkanDevice{}}
	x := 1
	// Must not reach the driver.
	ctx.setObjectName(core.ResourceKindBuffer, &x, "buffer")
}
