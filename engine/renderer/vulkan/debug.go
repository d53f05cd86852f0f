package vulkan

import (
	"fmt"
	"reflect"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
)

var debugObjectTypes = map[core.ResourceKind]vk.DebugReportObjectType{
	core.ResourceKindBuffer:              vk.DebugReportObjectTypeBuffer,
	core.ResourceKindImage:               vk.DebugReportObjectTypeImage,
	core.ResourceKindImageView:           vk.DebugReportObjectTypeImageView,
	core.ResourceKindPipeline:            vk.DebugReportObjectTypePipeline,
	core.ResourceKindPipelineLayout:      vk.DebugReportObjectTypePipelineLayout,
	core.ResourceKindShaderModule:        vk.DebugReportObjectTypeShaderModule,
	core.ResourceKindDescriptorSetLayout: vk.DebugReportObjectTypeDescriptorSetLayout,
	core.ResourceKindDescriptorPool:      vk.DebugReportObjectTypeDescriptorPool,
	core.ResourceKindDescriptorSet:       vk.DebugReportObjectTypeDescriptorSet,
	core.ResourceKindCommandPool:         vk.DebugReportObjectTypeCommandPool,
	core.ResourceKindCommandBuffer:       vk.DebugReportObjectTypeCommandBuffer,
	core.ResourceKindFence:               vk.DebugReportObjectTypeFence,
	core.ResourceKindSemaphore:           vk.DebugReportObjectTypeSemaphore,
	core.ResourceKindSampler:             vk.DebugReportObjectTypeSampler,
	core.ResourceKindSwapchain:           vk.DebugReportObjectTypeSwapchainKhr,
}

// debugObjectType maps a resource kind to the object type used for naming.
func debugObjectType(kind core.ResourceKind) vk.DebugReportObjectType {
	if t, ok := debugObjectTypes[kind]; ok {
		return t
	}
	return vk.DebugReportObjectTypeUnknown
}

// handleValue returns the raw value of a Vulkan handle. Handles are pointer
// types in the binding.
func handleValue(handle interface{}) uint64 {
	v := reflect.ValueOf(handle)
	if v.Kind() != reflect.Ptr && v.Kind() != reflect.UnsafePointer {
		return 0
	}
	return uint64(v.Pointer())
}

func swapchainImageLabel(i int) string {
	return fmt.Sprintf("swapchain_view%d", i)
}

// setObjectName attaches label to the object when debug markers are on.
func (vc *VulkanContext) setObjectName(kind core.ResourceKind, handle interface{}, label string) {
	if !vc.DebugMarkers || label == "" {
		return
	}
	object := handleValue(handle)
	if object == 0 {
		return
	}
	info := vk.DebugMarkerObjectNameInfo{
		SType:       vk.StructureTypeDebugMarkerObjectNameInfo,
		ObjectType:  debugObjectType(kind),
		Object:      object,
		PObjectName: VulkanSafeString(label),
	}
	if res := vk.DebugMarkerSetObjectName(vc.Device.LogicalDevice, &info); res != vk.Success {
		core.LogDebug("failed to name %s %s: %s", kind, label, VulkanResultString(res))
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

func createDebugCallback(context *VulkanContext) error {
	core.LogDebug("Creating Vulkan debugger...")
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: dbgCallbackFunc,
	}
	var dbg vk.DebugReportCallback
	if res := vk.CreateDebugReportCallback(context.Instance, &debugCreateInfo, context.Allocator, &dbg); res != vk.Success {
		return resultError(core.ErrorKindDeviceInit, "vkCreateDebugReportCallbackEXT", res)
	}
	context.debugCallback = dbg
	core.LogDebug("Vulkan debugger created.")
	return nil
}

func destroyDebugCallback(context *VulkanContext) {
	if context.debugCallback != nil {
		vk.DestroyDebugReportCallback(context.Instance, context.debugCallback, context.Allocator)
		context.debugCallback = nil
	}
}
