package vulkan

import (
	"fmt"
	"runtime"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

// VulkanRenderer implements renderer.RendererBackend on goki/vulkan.
type VulkanRenderer struct {
	context *VulkanContext
	config  metadata.RendererBackendConfig
}

var _ renderer.RendererBackend = (*VulkanRenderer)(nil)

func New() *VulkanRenderer {
	return &VulkanRenderer{
		context: &VulkanContext{
			Allocator: nil,
			Device:    &VulkanDevice{},
			locks:     NewVulkanLockPool(),
		},
	}
}

func (vr *VulkanRenderer) Initialize(config *metadata.RendererBackendConfig, target renderer.PresentTarget) error {
	vr.config = *config
	vr.context.Validation = config.Validation

	if err := vr.initialize(target); err != nil {
		if shutdownErr := vr.Shutdown(); shutdownErr != nil {
			core.LogError("failed to release partially initialized backend: %s", shutdownErr)
		}
		return err
	}
	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) initialize(target renderer.PresentTarget) error {
	procAddr := target.InstanceProcAddr()
	if procAddr == nil {
		return core.NewError(core.ErrorKindDeviceInit, "GetInstanceProcAddress", fmt.Errorf("GetInstanceProcAddress is nil"))
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return core.NewError(core.ErrorKindDeviceInit, "vk.Init", err)
	}

	if err := createInstance(vr.context, vr.config.ApplicationName, target.RequiredExtensions()); err != nil {
		return err
	}

	if vr.context.Validation {
		if err := createDebugCallback(vr.context); err != nil {
			return err
		}
	}

	// Surface
	core.LogDebug("Creating Vulkan surface...")
	surface, err := target.CreateSurface(vr.context.Instance)
	if err != nil {
		return err
	}
	if surface == 0 {
		return core.NewError(core.ErrorKindSurface, "CreateSurface", fmt.Errorf("platform returned a null surface"))
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(vr.context); err != nil {
		return err
	}

	width, height := target.FramebufferSize()
	if width == 0 || height == 0 {
		width, height = vr.config.Width, vr.config.Height
	}
	vr.context.FramebufferWidth = width
	vr.context.FramebufferHeight = height

	sc, err := SwapchainCreate(vr.context, width, height, vr.config.VSync, nil)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc

	rp, err := RenderpassCreate(vr.context, sc.ImageFormat.Format, vr.context.Device.DepthFormat)
	if err != nil {
		return err
	}
	vr.context.Renderpass = rp
	return nil
}

func createInstance(context *VulkanContext, appName string, platformExtensions []string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Anima Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := append([]string{}, platformExtensions...)
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	layers := []string{}
	if context.Validation {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		core.LogInfo("Validation layers enabled. Enumerating...")
		available, err := instanceLayers()
		if err != nil {
			return err
		}
		if !containsName(available, validationLayerName) {
			return core.NewError(core.ErrorKindDeviceInit, "enable validation", fmt.Errorf("required validation layer is missing: %s", validationLayerName))
		}
		layers = append(layers, validationLayerName)
	}
	for _, ext := range requiredExtensions {
		core.LogDebug("Required extension: %s", trimName(ext))
	}

	requiredExtensions = VulkanSafeStrings(requiredExtensions)
	layers = VulkanSafeStrings(layers)
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = requiredExtensions
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = layers

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, context.Allocator, &instance); res != vk.Success {
		return resultError(core.ErrorKindDeviceInit, "vkCreateInstance", res)
	}
	context.Instance = instance
	if err := vk.InitInstance(instance); err != nil {
		return core.NewError(core.ErrorKindDeviceInit, "vk.InitInstance", err)
	}
	core.LogInfo("Vulkan Instance created.")
	return nil
}

func instanceLayers() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return nil, resultError(core.ErrorKindDeviceInit, "vkEnumerateInstanceLayerProperties", res)
	}
	properties := make([]vk.LayerProperties, count)
	if count != 0 {
		if res := vk.EnumerateInstanceLayerProperties(&count, properties); res != vk.Success {
			return nil, resultError(core.ErrorKindDeviceInit, "vkEnumerateInstanceLayerProperties", res)
		}
	}
	names := make([]string, 0, count)
	for i := range properties {
		properties[i].Deref()
		names = append(names, vk.ToString(properties[i].LayerName[:]))
	}
	return names, nil
}

// Shutdown destroys what Initialize created, in reverse order. Objects the
// renderer allocated must already be gone.
func (vr *VulkanRenderer) Shutdown() error {
	context := vr.context
	if context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(context.Device.LogicalDevice)

		destroyFramebuffers(context)
		context.DepthAttachment = nil
		if context.Renderpass != nil {
			context.Renderpass.Destroy(context)
			context.Renderpass = nil
		}
		if context.Swapchain != nil {
			context.Swapchain.Destroy(context)
			context.Swapchain = nil
		}
		DeviceDestroy(context)
	}
	if context.Surface != nil {
		vk.DestroySurface(context.Instance, context.Surface, context.Allocator)
		context.Surface = nil
	}
	if context.Instance != nil {
		destroyDebugCallback(context)
		vk.DestroyInstance(context.Instance, context.Allocator)
		context.Instance = nil
	}
	core.LogInfo("Vulkan renderer shut down.")
	return nil
}

func (vr *VulkanRenderer) Properties() metadata.DeviceProperties {
	var colorFormat vk.Format
	if vr.context.Swapchain != nil {
		colorFormat = vr.context.Swapchain.ImageFormat.Format
	}
	return vr.context.Device.DeviceProperties(colorFormat)
}

func (vr *VulkanRenderer) WaitIdle() error {
	res := vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)
	return resultError(core.ErrorKindDeviceLost, "vkDeviceWaitIdle", res)
}

func (vr *VulkanRenderer) SwapchainExtent() metadata.Extent2D {
	extent := vr.context.Swapchain.Extent
	return metadata.Extent2D{Width: extent.Width, Height: extent.Height}
}

func (vr *VulkanRenderer) AcquireNextImage(signal *metadata.Semaphore, timeout time.Duration) (uint32, bool, error) {
	return vr.context.Swapchain.AcquireNextImageIndex(vr.context, uint64(timeout.Nanoseconds()), semaphoreOf(signal))
}

func (vr *VulkanRenderer) Present(wait *metadata.Semaphore, imageIndex uint32) (bool, error) {
	return vr.context.Swapchain.Present(vr.context, semaphoreOf(wait), imageIndex)
}

// RecreateSwapchain replaces the swapchain for the new framebuffer size. The
// framebuffers are dropped and rebuilt once the renderer hands over a new
// depth image through SetDepthAttachment.
func (vr *VulkanRenderer) RecreateSwapchain(width, height uint32) error {
	context := vr.context
	if width == 0 || height == 0 {
		return core.NewError(core.ErrorKindSwapchain, "recreate swapchain", fmt.Errorf("zero framebuffer size"))
	}
	if res := vk.DeviceWaitIdle(context.Device.LogicalDevice); res != vk.Success {
		return resultError(core.ErrorKindDeviceLost, "vkDeviceWaitIdle", res)
	}

	destroyFramebuffers(context)
	context.DepthAttachment = nil

	var previousFormat vk.Format
	if context.Swapchain != nil {
		previousFormat = context.Swapchain.ImageFormat.Format
	}
	sc, err := SwapchainCreate(context, width, height, vr.config.VSync, context.Swapchain)
	if err != nil {
		context.Swapchain = nil
		return err
	}
	context.Swapchain = sc
	if previousFormat != 0 && sc.ImageFormat.Format != previousFormat {
		core.LogWarn("swapchain format changed from %d to %d, pipelines may be incompatible", previousFormat, sc.ImageFormat.Format)
	}
	context.FramebufferWidth = width
	context.FramebufferHeight = height
	return nil
}
