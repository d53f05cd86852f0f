package renderer

import (
	"time"
	"unsafe"

	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// PresentTarget is the window side of presentation: it creates the surface
// and reports the framebuffer size.
type PresentTarget interface {
	// CreateSurface returns the native surface handle for the given instance.
	CreateSurface(instance interface{}) (uintptr, error)
	RequiredExtensions() []string
	InstanceProcAddr() unsafe.Pointer
	FramebufferSize() (uint32, uint32)
}

// Device creates and destroys GPU objects.
type Device interface {
	Properties() metadata.DeviceProperties
	WaitIdle() error

	CreateBuffer(label string, size uint64, usage metadata.BufferUsage, location metadata.MemoryLocation) (*metadata.GpuBuffer, error)
	DestroyBuffer(buffer *metadata.GpuBuffer)
	// MapBuffer returns the whole buffer as a byte slice valid until UnmapBuffer.
	MapBuffer(buffer *metadata.GpuBuffer) ([]byte, error)
	UnmapBuffer(buffer *metadata.GpuBuffer)

	CreateImage(label string, format metadata.ImageFormat, usage metadata.ImageUsage, extent metadata.Extent3D) (*metadata.GpuImage, error)
	CreateImageView(image *metadata.GpuImage, aspect metadata.ImageAspect) error
	DestroyImage(image *metadata.GpuImage)

	CreateCommandPool(label string) (*metadata.CommandPool, error)
	DestroyCommandPool(pool *metadata.CommandPool)
	ResetCommandPool(pool *metadata.CommandPool) error
	AllocateCommandBuffer(pool *metadata.CommandPool, label string) (*metadata.CommandBuffer, error)

	CreateFence(label string, signaled bool) (*metadata.Fence, error)
	DestroyFence(fence *metadata.Fence)
	// WaitForFence returns a core.ErrDeviceLost error when the timeout expires.
	WaitForFence(fence *metadata.Fence, timeout time.Duration) error
	ResetFence(fence *metadata.Fence) error

	CreateSemaphore(label string) (*metadata.Semaphore, error)
	DestroySemaphore(semaphore *metadata.Semaphore)

	CreateDescriptorSetLayout(label string, bindings []metadata.DescriptorBinding) (*metadata.DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(layout *metadata.DescriptorSetLayout)
	CreateDescriptorPool(label string, maxSets uint32, sizes []metadata.DescriptorPoolSize) (*metadata.DescriptorPool, error)
	DestroyDescriptorPool(pool *metadata.DescriptorPool)
	AllocateDescriptorSet(pool *metadata.DescriptorPool, layout *metadata.DescriptorSetLayout, label string) (*metadata.DescriptorSet, error)
	WriteDescriptorBuffer(set *metadata.DescriptorSet, binding uint32, kind metadata.DescriptorType, buffer *metadata.GpuBuffer, offset, size uint64)

	CreateShaderModule(label string, stage metadata.ShaderStage, code []uint32) (*metadata.ShaderModule, error)
	DestroyShaderModule(module *metadata.ShaderModule)
	CreateGraphicsPipeline(label string, desc *metadata.PipelineDesc, vertex, fragment *metadata.ShaderModule) (*metadata.Pipeline, error)
	DestroyPipeline(pipeline *metadata.Pipeline)
}

// Recorder records commands into a command buffer.
type Recorder interface {
	BeginCommandBuffer(cmd *metadata.CommandBuffer, oneTime bool) error
	EndCommandBuffer(cmd *metadata.CommandBuffer) error
	ResetCommandBuffer(cmd *metadata.CommandBuffer) error

	CmdCopyBuffer(cmd *metadata.CommandBuffer, src, dst *metadata.GpuBuffer, size uint64)
	// CmdBeginRendering transitions the swapchain image to a color attachment,
	// clears it and the depth attachment and starts rendering into both.
	CmdBeginRendering(cmd *metadata.CommandBuffer, imageIndex uint32, clear metadata.ClearValues)
	// CmdEndRendering ends rendering and transitions the image for presentation.
	CmdEndRendering(cmd *metadata.CommandBuffer, imageIndex uint32)
	CmdBindPipeline(cmd *metadata.CommandBuffer, pipeline *metadata.Pipeline)
	CmdBindDescriptorSet(cmd *metadata.CommandBuffer, pipeline *metadata.Pipeline, set *metadata.DescriptorSet, dynamicOffsets []uint32)
	CmdBindVertexBuffer(cmd *metadata.CommandBuffer, buffer *metadata.GpuBuffer)
	CmdBindIndexBuffer(cmd *metadata.CommandBuffer, buffer *metadata.GpuBuffer)
	CmdPushConstants(cmd *metadata.CommandBuffer, pipeline *metadata.Pipeline, data []byte)
	CmdDrawIndexed(cmd *metadata.CommandBuffer, indexCount, instanceCount uint32)
}

// Presenter owns the swapchain and the graphics queue.
type Presenter interface {
	SwapchainExtent() metadata.Extent2D
	// AcquireNextImage returns ErrSwapchainBooting (wrapped or not) when the
	// swapchain is out of date. A suboptimal image is returned without error.
	AcquireNextImage(signal *metadata.Semaphore, timeout time.Duration) (uint32, bool, error)
	Submit(cmd *metadata.CommandBuffer, wait, signal *metadata.Semaphore, fence *metadata.Fence) error
	// SignalFence submits no work and signals fence. A non-nil wait is
	// consumed by the empty batch.
	SignalFence(fence *metadata.Fence, wait *metadata.Semaphore) error
	// Present returns true when the swapchain should be recreated.
	Present(wait *metadata.Semaphore, imageIndex uint32) (bool, error)
	RecreateSwapchain(width, height uint32) error
	SetDepthAttachment(image *metadata.GpuImage) error
}

type RendererBackend interface {
	Device
	Recorder
	Presenter

	Initialize(config *metadata.RendererBackendConfig, target PresentTarget) error
	Shutdown() error
}
