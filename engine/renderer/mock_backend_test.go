package renderer

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unsafe"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type mockFence struct {
	signaled bool
}

// mockBackend records every call in order. The GPU is modelled as finishing
// work the moment it is submitted.
type mockBackend struct {
	calls []string
	props metadata.DeviceProperties

	extent          metadata.Extent2D
	live            map[string]core.ResourceKind
	fail            map[string]error
	acquireErrs     []error
	presentRecreate []bool
	imageIndex      uint32
	// pending holds semaphores signaled by an acquire and not yet waited on.
	pending map[string]bool
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		props: metadata.DeviceProperties{
			Name:                            "mock",
			MinUniformBufferOffsetAlignment: 256,
			MaxPushConstantsSize:            128,
			DepthFormat:                     metadata.ImageFormatD32Sfloat,
		},
		extent:  metadata.Extent2D{Width: 800, Height: 600},
		live:    make(map[string]core.ResourceKind),
		fail:    make(map[string]error),
		pending: make(map[string]bool),
	}
}

func (m *mockBackend) record(format string, args ...interface{}) {
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *mockBackend) failure(method string) error {
	return m.fail[method]
}

func (m *mockBackend) create(kind core.ResourceKind, label string) {
	m.live[label] = kind
}

func (m *mockBackend) destroy(label string) {
	delete(m.live, label)
}

func (m *mockBackend) reset() {
	m.calls = nil
}

// callsWithPrefix returns the recorded calls starting with prefix.
func (m *mockBackend) callsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// indexOf returns the position of the first call equal to call, or -1.
func (m *mockBackend) indexOf(call string) int {
	for i, c := range m.calls {
		if c == call {
			return i
		}
	}
	return -1
}

func (m *mockBackend) Initialize(config *metadata.RendererBackendConfig, target PresentTarget) error {
	m.record("Initialize %s", config.ApplicationName)
	return m.failure("Initialize")
}

func (m *mockBackend) Shutdown() error {
	m.record("Shutdown")
	return nil
}

func (m *mockBackend) Properties() metadata.DeviceProperties {
	return m.props
}

func (m *mockBackend) WaitIdle() error {
	m.record("WaitIdle")
	return m.failure("WaitIdle")
}

func (m *mockBackend) CreateBuffer(label string, size uint64, usage metadata.BufferUsage, location metadata.MemoryLocation) (*metadata.GpuBuffer, error) {
	m.record("CreateBuffer %s", label)
	if err := m.failure("CreateBuffer"); err != nil {
		return nil, err
	}
	m.create(core.ResourceKindBuffer, label)
	return &metadata.GpuBuffer{Label: label, Size: size, Usage: usage, Location: location, InternalData: make([]byte, size)}, nil
}

func (m *mockBackend) DestroyBuffer(buffer *metadata.GpuBuffer) {
	m.record("DestroyBuffer %s", buffer.Label)
	m.destroy(buffer.Label)
}

func (m *mockBackend) MapBuffer(buffer *metadata.GpuBuffer) ([]byte, error) {
	m.record("MapBuffer %s", buffer.Label)
	if err := m.failure("MapBuffer"); err != nil {
		return nil, err
	}
	return buffer.InternalData.([]byte), nil
}

func (m *mockBackend) UnmapBuffer(buffer *metadata.GpuBuffer) {
	m.record("UnmapBuffer %s", buffer.Label)
}

func (m *mockBackend) CreateImage(label string, format metadata.ImageFormat, usage metadata.ImageUsage, extent metadata.Extent3D) (*metadata.GpuImage, error) {
	m.record("CreateImage %s %dx%d", label, extent.Width, extent.Height)
	if err := m.failure("CreateImage"); err != nil {
		return nil, err
	}
	m.create(core.ResourceKindImage, label)
	return &metadata.GpuImage{Label: label, Format: format, Usage: usage, Extent: extent}, nil
}

func (m *mockBackend) CreateImageView(image *metadata.GpuImage, aspect metadata.ImageAspect) error {
	m.record("CreateImageView %s", image.Label)
	if err := m.failure("CreateImageView"); err != nil {
		return err
	}
	image.HasView = true
	return nil
}

func (m *mockBackend) DestroyImage(image *metadata.GpuImage) {
	m.record("DestroyImage %s", image.Label)
	m.destroy(image.Label)
}

func (m *mockBackend) CreateCommandPool(label string) (*metadata.CommandPool, error) {
	m.record("CreateCommandPool %s", label)
	m.create(core.ResourceKindCommandPool, label)
	return &metadata.CommandPool{Label: label}, nil
}

func (m *mockBackend) DestroyCommandPool(pool *metadata.CommandPool) {
	m.record("DestroyCommandPool %s", pool.Label)
	m.destroy(pool.Label)
}

func (m *mockBackend) ResetCommandPool(pool *metadata.CommandPool) error {
	m.record("ResetCommandPool %s", pool.Label)
	return nil
}

func (m *mockBackend) AllocateCommandBuffer(pool *metadata.CommandPool, label string) (*metadata.CommandBuffer, error) {
	m.record("AllocateCommandBuffer %s", label)
	return &metadata.CommandBuffer{Label: label}, nil
}

func (m *mockBackend) CreateFence(label string, signaled bool) (*metadata.Fence, error) {
	m.record("CreateFence %s", label)
	m.create(core.ResourceKindFence, label)
	return &metadata.Fence{Label: label, InternalData: &mockFence{signaled: signaled}}, nil
}

func (m *mockBackend) DestroyFence(fence *metadata.Fence) {
	m.record("DestroyFence %s", fence.Label)
	m.destroy(fence.Label)
}

func (m *mockBackend) WaitForFence(fence *metadata.Fence, timeout time.Duration) error {
	m.record("WaitForFence %s", fence.Label)
	if err := m.failure("WaitForFence"); err != nil {
		return err
	}
	if !fence.InternalData.(*mockFence).signaled {
		return core.NewResultError(core.ErrorKindDeviceLost, "wait for fence "+fence.Label, "VK_TIMEOUT")
	}
	return nil
}

func (m *mockBackend) ResetFence(fence *metadata.Fence) error {
	m.record("ResetFence %s", fence.Label)
	fence.InternalData.(*mockFence).signaled = false
	return nil
}

func (m *mockBackend) CreateSemaphore(label string) (*metadata.Semaphore, error) {
	m.record("CreateSemaphore %s", label)
	m.create(core.ResourceKindSemaphore, label)
	return &metadata.Semaphore{Label: label}, nil
}

func (m *mockBackend) DestroySemaphore(semaphore *metadata.Semaphore) {
	m.record("DestroySemaphore %s", semaphore.Label)
	m.destroy(semaphore.Label)
}

func (m *mockBackend) CreateDescriptorSetLayout(label string, bindings []metadata.DescriptorBinding) (*metadata.DescriptorSetLayout, error) {
	m.record("CreateDescriptorSetLayout %s", label)
	m.create(core.ResourceKindDescriptorSetLayout, label)
	return &metadata.DescriptorSetLayout{Label: label, Bindings: bindings}, nil
}

func (m *mockBackend) DestroyDescriptorSetLayout(layout *metadata.DescriptorSetLayout) {
	m.record("DestroyDescriptorSetLayout %s", layout.Label)
	m.destroy(layout.Label)
}

func (m *mockBackend) CreateDescriptorPool(label string, maxSets uint32, sizes []metadata.DescriptorPoolSize) (*metadata.DescriptorPool, error) {
	m.record("CreateDescriptorPool %s", label)
	m.create(core.ResourceKindDescriptorPool, label)
	return &metadata.DescriptorPool{Label: label}, nil
}

func (m *mockBackend) DestroyDescriptorPool(pool *metadata.DescriptorPool) {
	m.record("DestroyDescriptorPool %s", pool.Label)
	m.destroy(pool.Label)
}

func (m *mockBackend) AllocateDescriptorSet(pool *metadata.DescriptorPool, layout *metadata.DescriptorSetLayout, label string) (*metadata.DescriptorSet, error) {
	m.record("AllocateDescriptorSet %s", label)
	return &metadata.DescriptorSet{Label: label, Layout: layout}, nil
}

func (m *mockBackend) WriteDescriptorBuffer(set *metadata.DescriptorSet, binding uint32, kind metadata.DescriptorType, buffer *metadata.GpuBuffer, offset, size uint64) {
	m.record("WriteDescriptorBuffer %s %d %s", set.Label, binding, buffer.Label)
}

func (m *mockBackend) CreateShaderModule(label string, stage metadata.ShaderStage, code []uint32) (*metadata.ShaderModule, error) {
	m.record("CreateShaderModule %s", label)
	if err := m.failure("CreateShaderModule"); err != nil {
		return nil, err
	}
	m.create(core.ResourceKindShaderModule, label)
	return &metadata.ShaderModule{Label: label, Stage: stage}, nil
}

func (m *mockBackend) DestroyShaderModule(module *metadata.ShaderModule) {
	m.record("DestroyShaderModule %s", module.Label)
	m.destroy(module.Label)
}

func (m *mockBackend) CreateGraphicsPipeline(label string, desc *metadata.PipelineDesc, vertex, fragment *metadata.ShaderModule) (*metadata.Pipeline, error) {
	m.record("CreateGraphicsPipeline %s", label)
	if err := m.failure("CreateGraphicsPipeline"); err != nil {
		return nil, err
	}
	m.create(core.ResourceKindPipeline, label)
	return &metadata.Pipeline{Name: label}, nil
}

func (m *mockBackend) DestroyPipeline(pipeline *metadata.Pipeline) {
	m.record("DestroyPipeline %s", pipeline.Name)
	m.destroy(pipeline.Name)
}

func (m *mockBackend) BeginCommandBuffer(cmd *metadata.CommandBuffer, oneTime bool) error {
	m.record("BeginCommandBuffer %s", cmd.Label)
	return m.failure("BeginCommandBuffer")
}

func (m *mockBackend) EndCommandBuffer(cmd *metadata.CommandBuffer) error {
	m.record("EndCommandBuffer %s", cmd.Label)
	return m.failure("EndCommandBuffer")
}

func (m *mockBackend) ResetCommandBuffer(cmd *metadata.CommandBuffer) error {
	m.record("ResetCommandBuffer %s", cmd.Label)
	return m.failure("ResetCommandBuffer")
}

func (m *mockBackend) CmdCopyBuffer(cmd *metadata.CommandBuffer, src, dst *metadata.GpuBuffer, size uint64) {
	m.record("CmdCopyBuffer %s %s", src.Label, dst.Label)
	copy(dst.InternalData.([]byte), src.InternalData.([]byte)[:size])
}

func (m *mockBackend) CmdBeginRendering(cmd *metadata.CommandBuffer, imageIndex uint32, clear metadata.ClearValues) {
	m.record("CmdBeginRendering %d", imageIndex)
}

func (m *mockBackend) CmdEndRendering(cmd *metadata.CommandBuffer, imageIndex uint32) {
	m.record("CmdEndRendering %d", imageIndex)
}

func (m *mockBackend) CmdBindPipeline(cmd *metadata.CommandBuffer, pipeline *metadata.Pipeline) {
	m.record("CmdBindPipeline %s", pipeline.Name)
}

func (m *mockBackend) CmdBindDescriptorSet(cmd *metadata.CommandBuffer, pipeline *metadata.Pipeline, set *metadata.DescriptorSet, dynamicOffsets []uint32) {
	m.record("CmdBindDescriptorSet %s %v", set.Label, dynamicOffsets)
}

func (m *mockBackend) CmdBindVertexBuffer(cmd *metadata.CommandBuffer, buffer *metadata.GpuBuffer) {
	m.record("CmdBindVertexBuffer %s", buffer.Label)
}

func (m *mockBackend) CmdBindIndexBuffer(cmd *metadata.CommandBuffer, buffer *metadata.GpuBuffer) {
	m.record("CmdBindIndexBuffer %s", buffer.Label)
}

func (m *mockBackend) CmdPushConstants(cmd *metadata.CommandBuffer, pipeline *metadata.Pipeline, data []byte) {
	m.record("CmdPushConstants %d", len(data))
}

func (m *mockBackend) CmdDrawIndexed(cmd *metadata.CommandBuffer, indexCount, instanceCount uint32) {
	m.record("CmdDrawIndexed %d %d", indexCount, instanceCount)
}

func (m *mockBackend) SwapchainExtent() metadata.Extent2D {
	return m.extent
}

func (m *mockBackend) AcquireNextImage(signal *metadata.Semaphore, timeout time.Duration) (uint32, bool, error) {
	m.record("AcquireNextImage")
	if len(m.acquireErrs) > 0 {
		err := m.acquireErrs[0]
		m.acquireErrs = m.acquireErrs[1:]
		if err != nil {
			return 0, false, err
		}
	}
	if m.pending[signal.Label] {
		return 0, false, core.NewResultError(core.ErrorKindFrameAcquire, "acquire "+signal.Label, "semaphore has a pending signal")
	}
	m.pending[signal.Label] = true
	idx := m.imageIndex
	m.imageIndex = (m.imageIndex + 1) % 3
	return idx, false, nil
}

func (m *mockBackend) Submit(cmd *metadata.CommandBuffer, wait, signal *metadata.Semaphore, fence *metadata.Fence) error {
	m.record("Submit %s", cmd.Label)
	if err := m.failure("Submit"); err != nil {
		return err
	}
	if wait != nil {
		delete(m.pending, wait.Label)
	}
	if fence != nil {
		fence.InternalData.(*mockFence).signaled = true
	}
	return nil
}

func (m *mockBackend) SignalFence(fence *metadata.Fence, wait *metadata.Semaphore) error {
	if wait != nil {
		m.record("SignalFence %s waiting %s", fence.Label, wait.Label)
		delete(m.pending, wait.Label)
	} else {
		m.record("SignalFence %s", fence.Label)
	}
	fence.InternalData.(*mockFence).signaled = true
	return nil
}

func (m *mockBackend) Present(wait *metadata.Semaphore, imageIndex uint32) (bool, error) {
	m.record("Present %d", imageIndex)
	if len(m.presentRecreate) > 0 {
		recreate := m.presentRecreate[0]
		m.presentRecreate = m.presentRecreate[1:]
		return recreate, nil
	}
	return false, nil
}

func (m *mockBackend) RecreateSwapchain(width, height uint32) error {
	m.record("RecreateSwapchain %dx%d", width, height)
	m.extent = metadata.Extent2D{Width: width, Height: height}
	return nil
}

func (m *mockBackend) SetDepthAttachment(image *metadata.GpuImage) error {
	m.record("SetDepthAttachment %s", image.Label)
	return nil
}

// mockTarget is a window of a settable size.
type mockTarget struct {
	width, height uint32
}

func (t *mockTarget) CreateSurface(instance interface{}) (uintptr, error) { return 1, nil }
func (t *mockTarget) RequiredExtensions() []string { return nil }
func (t *mockTarget) InstanceProcAddr() unsafe.Pointer { return nil }
func (t *mockTarget) FramebufferSize() (uint32, uint32) { return t.width, t.height }

var errInjected = errors.New("injected failure")
