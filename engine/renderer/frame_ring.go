package renderer

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/spaghettifunk/anima/engine/containers"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// FrameRing holds the resources of every frame in flight. The slot for frame
// n is n % depth; a slot is reused only after its fence has been waited on.
type FrameRing struct {
	backend RendererBackend
	ring    *containers.Ring[*metadata.FrameResources]
}

// GlobalBindings is the layout of descriptor set 0 shared by every pipeline.
func GlobalBindings() []metadata.DescriptorBinding {
	return []metadata.DescriptorBinding{
		{Binding: 0, Type: metadata.DescriptorTypeUniformBuffer, Stages: metadata.ShaderStageVertex},
		{Binding: 1, Type: metadata.DescriptorTypeUniformBufferDynamic, Stages: metadata.ShaderStageVertex | metadata.ShaderStageFragment},
	}
}

// NewFrameRing creates depth slots. Each slot gets its own command pool and
// buffer, semaphores, a signaled fence, a camera buffer and a set 0
// descriptor pointing at that camera buffer and the shared scene buffer.
func NewFrameRing(backend RendererBackend, allocator *ResourceAllocator, deletion *core.DeletionQueue, depth int,
	globalLayout *metadata.DescriptorSetLayout, pool *metadata.DescriptorPool, sceneBuffer *metadata.GpuBuffer) (*FrameRing, error) {
	if depth < 2 || depth > 3 {
		return nil, fmt.Errorf("frames in flight must be 2 or 3, got %d", depth)
	}

	ring, err := containers.NewRing(depth, func(i int) (*metadata.FrameResources, error) {
		frame := &metadata.FrameResources{Index: i, State: metadata.FrameStateIdle}

		cmdPool, err := backend.CreateCommandPool(fmt.Sprintf("frame%d_command_pool", i))
		if err != nil {
			return nil, err
		}
		deletion.Push(core.ResourceKindCommandPool, cmdPool.Label, func() { backend.DestroyCommandPool(cmdPool) })
		frame.CommandPool = cmdPool

		if frame.CommandBuffer, err = backend.AllocateCommandBuffer(cmdPool, fmt.Sprintf("frame%d_command_buffer", i)); err != nil {
			return nil, err
		}

		imageAvailable, err := backend.CreateSemaphore(fmt.Sprintf("frame%d_image_available", i))
		if err != nil {
			return nil, err
		}
		deletion.Push(core.ResourceKindSemaphore, imageAvailable.Label, func() { backend.DestroySemaphore(imageAvailable) })
		frame.ImageAvailable = imageAvailable

		renderFinished, err := backend.CreateSemaphore(fmt.Sprintf("frame%d_render_finished", i))
		if err != nil {
			return nil, err
		}
		deletion.Push(core.ResourceKindSemaphore, renderFinished.Label, func() { backend.DestroySemaphore(renderFinished) })
		frame.RenderFinished = renderFinished

		// Signaled so the first wait on this slot returns immediately.
		fence, err := backend.CreateFence(fmt.Sprintf("frame%d_render_fence", i), true)
		if err != nil {
			return nil, err
		}
		deletion.Push(core.ResourceKindFence, fence.Label, func() { backend.DestroyFence(fence) })
		frame.RenderFence = fence

		var camera metadata.CameraUniform
		cameraSize := uint64(unsafe.Sizeof(camera))
		if frame.CameraBuffer, err = allocator.CreateBuffer(fmt.Sprintf("frame%d_camera", i), cameraSize,
			metadata.BufferUsageUniform, metadata.MemoryLocationCpuToGpu); err != nil {
			return nil, err
		}

		if frame.GlobalDescriptor, err = backend.AllocateDescriptorSet(pool, globalLayout, fmt.Sprintf("frame%d_global", i)); err != nil {
			return nil, err
		}
		var scene metadata.SceneUniform
		backend.WriteDescriptorBuffer(frame.GlobalDescriptor, 0, metadata.DescriptorTypeUniformBuffer, frame.CameraBuffer, 0, cameraSize)
		backend.WriteDescriptorBuffer(frame.GlobalDescriptor, 1, metadata.DescriptorTypeUniformBufferDynamic, sceneBuffer, 0, uint64(unsafe.Sizeof(scene)))
		return frame, nil
	})
	if err != nil {
		return nil, err
	}
	core.LogDebug("frame ring created with %d slots", depth)
	return &FrameRing{backend: backend, ring: ring}, nil
}

func (fr *FrameRing) Current() *metadata.FrameResources {
	return fr.ring.Current()
}

func (fr *FrameRing) Advance() {
	fr.ring.Advance()
}

// FrameNumber is the number of frames started so far.
func (fr *FrameRing) FrameNumber() uint64 {
	return fr.ring.Counter()
}

func (fr *FrameRing) Depth() int {
	return fr.ring.Depth()
}

// Wait blocks until the GPU is done with frame and marks it idle.
func (fr *FrameRing) Wait(frame *metadata.FrameResources, timeout time.Duration) error {
	if err := fr.backend.WaitForFence(frame.RenderFence, timeout); err != nil {
		return err
	}
	frame.State = metadata.FrameStateIdle
	return nil
}

// Begin resets the command buffer of an idle frame and starts recording.
func (fr *FrameRing) Begin(frame *metadata.FrameResources) error {
	if frame.State == metadata.FrameStateSubmitted {
		return fmt.Errorf("frame slot %d reset before its fence was waited on", frame.Index)
	}
	if err := fr.backend.ResetCommandBuffer(frame.CommandBuffer); err != nil {
		return err
	}
	if err := fr.backend.BeginCommandBuffer(frame.CommandBuffer, true); err != nil {
		return err
	}
	frame.State = metadata.FrameStateRecording
	return nil
}

// WaitAll waits on every slot, for shutdown and swapchain recreation.
func (fr *FrameRing) WaitAll(timeout time.Duration) error {
	var firstErr error
	fr.ring.Each(func(_ int, frame *metadata.FrameResources) {
		if err := fr.Wait(frame, timeout); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	return firstErr
}
