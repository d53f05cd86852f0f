package renderer

import (
	"errors"
	"time"
	"unsafe"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// FrameStats counts the state changes and draws recorded by the last frame.
type FrameStats struct {
	PipelineBinds int
	MeshBinds     int
	Draws         int
}

type FrameRendererConfig struct {
	Backend   RendererBackend
	Allocator *ResourceAllocator
	Registry  *Registry
	// Deletion receives everything that lives as long as the device.
	Deletion *core.DeletionQueue
	// SwapchainDeletion receives everything sized to the swapchain. It is
	// flushed on every recreation.
	SwapchainDeletion *core.DeletionQueue
	FramesInFlight    int
	FenceTimeout      time.Duration
	// FramebufferSize reports the current window framebuffer size.
	FramebufferSize func() (uint32, uint32)
}

// FrameRenderer records and submits one frame per Draw call, cycling through
// the frame ring.
type FrameRenderer struct {
	backend           RendererBackend
	allocator         *ResourceAllocator
	registry          *Registry
	swapchainDeletion *core.DeletionQueue
	framebufferSize   func() (uint32, uint32)
	timeout           time.Duration

	globalLayout *metadata.DescriptorSetLayout
	frames       *FrameRing
	sceneBuffer  *metadata.GpuBuffer
	sceneStride  uint64
	depthImage   *metadata.GpuImage

	swapchainDirty bool
	stats          FrameStats
}

func NewFrameRenderer(cfg FrameRendererConfig) (*FrameRenderer, error) {
	fr := &FrameRenderer{
		backend:           cfg.Backend,
		allocator:         cfg.Allocator,
		registry:          cfg.Registry,
		swapchainDeletion: cfg.SwapchainDeletion,
		framebufferSize:   cfg.FramebufferSize,
		timeout:           cfg.FenceTimeout,
	}
	b := cfg.Backend

	layout, err := b.CreateDescriptorSetLayout("global_layout", GlobalBindings())
	if err != nil {
		return nil, err
	}
	cfg.Deletion.Push(core.ResourceKindDescriptorSetLayout, layout.Label, func() { b.DestroyDescriptorSetLayout(layout) })
	fr.globalLayout = layout

	depth := uint32(cfg.FramesInFlight)
	pool, err := b.CreateDescriptorPool("global_pool", depth, []metadata.DescriptorPoolSize{
		{Type: metadata.DescriptorTypeUniformBuffer, Count: depth},
		{Type: metadata.DescriptorTypeUniformBufferDynamic, Count: depth},
	})
	if err != nil {
		return nil, err
	}
	cfg.Deletion.Push(core.ResourceKindDescriptorPool, pool.Label, func() { b.DestroyDescriptorPool(pool) })

	var scene metadata.SceneUniform
	fr.sceneStride = cfg.Allocator.PadUniformBufferSize(uint64(unsafe.Sizeof(scene)))
	if fr.sceneBuffer, err = cfg.Allocator.CreateBuffer("scene_uniforms", fr.sceneStride*uint64(depth),
		metadata.BufferUsageUniform, metadata.MemoryLocationCpuToGpu); err != nil {
		return nil, err
	}

	if fr.frames, err = NewFrameRing(b, cfg.Allocator, cfg.Deletion, cfg.FramesInFlight, layout, pool, fr.sceneBuffer); err != nil {
		return nil, err
	}
	if err := fr.createRenderTargets(); err != nil {
		return nil, err
	}
	return fr, nil
}

// GlobalLayout is the set 0 layout pipelines must be built with.
func (fr *FrameRenderer) GlobalLayout() *metadata.DescriptorSetLayout {
	return fr.globalLayout
}

func (fr *FrameRenderer) Frames() *FrameRing {
	return fr.frames
}

func (fr *FrameRenderer) LastStats() FrameStats {
	return fr.stats
}

// MarkSwapchainDirty requests a recreation before the next frame, after a
// window resize.
func (fr *FrameRenderer) MarkSwapchainDirty() {
	fr.swapchainDirty = true
}

// createRenderTargets creates the depth image matching the swapchain on the
// swapchain-scoped queue.
func (fr *FrameRenderer) createRenderTargets() error {
	extent := fr.backend.SwapchainExtent()
	props := fr.backend.Properties()
	img, err := fr.allocator.CreateImageOn(fr.swapchainDeletion, "depth_image", props.DepthFormat,
		metadata.ImageUsageDepthStencilAttachment, metadata.ImageAspectDepth,
		metadata.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1})
	if err != nil {
		return err
	}
	fr.depthImage = img
	return fr.backend.SetDepthAttachment(img)
}

// RecreateSwapchain rebuilds the swapchain and everything sized to it. A zero
// framebuffer leaves the swapchain dirty and does nothing.
func (fr *FrameRenderer) RecreateSwapchain() error {
	width, height := fr.framebufferSize()
	if width == 0 || height == 0 {
		fr.swapchainDirty = true
		return nil
	}
	if err := fr.backend.WaitIdle(); err != nil {
		return err
	}
	fr.swapchainDeletion.Flush()
	fr.depthImage = nil
	if err := fr.backend.RecreateSwapchain(width, height); err != nil {
		return err
	}
	if err := fr.createRenderTargets(); err != nil {
		return err
	}
	fr.swapchainDirty = false
	core.LogInfo("swapchain recreated at %dx%d", width, height)
	return nil
}

// Draw renders one frame of the registry's renderables. It returns
// core.ErrSwapchainBooting when the frame was dropped because the swapchain
// had to be recreated, and an error matching core.ErrDeviceLost when the GPU
// stopped responding.
func (fr *FrameRenderer) Draw(inputs *metadata.FrameInputs) error {
	fr.stats = FrameStats{}

	if width, height := fr.framebufferSize(); width == 0 || height == 0 {
		return nil
	}
	if fr.swapchainDirty {
		if err := fr.RecreateSwapchain(); err != nil {
			return err
		}
		return core.ErrSwapchainBooting
	}

	frame := fr.frames.Current()
	if err := fr.frames.Wait(frame, fr.timeout); err != nil {
		return err
	}
	if err := fr.backend.ResetFence(frame.RenderFence); err != nil {
		return err
	}

	imageIndex, _, err := fr.backend.AcquireNextImage(frame.ImageAvailable, fr.timeout)
	if err != nil {
		// Nothing will be submitted this frame; put the fence back so the
		// next wait on this slot returns.
		if serr := fr.backend.SignalFence(frame.RenderFence, nil); serr != nil {
			return serr
		}
		if errors.Is(err, core.ErrSwapchainBooting) {
			if rerr := fr.RecreateSwapchain(); rerr != nil {
				return rerr
			}
			return core.ErrSwapchainBooting
		}
		return err
	}

	if err := fr.record(frame, imageIndex, inputs); err != nil {
		return fr.abandon(frame, err)
	}
	if err := fr.backend.Submit(frame.CommandBuffer, frame.ImageAvailable, frame.RenderFinished, frame.RenderFence); err != nil {
		return fr.abandon(frame, err)
	}
	frame.State = metadata.FrameStateSubmitted

	recreate, err := fr.backend.Present(frame.RenderFinished, imageIndex)
	fr.frames.Advance()
	if err != nil {
		return err
	}
	if recreate {
		if err := fr.RecreateSwapchain(); err != nil {
			return err
		}
		return core.ErrSwapchainBooting
	}
	return nil
}

// record writes the frame's uniforms and records its command buffer.
func (fr *FrameRenderer) record(frame *metadata.FrameResources, imageIndex uint32, inputs *metadata.FrameInputs) error {
	if err := fr.writeUniforms(frame, inputs); err != nil {
		return err
	}
	if err := fr.frames.Begin(frame); err != nil {
		return err
	}
	cmd := frame.CommandBuffer
	fr.backend.CmdBeginRendering(cmd, imageIndex, inputs.Clear)
	fr.recordDraws(cmd, frame)
	fr.backend.CmdEndRendering(cmd, imageIndex)
	return fr.backend.EndCommandBuffer(cmd)
}

// abandon drops a frame whose image was acquired but never submitted. The
// slot goes back to Idle with its fence signaled and its image-available
// semaphore consumed. The acquired image is never presented, so the swapchain
// is rebuilt on the next Draw to hand it back.
func (fr *FrameRenderer) abandon(frame *metadata.FrameResources, cause error) error {
	frame.State = metadata.FrameStateIdle
	fr.swapchainDirty = true
	if err := fr.backend.SignalFence(frame.RenderFence, frame.ImageAvailable); err != nil {
		core.LogError("failed to restore %s after dropped frame: %s", frame.RenderFence.Label, err)
		return errors.Join(cause, err)
	}
	return cause
}

func (fr *FrameRenderer) writeUniforms(frame *metadata.FrameResources, inputs *metadata.FrameInputs) error {
	camera := metadata.CameraUniform{
		Projection:     inputs.Projection,
		View:           inputs.View,
		ViewProjection: inputs.View.Mul(inputs.Projection),
	}
	if err := fr.allocator.WriteBuffer(frame.CameraBuffer, 0, metadata.AsBytes(&camera)); err != nil {
		return err
	}
	scene := inputs.Scene
	return fr.allocator.WriteBuffer(fr.sceneBuffer, fr.sceneStride*uint64(frame.Index), metadata.AsBytes(&scene))
}

// recordDraws binds each pipeline and mesh once per run of equal values and
// issues one indexed draw per renderable.
func (fr *FrameRenderer) recordDraws(cmd *metadata.CommandBuffer, frame *metadata.FrameResources) {
	var lastPipeline *metadata.Pipeline
	var lastMesh *metadata.Mesh
	dynamicOffset := []uint32{uint32(fr.sceneStride * uint64(frame.Index))}

	for _, r := range fr.registry.Renderables() {
		if r.Pipeline != lastPipeline {
			fr.backend.CmdBindPipeline(cmd, r.Pipeline)
			fr.backend.CmdBindDescriptorSet(cmd, r.Pipeline, frame.GlobalDescriptor, dynamicOffset)
			lastPipeline = r.Pipeline
			fr.stats.PipelineBinds++
		}
		if r.Mesh != lastMesh {
			fr.backend.CmdBindVertexBuffer(cmd, r.Mesh.VertexBuffer)
			fr.backend.CmdBindIndexBuffer(cmd, r.Mesh.IndexBuffer)
			lastMesh = r.Mesh
			fr.stats.MeshBinds++
		}
		world := r.World
		fr.backend.CmdPushConstants(cmd, r.Pipeline, metadata.AsBytes(&world))
		fr.backend.CmdDrawIndexed(cmd, r.Mesh.IndexCount(), 1)
		fr.stats.Draws++
	}
}

// WaitIdle waits for every frame in flight and then for the device.
func (fr *FrameRenderer) WaitIdle() error {
	if err := fr.frames.WaitAll(fr.timeout); err != nil {
		core.LogWarn("frame fences did not all signal: %s", err)
	}
	return fr.backend.WaitIdle()
}
