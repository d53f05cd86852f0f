package renderer

import (
	"time"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type RendererType uint8

const (
	Vulkan RendererType = iota
)

type Options struct {
	Backend        metadata.RendererBackendConfig
	FramesInFlight int
	FenceTimeout   time.Duration
}

// Renderer ties a backend to the allocator, upload context, pipeline cache,
// registry and frame renderer built on top of it.
type Renderer struct {
	backend           RendererBackend
	deletion          *core.DeletionQueue
	swapchainDeletion *core.DeletionQueue
	initialized       bool

	Allocator *ResourceAllocator
	Upload    *UploadContext
	Pipelines *PipelineCache
	Registry  *Registry
	Frames    *FrameRenderer
}

func New(backend RendererBackend) *Renderer {
	return &Renderer{
		backend:           backend,
		deletion:          core.NewDeletionQueue("main"),
		swapchainDeletion: core.NewDeletionQueue("swapchain"),
	}
}

func (r *Renderer) Initialize(opts Options, target PresentTarget) error {
	cfg := opts.Backend
	if err := r.backend.Initialize(&cfg, target); err != nil {
		return err
	}
	r.initialized = true

	r.Allocator = NewResourceAllocator(r.backend, r.deletion)
	r.Pipelines = NewPipelineCache(r.backend, r.deletion)
	r.Registry = NewRegistry()

	var err error
	if r.Upload, err = NewUploadContext(r.backend, r.Allocator, r.deletion, opts.FenceTimeout); err != nil {
		return err
	}
	if r.Frames, err = NewFrameRenderer(FrameRendererConfig{
		Backend:           r.backend,
		Allocator:         r.Allocator,
		Registry:          r.Registry,
		Deletion:          r.deletion,
		SwapchainDeletion: r.swapchainDeletion,
		FramesInFlight:    opts.FramesInFlight,
		FenceTimeout:      opts.FenceTimeout,
		FramebufferSize:   target.FramebufferSize,
	}); err != nil {
		return err
	}
	props := r.backend.Properties()
	core.LogInfo("renderer initialized on %s (%d frames in flight)", props.Name, opts.FramesInFlight)
	return nil
}

// Shutdown waits for the GPU and releases everything in reverse creation
// order: swapchain-sized resources, then device resources, then the backend.
// It is safe after a partial Initialize.
func (r *Renderer) Shutdown() error {
	if !r.initialized {
		return nil
	}
	if r.Frames != nil {
		if err := r.Frames.WaitIdle(); err != nil {
			core.LogError("failed to wait for device idle: %s", err)
		}
	} else if err := r.backend.WaitIdle(); err != nil {
		core.LogError("failed to wait for device idle: %s", err)
	}
	r.swapchainDeletion.Flush()
	r.deletion.Flush()
	r.initialized = false
	return r.backend.Shutdown()
}

func (r *Renderer) DrawFrame(inputs *metadata.FrameInputs) error {
	return r.Frames.Draw(inputs)
}

func (r *Renderer) OnResize() {
	if r.Frames != nil {
		r.Frames.MarkSwapchainDirty()
	}
}

func (r *Renderer) Properties() metadata.DeviceProperties {
	return r.backend.Properties()
}
