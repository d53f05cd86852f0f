package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/google/uuid"

	"github.com/spaghettifunk/anima/engine/assets"
	"github.com/spaghettifunk/anima/engine/assets/loaders"
	"github.com/spaghettifunk/anima/engine/config"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/platform"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/components"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/renderer/vulkan"
	"github.com/spaghettifunk/anima/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is uploading the scene
	EngineStageLoading
	// Scene is resident and the engine can draw
	EngineStageLoaded
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

const (
	SimplePipelineName = "simple"
	worldPushConstant  = 64
	// seconds to block on events while minimized
	suspendedWait = 0.1
	loadWorkers   = 3
)

// Engine owns every subsystem. There is no package level state: two engines
// in the same process would not share anything but the logger.
type Engine struct {
	currentStage Stage
	sessionID    uuid.UUID
	config       *config.ApplicationConfig
	gameInstance *Game

	isRunning   bool
	isSuspended bool

	platform     *platform.Platform
	assetManager *assets.AssetManager
	jobSystem    *systems.JobSystem
	renderer     *renderer.Renderer
	camera       *components.Camera
	pipeline     *metadata.Pipeline

	clock       *core.Clock
	metrics     *core.Metrics
	lastTime    float64
	frameNumber uint64
	width       uint32
	height      uint32
}

// New builds an engine around cfg. g may be nil.
func New(cfg *config.ApplicationConfig, g *Game) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p, err := platform.New()
	if err != nil {
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		sessionID:    uuid.New(),
		config:       cfg,
		gameInstance: g,
		platform:     p,
		assetManager: assets.NewAssetManager(cfg.Assets.Root),
		renderer:     renderer.New(vulkan.New()),
		camera:       components.NewCamera(),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        cfg.Window.Width,
		height:       cfg.Window.Height,
	}, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) Camera() *components.Camera {
	return e.camera
}

// Initialize opens the window and brings up the renderer: instance, device,
// swapchain, descriptors, frame ring and upload context.
func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine already initialized")
	}
	e.currentStage = EngineStageInitializing
	core.LogInfo("starting session %s", e.sessionID)

	if err := e.assetManager.Initialize(e.config.Assets.Watch); err != nil {
		return err
	}
	js, err := systems.NewJobSystem(loadWorkers, loadWorkers)
	if err != nil {
		return err
	}
	e.jobSystem = js

	if err := e.platform.Startup(e.config.Window); err != nil {
		return err
	}
	e.loadIcon()

	e.width, e.height = e.platform.FramebufferSize()
	opts := renderer.Options{
		Backend: metadata.RendererBackendConfig{
			ApplicationName: e.config.Window.Title,
			Width:           e.width,
			Height:          e.height,
			VSync:           e.config.Window.VSync,
			Validation:      e.config.Renderer.Validation,
		},
		FramesInFlight: int(e.config.Renderer.FramesInFlight),
		FenceTimeout:   e.config.FenceTimeout(),
	}
	if err := e.renderer.Initialize(opts, e.platform); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) loadIcon() {
	if e.config.Window.Icon == "" {
		return
	}
	res, err := e.assetManager.LoadAsset(e.config.Window.Icon, &metadata.ImageResourceParams{Width: 256, Height: 256})
	if err != nil {
		core.LogWarn("failed to load window icon %s: %s", e.config.Window.Icon, err)
		return
	}
	defer e.assetManager.UnloadAsset(res)
	if icon, ok := res.Data.(*metadata.ImageResourceData); ok {
		e.platform.SetIcon(icon)
	}
}

// Load builds the pipeline, imports the scene and uploads its meshes.
func (e *Engine) Load() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before loading")
	}
	e.currentStage = EngineStageLoading

	// decode on the job system, touch the device only from this goroutine
	var vertex, fragment []uint32
	var scene *loaders.Scene
	err := e.jobSystem.RunAll([]string{"vertex_shader", "fragment_shader", "scene"},
		func() (err error) {
			vertex, err = e.loadShader(e.config.Assets.VertexShader)
			return err
		},
		func() (err error) {
			fragment, err = e.loadShader(e.config.Assets.FragmentShader)
			return err
		},
		func() (err error) {
			if e.config.Assets.Scene == "" {
				return nil
			}
			scene, err = e.loadScene(e.config.Assets.Scene)
			return err
		},
	)
	if err != nil {
		return err
	}

	props := e.renderer.Properties()
	e.pipeline, err = e.renderer.Pipelines.Build(SimplePipelineName, &metadata.PipelineDesc{
		VertexShader:         vertex,
		FragmentShader:       fragment,
		VertexLayout:         metadata.VertexLayoutPositionNormalUV(),
		DescriptorSetLayouts: []*metadata.DescriptorSetLayout{e.renderer.Frames.GlobalLayout()},
		PushConstantSize:     worldPushConstant,
		PushConstantStages:   metadata.ShaderStageVertex,
		CullMode:             metadata.FaceCullModeNone,
		PolygonMode:          metadata.PolygonModeFill,
		DepthTest:            true,
		DepthWrite:           true,
		ColorFormat:          props.ColorFormat,
		DepthFormat:          props.DepthFormat,
	})
	if err != nil {
		return err
	}

	if scene != nil {
		if err := e.uploadScene(scene); err != nil {
			return err
		}
	}

	if err := e.gameInstance.initialize(e.renderer, e.camera); err != nil {
		return err
	}
	e.currentStage = EngineStageLoaded
	return nil
}

func (e *Engine) loadShader(name string) ([]uint32, error) {
	res, err := e.assetManager.LoadAsset(name, nil)
	if err != nil {
		if core.KindOf(err) == core.ErrorKindUnknown {
			err = core.NewError(core.ErrorKindShaderLoad, name, err)
		}
		core.LogError("failed to load shader %s: %s", name, err)
		return nil, err
	}
	code, ok := res.Data.([]uint32)
	if !ok {
		return nil, core.NewError(core.ErrorKindShaderLoad, name, fmt.Errorf("%s is not a compiled shader", res.FullPath))
	}
	return code, nil
}

func (e *Engine) loadScene(name string) (*loaders.Scene, error) {
	res, err := e.assetManager.LoadAsset(name, nil)
	if err != nil {
		if core.KindOf(err) == core.ErrorKindUnknown {
			err = core.NewError(core.ErrorKindSceneImport, name, err)
		}
		core.LogError("failed to import scene %s: %s", name, err)
		return nil, err
	}
	scene, ok := res.Data.(*loaders.Scene)
	if !ok {
		return nil, core.NewError(core.ErrorKindSceneImport, name, fmt.Errorf("%s is not a scene", res.FullPath))
	}
	return scene, nil
}

// uploadScene copies every mesh to device memory and registers the model
// against the simple pipeline.
func (e *Engine) uploadScene(scene *loaders.Scene) error {
	for _, mesh := range scene.Meshes {
		if err := e.renderer.Upload.UploadMesh(mesh); err != nil {
			return err
		}
		if err := e.renderer.Registry.RegisterMesh(mesh); err != nil {
			return err
		}
	}
	if err := e.renderer.Registry.RegisterModel(scene.Model.Name, scene.Model.MeshNames); err != nil {
		return err
	}
	if err := e.renderer.Registry.AddModel(scene.Model.Name, e.pipeline); err != nil {
		return err
	}
	e.renderer.Registry.SortRenderables()
	core.LogInfo("scene %s loaded: %d renderables", scene.Model.Name, len(e.renderer.Registry.Renderables()))
	return nil
}

// Run polls events and draws until the window closes or ctx is cancelled.
// Only a lost device ends the loop with an error.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageLoaded {
		return fmt.Errorf("engine must be loaded before running")
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning {
		select {
		case <-ctx.Done():
			core.LogInfo("stop requested")
			e.isRunning = false
			continue
		default:
		}

		e.platform.PumpMessages()
		if e.platform.ShouldClose() {
			e.isRunning = false
			break
		}
		if e.platform.ConsumeResize() {
			if err := e.onResized(); err != nil {
				return err
			}
		}
		if e.isSuspended {
			e.platform.WaitMessages(suspendedWait)
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := e.platform.GetAbsoluteTime()

		if err := e.gameInstance.update(delta); err != nil {
			core.LogError("game update failed, shutting down: %s", err)
			return err
		}

		if err := e.Draw(delta); err != nil {
			if errors.Is(err, core.ErrDeviceLost) {
				core.LogError("device lost, shutting down: %s", err)
				e.isRunning = false
				return err
			}
			if !errors.Is(err, core.ErrSwapchainBooting) {
				core.LogError("frame %d dropped: %s", e.frameNumber, err)
			}
		}

		frameElapsedTime := e.platform.GetAbsoluteTime() - frameStartTime
		if e.metrics.Update(frameElapsedTime) {
			core.LogInfo("%.0f fps, %.3f ms/frame", e.metrics.FPS(), e.metrics.FrameTime())
		}
		e.lastTime = currentTime
	}
	return nil
}

// Draw submits one frame of the registered renderables.
func (e *Engine) Draw(deltaTime float64) error {
	inputs := e.frameInputs()
	if err := e.gameInstance.render(inputs, deltaTime); err != nil {
		return err
	}
	err := e.renderer.DrawFrame(inputs)
	e.frameNumber++
	return err
}

func (e *Engine) frameInputs() *metadata.FrameInputs {
	inputs := &metadata.FrameInputs{
		View: e.camera.GetView(),
		Clear: metadata.ClearValues{
			Color: ClearColor(e.frameNumber),
			Depth: 1.0,
		},
		Scene: DefaultSceneUniform(),
	}
	if e.width != 0 && e.height != 0 {
		inputs.Projection = e.camera.GetProjection(float32(e.width) / float32(e.height))
	} else {
		inputs.Projection = math.NewMat4Identity()
	}
	return inputs
}

// ClearColor pulses the blue channel with the frame number.
func ClearColor(frame uint64) [4]float32 {
	return [4]float32{0, 0, math32.Abs(math32.Sin(float32(frame) / 120.0)), 1}
}

func DefaultSceneUniform() metadata.SceneUniform {
	return metadata.SceneUniform{
		FogColor:          math.NewVec4(0.5, 0.5, 0.5, 1),
		FogDistances:      math.NewVec4(10, 100, 0, 0),
		AmbientColor:      math.NewVec4(0.1, 0.1, 0.1, 1),
		SunlightDirection: math.NewVec3(-0.5, -1, -0.3).Normalized().ToVec4(0),
		SunlightColor:     math.NewVec4(1, 1, 1, 1),
	}
}

// onResized suspends drawing while the framebuffer has no area and marks the
// swapchain dirty otherwise.
func (e *Engine) onResized() error {
	width, height := e.platform.FramebufferSize()
	if width == 0 || height == 0 {
		if !e.isSuspended {
			core.LogInfo("window minimized, suspending")
		}
		e.isSuspended = true
		return nil
	}
	if e.isSuspended {
		core.LogInfo("window restored, resuming")
		e.isSuspended = false
	}
	e.width, e.height = width, height
	e.renderer.OnResize()
	return e.gameInstance.onResize(width, height)
}

// Shutdown releases everything in reverse order. It is safe after a failed
// Initialize or Load and may be called more than once.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	var errs []error
	if err := e.gameInstance.shutdown(); err != nil {
		errs = append(errs, err)
	}
	if e.jobSystem != nil {
		if err := e.jobSystem.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.renderer.Shutdown(); err != nil {
		core.LogError("failed to shutdown renderer: %s", err)
		errs = append(errs, err)
	}
	if err := e.assetManager.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	if err := e.platform.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	core.LogInfo("session %s ended", e.sessionID)
	return errors.Join(errs...)
}
