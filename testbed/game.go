package testbed

import (
	"github.com/spaghettifunk/anima/engine"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/components"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// radians per second
const sunSpeed = 0.25

type TestGame struct {
	*engine.Game
}

type gameState struct {
	WorldCamera *components.Camera

	elapsed  float64
	sunAngle float32
	width    uint32
	height   uint32
}

// NewTestGame returns a game that sweeps the sun around the scene.
func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			State: &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(r *renderer.Renderer, camera *components.Camera) error {
	state := g.state()
	state.WorldCamera = camera

	props := r.Properties()
	core.LogDebug("testbed ready on %s with %d renderables", props.Name, len(r.Registry.Renderables()))
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()
	state.elapsed += deltaTime
	state.sunAngle = float32(state.elapsed * sunSpeed)
	return nil
}

func (g *TestGame) Render(inputs *metadata.FrameInputs, deltaTime float64) error {
	inputs.Scene.SunlightDirection = SunDirection(g.state().sunAngle)
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.width = width
	state.height = height
	core.LogDebug("testbed resized to %dx%d", width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("testbed shutting down after %.1fs", g.state().elapsed)
	return nil
}

// SunDirection tilts the sun downwards and turns it about the up axis by
// angle radians.
func SunDirection(angle float32) math.Vec4 {
	base := math.NewVec3(-0.5, -1, -0.3).Normalized()
	rotation := math.NewQuatFromAxisAngle(math.NewVec3Up(), angle).ToMat4()
	return base.Transform(rotation).Normalized().ToVec4(0)
}
