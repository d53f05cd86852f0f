package engine

import (
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/components"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// Game holds the callbacks the engine invokes around its own lifecycle. Any
// of them may be nil.
type Game struct {
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

// Initialize runs once the renderer and the scene are ready.
type Initialize func(r *renderer.Renderer, camera *components.Camera) error
type Update func(deltaTime float64) error

// Render may adjust the frame inputs before they are submitted.
type Render func(inputs *metadata.FrameInputs, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error

func (g *Game) initialize(r *renderer.Renderer, camera *components.Camera) error {
	if g == nil || g.FnInitialize == nil {
		return nil
	}
	return g.FnInitialize(r, camera)
}

func (g *Game) update(deltaTime float64) error {
	if g == nil || g.FnUpdate == nil {
		return nil
	}
	return g.FnUpdate(deltaTime)
}

func (g *Game) render(inputs *metadata.FrameInputs, deltaTime float64) error {
	if g == nil || g.FnRender == nil {
		return nil
	}
	return g.FnRender(inputs, deltaTime)
}

func (g *Game) onResize(width, height uint32) error {
	if g == nil || g.FnOnResize == nil {
		return nil
	}
	return g.FnOnResize(width, height)
}

func (g *Game) shutdown() error {
	if g == nil || g.FnShutdown == nil {
		return nil
	}
	return g.FnShutdown()
}
