package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/spaghettifunk/anima/engine/config"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesDefaults(t *testing.T) {
	e, err := New(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, EngineStageUninitialized, e.Stage())
	assert.NotNil(t, e.Renderer())
	assert.NotNil(t, e.Camera())
	assert.NotEqual(t, [16]byte{}, [16]byte(e.sessionID))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Renderer.FramesInFlight = 5
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestLifecycleOrder(t *testing.T) {
	e, err := New(nil, nil)
	require.NoError(t, err)
	assert.Error(t, e.Load())
	assert.Error(t, e.Run(context.Background()))
}

func TestShutdownBeforeInitialize(t *testing.T) {
	e, err := New(nil, nil)
	require.NoError(t, err)
	assert.NoError(t, e.Shutdown())
	assert.Equal(t, EngineStageShuttingDown, e.Stage())
	assert.NoError(t, e.Shutdown())
}

func TestClearColorPulses(t *testing.T) {
	assert.Equal(t, [4]float32{0, 0, 0, 1}, ClearColor(0))
	peak := ClearColor(188)
	assert.InDelta(t, 1.0, peak[2], 1e-3)
	for frame := uint64(0); frame < 1000; frame += 37 {
		c := ClearColor(frame)
		assert.GreaterOrEqual(t, c[2], float32(0))
		assert.LessOrEqual(t, c[2], float32(1))
	}
}

func TestFrameInputs(t *testing.T) {
	e, err := New(nil, nil)
	require.NoError(t, err)

	e.width, e.height = 0, 0
	inputs := e.frameInputs()
	assert.True(t, inputs.Projection.Compare(math.NewMat4Identity(), 0))
	assert.Equal(t, float32(1), inputs.Clear.Depth)

	e.width, e.height = 1280, 720
	inputs = e.frameInputs()
	assert.True(t, inputs.Projection.Compare(e.camera.GetProjection(1280.0/720.0), 1e-6))
	assert.True(t, inputs.View.Compare(e.camera.GetView(), 1e-6))
	assert.InDelta(t, 1.0, inputs.Scene.SunlightDirection.ToVec3().Length(), 1e-5)
}

func TestResizeToZeroSuspends(t *testing.T) {
	e, err := New(nil, nil)
	require.NoError(t, err)

	// no window, so the framebuffer reports zero
	require.NoError(t, e.onResized())
	assert.True(t, e.isSuspended)
}

func TestGameHooks(t *testing.T) {
	var nilGame *Game
	assert.NoError(t, nilGame.update(1))
	assert.NoError(t, nilGame.render(&metadata.FrameInputs{}, 1))
	assert.NoError(t, nilGame.onResize(1, 1))
	assert.NoError(t, nilGame.shutdown())

	boom := errors.New("boom")
	var rendered bool
	g := &Game{
		FnRender: func(inputs *metadata.FrameInputs, deltaTime float64) error {
			inputs.Clear.Color[0] = 1
			rendered = true
			return nil
		},
		FnShutdown: func() error { return boom },
	}
	inputs := &metadata.FrameInputs{}
	assert.NoError(t, g.render(inputs, 0.016))
	assert.True(t, rendered)
	assert.Equal(t, float32(1), inputs.Clear.Color[0])
	assert.NoError(t, g.update(1))
	assert.ErrorIs(t, g.shutdown(), boom)

	e, err := New(nil, g)
	require.NoError(t, err)
	assert.ErrorIs(t, e.Shutdown(), boom)
}
