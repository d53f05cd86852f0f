package testbed

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
)

func TestSunDirectionKeepsElevation(t *testing.T) {
	start := SunDirection(0)
	for _, angle := range []float32{0.5, 1, math32.Pi, 5} {
		d := SunDirection(angle)
		assert.InDelta(t, 1.0, d.ToVec3().Length(), 1e-5)
		assert.InDelta(t, start.Y, d.Y, 1e-5)
		assert.Zero(t, d.W)
	}
	full := SunDirection(2 * math32.Pi)
	assert.True(t, start.Compare(full, 1e-5))
}

func TestRenderUsesElapsedTime(t *testing.T) {
	g := NewTestGame()
	assert.NoError(t, g.FnUpdate(2))
	assert.NoError(t, g.FnUpdate(2))

	inputs := &metadata.FrameInputs{}
	assert.NoError(t, g.FnRender(inputs, 0))
	assert.True(t, inputs.Scene.SunlightDirection.Compare(SunDirection(4*sunSpeed), 1e-6))

	assert.NoError(t, g.FnOnResize(640, 480))
	assert.Equal(t, uint32(640), g.state().width)
	assert.NoError(t, g.FnShutdown())
}
