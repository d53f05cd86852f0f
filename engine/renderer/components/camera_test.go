package components

import (
	"testing"

	"github.com/spaghettifunk/anima/engine/math"
	"github.com/stretchr/testify/assert"
)

func TestDefaultCamera(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, math.NewVec3(2, 3, 4), c.Position)
	assert.Equal(t, float32(0.1), c.Near)
	assert.Equal(t, float32(512), c.Far)

	view := c.GetView()
	assert.False(t, c.IsDirty)
	assert.True(t, c.Position.Transform(view).Compare(math.NewVec3Zero(), 1e-5))
}

func TestCameraRebuildsViewWhenMoved(t *testing.T) {
	c := NewCamera()
	before := c.GetView()

	c.SetPosition(math.NewVec3(0, 0, 5))
	assert.True(t, c.IsDirty)
	after := c.GetView()
	assert.False(t, before.Compare(after, 1e-6))

	target := c.Target.Transform(after)
	assert.True(t, target.Compare(math.NewVec3(0, 0, -5), 1e-5), "got %v", target)
	assert.True(t, c.Forward().Compare(math.NewVec3(0, 0, -1), 1e-6))
}

func TestCameraOrbitKeepsDistance(t *testing.T) {
	c := NewCamera()
	distance := c.Position.Sub(c.Target).Length()
	c.Orbit(math.K_HALF_PI)
	assert.InDelta(t, distance, c.Position.Sub(c.Target).Length(), 1e-4)
	assert.InDelta(t, 3.0, c.Position.Y, 1e-5)
	assert.True(t, c.IsDirty)
}

func TestCameraProjectionUsesAspect(t *testing.T) {
	c := NewCamera()
	wide := c.GetProjection(2)
	square := c.GetProjection(1)
	assert.InDelta(t, square.Data[0]/2, wide.Data[0], 1e-6)
	assert.Equal(t, square.Data[5], wide.Data[5])
}
