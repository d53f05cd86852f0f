package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-5

func TestMat4MulAppliesLeftFirst(t *testing.T) {
	scale := NewMat4Scale(NewVec3(2, 2, 2))
	translate := NewMat4Translation(NewVec3(1, 0, 0))

	p := NewVec3(1, 0, 0).Transform(scale.Mul(translate))
	assert.True(t, p.Compare(NewVec3(3, 0, 0), tolerance), "got %v", p)

	p = NewVec3(1, 0, 0).Transform(translate.Mul(scale))
	assert.True(t, p.Compare(NewVec3(4, 0, 0), tolerance), "got %v", p)
}

func TestMat4IdentityIsNeutral(t *testing.T) {
	m := NewMat4TRS(NewVec3(1, 2, 3), NewQuatFromAxisAngle(NewVec3Up(), 0.3), NewVec3(1, 2, 1))
	assert.True(t, m.Mul(NewMat4Identity()).Compare(m, tolerance))
	assert.True(t, NewMat4Identity().Mul(m).Compare(m, tolerance))
}

func TestMat4TRS(t *testing.T) {
	rot := NewQuatFromAxisAngle(NewVec3Up(), K_HALF_PI)
	m := NewMat4TRS(NewVec3(1, 2, 3), rot, NewVec3(2, 2, 2))

	p := NewVec3(1, 0, 0).Transform(m)
	assert.True(t, p.Compare(NewVec3(1, 2, 1), tolerance), "got %v", p)
	assert.True(t, m.Translation().Compare(NewVec3(1, 2, 3), tolerance))
}

func TestQuaternionToMat4MatchesAxisRotation(t *testing.T) {
	m := NewQuatFromAxisAngle(NewVec3(0, 0, 1), K_HALF_PI).ToMat4()
	p := NewVec3(1, 0, 0).Transform(m)
	assert.True(t, p.Compare(NewVec3(0, 1, 0), tolerance), "got %v", p)

	assert.True(t, Quaternion{}.ToMat4().Compare(NewMat4Identity(), tolerance))
}

func TestLookAt(t *testing.T) {
	eye := NewVec3(2, 3, 4)
	view := NewMat4LookAt(eye, NewVec3Zero(), NewVec3Up())

	assert.True(t, eye.Transform(view).Compare(NewVec3Zero(), tolerance))

	target := NewVec3Zero().Transform(view)
	assert.True(t, target.Compare(NewVec3(0, 0, -eye.Length()), 1e-4), "got %v", target)
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := NewMat4Perspective(K_HALF_PI, 1.0, 0.1, 512)

	near := NewVec4(0, 0, -0.1, 1).Transform(proj)
	far := NewVec4(0, 0, -512, 1).Transform(proj)
	assert.InDelta(t, 0.0, near.Z/near.W, tolerance)
	assert.InDelta(t, 1.0, far.Z/far.W, 1e-4)

	up := NewVec4(0, 1, -1, 1).Transform(proj)
	assert.InDelta(t, -1.0, up.Y/up.W, tolerance)
}

func TestNewMat4FromSlice(t *testing.T) {
	data := []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 5, 6, 7, 1}
	m := NewMat4FromSlice(data)
	assert.True(t, m.Translation().Compare(NewVec3(5, 6, 7), tolerance))
}

func TestNormalizedZeroVector(t *testing.T) {
	assert.Equal(t, NewVec3Zero(), NewVec3Zero().Normalized())
	assert.InDelta(t, 1.0, NewVec3(3, 4, 0).Normalized().Length(), tolerance)
}

func TestClampAndAlignUp(t *testing.T) {
	assert.Equal(t, 2, Clamp(1, 2, 3))
	assert.Equal(t, 3, Clamp(9, 2, 3))
	assert.Equal(t, float32(2.5), Clamp(float32(2.5), 2, 3))

	assert.Equal(t, uint64(0), AlignUp(uint64(0), 256))
	assert.Equal(t, uint64(256), AlignUp(uint64(1), 256))
	assert.Equal(t, uint64(256), AlignUp(uint64(256), 256))
	assert.Equal(t, uint64(512), AlignUp(uint64(257), 256))
	assert.Equal(t, uint64(80), AlignUp(uint64(80), 0))
}
