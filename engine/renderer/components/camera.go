package components

import (
	"github.com/spaghettifunk/anima/engine/math"
)

/**
 * @brief A camera looking at a fixed target. The view matrix is rebuilt
 * lazily whenever the position, target or up vector change.
 */
type Camera struct {
	/** @brief The position of this camera. Use SetPosition so the view is rebuilt. */
	Position math.Vec3
	Target   math.Vec3
	Up       math.Vec3

	/** @brief Vertical field of view in radians. */
	FovY float32
	Near float32
	Far  float32

	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty    bool
	ViewMatrix math.Mat4
}

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

// NewCamera returns the default scene camera: eye (2, 3, 4) looking at the
// origin with a 90 degree field of view.
func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.Position = math.NewVec3(2, 3, 4)
	c.Target = math.NewVec3Zero()
	c.Up = math.NewVec3Up()
	c.FovY = math.K_HALF_PI
	c.Near = 0.1
	c.Far = 512
	c.IsDirty = true
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) SetTarget(target math.Vec3) {
	c.Target = target
	c.IsDirty = true
}

func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = math.NewMat4LookAt(c.Position, c.Target, c.Up)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

// GetProjection returns a Vulkan clip-space perspective for the given aspect
// ratio.
func (c *Camera) GetProjection(aspect float32) math.Mat4 {
	return math.NewMat4Perspective(c.FovY, aspect, c.Near, c.Far)
}

func (c *Camera) Forward() math.Vec3 {
	return c.Target.Sub(c.Position).Normalized()
}

// Orbit rotates the camera around its target about the up axis.
func (c *Camera) Orbit(angle float32) {
	rotation := math.NewQuatFromAxisAngle(c.Up, angle).ToMat4()
	offset := c.Position.Sub(c.Target).Transform(rotation)
	c.SetPosition(c.Target.Add(offset))
}
