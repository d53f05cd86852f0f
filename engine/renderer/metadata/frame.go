package metadata

import "github.com/spaghettifunk/anima/engine/math"

type FrameState int

const (
	FrameStateIdle FrameState = iota
	FrameStateRecording
	FrameStateSubmitted
)

func (s FrameState) String() string {
	switch s {
	case FrameStateIdle:
		return "idle"
	case FrameStateRecording:
		return "recording"
	case FrameStateSubmitted:
		return "submitted"
	}
	return "unknown"
}

/**
 * @brief The per-slot objects of one frame in flight. Nothing in a slot may be
 * reset while its fence is unsignaled.
 */
type FrameResources struct {
	Index          int
	CommandPool    *CommandPool
	CommandBuffer  *CommandBuffer
	ImageAvailable *Semaphore
	RenderFinished *Semaphore
	RenderFence    *Fence
	/** @brief Host visible CameraUniform buffer. */
	CameraBuffer *GpuBuffer
	/** @brief Set 0: camera uniform plus the dynamic scene uniform. */
	GlobalDescriptor *DescriptorSet
	State            FrameState
}

/** @brief Per-frame camera data, bound at set 0 binding 0. */
type CameraUniform struct {
	Projection     math.Mat4
	View           math.Mat4
	ViewProjection math.Mat4
}

/**
 * @brief Scene-wide lighting and fog, bound at set 0 binding 1 with a dynamic
 * offset per frame slot.
 */
type SceneUniform struct {
	FogColor math.Vec4
	/** @brief x is the start and y the end distance. */
	FogDistances      math.Vec4
	AmbientColor      math.Vec4
	SunlightDirection math.Vec4
	/** @brief w is the intensity. */
	SunlightColor math.Vec4
}

/** @brief What a frame needs from the caller. */
type FrameInputs struct {
	Projection math.Mat4
	View       math.Mat4
	Clear      ClearValues
	Scene      SceneUniform
}
