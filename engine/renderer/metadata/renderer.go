package metadata

type RendererBackendConfig struct {
	/** @brief The name of the application */
	ApplicationName string
	/** @brief Initial framebuffer size, used when the surface does not dictate one. */
	Width  uint32
	Height uint32
	/** @brief FIFO presentation when true, IMMEDIATE (falling back to FIFO) otherwise. */
	VSync bool
	/** @brief Enables validation layers, the debug callback and object naming. */
	Validation bool
}

/** @brief The limits the renderer core needs from the physical device. */
type DeviceProperties struct {
	Name                            string
	MinUniformBufferOffsetAlignment uint64
	MaxPushConstantsSize            uint32
	DepthFormat                     ImageFormat
	ColorFormat                     ImageFormat
}

type Extent2D struct {
	Width, Height uint32
}

func (e Extent2D) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent2D) AspectRatio() float32 {
	if e.Height == 0 {
		return 1.0
	}
	return float32(e.Width) / float32(e.Height)
}

type Extent3D struct {
	Width, Height, Depth uint32
}

/** @brief Where an allocation lives and whether the host can see it. */
type MemoryLocation int

const (
	/** @brief Device local, never mapped. */
	MemoryLocationGpuOnly MemoryLocation = iota
	/** @brief Host visible and coherent, written by the CPU every frame. */
	MemoryLocationCpuToGpu
	/** @brief Host visible, used as a transfer source. */
	MemoryLocationCpuOnly
)

func (l MemoryLocation) HostVisible() bool {
	return l != MemoryLocationGpuOnly
}

func (l MemoryLocation) String() string {
	switch l {
	case MemoryLocationGpuOnly:
		return "gpu_only"
	case MemoryLocationCpuToGpu:
		return "cpu_to_gpu"
	case MemoryLocationCpuOnly:
		return "cpu_only"
	}
	return "unknown"
}

type BufferUsage uint32

const (
	BufferUsageTransferSrc BufferUsage = 1 << iota
	BufferUsageTransferDst
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageVertex
	BufferUsageIndex
)

type ImageFormat int

const (
	ImageFormatUndefined ImageFormat = iota
	ImageFormatB8G8R8A8Unorm
	ImageFormatB8G8R8A8Srgb
	ImageFormatR8G8B8A8Unorm
	ImageFormatD32Sfloat
	ImageFormatD32SfloatS8Uint
	ImageFormatD24UnormS8Uint
)

func (f ImageFormat) IsDepth() bool {
	return f == ImageFormatD32Sfloat || f == ImageFormatD32SfloatS8Uint || f == ImageFormatD24UnormS8Uint
}

type ImageUsage uint32

const (
	ImageUsageTransferSrc ImageUsage = 1 << iota
	ImageUsageTransferDst
	ImageUsageSampled
	ImageUsageColorAttachment
	ImageUsageDepthStencilAttachment
)

type ImageAspect uint32

const (
	ImageAspectColor ImageAspect = 1 << iota
	ImageAspectDepth
	ImageAspectStencil
)

/**
 * @brief A buffer and its memory. Size is the requested size, which
 * may be smaller than the allocation.
 */
type GpuBuffer struct {
	Label    string
	Size     uint64
	Usage    BufferUsage
	Location MemoryLocation
	/** @brief The backend buffer and memory handles. */
	InternalData interface{}
}

/** @brief An image, its memory and (once created) its view. */
type GpuImage struct {
	Label  string
	Format ImageFormat
	Usage  ImageUsage
	Aspect ImageAspect
	Extent Extent3D
	/** @brief True once the image view has been created. */
	HasView      bool
	InternalData interface{}
}

/** @brief Clear values applied when a frame begins rendering. */
type ClearValues struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}
