package metadata

// Opaque backend objects. InternalData holds the native handle.

type CommandPool struct {
	Label        string
	InternalData interface{}
}

type CommandBuffer struct {
	Label        string
	InternalData interface{}
}

type Fence struct {
	Label        string
	InternalData interface{}
}

type Semaphore struct {
	Label        string
	InternalData interface{}
}

type DescriptorSetLayout struct {
	Label        string
	Bindings     []DescriptorBinding
	InternalData interface{}
}

type DescriptorPool struct {
	Label        string
	InternalData interface{}
}

type DescriptorSet struct {
	Label        string
	Layout       *DescriptorSetLayout
	InternalData interface{}
}

type ShaderModule struct {
	Label        string
	Stage        ShaderStage
	InternalData interface{}
}

type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
)

type DescriptorType int

const (
	DescriptorTypeUniformBuffer DescriptorType = iota
	DescriptorTypeUniformBufferDynamic
	DescriptorTypeStorageBuffer
)

type DescriptorBinding struct {
	Binding uint32
	Type    DescriptorType
	Stages  ShaderStage
}

/** @brief The number of descriptors of one type a pool can hand out. */
type DescriptorPoolSize struct {
	Type  DescriptorType
	Count uint32
}
