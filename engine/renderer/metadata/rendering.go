package metadata

/** @brief Determines face culling mode during rendering. */
type FaceCullMode int

const (
	/** @brief No faces are culled. */
	FaceCullModeNone FaceCullMode = 0x0
	/** @brief Only front faces are culled. */
	FaceCullModeFront FaceCullMode = 0x1
	/** @brief Only back faces are culled. */
	FaceCullModeBack FaceCullMode = 0x2
	/** @brief Both front and back faces are culled. */
	FaceCullModeFrontAndBack FaceCullMode = 0x3
)

type PolygonMode int

const (
	PolygonModeFill PolygonMode = iota
	PolygonModeLine
)

/**
 * @brief Everything needed to build a graphics pipeline. The shader code
 * only has to live until the pipeline is built.
 */
type PipelineDesc struct {
	VertexShader   []uint32
	FragmentShader []uint32
	VertexLayout   VertexLayout
	/** @brief Set layouts in set-index order. */
	DescriptorSetLayouts []*DescriptorSetLayout
	/** @brief Size of the push constant range visible to PushConstantStages. */
	PushConstantSize   uint32
	PushConstantStages ShaderStage
	CullMode           FaceCullMode
	PolygonMode        PolygonMode
	DepthTest          bool
	DepthWrite         bool
	ColorFormat        ImageFormat
	DepthFormat        ImageFormat
}

/**
 * @brief A built graphics pipeline. ID increases with creation order and is
 * the primary draw sort key.
 */
type Pipeline struct {
	ID                 uint32
	Name               string
	PushConstantSize   uint32
	PushConstantStages ShaderStage
	/** @brief The backend pipeline and pipeline layout handles. */
	InternalData interface{}
}
