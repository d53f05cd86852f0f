package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Not an asset the engine knows how to load. */
	ResourceTypeNone ResourceType = iota
	/** @brief Raw bytes. */
	ResourceTypeBinary
	/** @brief Compiled SPIR-V shader stage. */
	ResourceTypeShader
	/** @brief A glTF scene (.gltf or .glb). */
	ResourceTypeScene
	/** @brief An image decoded to RGBA. */
	ResourceTypeImage
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeBinary:
		return "binary"
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeScene:
		return "scene"
	case ResourceTypeImage:
		return "image"
	}
	return "none"
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The type of the loader which handled this resource. */
	Type ResourceType
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data; the concrete type depends on Type. */
	Data interface{}
}
