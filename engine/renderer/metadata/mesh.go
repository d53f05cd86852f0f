package metadata

import (
	"unsafe"

	"github.com/spaghettifunk/anima/engine/math"
)

/**
 * @brief Represents a single vertex in 3D space. The layout is tightly
 * packed and matches VertexLayoutPositionNormalUV.
 */
type Vertex struct {
	/** @brief The position of the vertex */
	Position math.Vec3
	/** @brief The normal of the vertex. */
	Normal math.Vec3
	/** @brief The texture coordinate of the vertex. */
	UV math.Vec2
}

type VertexFormat int

const (
	VertexFormatFloat2 VertexFormat = iota
	VertexFormatFloat3
	VertexFormatFloat4
)

type VertexAttribute struct {
	Location uint32
	Format   VertexFormat
	Offset   uint32
}

type VertexLayout struct {
	Stride     uint32
	Attributes []VertexAttribute
}

// VertexLayoutPositionNormalUV describes Vertex: position, normal and uv at
// locations 0, 1 and 2.
func VertexLayoutPositionNormalUV() VertexLayout {
	var v Vertex
	return VertexLayout{
		Stride: uint32(unsafe.Sizeof(v)),
		Attributes: []VertexAttribute{
			{Location: 0, Format: VertexFormatFloat3, Offset: uint32(unsafe.Offsetof(v.Position))},
			{Location: 1, Format: VertexFormatFloat3, Offset: uint32(unsafe.Offsetof(v.Normal))},
			{Location: 2, Format: VertexFormatFloat2, Offset: uint32(unsafe.Offsetof(v.UV))},
		},
	}
}

/**
 * @brief A drawable piece of geometry. Vertices and Indices hold the CPU copy
 * until upload; VertexBuffer and IndexBuffer are set once uploaded.
 */
type Mesh struct {
	Name         string
	Vertices     []Vertex
	Indices      []uint32
	VertexBuffer *GpuBuffer
	IndexBuffer  *GpuBuffer
	/** @brief The world transform baked at import time. */
	World math.Mat4
}

func (m *Mesh) IndexCount() uint32 {
	return uint32(len(m.Indices))
}

func (m *Mesh) Uploaded() bool {
	return m.VertexBuffer != nil && m.IndexBuffer != nil
}

/** @brief A named group of meshes imported from one scene. */
type Model struct {
	Name      string
	MeshNames []string
}

/**
 * @brief One draw: a mesh, the pipeline to draw it with and its world
 * transform. The mesh and pipeline are borrowed from their registries.
 */
type Renderable struct {
	Mesh     *Mesh
	Pipeline *Pipeline
	World    math.Mat4
}
