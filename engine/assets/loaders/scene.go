package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// SceneMesh is one triangle-list primitive of a node.
type SceneMesh struct {
	Name     string
	Vertices []metadata.Vertex
	Indices  []uint32
}

// SceneNode is a node of an imported hierarchy. Parent is the index of the
// parent node, or -1 for a root.
type SceneNode struct {
	Name       string
	Local      math.Mat4
	Parent     int
	Primitives []SceneMesh
}

// Scene is the flattened result of an import: meshes with their world
// transform baked in, plus the model grouping them.
type Scene struct {
	Meshes []*metadata.Mesh
	Model  metadata.Model
}

type SceneLoader struct{}

// Load imports the scene at path. Data is a *Scene.
func (sl *SceneLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	scene, err := ImportScene(path)
	if err != nil {
		return nil, err
	}
	var size uint64
	for _, m := range scene.Meshes {
		size += uint64(len(metadata.SliceBytes(m.Vertices)) + len(m.Indices)*4)
	}
	return &metadata.Resource{
		Type:     metadata.ResourceTypeScene,
		Name:     scene.Model.Name,
		FullPath: path,
		DataSize: size,
		Data:     scene,
	}, nil
}

func (sl *SceneLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	return nil
}

// FlattenScene returns the world transform of every node. A node's world is
// its local transform followed by its parent's world. Nodes whose parent index
// is out of range are treated as roots.
func FlattenScene(nodes []SceneNode) []math.Mat4 {
	world := make([]math.Mat4, len(nodes))
	children := make([][]int, len(nodes))
	var roots []int
	for i, n := range nodes {
		if n.Parent < 0 || n.Parent >= len(nodes) || n.Parent == i {
			roots = append(roots, i)
			continue
		}
		children[n.Parent] = append(children[n.Parent], i)
	}

	type entry struct {
		node   int
		parent math.Mat4
	}
	visited := make([]bool, len(nodes))
	stack := make([]entry, 0, len(nodes))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, entry{roots[i], math.NewMat4Identity()})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[top.node] {
			continue
		}
		visited[top.node] = true

		w := nodes[top.node].Local.Mul(top.parent)
		world[top.node] = w
		kids := children[top.node]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, entry{kids[i], w})
		}
	}
	return world
}

// ImportScene reads a .gltf or .glb file and returns one mesh per triangle
// primitive of the default scene.
func ImportScene(path string) (*Scene, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
	default:
		return nil, core.NewError(core.ErrorKindSceneImport, path, fmt.Errorf("unsupported container %q", filepath.Ext(path)))
	}

	doc, err := gltf.Open(path)
	if err != nil {
		return nil, core.NewError(core.ErrorKindSceneImport, "open "+path, err)
	}

	nodes, err := collectNodes(doc)
	if err != nil {
		return nil, core.NewError(core.ErrorKindSceneImport, path, err)
	}
	world := FlattenScene(nodes)

	scene := &Scene{Model: metadata.Model{Name: resourceName(path)}}
	used := make(map[string]struct{})
	for i, n := range nodes {
		for _, p := range n.Primitives {
			name := p.Name
			if _, dup := used[name]; dup {
				name = fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
			}
			used[name] = struct{}{}
			scene.Meshes = append(scene.Meshes, &metadata.Mesh{
				Name:     name,
				Vertices: p.Vertices,
				Indices:  p.Indices,
				World:    world[i],
			})
			scene.Model.MeshNames = append(scene.Model.MeshNames, name)
		}
	}
	core.LogInfo("imported scene %s: %d nodes, %d meshes", path, len(nodes), len(scene.Meshes))
	return scene, nil
}

// collectNodes walks the default scene (or the first one) and returns its
// nodes with parent links, in visit order.
func collectNodes(doc *gltf.Document) ([]SceneNode, error) {
	if len(doc.Scenes) == 0 {
		return nil, fmt.Errorf("document has no scenes")
	}
	sceneIndex := 0
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		sceneIndex = *doc.Scene
	}

	type pending struct {
		gltfIndex int
		parent    int
	}
	var out []SceneNode
	seen := make(map[int]bool)
	stack := make([]pending, 0, len(doc.Nodes))
	roots := doc.Scenes[sceneIndex].Nodes
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, pending{roots[i], -1})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.gltfIndex < 0 || top.gltfIndex >= len(doc.Nodes) {
			return nil, fmt.Errorf("node index %d out of range", top.gltfIndex)
		}
		if seen[top.gltfIndex] {
			continue
		}
		seen[top.gltfIndex] = true

		node := doc.Nodes[top.gltfIndex]
		name := node.Name
		if name == "" {
			name = fmt.Sprintf("node%d", top.gltfIndex)
		}
		sn := SceneNode{
			Name:   name,
			Local:  nodeLocal(node),
			Parent: top.parent,
		}
		if node.Mesh != nil {
			prims, err := readPrimitives(doc, *node.Mesh, name)
			if err != nil {
				return nil, err
			}
			sn.Primitives = prims
		}
		self := len(out)
		out = append(out, sn)
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, pending{node.Children[i], self})
		}
	}
	return out, nil
}

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// nodeLocal prefers an explicit matrix and otherwise composes TRS.
func nodeLocal(node *gltf.Node) math.Mat4 {
	m := node.MatrixOrDefault()
	if m != identityMatrix {
		var local math.Mat4
		for i, v := range m {
			local.Data[i] = float32(v)
		}
		return local
	}
	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()
	return math.NewMat4TRS(
		math.NewVec3(float32(t[0]), float32(t[1]), float32(t[2])),
		math.Quaternion{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])},
		math.NewVec3(float32(s[0]), float32(s[1]), float32(s[2])),
	)
}

// accessorAt looks up an accessor index read from the file, along with the
// buffer view and buffer it points at.
func accessorAt(doc *gltf.Document, idx int, attr string) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("%s accessor %d out of range (%d accessors)", attr, idx, len(doc.Accessors))
	}
	acr := doc.Accessors[idx]
	if acr.BufferView == nil {
		return acr, nil
	}
	view := *acr.BufferView
	if view < 0 || view >= len(doc.BufferViews) {
		return nil, fmt.Errorf("%s accessor %d: buffer view %d out of range", attr, idx, view)
	}
	if buf := doc.BufferViews[view].Buffer; buf < 0 || buf >= len(doc.Buffers) {
		return nil, fmt.Errorf("%s accessor %d: buffer %d out of range", attr, idx, buf)
	}
	return acr, nil
}

func readPrimitives(doc *gltf.Document, meshIndex int, nodeName string) ([]SceneMesh, error) {
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("node %s: mesh index %d out of range", nodeName, meshIndex)
	}
	var out []SceneMesh
	for pi, prim := range doc.Meshes[meshIndex].Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			core.LogWarn("node %s primitive %d: mode %d is not a triangle list, skipped", nodeName, pi, prim.Mode)
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			return nil, fmt.Errorf("node %s primitive %d: missing POSITION", nodeName, pi)
		}
		acr, err := accessorAt(doc, posIdx, gltf.POSITION)
		if err != nil {
			return nil, fmt.Errorf("node %s primitive %d: %w", nodeName, pi, err)
		}
		positions, err := modeler.ReadPosition(doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("node %s primitive %d: %w", nodeName, pi, err)
		}

		vertices := make([]metadata.Vertex, len(positions))
		for i, p := range positions {
			vertices[i].Position = math.NewVec3(p[0], p[1], p[2])
		}
		if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
			acr, err := accessorAt(doc, idx, gltf.NORMAL)
			if err != nil {
				return nil, fmt.Errorf("node %s primitive %d: %w", nodeName, pi, err)
			}
			normals, err := modeler.ReadNormal(doc, acr, nil)
			if err != nil {
				return nil, fmt.Errorf("node %s primitive %d: %w", nodeName, pi, err)
			}
			for i := 0; i < len(normals) && i < len(vertices); i++ {
				vertices[i].Normal = math.NewVec3(normals[i][0], normals[i][1], normals[i][2])
			}
		}
		if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			acr, err := accessorAt(doc, idx, gltf.TEXCOORD_0)
			if err != nil {
				return nil, fmt.Errorf("node %s primitive %d: %w", nodeName, pi, err)
			}
			uvs, err := modeler.ReadTextureCoord(doc, acr, nil)
			if err != nil {
				return nil, fmt.Errorf("node %s primitive %d: %w", nodeName, pi, err)
			}
			for i := 0; i < len(uvs) && i < len(vertices); i++ {
				vertices[i].UV = math.NewVec2(uvs[i][0], uvs[i][1])
			}
		}

		var indices []uint32
		if prim.Indices != nil {
			acr, err := accessorAt(doc, *prim.Indices, "indices")
			if err != nil {
				return nil, fmt.Errorf("node %s primitive %d: %w", nodeName, pi, err)
			}
			raw, err := modeler.ReadIndices(doc, acr, nil)
			if err != nil {
				return nil, fmt.Errorf("node %s primitive %d: %w", nodeName, pi, err)
			}
			indices = make([]uint32, len(raw))
			for i, v := range raw {
				indices[i] = uint32(v)
			}
		} else {
			indices = make([]uint32, len(vertices))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}
		for _, v := range indices {
			if int(v) >= len(vertices) {
				return nil, fmt.Errorf("node %s primitive %d: index %d out of range", nodeName, pi, v)
			}
		}

		out = append(out, SceneMesh{
			Name:     fmt.Sprintf("%s_%d", nodeName, pi),
			Vertices: vertices,
			Indices:  indices,
		})
	}
	return out, nil
}
