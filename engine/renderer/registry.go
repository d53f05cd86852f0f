package renderer

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// Registry owns meshes and models by name and the list of renderables drawn
// each frame.
type Registry struct {
	meshes      map[string]*metadata.Mesh
	models      map[string]*metadata.Model
	renderables []metadata.Renderable
}

func NewRegistry() *Registry {
	return &Registry{
		meshes: make(map[string]*metadata.Mesh),
		models: make(map[string]*metadata.Model),
	}
}

func (r *Registry) RegisterMesh(mesh *metadata.Mesh) error {
	if mesh == nil || mesh.Name == "" {
		return fmt.Errorf("mesh must have a name")
	}
	if _, exists := r.meshes[mesh.Name]; exists {
		return fmt.Errorf("mesh %s already registered", mesh.Name)
	}
	r.meshes[mesh.Name] = mesh
	return nil
}

func (r *Registry) Mesh(name string) (*metadata.Mesh, bool) {
	m, ok := r.meshes[name]
	return m, ok
}

// RegisterModel records a model; every mesh it names must be registered.
func (r *Registry) RegisterModel(name string, meshNames []string) error {
	for _, mn := range meshNames {
		if _, ok := r.meshes[mn]; !ok {
			return fmt.Errorf("model %s references unknown mesh %s", name, mn)
		}
	}
	r.models[name] = &metadata.Model{Name: name, MeshNames: slices.Clone(meshNames)}
	return nil
}

func (r *Registry) Model(name string) (*metadata.Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

func (r *Registry) AddRenderable(renderable metadata.Renderable) error {
	if renderable.Mesh == nil || renderable.Pipeline == nil {
		return fmt.Errorf("renderable needs a mesh and a pipeline")
	}
	if !renderable.Mesh.Uploaded() {
		return fmt.Errorf("mesh %s has not been uploaded", renderable.Mesh.Name)
	}
	r.renderables = append(r.renderables, renderable)
	return nil
}

// AddModel adds one renderable per mesh of the model, using each mesh's
// baked world transform.
func (r *Registry) AddModel(name string, pipeline *metadata.Pipeline) error {
	model, ok := r.models[name]
	if !ok {
		return fmt.Errorf("unknown model %s", name)
	}
	for _, mn := range model.MeshNames {
		mesh := r.meshes[mn]
		if err := r.AddRenderable(metadata.Renderable{Mesh: mesh, Pipeline: pipeline, World: mesh.World}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Renderables() []metadata.Renderable {
	return r.renderables
}

// SortRenderables orders renderables by pipeline then mesh so that draws
// sharing state are adjacent. Equal keys keep their insertion order.
func (r *Registry) SortRenderables() {
	SortRenderables(r.renderables)
}

func (r *Registry) ClearRenderables() {
	r.renderables = r.renderables[:0]
}

func SortRenderables(renderables []metadata.Renderable) {
	slices.SortStableFunc(renderables, func(a, b metadata.Renderable) int {
		if c := cmp.Compare(a.Pipeline.ID, b.Pipeline.ID); c != 0 {
			return c
		}
		return cmp.Compare(a.Mesh.Name, b.Mesh.Name)
	})
}
