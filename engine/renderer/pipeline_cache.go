package renderer

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// PipelineCache builds graphics pipelines by name and keeps them for the
// lifetime of the device.
type PipelineCache struct {
	device    Device
	deletion  *core.DeletionQueue
	pipelines map[string]*metadata.Pipeline
	nextID    uint32
}

func NewPipelineCache(device Device, deletion *core.DeletionQueue) *PipelineCache {
	return &PipelineCache{
		device:    device,
		deletion:  deletion,
		pipelines: make(map[string]*metadata.Pipeline),
	}
}

// Build creates the pipeline described by desc. Shader modules only live for
// the duration of the call.
func (pc *PipelineCache) Build(name string, desc *metadata.PipelineDesc) (*metadata.Pipeline, error) {
	if _, exists := pc.pipelines[name]; exists {
		return nil, core.NewError(core.ErrorKindPipelineBuild, name, fmt.Errorf("pipeline already exists"))
	}
	if len(desc.VertexShader) == 0 || len(desc.FragmentShader) == 0 {
		return nil, core.NewError(core.ErrorKindPipelineBuild, name, fmt.Errorf("missing shader stage"))
	}
	if limit := pc.device.Properties().MaxPushConstantsSize; limit != 0 && desc.PushConstantSize > limit {
		return nil, core.NewError(core.ErrorKindPipelineBuild, name,
			fmt.Errorf("push constant size %d exceeds device limit %d", desc.PushConstantSize, limit))
	}

	vertex, err := pc.device.CreateShaderModule(name+"_vertex", metadata.ShaderStageVertex, desc.VertexShader)
	if err != nil {
		return nil, core.NewError(core.ErrorKindPipelineBuild, name, err)
	}
	defer pc.device.DestroyShaderModule(vertex)

	fragment, err := pc.device.CreateShaderModule(name+"_fragment", metadata.ShaderStageFragment, desc.FragmentShader)
	if err != nil {
		return nil, core.NewError(core.ErrorKindPipelineBuild, name, err)
	}
	defer pc.device.DestroyShaderModule(fragment)

	pipeline, err := pc.device.CreateGraphicsPipeline(name, desc, vertex, fragment)
	if err != nil {
		core.LogError("failed to build pipeline %s: %s", name, err)
		return nil, core.NewError(core.ErrorKindPipelineBuild, name, err)
	}
	pipeline.ID = pc.nextID
	pipeline.Name = name
	pipeline.PushConstantSize = desc.PushConstantSize
	pipeline.PushConstantStages = desc.PushConstantStages
	pc.nextID++

	pc.pipelines[name] = pipeline
	pc.deletion.Push(core.ResourceKindPipeline, name, func() {
		pc.device.DestroyPipeline(pipeline)
	})
	core.LogInfo("pipeline %s built (id %d)", name, pipeline.ID)
	return pipeline, nil
}

func (pc *PipelineCache) Get(name string) (*metadata.Pipeline, bool) {
	p, ok := pc.pipelines[name]
	return p, ok
}

func (pc *PipelineCache) Len() int {
	return len(pc.pipelines)
}
