package core

// ResourceKind tags every GPU object the engine creates. It is used for
// deletion queue bookkeeping and for attaching debug names to objects.
type ResourceKind uint8

const (
	ResourceKindUnknown ResourceKind = iota
	ResourceKindBuffer
	ResourceKindImage
	ResourceKindImageView
	ResourceKindPipeline
	ResourceKindPipelineLayout
	ResourceKindShaderModule
	ResourceKindDescriptorSetLayout
	ResourceKindDescriptorPool
	ResourceKindDescriptorSet
	ResourceKindCommandPool
	ResourceKindCommandBuffer
	ResourceKindFence
	ResourceKindSemaphore
	ResourceKindSampler
	ResourceKindSwapchain
)

var resourceKindNames = [...]string{
	ResourceKindUnknown:             "unknown",
	ResourceKindBuffer:              "buffer",
	ResourceKindImage:               "image",
	ResourceKindImageView:           "image_view",
	ResourceKindPipeline:            "pipeline",
	ResourceKindPipelineLayout:      "pipeline_layout",
	ResourceKindShaderModule:        "shader_module",
	ResourceKindDescriptorSetLayout: "descriptor_set_layout",
	ResourceKindDescriptorPool:      "descriptor_pool",
	ResourceKindDescriptorSet:       "descriptor_set",
	ResourceKindCommandPool:         "command_pool",
	ResourceKindCommandBuffer:       "command_buffer",
	ResourceKindFence:               "fence",
	ResourceKindSemaphore:           "semaphore",
	ResourceKindSampler:             "sampler",
	ResourceKindSwapchain:           "swapchain",
}

func (k ResourceKind) String() string {
	if int(k) < len(resourceKindNames) {
		return resourceKindNames[k]
	}
	return resourceKindNames[ResourceKindUnknown]
}
