package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

func descriptorSetLayoutOf(layout *metadata.DescriptorSetLayout) vk.DescriptorSetLayout {
	return layout.InternalData.(vk.DescriptorSetLayout)
}

func descriptorPoolOf(pool *metadata.DescriptorPool) vk.DescriptorPool {
	return pool.InternalData.(vk.DescriptorPool)
}

func descriptorSetOf(set *metadata.DescriptorSet) vk.DescriptorSet {
	return set.InternalData.(vk.DescriptorSet)
}

func (vr *VulkanRenderer) CreateDescriptorSetLayout(label string, bindings []metadata.DescriptorBinding) (*metadata.DescriptorSetLayout, error) {
	layoutBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		layoutBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  toVkDescriptorType(b.Type),
			DescriptorCount: 1,
			StageFlags:      toVkShaderStages(b.Stages),
		}
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(layoutBindings)),
		PBindings:    layoutBindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(vr.context.Device.LogicalDevice, &layoutInfo, vr.context.Allocator, &layout); res != vk.Success {
		return nil, resultError(core.ErrorKindAllocation, "vkCreateDescriptorSetLayout "+label, res)
	}
	vr.context.setObjectName(core.ResourceKindDescriptorSetLayout, layout, label)
	return &metadata.DescriptorSetLayout{Label: label, Bindings: bindings, InternalData: layout}, nil
}

func (vr *VulkanRenderer) DestroyDescriptorSetLayout(layout *metadata.DescriptorSetLayout) {
	vk.DestroyDescriptorSetLayout(vr.context.Device.LogicalDevice, descriptorSetLayoutOf(layout), vr.context.Allocator)
}

func (vr *VulkanRenderer) CreateDescriptorPool(label string, maxSets uint32, sizes []metadata.DescriptorPoolSize) (*metadata.DescriptorPool, error) {
	poolSizes := make([]vk.DescriptorPoolSize, len(sizes))
	for i, s := range sizes {
		poolSizes[i] = vk.DescriptorPoolSize{
			Type:            toVkDescriptorType(s.Type),
			DescriptorCount: s.Count,
		}
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(vr.context.Device.LogicalDevice, &poolInfo, vr.context.Allocator, &pool); res != vk.Success {
		return nil, resultError(core.ErrorKindAllocation, "vkCreateDescriptorPool "+label, res)
	}
	vr.context.setObjectName(core.ResourceKindDescriptorPool, pool, label)
	return &metadata.DescriptorPool{Label: label, InternalData: pool}, nil
}

// DestroyDescriptorPool also frees every set allocated from the pool.
func (vr *VulkanRenderer) DestroyDescriptorPool(pool *metadata.DescriptorPool) {
	vk.DestroyDescriptorPool(vr.context.Device.LogicalDevice, descriptorPoolOf(pool), vr.context.Allocator)
}

func (vr *VulkanRenderer) AllocateDescriptorSet(pool *metadata.DescriptorPool, layout *metadata.DescriptorSetLayout, label string) (*metadata.DescriptorSet, error) {
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     descriptorPoolOf(pool),
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{descriptorSetLayoutOf(layout)},
	}
	var set vk.DescriptorSet
	err := vr.context.locks.SafeCall(DescriptorManagement, func() error {
		res := vk.AllocateDescriptorSets(vr.context.Device.LogicalDevice, &allocateInfo, &set)
		return resultError(core.ErrorKindAllocation, "vkAllocateDescriptorSets "+label, res)
	})
	if err != nil {
		return nil, err
	}
	vr.context.setObjectName(core.ResourceKindDescriptorSet, set, label)
	return &metadata.DescriptorSet{Label: label, Layout: layout, InternalData: set}, nil
}

func (vr *VulkanRenderer) WriteDescriptorBuffer(set *metadata.DescriptorSet, binding uint32, kind metadata.DescriptorType, buffer *metadata.GpuBuffer, offset, size uint64) {
	bufferInfo := vk.DescriptorBufferInfo{
		Buffer: bufferOf(buffer).Handle,
		Offset: vk.DeviceSize(offset),
		Range:  vk.DeviceSize(size),
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          descriptorSetOf(set),
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  toVkDescriptorType(kind),
		PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
	}
	_ = vr.context.locks.SafeCall(DescriptorManagement, func() error {
		vk.UpdateDescriptorSets(vr.context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
		return nil
	})
}
