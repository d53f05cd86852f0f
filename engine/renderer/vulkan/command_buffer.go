package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
)

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState
}

func commandBufferOf(cmd *metadata.CommandBuffer) *VulkanCommandBuffer {
	return cmd.InternalData.(*VulkanCommandBuffer)
}

func commandPoolOf(pool *metadata.CommandPool) vk.CommandPool {
	return pool.InternalData.(vk.CommandPool)
}

// CreateCommandPool creates a pool on the graphics queue family whose buffers
// can be reset individually.
func (vr *VulkanRenderer) CreateCommandPool(label string) (*metadata.CommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: vr.context.Device.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(vr.context.Device.LogicalDevice, &poolCreateInfo, vr.context.Allocator, &pool); res != vk.Success {
		return nil, resultError(core.ErrorKindAllocation, "vkCreateCommandPool "+label, res)
	}
	vr.context.setObjectName(core.ResourceKindCommandPool, pool, label)
	return &metadata.CommandPool{Label: label, InternalData: pool}, nil
}

func (vr *VulkanRenderer) DestroyCommandPool(pool *metadata.CommandPool) {
	vk.DestroyCommandPool(vr.context.Device.LogicalDevice, commandPoolOf(pool), vr.context.Allocator)
	pool.InternalData = vk.CommandPool(nil)
}

func (vr *VulkanRenderer) ResetCommandPool(pool *metadata.CommandPool) error {
	return vr.context.locks.SafeCall(CommandPoolManagement, func() error {
		res := vk.ResetCommandPool(vr.context.Device.LogicalDevice, commandPoolOf(pool), 0)
		return resultError(core.ErrorKindFrameSubmit, "vkResetCommandPool "+pool.Label, res)
	})
}

func (vr *VulkanRenderer) AllocateCommandBuffer(pool *metadata.CommandPool, label string) (*metadata.CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        commandPoolOf(pool),
		CommandBufferCount: 1,
		Level:              vk.CommandBufferLevelPrimary,
	}
	handles := make([]vk.CommandBuffer, 1)
	err := vr.context.locks.SafeCall(CommandPoolManagement, func() error {
		res := vk.AllocateCommandBuffers(vr.context.Device.LogicalDevice, &allocateInfo, handles)
		return resultError(core.ErrorKindAllocation, "vkAllocateCommandBuffers "+label, res)
	})
	if err != nil {
		return nil, err
	}
	vr.context.setObjectName(core.ResourceKindCommandBuffer, handles[0], label)
	return &metadata.CommandBuffer{
		Label:        label,
		InternalData: &VulkanCommandBuffer{Handle: handles[0], State: COMMAND_BUFFER_STATE_READY},
	}, nil
}

func (vr *VulkanRenderer) BeginCommandBuffer(cmd *metadata.CommandBuffer, oneTime bool) error {
	v := commandBufferOf(cmd)
	beginInfo := &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTime {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if res := vk.BeginCommandBuffer(v.Handle, beginInfo); res != vk.Success {
		return resultError(core.ErrorKindFrameSubmit, "vkBeginCommandBuffer "+cmd.Label, res)
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (vr *VulkanRenderer) EndCommandBuffer(cmd *metadata.CommandBuffer) error {
	v := commandBufferOf(cmd)
	if v.State == COMMAND_BUFFER_STATE_IN_RENDER_PASS {
		return core.NewError(core.ErrorKindFrameSubmit, "vkEndCommandBuffer "+cmd.Label, fmt.Errorf("rendering was not ended"))
	}
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		return resultError(core.ErrorKindFrameSubmit, "vkEndCommandBuffer "+cmd.Label, res)
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (vr *VulkanRenderer) ResetCommandBuffer(cmd *metadata.CommandBuffer) error {
	v := commandBufferOf(cmd)
	if res := vk.ResetCommandBuffer(v.Handle, 0); res != vk.Success {
		return resultError(core.ErrorKindFrameSubmit, "vkResetCommandBuffer "+cmd.Label, res)
	}
	v.State = COMMAND_BUFFER_STATE_READY
	return nil
}

func (vr *VulkanRenderer) CmdCopyBuffer(cmd *metadata.CommandBuffer, src, dst *metadata.GpuBuffer, size uint64) {
	region := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(commandBufferOf(cmd).Handle, bufferOf(src).Handle, bufferOf(dst).Handle, 1, []vk.BufferCopy{region})
}

func (vr *VulkanRenderer) CmdBindPipeline(cmd *metadata.CommandBuffer, pipeline *metadata.Pipeline) {
	vk.CmdBindPipeline(commandBufferOf(cmd).Handle, vk.PipelineBindPointGraphics, pipelineOf(pipeline).Handle)
}

// CmdBindDescriptorSet binds set at index 0 of the pipeline layout.
func (vr *VulkanRenderer) CmdBindDescriptorSet(cmd *metadata.CommandBuffer, pipeline *metadata.Pipeline, set *metadata.DescriptorSet, dynamicOffsets []uint32) {
	vk.CmdBindDescriptorSets(
		commandBufferOf(cmd).Handle,
		vk.PipelineBindPointGraphics,
		pipelineOf(pipeline).PipelineLayout,
		0,
		1,
		[]vk.DescriptorSet{descriptorSetOf(set)},
		uint32(len(dynamicOffsets)),
		dynamicOffsets)
}

func (vr *VulkanRenderer) CmdBindVertexBuffer(cmd *metadata.CommandBuffer, buffer *metadata.GpuBuffer) {
	vk.CmdBindVertexBuffers(commandBufferOf(cmd).Handle, 0, 1, []vk.Buffer{bufferOf(buffer).Handle}, []vk.DeviceSize{0})
}

func (vr *VulkanRenderer) CmdBindIndexBuffer(cmd *metadata.CommandBuffer, buffer *metadata.GpuBuffer) {
	vk.CmdBindIndexBuffer(commandBufferOf(cmd).Handle, bufferOf(buffer).Handle, 0, vk.IndexTypeUint32)
}

func (vr *VulkanRenderer) CmdPushConstants(cmd *metadata.CommandBuffer, pipeline *metadata.Pipeline, data []byte) {
	if len(data) == 0 {
		return
	}
	vp := pipelineOf(pipeline)
	vk.CmdPushConstants(commandBufferOf(cmd).Handle, vp.PipelineLayout, vp.PushConstantStages, 0, uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (vr *VulkanRenderer) CmdDrawIndexed(cmd *metadata.CommandBuffer, indexCount, instanceCount uint32) {
	vk.CmdDrawIndexed(commandBufferOf(cmd).Handle, indexCount, instanceCount, 0, 0, 0)
}
