package vulkan

import (
	"time"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func fenceOf(fence *metadata.Fence) *VulkanFence {
	return fence.InternalData.(*VulkanFence)
}

func semaphoreOf(semaphore *metadata.Semaphore) vk.Semaphore {
	return semaphore.InternalData.(vk.Semaphore)
}

func (vr *VulkanRenderer) CreateFence(label string, signaled bool) (*metadata.Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(vr.context.Device.LogicalDevice, &fenceCreateInfo, vr.context.Allocator, &handle); res != vk.Success {
		return nil, resultError(core.ErrorKindAllocation, "vkCreateFence "+label, res)
	}
	vr.context.setObjectName(core.ResourceKindFence, handle, label)
	return &metadata.Fence{
		Label:        label,
		InternalData: &VulkanFence{Handle: handle, IsSignaled: signaled},
	}, nil
}

func (vr *VulkanRenderer) DestroyFence(fence *metadata.Fence) {
	vf := fenceOf(fence)
	if vf.Handle != nil {
		vk.DestroyFence(vr.context.Device.LogicalDevice, vf.Handle, vr.context.Allocator)
		vf.Handle = nil
	}
	vf.IsSignaled = false
}

// WaitForFence returns immediately for a fence known to be signaled. A
// timeout is reported as device loss.
func (vr *VulkanRenderer) WaitForFence(fence *metadata.Fence, timeout time.Duration) error {
	vf := fenceOf(fence)
	if vf.IsSignaled {
		return nil
	}
	result := vk.WaitForFences(vr.context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, uint64(timeout.Nanoseconds()))
	switch result {
	case vk.Success:
		vf.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogError("fence %s timed out after %s", fence.Label, timeout)
		return core.NewResultError(core.ErrorKindDeviceLost, "vkWaitForFences "+fence.Label, VulkanResultString(result))
	}
	return resultError(core.ErrorKindDeviceLost, "vkWaitForFences "+fence.Label, result)
}

func (vr *VulkanRenderer) ResetFence(fence *metadata.Fence) error {
	vf := fenceOf(fence)
	if res := vk.ResetFences(vr.context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}); res != vk.Success {
		return resultError(core.ErrorKindFrameSubmit, "vkResetFences "+fence.Label, res)
	}
	vf.IsSignaled = false
	return nil
}

func (vr *VulkanRenderer) CreateSemaphore(label string) (*metadata.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var handle vk.Semaphore
	if res := vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreCreateInfo, vr.context.Allocator, &handle); res != vk.Success {
		return nil, resultError(core.ErrorKindAllocation, "vkCreateSemaphore "+label, res)
	}
	vr.context.setObjectName(core.ResourceKindSemaphore, handle, label)
	return &metadata.Semaphore{Label: label, InternalData: handle}, nil
}

func (vr *VulkanRenderer) DestroySemaphore(semaphore *metadata.Semaphore) {
	if handle := semaphoreOf(semaphore); handle != vk.NullSemaphore {
		vk.DestroySemaphore(vr.context.Device.LogicalDevice, handle, vr.context.Allocator)
		semaphore.InternalData = vk.NullSemaphore
	}
}

// Submit queues cmd on the graphics queue. wait, when given, blocks color
// attachment output until it signals.
func (vr *VulkanRenderer) Submit(cmd *metadata.CommandBuffer, wait, signal *metadata.Semaphore, fence *metadata.Fence) error {
	v := commandBufferOf(cmd)
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{v.Handle},
	}
	if wait != nil {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{semaphoreOf(wait)}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)}
	}
	if signal != nil {
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{semaphoreOf(signal)}
	}

	vf := fenceOf(fence)
	return vr.context.locks.SafeCall(QueueManagement, func() error {
		res := vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vf.Handle)
		if res != vk.Success {
			return resultError(core.ErrorKindFrameSubmit, "vkQueueSubmit "+cmd.Label, res)
		}
		vf.IsSignaled = false
		return nil
	})
}

// SignalFence submits an empty batch so fence signals once the queue drains.
// The batch waits on wait when one is given, leaving it unsignaled.
func (vr *VulkanRenderer) SignalFence(fence *metadata.Fence, wait *metadata.Semaphore) error {
	vf := fenceOf(fence)
	var submits []vk.SubmitInfo
	if wait != nil {
		submits = []vk.SubmitInfo{{
			SType:              vk.StructureTypeSubmitInfo,
			WaitSemaphoreCount: 1,
			PWaitSemaphores:    []vk.Semaphore{semaphoreOf(wait)},
			PWaitDstStageMask:  []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		}}
	}
	return vr.context.locks.SafeCall(QueueManagement, func() error {
		res := vk.QueueSubmit(vr.context.Device.GraphicsQueue, uint32(len(submits)), submits, vf.Handle)
		return resultError(core.ErrorKindFrameSubmit, "vkQueueSubmit "+fence.Label, res)
	})
}
