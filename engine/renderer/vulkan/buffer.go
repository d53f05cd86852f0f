package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	// The allocation size, which may exceed the requested size.
	MemorySize uint64
	mapped     unsafe.Pointer
}

func bufferOf(buffer *metadata.GpuBuffer) *VulkanBuffer {
	return buffer.InternalData.(*VulkanBuffer)
}

func (vr *VulkanRenderer) CreateBuffer(label string, size uint64, usage metadata.BufferUsage, location metadata.MemoryLocation) (*metadata.GpuBuffer, error) {
	device := vr.context.Device.LogicalDevice
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       toVkBufferUsage(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	vb := &VulkanBuffer{}
	var handle vk.Buffer
	if res := vk.CreateBuffer(device, &bufferInfo, vr.context.Allocator, &handle); res != vk.Success {
		return nil, resultError(core.ErrorKindAllocation, "vkCreateBuffer "+label, res)
	}
	vb.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, handle, &requirements)
	requirements.Deref()

	memoryType := vr.context.FindMemoryIndex(requirements.MemoryTypeBits, toVkMemoryProperties(location))
	if memoryType < 0 {
		vk.DestroyBuffer(device, handle, vr.context.Allocator)
		return nil, core.NewError(core.ErrorKindAllocation, "allocate buffer "+label, fmt.Errorf("no memory type for %s", location))
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(device, &allocateInfo, vr.context.Allocator, &memory); res != vk.Success {
		vk.DestroyBuffer(device, handle, vr.context.Allocator)
		return nil, resultError(core.ErrorKindAllocation, "vkAllocateMemory "+label, res)
	}
	if res := vk.BindBufferMemory(device, handle, memory, 0); res != vk.Success {
		vk.FreeMemory(device, memory, vr.context.Allocator)
		vk.DestroyBuffer(device, handle, vr.context.Allocator)
		return nil, resultError(core.ErrorKindAllocation, "vkBindBufferMemory "+label, res)
	}
	vb.Memory = memory
	vb.MemorySize = uint64(requirements.Size)

	vr.context.setObjectName(core.ResourceKindBuffer, handle, label)
	return &metadata.GpuBuffer{
		Label:        label,
		Size:         size,
		Usage:        usage,
		Location:     location,
		InternalData: vb,
	}, nil
}

func (vr *VulkanRenderer) DestroyBuffer(buffer *metadata.GpuBuffer) {
	vb := bufferOf(buffer)
	device := vr.context.Device.LogicalDevice
	if vb.mapped != nil {
		vk.UnmapMemory(device, vb.Memory)
		vb.mapped = nil
	}
	if vb.Handle != nil {
		vk.DestroyBuffer(device, vb.Handle, vr.context.Allocator)
		vb.Handle = nil
	}
	if vb.Memory != nil {
		vk.FreeMemory(device, vb.Memory, vr.context.Allocator)
		vb.Memory = nil
	}
}

func (vr *VulkanRenderer) MapBuffer(buffer *metadata.GpuBuffer) ([]byte, error) {
	if !buffer.Location.HostVisible() {
		return nil, core.NewError(core.ErrorKindMap, "map buffer "+buffer.Label, fmt.Errorf("%s memory cannot be mapped", buffer.Location))
	}
	vb := bufferOf(buffer)
	if vb.mapped == nil {
		var data unsafe.Pointer
		if res := vk.MapMemory(vr.context.Device.LogicalDevice, vb.Memory, 0, vk.DeviceSize(buffer.Size), 0, &data); res != vk.Success {
			return nil, resultError(core.ErrorKindMap, "vkMapMemory "+buffer.Label, res)
		}
		vb.mapped = data
	}
	return unsafe.Slice((*byte)(vb.mapped), buffer.Size), nil
}

func (vr *VulkanRenderer) UnmapBuffer(buffer *metadata.GpuBuffer) {
	vb := bufferOf(buffer)
	if vb.mapped != nil {
		vk.UnmapMemory(vr.context.Device.LogicalDevice, vb.Memory)
		vb.mapped = nil
	}
}
