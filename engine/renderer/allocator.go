package renderer

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// ResourceAllocator creates buffers and images and registers their
// destruction on a deletion queue.
type ResourceAllocator struct {
	device   Device
	deletion *core.DeletionQueue
}

func NewResourceAllocator(device Device, deletion *core.DeletionQueue) *ResourceAllocator {
	return &ResourceAllocator{device: device, deletion: deletion}
}

// CreateBuffer allocates a buffer and pushes its destroy onto the deletion
// queue.
func (a *ResourceAllocator) CreateBuffer(label string, size uint64, usage metadata.BufferUsage, location metadata.MemoryLocation) (*metadata.GpuBuffer, error) {
	buf, err := a.createBuffer(label, size, usage, location)
	if err != nil {
		return nil, err
	}
	a.deletion.Push(core.ResourceKindBuffer, label, func() {
		a.device.DestroyBuffer(buf)
	})
	return buf, nil
}

// createBuffer allocates without registering a destroy. Callers own the
// result.
func (a *ResourceAllocator) createBuffer(label string, size uint64, usage metadata.BufferUsage, location metadata.MemoryLocation) (*metadata.GpuBuffer, error) {
	if size == 0 {
		return nil, core.NewError(core.ErrorKindAllocation, "create buffer "+label, fmt.Errorf("zero size"))
	}
	buf, err := a.device.CreateBuffer(label, size, usage, location)
	if err != nil {
		core.LogError("failed to create buffer %s (%d bytes): %s", label, size, err)
		return nil, err
	}
	return buf, nil
}

// CreateBufferWithData allocates a host-visible buffer sized to data and
// copies data into it.
func (a *ResourceAllocator) CreateBufferWithData(label string, data []byte, usage metadata.BufferUsage, location metadata.MemoryLocation) (*metadata.GpuBuffer, error) {
	if !location.HostVisible() {
		return nil, core.NewError(core.ErrorKindMap, "create buffer "+label, fmt.Errorf("%s memory cannot be mapped", location))
	}
	buf, err := a.createBuffer(label, uint64(len(data)), usage, location)
	if err != nil {
		return nil, err
	}
	if err := a.WriteBuffer(buf, 0, data); err != nil {
		a.device.DestroyBuffer(buf)
		return nil, err
	}
	a.deletion.Push(core.ResourceKindBuffer, label, func() {
		a.device.DestroyBuffer(buf)
	})
	return buf, nil
}

// CreateBufferFrom is CreateBufferWithData over a typed slice.
func CreateBufferFrom[T any](a *ResourceAllocator, label string, items []T, usage metadata.BufferUsage, location metadata.MemoryLocation) (*metadata.GpuBuffer, error) {
	return a.CreateBufferWithData(label, metadata.SliceBytes(items), usage, location)
}

// WriteBuffer copies data into a host-visible buffer at offset.
func (a *ResourceAllocator) WriteBuffer(buf *metadata.GpuBuffer, offset uint64, data []byte) error {
	if !buf.Location.HostVisible() {
		return core.NewError(core.ErrorKindMap, "write buffer "+buf.Label, fmt.Errorf("%s memory cannot be mapped", buf.Location))
	}
	if offset+uint64(len(data)) > buf.Size {
		return core.NewError(core.ErrorKindMap, "write buffer "+buf.Label, fmt.Errorf("write of %d bytes at %d overflows %d byte buffer", len(data), offset, buf.Size))
	}
	mapped, err := a.device.MapBuffer(buf)
	if err != nil {
		core.LogError("failed to map buffer %s: %s", buf.Label, err)
		return err
	}
	copy(mapped[offset:], data)
	a.device.UnmapBuffer(buf)
	return nil
}

// CreateImage creates an image with its view. A failed view destroys the
// image before returning.
func (a *ResourceAllocator) CreateImage(label string, format metadata.ImageFormat, usage metadata.ImageUsage, aspect metadata.ImageAspect, extent metadata.Extent3D) (*metadata.GpuImage, error) {
	return a.CreateImageOn(a.deletion, label, format, usage, aspect, extent)
}

// CreateImageOn is CreateImage with an explicit deletion queue, for images
// whose lifetime is shorter than the allocator's, like the depth image that
// follows the swapchain.
func (a *ResourceAllocator) CreateImageOn(queue *core.DeletionQueue, label string, format metadata.ImageFormat, usage metadata.ImageUsage, aspect metadata.ImageAspect, extent metadata.Extent3D) (*metadata.GpuImage, error) {
	img, err := a.device.CreateImage(label, format, usage, extent)
	if err != nil {
		core.LogError("failed to create image %s: %s", label, err)
		return nil, err
	}
	if err := a.device.CreateImageView(img, aspect); err != nil {
		core.LogError("failed to create view for image %s: %s", label, err)
		a.device.DestroyImage(img)
		return nil, err
	}
	img.Aspect = aspect
	queue.Push(core.ResourceKindImage, label, func() {
		a.device.DestroyImage(img)
	})
	return img, nil
}

// PadUniformBufferSize rounds size up to the device's minimum uniform buffer
// offset alignment.
func (a *ResourceAllocator) PadUniformBufferSize(size uint64) uint64 {
	return math.AlignUp(size, a.device.Properties().MinUniformBufferOffsetAlignment)
}

func (a *ResourceAllocator) Deletion() *core.DeletionQueue {
	return a.deletion
}
