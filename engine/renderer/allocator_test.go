package renderer

import (
	"testing"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBufferWithDataRoundTrip(t *testing.T) {
	mock := newMockBackend()
	queue := core.NewDeletionQueue("test")
	a := NewResourceAllocator(mock, queue)

	data := []byte{1, 2, 3, 4, 5, 6, 7}
	buf, err := a.CreateBufferWithData("blob", data, metadata.BufferUsageUniform, metadata.MemoryLocationCpuToGpu)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(data)), buf.Size)
	assert.Equal(t, data, buf.InternalData.([]byte))
	assert.Equal(t, []string{"CreateBuffer blob", "MapBuffer blob", "UnmapBuffer blob"}, mock.calls)

	assert.Equal(t, 1, queue.Len())
	queue.Flush()
	assert.Empty(t, mock.live)
}

func TestCreateBufferFromTypedSlice(t *testing.T) {
	mock := newMockBackend()
	a := NewResourceAllocator(mock, core.NewDeletionQueue("test"))

	indices := []uint32{0, 1, 2}
	buf, err := CreateBufferFrom(a, "indices", indices, metadata.BufferUsageIndex, metadata.MemoryLocationCpuToGpu)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), buf.Size)
	assert.Equal(t, metadata.SliceBytes(indices), buf.InternalData.([]byte))
}

func TestCreateBufferWithDataRejectsGpuOnly(t *testing.T) {
	mock := newMockBackend()
	queue := core.NewDeletionQueue("test")
	a := NewResourceAllocator(mock, queue)

	_, err := a.CreateBufferWithData("blob", []byte{1}, metadata.BufferUsageVertex, metadata.MemoryLocationGpuOnly)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMap)
	assert.Empty(t, mock.calls, "nothing may be allocated")
	assert.Equal(t, 0, queue.Len())
}

func TestCreateBufferWithDataMapFailureReleasesBuffer(t *testing.T) {
	mock := newMockBackend()
	mock.fail["MapBuffer"] = core.NewResultError(core.ErrorKindMap, "map", "VK_ERROR_MEMORY_MAP_FAILED")
	queue := core.NewDeletionQueue("test")
	a := NewResourceAllocator(mock, queue)

	_, err := a.CreateBufferWithData("blob", []byte{1}, metadata.BufferUsageUniform, metadata.MemoryLocationCpuToGpu)
	assert.ErrorIs(t, err, core.ErrMap)
	assert.Empty(t, mock.live)
	assert.Equal(t, 0, queue.Len())
}

func TestCreateBufferFailureIsReported(t *testing.T) {
	mock := newMockBackend()
	mock.fail["CreateBuffer"] = core.NewResultError(core.ErrorKindAllocation, "create buffer", "VK_ERROR_OUT_OF_DEVICE_MEMORY")
	queue := core.NewDeletionQueue("test")
	a := NewResourceAllocator(mock, queue)

	_, err := a.CreateBuffer("big", 1<<40, metadata.BufferUsageStorage, metadata.MemoryLocationGpuOnly)
	assert.ErrorIs(t, err, core.ErrAllocation)
	assert.Equal(t, 0, queue.Len())

	_, err = a.CreateBuffer("empty", 0, metadata.BufferUsageStorage, metadata.MemoryLocationGpuOnly)
	assert.ErrorIs(t, err, core.ErrAllocation)
}

func TestWriteBufferBounds(t *testing.T) {
	mock := newMockBackend()
	a := NewResourceAllocator(mock, core.NewDeletionQueue("test"))

	buf, err := a.CreateBuffer("ubo", 8, metadata.BufferUsageUniform, metadata.MemoryLocationCpuToGpu)
	require.NoError(t, err)
	require.NoError(t, a.WriteBuffer(buf, 4, []byte{9, 9, 9, 9}))
	assert.Equal(t, []byte{0, 0, 0, 0, 9, 9, 9, 9}, buf.InternalData.([]byte))

	assert.ErrorIs(t, a.WriteBuffer(buf, 6, []byte{1, 2, 3}), core.ErrMap)

	gpu, err := a.CreateBuffer("vb", 8, metadata.BufferUsageVertex, metadata.MemoryLocationGpuOnly)
	require.NoError(t, err)
	assert.ErrorIs(t, a.WriteBuffer(gpu, 0, []byte{1}), core.ErrMap)
}

func TestPadUniformBufferSize(t *testing.T) {
	mock := newMockBackend()
	a := NewResourceAllocator(mock, core.NewDeletionQueue("test"))

	for _, size := range []uint64{0, 1, 80, 255, 256, 257, 1000} {
		padded := a.PadUniformBufferSize(size)
		assert.GreaterOrEqual(t, padded, size)
		assert.Zero(t, padded%256)
		assert.Less(t, padded-size, uint64(256))
		assert.Equal(t, padded, a.PadUniformBufferSize(padded), "padding is idempotent")
	}
	assert.Equal(t, uint64(256), a.PadUniformBufferSize(80))

	mock.props.MinUniformBufferOffsetAlignment = 0
	assert.Equal(t, uint64(80), a.PadUniformBufferSize(80))
}

func TestCreateImageViewFailureDestroysImage(t *testing.T) {
	mock := newMockBackend()
	mock.fail["CreateImageView"] = core.NewResultError(core.ErrorKindViewCreation, "create view", "VK_ERROR_OUT_OF_HOST_MEMORY")
	queue := core.NewDeletionQueue("test")
	a := NewResourceAllocator(mock, queue)

	_, err := a.CreateImage("depth", metadata.ImageFormatD32Sfloat, metadata.ImageUsageDepthStencilAttachment,
		metadata.ImageAspectDepth, metadata.Extent3D{Width: 4, Height: 4, Depth: 1})
	assert.ErrorIs(t, err, core.ErrViewCreation)
	assert.Empty(t, mock.live)
	assert.Equal(t, 0, queue.Len())
}

func TestCreateImage(t *testing.T) {
	mock := newMockBackend()
	queue := core.NewDeletionQueue("test")
	a := NewResourceAllocator(mock, queue)

	img, err := a.CreateImage("depth", metadata.ImageFormatD32Sfloat, metadata.ImageUsageDepthStencilAttachment,
		metadata.ImageAspectDepth, metadata.Extent3D{Width: 4, Height: 4, Depth: 1})
	require.NoError(t, err)
	assert.True(t, img.HasView)
	assert.Equal(t, metadata.ImageAspectDepth, img.Aspect)

	queue.Flush()
	assert.Equal(t, "DestroyImage depth", mock.calls[len(mock.calls)-1])
}

func TestDeletionOrderIsReverseOfCreation(t *testing.T) {
	mock := newMockBackend()
	queue := core.NewDeletionQueue("test")
	a := NewResourceAllocator(mock, queue)

	for _, label := range []string{"a", "b", "c"} {
		_, err := a.CreateBuffer(label, 4, metadata.BufferUsageUniform, metadata.MemoryLocationCpuToGpu)
		require.NoError(t, err)
	}
	mock.reset()
	queue.Flush()
	assert.Equal(t, []string{"DestroyBuffer c", "DestroyBuffer b", "DestroyBuffer a"}, mock.calls)

	queue.Flush()
	assert.Len(t, mock.calls, 3)
}
