package renderer

import (
	"time"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// UploadContext runs one-off command buffers on the graphics queue and waits
// for them, for staging copies at load time.
type UploadContext struct {
	backend   RendererBackend
	allocator *ResourceAllocator
	pool      *metadata.CommandPool
	cmd       *metadata.CommandBuffer
	fence     *metadata.Fence
	timeout   time.Duration
}

func NewUploadContext(backend RendererBackend, allocator *ResourceAllocator, deletion *core.DeletionQueue, timeout time.Duration) (*UploadContext, error) {
	pool, err := backend.CreateCommandPool("upload_pool")
	if err != nil {
		return nil, err
	}
	deletion.Push(core.ResourceKindCommandPool, pool.Label, func() {
		backend.DestroyCommandPool(pool)
	})

	cmd, err := backend.AllocateCommandBuffer(pool, "upload_cmd")
	if err != nil {
		return nil, err
	}

	fence, err := backend.CreateFence("upload_fence", false)
	if err != nil {
		return nil, err
	}
	deletion.Push(core.ResourceKindFence, fence.Label, func() {
		backend.DestroyFence(fence)
	})

	return &UploadContext{
		backend:   backend,
		allocator: allocator,
		pool:      pool,
		cmd:       cmd,
		fence:     fence,
		timeout:   timeout,
	}, nil
}

// SubmitImmediately records with record, submits and blocks until the GPU is
// done. The fence and pool are reset afterwards so the context can be reused.
func (u *UploadContext) SubmitImmediately(record func(cmd *metadata.CommandBuffer)) error {
	if err := u.backend.BeginCommandBuffer(u.cmd, true); err != nil {
		return err
	}
	record(u.cmd)
	if err := u.backend.EndCommandBuffer(u.cmd); err != nil {
		return err
	}
	if err := u.backend.Submit(u.cmd, nil, nil, u.fence); err != nil {
		core.LogError("immediate submit failed: %s", err)
		return err
	}
	if err := u.backend.WaitForFence(u.fence, u.timeout); err != nil {
		core.LogError("immediate submit never completed: %s", err)
		return err
	}
	if err := u.backend.ResetFence(u.fence); err != nil {
		return err
	}
	return u.backend.ResetCommandPool(u.pool)
}

// UploadBuffer copies data into a new device-local buffer through a staging
// buffer. The staging buffer is destroyed before returning.
func (u *UploadContext) UploadBuffer(label string, data []byte, usage metadata.BufferUsage) (*metadata.GpuBuffer, error) {
	size := uint64(len(data))
	staging, err := u.allocator.createBuffer(label+"_staging", size, metadata.BufferUsageTransferSrc, metadata.MemoryLocationCpuOnly)
	if err != nil {
		return nil, err
	}
	defer u.backend.DestroyBuffer(staging)

	if err := u.allocator.WriteBuffer(staging, 0, data); err != nil {
		return nil, err
	}

	dst, err := u.allocator.CreateBuffer(label, size, usage|metadata.BufferUsageTransferDst, metadata.MemoryLocationGpuOnly)
	if err != nil {
		return nil, err
	}

	if err := u.SubmitImmediately(func(cmd *metadata.CommandBuffer) {
		u.backend.CmdCopyBuffer(cmd, staging, dst, size)
	}); err != nil {
		return nil, err
	}
	return dst, nil
}

// UploadMesh uploads the vertices and indices of mesh into device-local
// buffers.
func (u *UploadContext) UploadMesh(mesh *metadata.Mesh) error {
	vb, err := u.UploadBuffer(mesh.Name+"_vertices", metadata.SliceBytes(mesh.Vertices), metadata.BufferUsageVertex)
	if err != nil {
		return err
	}
	ib, err := u.UploadBuffer(mesh.Name+"_indices", metadata.SliceBytes(mesh.Indices), metadata.BufferUsageIndex)
	if err != nil {
		return err
	}
	mesh.VertexBuffer = vb
	mesh.IndexBuffer = ib
	return nil
}
