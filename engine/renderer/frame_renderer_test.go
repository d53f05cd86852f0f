package renderer

import (
	"fmt"
	"testing"
	"time"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T, framesInFlight int) (*Renderer, *mockBackend, *mockTarget) {
	t.Helper()
	mock := newMockBackend()
	target := &mockTarget{width: 800, height: 600}
	r := New(mock)
	require.NoError(t, r.Initialize(Options{
		Backend:        metadata.RendererBackendConfig{ApplicationName: "test"},
		FramesInFlight: framesInFlight,
		FenceTimeout:   time.Second,
	}, target))
	mock.reset()
	return r, mock, target
}

func testInputs() *metadata.FrameInputs {
	return &metadata.FrameInputs{
		Projection: math.NewMat4Perspective(math.K_HALF_PI, 800.0/600.0, 0.1, 512),
		View:       math.NewMat4LookAt(math.NewVec3(2, 3, 4), math.NewVec3Zero(), math.NewVec3Up()),
		Clear:      metadata.ClearValues{Color: [4]float32{0, 0, 1, 1}, Depth: 1},
		Scene:      metadata.SceneUniform{AmbientColor: math.NewVec4(0.1, 0.1, 0.1, 1)},
	}
}

// addScene uploads meshCount meshes, builds pipelineCount pipelines and adds
// one renderable per (pipeline, mesh) pair in scrambled order.
func addScene(t *testing.T, r *Renderer, pipelineCount, meshCount int) {
	t.Helper()
	var pipelines []*metadata.Pipeline
	for i := 0; i < pipelineCount; i++ {
		p, err := r.Pipelines.Build(fmt.Sprintf("pipeline%d", i), simpleDesc())
		require.NoError(t, err)
		pipelines = append(pipelines, p)
	}
	var meshes []*metadata.Mesh
	for i := 0; i < meshCount; i++ {
		mesh := &metadata.Mesh{
			Name:     fmt.Sprintf("mesh%d", i),
			Vertices: make([]metadata.Vertex, 3),
			Indices:  []uint32{0, 1, 2},
			World:    math.NewMat4Identity(),
		}
		require.NoError(t, r.Upload.UploadMesh(mesh))
		require.NoError(t, r.Registry.RegisterMesh(mesh))
		meshes = append(meshes, mesh)
	}
	for i := len(pipelines) - 1; i >= 0; i-- {
		for j := len(meshes) - 1; j >= 0; j-- {
			require.NoError(t, r.Registry.AddRenderable(metadata.Renderable{Mesh: meshes[j], Pipeline: pipelines[i], World: meshes[j].World}))
		}
	}
	r.Registry.SortRenderables()
}

func assertInOrder(t *testing.T, mock *mockBackend, calls ...string) {
	t.Helper()
	last := -1
	for _, c := range calls {
		idx := mock.indexOf(c)
		require.NotEqual(t, -1, idx, "missing call %q", c)
		assert.Greater(t, idx, last, "call %q out of order", c)
		last = idx
	}
}

func TestDrawFollowsFrameProtocol(t *testing.T) {
	r, mock, _ := newTestRenderer(t, 2)
	addScene(t, r, 1, 1)
	mock.reset()

	require.NoError(t, r.DrawFrame(testInputs()))

	assertInOrder(t, mock,
		"WaitForFence frame0_render_fence",
		"ResetFence frame0_render_fence",
		"AcquireNextImage",
		"MapBuffer frame0_camera",
		"MapBuffer scene_uniforms",
		"ResetCommandBuffer frame0_command_buffer",
		"BeginCommandBuffer frame0_command_buffer",
		"CmdBeginRendering 0",
		"CmdBindPipeline pipeline0",
		"CmdBindDescriptorSet frame0_global [0]",
		"CmdBindVertexBuffer mesh0_vertices",
		"CmdBindIndexBuffer mesh0_indices",
		"CmdPushConstants 64",
		"CmdDrawIndexed 3 1",
		"CmdEndRendering 0",
		"EndCommandBuffer frame0_command_buffer",
		"Submit frame0_command_buffer",
		"Present 0",
	)
	assert.Equal(t, uint64(1), r.Frames.Frames().FrameNumber())
}

func TestDrawReusesSlotsModuloDepth(t *testing.T) {
	for _, depth := range []int{2, 3} {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			r, mock, _ := newTestRenderer(t, depth)

			for i := 0; i < 2*depth+1; i++ {
				require.NoError(t, r.DrawFrame(testInputs()))
			}

			waits := mock.callsWithPrefix("WaitForFence")
			resets := mock.callsWithPrefix("ResetCommandBuffer")
			require.Len(t, waits, 2*depth+1)
			for i := range waits {
				slot := i % depth
				assert.Equal(t, fmt.Sprintf("WaitForFence frame%d_render_fence", slot), waits[i])
				assert.Equal(t, fmt.Sprintf("ResetCommandBuffer frame%d_command_buffer", slot), resets[i])
			}
		})
	}
}

func TestDrawWaitsBeforeResettingCommandBuffer(t *testing.T) {
	r, mock, _ := newTestRenderer(t, 2)
	for i := 0; i < 4; i++ {
		require.NoError(t, r.DrawFrame(testInputs()))
	}
	lastWait := map[string]int{}
	for i, c := range mock.calls {
		var slot int
		if _, err := fmt.Sscanf(c, "WaitForFence frame%d_render_fence", &slot); err == nil {
			lastWait[fmt.Sprint(slot)] = i
		}
		if _, err := fmt.Sscanf(c, "ResetCommandBuffer frame%d_command_buffer", &slot); err == nil {
			w, ok := lastWait[fmt.Sprint(slot)]
			require.True(t, ok, "slot %d reset before any wait", slot)
			assert.Less(t, w, i)
		}
	}
}

func TestDrawBatchesBinds(t *testing.T) {
	r, mock, _ := newTestRenderer(t, 2)
	addScene(t, r, 2, 3)
	mock.reset()

	require.NoError(t, r.DrawFrame(testInputs()))

	stats := r.Frames.LastStats()
	assert.Equal(t, 2, stats.PipelineBinds)
	assert.Equal(t, 6, stats.Draws)
	// Sorted by pipeline then mesh, so each pipeline walks all three meshes.
	assert.Equal(t, 6, stats.MeshBinds)
	assert.Len(t, mock.callsWithPrefix("CmdBindPipeline"), 2)
	assert.Len(t, mock.callsWithPrefix("CmdBindVertexBuffer"), 6)
	assert.Len(t, mock.callsWithPrefix("CmdDrawIndexed"), 6)
	assert.Len(t, mock.callsWithPrefix("CmdPushConstants"), 6)
}

func TestDrawSharedMeshIsBoundOnce(t *testing.T) {
	r, mock, _ := newTestRenderer(t, 2)
	addScene(t, r, 1, 1)
	mesh, _ := r.Registry.Mesh("mesh0")
	p, _ := r.Pipelines.Get("pipeline0")
	for i := 0; i < 4; i++ {
		require.NoError(t, r.Registry.AddRenderable(metadata.Renderable{Mesh: mesh, Pipeline: p,
			World: math.NewMat4Translation(math.NewVec3(float32(i), 0, 0))}))
	}
	mock.reset()

	require.NoError(t, r.DrawFrame(testInputs()))
	assert.Equal(t, FrameStats{PipelineBinds: 1, MeshBinds: 1, Draws: 5}, r.Frames.LastStats())
}

func TestDrawEmptySceneStillPresents(t *testing.T) {
	r, mock, _ := newTestRenderer(t, 2)

	require.NoError(t, r.DrawFrame(testInputs()))
	assert.Equal(t, FrameStats{}, r.Frames.LastStats())
	assert.Empty(t, mock.callsWithPrefix("CmdDrawIndexed"))
	assert.Empty(t, mock.callsWithPrefix("CmdBindPipeline"))
	assertInOrder(t, mock, "CmdBeginRendering 0", "CmdEndRendering 0", "Submit frame0_command_buffer", "Present 0")
}

func TestDrawWritesUniformsForSlot(t *testing.T) {
	r, mock, _ := newTestRenderer(t, 2)
	inputs := testInputs()

	require.NoError(t, r.DrawFrame(inputs))
	require.NoError(t, r.DrawFrame(inputs))
	assert.Contains(t, mock.calls, "CmdBindDescriptorSet frame1_global [256]")

	slot := r.Frames.frames.ring.At(1)
	expected := metadata.CameraUniform{
		Projection:     inputs.Projection,
		View:           inputs.View,
		ViewProjection: inputs.View.Mul(inputs.Projection),
	}
	assert.Equal(t, metadata.AsBytes(&expected), slot.CameraBuffer.InternalData.([]byte))

	scene := r.Frames.sceneBuffer.InternalData.([]byte)
	assert.Len(t, scene, 512)
	assert.Equal(t, metadata.AsBytes(&inputs.Scene), scene[256:256+80])
}

func TestDrawOutOfDateAcquireRecreatesSwapchain(t *testing.T) {
	r, mock, target := newTestRenderer(t, 2)
	mock.acquireErrs = []error{core.ErrSwapchainBooting}
	target.width, target.height = 1024, 768

	err := r.DrawFrame(testInputs())
	assert.ErrorIs(t, err, core.ErrSwapchainBooting)
	assertInOrder(t, mock,
		"ResetFence frame0_render_fence",
		"AcquireNextImage",
		"SignalFence frame0_render_fence",
		"WaitIdle",
		"DestroyImage depth_image",
		"RecreateSwapchain 1024x768",
		"CreateImage depth_image 1024x768",
		"SetDepthAttachment depth_image",
	)
	assert.Empty(t, mock.callsWithPrefix("Submit"))
	assert.Equal(t, uint64(0), r.Frames.Frames().FrameNumber(), "dropped frame keeps its slot")

	mock.reset()
	require.NoError(t, r.DrawFrame(testInputs()), "fence was restored so the slot can be waited on")
	assert.Contains(t, mock.calls, "Submit frame0_command_buffer")
}

func TestDrawAcquireFailureIsReported(t *testing.T) {
	r, mock, _ := newTestRenderer(t, 2)
	mock.acquireErrs = []error{core.NewResultError(core.ErrorKindFrameAcquire, "acquire", "VK_ERROR_SURFACE_LOST_KHR")}

	err := r.DrawFrame(testInputs())
	assert.ErrorIs(t, err, core.ErrFrameAcquire)
	assert.Contains(t, mock.calls, "SignalFence frame0_render_fence")
	assert.Empty(t, mock.callsWithPrefix("RecreateSwapchain"))
}

func TestDrawSuboptimalPresentRecreatesSwapchain(t *testing.T) {
	r, mock, _ := newTestRenderer(t, 2)
	mock.presentRecreate = []bool{true}

	err := r.DrawFrame(testInputs())
	assert.ErrorIs(t, err, core.ErrSwapchainBooting)
	assertInOrder(t, mock, "Submit frame0_command_buffer", "Present 0", "WaitIdle", "RecreateSwapchain 800x600")
	assert.Equal(t, uint64(1), r.Frames.Frames().FrameNumber())
}

func TestDrawSkipsZeroSizedFramebuffer(t *testing.T) {
	r, mock, target := newTestRenderer(t, 2)
	target.width, target.height = 0, 0

	require.NoError(t, r.DrawFrame(testInputs()))
	assert.Empty(t, mock.calls)

	r.OnResize()
	require.NoError(t, r.DrawFrame(testInputs()))
	assert.Empty(t, mock.calls)

	target.width, target.height = 640, 480
	assert.ErrorIs(t, r.DrawFrame(testInputs()), core.ErrSwapchainBooting)
	assert.Contains(t, mock.calls, "RecreateSwapchain 640x480")

	require.NoError(t, r.DrawFrame(testInputs()))
}

func TestDrawFenceTimeoutIsDeviceLost(t *testing.T) {
	r, mock, _ := newTestRenderer(t, 2)
	r.Frames.Frames().Current().RenderFence.InternalData.(*mockFence).signaled = false

	err := r.DrawFrame(testInputs())
	assert.ErrorIs(t, err, core.ErrDeviceLost)
	assert.Empty(t, mock.callsWithPrefix("ResetFence"))
	assert.Empty(t, mock.callsWithPrefix("ResetCommandBuffer"))
}

func TestDrawSubmitFailureRestoresFence(t *testing.T) {
	r, mock, _ := newTestRenderer(t, 2)
	mock.fail["Submit"] = core.NewResultError(core.ErrorKindFrameSubmit, "submit", "VK_ERROR_OUT_OF_HOST_MEMORY")

	err := r.DrawFrame(testInputs())
	assert.ErrorIs(t, err, core.ErrFrameSubmit)
	assert.Contains(t, mock.calls, "SignalFence frame0_render_fence waiting frame0_image_available")
	assert.Equal(t, metadata.FrameStateIdle, r.Frames.Frames().Current().State)
}

func TestDrawRecoversFromFailedFrame(t *testing.T) {
	for _, step := range []string{
		"MapBuffer",
		"ResetCommandBuffer",
		"BeginCommandBuffer",
		"EndCommandBuffer",
		"Submit",
	} {
		t.Run(step, func(t *testing.T) {
			r, mock, _ := newTestRenderer(t, 2)
			addScene(t, r, 1, 1)
			mock.reset()

			mock.fail[step] = errInjected
			err := r.DrawFrame(testInputs())
			require.ErrorIs(t, err, errInjected)
			assert.NotErrorIs(t, err, core.ErrDeviceLost)
			delete(mock.fail, step)

			ring := r.Frames.Frames()
			assert.Equal(t, uint64(0), ring.FrameNumber(), "dropped frame keeps its slot")
			assert.Equal(t, metadata.FrameStateIdle, ring.Current().State)
			assert.True(t, ring.Current().RenderFence.InternalData.(*mockFence).signaled)
			assert.Contains(t, mock.calls, "SignalFence frame0_render_fence waiting frame0_image_available")
			assert.Empty(t, mock.callsWithPrefix("Present"))

			// The unpresented image is handed back by rebuilding the swapchain.
			mock.reset()
			assert.ErrorIs(t, r.DrawFrame(testInputs()), core.ErrSwapchainBooting)
			assert.Contains(t, mock.calls, "RecreateSwapchain 800x600")

			mock.reset()
			require.NoError(t, r.DrawFrame(testInputs()))
			assertInOrder(t, mock,
				"WaitForFence frame0_render_fence",
				"AcquireNextImage",
				"Submit frame0_command_buffer",
			)
			assert.Len(t, mock.callsWithPrefix("Present"), 1)
			assert.Equal(t, uint64(1), ring.FrameNumber())
		})
	}
}

func TestDrawRejectsSemaphoreWithPendingSignal(t *testing.T) {
	r, mock, _ := newTestRenderer(t, 2)
	mock.pending["frame0_image_available"] = true

	err := r.DrawFrame(testInputs())
	assert.ErrorIs(t, err, core.ErrFrameAcquire)
	assert.Contains(t, mock.calls, "SignalFence frame0_render_fence")
}

func TestFrameRingRejectsBadDepth(t *testing.T) {
	mock := newMockBackend()
	queue := core.NewDeletionQueue("test")
	a := NewResourceAllocator(mock, queue)
	for _, depth := range []int{0, 1, 4} {
		_, err := NewFrameRing(mock, a, queue, depth, &metadata.DescriptorSetLayout{}, &metadata.DescriptorPool{}, &metadata.GpuBuffer{})
		assert.Error(t, err)
	}
}

func TestFrameRingBeginRefusesSubmittedSlot(t *testing.T) {
	r, _, _ := newTestRenderer(t, 2)
	ring := r.Frames.Frames()
	frame := ring.Current()
	frame.State = metadata.FrameStateSubmitted
	assert.Error(t, ring.Begin(frame))

	require.NoError(t, ring.Wait(frame, time.Second))
	assert.NoError(t, ring.Begin(frame))
	assert.Equal(t, metadata.FrameStateRecording, frame.State)
}

func TestRendererShutdownReleasesEverything(t *testing.T) {
	r, mock, _ := newTestRenderer(t, 3)
	addScene(t, r, 2, 2)
	require.NoError(t, r.DrawFrame(testInputs()))
	require.NotEmpty(t, mock.live)

	require.NoError(t, r.Shutdown())
	assert.Empty(t, mock.live)
	assert.Equal(t, "Shutdown", mock.calls[len(mock.calls)-1])
	assertInOrder(t, mock,
		"WaitIdle",
		"DestroyImage depth_image",
		"DestroyPipeline pipeline1",
		"DestroyPipeline pipeline0",
		"DestroyDescriptorSetLayout global_layout",
		"DestroyFence upload_fence",
		"Shutdown",
	)

	require.NoError(t, r.Shutdown())
}

func TestRendererInitializeFailure(t *testing.T) {
	mock := newMockBackend()
	mock.fail["Initialize"] = core.NewError(core.ErrorKindDeviceInit, "no device", nil)
	r := New(mock)

	err := r.Initialize(Options{FramesInFlight: 2, FenceTimeout: time.Second}, &mockTarget{width: 1, height: 1})
	assert.ErrorIs(t, err, core.ErrDeviceInit)
	require.NoError(t, r.Shutdown())
	assert.NotContains(t, mock.calls, "Shutdown")
}
