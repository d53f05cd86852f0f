package platform

import (
	"fmt"
	"image"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/anima/engine/config"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform owns the window and implements renderer.PresentTarget.
type Platform struct {
	Window *glfw.Window

	resized    bool
	started    bool
	terminated bool
}

func New() (*Platform, error) {
	return &Platform{
		Window: nil,
	}, nil
}

// WindowSize returns the configured size, or 80% of the monitor when the
// configured size is zero.
func WindowSize(cfg config.WindowConfig, monitorWidth, monitorHeight int) (int, int) {
	if cfg.Width != 0 && cfg.Height != 0 {
		return int(cfg.Width), int(cfg.Height)
	}
	return monitorWidth * 80 / 100, monitorHeight * 80 / 100
}

func (p *Platform) Startup(cfg config.WindowConfig) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return core.NewError(core.ErrorKindSurface, "glfw.Init", err)
	}
	p.started = true
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		p.started = false
		return core.NewError(core.ErrorKindSurface, "glfw.VulkanSupported", fmt.Errorf("no vulkan loader found"))
	}

	monitor := glfw.GetPrimaryMonitor()
	mode := monitor.GetVideoMode()
	width, height := WindowSize(cfg, mode.Width, mode.Height)

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(width, height, cfg.Title, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		p.started = false
		return core.NewError(core.ErrorKindSurface, "glfw.CreateWindow", err)
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetPos((mode.Width-width)/2, (mode.Height-height)/2)
	p.Window.Show()

	core.LogInfo("window %q created (%dx%d)", cfg.Title, width, height)
	return nil
}

// SetIcon uses the decoded image as the window icon.
func (p *Platform) SetIcon(icon *metadata.ImageResourceData) {
	if p.Window == nil || icon == nil {
		return
	}
	img := &image.RGBA{
		Pix:    icon.Pixels,
		Stride: int(icon.Width) * 4,
		Rect:   image.Rect(0, 0, int(icon.Width), int(icon.Height)),
	}
	p.Window.SetIcon([]image.Image{img})
}

func (p *Platform) Shutdown() error {
	if !p.started || p.terminated {
		return nil
	}
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	p.terminated = true
	return nil
}

func (p *Platform) PumpMessages() {
	glfw.PollEvents()
}

// WaitMessages blocks until an event arrives or the timeout, in seconds,
// expires. Used while the window is minimized.
func (p *Platform) WaitMessages(timeout float64) {
	glfw.WaitEventsTimeout(timeout)
}

func (p *Platform) ShouldClose() bool {
	return p.Window == nil || p.Window.ShouldClose()
}

func (p *Platform) GetAbsoluteTime() float64 {
	return glfw.GetTime()
}

// ConsumeResize reports whether the framebuffer changed size since the last
// call.
func (p *Platform) ConsumeResize() bool {
	resized := p.resized
	p.resized = false
	return resized
}

func (p *Platform) CreateSurface(instance interface{}) (uintptr, error) {
	surface, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return 0, core.NewError(core.ErrorKindSurface, "CreateWindowSurface", err)
	}
	return surface, nil
}

func (p *Platform) RequiredExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

func (p *Platform) InstanceProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (p *Platform) FramebufferSize() (uint32, uint32) {
	if p.Window == nil {
		return 0, 0
	}
	w, h := p.Window.GetFramebufferSize()
	if w < 0 || h < 0 {
		return 0, 0
	}
	return uint32(w), uint32(h)
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.resized = true
	core.LogDebug("framebuffer resized to %dx%d", width, height)
}
