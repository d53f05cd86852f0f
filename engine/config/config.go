package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima/engine/core"
)

const DefaultPath = "anima.toml"

type WindowConfig struct {
	Title string `toml:"title"`
	// Width and Height of zero size the window to 80% of the primary monitor.
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	VSync  bool   `toml:"vsync"`
	Icon   string `toml:"icon"`
}

type RendererConfig struct {
	FramesInFlight uint32 `toml:"frames_in_flight"`
	Validation     bool   `toml:"validation"`
	FenceTimeoutMS uint32 `toml:"fence_timeout_ms"`
}

type AssetsConfig struct {
	Root           string `toml:"root"`
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
	Scene          string `toml:"scene"`
	Watch          bool   `toml:"watch"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// ApplicationConfig is the decoded anima.toml.
type ApplicationConfig struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Assets   AssetsConfig   `toml:"assets"`
	Log      LogConfig      `toml:"log"`
}

func Default() *ApplicationConfig {
	return &ApplicationConfig{
		Window: WindowConfig{
			Title: "Fuk",
			VSync: true,
		},
		Renderer: RendererConfig{
			FramesInFlight: 2,
			Validation:     true,
			FenceTimeoutMS: 1000,
		},
		Assets: AssetsConfig{
			Root:           "data",
			VertexShader:   "shaders/Simple.vs.glsl.spv",
			FragmentShader: "shaders/Simple.fs.glsl.spv",
			Scene:          "models/deccer-cubes/SM_Deccer_Cubes_Textured_Complex.gltf",
			Watch:          true,
		},
		Log: LogConfig{
			Level: string(core.LogLevelInfo),
		},
	}
}

// Load reads the file at path on top of the defaults. A missing file is not
// an error.
func Load(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		core.LogWarn("config file %s not found, using defaults", path)
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*ApplicationConfig, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("invalid config at %d:%d: %w", row, col, err)
		}
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.Renderer.FramesInFlight < 2 || c.Renderer.FramesInFlight > 3 {
		return fmt.Errorf("renderer.frames_in_flight must be 2 or 3, got %d", c.Renderer.FramesInFlight)
	}
	if c.Renderer.FenceTimeoutMS == 0 {
		return errors.New("renderer.fence_timeout_ms must be positive")
	}
	if (c.Window.Width == 0) != (c.Window.Height == 0) {
		return errors.New("window.width and window.height must both be set or both be zero")
	}
	if _, ok := core.ParseLogLevel(c.Log.Level); !ok {
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	if c.Assets.VertexShader == "" || c.Assets.FragmentShader == "" {
		return errors.New("assets.vertex_shader and assets.fragment_shader are required")
	}
	return nil
}

func (c *ApplicationConfig) FenceTimeout() time.Duration {
	return time.Duration(c.Renderer.FenceTimeoutMS) * time.Millisecond
}

func (c *ApplicationConfig) LogLevel() core.LogLevel {
	level, _ := core.ParseLogLevel(c.Log.Level)
	return level
}

// AssetPath resolves a path relative to the assets root.
func (c *ApplicationConfig) AssetPath(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Assets.Root, rel)
}
