// Command vulkanite opens a window, bootstraps a Vulkan device, and renders
// a demo scene until the window is closed. Space cycles the active shader,
// escape quits.
package main

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vulkanite/vulkanite/bootstrap"
	"github.com/vulkanite/vulkanite/renderer"
)

func init() {
	// SDL event handling must stay on the main thread.
	runtime.LockOSThread()
}

type config struct {
	Width      int32 `toml:"width"`
	Height     int32 `toml:"height"`
	Validation bool  `toml:"validation"`

	FrameOverlap int `toml:"frame_overlap"`
	MaxObjects   int `toml:"max_objects"`

	ShaderDir string            `toml:"shader_dir"`
	Meshes    map[string]string `toml:"meshes"`

	CameraPosition [3]float32 `toml:"camera_position"`
	ClearColor     [4]float32 `toml:"clear_color"`
}

func defaultConfig() config {
	return config{
		Width:          1700,
		Height:         900,
		FrameOverlap:   renderer.DefaultFrameOverlap,
		MaxObjects:     renderer.DefaultMaxObjects,
		ShaderDir:      "shaders",
		Meshes:         map[string]string{"monkey": filepath.Join("assets", "monkey_smooth.obj")},
		CameraPosition: [3]float32{0, -6, -10},
		ClearColor:     [4]float32{0, 0, 0, 1},
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = toml.Unmarshal(data, &cfg)
	return cfg, err
}

// sdlSignals translates the SDL event queue into render loop signals. It
// drains every pending event each frame.
type sdlSignals struct{}

func (sdlSignals) Poll() renderer.Signal {
	signal := renderer.SignalNone
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			return renderer.SignalQuit
		case *sdl.KeyboardEvent:
			if ev.Type != sdl.KEYDOWN {
				continue
			}
			switch ev.Keysym.Sym {
			case sdl.K_ESCAPE:
				return renderer.SignalQuit
			case sdl.K_SPACE:
				signal = renderer.SignalNextShader
			}
		}
	}
	return signal
}

// triangleVertices is a built-in mesh so the demo renders even without any
// OBJ assets on disk.
func triangleVertices() []renderer.Vertex {
	green := mgl32.Vec3{0, 1, 0}
	return []renderer.Vertex{
		{Position: mgl32.Vec3{1, 1, 0}, Color: green},
		{Position: mgl32.Vec3{-1, 1, 0}, Color: green},
		{Position: mgl32.Vec3{0, -1, 0}, Color: green},
	}
}

func buildScene(engine *renderer.Engine, logger *log.Logger) error {
	defaultMaterial := engine.GetMaterial("defaultmesh")

	if monkey := engine.GetMesh("monkey"); monkey != nil {
		err := engine.AddRenderObject(renderer.RenderObject{
			Mesh:      monkey,
			Material:  defaultMaterial,
			Transform: mgl32.Ident4(),
		})
		if err != nil {
			return err
		}
	} else {
		logger.Warn("monkey mesh not loaded, rendering triangles only")
	}

	triangle := engine.GetMesh("triangle")
	for x := -20; x <= 20; x++ {
		for y := -20; y <= 20; y++ {
			transform := mgl32.Translate3D(float32(x), 0, float32(y)).
				Mul4(mgl32.Scale3D(0.2, 0.2, 0.2))
			err := engine.AddRenderObject(renderer.RenderObject{
				Mesh:      triangle,
				Material:  defaultMaterial,
				Transform: transform,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func run(cfg config, logger *log.Logger) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return err
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("vulkanite",
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		cfg.Width, cfg.Height,
		sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN)
	if err != nil {
		return err
	}
	defer window.Destroy()

	boot, err := bootstrap.New(window, bootstrap.Options{
		AppName:          "vulkanite",
		EnableValidation: cfg.Validation,
		Logger:           logger.WithPrefix("bootstrap"),
	})
	if err != nil {
		return err
	}
	defer boot.Destroy()

	engine, err := renderer.New(*boot.GPU(), renderer.Options{
		FrameOverlap:   cfg.FrameOverlap,
		MaxObjects:     cfg.MaxObjects,
		ClearColor:     cfg.ClearColor,
		CameraPosition: mgl32.Vec3(cfg.CameraPosition),
		Logger:         logger.WithPrefix("renderer"),
	})
	if err != nil {
		return err
	}
	defer engine.Cleanup()

	meshVert := filepath.Join(cfg.ShaderDir, "tri_mesh.vert.spv")
	if _, err := engine.CreateMeshMaterial("defaultmesh", meshVert, filepath.Join(cfg.ShaderDir, "default_lit.frag.spv")); err != nil {
		return err
	}
	if _, err := engine.CreateMeshMaterial("coloredmesh", meshVert, filepath.Join(cfg.ShaderDir, "colored_triangle.frag.spv")); err != nil {
		return err
	}
	if err := engine.SetShaderCycle("defaultmesh", "coloredmesh"); err != nil {
		return err
	}

	if err := engine.LoadMeshes(cfg.Meshes); err != nil {
		// Missing assets degrade the scene but should not kill the demo.
		logger.Warn("could not load meshes", "err", err)
	}
	if _, err := engine.UploadMesh("triangle", triangleVertices()); err != nil {
		return err
	}

	engine.SetSceneParameters(renderer.GPUSceneData{
		FogColor:          mgl32.Vec4{0.1, 0.1, 0.1, 1},
		FogDistances:      mgl32.Vec4{0.992, 1, 0, 0},
		AmbientColor:      mgl32.Vec4{0.2, 0.2, 0.2, 1},
		SunlightDirection: mgl32.Vec4{0, -1, 0, 1},
		SunlightColor:     mgl32.Vec4{1, 1, 1, 1},
	})

	if err := buildScene(engine, logger); err != nil {
		return err
	}

	engine.Run(sdlSignals{})
	return nil
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "vulkanite",
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal("could not load config", "path", *configPath, "err", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("startup failed", "err", err)
	}
}
