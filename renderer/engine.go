// Package renderer implements a minimal real-time 3D renderer on Vulkan:
// a fixed number of frames in flight, a dynamic-offset scene uniform buffer,
// name-keyed mesh and material registries, and a deferred-destruction queue
// for every GPU resource the engine creates.
package renderer

import (
	"time"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/v2/core1_0"
)

const frameStatsInterval = 600

// Engine owns all rendering state for one device. It is not safe for
// concurrent use; Run drives it from a single goroutine.
type Engine struct {
	gpu    GPU
	opts   Options
	logger *log.Logger

	frameNumber    uint64
	selectedShader int

	allocator         *Allocator
	mainDeletionQueue DeletionQueue

	renderPass     core1_0.RenderPass
	framebuffers   []core1_0.Framebuffer
	depthImage     AllocatedImage
	depthImageView core1_0.ImageView

	frames []FrameSlot

	globalSetLayout      core1_0.DescriptorSetLayout
	objectSetLayout      core1_0.DescriptorSetLayout
	descriptorPool       core1_0.DescriptorPool
	sceneParameters      GPUSceneData
	sceneParameterBuffer AllocatedBuffer
	sceneStride          int

	meshes      map[string]*Mesh
	materials   map[string]*Material
	renderables []RenderObject
	shaderCycle []*Material

	frameTimeTotal time.Duration
	frameTimeCount int
}

// New builds an engine over an already-bootstrapped device. Failures are
// returned, not fatal; resources created before the failing step sit on the
// deletion queue and are released by Cleanup.
func New(gpu GPU, opts Options) (*Engine, error) {
	if err := gpu.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		gpu:       gpu,
		opts:      opts,
		logger:    opts.Logger,
		allocator: NewAllocator(gpu.Device, gpu.PhysicalDevice.MemoryProperties()),
		frames:    make([]FrameSlot, opts.FrameOverlap),
		meshes:    make(map[string]*Mesh),
		materials: make(map[string]*Material),
	}

	e.logger.Info("initializing engine",
		"frameOverlap", opts.FrameOverlap,
		"maxObjects", opts.MaxObjects,
		"extent", gpu.Extent,
	)

	steps := []struct {
		name string
		run  func() error
	}{
		{"commands", e.initCommands},
		{"depth resources", e.initDepthResources},
		{"render pass", e.initRenderPass},
		{"framebuffers", e.initFramebuffers},
		{"sync structures", e.initSyncStructures},
		{"descriptors", e.initDescriptors},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return nil, errors.Wrapf(err, "init %s", step.name)
		}
		e.logger.Debug("init step complete", "step", step.name)
	}

	return e, nil
}

// CreateMeshMaterial loads the given SPIR-V pair, builds a pipeline for the
// mesh vertex layout, and registers the result under name. Failure leaves
// the registry untouched and is safe to continue from.
func (e *Engine) CreateMeshMaterial(name, vertPath, fragPath string) (*Material, error) {
	device := e.gpu.Device

	vertModule, err := LoadShaderModule(device, vertPath)
	if err != nil {
		e.logger.Error("could not load vertex shader", "material", name, "err", err)
		return nil, err
	}
	defer vertModule.Destroy(nil)

	fragModule, err := LoadShaderModule(device, fragPath)
	if err != nil {
		e.logger.Error("could not load fragment shader", "material", name, "err", err)
		return nil, err
	}
	defer fragModule.Destroy(nil)

	layout, _, err := device.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{
			e.globalSetLayout,
			e.objectSetLayout,
		},
		PushConstantRanges: []core1_0.PushConstantRange{
			{
				StageFlags: core1_0.StageVertex,
				Offset: 0,
				Size:   int(unsafe.Sizeof(MeshPushConstants{})),
			},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create pipeline layout for material %q", name)
	}
	e.mainDeletionQueue.PushPipelineLayout(layout)

	builder := e.newPipelineBuilder(layout)
	builder.ShaderStages = []core1_0.PipelineShaderStageCreateInfo{
		{
			Stage:  core1_0.StageVertex,
			Module: vertModule,
			Name:   "main",
		},
		{
			Stage:  core1_0.StageFragment,
			Module: fragModule,
			Name:   "main",
		},
	}
	builder.VertexInput = core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions:   vertexBindingDescriptions(),
		VertexAttributeDescriptions: vertexAttributeDescriptions(),
	}

	pipeline, err := builder.Build(device, e.renderPass)
	if err != nil {
		e.logger.Error("could not build pipeline", "material", name, "err", err)
		return nil, err
	}
	e.mainDeletionQueue.PushPipeline(pipeline)

	return e.CreateMaterial(name, pipeline, layout), nil
}

// Run renders frames until the source delivers a quit signal. Any draw error
// is unrecoverable by policy and aborts the process.
func (e *Engine) Run(source SignalSource) {
	e.logger.Info("entering render loop")

	for {
		switch source.Poll() {
		case SignalQuit:
			e.logger.Info("quit requested", "frames", e.frameNumber)
			return
		case SignalNextShader:
			e.NextShader()
		}

		start := hrtime.Now()
		if err := e.Draw(); err != nil {
			e.logger.Fatal("unrecoverable GPU failure", "frame", e.frameNumber, "err", err)
		}
		e.observeFrameTime(hrtime.Since(start))
	}
}

func (e *Engine) observeFrameTime(d time.Duration) {
	e.frameTimeTotal += d
	e.frameTimeCount++
	if e.frameTimeCount == frameStatsInterval {
		e.logger.Debug("frame stats",
			"frames", e.frameNumber,
			"avg", e.frameTimeTotal/time.Duration(e.frameTimeCount),
		)
		e.frameTimeTotal = 0
		e.frameTimeCount = 0
	}
}

// Cleanup waits for the device to go idle and destroys everything the engine
// created, in reverse creation order. The GPU bundle itself is untouched;
// its owner tears it down afterwards.
func (e *Engine) Cleanup() {
	if e.gpu.Device != nil {
		_, err := e.gpu.Device.WaitIdle()
		if err != nil {
			e.logger.Error("device wait before cleanup failed", "err", err)
		}
	}

	e.mainDeletionQueue.Flush()
	e.logger.Info("engine cleaned up", "frames", e.frameNumber)
}

// SetSceneParameters replaces the static part of the scene uniform block.
// The ambient color is animated by the render loop and overwritten each
// frame.
func (e *Engine) SetSceneParameters(params GPUSceneData) {
	e.sceneParameters = params
}

// FrameNumber reports how many frames have completed.
func (e *Engine) FrameNumber() uint64 {
	return e.frameNumber
}
