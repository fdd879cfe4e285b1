package renderer

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultFrameOverlap is the number of frames recorded ahead of the GPU
	// when Options.FrameOverlap is zero.
	DefaultFrameOverlap = 2

	// DefaultMaxObjects bounds the per-frame object storage buffer.
	DefaultMaxObjects = 10000

	// DefaultGPUTimeout bounds fence and acquire waits. Exceeding it is
	// treated as an unrecoverable device failure.
	DefaultGPUTimeout = time.Second
)

// Options configures an Engine. The zero value is usable; Logger defaults to
// a stderr logger.
type Options struct {
	// FrameOverlap is the number of frame slots rotated through the render
	// loop. Must be at least 1.
	FrameOverlap int

	// MaxObjects is the capacity of each frame's object storage buffer.
	MaxObjects int

	// GPUTimeout bounds every blocking wait on the device.
	GPUTimeout time.Duration

	// ClearColor fills the color attachment at the start of each frame.
	ClearColor [4]float32

	// CameraPosition places the fixed scene camera.
	CameraPosition mgl32.Vec3

	Logger *log.Logger
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.FrameOverlap == 0 {
		out.FrameOverlap = DefaultFrameOverlap
	}
	if out.MaxObjects == 0 {
		out.MaxObjects = DefaultMaxObjects
	}
	if out.GPUTimeout == 0 {
		out.GPUTimeout = DefaultGPUTimeout
	}
	if out.CameraPosition == (mgl32.Vec3{}) {
		out.CameraPosition = mgl32.Vec3{0, -6, -10}
	}
	if out.Logger == nil {
		out.Logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "renderer",
		})
	}
	return out
}

func (o *Options) validate() error {
	if o.FrameOverlap < 1 {
		return errors.Newf("frame overlap must be at least 1, got %d", o.FrameOverlap)
	}
	if o.MaxObjects < 1 {
		return errors.Newf("max objects must be at least 1, got %d", o.MaxObjects)
	}
	if o.GPUTimeout <= 0 {
		return errors.Newf("gpu timeout must be positive, got %s", o.GPUTimeout)
	}
	return nil
}
