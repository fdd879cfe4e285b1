package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// Material pairs a pipeline with its layout. Pointers to a Material stay
// valid for the life of the engine; render objects hold them directly.
type Material struct {
	ID             uuid.UUID
	Pipeline       core1_0.Pipeline
	PipelineLayout core1_0.PipelineLayout
}

// RenderObject is one entry of the scene: what to draw, with what, where.
type RenderObject struct {
	Mesh      *Mesh
	Material  *Material
	Transform mgl32.Mat4
}

// CreateMaterial registers a material under name and returns it. Registering
// an existing name replaces the entry; objects holding the old pointer keep
// rendering with it.
func (e *Engine) CreateMaterial(name string, pipeline core1_0.Pipeline, layout core1_0.PipelineLayout) *Material {
	material := &Material{
		ID:             uuid.New(),
		Pipeline:       pipeline,
		PipelineLayout: layout,
	}
	e.materials[name] = material
	e.logger.Debug("created material", "name", name, "id", material.ID)
	return material
}

// GetMaterial returns the registered material or nil when the name is
// unknown.
func (e *Engine) GetMaterial(name string) *Material {
	material, ok := e.materials[name]
	if !ok {
		return nil
	}
	return material
}

// AddRenderObject appends an object to the scene. Draw order is insertion
// order, so callers sort by material and mesh to keep state changes low.
func (e *Engine) AddRenderObject(obj RenderObject) error {
	if obj.Mesh == nil {
		return errors.New("render object has no mesh")
	}
	if obj.Material == nil {
		return errors.New("render object has no material")
	}
	if len(e.renderables)+1 > e.opts.MaxObjects {
		return errors.Newf("scene is full: %d objects", e.opts.MaxObjects)
	}
	e.renderables = append(e.renderables, obj)
	return nil
}

// SetShaderCycle configures the list of materials the next-shader signal
// rotates through. Objects bound to the first material in the list are drawn
// with whichever cycle entry is currently selected.
func (e *Engine) SetShaderCycle(names ...string) error {
	cycle := make([]*Material, 0, len(names))
	for _, name := range names {
		material := e.GetMaterial(name)
		if material == nil {
			return errors.Newf("shader cycle references unknown material %q", name)
		}
		cycle = append(cycle, material)
	}
	e.shaderCycle = cycle
	e.selectedShader = 0
	return nil
}

// NextShader advances the shader cycle. Without a configured cycle it is a
// no-op.
func (e *Engine) NextShader() {
	if len(e.shaderCycle) == 0 {
		return
	}
	e.selectedShader = (e.selectedShader + 1) % len(e.shaderCycle)
	e.logger.Info("switched shader", "index", e.selectedShader)
}

// activeMaterial resolves the shader cycle: the cycle's base material is
// drawn as the currently selected entry, everything else as itself.
func (e *Engine) activeMaterial(m *Material) *Material {
	if len(e.shaderCycle) > 0 && m == e.shaderCycle[0] {
		return e.shaderCycle[e.selectedShader]
	}
	return m
}
