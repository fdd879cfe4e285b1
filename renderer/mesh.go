package renderer

import (
	"os"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v2/core1_0"
	"golang.org/x/sync/errgroup"
)

// Vertex is the layout every mesh pipeline consumes.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    mgl32.Vec3
}

func vertexBindingDescriptions() []core1_0.VertexInputBindingDescription {
	v := Vertex{}
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    int(unsafe.Sizeof(v)),
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

func vertexAttributeDescriptions() []core1_0.VertexInputAttributeDescription {
	v := Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Normal)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Color)),
		},
	}
}

// Mesh is a registry entry: vertices plus the GPU buffer they were uploaded
// to. Pointers to a Mesh stay valid for the life of the engine.
type Mesh struct {
	ID           uuid.UUID
	Vertices     []Vertex
	VertexBuffer AllocatedBuffer
}

// LoadMeshFromOBJ reads an OBJ file and triangulates it into the renderer's
// vertex layout. Vertex color is taken from the normal, so unlit meshes still
// show their shape.
func LoadMeshFromOBJ(path string) ([]Vertex, error) {
	meshFile, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open mesh %s", path)
	}
	defer meshFile.Close()

	decoder, err := obj.DecodeReader(meshFile, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "decode mesh %s", path)
	}

	var vertices []Vertex
	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			// Triangularize faces as a fan
			for i := 2; i < len(face.Vertices); i++ {
				vertices = append(vertices,
					faceVertex(decoder, face, 0),
					faceVertex(decoder, face, i-1),
					faceVertex(decoder, face, i),
				)
			}
		}
	}

	if len(vertices) == 0 {
		return nil, errors.Newf("mesh %s has no faces", path)
	}

	return vertices, nil
}

func faceVertex(decoder *obj.Decoder, face obj.Face, faceIndex int) Vertex {
	vertInd := face.Vertices[faceIndex]
	vert := Vertex{
		Position: mgl32.Vec3{
			decoder.Vertices[vertInd*3],
			decoder.Vertices[vertInd*3+1],
			decoder.Vertices[vertInd*3+2],
		},
	}

	if faceIndex < len(face.Normals) {
		normInd := face.Normals[faceIndex]
		if normInd >= 0 && (normInd*3+2) < len(decoder.Normals) {
			vert.Normal = mgl32.Vec3{
				decoder.Normals[normInd*3],
				decoder.Normals[normInd*3+1],
				decoder.Normals[normInd*3+2],
			}
		}
	}

	vert.Color = vert.Normal
	return vert
}

// UploadMesh creates the vertex buffer for the given vertices, writes them
// once, and registers the mesh under name. A mesh already registered under
// the same name is replaced in the registry; its buffer stays on the deletion
// queue until teardown.
func (e *Engine) UploadMesh(name string, vertices []Vertex) (*Mesh, error) {
	if len(vertices) == 0 {
		return nil, errors.Newf("mesh %q has no vertices", name)
	}

	mesh := &Mesh{
		ID:       uuid.New(),
		Vertices: vertices,
	}

	bufferSize := len(vertices) * int(unsafe.Sizeof(Vertex{}))
	buffer, err := e.allocator.CreateBuffer(bufferSize, core1_0.BufferUsageVertexBuffer, MemoryUsageCPUToGPU)
	if err != nil {
		return nil, errors.Wrapf(err, "create vertex buffer for mesh %q", name)
	}
	e.mainDeletionQueue.PushBuffer(buffer)

	err = writeToMemory(buffer.Memory, 0, bufferSize, vertices)
	if err != nil {
		return nil, errors.Wrapf(err, "upload mesh %q", name)
	}
	mesh.VertexBuffer = buffer

	e.meshes[name] = mesh
	e.logger.Debug("uploaded mesh", "name", name, "id", mesh.ID, "vertices", len(vertices), "bytes", bufferSize)

	return mesh, nil
}

// LoadMeshes decodes the named OBJ files concurrently, then uploads them in
// registry order. Any decode or upload failure fails the whole batch.
func (e *Engine) LoadMeshes(paths map[string]string) error {
	loaded := make([][]Vertex, len(paths))
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}

	var group errgroup.Group
	for i, name := range names {
		i, path := i, paths[name]
		group.Go(func() error {
			vertices, err := LoadMeshFromOBJ(path)
			if err != nil {
				return err
			}
			loaded[i] = vertices
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for i, name := range names {
		if _, err := e.UploadMesh(name, loaded[i]); err != nil {
			return err
		}
	}

	return nil
}

// GetMesh returns the registered mesh or nil when the name is unknown.
func (e *Engine) GetMesh(name string) *Mesh {
	mesh, ok := e.meshes[name]
	if !ok {
		return nil
	}
	return mesh
}
