package renderer

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"
)

const quadOBJ = `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
f 1//1 2//1 3//1 4//1
`

func TestLoadMeshFromOBJTriangulates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(quadOBJ), 0o644); err != nil {
		t.Fatal(err)
	}

	vertices, err := LoadMeshFromOBJ(path)
	if err != nil {
		t.Fatalf("LoadMeshFromOBJ: %v", err)
	}

	// One quad fans into two triangles.
	if len(vertices) != 6 {
		t.Fatalf("vertex count = %d, want 6", len(vertices))
	}
	for i, vert := range vertices {
		if vert.Normal.Z() != 1 {
			t.Errorf("vertex %d: normal = %v, want +Z", i, vert.Normal)
		}
		if vert.Color != vert.Normal {
			t.Errorf("vertex %d: color %v does not mirror the normal %v", i, vert.Color, vert.Normal)
		}
	}
}

func TestLoadMeshFromOBJMissingFile(t *testing.T) {
	_, err := LoadMeshFromOBJ(filepath.Join(t.TempDir(), "missing.obj"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestVertexLayoutMatchesShaderContract(t *testing.T) {
	bindings := vertexBindingDescriptions()
	if len(bindings) != 1 {
		t.Fatalf("binding count = %d, want 1", len(bindings))
	}
	if bindings[0].Stride != int(unsafe.Sizeof(Vertex{})) {
		t.Errorf("stride = %d, want %d", bindings[0].Stride, int(unsafe.Sizeof(Vertex{})))
	}

	attrs := vertexAttributeDescriptions()
	if len(attrs) != 3 {
		t.Fatalf("attribute count = %d, want 3", len(attrs))
	}
	for i, attr := range attrs {
		if attr.Location != i {
			t.Errorf("attribute %d has location %d", i, attr.Location)
		}
		if attr.Binding != 0 {
			t.Errorf("attribute %d bound to binding %d", i, attr.Binding)
		}
	}
}

func TestGPUDataSizes(t *testing.T) {
	// The shader-side std140 blocks assume these exact sizes.
	if cameraDataSize != 3*64 {
		t.Errorf("camera block = %d bytes, want %d", cameraDataSize, 3*64)
	}
	if sceneDataSize != 5*16 {
		t.Errorf("scene block = %d bytes, want %d", sceneDataSize, 5*16)
	}
	if objectDataSize != 64 {
		t.Errorf("object element = %d bytes, want 64", objectDataSize)
	}
	if int(unsafe.Sizeof(MeshPushConstants{})) != 16+64 {
		t.Errorf("push constants = %d bytes, want %d", int(unsafe.Sizeof(MeshPushConstants{})), 16+64)
	}
}
