package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// AllocatedBuffer couples a buffer with the device memory bound to it so the
// pair can travel through the deletion queue together.
type AllocatedBuffer struct {
	Buffer core1_0.Buffer
	Memory core1_0.DeviceMemory
	Size   int
}

// AllocatedImage is the image equivalent of AllocatedBuffer.
type AllocatedImage struct {
	Image  core1_0.Image
	Memory core1_0.DeviceMemory
}

// GPUCameraData is the per-frame camera uniform block. mgl32.Mat4 is a flat
// [16]float32, so binary.Write produces exactly the std140 layout the vertex
// shader declares.
type GPUCameraData struct {
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	ViewProj mgl32.Mat4
}

// GPUSceneData is the shared scene uniform block. All frames in flight store
// their copy in one buffer at aligned offsets; see Engine.sceneOffset.
type GPUSceneData struct {
	FogColor          mgl32.Vec4
	FogDistances      mgl32.Vec4
	AmbientColor      mgl32.Vec4
	SunlightDirection mgl32.Vec4
	SunlightColor     mgl32.Vec4
}

// GPUObjectData is one element of the per-frame object storage buffer,
// indexed in the vertex shader by gl_BaseInstance.
type GPUObjectData struct {
	ModelMatrix mgl32.Mat4
}

// MeshPushConstants is pushed per draw call on the mesh pipeline layout.
type MeshPushConstants struct {
	Data         mgl32.Vec4
	RenderMatrix mgl32.Mat4
}
