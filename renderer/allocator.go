package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// MemoryUsage picks the memory property flags a resource is allocated with.
type MemoryUsage int

const (
	// MemoryUsageGPUOnly allocates device-local memory the host never maps.
	MemoryUsageGPUOnly MemoryUsage = iota

	// MemoryUsageCPUToGPU allocates host-visible, host-coherent memory for
	// buffers the CPU rewrites every frame.
	MemoryUsageCPUToGPU
)

func (u MemoryUsage) propertyFlags() core1_0.MemoryPropertyFlags {
	if u == MemoryUsageGPUOnly {
		return core1_0.MemoryPropertyDeviceLocal
	}
	return core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent
}

// Allocator creates buffers and images with memory bound, choosing memory
// types from the physical device's memory properties.
type Allocator struct {
	device           core1_0.Device
	memoryProperties *core1_0.PhysicalDeviceMemoryProperties
}

func NewAllocator(device core1_0.Device, memoryProperties *core1_0.PhysicalDeviceMemoryProperties) *Allocator {
	return &Allocator{
		device:           device,
		memoryProperties: memoryProperties,
	}
}

// CreateBuffer makes a buffer of the requested size and binds fresh memory
// to it. The caller owns the result, usually by pushing it on a deletion
// queue immediately.
func (a *Allocator) CreateBuffer(size int, usage core1_0.BufferUsageFlags, memUsage MemoryUsage) (AllocatedBuffer, error) {
	buffer, _, err := a.device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return AllocatedBuffer{}, errors.Wrap(err, "create buffer")
	}

	memReqs := buffer.MemoryRequirements()
	memoryTypeIndex, err := a.findMemoryType(memReqs.MemoryTypeBits, memUsage.propertyFlags())
	if err != nil {
		buffer.Destroy(nil)
		return AllocatedBuffer{}, err
	}

	memory, _, err := a.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		buffer.Destroy(nil)
		return AllocatedBuffer{}, errors.Wrap(err, "allocate buffer memory")
	}

	_, err = buffer.BindBufferMemory(memory, 0)
	if err != nil {
		buffer.Destroy(nil)
		memory.Free(nil)
		return AllocatedBuffer{}, errors.Wrap(err, "bind buffer memory")
	}

	return AllocatedBuffer{Buffer: buffer, Memory: memory, Size: size}, nil
}

// CreateImage makes a 2D image with bound memory.
func (a *Allocator) CreateImage(extent core1_0.Extent2D, format core1_0.Format, usage core1_0.ImageUsageFlags, memUsage MemoryUsage) (AllocatedImage, error) {
	image, _, err := a.device.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Format:    format,
		Extent: core1_0.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       core1_0.Samples1,
		Tiling:        core1_0.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		InitialLayout: core1_0.ImageLayoutUndefined,
	})
	if err != nil {
		return AllocatedImage{}, errors.Wrap(err, "create image")
	}

	memReqs := image.MemoryRequirements()
	memoryTypeIndex, err := a.findMemoryType(memReqs.MemoryTypeBits, memUsage.propertyFlags())
	if err != nil {
		image.Destroy(nil)
		return AllocatedImage{}, err
	}

	memory, _, err := a.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		image.Destroy(nil)
		return AllocatedImage{}, errors.Wrap(err, "allocate image memory")
	}

	_, err = image.BindImageMemory(memory, 0)
	if err != nil {
		image.Destroy(nil)
		memory.Free(nil)
		return AllocatedImage{}, errors.Wrap(err, "bind image memory")
	}

	return AllocatedImage{Image: image, Memory: memory}, nil
}

func (a *Allocator) findMemoryType(typeBits uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range a.memoryProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if typeBits&typeBit != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Newf("no memory type supports bits 0x%x with properties %s", typeBits, properties)
}
