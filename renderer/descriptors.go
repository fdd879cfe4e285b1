package renderer

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// AlignedSize rounds size up to the next multiple of alignment. Alignment
// must be a power of two; zero means no alignment requirement.
func AlignedSize(size, alignment int) int {
	if alignment > 0 {
		return (size + alignment - 1) & ^(alignment - 1)
	}
	return size
}

var (
	cameraDataSize = int(unsafe.Sizeof(GPUCameraData{}))
	sceneDataSize  = int(unsafe.Sizeof(GPUSceneData{}))
	objectDataSize = int(unsafe.Sizeof(GPUObjectData{}))
)

// sceneOffset is the dynamic offset into the shared scene buffer for a slot.
func (e *Engine) sceneOffset(slot int) int {
	return slot * e.sceneStride
}

func (e *Engine) initDescriptors() error {
	device := e.gpu.Device

	globalLayout, _, err := device.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,
				StageFlags:      core1_0.StageVertex,
			},
			{
				Binding:         1,
				DescriptorType:  core1_0.DescriptorTypeUniformBufferDynamic,
				DescriptorCount: 1,
				StageFlags:      core1_0.StageVertex | core1_0.StageFragment,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create global descriptor set layout")
	}
	e.mainDeletionQueue.PushDescriptorSetLayout(globalLayout)
	e.globalSetLayout = globalLayout

	objectLayout, _, err := device.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeStorageBuffer,
				DescriptorCount: 1,
				StageFlags:      core1_0.StageVertex,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create object descriptor set layout")
	}
	e.mainDeletionQueue.PushDescriptorSetLayout(objectLayout)
	e.objectSetLayout = objectLayout

	pool, _, err := device.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets: 10,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{Type: core1_0.DescriptorTypeUniformBuffer, DescriptorCount: 10},
			{Type: core1_0.DescriptorTypeUniformBufferDynamic, DescriptorCount: 10},
			{Type: core1_0.DescriptorTypeStorageBuffer, DescriptorCount: 10},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create descriptor pool")
	}
	e.mainDeletionQueue.PushDescriptorPool(pool)
	e.descriptorPool = pool

	// One scene block per slot lives in a single buffer; the render loop
	// selects the slot's block with a dynamic offset at bind time.
	e.sceneStride = AlignedSize(sceneDataSize, e.gpu.MinUniformBufferOffsetAlignment)
	sceneBuffer, err := e.allocator.CreateBuffer(
		len(e.frames)*e.sceneStride,
		core1_0.BufferUsageUniformBuffer,
		MemoryUsageCPUToGPU,
	)
	if err != nil {
		return errors.Wrap(err, "create scene parameter buffer")
	}
	e.mainDeletionQueue.PushBuffer(sceneBuffer)
	e.sceneParameterBuffer = sceneBuffer

	var writes []core1_0.WriteDescriptorSet
	for i := range e.frames {
		cameraBuffer, err := e.allocator.CreateBuffer(cameraDataSize, core1_0.BufferUsageUniformBuffer, MemoryUsageCPUToGPU)
		if err != nil {
			return errors.Wrapf(err, "create camera buffer for slot %d", i)
		}
		e.mainDeletionQueue.PushBuffer(cameraBuffer)
		e.frames[i].CameraBuffer = cameraBuffer

		objectBuffer, err := e.allocator.CreateBuffer(e.opts.MaxObjects*objectDataSize, core1_0.BufferUsageStorageBuffer, MemoryUsageCPUToGPU)
		if err != nil {
			return errors.Wrapf(err, "create object buffer for slot %d", i)
		}
		e.mainDeletionQueue.PushBuffer(objectBuffer)
		e.frames[i].ObjectBuffer = objectBuffer

		sets, _, err := device.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
			DescriptorPool: pool,
			SetLayouts:     []core1_0.DescriptorSetLayout{globalLayout, objectLayout},
		})
		if err != nil {
			return errors.Wrapf(err, "allocate descriptor sets for slot %d", i)
		}
		e.frames[i].GlobalDescriptor = sets[0]
		e.frames[i].ObjectDescriptor = sets[1]

		writes = append(writes,
			core1_0.WriteDescriptorSet{
				DstSet:          sets[0],
				DstBinding:      0,
				DstArrayElement: 0,
				DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
				BufferInfo: []core1_0.DescriptorBufferInfo{
					{Buffer: cameraBuffer.Buffer, Offset: 0, Range: cameraDataSize},
				},
			},
			core1_0.WriteDescriptorSet{
				DstSet:          sets[0],
				DstBinding:      1,
				DstArrayElement: 0,
				DescriptorType:  core1_0.DescriptorTypeUniformBufferDynamic,
				BufferInfo: []core1_0.DescriptorBufferInfo{
					// Offset stays 0 here; the per-slot offset is dynamic.
					{Buffer: sceneBuffer.Buffer, Offset: 0, Range: sceneDataSize},
				},
			},
			core1_0.WriteDescriptorSet{
				DstSet:          sets[1],
				DstBinding:      0,
				DstArrayElement: 0,
				DescriptorType:  core1_0.DescriptorTypeStorageBuffer,
				BufferInfo: []core1_0.DescriptorBufferInfo{
					{Buffer: objectBuffer.Buffer, Offset: 0, Range: e.opts.MaxObjects * objectDataSize},
				},
			},
		)
	}

	err = device.UpdateDescriptorSets(writes, nil)
	if err != nil {
		return errors.Wrap(err, "write descriptor sets")
	}

	return nil
}
