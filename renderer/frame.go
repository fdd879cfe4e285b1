package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// FrameSlot holds everything one in-flight frame records and synchronizes
// with. Slots are created once and rotated by frame number; the GPU may still
// be executing slot k while the CPU records slot k+1.
type FrameSlot struct {
	CommandPool   core1_0.CommandPool
	CommandBuffer core1_0.CommandBuffer

	// AcquireSemaphore is signaled when the swapchain image is ready and
	// waited on by the queue submit at the color-attachment-output stage.
	AcquireSemaphore core1_0.Semaphore

	// RenderSemaphore is signaled by the submit and waited on by present.
	RenderSemaphore core1_0.Semaphore

	// RenderFence is signaled by the submit and waited on by the CPU before
	// the slot is reused. Created signaled so the first frame does not block.
	RenderFence core1_0.Fence

	CameraBuffer AllocatedBuffer
	ObjectBuffer AllocatedBuffer

	GlobalDescriptor core1_0.DescriptorSet
	ObjectDescriptor core1_0.DescriptorSet
}

// frameSlotIndex maps a monotonically increasing frame number to its slot.
func frameSlotIndex(frameNumber uint64, overlap int) int {
	return int(frameNumber % uint64(overlap))
}

func (e *Engine) slotIndex() int {
	return frameSlotIndex(e.frameNumber, len(e.frames))
}

func (e *Engine) currentFrame() *FrameSlot {
	return &e.frames[e.slotIndex()]
}

func (e *Engine) initCommands() error {
	for i := range e.frames {
		pool, _, err := e.gpu.Device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
			QueueFamilyIndex: e.gpu.GraphicsQueueFamily,
			Flags:            core1_0.CommandPoolCreateResetBuffer,
		})
		if err != nil {
			return errors.Wrapf(err, "create command pool for slot %d", i)
		}
		e.mainDeletionQueue.PushCommandPool(pool)
		e.frames[i].CommandPool = pool

		buffers, _, err := e.gpu.Device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
			CommandPool:        pool,
			Level:              core1_0.CommandBufferLevelPrimary,
			CommandBufferCount: 1,
		})
		if err != nil {
			return errors.Wrapf(err, "allocate command buffer for slot %d", i)
		}
		e.frames[i].CommandBuffer = buffers[0]
	}

	return nil
}

func (e *Engine) initSyncStructures() error {
	for i := range e.frames {
		fence, _, err := e.gpu.Device.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return errors.Wrapf(err, "create render fence for slot %d", i)
		}
		e.mainDeletionQueue.PushFence(fence)
		e.frames[i].RenderFence = fence

		acquire, _, err := e.gpu.Device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return errors.Wrapf(err, "create acquire semaphore for slot %d", i)
		}
		e.mainDeletionQueue.PushSemaphore(acquire)
		e.frames[i].AcquireSemaphore = acquire

		render, _, err := e.gpu.Device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return errors.Wrapf(err, "create render semaphore for slot %d", i)
		}
		e.mainDeletionQueue.PushSemaphore(render)
		e.frames[i].RenderSemaphore = render
	}

	return nil
}
