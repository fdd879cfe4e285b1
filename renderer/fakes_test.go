package renderer

import (
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
)

// The fakes below embed the binding interfaces and override only the methods
// under test; calling anything else panics, which is what we want.

type destroyRecorder struct {
	order *[]string
}

func (r destroyRecorder) record(name string) {
	*r.order = append(*r.order, name)
}

type fakeBuffer struct {
	core1_0.Buffer
	destroyRecorder
	name string
}

func (b *fakeBuffer) Destroy(callbacks *driver.AllocationCallbacks) {
	b.record(b.name)
}

type fakeSemaphore struct {
	core1_0.Semaphore
	destroyRecorder
	name string
}

func (s *fakeSemaphore) Destroy(callbacks *driver.AllocationCallbacks) {
	s.record(s.name)
}

type fakeFence struct {
	core1_0.Fence
	destroyRecorder
	name string
}

func (f *fakeFence) Destroy(callbacks *driver.AllocationCallbacks) {
	f.record(f.name)
}

type fakePipeline struct {
	core1_0.Pipeline
	name string
}

type fakePipelineLayout struct {
	core1_0.PipelineLayout
}

// fakeDeviceMemory backs Map with a plain byte slice so tests can inspect
// what the engine wrote.
type fakeDeviceMemory struct {
	core1_0.DeviceMemory
	backing []byte
	mapped  bool
}

func newFakeMemory(size int) *fakeDeviceMemory {
	return &fakeDeviceMemory{backing: make([]byte, size)}
}

func (m *fakeDeviceMemory) Map(offset int, size int, flags core1_0.MemoryMapFlags) (unsafe.Pointer, common.VkResult, error) {
	if offset < 0 || offset+size > len(m.backing) {
		return nil, core1_0.VKErrorUnknown, errors.Newf("map [%d, %d) outside buffer of %d bytes", offset, offset+size, len(m.backing))
	}
	m.mapped = true
	return unsafe.Pointer(&m.backing[offset]), core1_0.VKSuccess, nil
}

func (m *fakeDeviceMemory) Unmap() {
	m.mapped = false
}

func (m *fakeDeviceMemory) Free(callbacks *driver.AllocationCallbacks) {}

type recordedDraw struct {
	vertexCount   int
	instanceCount int
	firstVertex   int
	firstInstance int
}

type recordedDescriptorBind struct {
	sets           []core1_0.DescriptorSet
	dynamicOffsets []int
}

// fakeCommandBuffer records the binds and draws the engine emits.
type fakeCommandBuffer struct {
	core1_0.CommandBuffer

	resets          int
	begins          int
	ends            int
	renderPassOpen  bool
	pipelineBinds   []core1_0.Pipeline
	descriptorBinds []recordedDescriptorBind
	vertexBinds     []core1_0.Buffer
	pushConstants   [][]byte
	draws           []recordedDraw
}

func (c *fakeCommandBuffer) Reset(flags core1_0.CommandBufferResetFlags) (common.VkResult, error) {
	c.resets++
	return core1_0.VKSuccess, nil
}

func (c *fakeCommandBuffer) Begin(o core1_0.CommandBufferBeginInfo) (common.VkResult, error) {
	c.begins++
	return core1_0.VKSuccess, nil
}

func (c *fakeCommandBuffer) End() (common.VkResult, error) {
	c.ends++
	return core1_0.VKSuccess, nil
}

func (c *fakeCommandBuffer) CmdBeginRenderPass(contents core1_0.SubpassContents, o core1_0.RenderPassBeginInfo) error {
	c.renderPassOpen = true
	return nil
}

func (c *fakeCommandBuffer) CmdEndRenderPass() {
	c.renderPassOpen = false
}

func (c *fakeCommandBuffer) CmdBindPipeline(bindPoint core1_0.PipelineBindPoint, pipeline core1_0.Pipeline) {
	c.pipelineBinds = append(c.pipelineBinds, pipeline)
}

func (c *fakeCommandBuffer) CmdBindDescriptorSets(bindPoint core1_0.PipelineBindPoint, layout core1_0.PipelineLayout, firstSet int, sets []core1_0.DescriptorSet, dynamicOffsets []int) {
	c.descriptorBinds = append(c.descriptorBinds, recordedDescriptorBind{
		sets:           sets,
		dynamicOffsets: dynamicOffsets,
	})
}

func (c *fakeCommandBuffer) CmdBindVertexBuffers(firstBinding int, buffers []core1_0.Buffer, offsets []int) {
	c.vertexBinds = append(c.vertexBinds, buffers...)
}

func (c *fakeCommandBuffer) CmdPushConstants(layout core1_0.PipelineLayout, flags core1_0.ShaderStageFlags, offset int, value []byte) {
	c.pushConstants = append(c.pushConstants, value)
}

func (c *fakeCommandBuffer) CmdDraw(vertexCount, instanceCount int, firstVertex, firstInstance uint32) {
	c.draws = append(c.draws, recordedDraw{
		vertexCount:   vertexCount,
		instanceCount: instanceCount,
		firstVertex:   int(firstVertex),
		firstInstance: int(firstInstance),
	})
}

// fakeDevice covers the device calls the draw loop and the shader loader
// make.
type fakeDevice struct {
	core1_0.Device

	waitResult   common.VkResult
	waitErr      error
	resetErr     error
	shaderModule core1_0.ShaderModule
	shaderErr    error

	waits  int
	resets int
}

func (d *fakeDevice) WaitForFences(waitForAll bool, timeout time.Duration, fences []core1_0.Fence) (common.VkResult, error) {
	d.waits++
	if d.waitErr != nil {
		return core1_0.VKErrorUnknown, d.waitErr
	}
	if d.waitResult != 0 {
		return d.waitResult, nil
	}
	return core1_0.VKSuccess, nil
}

func (d *fakeDevice) ResetFences(fences []core1_0.Fence) (common.VkResult, error) {
	d.resets++
	if d.resetErr != nil {
		return core1_0.VKErrorUnknown, d.resetErr
	}
	return core1_0.VKSuccess, nil
}

func (d *fakeDevice) CreateShaderModule(allocationCallbacks *driver.AllocationCallbacks, o core1_0.ShaderModuleCreateInfo) (core1_0.ShaderModule, common.VkResult, error) {
	if d.shaderErr != nil {
		return nil, core1_0.VKErrorUnknown, d.shaderErr
	}
	return d.shaderModule, core1_0.VKSuccess, nil
}

type fakeShaderModule struct {
	core1_0.ShaderModule
}

func (m *fakeShaderModule) Destroy(callbacks *driver.AllocationCallbacks) {}

type fakeSwapchain struct {
	khr_swapchain.Swapchain

	imageIndex    int
	acquireResult common.VkResult
	acquireErr    error
	acquires      int
}

func (s *fakeSwapchain) AcquireNextImage(timeout time.Duration, semaphore core1_0.Semaphore, fence core1_0.Fence) (int, common.VkResult, error) {
	s.acquires++
	if s.acquireErr != nil {
		return 0, core1_0.VKErrorUnknown, s.acquireErr
	}
	if s.acquireResult != 0 {
		return s.imageIndex, s.acquireResult, nil
	}
	return s.imageIndex, core1_0.VKSuccess, nil
}

type fakeSwapchainExtension struct {
	khr_swapchain.Extension

	presentErr error
	presents   []khr_swapchain.PresentInfo
}

func (e *fakeSwapchainExtension) QueuePresent(queue core1_0.Queue, o khr_swapchain.PresentInfo) (common.VkResult, error) {
	if e.presentErr != nil {
		return core1_0.VKErrorUnknown, e.presentErr
	}
	e.presents = append(e.presents, o)
	return core1_0.VKSuccess, nil
}

type fakeQueue struct {
	core1_0.Queue

	submitErr error
	submits   [][]core1_0.SubmitInfo
}

func (q *fakeQueue) Submit(fence core1_0.Fence, o []core1_0.SubmitInfo) (common.VkResult, error) {
	if q.submitErr != nil {
		return core1_0.VKErrorUnknown, q.submitErr
	}
	q.submits = append(q.submits, o)
	return core1_0.VKSuccess, nil
}
