package renderer

import (
	"github.com/vkngwrapper/core/v2/core1_0"
)

type resourceKind int

const (
	kindBuffer resourceKind = iota
	kindImage
	kindImageView
	kindSampler
	kindShaderModule
	kindPipeline
	kindPipelineLayout
	kindDescriptorSetLayout
	kindDescriptorPool
	kindRenderPass
	kindFramebuffer
	kindCommandPool
	kindSemaphore
	kindFence
)

// deleteEntry is one pending destruction. Exactly the handle fields matching
// kind are set; buffers and images carry their bound memory along.
type deleteEntry struct {
	kind resourceKind

	buffer         core1_0.Buffer
	image          core1_0.Image
	memory         core1_0.DeviceMemory
	imageView      core1_0.ImageView
	sampler        core1_0.Sampler
	shaderModule   core1_0.ShaderModule
	pipeline       core1_0.Pipeline
	pipelineLayout core1_0.PipelineLayout
	setLayout      core1_0.DescriptorSetLayout
	descriptorPool core1_0.DescriptorPool
	renderPass     core1_0.RenderPass
	framebuffer    core1_0.Framebuffer
	commandPool    core1_0.CommandPool
	semaphore      core1_0.Semaphore
	fence          core1_0.Fence
}

func (e *deleteEntry) destroy() {
	switch e.kind {
	case kindBuffer:
		e.buffer.Destroy(nil)
		if e.memory != nil {
			e.memory.Free(nil)
		}
	case kindImage:
		e.image.Destroy(nil)
		if e.memory != nil {
			e.memory.Free(nil)
		}
	case kindImageView:
		e.imageView.Destroy(nil)
	case kindSampler:
		e.sampler.Destroy(nil)
	case kindShaderModule:
		e.shaderModule.Destroy(nil)
	case kindPipeline:
		e.pipeline.Destroy(nil)
	case kindPipelineLayout:
		e.pipelineLayout.Destroy(nil)
	case kindDescriptorSetLayout:
		e.setLayout.Destroy(nil)
	case kindDescriptorPool:
		e.descriptorPool.Destroy(nil)
	case kindRenderPass:
		e.renderPass.Destroy(nil)
	case kindFramebuffer:
		e.framebuffer.Destroy(nil)
	case kindCommandPool:
		e.commandPool.Destroy(nil)
	case kindSemaphore:
		e.semaphore.Destroy(nil)
	case kindFence:
		e.fence.Destroy(nil)
	}
}

// DeletionQueue defers Vulkan object destruction until teardown. Flush
// destroys in strict reverse insertion order, so pushing resources as they
// are created reproduces a correct dependency teardown.
type DeletionQueue struct {
	entries []deleteEntry
}

// Len reports the number of pending destructions.
func (q *DeletionQueue) Len() int {
	return len(q.entries)
}

// Flush destroys every pending resource, last pushed first, and empties the
// queue. Flushing an empty queue is a no-op.
func (q *DeletionQueue) Flush() {
	for i := len(q.entries) - 1; i >= 0; i-- {
		q.entries[i].destroy()
	}
	q.entries = q.entries[:0]
}

func (q *DeletionQueue) PushBuffer(b AllocatedBuffer) {
	q.entries = append(q.entries, deleteEntry{kind: kindBuffer, buffer: b.Buffer, memory: b.Memory})
}

func (q *DeletionQueue) PushImage(img AllocatedImage) {
	q.entries = append(q.entries, deleteEntry{kind: kindImage, image: img.Image, memory: img.Memory})
}

func (q *DeletionQueue) PushImageView(v core1_0.ImageView) {
	q.entries = append(q.entries, deleteEntry{kind: kindImageView, imageView: v})
}

func (q *DeletionQueue) PushSampler(s core1_0.Sampler) {
	q.entries = append(q.entries, deleteEntry{kind: kindSampler, sampler: s})
}

func (q *DeletionQueue) PushShaderModule(m core1_0.ShaderModule) {
	q.entries = append(q.entries, deleteEntry{kind: kindShaderModule, shaderModule: m})
}

func (q *DeletionQueue) PushPipeline(p core1_0.Pipeline) {
	q.entries = append(q.entries, deleteEntry{kind: kindPipeline, pipeline: p})
}

func (q *DeletionQueue) PushPipelineLayout(l core1_0.PipelineLayout) {
	q.entries = append(q.entries, deleteEntry{kind: kindPipelineLayout, pipelineLayout: l})
}

func (q *DeletionQueue) PushDescriptorSetLayout(l core1_0.DescriptorSetLayout) {
	q.entries = append(q.entries, deleteEntry{kind: kindDescriptorSetLayout, setLayout: l})
}

func (q *DeletionQueue) PushDescriptorPool(p core1_0.DescriptorPool) {
	q.entries = append(q.entries, deleteEntry{kind: kindDescriptorPool, descriptorPool: p})
}

func (q *DeletionQueue) PushRenderPass(rp core1_0.RenderPass) {
	q.entries = append(q.entries, deleteEntry{kind: kindRenderPass, renderPass: rp})
}

func (q *DeletionQueue) PushFramebuffer(fb core1_0.Framebuffer) {
	q.entries = append(q.entries, deleteEntry{kind: kindFramebuffer, framebuffer: fb})
}

func (q *DeletionQueue) PushCommandPool(p core1_0.CommandPool) {
	q.entries = append(q.entries, deleteEntry{kind: kindCommandPool, commandPool: p})
}

func (q *DeletionQueue) PushSemaphore(s core1_0.Semaphore) {
	q.entries = append(q.entries, deleteEntry{kind: kindSemaphore, semaphore: s})
}

func (q *DeletionQueue) PushFence(f core1_0.Fence) {
	q.entries = append(q.entries, deleteEntry{kind: kindFence, fence: f})
}
