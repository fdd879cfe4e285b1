package renderer

import (
	"bytes"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
)

// writeToMemory maps a host-visible allocation, serializes data into it at
// offset, and unmaps.
func writeToMemory(memory core1_0.DeviceMemory, offset, size int, data any) error {
	memoryPtr, _, err := memory.Map(offset, size, 0)
	if err != nil {
		return errors.Wrap(err, "map device memory")
	}
	defer memory.Unmap()

	dataBuffer := unsafe.Slice((*byte)(memoryPtr), size)

	buf := &bytes.Buffer{}
	err = binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return errors.Wrap(err, "serialize gpu data")
	}

	copy(dataBuffer, buf.Bytes())
	return nil
}

// Draw renders and presents one frame. Every error it returns means the GPU
// or swapchain is in a state this renderer does not recover from; Run
// escalates it to a fatal log.
func (e *Engine) Draw() error {
	frame := e.currentFrame()
	device := e.gpu.Device

	res, err := device.WaitForFences(true, e.opts.GPUTimeout, []core1_0.Fence{frame.RenderFence})
	if err != nil {
		return errors.Wrap(err, "wait for render fence")
	}
	if res != core1_0.VKSuccess {
		return errors.Newf("render fence wait did not complete within %s: %s", e.opts.GPUTimeout, res)
	}

	_, err = device.ResetFences([]core1_0.Fence{frame.RenderFence})
	if err != nil {
		return errors.Wrap(err, "reset render fence")
	}

	_, err = frame.CommandBuffer.Reset(0)
	if err != nil {
		return errors.Wrap(err, "reset frame command buffer")
	}

	imageIndex, res, err := e.gpu.Swapchain.AcquireNextImage(e.opts.GPUTimeout, frame.AcquireSemaphore, nil)
	if err != nil {
		return errors.Wrap(err, "acquire swapchain image")
	}
	if res != core1_0.VKSuccess {
		return errors.Newf("acquire swapchain image returned %s", res)
	}

	err = e.recordFrame(frame, imageIndex)
	if err != nil {
		return err
	}

	_, err = e.gpu.GraphicsQueue.Submit(frame.RenderFence, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   []core1_0.Semaphore{frame.AcquireSemaphore},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{frame.CommandBuffer},
			SignalSemaphores: []core1_0.Semaphore{frame.RenderSemaphore},
		},
	})
	if err != nil {
		return errors.Wrap(err, "submit frame commands")
	}

	_, err = e.gpu.SwapchainExtension.QueuePresent(e.gpu.GraphicsQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{frame.RenderSemaphore},
		Swapchains:     []khr_swapchain.Swapchain{e.gpu.Swapchain},
		ImageIndices:   []int{imageIndex},
	})
	if err != nil {
		return errors.Wrap(err, "present swapchain image")
	}

	e.frameNumber++
	return nil
}

func (e *Engine) recordFrame(frame *FrameSlot, imageIndex int) error {
	cmd := frame.CommandBuffer

	_, err := cmd.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return errors.Wrap(err, "begin frame command buffer")
	}

	c := e.opts.ClearColor
	err = cmd.CmdBeginRenderPass(core1_0.SubpassContentsInline, core1_0.RenderPassBeginInfo{
		RenderPass:  e.renderPass,
		Framebuffer: e.framebuffers[imageIndex],
		RenderArea: core1_0.Rect2D{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: e.gpu.Extent,
		},
		ClearValues: []core1_0.ClearValue{
			core1_0.ClearValueFloat{c[0], c[1], c[2], c[3]},
			core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0},
		},
	})
	if err != nil {
		return errors.Wrap(err, "begin render pass")
	}

	err = e.drawObjects(cmd, frame)
	if err != nil {
		return err
	}

	cmd.CmdEndRenderPass()

	_, err = cmd.End()
	if err != nil {
		return errors.Wrap(err, "end frame command buffer")
	}

	return nil
}

// drawObjects writes this slot's camera, scene, and object data, then records
// one draw per render object. Pipeline and vertex-buffer binds are only
// emitted when the material or mesh changes from the previous object.
func (e *Engine) drawObjects(cmd core1_0.CommandBuffer, frame *FrameSlot) error {
	slot := e.slotIndex()

	view := mgl32.Translate3D(
		e.opts.CameraPosition.X(),
		e.opts.CameraPosition.Y(),
		e.opts.CameraPosition.Z(),
	)
	aspect := float32(e.gpu.Extent.Width) / float32(e.gpu.Extent.Height)
	proj := mgl32.Perspective(mgl32.DegToRad(70), aspect, 0.1, 200)
	// Vulkan clip space has inverted Y.
	proj[5] *= -1

	camera := GPUCameraData{
		View:     view,
		Proj:     proj,
		ViewProj: proj.Mul4(view),
	}
	err := writeToMemory(frame.CameraBuffer.Memory, 0, cameraDataSize, camera)
	if err != nil {
		return errors.Wrap(err, "write camera data")
	}

	framed := float32(e.frameNumber) / 120
	e.sceneParameters.AmbientColor = mgl32.Vec4{
		float32(math.Sin(float64(framed))),
		0,
		float32(math.Cos(float64(framed))),
		1,
	}
	sceneOffset := e.sceneOffset(slot)
	err = writeToMemory(e.sceneParameterBuffer.Memory, sceneOffset, sceneDataSize, e.sceneParameters)
	if err != nil {
		return errors.Wrap(err, "write scene data")
	}

	if len(e.renderables) > 0 {
		objectData := make([]GPUObjectData, len(e.renderables))
		for i, obj := range e.renderables {
			objectData[i].ModelMatrix = obj.Transform
		}
		err = writeToMemory(frame.ObjectBuffer.Memory, 0, len(objectData)*objectDataSize, objectData)
		if err != nil {
			return errors.Wrap(err, "write object data")
		}
	}

	var lastMesh *Mesh
	var lastMaterial *Material

	for i, obj := range e.renderables {
		material := e.activeMaterial(obj.Material)

		if material != lastMaterial {
			cmd.CmdBindPipeline(core1_0.PipelineBindPointGraphics, material.Pipeline)
			cmd.CmdBindDescriptorSets(
				core1_0.PipelineBindPointGraphics,
				material.PipelineLayout,
				0,
				[]core1_0.DescriptorSet{frame.GlobalDescriptor, frame.ObjectDescriptor},
				[]int{sceneOffset},
			)
			lastMaterial = material
		}

		push := MeshPushConstants{RenderMatrix: obj.Transform}
		pushBuf := &bytes.Buffer{}
		err = binary.Write(pushBuf, common.ByteOrder, push)
		if err != nil {
			return errors.Wrap(err, "serialize push constants")
		}
		cmd.CmdPushConstants(material.PipelineLayout, core1_0.StageVertex, 0, pushBuf.Bytes())

		if obj.Mesh != lastMesh {
			cmd.CmdBindVertexBuffers(0, []core1_0.Buffer{obj.Mesh.VertexBuffer.Buffer}, []int{0})
			lastMesh = obj.Mesh
		}

		// firstInstance carries the object index into the storage buffer.
		cmd.CmdDraw(len(obj.Mesh.Vertices), 1, 0, uint32(i))
	}

	return nil
}
