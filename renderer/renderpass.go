package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
)

// depthFormat is fixed; every desktop implementation supports it for depth
// attachments.
const depthFormat = core1_0.FormatD32SignedFloat

func (e *Engine) initDepthResources() error {
	depthImage, err := e.allocator.CreateImage(
		e.gpu.Extent,
		depthFormat,
		core1_0.ImageUsageDepthStencilAttachment,
		MemoryUsageGPUOnly,
	)
	if err != nil {
		return errors.Wrap(err, "create depth image")
	}
	e.mainDeletionQueue.PushImage(depthImage)
	e.depthImage = depthImage

	depthView, _, err := e.gpu.Device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    depthImage.Image,
		ViewType: core1_0.ImageViewType2D,
		Format:   depthFormat,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectDepth,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return errors.Wrap(err, "create depth image view")
	}
	e.mainDeletionQueue.PushImageView(depthView)
	e.depthImageView = depthView

	return nil
}

func (e *Engine) initRenderPass() error {
	renderPass, _, err := e.gpu.Device.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         e.gpu.SwapchainFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
			{
				Format:         depthFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpClear,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
				DepthStencilAttachment: &core1_0.AttachmentReference{
					Attachment: 1,
					Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageEarlyFragmentTests | core1_0.PipelineStageLateFragmentTests,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageEarlyFragmentTests | core1_0.PipelineStageLateFragmentTests,
				DstAccessMask: core1_0.AccessDepthStencilAttachmentWrite,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}
	e.mainDeletionQueue.PushRenderPass(renderPass)
	e.renderPass = renderPass

	return nil
}

func (e *Engine) initFramebuffers() error {
	for i, imageView := range e.gpu.SwapchainImageViews {
		framebuffer, _, err := e.gpu.Device.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass: e.renderPass,
			Layers:     1,
			Attachments: []core1_0.ImageView{
				imageView,
				e.depthImageView,
			},
			Width:  e.gpu.Extent.Width,
			Height: e.gpu.Extent.Height,
		})
		if err != nil {
			return errors.Wrapf(err, "create framebuffer %d", i)
		}
		e.mainDeletionQueue.PushFramebuffer(framebuffer)
		e.framebuffers = append(e.framebuffers, framebuffer)
	}

	return nil
}
