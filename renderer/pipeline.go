package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// PipelineBuilder accumulates the fixed-function state for one graphics
// pipeline. Build does not consume the builder: mutate ShaderStages or any
// other field and call Build again to derive a sibling pipeline.
type PipelineBuilder struct {
	ShaderStages         []core1_0.PipelineShaderStageCreateInfo
	VertexInput          core1_0.PipelineVertexInputStateCreateInfo
	InputAssembly        core1_0.PipelineInputAssemblyStateCreateInfo
	Viewport             core1_0.Viewport
	Scissor              core1_0.Rect2D
	Rasterizer           core1_0.PipelineRasterizationStateCreateInfo
	Multisampling        core1_0.PipelineMultisampleStateCreateInfo
	ColorBlendAttachment core1_0.PipelineColorBlendAttachmentState
	DepthStencil         core1_0.PipelineDepthStencilStateCreateInfo
	Layout               core1_0.PipelineLayout
}

// Build assembles and creates the pipeline against the given render pass.
// Failure is recoverable: the caller keeps running without the pipeline.
func (b *PipelineBuilder) Build(device core1_0.Device, renderPass core1_0.RenderPass) (core1_0.Pipeline, error) {
	vertexInput := b.VertexInput
	inputAssembly := b.InputAssembly
	rasterizer := b.Rasterizer
	multisampling := b.Multisampling
	depthStencil := b.DepthStencil

	pipelines, _, err := device.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{
		{
			Stages:             b.ShaderStages,
			VertexInputState:   &vertexInput,
			InputAssemblyState: &inputAssembly,
			ViewportState: &core1_0.PipelineViewportStateCreateInfo{
				Viewports: []core1_0.Viewport{b.Viewport},
				Scissors:  []core1_0.Rect2D{b.Scissor},
			},
			RasterizationState: &rasterizer,
			MultisampleState:   &multisampling,
			DepthStencilState:  &depthStencil,
			ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
				LogicOpEnabled: false,
				LogicOp:        core1_0.LogicOpCopy,
				Attachments: []core1_0.PipelineColorBlendAttachmentState{
					b.ColorBlendAttachment,
				},
			},
			Layout:            b.Layout,
			RenderPass:        renderPass,
			Subpass:           0,
			BasePipelineIndex: -1,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "build graphics pipeline")
	}

	return pipelines[0], nil
}

// newPipelineBuilder returns a builder preloaded with the fixed-function
// defaults every material in this renderer shares: triangle lists, filled
// polygons, no culling, no blending, depth test on.
func (e *Engine) newPipelineBuilder(layout core1_0.PipelineLayout) *PipelineBuilder {
	return &PipelineBuilder{
		InputAssembly: core1_0.PipelineInputAssemblyStateCreateInfo{
			Topology:               core1_0.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: false,
		},
		Viewport: core1_0.Viewport{
			X:        0,
			Y:        0,
			Width:    float32(e.gpu.Extent.Width),
			Height:   float32(e.gpu.Extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		},
		Scissor: core1_0.Rect2D{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: e.gpu.Extent,
		},
		Rasterizer: core1_0.PipelineRasterizationStateCreateInfo{
			DepthClampEnable:        false,
			RasterizerDiscardEnable: false,
			PolygonMode:             core1_0.PolygonModeFill,
			CullMode:                core1_0.CullModeFlags(0), // VK_CULL_MODE_NONE
			FrontFace:               core1_0.FrontFaceClockwise,
			DepthBiasEnable:         false,
			LineWidth:               1.0,
		},
		Multisampling: core1_0.PipelineMultisampleStateCreateInfo{
			SampleShadingEnable:  false,
			RasterizationSamples: core1_0.Samples1,
			MinSampleShading:     1.0,
		},
		ColorBlendAttachment: core1_0.PipelineColorBlendAttachmentState{
			BlendEnabled:   false,
			ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
		},
		DepthStencil: core1_0.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  true,
			DepthWriteEnable: true,
			DepthCompareOp:   core1_0.CompareOpLessOrEqual,
		},
		Layout: layout,
	}
}
