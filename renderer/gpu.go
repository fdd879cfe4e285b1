package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
)

// GPU bundles everything the engine needs from device bootstrap. The engine
// never creates or destroys these handles; the bootstrap that produced them
// owns their lifetime.
type GPU struct {
	PhysicalDevice core1_0.PhysicalDevice
	Device         core1_0.Device

	GraphicsQueue       core1_0.Queue
	GraphicsQueueFamily int

	SwapchainExtension  khr_swapchain.Extension
	Swapchain           khr_swapchain.Swapchain
	SwapchainImages     []core1_0.Image
	SwapchainImageViews []core1_0.ImageView
	SwapchainFormat     core1_0.Format
	Extent              core1_0.Extent2D

	// MinUniformBufferOffsetAlignment is the device limit used to stride the
	// shared scene uniform buffer. Always a power of two per the Vulkan spec.
	MinUniformBufferOffsetAlignment int
}

func (g *GPU) validate() error {
	if g.PhysicalDevice == nil {
		return errors.New("gpu bundle has no physical device")
	}
	if g.Device == nil {
		return errors.New("gpu bundle has no device")
	}
	if g.GraphicsQueue == nil {
		return errors.New("gpu bundle has no graphics queue")
	}
	if g.Swapchain == nil || g.SwapchainExtension == nil {
		return errors.New("gpu bundle has no swapchain")
	}
	if len(g.SwapchainImageViews) == 0 {
		return errors.New("gpu bundle has no swapchain image views")
	}
	align := g.MinUniformBufferOffsetAlignment
	if align < 0 || (align&(align-1)) != 0 {
		return errors.Newf("min uniform buffer offset alignment %d is not a power of two", align)
	}
	return nil
}
