// Package bootstrap stands up the Vulkan objects the renderer consumes:
// instance, debug messenger, surface, device, queue, and swapchain. The
// renderer never owns these handles; callers create a Bootstrap, hand its
// GPU bundle to the engine, and Destroy it after the engine is cleaned up.
package bootstrap

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	core "github.com/vkngwrapper/core/v2"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v2/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v2/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v2/khr_surface"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v2"

	"github.com/vulkanite/vulkanite/renderer"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// Options configures device bootstrap.
type Options struct {
	AppName string

	// EnableValidation loads the Khronos validation layer and routes its
	// messages through Logger. Requires the LunarG SDK to be installed.
	EnableValidation bool

	Logger *log.Logger
}

// Bootstrap owns every Vulkan handle created before the engine exists.
type Bootstrap struct {
	logger *log.Logger

	instance       core1_0.Instance
	debugExtension *ext_debug_utils.VulkanExtension
	debugMessenger ext_debug_utils.DebugUtilsMessenger
	surface        khr_surface.Surface

	physicalDevice      core1_0.PhysicalDevice
	device              core1_0.Device
	graphicsQueue       core1_0.Queue
	graphicsQueueFamily int

	swapchainExtension  khr_swapchain.Extension
	swapchain           khr_swapchain.Swapchain
	swapchainImages     []core1_0.Image
	swapchainImageViews []core1_0.ImageView
	swapchainFormat     core1_0.Format
	extent              core1_0.Extent2D

	minUniformBufferOffsetAlignment int
}

// New negotiates a graphics-capable device and swapchain for window. The
// window must have been created with sdl.WINDOW_VULKAN.
func New(window *sdl.Window, opts Options) (*Bootstrap, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "bootstrap"})
	}
	b := &Bootstrap{logger: opts.Logger}

	loader, err := core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "loading vulkan")
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"instance", func() error { return b.createInstance(loader, window, opts) }},
		{"debug messenger", func() error { return b.createDebugMessenger(opts) }},
		{"surface", func() error { return b.createSurface(window) }},
		{"device", b.createDevice},
		{"swapchain", func() error { return b.createSwapchain(window) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			b.Destroy()
			return nil, errors.Wrapf(err, "bootstrap %s", step.name)
		}
		b.logger.Debug("bootstrap step complete", "step", step.name)
	}

	return b, nil
}

// GPU bundles the bootstrapped handles for the renderer. The bundle stays
// valid until Destroy is called.
func (b *Bootstrap) GPU() *renderer.GPU {
	return &renderer.GPU{
		PhysicalDevice:      b.physicalDevice,
		Device:              b.device,
		GraphicsQueue:       b.graphicsQueue,
		GraphicsQueueFamily: b.graphicsQueueFamily,

		SwapchainExtension:  b.swapchainExtension,
		Swapchain:           b.swapchain,
		SwapchainImages:     b.swapchainImages,
		SwapchainImageViews: b.swapchainImageViews,
		SwapchainFormat:     b.swapchainFormat,
		Extent:              b.extent,

		MinUniformBufferOffsetAlignment: b.minUniformBufferOffsetAlignment,
	}
}

func (b *Bootstrap) createInstance(loader *core.VulkanLoader, window *sdl.Window, opts Options) error {
	instanceInfo := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.AppName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "vulkanite",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_1,
	}

	available, _, err := loader.AvailableExtensions()
	if err != nil {
		return err
	}
	for _, ext := range window.VulkanGetInstanceExtensions() {
		if _, ok := available[ext]; !ok {
			return errors.Newf("required window extension %s is not available", ext)
		}
		instanceInfo.EnabledExtensionNames = append(instanceInfo.EnabledExtensionNames, ext)
	}

	// MoltenVK and other portability implementations only enumerate when
	// asked to.
	if _, ok := available[khr_portability_enumeration.ExtensionName]; ok {
		instanceInfo.EnabledExtensionNames = append(instanceInfo.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceInfo.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if opts.EnableValidation {
		layers, _, err := loader.AvailableLayers()
		if err != nil {
			return err
		}
		if _, ok := layers[validationLayer]; !ok {
			return errors.Newf("validation requested but %s is not installed", validationLayer)
		}
		if _, ok := available[ext_debug_utils.ExtensionName]; !ok {
			return errors.Newf("validation requested but %s is not available", ext_debug_utils.ExtensionName)
		}
		instanceInfo.EnabledLayerNames = append(instanceInfo.EnabledLayerNames, validationLayer)
		instanceInfo.EnabledExtensionNames = append(instanceInfo.EnabledExtensionNames, ext_debug_utils.ExtensionName)

		// Covers instance creation and destruction, which the messenger
		// created afterwards cannot see.
		instanceInfo.Next = b.debugMessengerInfo()
	}

	b.instance, _, err = loader.CreateInstance(nil, instanceInfo)
	return err
}

func (b *Bootstrap) debugMessengerInfo() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    b.logValidation,
	}
}

func (b *Bootstrap) logValidation(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	if (severity & ext_debug_utils.SeverityError) != 0 {
		b.logger.Error(data.Message, "type", msgType.String())
	} else {
		b.logger.Warn(data.Message, "type", msgType.String())
	}
	return false
}

func (b *Bootstrap) createDebugMessenger(opts Options) error {
	if !opts.EnableValidation {
		return nil
	}

	var err error
	b.debugExtension = ext_debug_utils.CreateExtensionFromInstance(b.instance)
	b.debugMessenger, _, err = b.debugExtension.CreateDebugUtilsMessenger(b.instance, nil, b.debugMessengerInfo())
	return err
}

func (b *Bootstrap) createSurface(window *sdl.Window) error {
	surfaceExtension := khr_surface.CreateExtensionFromInstance(b.instance)

	surface, err := vkng_sdl2.CreateSurface(b.instance, surfaceExtension, window)
	if err != nil {
		return err
	}
	b.surface = surface
	return nil
}

// graphicsFamilyFor returns the first queue family on device that supports
// both graphics and presenting to the surface, or -1.
func (b *Bootstrap) graphicsFamilyFor(device core1_0.PhysicalDevice) (int, error) {
	for familyIndex, family := range device.QueueFamilyProperties() {
		if (family.QueueFlags & core1_0.QueueGraphics) == 0 {
			continue
		}
		supported, _, err := b.surface.PhysicalDeviceSurfaceSupport(device, familyIndex)
		if err != nil {
			return -1, err
		}
		if supported {
			return familyIndex, nil
		}
	}
	return -1, nil
}

func (b *Bootstrap) createDevice() error {
	physicalDevices, _, err := b.instance.EnumeratePhysicalDevices()
	if err != nil {
		return err
	}

	var deviceExtensions map[string]*core1_0.ExtensionProperties
	for _, candidate := range physicalDevices {
		family, err := b.graphicsFamilyFor(candidate)
		if err != nil {
			return err
		}
		if family < 0 {
			continue
		}

		extensions, _, err := candidate.EnumerateDeviceExtensionProperties()
		if err != nil {
			return err
		}
		if _, ok := extensions[khr_swapchain.ExtensionName]; !ok {
			continue
		}

		b.physicalDevice = candidate
		b.graphicsQueueFamily = family
		deviceExtensions = extensions
		break
	}
	if b.physicalDevice == nil {
		return errors.New("no device supports graphics and presentation")
	}

	properties, err := b.physicalDevice.Properties()
	if err != nil {
		return err
	}
	b.minUniformBufferOffsetAlignment = properties.Limits.MinUniformBufferOffsetAlignment
	b.logger.Info("selected device",
		"name", properties.DriverName,
		"queueFamily", b.graphicsQueueFamily,
		"minUniformAlignment", b.minUniformBufferOffsetAlignment)

	extensionNames := []string{khr_swapchain.ExtensionName}
	if _, ok := deviceExtensions[khr_portability_subset.ExtensionName]; ok {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	b.device, _, err = b.physicalDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: []core1_0.DeviceQueueCreateInfo{
			{
				QueueFamilyIndex: b.graphicsQueueFamily,
				QueuePriorities:  []float32{1},
			},
		},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return err
	}

	b.graphicsQueue = b.device.GetQueue(b.graphicsQueueFamily, 0)
	return nil
}

func chooseSurfaceFormat(formats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range formats {
		if format.Format == core1_0.FormatB8G8R8A8UnsignedNormalized &&
			format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}
	return formats[0]
}

func (b *Bootstrap) chooseExtent(window *sdl.Window, capabilities *khr_surface.SurfaceCapabilities) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	w, h := window.VulkanGetDrawableSize()
	extent := core1_0.Extent2D{Width: int(w), Height: int(h)}
	if extent.Width < capabilities.MinImageExtent.Width {
		extent.Width = capabilities.MinImageExtent.Width
	} else if extent.Width > capabilities.MaxImageExtent.Width {
		extent.Width = capabilities.MaxImageExtent.Width
	}
	if extent.Height < capabilities.MinImageExtent.Height {
		extent.Height = capabilities.MinImageExtent.Height
	} else if extent.Height > capabilities.MaxImageExtent.Height {
		extent.Height = capabilities.MaxImageExtent.Height
	}
	return extent
}

func (b *Bootstrap) createSwapchain(window *sdl.Window) error {
	capabilities, _, err := b.surface.PhysicalDeviceSurfaceCapabilities(b.physicalDevice)
	if err != nil {
		return err
	}
	formats, _, err := b.surface.PhysicalDeviceSurfaceFormats(b.physicalDevice)
	if err != nil {
		return err
	}
	if len(formats) == 0 {
		return errors.New("surface reports no formats")
	}

	surfaceFormat := chooseSurfaceFormat(formats)
	extent := b.chooseExtent(window, capabilities)

	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}

	b.swapchainExtension = khr_swapchain.CreateExtensionFromDevice(b.device)
	b.swapchain, _, err = b.swapchainExtension.CreateSwapchain(b.device, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: b.surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		// The graphics family presents, so nothing is shared across families.
		ImageSharingMode: core1_0.SharingModeExclusive,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		// FIFO is the only mode the spec guarantees.
		PresentMode: khr_surface.PresentModeFIFO,
		Clipped:     true,
	})
	if err != nil {
		return err
	}
	b.swapchainFormat = surfaceFormat.Format
	b.extent = extent

	b.swapchainImages, _, err = b.swapchain.SwapchainImages()
	if err != nil {
		return err
	}

	for _, image := range b.swapchainImages {
		view, _, err := b.device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   b.swapchainFormat,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			return err
		}
		b.swapchainImageViews = append(b.swapchainImageViews, view)
	}

	b.logger.Info("swapchain created",
		"images", len(b.swapchainImages),
		"width", extent.Width,
		"height", extent.Height)
	return nil
}

// Destroy tears everything down in reverse creation order. The engine must
// be cleaned up first; Destroy does not wait for the device to go idle.
func (b *Bootstrap) Destroy() {
	for _, view := range b.swapchainImageViews {
		view.Destroy(nil)
	}
	b.swapchainImageViews = nil
	if b.swapchain != nil {
		b.swapchain.Destroy(nil)
		b.swapchain = nil
	}
	if b.device != nil {
		b.device.Destroy(nil)
		b.device = nil
	}
	if b.surface != nil {
		b.surface.Destroy(nil)
		b.surface = nil
	}
	if b.debugMessenger != nil {
		b.debugMessenger.Destroy(nil)
		b.debugMessenger = nil
	}
	if b.instance != nil {
		b.instance.Destroy(nil)
		b.instance = nil
	}
}
