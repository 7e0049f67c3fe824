package render

import (
	"fmt"

	"github.com/vulkan-go/vulkan"
)

// Config carries everything New needs from the caller. Platform and
// Shaders are the only collaborators; no other interaction with the
// window system or storage occurs.
type Config struct {
	// AppName is reported to the driver at instance creation.
	AppName string

	// Platform supplies the drawable surface, framebuffer geometry and
	// the event pump.
	Platform Platform

	// Shaders loads precompiled SPIR-V bytecode.
	Shaders ShaderSource

	// VertexShader and FragmentShader name the bytecode for the two
	// pipeline stages.
	VertexShader   string
	FragmentShader string

	// DeviceExtensions lists required device extensions. Defaults to
	// the swapchain extension when empty.
	DeviceExtensions []string
}

// Context is the bootstrapped rendering context: instance, logical
// device, queues, presentation chain and fixed-function pipeline, ready
// for command recording. It owns every handle it exposes.
type Context interface {
	Instance() vulkan.Instance
	PhysicalDevice() vulkan.PhysicalDevice
	Device() vulkan.Device
	GraphicsQueue() vulkan.Queue
	PresentQueue() vulkan.Queue
	Platform() Platform
	SwapchainDimensions() *SwapchainDimensions
	RenderPass() vulkan.RenderPass
	Pipeline() vulkan.Pipeline
	Framebuffers() []vulkan.Framebuffer

	// RecreateSwapchain rebuilds the presentation chain and everything
	// depending on it after the surface extent becomes invalid.
	RecreateSwapchain() error

	// Run pumps window events until the platform reports the window
	// should close.
	Run() error

	// Destroy releases every owned resource in reverse creation order.
	// Safe to call more than once.
	Destroy()
}

// SwapchainDimensions describes the size and format of the swapchain.
type SwapchainDimensions struct {
	// Width of the swapchain in pixels.
	Width uint32
	// Height of the swapchain in pixels.
	Height uint32
	// Format is the pixel format of the swapchain.
	Format vulkan.Format
}

type context struct {
	cfg Config

	instance       vulkan.Instance
	surface        vulkan.Surface
	physicalDevice vulkan.PhysicalDevice
	indices        FamilyIndices
	device         vulkan.Device
	graphicsQueue  vulkan.Queue
	presentQueue   vulkan.Queue

	swapchain  vulkan.Swapchain
	images     []vulkan.Image
	imageViews []vulkan.ImageView
	format     vulkan.Format
	extent     vulkan.Extent2D

	renderPass     vulkan.RenderPass
	pipelineLayout vulkan.PipelineLayout
	pipeline       vulkan.Pipeline
	framebuffers   []vulkan.Framebuffer

	teardown teardownStack

	// chainMark is the teardown depth right after logical device
	// creation. Everything above it is rebuilt on swapchain recreation.
	chainMark int
}

// The bootstrap stages reach the driver through these package-level
// indirections. Tests substitute in-memory fakes to exercise New,
// RecreateSwapchain and Destroy without a Vulkan loader.
var (
	newInstanceFn         = newInstance
	physicalDevicesFn     = physicalDevices
	probeDeviceFn         = probeDevice
	newLogicalDeviceFn    = newLogicalDevice
	deviceQueuesFn        = deviceQueues
	surfaceDetailsFn      = surfaceDetails
	newSwapchainFn        = newSwapchain
	newImageViewFn        = newImageView
	newRenderPassFn       = newRenderPass
	newPipelineLayoutFn   = newPipelineLayout
	newGraphicsPipelineFn = newGraphicsPipeline
	newFramebufferFn      = newFramebuffer

	destroyInstanceFn       = func(instance vulkan.Instance) { vulkan.DestroyInstance(instance, nil) }
	destroySurfaceFn        = func(instance vulkan.Instance, surface vulkan.Surface) { vulkan.DestroySurface(instance, surface, nil) }
	destroyDeviceFn         = func(device vulkan.Device) { vulkan.DestroyDevice(device, nil) }
	destroySwapchainFn      = func(device vulkan.Device, swapchain vulkan.Swapchain) { vulkan.DestroySwapchain(device, swapchain, nil) }
	destroyImageViewFn      = func(device vulkan.Device, view vulkan.ImageView) { vulkan.DestroyImageView(device, view, nil) }
	destroyRenderPassFn     = func(device vulkan.Device, renderPass vulkan.RenderPass) { vulkan.DestroyRenderPass(device, renderPass, nil) }
	destroyPipelineLayoutFn = func(device vulkan.Device, layout vulkan.PipelineLayout) { vulkan.DestroyPipelineLayout(device, layout, nil) }
	destroyPipelineFn       = func(device vulkan.Device, pipeline vulkan.Pipeline) { vulkan.DestroyPipeline(device, pipeline, nil) }
	destroyFramebufferFn    = func(device vulkan.Device, framebuffer vulkan.Framebuffer) { vulkan.DestroyFramebuffer(device, framebuffer, nil) }
	deviceWaitIdleFn        = func(device vulkan.Device) { vulkan.DeviceWaitIdle(device) }
)

// New bootstraps the full rendering context in dependency order:
// instance, surface, physical device selection, logical device and
// queues, swapchain and image views, render pass, pipeline,
// framebuffers. On failure every resource created before the failing
// stage is released in reverse creation order before the error is
// returned; no partially usable context escapes.
func New(cfg Config) (Context, error) {
	if cfg.Platform == nil {
		return nil, fmt.Errorf("render: config has no platform")
	}
	if cfg.Shaders == nil {
		return nil, fmt.Errorf("render: config has no shader source")
	}
	if len(cfg.DeviceExtensions) == 0 {
		cfg.DeviceExtensions = []string{vulkan.KhrSwapchainExtensionName + "\x00"}
	} else {
		cfg.DeviceExtensions = safeStrings(cfg.DeviceExtensions)
	}

	c := &context{cfg: cfg}
	if err := c.bootstrap(); err != nil {
		c.teardown.drain()
		return nil, err
	}
	return c, nil
}

func (c *context) bootstrap() error {
	if err := c.createInstance(); err != nil {
		return fmt.Errorf("createInstance: %w", err)
	}
	if err := c.createSurface(); err != nil {
		return fmt.Errorf("createSurface: %w", err)
	}
	if err := c.pickPhysicalDevice(); err != nil {
		return fmt.Errorf("pickPhysicalDevice: %w", err)
	}
	if err := c.createLogicalDevice(); err != nil {
		return fmt.Errorf("createLogicalDevice: %w", err)
	}

	c.chainMark = c.teardown.mark()
	return c.buildPresentationChain()
}

// buildPresentationChain creates everything above the logical device.
// Both initial bootstrap and swapchain recreation run through it.
func (c *context) buildPresentationChain() error {
	if err := c.createSwapchain(); err != nil {
		return fmt.Errorf("createSwapchain: %w", err)
	}
	if err := c.createImageViews(); err != nil {
		return fmt.Errorf("createImageViews: %w", err)
	}
	if err := c.createRenderPass(); err != nil {
		return fmt.Errorf("createRenderPass: %w", err)
	}
	if err := c.createPipeline(); err != nil {
		return fmt.Errorf("createPipeline: %w", err)
	}
	if err := c.createFramebuffers(); err != nil {
		return fmt.Errorf("createFramebuffers: %w", err)
	}
	return nil
}

func (c *context) createInstance() error {
	instance, err := newInstanceFn(c.cfg.AppName, c.cfg.Platform)
	if err != nil {
		return err
	}
	c.instance = instance
	c.teardown.push("instance", func() {
		destroyInstanceFn(c.instance)
		c.instance = vulkan.Instance(vulkan.NullHandle)
	})
	return nil
}

func (c *context) createSurface() error {
	surface, err := c.cfg.Platform.CreateSurface(c.instance)
	if err != nil {
		return err
	}
	c.surface = surface
	c.teardown.push("surface", func() {
		destroySurfaceFn(c.instance, c.surface)
		c.surface = vulkan.NullSurface
	})
	return nil
}

func (c *context) pickPhysicalDevice() error {
	devices, err := physicalDevicesFn(c.instance)
	if err != nil {
		return err
	}

	probe := func(dev vulkan.PhysicalDevice) (DeviceCapabilities, error) {
		return probeDeviceFn(dev, c.surface)
	}
	candidate, err := selectPhysicalDevice(devices, probe, c.cfg.DeviceExtensions)
	if err != nil {
		return err
	}

	c.physicalDevice = candidate.handle
	c.indices = candidate.indices
	return nil
}

func (c *context) createLogicalDevice() error {
	device, err := newLogicalDeviceFn(c.physicalDevice, c.indices, c.cfg.DeviceExtensions)
	if err != nil {
		return err
	}
	c.device = device
	c.teardown.push("logical device", func() {
		destroyDeviceFn(c.device)
		c.device = vulkan.Device(vulkan.NullHandle)
	})

	c.graphicsQueue, c.presentQueue = deviceQueuesFn(c.device, c.indices)
	return nil
}

func (c *context) createSwapchain() error {
	// Surface details are re-queried every time: they change when the
	// window is resized, and the swapchain must match them.
	details, err := surfaceDetailsFn(c.physicalDevice, c.surface)
	if err != nil {
		return err
	}

	state, err := newSwapchainFn(c.device, c.surface, details, c.indices, c.cfg.Platform.FramebufferSize)
	if err != nil {
		return err
	}
	c.swapchain = state.swapchain
	c.images = state.images
	c.format = state.format
	c.extent = state.extent
	c.teardown.push("swapchain", func() {
		destroySwapchainFn(c.device, c.swapchain)
		c.swapchain = vulkan.NullSwapchain
		c.images = nil
	})
	return nil
}

func (c *context) createImageViews() error {
	// The release is pushed before the loop so views created before a
	// mid-loop failure are still torn down.
	c.teardown.push("image views", func() {
		for i := len(c.imageViews) - 1; i >= 0; i-- {
			destroyImageViewFn(c.device, c.imageViews[i])
		}
		c.imageViews = nil
	})

	for i, image := range c.images {
		view, err := newImageViewFn(c.device, image, c.format)
		if err != nil {
			return fmt.Errorf("image view %d: %w", i, err)
		}
		c.imageViews = append(c.imageViews, view)
	}
	return nil
}

func (c *context) createRenderPass() error {
	renderPass, err := newRenderPassFn(c.device, c.format)
	if err != nil {
		return err
	}
	c.renderPass = renderPass
	c.teardown.push("render pass", func() {
		destroyRenderPassFn(c.device, c.renderPass)
		c.renderPass = vulkan.NullRenderPass
	})
	return nil
}

func (c *context) createPipeline() error {
	layout, err := newPipelineLayoutFn(c.device)
	if err != nil {
		return err
	}
	c.pipelineLayout = layout
	c.teardown.push("pipeline layout", func() {
		destroyPipelineLayoutFn(c.device, c.pipelineLayout)
		c.pipelineLayout = vulkan.NullPipelineLayout
	})

	vertCode, err := c.cfg.Shaders.Load(c.cfg.VertexShader)
	if err != nil {
		return fmt.Errorf("loading vertex shader %q: %w", c.cfg.VertexShader, err)
	}
	fragCode, err := c.cfg.Shaders.Load(c.cfg.FragmentShader)
	if err != nil {
		return fmt.Errorf("loading fragment shader %q: %w", c.cfg.FragmentShader, err)
	}

	pipeline, err := newGraphicsPipelineFn(c.device, c.extent, c.renderPass, c.pipelineLayout, vertCode, fragCode)
	if err != nil {
		return err
	}
	c.pipeline = pipeline
	c.teardown.push("pipeline", func() {
		destroyPipelineFn(c.device, c.pipeline)
		c.pipeline = vulkan.NullPipeline
	})
	return nil
}

func (c *context) createFramebuffers() error {
	c.teardown.push("framebuffers", func() {
		for i := len(c.framebuffers) - 1; i >= 0; i-- {
			destroyFramebufferFn(c.device, c.framebuffers[i])
		}
		c.framebuffers = nil
	})

	for i, view := range c.imageViews {
		framebuffer, err := newFramebufferFn(c.device, c.renderPass, view, c.extent)
		if err != nil {
			return fmt.Errorf("framebuffer %d: %w", i, err)
		}
		c.framebuffers = append(c.framebuffers, framebuffer)
	}
	return nil
}

func (c *context) RecreateSwapchain() error {
	// A minimized window reports a zero framebuffer; block on events
	// until it has a drawable size again.
	for {
		width, height := c.cfg.Platform.FramebufferSize()
		if width != 0 && height != 0 {
			break
		}
		c.cfg.Platform.WaitEvents()
	}

	deviceWaitIdleFn(c.device)

	// The chain-dependent resources are exactly the teardown entries
	// above the logical device; releasing the suffix reverses their
	// creation order. The pipeline bakes a static viewport, so it is
	// rebuilt along with the chain rather than kept.
	c.teardown.drainTo(c.chainMark)

	if err := c.buildPresentationChain(); err != nil {
		return fmt.Errorf("recreating swapchain: %w", err)
	}
	return nil
}

func (c *context) Run() error {
	for !c.cfg.Platform.ShouldClose() {
		c.cfg.Platform.PollEvents()
	}
	return nil
}

func (c *context) Destroy() {
	if c.device != vulkan.Device(vulkan.NullHandle) {
		deviceWaitIdleFn(c.device)
	}
	c.teardown.drain()
}

func (c *context) Instance() vulkan.Instance             { return c.instance }
func (c *context) PhysicalDevice() vulkan.PhysicalDevice { return c.physicalDevice }
func (c *context) Device() vulkan.Device                 { return c.device }
func (c *context) GraphicsQueue() vulkan.Queue           { return c.graphicsQueue }
func (c *context) PresentQueue() vulkan.Queue            { return c.presentQueue }
func (c *context) Platform() Platform                    { return c.cfg.Platform }
func (c *context) RenderPass() vulkan.RenderPass         { return c.renderPass }
func (c *context) Pipeline() vulkan.Pipeline             { return c.pipeline }
func (c *context) Framebuffers() []vulkan.Framebuffer    { return c.framebuffers }

func (c *context) SwapchainDimensions() *SwapchainDimensions {
	return &SwapchainDimensions{
		Width:  c.extent.Width,
		Height: c.extent.Height,
		Format: c.format,
	}
}
