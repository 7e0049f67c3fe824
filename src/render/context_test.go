package render

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"github.com/vulkan-go/vulkan"
)

// Config validation must reject unusable configurations before any
// driver call is attempted.
func TestNewRejectsIncompleteConfig(t *testing.T) {
	t.Run("missing platform", func(t *testing.T) {
		_, err := New(Config{Shaders: DirSource{FS: fstest.MapFS{}}})
		require.ErrorContains(t, err, "no platform")
	})

	t.Run("missing shader source", func(t *testing.T) {
		_, err := New(Config{Platform: stubPlatform{}})
		require.ErrorContains(t, err, "no shader source")
	})
}

func TestNewFailureReleasesInReverseOrder(t *testing.T) {
	var released []string
	installFakeStages(t, &released)

	// Shader loading fails after the pipeline layout is created, so the
	// layout is the newest live resource when the chain unwinds.
	loadErr := errors.New("bytecode missing")
	_, err := New(Config{
		AppName:  "test",
		Platform: stubPlatform{width: 800, height: 600},
		Shaders:  failingShaderSource{err: loadErr},
	})
	require.ErrorIs(t, err, loadErr)
	require.ErrorContains(t, err, "createPipeline")

	require.Equal(t, []string{
		"pipeline layout",
		"render pass",
		"image view", "image view", "image view",
		"swapchain",
		"logical device",
		"surface",
		"instance",
	}, released)
}

func TestRecreateSwapchainRebuildsChainAndDestroyReleasesAll(t *testing.T) {
	var released []string
	installFakeStages(t, &released)

	ctx, err := New(Config{
		AppName:        "test",
		Platform:       stubPlatform{width: 800, height: 600},
		Shaders:        fakeShaderFS(),
		VertexShader:   "tri.vert.spv",
		FragmentShader: "tri.frag.spv",
	})
	require.NoError(t, err)
	require.Empty(t, released, "a successful bootstrap releases nothing")
	require.Len(t, ctx.Framebuffers(), 3)

	dims := ctx.SwapchainDimensions()
	require.Equal(t, uint32(800), dims.Width)
	require.Equal(t, uint32(600), dims.Height)

	require.NoError(t, ctx.RecreateSwapchain())
	require.Equal(t, []string{
		"framebuffer", "framebuffer", "framebuffer",
		"pipeline",
		"pipeline layout",
		"render pass",
		"image view", "image view", "image view",
		"swapchain",
	}, released, "recreation releases exactly the chain above the device, newest first")
	require.Len(t, ctx.Framebuffers(), 3, "the chain is rebuilt after the drain")

	released = released[:0]
	ctx.Destroy()
	ctx.Destroy()
	require.Equal(t, []string{
		"framebuffer", "framebuffer", "framebuffer",
		"pipeline",
		"pipeline layout",
		"render pass",
		"image view", "image view", "image view",
		"swapchain",
		"logical device",
		"surface",
		"instance",
	}, released, "the second Destroy must release nothing")
}

// stubPlatform satisfies Platform without a window system.
type stubPlatform struct{ width, height int }

func (stubPlatform) CreateSurface(vulkan.Instance) (vulkan.Surface, error) {
	return vulkan.NullSurface, nil
}
func (stubPlatform) InstanceExtensions() []string   { return nil }
func (p stubPlatform) FramebufferSize() (int, int)  { return p.width, p.height }
func (stubPlatform) ShouldClose() bool              { return true }
func (stubPlatform) PollEvents()                    {}
func (stubPlatform) WaitEvents()                    {}

type failingShaderSource struct{ err error }

func (s failingShaderSource) Load(string) ([]byte, error) { return nil, s.err }

func fakeShaderFS() DirSource {
	code := []byte{0x03, 0x02, 0x23, 0x07}
	return DirSource{FS: fstest.MapFS{
		"tri.vert.spv": &fstest.MapFile{Data: code},
		"tri.frag.spv": &fstest.MapFile{Data: code},
	}}
}

// swapFn replaces a stage indirection for the duration of one test.
func swapFn[T any](t *testing.T, target *T, fake T) {
	t.Helper()
	orig := *target
	*target = fake
	t.Cleanup(func() { *target = orig })
}

// installFakeStages routes every driver call to in-memory fakes. The
// fakes hand out null handles, report one suitable device with a single
// shared queue family and a three-image swapchain, and append the name
// of each released resource to *released.
func installFakeStages(t *testing.T, released *[]string) {
	t.Helper()
	record := func(name string) { *released = append(*released, name) }

	swapFn(t, &newInstanceFn, func(string, Platform) (vulkan.Instance, error) {
		return vulkan.Instance(vulkan.NullHandle), nil
	})
	swapFn(t, &physicalDevicesFn, func(vulkan.Instance) ([]vulkan.PhysicalDevice, error) {
		return make([]vulkan.PhysicalDevice, 1), nil
	})
	swapFn(t, &probeDeviceFn, func(vulkan.PhysicalDevice, vulkan.Surface) (DeviceCapabilities, error) {
		return completeCapabilities(), nil
	})
	swapFn(t, &newLogicalDeviceFn, func(vulkan.PhysicalDevice, FamilyIndices, []string) (vulkan.Device, error) {
		return vulkan.Device(vulkan.NullHandle), nil
	})
	swapFn(t, &deviceQueuesFn, func(vulkan.Device, FamilyIndices) (vulkan.Queue, vulkan.Queue) {
		queue := vulkan.Queue(vulkan.NullHandle)
		return queue, queue
	})
	swapFn(t, &surfaceDetailsFn, func(vulkan.PhysicalDevice, vulkan.Surface) (SurfaceDetails, error) {
		return SurfaceDetails{
			Capabilities: vulkan.SurfaceCapabilities{
				CurrentExtent: vulkan.Extent2D{Width: 800, Height: 600},
				MinImageCount: 2,
			},
			Formats: []vulkan.SurfaceFormat{
				{Format: vulkan.FormatB8g8r8a8Srgb, ColorSpace: vulkan.ColorSpaceSrgbNonlinear},
			},
			PresentModes: []vulkan.PresentMode{vulkan.PresentModeFifo},
		}, nil
	})
	swapFn(t, &newSwapchainFn, func(_ vulkan.Device, _ vulkan.Surface, details SurfaceDetails, _ FamilyIndices, _ func() (int, int)) (swapchainState, error) {
		return swapchainState{
			swapchain: vulkan.NullSwapchain,
			images:    make([]vulkan.Image, 3),
			format:    details.Formats[0].Format,
			extent:    details.Capabilities.CurrentExtent,
		}, nil
	})
	swapFn(t, &newImageViewFn, func(vulkan.Device, vulkan.Image, vulkan.Format) (vulkan.ImageView, error) {
		return vulkan.NullImageView, nil
	})
	swapFn(t, &newRenderPassFn, func(vulkan.Device, vulkan.Format) (vulkan.RenderPass, error) {
		return vulkan.NullRenderPass, nil
	})
	swapFn(t, &newPipelineLayoutFn, func(vulkan.Device) (vulkan.PipelineLayout, error) {
		return vulkan.NullPipelineLayout, nil
	})
	swapFn(t, &newGraphicsPipelineFn, func(vulkan.Device, vulkan.Extent2D, vulkan.RenderPass, vulkan.PipelineLayout, []byte, []byte) (vulkan.Pipeline, error) {
		return vulkan.NullPipeline, nil
	})
	swapFn(t, &newFramebufferFn, func(vulkan.Device, vulkan.RenderPass, vulkan.ImageView, vulkan.Extent2D) (vulkan.Framebuffer, error) {
		return vulkan.NullFramebuffer, nil
	})

	swapFn(t, &destroyInstanceFn, func(vulkan.Instance) { record("instance") })
	swapFn(t, &destroySurfaceFn, func(vulkan.Instance, vulkan.Surface) { record("surface") })
	swapFn(t, &destroyDeviceFn, func(vulkan.Device) { record("logical device") })
	swapFn(t, &destroySwapchainFn, func(vulkan.Device, vulkan.Swapchain) { record("swapchain") })
	swapFn(t, &destroyImageViewFn, func(vulkan.Device, vulkan.ImageView) { record("image view") })
	swapFn(t, &destroyRenderPassFn, func(vulkan.Device, vulkan.RenderPass) { record("render pass") })
	swapFn(t, &destroyPipelineLayoutFn, func(vulkan.Device, vulkan.PipelineLayout) { record("pipeline layout") })
	swapFn(t, &destroyPipelineFn, func(vulkan.Device, vulkan.Pipeline) { record("pipeline") })
	swapFn(t, &destroyFramebufferFn, func(vulkan.Device, vulkan.Framebuffer) { record("framebuffer") })
	swapFn(t, &deviceWaitIdleFn, func(vulkan.Device) {})
}
