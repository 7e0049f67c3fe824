package render

import (
	"fmt"
	"math"

	"github.com/vulkan-go/vulkan"
)

// undefinedExtent is the sentinel a surface reports when the window
// system leaves the swapchain extent up to the application.
const undefinedExtent = math.MaxUint32

// chooseSurfaceFormat returns the first exact match of the preferred
// 8-bit BGRA format with the non-linear sRGB color space. When the
// preferred pair is unavailable the first advertised format is used; no
// error is raised. The caller guarantees a non-empty list.
func chooseSurfaceFormat(available []vulkan.SurfaceFormat) vulkan.SurfaceFormat {
	for _, format := range available {
		if format.Format == vulkan.FormatB8g8r8a8Srgb &&
			format.ColorSpace == vulkan.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return available[0]
}

// choosePresentMode prefers mailbox, the low-latency triple-buffered
// mode. Fifo is returned otherwise: the Vulkan specification guarantees
// its support, so the fallback is valid even when the advertised list
// omits it. This path never fails.
func choosePresentMode(available []vulkan.PresentMode) vulkan.PresentMode {
	for _, mode := range available {
		if mode == vulkan.PresentModeMailbox {
			return mode
		}
	}
	return vulkan.PresentModeFifo
}

// chooseExtent uses the surface's current extent verbatim when it is
// defined. When the surface reports the undefined sentinel, the
// framebuffer size is clamped componentwise into the supported range.
func chooseExtent(caps vulkan.SurfaceCapabilities, framebufferSize func() (int, int)) vulkan.Extent2D {
	if caps.CurrentExtent.Width != undefinedExtent {
		return caps.CurrentExtent
	}

	width, height := framebufferSize()
	return vulkan.Extent2D{
		Width:  clampUint32(uint32(width), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampUint32(uint32(height), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseImageCount requests one image over the supported minimum so the
// application never waits on the driver to hand back an image. A
// nonzero maximum caps the request; zero means unbounded.
func chooseImageCount(caps vulkan.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// chooseSharingMode returns concurrent sharing across both family
// indices when graphics and present are distinct, exclusive access with
// no family list otherwise.
func chooseSharingMode(indices FamilyIndices) (vulkan.SharingMode, []uint32) {
	graphics, present := indices.Graphics.Get(), indices.Present.Get()
	if graphics != present {
		return vulkan.SharingModeConcurrent, []uint32{graphics, present}
	}
	return vulkan.SharingModeExclusive, nil
}

func clampUint32(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// swapchainState is what the presentation negotiator produces: the
// chain handle, the driver-delivered images and the negotiated format
// and extent.
type swapchainState struct {
	swapchain vulkan.Swapchain
	images    []vulkan.Image
	format    vulkan.Format
	extent    vulkan.Extent2D
}

// newSwapchain negotiates format, present mode and extent against the
// given surface details and creates the swapchain. The image array is
// sized from the delivered count queried back from the driver, which
// may exceed the request.
func newSwapchain(device vulkan.Device, surface vulkan.Surface, details SurfaceDetails, indices FamilyIndices, framebufferSize func() (int, int)) (swapchainState, error) {
	// The selector verified this at bootstrap, but recreation re-queries
	// the surface and must not trust a degraded answer.
	if len(details.Formats) == 0 {
		return swapchainState{}, fmt.Errorf("%w: surface advertises no formats", ErrUnsupported)
	}

	format := chooseSurfaceFormat(details.Formats)
	presentMode := choosePresentMode(details.PresentModes)
	extent := chooseExtent(details.Capabilities, framebufferSize)
	imageCount := chooseImageCount(details.Capabilities)
	sharingMode, familyIndices := chooseSharingMode(indices)

	createInfo := vulkan.SwapchainCreateInfo{
		SType:                 vulkan.StructureTypeSwapchainCreateInfo,
		Surface:               surface,
		MinImageCount:         imageCount,
		ImageFormat:           format.Format,
		ImageColorSpace:       format.ColorSpace,
		ImageExtent:           extent,
		ImageArrayLayers:      1,
		ImageUsage:            vulkan.ImageUsageFlags(vulkan.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharingMode,
		QueueFamilyIndexCount: uint32(len(familyIndices)),
		PQueueFamilyIndices:   familyIndices,
		PreTransform:          details.Capabilities.CurrentTransform,
		CompositeAlpha:        vulkan.CompositeAlphaOpaqueBit,
		PresentMode:           presentMode,
		Clipped:               vulkan.True,
	}

	var swapchain vulkan.Swapchain
	if res := vulkan.CreateSwapchain(device, &createInfo, nil, &swapchain); IsError(res) {
		return swapchainState{}, fmt.Errorf("creating swapchain: %w", NewError(res))
	}

	var delivered uint32
	if res := vulkan.GetSwapchainImages(device, swapchain, &delivered, nil); IsError(res) {
		vulkan.DestroySwapchain(device, swapchain, nil)
		return swapchainState{}, fmt.Errorf("counting swapchain images: %w", NewError(res))
	}
	images := make([]vulkan.Image, delivered)
	if res := vulkan.GetSwapchainImages(device, swapchain, &delivered, images); IsError(res) {
		vulkan.DestroySwapchain(device, swapchain, nil)
		return swapchainState{}, fmt.Errorf("retrieving swapchain images: %w", NewError(res))
	}

	Logger().Info("swapchain created",
		"format", format.Format,
		"present_mode", presentMode,
		"width", extent.Width,
		"height", extent.Height,
		"requested_images", imageCount,
		"delivered_images", delivered)

	return swapchainState{
		swapchain: swapchain,
		images:    images,
		format:    format.Format,
		extent:    extent,
	}, nil
}

// newImageView wraps one swapchain image in an identity-swizzled color
// view over its single mip level and single array layer.
func newImageView(device vulkan.Device, image vulkan.Image, format vulkan.Format) (vulkan.ImageView, error) {
	createInfo := vulkan.ImageViewCreateInfo{
		SType:    vulkan.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vulkan.ImageViewType2d,
		Format:   format,
		Components: vulkan.ComponentMapping{
			R: vulkan.ComponentSwizzleIdentity,
			G: vulkan.ComponentSwizzleIdentity,
			B: vulkan.ComponentSwizzleIdentity,
			A: vulkan.ComponentSwizzleIdentity,
		},
		SubresourceRange: vulkan.ImageSubresourceRange{
			AspectMask:     vulkan.ImageAspectFlags(vulkan.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vulkan.ImageView
	if res := vulkan.CreateImageView(device, &createInfo, nil, &view); IsError(res) {
		return vulkan.NullImageView, fmt.Errorf("creating image view: %w", NewError(res))
	}
	return view, nil
}
