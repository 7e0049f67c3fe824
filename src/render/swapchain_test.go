package render

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulkan-go/vulkan"
)

// otherColorSpace stands in for any extension color space distinct from
// the preferred non-linear sRGB one.
const otherColorSpace = vulkan.ColorSpaceSrgbNonlinear + 1

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := vulkan.SurfaceFormat{
		Format:     vulkan.FormatB8g8r8a8Srgb,
		ColorSpace: vulkan.ColorSpaceSrgbNonlinear,
	}

	testCases := []struct {
		name      string
		available []vulkan.SurfaceFormat
		expected  vulkan.SurfaceFormat
	}{
		{
			name: "preferred format wins regardless of position",
			available: []vulkan.SurfaceFormat{
				{Format: vulkan.FormatR8g8b8a8Unorm, ColorSpace: vulkan.ColorSpaceSrgbNonlinear},
				preferred,
			},
			expected: preferred,
		},
		{
			name: "matching format with wrong color space does not count",
			available: []vulkan.SurfaceFormat{
				{Format: vulkan.FormatB8g8r8a8Srgb, ColorSpace: otherColorSpace},
				{Format: vulkan.FormatR8g8b8a8Unorm, ColorSpace: vulkan.ColorSpaceSrgbNonlinear},
			},
			expected: vulkan.SurfaceFormat{
				Format:     vulkan.FormatB8g8r8a8Srgb,
				ColorSpace: otherColorSpace,
			},
		},
		{
			name: "fallback is the first advertised format",
			available: []vulkan.SurfaceFormat{
				{Format: vulkan.FormatR8g8b8a8Unorm, ColorSpace: vulkan.ColorSpaceSrgbNonlinear},
				{Format: vulkan.FormatR5g6b5UnormPack16, ColorSpace: vulkan.ColorSpaceSrgbNonlinear},
			},
			expected: vulkan.SurfaceFormat{
				Format:     vulkan.FormatR8g8b8a8Unorm,
				ColorSpace: vulkan.ColorSpaceSrgbNonlinear,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := chooseSurfaceFormat(tc.available)
			require.Equal(t, tc.expected.Format, got.Format)
			require.Equal(t, tc.expected.ColorSpace, got.ColorSpace)
		})
	}
}

func TestChoosePresentMode(t *testing.T) {
	testCases := []struct {
		name      string
		available []vulkan.PresentMode
		expected  vulkan.PresentMode
	}{
		{
			name:      "mailbox preferred when advertised",
			available: []vulkan.PresentMode{vulkan.PresentModeFifo, vulkan.PresentModeMailbox},
			expected:  vulkan.PresentModeMailbox,
		},
		{
			name:      "fifo fallback",
			available: []vulkan.PresentMode{vulkan.PresentModeFifo, vulkan.PresentModeImmediate},
			expected:  vulkan.PresentModeFifo,
		},
		{
			// Fifo support is guaranteed by every conforming driver, so
			// the fallback holds even when the advertised list omits it.
			name:      "fifo fallback even when not advertised",
			available: []vulkan.PresentMode{vulkan.PresentModeImmediate},
			expected:  vulkan.PresentModeFifo,
		},
		{
			name:      "empty list still yields fifo",
			available: nil,
			expected:  vulkan.PresentModeFifo,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, choosePresentMode(tc.available))
		})
	}
}

func TestChooseExtentDefined(t *testing.T) {
	caps := vulkan.SurfaceCapabilities{
		CurrentExtent: vulkan.Extent2D{Width: 1920, Height: 1080},
	}

	// A defined current extent is used verbatim; the framebuffer must
	// not even be queried.
	extent := chooseExtent(caps, func() (int, int) {
		t.Fatal("framebuffer size queried despite defined extent")
		return 0, 0
	})
	require.Equal(t, vulkan.Extent2D{Width: 1920, Height: 1080}, extent)
}

func TestChooseExtentUndefined(t *testing.T) {
	caps := vulkan.SurfaceCapabilities{
		CurrentExtent:  vulkan.Extent2D{Width: undefinedExtent, Height: undefinedExtent},
		MinImageExtent: vulkan.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: vulkan.Extent2D{Width: 4096, Height: 2160},
	}

	testCases := []struct {
		name          string
		width, height int
		expected      vulkan.Extent2D
	}{
		{
			name:  "in-range size passes through",
			width: 800, height: 600,
			expected: vulkan.Extent2D{Width: 800, Height: 600},
		},
		{
			name:  "oversized framebuffer clamps to maximum",
			width: 8192, height: 8192,
			expected: vulkan.Extent2D{Width: 4096, Height: 2160},
		},
		{
			name:  "undersized framebuffer clamps to minimum",
			width: 1, height: 1,
			expected: vulkan.Extent2D{Width: 64, Height: 64},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			extent := chooseExtent(caps, func() (int, int) { return tc.width, tc.height })
			require.Equal(t, tc.expected, extent)
		})
	}
}

func TestChooseImageCount(t *testing.T) {
	testCases := []struct {
		name     string
		min, max uint32
		expected uint32
	}{
		{name: "one over minimum", min: 2, max: 8, expected: 3},
		{name: "clamped by maximum", min: 2, max: 2, expected: 2},
		{name: "zero maximum means unbounded", min: 5, max: 0, expected: 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			caps := vulkan.SurfaceCapabilities{
				MinImageCount: tc.min,
				MaxImageCount: tc.max,
			}
			require.Equal(t, tc.expected, chooseImageCount(caps))
		})
	}
}

func TestChooseSharingMode(t *testing.T) {
	t.Run("distinct families share concurrently", func(t *testing.T) {
		indices := resolveQueueFamilies([]FamilyCapabilities{
			{Graphics: true},
			{Present: true},
		})

		mode, families := chooseSharingMode(indices)
		require.Equal(t, vulkan.SharingModeConcurrent, mode)
		require.Equal(t, []uint32{0, 1}, families)
	})

	t.Run("shared family is exclusive", func(t *testing.T) {
		indices := resolveQueueFamilies([]FamilyCapabilities{
			{Graphics: true, Present: true},
		})

		mode, families := chooseSharingMode(indices)
		require.Equal(t, vulkan.SharingModeExclusive, mode)
		require.Empty(t, families)
	})
}

func TestNewSwapchainRejectsEmptyFormats(t *testing.T) {
	indices := resolveQueueFamilies([]FamilyCapabilities{{Graphics: true, Present: true}})

	// The empty-format guard must fire before any driver call.
	_, err := newSwapchain(vulkan.Device(vulkan.NullHandle), vulkan.NullSurface, SurfaceDetails{
		PresentModes: []vulkan.PresentMode{vulkan.PresentModeFifo},
	}, indices, func() (int, int) { return 800, 600 })
	require.ErrorIs(t, err, ErrUnsupported)
}

// TestNegotiationSplitFamilies walks the whole negotiation over a device
// whose graphics and present capabilities live in different families.
func TestNegotiationSplitFamilies(t *testing.T) {
	families := []FamilyCapabilities{
		{Graphics: true},
		{Present: true},
	}
	indices := resolveQueueFamilies(families)
	require.True(t, indices.IsComplete())
	require.Equal(t, uint32(0), indices.Graphics.Get())
	require.Equal(t, uint32(1), indices.Present.Get())

	mode, shared := chooseSharingMode(indices)
	require.Equal(t, vulkan.SharingModeConcurrent, mode)
	require.Equal(t, []uint32{0, 1}, shared)

	// None of the formats is the preferred pair, so the first entry wins.
	formats := []vulkan.SurfaceFormat{
		{Format: vulkan.FormatR8g8b8a8Unorm, ColorSpace: vulkan.ColorSpaceSrgbNonlinear},
		{Format: vulkan.FormatB8g8r8a8Unorm, ColorSpace: vulkan.ColorSpaceSrgbNonlinear},
		{Format: vulkan.FormatR5g6b5UnormPack16, ColorSpace: vulkan.ColorSpaceSrgbNonlinear},
	}
	require.Equal(t, vulkan.FormatR8g8b8a8Unorm, chooseSurfaceFormat(formats).Format)

	modes := []vulkan.PresentMode{vulkan.PresentModeFifo}
	require.Equal(t, vulkan.PresentModeFifo, choosePresentMode(modes))

	caps := vulkan.SurfaceCapabilities{
		CurrentExtent:  vulkan.Extent2D{Width: undefinedExtent, Height: undefinedExtent},
		MinImageExtent: vulkan.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vulkan.Extent2D{Width: 4096, Height: 4096},
		MinImageCount:  2,
		MaxImageCount:  0,
	}
	extent := chooseExtent(caps, func() (int, int) { return 800, 600 })
	require.Equal(t, vulkan.Extent2D{Width: 800, Height: 600}, extent)
	require.Equal(t, uint32(3), chooseImageCount(caps))
}
