package render

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulkan-go/vulkan"
)

func TestNewError(t *testing.T) {
	t.Run("success maps to nil", func(t *testing.T) {
		require.NoError(t, NewError(vulkan.Success))
	})

	t.Run("failure wraps the binding error", func(t *testing.T) {
		err := NewError(vulkan.ErrorDeviceLost)
		require.Error(t, err)
		require.ErrorIs(t, err, vulkan.Error(vulkan.ErrorDeviceLost))
		require.Contains(t, err.Error(), "vulkan error")
	})

	t.Run("failure names the calling site", func(t *testing.T) {
		err := NewError(vulkan.ErrorOutOfDeviceMemory)
		require.ErrorContains(t, err, "errors_test.go")
	})
}

func TestIsError(t *testing.T) {
	require.False(t, IsError(vulkan.Success))
	require.True(t, IsError(vulkan.ErrorOutOfHostMemory))
	require.True(t, IsError(vulkan.Incomplete))
}
