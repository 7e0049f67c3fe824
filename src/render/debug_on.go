//go:build validation

package render

// Validation builds request the Khronos validation layer at instance
// creation and propagate the same list to logical device creation.
const enableValidationLayers = true

var validationLayers = []string{
	"VK_LAYER_KHRONOS_validation\x00",
}
