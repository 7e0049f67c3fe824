//go:build !validation

package render

const enableValidationLayers = false

var validationLayers []string
