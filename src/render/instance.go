package render

import (
	"fmt"
	"strings"

	"github.com/vulkan-go/vulkan"
)

// newInstance builds the root Vulkan handle with the platform's
// required extensions. Validation builds verify layer availability
// first and request the validation layers.
func newInstance(appName string, platform Platform) (vulkan.Instance, error) {
	if enableValidationLayers {
		available, err := instanceLayers()
		if err != nil {
			return vulkan.Instance(vulkan.NullHandle), err
		}
		if !layersSupported(available, validationLayers) {
			return vulkan.Instance(vulkan.NullHandle),
				fmt.Errorf("%w: validation layers requested but not available", ErrUnsupported)
		}
	}

	appInfo := vulkan.ApplicationInfo{
		SType:              vulkan.StructureTypeApplicationInfo,
		PApplicationName:   safeString(appName),
		ApplicationVersion: vulkan.MakeVersion(1, 0, 0),
		PEngineName:        "prism\x00",
		EngineVersion:      vulkan.MakeVersion(1, 0, 0),
		ApiVersion:         vulkan.ApiVersion10,
	}

	extensions := safeStrings(platform.InstanceExtensions())
	createInfo := vulkan.InstanceCreateInfo{
		SType:                   vulkan.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}
	if enableValidationLayers {
		createInfo.EnabledLayerCount = uint32(len(validationLayers))
		createInfo.PpEnabledLayerNames = validationLayers
	}

	var instance vulkan.Instance
	if res := vulkan.CreateInstance(&createInfo, nil, &instance); IsError(res) {
		return vulkan.Instance(vulkan.NullHandle),
			fmt.Errorf("creating instance: %w", NewError(res))
	}
	return instance, nil
}

// layersSupported reports whether every requested layer is advertised.
func layersSupported(available, requested []string) bool {
	for _, want := range requested {
		found := false
		for _, have := range available {
			if want == have {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// safeString guarantees the NUL terminator the C side expects.
func safeString(s string) string {
	return strings.TrimSuffix(s, "\x00") + "\x00"
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}
