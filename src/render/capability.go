package render

import (
	"fmt"

	"github.com/vulkan-go/vulkan"
)

// FamilyCapabilities is the capability snapshot of one queue family:
// whether it can execute graphics work and whether it can present to
// the drawable surface.
type FamilyCapabilities struct {
	Graphics bool
	Present  bool
}

// SurfaceDetails is the surface-related capability snapshot of a
// physical device. Slices preserve driver enumeration order.
type SurfaceDetails struct {
	Capabilities vulkan.SurfaceCapabilities
	Formats      []vulkan.SurfaceFormat
	PresentModes []vulkan.PresentMode
}

// DeviceCapabilities is the full capability snapshot of a physical
// device candidate. It is never mutated after being queried.
type DeviceCapabilities struct {
	Extensions map[string]struct{}
	Families   []FamilyCapabilities
	Surface    SurfaceDetails
}

// physicalDevices enumerates the physical devices exposed by the
// instance, in driver order.
func physicalDevices(instance vulkan.Instance) ([]vulkan.PhysicalDevice, error) {
	var count uint32
	if res := vulkan.EnumeratePhysicalDevices(instance, &count, nil); IsError(res) {
		return nil, fmt.Errorf("counting physical devices: %w", NewError(res))
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: no GPU with Vulkan support", ErrUnsupported)
	}

	devices := make([]vulkan.PhysicalDevice, count)
	if res := vulkan.EnumeratePhysicalDevices(instance, &count, devices); IsError(res) {
		return nil, fmt.Errorf("enumerating physical devices: %w", NewError(res))
	}
	return devices, nil
}

// instanceLayers returns the names of every available instance layer,
// NUL-terminated for reuse in create-info structs.
func instanceLayers() ([]string, error) {
	var count uint32
	if res := vulkan.EnumerateInstanceLayerProperties(&count, nil); IsError(res) {
		return nil, fmt.Errorf("counting instance layers: %w", NewError(res))
	}

	layers := make([]vulkan.LayerProperties, count)
	if res := vulkan.EnumerateInstanceLayerProperties(&count, layers); IsError(res) {
		return nil, fmt.Errorf("enumerating instance layers: %w", NewError(res))
	}

	names := make([]string, 0, count)
	for _, layer := range layers {
		layer.Deref()
		names = append(names, vulkan.ToString(layer.LayerName[:])+"\x00")
	}
	return names, nil
}

// deviceExtensions returns the set of extensions a physical device
// supports, keyed by NUL-terminated name.
func deviceExtensions(dev vulkan.PhysicalDevice) (map[string]struct{}, error) {
	var count uint32
	if res := vulkan.EnumerateDeviceExtensionProperties(dev, "", &count, nil); IsError(res) {
		return nil, fmt.Errorf("counting device extensions: %w", NewError(res))
	}

	props := make([]vulkan.ExtensionProperties, count)
	if res := vulkan.EnumerateDeviceExtensionProperties(dev, "", &count, props); IsError(res) {
		return nil, fmt.Errorf("enumerating device extensions: %w", NewError(res))
	}

	names := make(map[string]struct{}, count)
	for _, prop := range props {
		prop.Deref()
		names[vulkan.ToString(prop.ExtensionName[:])+"\x00"] = struct{}{}
	}
	return names, nil
}

// queueFamilyCapabilities snapshots every queue family of a device in
// index order. A failed per-family surface query leaves that family
// marked non-presenting rather than failing the whole candidate.
func queueFamilyCapabilities(dev vulkan.PhysicalDevice, surface vulkan.Surface) []FamilyCapabilities {
	var count uint32
	vulkan.GetPhysicalDeviceQueueFamilyProperties(dev, &count, nil)

	families := make([]vulkan.QueueFamilyProperties, count)
	vulkan.GetPhysicalDeviceQueueFamilyProperties(dev, &count, families)

	caps := make([]FamilyCapabilities, count)
	for i, family := range families {
		family.Deref()
		caps[i].Graphics = family.QueueFlags&vulkan.QueueFlags(vulkan.QueueGraphicsBit) != 0

		var supported vulkan.Bool32
		res := vulkan.GetPhysicalDeviceSurfaceSupport(dev, uint32(i), surface, &supported)
		if IsError(res) {
			Logger().Warn("surface support query failed",
				"family", i, "error", NewError(res))
			continue
		}
		caps[i].Present = supported.B()
	}
	return caps
}

// surfaceDetails snapshots the surface capabilities, formats and
// present modes a device offers for the given surface.
func surfaceDetails(dev vulkan.PhysicalDevice, surface vulkan.Surface) (SurfaceDetails, error) {
	var details SurfaceDetails

	var caps vulkan.SurfaceCapabilities
	if res := vulkan.GetPhysicalDeviceSurfaceCapabilities(dev, surface, &caps); IsError(res) {
		return details, fmt.Errorf("querying surface capabilities: %w", NewError(res))
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	details.Capabilities = caps

	var formatCount uint32
	if res := vulkan.GetPhysicalDeviceSurfaceFormats(dev, surface, &formatCount, nil); IsError(res) {
		return details, fmt.Errorf("counting surface formats: %w", NewError(res))
	}
	if formatCount > 0 {
		formats := make([]vulkan.SurfaceFormat, formatCount)
		if res := vulkan.GetPhysicalDeviceSurfaceFormats(dev, surface, &formatCount, formats); IsError(res) {
			return details, fmt.Errorf("retrieving surface formats: %w", NewError(res))
		}
		for _, format := range formats {
			format.Deref()
			details.Formats = append(details.Formats, format)
		}
	}

	var modeCount uint32
	if res := vulkan.GetPhysicalDeviceSurfacePresentModes(dev, surface, &modeCount, nil); IsError(res) {
		return details, fmt.Errorf("counting present modes: %w", NewError(res))
	}
	if modeCount > 0 {
		modes := make([]vulkan.PresentMode, modeCount)
		if res := vulkan.GetPhysicalDeviceSurfacePresentModes(dev, surface, &modeCount, modes); IsError(res) {
			return details, fmt.Errorf("retrieving present modes: %w", NewError(res))
		}
		details.PresentModes = modes
	}

	return details, nil
}

// probeDevice captures the full capability snapshot of one candidate.
func probeDevice(dev vulkan.PhysicalDevice, surface vulkan.Surface) (DeviceCapabilities, error) {
	extensions, err := deviceExtensions(dev)
	if err != nil {
		return DeviceCapabilities{}, err
	}

	details, err := surfaceDetails(dev, surface)
	if err != nil {
		return DeviceCapabilities{}, err
	}

	return DeviceCapabilities{
		Extensions: extensions,
		Families:   queueFamilyCapabilities(dev, surface),
		Surface:    details,
	}, nil
}
