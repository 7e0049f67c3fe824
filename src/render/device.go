package render

import (
	"fmt"

	"github.com/vulkan-go/vulkan"

	"prism/src/optional"
)

// FamilyIndices is the queue family assignment resolved for a physical
// device. Both fields are explicit optionals: index 0 is a valid
// assignment, so absence is never encoded as a sentinel integer.
type FamilyIndices struct {
	// Graphics is the index of the first graphics-capable family.
	Graphics optional.Optional[uint32]

	// Present is the index of the first family able to present to the
	// drawable surface. It may equal Graphics.
	Present optional.Optional[uint32]
}

// IsComplete reports whether both families have been assigned.
func (f FamilyIndices) IsComplete() bool {
	return f.Graphics.HasValue() && f.Present.HasValue()
}

// resolveQueueFamilies scans families in index order and records the
// first graphics-capable and the first present-capable index, stopping
// once both are assigned. It returns a fresh assignment per call; no
// state is shared across candidates.
func resolveQueueFamilies(families []FamilyCapabilities) FamilyIndices {
	var indices FamilyIndices
	for i, family := range families {
		if family.Graphics && !indices.Graphics.HasValue() {
			indices.Graphics.Set(uint32(i))
		}
		if family.Present && !indices.Present.HasValue() {
			indices.Present.Set(uint32(i))
		}
		if indices.IsComplete() {
			break
		}
	}
	return indices
}

// deviceCandidate pairs a physical device handle with its capability
// snapshot and resolved queue family assignment.
type deviceCandidate struct {
	handle  vulkan.PhysicalDevice
	caps    DeviceCapabilities
	indices FamilyIndices
}

// suitable reports whether a candidate satisfies every bootstrap
// requirement: a complete queue family assignment, every required
// extension and, given extension support, at least one surface format
// and one present mode.
func suitable(c deviceCandidate, required []string) bool {
	if !c.indices.IsComplete() {
		return false
	}
	if !supportsExtensions(c.caps, required) {
		return false
	}
	return len(c.caps.Surface.Formats) > 0 && len(c.caps.Surface.PresentModes) > 0
}

func supportsExtensions(caps DeviceCapabilities, required []string) bool {
	for _, name := range required {
		if _, ok := caps.Extensions[name]; !ok {
			return false
		}
	}
	return true
}

// probeFunc captures the capability snapshot of one physical device.
type probeFunc func(vulkan.PhysicalDevice) (DeviceCapabilities, error)

// selectPhysicalDevice returns the first device in enumeration order
// satisfying all requirements. Devices are probed lazily and the scan
// stops at the first acceptable candidate. Enumeration order is the
// tie-break and must be preserved: no sorting, no scoring.
func selectPhysicalDevice(devices []vulkan.PhysicalDevice, probe probeFunc, required []string) (deviceCandidate, error) {
	for i, dev := range devices {
		caps, err := probe(dev)
		if err != nil {
			return deviceCandidate{}, fmt.Errorf("probing device %d: %w", i, err)
		}

		candidate := deviceCandidate{
			handle:  dev,
			caps:    caps,
			indices: resolveQueueFamilies(caps.Families),
		}
		if suitable(candidate, required) {
			Logger().Info("physical device selected",
				"index", i,
				"graphics_family", candidate.indices.Graphics.Get(),
				"present_family", candidate.indices.Present.Get())
			return candidate, nil
		}
		Logger().Debug("physical device rejected", "index", i)
	}
	return deviceCandidate{}, fmt.Errorf("%w: no suitable physical device", ErrUnsupported)
}

// newLogicalDevice creates the logical device over the chosen physical
// device. One queue of priority 1.0 is requested per distinct family in
// the assignment; graphics and present may collapse into a single
// request. Validation builds propagate the instance layer list.
func newLogicalDevice(physicalDevice vulkan.PhysicalDevice, indices FamilyIndices, extensions []string) (vulkan.Device, error) {
	unique := map[uint32]struct{}{
		indices.Graphics.Get(): {},
		indices.Present.Get():  {},
	}

	queueInfos := make([]vulkan.DeviceQueueCreateInfo, 0, len(unique))
	for family := range unique {
		queueInfos = append(queueInfos, vulkan.DeviceQueueCreateInfo{
			SType:            vulkan.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	createInfo := vulkan.DeviceCreateInfo{
		SType:                   vulkan.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		PEnabledFeatures:        []vulkan.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}
	if enableValidationLayers {
		createInfo.EnabledLayerCount = uint32(len(validationLayers))
		createInfo.PpEnabledLayerNames = validationLayers
	}

	var device vulkan.Device
	if res := vulkan.CreateDevice(physicalDevice, &createInfo, nil, &device); IsError(res) {
		return vulkan.Device(vulkan.NullHandle),
			fmt.Errorf("creating logical device: %w", NewError(res))
	}
	return device, nil
}

// deviceQueues retrieves one queue handle per assigned family. When the
// families coincide both handles refer to the same queue.
func deviceQueues(device vulkan.Device, indices FamilyIndices) (graphics, present vulkan.Queue) {
	vulkan.GetDeviceQueue(device, indices.Graphics.Get(), 0, &graphics)
	vulkan.GetDeviceQueue(device, indices.Present.Get(), 0, &present)
	return graphics, present
}
