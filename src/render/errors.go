package render

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/vulkan-go/vulkan"
)

// ErrUnsupported reports that no device, layer, extension, surface
// format or present mode satisfies a required capability. It is wrapped
// with context by the stage that detected the gap.
var ErrUnsupported = errors.New("required capability unavailable")

// NewError converts a Vulkan result into an error carrying the call
// site of the failing invocation. A success result maps to nil.
func NewError(retVal vulkan.Result) error {
	if retVal != vulkan.Success {
		pc, _, _, ok := runtime.Caller(1)
		if !ok {
			return fmt.Errorf("vulkan error: %w (%d)", vulkan.Error(retVal), retVal)
		}
		frame := newStackFrame(pc)
		return fmt.Errorf("vulkan error: %w (%d) on %s",
			vulkan.Error(retVal), retVal, frame.String())
	}
	return nil
}

// IsError reports whether a Vulkan result is anything but success.
func IsError(retVal vulkan.Result) bool {
	return retVal != vulkan.Success
}
