package render

import (
	"fmt"
	"runtime"
)

// stackFrame identifies the code location a failing Vulkan call was
// issued from.
type stackFrame struct {
	function string
	file     string
	line     int
}

func newStackFrame(pc uintptr) stackFrame {
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return stackFrame{function: "unknown"}
	}
	file, line := fn.FileLine(pc)
	return stackFrame{
		function: fn.Name(),
		file:     file,
		line:     line,
	}
}

func (f stackFrame) String() string {
	return fmt.Sprintf("%s (%s:%d)", f.function, f.file, f.line)
}
