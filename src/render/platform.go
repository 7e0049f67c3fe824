package render

import (
	"io/fs"

	"github.com/vulkan-go/vulkan"
)

// Platform is the windowing collaborator. It yields the drawable
// surface, reports framebuffer geometry and pumps window events. The
// render package interacts with the window system through nothing else.
type Platform interface {
	// CreateSurface wraps the OS window in a Vulkan surface.
	CreateSurface(instance vulkan.Instance) (vulkan.Surface, error)

	// InstanceExtensions lists the instance extensions the window
	// system requires for surface creation.
	InstanceExtensions() []string

	// FramebufferSize returns the current framebuffer size in pixels.
	FramebufferSize() (width, height int)

	// ShouldClose reports whether the user asked to close the window.
	ShouldClose() bool

	// PollEvents pumps pending window events without blocking.
	PollEvents()

	// WaitEvents blocks until at least one window event arrives, then
	// pumps it. Used while the window has no drawable area.
	WaitEvents()
}

// ShaderSource loads precompiled SPIR-V bytecode by name. Shader
// compilation is out of scope; only ready bytecode is consumed.
type ShaderSource interface {
	Load(name string) ([]byte, error)
}

// DirSource serves shader bytecode from a file system, typically
// os.DirFS over a shaders directory or an embed.FS.
type DirSource struct {
	FS fs.FS
}

func (s DirSource) Load(name string) ([]byte, error) {
	return fs.ReadFile(s.FS, name)
}
