// Package glfw adapts a GLFW window to the render.Platform interface.
// It is the only package touching the window system; everything above
// it sees surfaces, extension lists and framebuffer sizes.
package glfw

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/vulkan-go/vulkan"
)

// Window owns one GLFW window configured for Vulkan rendering.
type Window struct {
	window *glfw.Window
}

// NewWindow initializes GLFW, opens a window with no client API (Vulkan
// renders into it directly) and binds the Vulkan loader through GLFW's
// proc address lookup. The caller must be locked to an OS thread.
func NewWindow(width, height int, title string) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initializing glfw: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("creating window: %w", err)
	}

	vulkan.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vulkan.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("initializing vulkan loader: %w", err)
	}

	return &Window{window: window}, nil
}

// CreateSurface creates the Vulkan surface backing the window.
func (w *Window) CreateSurface(instance vulkan.Instance) (vulkan.Surface, error) {
	surface, err := w.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vulkan.NullSurface, fmt.Errorf("creating window surface: %w", err)
	}
	return vulkan.SurfaceFromPointer(surface), nil
}

// InstanceExtensions returns the instance extensions GLFW needs to
// present to this window system.
func (w *Window) InstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

// FramebufferSize returns the drawable area in pixels. Both dimensions
// are zero while the window is minimized.
func (w *Window) FramebufferSize() (int, int) {
	return w.window.GetFramebufferSize()
}

// ShouldClose reports whether the user asked the window to close.
func (w *Window) ShouldClose() bool {
	return w.window.ShouldClose()
}

// PollEvents pumps the window system event queue without blocking.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents blocks until at least one event arrives, then pumps the
// queue.
func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

// Destroy closes the window and shuts GLFW down.
func (w *Window) Destroy() {
	w.window.Destroy()
	glfw.Terminate()
}
