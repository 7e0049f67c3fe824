package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"prism/src/platform/glfw"
	"prism/src/render"
)

func init() {
	// GLFW and the Vulkan loader require the main OS thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "prism:", err)
		os.Exit(1)
	}
}

func run() error {
	render.SetLogger(slog.Default())

	window, err := glfw.NewWindow(1280, 720, "prism")
	if err != nil {
		return err
	}
	defer window.Destroy()

	ctx, err := render.New(render.Config{
		AppName:        "prism",
		Platform:       window,
		Shaders:        render.DirSource{FS: os.DirFS("shaders")},
		VertexShader:   "triangle.vert.spv",
		FragmentShader: "triangle.frag.spv",
	})
	if err != nil {
		return err
	}
	defer ctx.Destroy()

	return ctx.Run()
}
