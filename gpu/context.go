// Package gpu implements the tile-based compute-shader rendering back-end:
// project, bin, sort, and rasterize splats entirely on the GPU, falling
// back to the CPU path permanently on any failure or timeout.
package gpu

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	// GLFW and the GL context it creates are bound to the thread that
	// created them.
	runtime.LockOSThread()
}

// Context owns a hidden GLFW window whose sole purpose is hosting a
// GL 4.3 context capable of compute shaders; nothing is ever presented
// on screen.
type Context struct {
	window *glfw.Window
}

// NewContext brings up GLFW and an offscreen, invisible GL 4.3 core
// context.
func NewContext() (*Context, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("gpu: glfw init: %w", err)
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(1, 1, "splatterm-gpu", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("gpu: create offscreen window: %w", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("gpu: init GL: %w", err)
	}

	return &Context{window: window}, nil
}

// Close releases the offscreen context.
func (c *Context) Close() {
	c.window.Destroy()
	glfw.Terminate()
}
