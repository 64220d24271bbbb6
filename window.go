package horizon

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Host is the platform window the controller runs in.
type Host interface {
	ShouldClose() bool
	PollEvents()
	Input() *Input
	FramebufferSize() (int, int)
	PixelRatio() float32
	// SetResizeHandler installs fn for framebuffer size changes; nil detaches.
	SetResizeHandler(fn func(width, height int))
	Destroy()
}

// Window is a GLFW window without a client API, ready for a WebGPU surface.
type Window struct {
	glfw   *glfw.Window
	input  Input
	title  string
	closed bool
}

// OpenWindow initializes GLFW and creates the window. It locks the calling
// goroutine to its OS thread; all window calls must stay on that goroutine.
func OpenWindow(width, height int, title string) (*Window, error) {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "Horizon"
	}

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("horizon: glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // no OpenGL context, wgpu owns the surface
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("horizon: create window: %w", err)
	}

	w := &Window{glfw: win, title: title}
	w.input.MouseX, w.input.MouseY = win.GetCursorPos()
	return w, nil
}

// GLFW exposes the native window for surface creation.
func (w *Window) GLFW() *glfw.Window { return w.glfw }

func (w *Window) ShouldClose() bool {
	return w.closed || w.glfw.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
	if !w.closed {
		pollInput(w.glfw, &w.input)
	}
}

func (w *Window) Input() *Input { return &w.input }

func (w *Window) FramebufferSize() (int, int) {
	return w.glfw.GetFramebufferSize()
}

// PixelRatio is framebuffer pixels per window unit.
func (w *Window) PixelRatio() float32 {
	fw, _ := w.glfw.GetFramebufferSize()
	ww, _ := w.glfw.GetSize()
	if ww <= 0 || fw <= 0 {
		return 1
	}
	return float32(fw) / float32(ww)
}

func (w *Window) SetResizeHandler(fn func(width, height int)) {
	if fn == nil {
		w.glfw.SetFramebufferSizeCallback(nil)
		return
	}
	w.glfw.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		fn(width, height)
	})
}

func (w *Window) Destroy() {
	if w.closed {
		return
	}
	w.closed = true
	w.glfw.Destroy()
	glfw.Terminate()
}
