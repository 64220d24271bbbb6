package horizon

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	Key1 int = iota
	Key2
	Key3
	Key4
	Key5
	KeyEscape
	MouseButtonLeft
	inputCount
)

// Input is the polled keyboard and mouse state for one frame.
type Input struct {
	Pressed      [inputCount]bool
	JustPressed  [inputCount]bool
	JustReleased [inputCount]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
}

// Set records the current down state of key, deriving the edge flags from
// the previous frame.
func (in *Input) Set(key int, down bool) {
	in.JustPressed[key] = down && !in.Pressed[key]
	in.JustReleased[key] = !down && in.Pressed[key]
	in.Pressed[key] = down
}

// MoveMouse records the cursor position and the delta since the last call.
func (in *Input) MoveMouse(x, y float64) {
	in.MouseDeltaX = x - in.MouseX
	in.MouseDeltaY = y - in.MouseY
	in.MouseX, in.MouseY = x, y
}

// stateKeys binds the number row to states in AllStates order.
var stateKeys = map[int]VisualState{
	Key1: StateDormant,
	Key2: StateListening,
	Key3: StateSpeaking,
	Key4: StateComputing,
	Key5: StateIdle,
}

var keyToGlfw = map[int]glfw.Key{
	Key1:      glfw.Key1,
	Key2:      glfw.Key2,
	Key3:      glfw.Key3,
	Key4:      glfw.Key4,
	Key5:      glfw.Key5,
	KeyEscape: glfw.KeyEscape,
}

func pollInput(win *glfw.Window, input *Input) {
	for key, glfwKey := range keyToGlfw {
		input.Set(key, win.GetKey(glfwKey) == glfw.Press)
	}
	input.Set(MouseButtonLeft, win.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press)
	input.MoveMouse(win.GetCursorPos())
}
