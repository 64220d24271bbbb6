package horizon

import "strings"

// VisualState is the discrete mode the visual tracks. It carries no data.
type VisualState int

const (
	StateIdle VisualState = iota
	StateDormant
	StateListening
	StateSpeaking
	StateComputing
)

var visualStateNames = map[VisualState]string{
	StateIdle:      "IDLE",
	StateDormant:   "DORMANT",
	StateListening: "LISTENING",
	StateSpeaking:  "SPEAKING",
	StateComputing: "COMPUTING",
}

func (s VisualState) String() string {
	if name, ok := visualStateNames[s]; ok {
		return name
	}
	return "IDLE"
}

// ParseVisualState accepts the state names used by the conversational layer,
// including the THINKING and ANALYZING aliases for computing. Anything
// unrecognized resolves to StateIdle.
func ParseVisualState(name string) VisualState {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DORMANT":
		return StateDormant
	case "LISTENING":
		return StateListening
	case "SPEAKING":
		return StateSpeaking
	case "COMPUTING", "THINKING", "ANALYZING":
		return StateComputing
	default:
		return StateIdle
	}
}

// AllStates lists every enumerated state in display order.
func AllStates() []VisualState {
	return []VisualState{StateDormant, StateListening, StateSpeaking, StateComputing, StateIdle}
}
