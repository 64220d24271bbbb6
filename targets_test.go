package horizon

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestParseVisualState(t *testing.T) {
	cases := map[string]VisualState{
		"DORMANT":       StateDormant,
		"listening":     StateListening,
		" Speaking ":    StateSpeaking,
		"COMPUTING":     StateComputing,
		"THINKING":      StateComputing,
		"analyzing":     StateComputing,
		"IDLE":          StateIdle,
		"":              StateIdle,
		"SELF_DESTRUCT": StateIdle,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseVisualState(in), "input %q", in)
	}
}

func TestVisualState_String(t *testing.T) {
	for _, s := range AllStates() {
		assert.Equal(t, s, ParseVisualState(s.String()))
	}
	assert.Equal(t, "IDLE", VisualState(99).String())
}

func TestHex(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{1, 0, 1}, Hex(0xff00ff))
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, Hex(0x000000))
	assert.InDelta(t, 0x33/255.0, Hex(0x333333).X(), 1e-6)
}

func TestTargetFor_Table(t *testing.T) {
	listening := TargetFor(StateListening)
	assert.Equal(t, Hex(0x00d2ff), listening.Palette.Mid1)
	assert.Equal(t, float32(0.8), listening.RotationSpeed)
	assert.Equal(t, float32(0.2), listening.PulseAmplitude)
	assert.Equal(t, float32(2.0), listening.OrbitSpeed)

	speaking := TargetFor(StateSpeaking)
	assert.Equal(t, Hex(0xff7832), speaking.Palette.Mid1)
	assert.Equal(t, float32(0.8), speaking.PulseAmplitude)

	computing := TargetFor(StateComputing)
	assert.Equal(t, float32(0.3), computing.GlitchAmplitude)
	assert.True(t, computing.GlitchEnabled)
	assert.Zero(t, computing.PulseAmplitude)
}

func TestTargetFor_FallsBackToIdle(t *testing.T) {
	idle := TargetFor(StateIdle)
	assert.Equal(t, idle, TargetFor(StateDormant))
	assert.Equal(t, idle, TargetFor(VisualState(-3)))
	assert.Equal(t, idle, TargetFor(VisualState(42)))
}

func TestTargetFor_GlitchOnlyWhenComputing(t *testing.T) {
	for _, s := range AllStates() {
		tgt := TargetFor(s)
		if s == StateComputing {
			continue
		}
		assert.Zero(t, tgt.GlitchAmplitude, "state %s", s)
		assert.False(t, tgt.GlitchEnabled, "state %s", s)
	}
}

func TestTargetFor_ReturnsCopy(t *testing.T) {
	tgt := TargetFor(StateSpeaking)
	tgt.RotationSpeed = 99
	tgt.Palette.Hot = mgl32.Vec3{9, 9, 9}

	assert.Equal(t, float32(0.3), TargetFor(StateSpeaking).RotationSpeed)
	assert.Equal(t, Hex(0xffeedd), TargetFor(StateSpeaking).Palette.Hot)
}
