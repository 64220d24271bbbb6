package horizon

import "github.com/go-gl/mathgl/mgl32"

// Palette holds the four accretion disk colour stops, innermost first.
type Palette struct {
	Hot   mgl32.Vec3
	Mid1  mgl32.Vec3
	Mid2  mgl32.Vec3
	Outer mgl32.Vec3
}

// ParameterTarget is the look of one VisualState. Targets are replaced
// wholesale on every state change and never mutated in place.
type ParameterTarget struct {
	Palette         Palette
	RotationSpeed   float32
	PulseAmplitude  float32
	GlitchAmplitude float32
	GlitchEnabled   bool
	OrbitSpeed      float32
}

// Hex converts a 0xRRGGBB value to an RGB triple in [0,1].
func Hex(c uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32((c>>16)&0xff) / 255.0,
		float32((c>>8)&0xff) / 255.0,
		float32(c&0xff) / 255.0,
	}
}

var idleTarget = ParameterTarget{
	Palette: Palette{
		Hot:   Hex(0x333333),
		Mid1:  Hex(0x4444ff),
		Mid2:  Hex(0x000033),
		Outer: Hex(0x000000),
	},
	RotationSpeed: 0.1,
	OrbitSpeed:    0.5,
}

// stateTargets is the only place colours and speeds for a state are defined.
var stateTargets = map[VisualState]ParameterTarget{
	StateIdle:    idleTarget,
	StateDormant: idleTarget,
	StateListening: {
		Palette: Palette{
			Hot:   Hex(0xccffff),
			Mid1:  Hex(0x00d2ff),
			Mid2:  Hex(0x0044ff),
			Outer: Hex(0x000033),
		},
		RotationSpeed:  0.8,
		PulseAmplitude: 0.2,
		OrbitSpeed:     2.0,
	},
	StateSpeaking: {
		Palette: Palette{
			Hot:   Hex(0xffeedd),
			Mid1:  Hex(0xff7832),
			Mid2:  Hex(0xff3300),
			Outer: Hex(0x331100),
		},
		RotationSpeed:  0.3,
		PulseAmplitude: 0.8,
		OrbitSpeed:     0.5,
	},
	StateComputing: {
		Palette: Palette{
			Hot:   Hex(0xffddff),
			Mid1:  Hex(0xd400ff),
			Mid2:  Hex(0x6600cc),
			Outer: Hex(0x110022),
		},
		RotationSpeed:   0.1,
		GlitchAmplitude: 0.3,
		GlitchEnabled:   true,
		OrbitSpeed:      0.2,
	},
}

// TargetFor maps a state to its target look. Unknown states get the idle look.
func TargetFor(s VisualState) ParameterTarget {
	if t, ok := stateTargets[s]; ok {
		return t
	}
	return idleTarget
}

// initialLive is what the disk shows before the first target is reached.
var initialLive = ParameterTarget{
	Palette: Palette{
		Hot:   Hex(0xffffff),
		Mid1:  Hex(0xff00ff),
		Mid2:  Hex(0x00ffff),
		Outer: Hex(0x3939f5),
	},
	RotationSpeed: 0.25,
	OrbitSpeed:    0.5,
}

// InitialParameters returns the live values at mount, before any target
// has been approached.
func InitialParameters() ParameterTarget {
	return initialLive
}
