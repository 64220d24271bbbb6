package horizon

import (
	"github.com/gekko3d/horizon/internal/config"
	"github.com/go-gl/mathgl/mgl32"
)

// LiveParameters are the values actually bound to uniforms. Only the
// animation loop writes them.
type LiveParameters struct {
	Hot   Damped[mgl32.Vec3]
	Mid1  Damped[mgl32.Vec3]
	Mid2  Damped[mgl32.Vec3]
	Outer Damped[mgl32.Vec3]

	Speed  Damped[Scalar]
	Pulse  Damped[Scalar]
	Glitch Damped[Scalar]
	Orbit  Damped[Scalar]
}

func NewLiveParameters(initial ParameterTarget, anim config.AnimationConfig) LiveParameters {
	return LiveParameters{
		Hot:    NewDamped(initial.Palette.Hot, anim.ColorRate),
		Mid1:   NewDamped(initial.Palette.Mid1, anim.ColorRate),
		Mid2:   NewDamped(initial.Palette.Mid2, anim.ColorRate),
		Outer:  NewDamped(initial.Palette.Outer, anim.ColorRate),
		Speed:  NewDamped(Scalar(initial.RotationSpeed), anim.SpeedRate),
		Pulse:  NewDamped(Scalar(initial.PulseAmplitude), anim.PulseRate),
		Glitch: NewDamped(Scalar(initial.GlitchAmplitude), anim.GlitchRate),
		Orbit:  NewDamped(Scalar(initial.OrbitSpeed), anim.OrbitRate),
	}
}

// Step converges every field toward t over dt seconds.
func (p *LiveParameters) Step(t ParameterTarget, dt float32) {
	p.Hot.Step(t.Palette.Hot, dt)
	p.Mid1.Step(t.Palette.Mid1, dt)
	p.Mid2.Step(t.Palette.Mid2, dt)
	p.Outer.Step(t.Palette.Outer, dt)
	p.Speed.Step(Scalar(t.RotationSpeed), dt)
	p.Pulse.Step(Scalar(t.PulseAmplitude), dt)
	p.Glitch.Step(Scalar(t.GlitchAmplitude), dt)
	p.Orbit.Step(Scalar(t.OrbitSpeed), dt)
}

func (p *LiveParameters) Palette() Palette {
	return Palette{
		Hot:   p.Hot.Value,
		Mid1:  p.Mid1.Value,
		Mid2:  p.Mid2.Value,
		Outer: p.Outer.Value,
	}
}

// Snapshot returns the live values in target form.
func (p *LiveParameters) Snapshot() ParameterTarget {
	return ParameterTarget{
		Palette:         p.Palette(),
		RotationSpeed:   p.Speed.Value.Float(),
		PulseAmplitude:  p.Pulse.Value.Float(),
		GlitchAmplitude: p.Glitch.Value.Float(),
		OrbitSpeed:      p.Orbit.Value.Float(),
	}
}

// Settled reports whether every field has landed on t.
func (p *LiveParameters) Settled(t ParameterTarget) bool {
	return p.Hot.Settled(t.Palette.Hot) &&
		p.Mid1.Settled(t.Palette.Mid1) &&
		p.Mid2.Settled(t.Palette.Mid2) &&
		p.Outer.Settled(t.Palette.Outer) &&
		p.Speed.Settled(Scalar(t.RotationSpeed)) &&
		p.Pulse.Settled(Scalar(t.PulseAmplitude)) &&
		p.Glitch.Settled(Scalar(t.GlitchAmplitude)) &&
		p.Orbit.Settled(Scalar(t.OrbitSpeed))
}
