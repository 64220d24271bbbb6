package horizon

import "github.com/go-gl/mathgl/mgl32"

// SnapEpsilon is the distance below which a damped value lands exactly on
// its target.
const SnapEpsilon = 1e-4

// Blendable is anything that can be linearly blended. mgl32.Vec3 qualifies
// as is; Scalar wraps float32.
type Blendable[T any] interface {
	Add(T) T
	Sub(T) T
	Mul(float32) T
	Len() float32
}

type Scalar float32

func (s Scalar) Add(o Scalar) Scalar  { return s + o }
func (s Scalar) Sub(o Scalar) Scalar  { return s - o }
func (s Scalar) Mul(f float32) Scalar { return s * Scalar(f) }
func (s Scalar) Len() float32         { return mgl32.Abs(float32(s)) }
func (s Scalar) Float() float32       { return float32(s) }

// Damped moves a value toward a target by exponential smoothing:
// value += (target - value) * min(dt*rate, 1).
// The blend factor is capped at 1 so a long frame lands on the target
// instead of overshooting past it.
type Damped[T Blendable[T]] struct {
	Value T
	Rate  float32
}

func NewDamped[T Blendable[T]](value T, rate float32) Damped[T] {
	return Damped[T]{Value: value, Rate: rate}
}

// Factor returns the blend factor applied for a frame of length dt.
func (d *Damped[T]) Factor(dt float32) float32 {
	f := dt * d.Rate
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func (d *Damped[T]) Step(target T, dt float32) T {
	f := d.Factor(dt)
	if f == 0 {
		return d.Value
	}
	d.Value = d.Value.Add(target.Sub(d.Value).Mul(f))
	if target.Sub(d.Value).Len() < SnapEpsilon {
		d.Value = target
	}
	return d.Value
}

// Settled reports whether the value sits exactly on target.
func (d *Damped[T]) Settled(target T) bool {
	return target.Sub(d.Value).Len() == 0
}
