package horizon

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDamped_Factor(t *testing.T) {
	d := NewDamped(Scalar(0), 2)

	assert.InDelta(t, 0.2, d.Factor(0.1), 1e-6)
	assert.Equal(t, float32(1), d.Factor(5), "factor is capped at 1")
	assert.Equal(t, float32(0), d.Factor(-1), "negative dt does not move")
}

func TestDamped_StepScalar(t *testing.T) {
	d := NewDamped(Scalar(0), 2)

	v := d.Step(10, 0.1)
	assert.InDelta(t, 2.0, v.Float(), 1e-5)

	// a long frame lands exactly instead of overshooting
	v = d.Step(10, 3)
	assert.Equal(t, Scalar(10), v)
	assert.True(t, d.Settled(10))
}

func TestDamped_Monotonic(t *testing.T) {
	d := NewDamped(Scalar(1), 5)
	prev := d.Value
	for i := 0; i < 300; i++ {
		v := d.Step(0, 1.0/60)
		assert.LessOrEqual(t, v.Float(), prev.Float(), "frame %d moved away from target", i)
		assert.GreaterOrEqual(t, v.Float(), float32(0), "frame %d overshot", i)
		prev = v
	}
	assert.True(t, d.Settled(0), "value snaps once within epsilon")
}

func TestDamped_SnapsWithinEpsilon(t *testing.T) {
	d := NewDamped(Scalar(0.5), 2)
	d.Step(0.5+SnapEpsilon/4, 1.0/60)
	assert.Equal(t, Scalar(0.5+SnapEpsilon/4), d.Value)
}

func TestDamped_ZeroDtIsStill(t *testing.T) {
	d := NewDamped(Scalar(3), 2)
	d.Step(0, 0)
	assert.Equal(t, Scalar(3), d.Value)
}

func TestDamped_Vec3(t *testing.T) {
	d := NewDamped(mgl32.Vec3{0, 0, 0}, 2)
	target := mgl32.Vec3{1, 0.5, 0}

	v := d.Step(target, 0.25)
	assert.InDelta(t, 0.5, v.X(), 1e-6)
	assert.InDelta(t, 0.25, v.Y(), 1e-6)
	assert.Equal(t, float32(0), v.Z())

	for i := 0; i < 600; i++ {
		d.Step(target, 1.0/60)
	}
	assert.Equal(t, target, d.Value)
}
