package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform places a scene object. Rotation is Euler angles in radians
// applied in X, Y, Z order.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

func (t Transform) ObjectToWorld() mgl32.Mat4 {
	// M = T * Rx * Ry * Rz * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := mgl32.HomogRotate3DX(t.Rotation.X()).
		Mul4(mgl32.HomogRotate3DY(t.Rotation.Y())).
		Mul4(mgl32.HomogRotate3DZ(t.Rotation.Z()))
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

// NormalMatrix is the inverse transpose of the model matrix, for
// transforming normals under non-uniform scale.
func (t Transform) NormalMatrix() mgl32.Mat4 {
	return t.ObjectToWorld().Inv().Transpose()
}
