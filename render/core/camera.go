package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultFovY          = 60.0
	DefaultNear          = 0.1
	DefaultFar           = 4000.0
	DefaultDampingFactor = 0.05
	DefaultRotateSpeed   = 1.0

	// referenceRate is the frame rate the damping factor and auto-rotate
	// speed are expressed against.
	referenceRate = 60.0
	minPolar      = 1e-4
)

// DefaultCameraPosition is the starting eye position, looking at the origin.
var DefaultCameraPosition = mgl32.Vec3{-6.5, 3, 6.5}

// clipCorrection maps GL clip depth [-1,1] to WebGPU [0,1].
var clipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// OrbitCamera orbits a fixed target on a sphere. Auto-rotation turns the
// azimuth at AutoRotateSpeed (one full turn per 60/speed seconds) and user
// drags are eased in over a few frames. Zoom and pan are not supported.
type OrbitCamera struct {
	Target mgl32.Vec3
	Radius float32
	Theta  float32 // azimuth around +Y, measured from +Z
	Phi    float32 // polar angle from +Y

	FovY   float32 // degrees
	Near   float32
	Far    float32
	Aspect float32

	AutoRotate      bool
	AutoRotateSpeed float32
	DampingFactor   float32
	RotateSpeed     float32

	pendingTheta float32
	pendingPhi   float32
}

func NewOrbitCamera(position mgl32.Vec3, aspect float32) *OrbitCamera {
	c := &OrbitCamera{
		FovY:            DefaultFovY,
		Near:            DefaultNear,
		Far:             DefaultFar,
		Aspect:          aspect,
		AutoRotate:      true,
		AutoRotateSpeed: 0.5,
		DampingFactor:   DefaultDampingFactor,
		RotateSpeed:     DefaultRotateSpeed,
	}
	c.SetPosition(position)
	return c
}

// SetPosition places the eye at p, keeping the current target.
func (c *OrbitCamera) SetPosition(p mgl32.Vec3) {
	offset := p.Sub(c.Target)
	c.Radius = offset.Len()
	if c.Radius == 0 {
		c.Theta, c.Phi = 0, float32(math.Pi/2)
		return
	}
	c.Theta = float32(math.Atan2(float64(offset.X()), float64(offset.Z())))
	c.Phi = float32(math.Acos(float64(mgl32.Clamp(offset.Y()/c.Radius, -1, 1))))
	c.clampPhi()
}

// Drag queues a rotation for a pointer move of (dx, dy) pixels on a
// viewport of the given height. A drag across the full height is one turn.
func (c *OrbitCamera) Drag(dx, dy float32, height int) {
	if height <= 0 {
		return
	}
	h := float32(height)
	c.pendingTheta -= 2 * math.Pi * dx / h * c.RotateSpeed
	c.pendingPhi -= 2 * math.Pi * dy / h * c.RotateSpeed
}

// Update advances auto-rotation and eases pending drag rotation in.
func (c *OrbitCamera) Update(dt float32) {
	if dt <= 0 {
		return
	}
	if c.AutoRotate {
		c.Theta -= AutoRotateRate(c.AutoRotateSpeed) * dt
	}

	f := c.dampingBlend(dt)
	c.Theta += c.pendingTheta * f
	c.Phi += c.pendingPhi * f
	c.pendingTheta *= 1 - f
	c.pendingPhi *= 1 - f
	c.clampPhi()
}

// AutoRotateRate converts an auto-rotate speed into radians per second.
func AutoRotateRate(speed float32) float32 {
	return 2 * math.Pi / 60 * speed
}

// dampingBlend turns the per-reference-frame damping factor into the blend
// for a frame of dt seconds so that drag response is frame-rate independent.
func (c *OrbitCamera) dampingBlend(dt float32) float32 {
	if c.DampingFactor <= 0 || c.DampingFactor >= 1 {
		return 1
	}
	return 1 - float32(math.Pow(float64(1-c.DampingFactor), float64(dt*referenceRate)))
}

func (c *OrbitCamera) clampPhi() {
	c.Phi = mgl32.Clamp(c.Phi, minPolar, math.Pi-minPolar)
}

func (c *OrbitCamera) Position() mgl32.Vec3 {
	sinPhi := float32(math.Sin(float64(c.Phi)))
	return c.Target.Add(mgl32.Vec3{
		c.Radius * sinPhi * float32(math.Sin(float64(c.Theta))),
		c.Radius * float32(math.Cos(float64(c.Phi))),
		c.Radius * sinPhi * float32(math.Cos(float64(c.Theta))),
	})
}

func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns a perspective projection with WebGPU depth range.
func (c *OrbitCamera) ProjectionMatrix() mgl32.Mat4 {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	return clipCorrection.Mul4(mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far))
}

// Project maps a world position to normalized device coordinates. The bool
// is false when the point is behind the camera.
func (c *OrbitCamera) Project(p mgl32.Vec3) (mgl32.Vec3, bool) {
	clip := c.ProjectionMatrix().Mul4(c.ViewMatrix()).Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return mgl32.Vec3{}, false
	}
	return clip.Vec3().Mul(1 / clip.W()), true
}

// NDCToUV converts normalized device coordinates to texture space with the
// origin at the top-left.
func NDCToUV(ndc mgl32.Vec3) mgl32.Vec2 {
	return mgl32.Vec2{(ndc.X() + 1) * 0.5, (1 - ndc.Y()) * 0.5}
}
