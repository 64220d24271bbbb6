package horizon

import (
	"math"

	"github.com/gekko3d/horizon/internal/config"
	"github.com/gekko3d/horizon/render/core"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	PulseFrequency  = 6.0
	PulseDepth      = 0.1
	DiskSpinFactor  = 0.1 * 4.0
	StarSpinRate    = 0.02 // rad/s at the idle rotation speed
	MinViewportSize = 1
)

// Frame is everything a renderer needs for one image. It is a value and
// holds no references into the engine.
type Frame struct {
	State  VisualState
	Online bool

	Elapsed float32
	Delta   float32

	Palette       Palette
	FlowSpeed     float32
	Pulse         float32
	Glitch        float32
	GlitchEnabled bool

	CoreScale    float32
	HorizonScale float32
	DiskRotation float32
	StarRotation float32

	// LensCenter is the compact object's position in texture space, origin
	// top-left. LensVisible is false when it is behind the camera.
	LensCenter  mgl32.Vec2
	LensVisible bool

	Width      int
	Height     int
	Aspect     float32
	PixelRatio float32
	Minimized  bool

	View      mgl32.Mat4
	Proj      mgl32.Mat4
	CameraPos mgl32.Vec3
}

func (f Frame) CoreModel() mgl32.Mat4 {
	return mgl32.Scale3D(f.CoreScale, f.CoreScale, f.CoreScale)
}

func (f Frame) HorizonModel() mgl32.Mat4 {
	return mgl32.Scale3D(f.HorizonScale, f.HorizonScale, f.HorizonScale)
}

func (f Frame) DiskModel() mgl32.Mat4 {
	t := core.NewTransform()
	t.Rotation = mgl32.Vec3{core.DiskTilt, 0, f.DiskRotation}
	return t.ObjectToWorld()
}

func (f Frame) StarModel() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(f.StarRotation)
}

// GlitchActive reports whether the glitch pass has visible output. The
// pass keeps running while a disabled glitch fades out.
func (f Frame) GlitchActive() bool {
	return f.GlitchEnabled || f.Glitch > SnapEpsilon
}

// Engine is the GPU-free per-frame simulation. It owns the target, the live
// parameters, derived motion and the camera. It is not safe for concurrent
// use; the controller confines it to the loop thread.
type Engine struct {
	state  VisualState
	target ParameterTarget
	live   LiveParameters
	online bool

	coreScale    Damped[Scalar]
	horizonScale Damped[Scalar]
	diskRotation float32
	starRotation float32

	camera *core.OrbitCamera

	width, height int
	pixelRatio    float32
	minimized     bool
	maxDelta      float32
}

func NewEngine(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg = cfg.Normalized()
	anim := cfg.Animation

	e := &Engine{
		state:        StateIdle,
		target:       TargetFor(StateIdle),
		live:         NewLiveParameters(InitialParameters(), anim),
		coreScale:    NewDamped(Scalar(1), anim.RestRate),
		horizonScale: NewDamped(Scalar(core.HorizonScale), anim.RestRate),
		pixelRatio:   1,
		maxDelta:     anim.MaxFrameDelta,
	}
	e.width = max(cfg.Window.Width, MinViewportSize)
	e.height = max(cfg.Window.Height, MinViewportSize)
	e.camera = core.NewOrbitCamera(core.DefaultCameraPosition, e.aspect())
	e.camera.AutoRotateSpeed = e.live.Orbit.Value.Float()
	return e
}

// SetState replaces the target bundle in one assignment. Repeating the
// current state is a no-op.
func (e *Engine) SetState(s VisualState) bool {
	if s == e.state {
		return false
	}
	e.state = s
	e.target = TargetFor(s)
	return true
}

func (e *Engine) State() VisualState        { return e.state }
func (e *Engine) Target() ParameterTarget   { return e.target }
func (e *Engine) Live() ParameterTarget     { return e.live.Snapshot() }
func (e *Engine) Camera() *core.OrbitCamera { return e.camera }

func (e *Engine) SetOnline(online bool) { e.online = online }

// SetPixelRatio sets the device pixel ratio, capped at limit when limit > 0.
func (e *Engine) SetPixelRatio(ratio, limit float32) {
	if ratio <= 0 {
		ratio = 1
	}
	if limit > 0 && ratio > limit {
		ratio = limit
	}
	e.pixelRatio = ratio
}

// Resize records a new viewport. Zero or negative sizes mark the engine
// minimized and keep the last valid size so the aspect stays finite.
func (e *Engine) Resize(width, height int) {
	if width < MinViewportSize || height < MinViewportSize {
		e.minimized = true
		return
	}
	e.minimized = false
	e.width, e.height = width, height
	e.camera.Aspect = e.aspect()
}

func (e *Engine) aspect() float32 {
	return float32(e.width) / float32(e.height)
}

// Drag forwards a pointer drag in pixels to the orbit camera.
func (e *Engine) Drag(dx, dy float32) {
	e.camera.Drag(dx, dy, e.height)
}

// Step advances the simulation by delta seconds at elapsed seconds since
// start and returns the resulting frame.
func (e *Engine) Step(delta, elapsed float32) Frame {
	if delta < 0 {
		delta = 0
	}
	if e.maxDelta > 0 && delta > e.maxDelta {
		delta = e.maxDelta
	}

	e.live.Step(e.target, delta)

	pulse := e.live.Pulse.Value.Float()
	if pulse > 0 {
		wave := float32(math.Sin(float64(elapsed*PulseFrequency))) * PulseDepth * pulse
		e.coreScale.Value = Scalar(1 + wave)
		e.horizonScale.Value = Scalar(core.HorizonScale + wave)
	} else {
		e.coreScale.Step(1, delta)
		e.horizonScale.Step(core.HorizonScale, delta)
	}

	speed := e.live.Speed.Value.Float()
	e.diskRotation += delta * DiskSpinFactor * speed
	e.starRotation += delta * StarSpinRate * speed / idleTarget.RotationSpeed

	e.camera.AutoRotateSpeed = e.live.Orbit.Value.Float()
	e.camera.Update(delta)

	ndc, visible := e.camera.Project(mgl32.Vec3{})

	return Frame{
		State:         e.state,
		Online:        e.online,
		Elapsed:       elapsed,
		Delta:         delta,
		Palette:       e.live.Palette(),
		FlowSpeed:     e.live.Speed.Value.Float(),
		Pulse:         pulse,
		Glitch:        e.live.Glitch.Value.Float(),
		GlitchEnabled: e.target.GlitchEnabled,
		CoreScale:     e.coreScale.Value.Float(),
		HorizonScale:  e.horizonScale.Value.Float(),
		DiskRotation:  e.diskRotation,
		StarRotation:  e.starRotation,
		LensCenter:    core.NDCToUV(ndc),
		LensVisible:   visible,
		Width:         e.width,
		Height:        e.height,
		Aspect:        e.aspect(),
		PixelRatio:    e.pixelRatio,
		Minimized:     e.minimized,
		View:          e.camera.ViewMatrix(),
		Proj:          e.camera.ProjectionMatrix(),
		CameraPos:     e.camera.Position(),
	}
}
