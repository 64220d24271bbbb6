package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gekko3d/horizon"
	"github.com/go-gl/mathgl/mgl32"
)

func readF32(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func testFrame() horizon.Frame {
	return horizon.Frame{
		Elapsed:     12.5,
		Palette:     horizon.TargetFor(horizon.StateSpeaking).Palette,
		FlowSpeed:   0.3,
		Glitch:      0.25,
		LensCenter:  mgl32.Vec2{0.4, 0.6},
		LensVisible: true,
		Width:       1920,
		Height:      1080,
		Aspect:      16.0 / 9.0,
		PixelRatio:  1.5,
		View:        mgl32.Translate3D(1, 2, 3),
		Proj:        mgl32.Ident4(),
		CameraPos:   mgl32.Vec3{-6.5, 3, 6.5},
		CoreScale:   1,
	}
}

func TestPackScene(t *testing.T) {
	buf := make([]byte, SceneUniformSize)
	PackScene(buf, testFrame())

	if got := readF32(buf, 48); got != 1 {
		t.Errorf("view translation x = %f, want 1", got)
	}
	if got := readF32(buf, 64); got != 1 {
		t.Errorf("proj[0] = %f, want 1", got)
	}
	if got := readF32(buf, 128); got != -6.5 {
		t.Errorf("camera x = %f", got)
	}
	if got := readF32(buf, 140); got != 12.5 {
		t.Errorf("time = %f", got)
	}
	if readF32(buf, 144) != 1920 || readF32(buf, 148) != 1080 || readF32(buf, 152) != 1.5 {
		t.Errorf("viewport = %v %v %v", readF32(buf, 144), readF32(buf, 148), readF32(buf, 152))
	}
}

func TestPackDisk(t *testing.T) {
	f := testFrame()
	buf := make([]byte, DiskUniformSize)
	PackDisk(buf, f)

	if got := readF32(buf, 64); got != f.Palette.Hot.X() {
		t.Errorf("hot.r = %f, want %f", got, f.Palette.Hot.X())
	}
	if got := readF32(buf, 112+4); got != f.Palette.Outer.Y() {
		t.Errorf("outer.g = %f", got)
	}
	params := [4]float32{readF32(buf, 128), readF32(buf, 132), readF32(buf, 136), readF32(buf, 140)}
	if params != [4]float32{DiskNoiseScale, 0.3, DiskDensity, 12.5} {
		t.Errorf("disk params = %v", params)
	}
}

func TestPackObjectNormalMatrix(t *testing.T) {
	buf := make([]byte, ObjectUniformSize)
	PackObject(buf, mgl32.Scale3D(2, 2, 2), HorizonColor)

	if got := readF32(buf, 0); got != 2 {
		t.Errorf("model[0] = %f", got)
	}
	if got := readF32(buf, 64); math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("normal[0] = %f, want 0.5", got)
	}
	if got := readF32(buf, 132); got != 1 {
		t.Errorf("horizon colour green = %f", got)
	}
	if got := readF32(buf, 140); got != 1 {
		t.Errorf("alpha = %f", got)
	}
}

func TestPackLens(t *testing.T) {
	f := testFrame()
	buf := make([]byte, LensUniformSize)
	PackLens(buf, f)

	if readF32(buf, 0) != 0.4 || readF32(buf, 4) != 0.6 {
		t.Errorf("center = %f,%f", readF32(buf, 0), readF32(buf, 4))
	}
	if readF32(buf, 8) != LensStrength {
		t.Errorf("strength = %f", readF32(buf, 8))
	}
	if readF32(buf, 16) != f.Aspect {
		t.Errorf("aspect = %f", readF32(buf, 16))
	}

	f.LensVisible = false
	f.Aspect = 0
	PackLens(buf, f)
	if readF32(buf, 8) != 0 {
		t.Error("lens behind the camera should have no strength")
	}
	if readF32(buf, 16) != 1 {
		t.Error("zero aspect should fall back to 1")
	}
}

func TestPackBlurAxes(t *testing.T) {
	buf := make([]byte, BlurUniformSize)
	PackBlur(buf, true, 640, 360)
	if readF32(buf, 0) != 1.0/640 || readF32(buf, 4) != 0 {
		t.Errorf("horizontal step = %f,%f", readF32(buf, 0), readF32(buf, 4))
	}
	PackBlur(buf, false, 640, 360)
	if readF32(buf, 0) != 0 || readF32(buf, 4) != 1.0/360 {
		t.Errorf("vertical step = %f,%f", readF32(buf, 0), readF32(buf, 4))
	}
	PackBlur(buf, true, 0, 0)
	if v := readF32(buf, 0); math.IsInf(float64(v), 0) {
		t.Error("zero size must not divide by zero")
	}
}

func TestPackGlitch(t *testing.T) {
	buf := make([]byte, GlitchUniformSize)
	PackGlitch(buf, testFrame())
	if readF32(buf, 0) != 0.25 || readF32(buf, 4) != 12.5 {
		t.Errorf("glitch = %f,%f", readF32(buf, 0), readF32(buf, 4))
	}
}
