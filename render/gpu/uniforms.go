package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/horizon"
	"github.com/go-gl/mathgl/mgl32"
)

// Uniform block sizes. Each matches the WGSL struct of the same name.
const (
	SceneUniformSize     = 160
	ObjectUniformSize    = 160
	DiskUniformSize      = 144
	BrightUniformSize    = 16
	BlurUniformSize      = 16
	CompositeUniformSize = 16
	LensUniformSize      = 32
	GlitchUniformSize    = 16
)

// Effect constants for the post chain.
const (
	BloomStrength    = 1.5
	BloomRadius      = 0.4
	BloomThreshold   = 0.85
	BloomSmoothWidth = 0.01

	LensStrength  = 0.12
	LensRadius    = 0.3
	LensChromatic = 0.015
	LensScanline  = 0.15
	LensVignette  = 0.8

	DiskNoiseScale = 2.0
	DiskDensity    = 1.5
)

var HorizonColor = horizon.Hex(0x00ffcc)

// uniformWriter packs little-endian floats at fixed offsets.
type uniformWriter []byte

func (w uniformWriter) f32(off int, v float32) {
	binary.LittleEndian.PutUint32(w[off:], math.Float32bits(v))
}

func (w uniformWriter) vec4(off int, x, y, z, a float32) {
	w.f32(off, x)
	w.f32(off+4, y)
	w.f32(off+8, z)
	w.f32(off+12, a)
}

func (w uniformWriter) rgb(off int, c mgl32.Vec3, a float32) {
	w.vec4(off, c.X(), c.Y(), c.Z(), a)
}

func (w uniformWriter) mat4(off int, m mgl32.Mat4) {
	for i, v := range m {
		w.f32(off+i*4, v)
	}
}

// PackScene writes SceneUniforms:
//
//	view: mat4x4   -- 0
//	proj: mat4x4   -- 64
//	camera_pos: vec4 (w = time) -- 128
//	viewport: vec4 (w, h, pixel ratio, 0) -- 144
func PackScene(buf []byte, f horizon.Frame) {
	w := uniformWriter(buf[:SceneUniformSize])
	w.mat4(0, f.View)
	w.mat4(64, f.Proj)
	w.rgb(128, f.CameraPos, f.Elapsed)
	w.vec4(144, float32(f.Width), float32(f.Height), f.PixelRatio, 0)
}

// PackObject writes ObjectUniforms: model, normal matrix, color, params.
func PackObject(buf []byte, model mgl32.Mat4, color mgl32.Vec3) {
	w := uniformWriter(buf[:ObjectUniformSize])
	w.mat4(0, model)
	w.mat4(64, model.Inv().Transpose())
	w.rgb(128, color, 1)
	w.vec4(144, 0, 0, 0, 0)
}

// PackDisk writes DiskUniforms: model, the four colour stops from hot to
// outer, then noise scale, flow speed, density and time.
func PackDisk(buf []byte, f horizon.Frame) {
	w := uniformWriter(buf[:DiskUniformSize])
	w.mat4(0, f.DiskModel())
	w.rgb(64, f.Palette.Hot, 1)
	w.rgb(80, f.Palette.Mid1, 1)
	w.rgb(96, f.Palette.Mid2, 1)
	w.rgb(112, f.Palette.Outer, 1)
	w.vec4(128, DiskNoiseScale, f.FlowSpeed, DiskDensity, f.Elapsed)
}

func PackBright(buf []byte) {
	uniformWriter(buf[:BrightUniformSize]).vec4(0, BloomThreshold, BloomSmoothWidth, 0, 0)
}

// PackBlur writes one blur axis for a target of the given size.
func PackBlur(buf []byte, horizontal bool, width, height int) {
	w := uniformWriter(buf[:BlurUniformSize])
	if horizontal {
		w.vec4(0, 1/float32(max(width, 1)), 0, BloomRadius, 0)
	} else {
		w.vec4(0, 0, 1/float32(max(height, 1)), BloomRadius, 0)
	}
}

func PackComposite(buf []byte) {
	uniformWriter(buf[:CompositeUniformSize]).vec4(0, BloomStrength, 0, 0, 0)
}

// PackLens writes LensParams. A lens behind the camera gets zero strength.
func PackLens(buf []byte, f horizon.Frame) {
	w := uniformWriter(buf[:LensUniformSize])
	strength := float32(LensStrength)
	if !f.LensVisible {
		strength = 0
	}
	aspect := f.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	w.vec4(0, f.LensCenter.X(), f.LensCenter.Y(), strength, LensRadius)
	w.vec4(16, aspect, LensChromatic, LensScanline, LensVignette)
}

func PackGlitch(buf []byte, f horizon.Frame) {
	uniformWriter(buf[:GlitchUniformSize]).vec4(0, f.Glitch, f.Elapsed, 0, 0)
}
