package core

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	StarInnerRadius = 100.0
	StarShellDepth  = 2000.0
	StarMaxSize     = 1.5

	CoreRadius     = 1.3
	HorizonScale   = 1.02
	SphereSegments = 64

	// HorizonRadius is the shell's mesh radius. The frame rests its scale at
	// HorizonScale on top of this.
	HorizonRadius = CoreRadius * HorizonScale

	DiskInnerRadius    = CoreRadius + 0.2
	DiskOuterRadius    = 8.0
	DiskThetaSegments  = 256
	DiskRadialSegments = 64
	DiskTilt           = math.Pi / 3
)

// Star is one starfield sprite. Layout matches the instance buffer.
type Star struct {
	Position mgl32.Vec3
	Size     float32
	Color    mgl32.Vec3
	Phase    float32
}

// StarStride is the byte size of one Star in the instance buffer.
const StarStride = 32

// Vertex is a mesh vertex with position, normal and uv.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

const VertexStride = 32

type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// GenerateStarfield scatters count stars in a thick shell. The cube root on
// the radius sample keeps volumetric density uniform. The same seed always
// yields the same field.
func GenerateStarfield(count int, seed int64) []Star {
	if count < 0 {
		count = 0
	}
	rng := rand.New(rand.NewSource(seed))
	stars := make([]Star, count)
	for i := range stars {
		radius := math.Cbrt(rng.Float64())*StarShellDepth + StarInnerRadius
		theta := rng.Float64() * math.Pi * 2
		phi := math.Acos(2*rng.Float64() - 1)

		hue := float32(0.6 + rng.Float64()*0.2)
		stars[i] = Star{
			Position: mgl32.Vec3{
				float32(radius * math.Sin(phi) * math.Cos(theta)),
				float32(radius * math.Sin(phi) * math.Sin(theta)),
				float32(radius * math.Cos(phi)),
			},
			Color: HSLToRGB(hue, 0.5, 0.7),
			Size:  float32(rng.Float64() * StarMaxSize),
			Phase: float32(rng.Float64() * math.Pi * 2),
		}
	}
	return stars
}

// HSLToRGB converts hue, saturation and lightness in [0,1] to RGB.
func HSLToRGB(h, s, l float32) mgl32.Vec3 {
	if s == 0 {
		return mgl32.Vec3{l, l, l}
	}
	var q float32
	if l <= 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return mgl32.Vec3{
		hueToRGB(p, q, h+1.0/3),
		hueToRGB(p, q, h),
		hueToRGB(p, q, h-1.0/3),
	}
}

func hueToRGB(p, q, t float32) float32 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*6*(2.0/3-t)
	}
	return p
}

// NewHorizonShell builds the event horizon mesh.
func NewHorizonShell() Mesh {
	return NewSphere(HorizonRadius, SphereSegments, SphereSegments)
}

// NewSphere builds a UV sphere with the given radius and segment counts.
func NewSphere(radius float32, widthSegments, heightSegments int) Mesh {
	widthSegments = max(widthSegments, 3)
	heightSegments = max(heightSegments, 2)

	var m Mesh
	for y := 0; y <= heightSegments; y++ {
		v := float32(y) / float32(heightSegments)
		phi := float64(v) * math.Pi
		for x := 0; x <= widthSegments; x++ {
			u := float32(x) / float32(widthSegments)
			theta := float64(u) * math.Pi * 2
			n := mgl32.Vec3{
				float32(-math.Cos(theta) * math.Sin(phi)),
				float32(math.Cos(phi)),
				float32(math.Sin(theta) * math.Sin(phi)),
			}
			m.Vertices = append(m.Vertices, Vertex{
				Position: n.Mul(radius),
				Normal:   n,
				UV:       mgl32.Vec2{u, 1 - v},
			})
		}
	}

	row := uint32(widthSegments + 1)
	for y := 0; y < heightSegments; y++ {
		for x := 0; x < widthSegments; x++ {
			a := uint32(y)*row + uint32(x+1)
			b := uint32(y)*row + uint32(x)
			c := uint32(y+1)*row + uint32(x)
			d := uint32(y+1)*row + uint32(x+1)
			if y != 0 {
				m.Indices = append(m.Indices, a, b, d)
			}
			if y != heightSegments-1 {
				m.Indices = append(m.Indices, b, c, d)
			}
		}
	}
	return m
}

// NewRing builds a flat annulus in the XY plane facing +Z.
func NewRing(inner, outer float32, thetaSegments, radialSegments int) Mesh {
	thetaSegments = max(thetaSegments, 3)
	radialSegments = max(radialSegments, 1)

	var m Mesh
	step := (outer - inner) / float32(radialSegments)
	for r := 0; r <= radialSegments; r++ {
		radius := inner + float32(r)*step
		for s := 0; s <= thetaSegments; s++ {
			angle := float64(s) / float64(thetaSegments) * math.Pi * 2
			x := radius * float32(math.Cos(angle))
			y := radius * float32(math.Sin(angle))
			m.Vertices = append(m.Vertices, Vertex{
				Position: mgl32.Vec3{x, y, 0},
				Normal:   mgl32.Vec3{0, 0, 1},
				UV:       mgl32.Vec2{(x/outer + 1) / 2, (y/outer + 1) / 2},
			})
		}
	}

	row := uint32(thetaSegments + 1)
	for r := 0; r < radialSegments; r++ {
		for s := 0; s < thetaSegments; s++ {
			a := uint32(r)*row + uint32(s)
			b := a + row
			c := b + 1
			d := a + 1
			m.Indices = append(m.Indices, a, b, d, b, c, d)
		}
	}
	return m
}
