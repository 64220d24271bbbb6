package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	HDRFormat   = wgpu.TextureFormatRGBA16Float
	DepthFormat = wgpu.TextureFormatDepth24Plus
)

// RenderTarget is an offscreen texture that can be drawn into and sampled.
type RenderTarget struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Width   uint32
	Height  uint32
}

func NewRenderTarget(device *wgpu.Device, label string, format wgpu.TextureFormat, width, height int) (*RenderTarget, error) {
	usage := wgpu.TextureUsageRenderAttachment
	if format != DepthFormat {
		usage |= wgpu.TextureUsageTextureBinding
	}
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &RenderTarget{Texture: tex, View: view, Width: uint32(width), Height: uint32(height)}, nil
}

func (t *RenderTarget) Release() {
	if t == nil {
		return
	}
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.Texture != nil {
		t.Texture.Release()
		t.Texture = nil
	}
}

// halfSize is the bloom chain resolution, never below one pixel.
func halfSize(width, height int) (int, int) {
	return max(width/2, 1), max(height/2, 1)
}

// surfaceState remembers the last configured surface size and whether an
// acquire failed since, so the next frame reconfigures before drawing.
type surfaceState struct {
	width, height int
	lost          bool
}

func (s *surfaceState) configured(width, height int) {
	s.width, s.height, s.lost = width, height, false
}

func (s *surfaceState) markLost() { s.lost = true }

// pending returns the size to reconfigure at when the surface was lost.
func (s *surfaceState) pending() (int, int, bool) {
	return s.width, s.height, s.lost && s.width > 0 && s.height > 0
}
