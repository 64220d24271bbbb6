package gpu

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/horizon"
)

func TestStatusItemsOnline(t *testing.T) {
	f := testFrame()
	f.Online = true
	f.State = horizon.StateListening

	items := StatusItems(f)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Text != "SYSTEM ONLINE" || items[0].Color != hudOnline {
		t.Errorf("badge = %q %v", items[0].Text, items[0].Color)
	}
	if items[1].Text != "STATE: LISTENING" {
		t.Errorf("state line = %q", items[1].Text)
	}
	if items[0].Position[0] != hudMargin*1.5 || items[0].Scale != 1.5 {
		t.Errorf("badge not scaled by pixel ratio: pos=%v scale=%f", items[0].Position, items[0].Scale)
	}
	if items[1].Position[1] <= items[0].Position[1] {
		t.Errorf("state line should sit below the badge")
	}
}

func TestStatusItemsOffline(t *testing.T) {
	f := testFrame()
	f.PixelRatio = 0

	items := StatusItems(f)
	if items[0].Text != "OFFLINE" || items[0].Color != hudOffline {
		t.Errorf("badge = %q %v", items[0].Text, items[0].Color)
	}
	if items[0].Scale != 1 {
		t.Errorf("zero pixel ratio should fall back to 1, got %f", items[0].Scale)
	}
}

func TestPickSurfaceFormat(t *testing.T) {
	if _, err := pickSurfaceFormat(nil); err != ErrNoSurfaceFormat {
		t.Errorf("empty list: err = %v", err)
	}

	got, err := pickSurfaceFormat([]wgpu.TextureFormat{wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatBGRA8Unorm})
	if err != nil || got != wgpu.TextureFormatBGRA8Unorm {
		t.Errorf("got %v, %v; want BGRA8Unorm", got, err)
	}

	got, _ = pickSurfaceFormat([]wgpu.TextureFormat{wgpu.TextureFormatRGBA8UnormSrgb})
	if got != wgpu.TextureFormatRGBA8UnormSrgb {
		t.Errorf("fallback = %v, want first reported format", got)
	}
}

func TestHalfSize(t *testing.T) {
	if w, h := halfSize(1920, 1081); w != 960 || h != 540 {
		t.Errorf("halfSize = %dx%d", w, h)
	}
	if w, h := halfSize(1, 1); w != 1 || h != 1 {
		t.Errorf("halfSize never drops below one pixel, got %dx%d", w, h)
	}
}

func TestSurfaceStateRecoversAfterLoss(t *testing.T) {
	var s surfaceState
	if _, _, ok := s.pending(); ok {
		t.Fatal("unconfigured surface has nothing to recover")
	}

	s.configured(640, 480)
	if _, _, ok := s.pending(); ok {
		t.Fatal("healthy surface should not reconfigure")
	}

	s.markLost()
	w, h, ok := s.pending()
	if !ok || w != 640 || h != 480 {
		t.Fatalf("pending = %dx%d %v, want 640x480 true", w, h, ok)
	}
	s.markLost()
	if w, h, ok = s.pending(); !ok || w != 640 || h != 480 {
		t.Fatal("repeated losses keep the last size")
	}

	s.configured(800, 600)
	if _, _, ok := s.pending(); ok {
		t.Error("reconfigure clears the lost flag")
	}
}
