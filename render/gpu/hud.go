package gpu

import (
	"github.com/gekko3d/horizon"
	"github.com/gekko3d/horizon/render/core"
)

const (
	HUDFontSize = 16
	hudMargin   = 24
	hudLeading  = 22
)

var (
	hudOnline  = [4]float32{0.2, 1, 0.6, 0.9}
	hudOffline = [4]float32{1, 0.3, 0.3, 0.9}
	hudDim     = [4]float32{0.7, 0.8, 0.85, 0.7}
)

// StatusItems lays out the connection badge and the current state in the
// top-left corner, scaled to the framebuffer's pixel ratio.
func StatusItems(f horizon.Frame) []core.TextItem {
	scale := f.PixelRatio
	if scale <= 0 {
		scale = 1
	}
	status, color := "OFFLINE", hudOffline
	if f.Online {
		status, color = "SYSTEM ONLINE", hudOnline
	}
	x := hudMargin * scale
	return []core.TextItem{
		{Text: status, Position: [2]float32{x, hudMargin * scale}, Scale: scale, Color: color},
		{Text: "STATE: " + f.State.String(), Position: [2]float32{x, (hudMargin + hudLeading) * scale}, Scale: scale, Color: hudDim},
	}
}
