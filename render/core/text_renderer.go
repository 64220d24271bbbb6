package core

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	AtlasSize = 512

	// TextVertexStride is the byte size of one TextVertex.
	TextVertexStride = 32

	atlasPadding = 2
	glyphGap     = 4
)

// HUDCharset is printable ASCII, which covers every overlay string.
const HUDCharset = " !\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

var ErrAtlasFull = errors.New("core: glyph atlas full")

type TextVertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

type TextItem struct {
	Text     string
	Position [2]float32 // pixels from the top-left corner
	Scale    float32
	Color    [4]float32
}

type GlyphInfo struct {
	UVMin [2]float32
	UVMax [2]float32
	Size  [2]float32
	Off   [2]float32
	Adv   float32
}

// TextRenderer holds a monospace glyph atlas and turns text items into
// clip-space quads.
type TextRenderer struct {
	AtlasImage *image.Alpha
	Glyphs     map[rune]GlyphInfo

	ascent     float32
	lineHeight float32
}

// NewTextRenderer rasterizes HUDCharset from the embedded Go Mono face.
func NewTextRenderer(fontSize float64) (*TextRenderer, error) {
	f, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("core: parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("core: create face: %w", err)
	}
	defer face.Close()

	atlas, glyphs, err := packGlyphs(face, HUDCharset)
	if err != nil {
		return nil, err
	}
	m := face.Metrics()
	return &TextRenderer{
		AtlasImage: atlas,
		Glyphs:     glyphs,
		ascent:     float32(m.Ascent.Ceil()),
		lineHeight: float32(m.Height.Ceil()),
	}, nil
}

// packGlyphs lays glyph masks out in rows, left to right.
func packGlyphs(face font.Face, charset string) (*image.Alpha, map[rune]GlyphInfo, error) {
	atlas := image.NewAlpha(image.Rect(0, 0, AtlasSize, AtlasSize))
	glyphs := make(map[rune]GlyphInfo, len(charset))

	x, y, rowHeight := atlasPadding, atlasPadding, 0
	for _, r := range charset {
		if _, seen := glyphs[r]; seen {
			continue
		}
		bounds, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := bounds.Dx(), bounds.Dy()
		if x+w >= AtlasSize {
			x = atlasPadding
			y += rowHeight + glyphGap
			rowHeight = 0
		}
		if y+h >= AtlasSize {
			return nil, nil, fmt.Errorf("%w at %q", ErrAtlasFull, r)
		}

		draw.Draw(atlas, image.Rect(x, y, x+w, y+h), mask, maskp, draw.Src)
		glyphs[r] = GlyphInfo{
			UVMin: [2]float32{float32(x) / AtlasSize, float32(y) / AtlasSize},
			UVMax: [2]float32{float32(x+w) / AtlasSize, float32(y+h) / AtlasSize},
			Size:  [2]float32{float32(w), float32(h)},
			Off:   [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			Adv:   float32(adv) / 64,
		}

		x += w + glyphGap
		rowHeight = max(rowHeight, h)
	}
	return atlas, glyphs, nil
}

// LineHeight is the distance between baselines at the given scale.
func (tr *TextRenderer) LineHeight(scale float32) float32 {
	if tr == nil {
		return 0
	}
	return tr.lineHeight * scale
}

// AppendVertices appends six vertices per visible glyph to dst. Runes
// outside the atlas advance nothing.
func (tr *TextRenderer) AppendVertices(dst []TextVertex, items []TextItem, screenW, screenH int) []TextVertex {
	if screenW <= 0 || screenH <= 0 {
		return dst
	}
	toClip := func(px, py float32) [2]float32 {
		return [2]float32{px/float32(screenW)*2 - 1, 1 - py/float32(screenH)*2}
	}

	for _, item := range items {
		s := item.Scale
		penX := item.Position[0]
		baseline := item.Position[1] + tr.ascent*s

		for _, r := range item.Text {
			if r == '\n' {
				penX = item.Position[0]
				baseline += tr.lineHeight * s
				continue
			}
			g, ok := tr.Glyphs[r]
			if !ok {
				continue
			}

			tl := toClip(penX+g.Off[0]*s, baseline+g.Off[1]*s)
			br := toClip(penX+(g.Off[0]+g.Size[0])*s, baseline+(g.Off[1]+g.Size[1])*s)
			trc := [2]float32{br[0], tl[1]}
			bl := [2]float32{tl[0], br[1]}
			uvTR := [2]float32{g.UVMax[0], g.UVMin[1]}
			uvBL := [2]float32{g.UVMin[0], g.UVMax[1]}

			dst = append(dst,
				TextVertex{Pos: tl, UV: g.UVMin, Color: item.Color},
				TextVertex{Pos: trc, UV: uvTR, Color: item.Color},
				TextVertex{Pos: bl, UV: uvBL, Color: item.Color},
				TextVertex{Pos: trc, UV: uvTR, Color: item.Color},
				TextVertex{Pos: br, UV: g.UVMax, Color: item.Color},
				TextVertex{Pos: bl, UV: uvBL, Color: item.Color},
			)
			penX += g.Adv * s
		}
	}
	return dst
}

// MeasureText returns the pixel width of the widest line and the total height.
func (tr *TextRenderer) MeasureText(text string, scale float32) (float32, float32) {
	if tr == nil {
		return 0, 0
	}
	var widest, line float32
	lines := 1
	for _, r := range text {
		if r == '\n' {
			widest = max(widest, line)
			line = 0
			lines++
			continue
		}
		if g, ok := tr.Glyphs[r]; ok {
			line += g.Adv * scale
		}
	}
	return max(widest, line), tr.lineHeight * scale * float32(lines)
}
