package shaders

import (
	_ "embed"
)

//go:embed scene.wgsl
var SceneWGSL string

//go:embed stars.wgsl
var StarsWGSL string

//go:embed core.wgsl
var CoreWGSL string

//go:embed horizon.wgsl
var HorizonWGSL string

//go:embed noise.wgsl
var NoiseWGSL string

//go:embed disk.wgsl
var DiskWGSL string

//go:embed fullscreen.wgsl
var FullscreenWGSL string

//go:embed bloom_bright.wgsl
var BloomBrightWGSL string

//go:embed bloom_blur.wgsl
var BloomBlurWGSL string

//go:embed bloom_composite.wgsl
var BloomCompositeWGSL string

//go:embed lensing.wgsl
var LensingWGSL string

//go:embed glitch.wgsl
var GlitchWGSL string

//go:embed blit.wgsl
var BlitWGSL string

//go:embed text.wgsl
var TextWGSL string

// Scene prefixes a scene object shader with the shared camera block.
func Scene(body ...string) string {
	out := SceneWGSL
	for _, b := range body {
		out += "\n" + b
	}
	return out
}

// Post prefixes a full-screen effect with the shared triangle vertex stage.
func Post(body string) string {
	return FullscreenWGSL + "\n" + body
}
