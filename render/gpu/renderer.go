package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/horizon"
	"github.com/gekko3d/horizon/internal/config"
	"github.com/gekko3d/horizon/render/core"
	"github.com/gekko3d/horizon/render/shaders"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Renderer draws engine frames to a window surface:
//
//	scene -> bloom (bright, blur H, blur V, composite) -> lensing -> glitch|blit -> HUD
//
// It implements horizon.Renderer.
type Renderer struct {
	gpu    *Device
	logger horizon.Logger

	sampler *wgpu.Sampler
	scene   *ScenePass
	text    *TextPass

	bright    *FullscreenPass
	blurH     *FullscreenPass
	blurV     *FullscreenPass
	composite *FullscreenPass
	lensing   *FullscreenPass
	glitch    *FullscreenPass
	blit      *FullscreenPass

	color    *RenderTarget
	depth    *RenderTarget
	bloomA   *RenderTarget
	bloomB   *RenderTarget
	combined *RenderTarget
	lensed   *RenderTarget

	width, height int
	surface       surfaceState
	hud           []core.TextItem
}

func NewRenderer(window *glfw.Window, cfg *config.Config, logger horizon.Logger) (*Renderer, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	dev, err := NewDevice(window)
	if err != nil {
		return nil, err
	}
	r := &Renderer{gpu: dev, logger: horizon.OrNop(logger)}
	if err := r.init(cfg); err != nil {
		r.Release()
		return nil, err
	}
	r.logger.Infof("renderer ready: %dx%d format=%v stars=%d", r.width, r.height, dev.Config.Format, cfg.Scene.StarCount)
	return r, nil
}

func (r *Renderer) init(cfg *config.Config) error {
	device := r.gpu.Device
	var err error
	r.sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("render: sampler: %w", err)
	}

	stars := core.GenerateStarfield(cfg.Scene.StarCount, cfg.Scene.Seed)
	if r.scene, err = NewScenePass(device, stars); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	surface := r.gpu.Config.Format
	passes := []struct {
		dst    **FullscreenPass
		name   string
		body   string
		format wgpu.TextureFormat
		size   int
	}{
		{&r.bright, "Bloom Bright", shaders.BloomBrightWGSL, HDRFormat, BrightUniformSize},
		{&r.blurH, "Bloom Blur H", shaders.BloomBlurWGSL, HDRFormat, BlurUniformSize},
		{&r.blurV, "Bloom Blur V", shaders.BloomBlurWGSL, HDRFormat, BlurUniformSize},
		{&r.composite, "Bloom Composite", shaders.BloomCompositeWGSL, HDRFormat, CompositeUniformSize},
		{&r.lensing, "Lensing", shaders.LensingWGSL, HDRFormat, LensUniformSize},
		{&r.glitch, "Glitch", shaders.GlitchWGSL, surface, GlitchUniformSize},
		{&r.blit, "Blit", shaders.BlitWGSL, surface, 0},
	}
	for _, p := range passes {
		if *p.dst, err = NewFullscreenPass(device, p.name, p.body, p.format, p.size); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	PackBright(r.bright.Params())
	PackComposite(r.composite.Params())

	if r.text, err = NewTextPass(device, r.gpu.Queue, r.sampler, surface); err != nil {
		// The HUD is optional; the scene still renders without it.
		r.logger.Warnf("text overlay disabled: %v", err)
		r.text = nil
	}

	width, height := int(r.gpu.Config.Width), int(r.gpu.Config.Height)
	r.surface.configured(width, height)
	return r.setupTargets(width, height)
}

// setupTargets (re)creates every size-dependent texture and rebinds the
// post chain to them.
func (r *Renderer) setupTargets(width, height int) error {
	r.releaseTargets()
	device := r.gpu.Device
	hw, hh := halfSize(width, height)

	var err error
	targets := []struct {
		dst    **RenderTarget
		label  string
		format wgpu.TextureFormat
		w, h   int
	}{
		{&r.color, "Scene Color", HDRFormat, width, height},
		{&r.depth, "Scene Depth", DepthFormat, width, height},
		{&r.bloomA, "Bloom A", HDRFormat, hw, hh},
		{&r.bloomB, "Bloom B", HDRFormat, hw, hh},
		{&r.combined, "Composite", HDRFormat, width, height},
		{&r.lensed, "Lensed", HDRFormat, width, height},
	}
	for _, t := range targets {
		if *t.dst, err = NewRenderTarget(device, t.label, t.format, t.w, t.h); err != nil {
			return fmt.Errorf("render: target %s: %w", t.label, err)
		}
	}

	binds := []struct {
		pass       *FullscreenPass
		src, extra *wgpu.TextureView
	}{
		{r.bright, r.color.View, nil},
		{r.blurH, r.bloomA.View, nil},
		{r.blurV, r.bloomB.View, nil},
		{r.composite, r.color.View, r.bloomA.View},
		{r.lensing, r.combined.View, nil},
		{r.glitch, r.lensed.View, nil},
		{r.blit, r.lensed.View, nil},
	}
	for _, b := range binds {
		if err := b.pass.Bind(device, r.sampler, b.src, b.extra); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	PackBlur(r.blurH.Params(), true, hw, hh)
	PackBlur(r.blurV.Params(), false, hw, hh)

	r.width, r.height = width, height
	return nil
}

func (r *Renderer) releaseTargets() {
	for _, t := range []*RenderTarget{r.color, r.depth, r.bloomA, r.bloomB, r.combined, r.lensed} {
		t.Release()
	}
	r.color, r.depth, r.bloomA, r.bloomB, r.combined, r.lensed = nil, nil, nil, nil, nil, nil
}

// Resize reconfigures the surface for every positive size, since a restore
// after minimizing often reports the old size. Targets are rebuilt only when
// the size changed. Zero sizes are ignored.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if err := r.gpu.Reconfigure(width, height); err != nil {
		r.surface.markLost()
		r.logger.Warnf("surface reconfigure %dx%d: %v", width, height, err)
		return
	}
	r.surface.configured(width, height)
	if width == r.width && height == r.height && r.color != nil {
		r.logger.Debugf("surface reconfigured at %dx%d", width, height)
		return
	}
	if err := r.setupTargets(width, height); err != nil {
		r.logger.Errorf("resize %dx%d: %v", width, height, err)
		return
	}
	r.logger.Debugf("resized to %dx%d", width, height)
}

func (r *Renderer) upload(f horizon.Frame) error {
	queue := r.gpu.Queue
	if err := r.scene.Update(queue, f); err != nil {
		return err
	}
	PackLens(r.lensing.Params(), f)
	PackGlitch(r.glitch.Params(), f)
	for _, p := range []*FullscreenPass{r.bright, r.blurH, r.blurV, r.composite, r.lensing, r.glitch} {
		if err := p.Upload(queue); err != nil {
			return err
		}
	}
	if r.text != nil {
		r.hud = StatusItems(f)
		if err := r.text.Update(queue, r.hud, r.width, r.height); err != nil {
			return err
		}
	}
	return nil
}

// Render encodes and presents one frame.
func (r *Renderer) Render(f horizon.Frame) error {
	if r.color == nil {
		return ErrZeroSize
	}
	if w, h, ok := r.surface.pending(); ok {
		if err := r.gpu.Reconfigure(w, h); err != nil {
			return fmt.Errorf("render: reconfigure lost surface: %w", err)
		}
		r.surface.configured(w, h)
		r.logger.Debugf("surface reconfigured after loss at %dx%d", w, h)
	}
	if err := r.upload(f); err != nil {
		return fmt.Errorf("render: upload: %w", err)
	}

	next, err := r.gpu.Surface.GetCurrentTexture()
	if err != nil {
		r.surface.markLost()
		return fmt.Errorf("render: acquire surface texture: %w", err)
	}
	defer next.Release()
	view, err := next.CreateView(nil)
	if err != nil {
		return fmt.Errorf("render: surface view: %w", err)
	}
	defer view.Release()

	encoder, err := r.gpu.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("render: command encoder: %w", err)
	}
	defer encoder.Release()

	scenePass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Scene",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       r.color.View,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depth.View,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	r.scene.Draw(scenePass)
	if err := scenePass.End(); err != nil {
		return fmt.Errorf("render: scene pass: %w", err)
	}

	chain := []struct {
		pass *FullscreenPass
		dst  *wgpu.TextureView
	}{
		{r.bright, r.bloomA.View},
		{r.blurH, r.bloomB.View},
		{r.blurV, r.bloomA.View},
		{r.composite, r.combined.View},
		{r.lensing, r.lensed.View},
	}
	for _, step := range chain {
		if err := step.pass.Encode(encoder, step.dst); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}

	final := r.blit
	if f.GlitchActive() {
		final = r.glitch
	}
	out := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Present",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	final.Draw(out)
	if r.text != nil {
		r.text.Draw(out)
	}
	if err := out.End(); err != nil {
		return fmt.Errorf("render: present pass: %w", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("render: finish: %w", err)
	}
	defer cmd.Release()
	r.gpu.Queue.Submit(cmd)
	r.gpu.Surface.Present()
	return nil
}

// Release frees every GPU object. Safe to call more than once.
func (r *Renderer) Release() {
	if r.gpu == nil {
		return
	}
	r.releaseTargets()
	for _, p := range []*FullscreenPass{r.bright, r.blurH, r.blurV, r.composite, r.lensing, r.glitch, r.blit} {
		p.Release()
	}
	if r.text != nil {
		r.text.Release()
		r.text = nil
	}
	if r.scene != nil {
		r.scene.Release()
		r.scene = nil
	}
	if r.sampler != nil {
		r.sampler.Release()
		r.sampler = nil
	}
	r.gpu.Release()
	r.gpu = nil
}

var _ horizon.Renderer = (*Renderer)(nil)
