package gpu

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/horizon/render/core"
	"github.com/gekko3d/horizon/render/shaders"
)

// MaxTextVertices bounds the HUD vertex buffer. Glyphs past it are dropped.
const MaxTextVertices = 6 * 256

// TextPass draws HUD text over the presented frame with alpha blending.
type TextPass struct {
	renderer  *core.TextRenderer
	atlas     *wgpu.Texture
	atlasView *wgpu.TextureView
	pipeline  *wgpu.RenderPipeline
	bindGroup *wgpu.BindGroup
	vertices  *wgpu.Buffer
	scratch   []core.TextVertex
	count     uint32
}

func NewTextPass(device *wgpu.Device, queue *wgpu.Queue, sampler *wgpu.Sampler, format wgpu.TextureFormat) (*TextPass, error) {
	tr, err := core.NewTextRenderer(HUDFontSize)
	if err != nil {
		return nil, err
	}
	p := &TextPass{renderer: tr, scratch: make([]core.TextVertex, 0, MaxTextVertices)}
	if err := p.init(device, queue, sampler, format); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *TextPass) init(device *wgpu.Device, queue *wgpu.Queue, sampler *wgpu.Sampler, format wgpu.TextureFormat) error {
	img := p.renderer.AtlasImage
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	var err error
	p.atlas, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Text Atlas",
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("text atlas: %w", err)
	}
	err = queue.WriteTexture(p.atlas.AsImageCopy(), img.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(img.Stride),
		RowsPerImage: uint32(h),
	}, &wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1})
	if err != nil {
		return fmt.Errorf("text atlas upload: %w", err)
	}
	p.atlasView, err = p.atlas.CreateView(nil)
	if err != nil {
		return fmt.Errorf("text atlas view: %w", err)
	}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Text Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.TextWGSL},
	})
	if err != nil {
		return fmt.Errorf("text shader: %w", err)
	}
	defer module.Release()

	p.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Text Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: core.TextVertexStride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOne,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("text pipeline: %w", err)
	}

	layout := p.pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	p.bindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Text BG",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: p.atlasView},
			{Binding: 1, Sampler: sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("text bind group: %w", err)
	}

	p.vertices, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Text VB",
		Size:  MaxTextVertices * core.TextVertexStride,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("text vertices: %w", err)
	}
	return nil
}

// Update rebuilds the glyph quads for items at the given framebuffer size.
func (p *TextPass) Update(queue *wgpu.Queue, items []core.TextItem, width, height int) error {
	p.scratch = p.renderer.AppendVertices(p.scratch[:0], items, width, height)
	if len(p.scratch) > MaxTextVertices {
		p.scratch = p.scratch[:MaxTextVertices]
	}
	p.count = uint32(len(p.scratch))
	if p.count == 0 {
		return nil
	}
	size := uintptr(len(p.scratch)) * unsafe.Sizeof(core.TextVertex{})
	return queue.WriteBuffer(p.vertices, 0, unsafe.Slice((*byte)(unsafe.Pointer(&p.scratch[0])), size))
}

func (p *TextPass) Draw(pass *wgpu.RenderPassEncoder) {
	if p.count == 0 {
		return
	}
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, p.bindGroup, nil)
	pass.SetVertexBuffer(0, p.vertices, 0, uint64(p.count)*core.TextVertexStride)
	pass.Draw(p.count, 1, 0, 0)
}

func (p *TextPass) Release() {
	if p.vertices != nil {
		p.vertices.Release()
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	if p.atlasView != nil {
		p.atlasView.Release()
	}
	if p.atlas != nil {
		p.atlas.Release()
	}
	*p = TextPass{}
}
