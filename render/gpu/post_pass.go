package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/horizon/render/shaders"
)

// FullscreenPass runs one full-screen triangle effect. It samples src at
// binding 0/1, reads its params block at binding 2 and, for the composite,
// a second texture at binding 3.
type FullscreenPass struct {
	name      string
	pipeline  *wgpu.RenderPipeline
	uniform   *wgpu.Buffer
	params    []byte
	bindGroup *wgpu.BindGroup
}

// NewFullscreenPass compiles body against the shared triangle stage.
// paramSize is zero for effects without a params block.
func NewFullscreenPass(device *wgpu.Device, name, body string, format wgpu.TextureFormat, paramSize int) (*FullscreenPass, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name + " Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.Post(body)},
	})
	if err != nil {
		return nil, fmt.Errorf("%s shader: %w", name, err)
	}
	defer module.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: name + " Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
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
		return nil, fmt.Errorf("%s pipeline: %w", name, err)
	}

	p := &FullscreenPass{name: name, pipeline: pipeline}
	if paramSize > 0 {
		p.uniform, err = device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: name + " Params",
			Size:  uint64(paramSize),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			pipeline.Release()
			return nil, fmt.Errorf("%s params: %w", name, err)
		}
		p.params = make([]byte, paramSize)
	}
	return p, nil
}

// Params is the staging block written by the Pack functions.
func (p *FullscreenPass) Params() []byte { return p.params }

// Bind points the pass at its inputs. extra may be nil. Called again
// whenever the targets are recreated.
func (p *FullscreenPass) Bind(device *wgpu.Device, sampler *wgpu.Sampler, src, extra *wgpu.TextureView) error {
	entries := []wgpu.BindGroupEntry{
		{Binding: 0, TextureView: src},
		{Binding: 1, Sampler: sampler},
	}
	if p.uniform != nil {
		entries = append(entries, wgpu.BindGroupEntry{Binding: 2, Buffer: p.uniform, Size: wgpu.WholeSize})
	}
	if extra != nil {
		entries = append(entries, wgpu.BindGroupEntry{Binding: 3, TextureView: extra})
	}

	layout := p.pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	bg, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.name + " BG",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("%s bind group: %w", p.name, err)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	return nil
}

func (p *FullscreenPass) Upload(queue *wgpu.Queue) error {
	if p.uniform == nil {
		return nil
	}
	return queue.WriteBuffer(p.uniform, 0, p.params)
}

func (p *FullscreenPass) Draw(pass *wgpu.RenderPassEncoder) {
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, p.bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
}

// Encode draws the effect into dst in its own render pass.
func (p *FullscreenPass) Encode(encoder *wgpu.CommandEncoder, dst *wgpu.TextureView) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: p.name,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       dst,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	p.Draw(pass)
	if err := pass.End(); err != nil {
		return fmt.Errorf("%s pass: %w", p.name, err)
	}
	return nil
}

func (p *FullscreenPass) Release() {
	if p == nil {
		return
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.uniform != nil {
		p.uniform.Release()
		p.uniform = nil
	}
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
}
