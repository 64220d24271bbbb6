package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/horizon"
	"github.com/gekko3d/horizon/render/core"
	"github.com/gekko3d/horizon/render/shaders"
)

// mesh is a static indexed mesh on the GPU.
type mesh struct {
	vertices   *wgpu.Buffer
	indices    *wgpu.Buffer
	indexCount uint32
}

func newMesh(device *wgpu.Device, label string, m core.Mesh) (*mesh, error) {
	vb, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label + " Vertices",
		Contents: wgpu.ToBytes(m.Vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, err
	}
	ib, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label + " Indices",
		Contents: wgpu.ToBytes(m.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vb.Release()
		return nil, err
	}
	return &mesh{vertices: vb, indices: ib, indexCount: uint32(len(m.Indices))}, nil
}

func (m *mesh) draw(pass *wgpu.RenderPassEncoder) {
	pass.SetVertexBuffer(0, m.vertices, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(m.indices, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(m.indexCount, 1, 0, 0, 0)
}

func (m *mesh) release() {
	m.vertices.Release()
	m.indices.Release()
}

// uniformBlock is a uniform buffer, its CPU staging bytes and the bind
// group exposing it.
type uniformBlock struct {
	buffer    *wgpu.Buffer
	staging   []byte
	bindGroup *wgpu.BindGroup
}

func newUniformBlock(device *wgpu.Device, layout *wgpu.BindGroupLayout, label string, size int) (*uniformBlock, error) {
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(size),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	bg, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + " BG",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Size: uint64(size)},
		},
	})
	if err != nil {
		buf.Release()
		return nil, err
	}
	return &uniformBlock{buffer: buf, staging: make([]byte, size), bindGroup: bg}, nil
}

func (u *uniformBlock) flush(queue *wgpu.Queue) error {
	return queue.WriteBuffer(u.buffer, 0, u.staging)
}

func (u *uniformBlock) release() {
	u.bindGroup.Release()
	u.buffer.Release()
}

// ScenePass rasterizes the starfield, the core, the event horizon shell
// and the accretion disk into the HDR target. Every GPU object is created
// here once; per frame only the uniform blocks are rewritten.
type ScenePass struct {
	sceneLayout  *wgpu.BindGroupLayout
	objectLayout *wgpu.BindGroupLayout

	starsPipeline   *wgpu.RenderPipeline
	corePipeline    *wgpu.RenderPipeline
	horizonPipeline *wgpu.RenderPipeline
	diskPipeline    *wgpu.RenderPipeline

	starBuffer *wgpu.Buffer
	starCount  uint32
	sphere     *mesh
	shell      *mesh
	ring       *mesh

	scene   *uniformBlock
	stars   *uniformBlock
	core    *uniformBlock
	horizon *uniformBlock
	disk    *uniformBlock
}

func NewScenePass(device *wgpu.Device, stars []core.Star) (*ScenePass, error) {
	p := &ScenePass{}
	if err := p.init(device, stars); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *ScenePass) init(device *wgpu.Device, stars []core.Star) error {
	var err error
	p.sceneLayout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "SceneBGL",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: SceneUniformSize,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("scene layout: %w", err)
	}
	p.objectLayout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ObjectBGL",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeUniform,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("object layout: %w", err)
	}
	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "ScenePL",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.sceneLayout, p.objectLayout},
	})
	if err != nil {
		return fmt.Errorf("scene pipeline layout: %w", err)
	}
	defer layout.Release()

	meshBuffers := []wgpu.VertexBufferLayout{{
		ArrayStride: core.VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}}
	starBuffers := []wgpu.VertexBufferLayout{{
		ArrayStride: core.StarStride,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 16, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32, Offset: 28, ShaderLocation: 3},
		},
	}}

	p.starsPipeline, err = createScenePipeline(device, layout, "Stars", shaders.Scene(shaders.StarsWGSL), starBuffers, wgpu.CullModeNone, additiveBlend(), false)
	if err != nil {
		return err
	}
	p.corePipeline, err = createScenePipeline(device, layout, "Core", shaders.Scene(shaders.CoreWGSL), meshBuffers, wgpu.CullModeBack, nil, true)
	if err != nil {
		return err
	}
	// The shell is drawn from its inside so the rim glows around the core.
	p.horizonPipeline, err = createScenePipeline(device, layout, "Horizon", shaders.Scene(shaders.HorizonWGSL), meshBuffers, wgpu.CullModeFront, additiveBlend(), false)
	if err != nil {
		return err
	}
	p.diskPipeline, err = createScenePipeline(device, layout, "Disk", shaders.Scene(shaders.NoiseWGSL, shaders.DiskWGSL), meshBuffers, wgpu.CullModeNone, additiveBlend(), false)
	if err != nil {
		return err
	}

	if len(stars) > 0 {
		p.starBuffer, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    "Star Instances",
			Contents: wgpu.ToBytes(stars),
			Usage:    wgpu.BufferUsageVertex,
		})
		if err != nil {
			return fmt.Errorf("star buffer: %w", err)
		}
		p.starCount = uint32(len(stars))
	}

	if p.sphere, err = newMesh(device, "Core", core.NewSphere(core.CoreRadius, core.SphereSegments, core.SphereSegments)); err != nil {
		return err
	}
	// The shell shares the core radius; its 1.02 scale comes from the model matrix.
	if p.shell, err = newMesh(device, "Horizon", core.NewHorizonShell()); err != nil {
		return err
	}
	if p.ring, err = newMesh(device, "Disk", core.NewRing(core.DiskInnerRadius, core.DiskOuterRadius, core.DiskThetaSegments, core.DiskRadialSegments)); err != nil {
		return err
	}

	if p.scene, err = newUniformBlock(device, p.sceneLayout, "SceneUB", SceneUniformSize); err != nil {
		return err
	}
	if p.stars, err = newUniformBlock(device, p.objectLayout, "StarsUB", ObjectUniformSize); err != nil {
		return err
	}
	if p.core, err = newUniformBlock(device, p.objectLayout, "CoreUB", ObjectUniformSize); err != nil {
		return err
	}
	if p.horizon, err = newUniformBlock(device, p.objectLayout, "HorizonUB", ObjectUniformSize); err != nil {
		return err
	}
	if p.disk, err = newUniformBlock(device, p.objectLayout, "DiskUB", DiskUniformSize); err != nil {
		return err
	}
	return nil
}

func additiveBlend() *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOne,
		},
		Alpha: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
		},
	}
}

func createScenePipeline(device *wgpu.Device, layout *wgpu.PipelineLayout, name, code string, buffers []wgpu.VertexBufferLayout, cull wgpu.CullMode, blend *wgpu.BlendState, depthWrite bool) (*wgpu.RenderPipeline, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name + " Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, fmt.Errorf("%s shader: %w", name, err)
	}
	defer module.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  name + " Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    HDRFormat,
				Blend:     blend,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cull,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: depthWrite,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s pipeline: %w", name, err)
	}
	return pipeline, nil
}

// Update stages and uploads every uniform block for f.
func (p *ScenePass) Update(queue *wgpu.Queue, f horizon.Frame) error {
	PackScene(p.scene.staging, f)
	PackObject(p.stars.staging, f.StarModel(), horizon.Hex(0xffffff))
	PackObject(p.core.staging, f.CoreModel(), horizon.Hex(0x000000))
	PackObject(p.horizon.staging, f.HorizonModel(), HorizonColor)
	PackDisk(p.disk.staging, f)

	for _, u := range []*uniformBlock{p.scene, p.stars, p.core, p.horizon, p.disk} {
		if err := u.flush(queue); err != nil {
			return err
		}
	}
	return nil
}

// Draw records the scene. The opaque core goes first so translucent layers
// depth-test against it.
func (p *ScenePass) Draw(pass *wgpu.RenderPassEncoder) {
	pass.SetBindGroup(0, p.scene.bindGroup, nil)

	pass.SetPipeline(p.corePipeline)
	pass.SetBindGroup(1, p.core.bindGroup, nil)
	p.sphere.draw(pass)

	if p.starCount > 0 {
		pass.SetPipeline(p.starsPipeline)
		pass.SetBindGroup(1, p.stars.bindGroup, nil)
		pass.SetVertexBuffer(0, p.starBuffer, 0, wgpu.WholeSize)
		pass.Draw(6, p.starCount, 0, 0)
	}

	pass.SetPipeline(p.horizonPipeline)
	pass.SetBindGroup(1, p.horizon.bindGroup, nil)
	p.shell.draw(pass)

	pass.SetPipeline(p.diskPipeline)
	pass.SetBindGroup(1, p.disk.bindGroup, nil)
	p.ring.draw(pass)
}

func (p *ScenePass) Release() {
	for _, u := range []*uniformBlock{p.scene, p.stars, p.core, p.horizon, p.disk} {
		if u != nil {
			u.release()
		}
	}
	for _, m := range []*mesh{p.sphere, p.shell, p.ring} {
		if m != nil {
			m.release()
		}
	}
	if p.starBuffer != nil {
		p.starBuffer.Release()
	}
	for _, pl := range []*wgpu.RenderPipeline{p.starsPipeline, p.corePipeline, p.horizonPipeline, p.diskPipeline} {
		if pl != nil {
			pl.Release()
		}
	}
	if p.objectLayout != nil {
		p.objectLayout.Release()
	}
	if p.sceneLayout != nil {
		p.sceneLayout.Release()
	}
	*p = ScenePass{}
}
