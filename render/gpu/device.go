package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var (
	ErrNoSurfaceFormat = errors.New("render: surface reports no formats")
	ErrZeroSize        = errors.New("render: zero-size surface")
)

// Device bundles the WebGPU objects tied to one window surface.
type Device struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration
}

func NewDevice(window *glfw.Window) (*Device, error) {
	d := &Device{}
	d.Instance = wgpu.CreateInstance(nil)
	d.Surface = d.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := d.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: d.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("render: request adapter: %w", err)
	}
	d.Adapter = adapter

	d.Device, err = adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Horizon Device",
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("render: request device: %w", err)
	}
	d.Queue = d.Device.GetQueue()

	caps := d.Surface.GetCapabilities(adapter)
	format, err := pickSurfaceFormat(caps.Formats)
	if err != nil {
		d.Release()
		return nil, err
	}
	alpha := wgpu.CompositeAlphaModeAuto
	if len(caps.AlphaModes) > 0 {
		alpha = caps.AlphaModes[0]
	}

	width, height := window.GetFramebufferSize()
	d.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(max(width, 1)),
		Height:      uint32(max(height, 1)),
		PresentMode: wgpu.PresentModeFifo, // vsync paces the frame loop
		AlphaMode:   alpha,
	}
	d.Surface.Configure(d.Adapter, d.Device, d.Config)
	return d, nil
}

// pickSurfaceFormat prefers a non-sRGB 8-bit format. Shaders write display
// values directly, so an sRGB surface would brighten every pixel.
func pickSurfaceFormat(formats []wgpu.TextureFormat) (wgpu.TextureFormat, error) {
	if len(formats) == 0 {
		return wgpu.TextureFormatUndefined, ErrNoSurfaceFormat
	}
	for _, f := range formats {
		if f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatRGBA8Unorm {
			return f, nil
		}
	}
	return formats[0], nil
}

// Reconfigure resizes the swap chain. Zero sizes are rejected.
func (d *Device) Reconfigure(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrZeroSize
	}
	d.Config.Width = uint32(width)
	d.Config.Height = uint32(height)
	d.Surface.Configure(d.Adapter, d.Device, d.Config)
	return nil
}

func (d *Device) Release() {
	if d.Queue != nil {
		d.Queue.Release()
		d.Queue = nil
	}
	if d.Device != nil {
		d.Device.Release()
		d.Device = nil
	}
	if d.Adapter != nil {
		d.Adapter.Release()
		d.Adapter = nil
	}
	if d.Surface != nil {
		d.Surface.Release()
		d.Surface = nil
	}
	if d.Instance != nil {
		d.Instance.Release()
		d.Instance = nil
	}
}
