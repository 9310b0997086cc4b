package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/vertexshim"
	"github.com/gekko3d/vertexshim/rendertarget"
	"github.com/gekko3d/vertexshim/vertex"
)

func init() {
	runtime.LockOSThread()
}

const shaderCode = `
struct VSOut {
	@builtin(position) pos: vec4<f32>,
	@location(0) color: vec4<f32>,
};

@vertex
fn vs_main(@location(0) pos: vec2<f32>, @location(1) color: vec4<f32>,
           @location(2) shift: vec2<f32>, @location(3) tint: vec4<f32>) -> VSOut {
	var out: VSOut;
	out.pos = vec4<f32>(pos * 0.3 + shift, 0.5, 1.0);
	out.color = color * tint;
	return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
	return in.color;
}
`

const (
	slotPosition = iota
	slotColor
	slotShift
	slotTint
	slotCount
)

type gpuState struct {
	surface *wgpu.Surface
	adapter *wgpu.Adapter
	device  *wgpu.Device
	queue   *wgpu.Queue
	config  *wgpu.SurfaceConfiguration
	depth   *rendertarget.Renderbuffer
}

func createGpuState(window *glfw.Window) (*gpuState, error) {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}

	width, height := window.GetFramebufferSize()
	caps := surface.GetCapabilities(adapter)
	config := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, config)

	depth, err := rendertarget.CreateDepthbuffer(device, config.Width, config.Height)
	if err != nil {
		return nil, err
	}
	return &gpuState{
		surface: surface,
		adapter: adapter,
		device:  device,
		queue:   device.GetQueue(),
		config:  config,
		depth:   depth,
	}, nil
}

func (g *gpuState) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	g.config.Width, g.config.Height = uint32(width), uint32(height)
	g.surface.Configure(g.adapter, g.device, g.config)
	depth, err := rendertarget.CreateDepthbuffer(g.device, g.config.Width, g.config.Height)
	if err != nil {
		return
	}
	g.depth.Release()
	g.depth = depth
}

func createPipeline(g *gpuState, translated []vertexshim.TranslatedAttribute) (*wgpu.RenderPipeline, error) {
	shader, err := g.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "vertexdemo",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaderCode},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shader: %w", err)
	}
	defer shader.Release()

	layouts := make([]wgpu.VertexBufferLayout, 0, len(translated))
	for i, t := range translated {
		if !t.Active {
			continue
		}
		layout, err := t.Layout(uint32(i))
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, layout)
	}

	return g.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "vertexdemo",
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    layouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    g.config.Format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            g.depth.Format,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLessEqual,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
}

// trianglePositions returns a triangle rotated by angle as normalized shorts.
func trianglePositions(angle float32) []byte {
	out := make([]byte, 0, 3*2*2)
	for i := 0; i < 3; i++ {
		a := float64(angle) + float64(i)*2*math.Pi/3
		for _, v := range []float64{math.Cos(a), math.Sin(a)} {
			out = binary.LittleEndian.AppendUint16(out, uint16(int16(v*math.MaxInt16)))
		}
	}
	return out
}

func floatBytes(values ...float32) []byte {
	out := make([]byte, 0, 4*len(values))
	for _, v := range values {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

type demo struct {
	logger   vertexshim.Logger
	gpu      *gpuState
	manager  *vertexshim.Manager
	va       *vertexshim.VertexArray
	program  vertexshim.ProgramAttributes
	colors   *vertex.Buffer
	shifts   *vertex.Buffer
	pipeline *wgpu.RenderPipeline
}

func newDemo(g *gpuState, cfg vertexshim.Config, logger vertexshim.Logger) (*demo, error) {
	factory := vertex.NewGPUFactory(g.device)
	d := &demo{
		logger:  logger,
		gpu:     g,
		manager: vertexshim.NewManager(factory, cfg, logger),
		va:      vertexshim.NewVertexArray(cfg.MaxVertexAttribs),
		program: vertexshim.NewProgramAttributes(slotPosition, slotColor, slotShift, slotTint),
		colors:  vertex.NewBuffer(factory, "colors"),
		shifts:  vertex.NewBuffer(factory, "shifts"),
	}

	colors := []byte{
		255, 64, 64, 255,
		64, 255, 64, 255,
		64, 64, 255, 255,
	}
	if err := d.colors.SetData(colors, vertex.UsageStatic); err != nil {
		return nil, err
	}
	if err := d.shifts.SetData(floatBytes(-0.5, 0, 0, 0, 0.5, 0), vertex.UsageDynamic); err != nil {
		return nil, err
	}

	d.va.SetAttribBuffer(slotColor, 4, vertex.TypeUnsignedByte, true, 0, d.colors, 0)
	d.va.EnableAttrib(slotColor)
	d.va.SetAttribBuffer(slotShift, 2, vertex.TypeFloat, false, 0, d.shifts, 0)
	d.va.SetAttribDivisor(slotShift, 1)
	d.va.EnableAttrib(slotShift)
	d.va.SetCurrentValue(slotTint, vertex.FloatValue(mgl32.Vec4{1, 1, 1, 1}))
	return d, nil
}

func (d *demo) render(now float64) {
	d.va.SetAttribPointer(slotPosition, 2, vertex.TypeShort, true, 0, trianglePositions(float32(now)))
	d.va.EnableAttrib(slotPosition)
	pulse := float32(0.75 + 0.25*math.Sin(now))
	d.va.SetCurrentValue(slotTint, vertex.FloatValue(mgl32.Vec4{pulse, pulse, pulse, 1}))

	translated, err := d.manager.PrepareVertexData(d.program, d.va, 0, 3, 3)
	if err != nil {
		d.logger.Errorf("PrepareVertexData failed: %v", err)
		return
	}
	if d.pipeline == nil {
		if d.pipeline, err = createPipeline(d.gpu, translated); err != nil {
			d.logger.Errorf("Failed to create pipeline: %v", err)
			return
		}
	}

	nextTexture, err := d.gpu.surface.GetCurrentTexture()
	if err != nil {
		d.logger.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()
	view, err := nextTexture.CreateView(nil)
	if err != nil {
		d.logger.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()
	depthView, err := d.gpu.depth.CreateView()
	if err != nil {
		d.logger.Errorf("Depth CreateView failed: %v", err)
		return
	}
	defer depthView.Release()

	encoder, err := d.gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		d.logger.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0.05, G: 0.05, B: 0.08, A: 1},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:              depthView,
			DepthLoadOp:       wgpu.LoadOpClear,
			DepthStoreOp:      wgpu.StoreOpStore,
			DepthClearValue:   1,
			StencilLoadOp:     wgpu.LoadOpClear,
			StencilStoreOp:    wgpu.StoreOpStore,
			StencilClearValue: 0,
		},
	})
	pass.SetPipeline(d.pipeline)
	slot := uint32(0)
	for i, t := range translated {
		if !t.Active {
			continue
		}
		gb, ok := t.VertexBuffer.(*vertex.GPUVertexBuffer)
		if !ok || gb.Buffer() == nil {
			d.logger.Warnf("Attribute %d has no device buffer", i)
			continue
		}
		if err := gb.Err(); err != nil {
			d.logger.Warnf("Attribute %d upload failed: %v", i, err)
		}
		pass.SetVertexBuffer(slot, gb.Buffer(), t.Offset, wgpu.WholeSize)
		slot++
	}
	pass.Draw(3, 3, 0, 0)
	if err := pass.End(); err != nil {
		d.logger.Errorf("Render pass End failed: %v", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		d.logger.Errorf("Encoder Finish failed: %v", err)
		return
	}
	d.gpu.queue.Submit(cmd)
	d.gpu.surface.Present()
}

func (d *demo) release() {
	if d.pipeline != nil {
		d.pipeline.Release()
	}
	d.manager.Release()
	d.colors.Release()
	d.shifts.Release()
	d.gpu.depth.Release()
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg := vertexshim.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = vertexshim.LoadConfig(*configPath); err != nil {
			panic(err)
		}
	}
	if *debug {
		cfg.Debug = true
	}
	logger := vertexshim.NewLogger(cfg)

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "vertexshim demo", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	g, err := createGpuState(window)
	if err != nil {
		panic(err)
	}
	d, err := newDemo(g, cfg, logger)
	if err != nil {
		panic(err)
	}
	defer d.release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		g.resize(width, height)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	logger.Infof("Rendering with %d attribute slots", slotCount)
	for !window.ShouldClose() {
		glfw.PollEvents()
		d.render(glfw.GetTime())
	}
}
