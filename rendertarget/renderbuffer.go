// Package rendertarget wraps WebGPU textures used as framebuffer attachments.
package rendertarget

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

type Kind uint8

const (
	KindColor Kind = iota
	KindDepth
	KindStencil
)

func (k Kind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindDepth:
		return "depth"
	case KindStencil:
		return "stencil"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Renderbuffer is a single-sample attachment of a fixed kind.
type Renderbuffer struct {
	Kind   Kind
	Width  uint32
	Height uint32
	Format wgpu.TextureFormat

	texture *wgpu.Texture
}

func NewColorbuffer(tex *wgpu.Texture, width, height uint32, format wgpu.TextureFormat) *Renderbuffer {
	return &Renderbuffer{Kind: KindColor, Width: width, Height: height, Format: format, texture: tex}
}

func NewDepthbuffer(tex *wgpu.Texture, width, height uint32, format wgpu.TextureFormat) *Renderbuffer {
	return &Renderbuffer{Kind: KindDepth, Width: width, Height: height, Format: format, texture: tex}
}

func NewStencilbuffer(tex *wgpu.Texture, width, height uint32, format wgpu.TextureFormat) *Renderbuffer {
	return &Renderbuffer{Kind: KindStencil, Width: width, Height: height, Format: format, texture: tex}
}

// CreateDepthbuffer allocates a combined depth/stencil attachment.
func CreateDepthbuffer(device *wgpu.Device, width, height uint32) (*Renderbuffer, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("invalid depth buffer size %dx%d", width, height)
	}
	format := wgpu.TextureFormatDepth24PlusStencil8
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Buffer",
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create depth buffer: %w", err)
	}
	return NewDepthbuffer(tex, width, height, format), nil
}

func (r *Renderbuffer) IsColorbuffer() bool   { return r.Kind == KindColor }
func (r *Renderbuffer) IsDepthbuffer() bool   { return r.Kind == KindDepth }
func (r *Renderbuffer) IsStencilbuffer() bool { return r.Kind == KindStencil }

// RenderTarget returns the color texture, nil for depth and stencil buffers.
func (r *Renderbuffer) RenderTarget() *wgpu.Texture {
	if r.Kind != KindColor {
		return nil
	}
	return r.texture
}

// DepthStencil returns the depth or stencil texture, nil for color buffers.
func (r *Renderbuffer) DepthStencil() *wgpu.Texture {
	if r.Kind == KindColor {
		return nil
	}
	return r.texture
}

// channelBits is the per-channel layout of a texture format.
type channelBits struct {
	red, green, blue, alpha, depth, stencil uint32
}

func formatBits(f wgpu.TextureFormat) channelBits {
	switch f {
	case wgpu.TextureFormatR8Unorm:
		return channelBits{red: 8}
	case wgpu.TextureFormatRG8Unorm:
		return channelBits{red: 8, green: 8}
	case wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb,
		wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb:
		return channelBits{red: 8, green: 8, blue: 8, alpha: 8}
	case wgpu.TextureFormatRGB10A2Unorm:
		return channelBits{red: 10, green: 10, blue: 10, alpha: 2}
	case wgpu.TextureFormatR16Float:
		return channelBits{red: 16}
	case wgpu.TextureFormatRGBA16Float:
		return channelBits{red: 16, green: 16, blue: 16, alpha: 16}
	case wgpu.TextureFormatR32Float:
		return channelBits{red: 32}
	case wgpu.TextureFormatRGBA32Float:
		return channelBits{red: 32, green: 32, blue: 32, alpha: 32}
	case wgpu.TextureFormatDepth16Unorm:
		return channelBits{depth: 16}
	case wgpu.TextureFormatDepth24Plus:
		return channelBits{depth: 24}
	case wgpu.TextureFormatDepth24PlusStencil8:
		return channelBits{depth: 24, stencil: 8}
	case wgpu.TextureFormatDepth32Float:
		return channelBits{depth: 32}
	case wgpu.TextureFormatDepth32FloatStencil8:
		return channelBits{depth: 32, stencil: 8}
	case wgpu.TextureFormatStencil8:
		return channelBits{stencil: 8}
	}
	return channelBits{}
}

func (r *Renderbuffer) RedSize() uint32     { return formatBits(r.Format).red }
func (r *Renderbuffer) GreenSize() uint32   { return formatBits(r.Format).green }
func (r *Renderbuffer) BlueSize() uint32    { return formatBits(r.Format).blue }
func (r *Renderbuffer) AlphaSize() uint32   { return formatBits(r.Format).alpha }
func (r *Renderbuffer) DepthSize() uint32   { return formatBits(r.Format).depth }
func (r *Renderbuffer) StencilSize() uint32 { return formatBits(r.Format).stencil }

// CreateView returns a view of the whole texture for use as an attachment.
func (r *Renderbuffer) CreateView() (*wgpu.TextureView, error) {
	if r.texture == nil {
		return nil, fmt.Errorf("%s renderbuffer has no texture", r.Kind)
	}
	return r.texture.CreateView(nil)
}

func (r *Renderbuffer) Release() {
	if r.texture != nil {
		r.texture.Release()
		r.texture = nil
	}
}
