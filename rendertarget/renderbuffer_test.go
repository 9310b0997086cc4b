package rendertarget

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestKindDispatch(t *testing.T) {
	color := NewColorbuffer(nil, 64, 32, wgpu.TextureFormatBGRA8Unorm)
	assert.True(t, color.IsColorbuffer())
	assert.False(t, color.IsDepthbuffer())
	assert.False(t, color.IsStencilbuffer())
	assert.Nil(t, color.DepthStencil())

	depth := NewDepthbuffer(nil, 64, 32, wgpu.TextureFormatDepth24PlusStencil8)
	assert.True(t, depth.IsDepthbuffer())
	assert.Nil(t, depth.RenderTarget())

	stencil := NewStencilbuffer(nil, 64, 32, wgpu.TextureFormatStencil8)
	assert.True(t, stencil.IsStencilbuffer())
	assert.Nil(t, stencil.RenderTarget())
	assert.Equal(t, "stencil", stencil.Kind.String())
}

func TestChannelSizes(t *testing.T) {
	color := NewColorbuffer(nil, 1, 1, wgpu.TextureFormatRGBA8UnormSrgb)
	assert.Equal(t, uint32(8), color.RedSize())
	assert.Equal(t, uint32(8), color.GreenSize())
	assert.Equal(t, uint32(8), color.BlueSize())
	assert.Equal(t, uint32(8), color.AlphaSize())
	assert.Zero(t, color.DepthSize())

	hdr := NewColorbuffer(nil, 1, 1, wgpu.TextureFormatRGBA16Float)
	assert.Equal(t, uint32(16), hdr.AlphaSize())

	ds := NewDepthbuffer(nil, 1, 1, wgpu.TextureFormatDepth24PlusStencil8)
	assert.Equal(t, uint32(24), ds.DepthSize())
	assert.Equal(t, uint32(8), ds.StencilSize())
	assert.Zero(t, ds.RedSize())

	d32 := NewDepthbuffer(nil, 1, 1, wgpu.TextureFormatDepth32Float)
	assert.Equal(t, uint32(32), d32.DepthSize())
	assert.Zero(t, d32.StencilSize())
}

func TestViewWithoutTexture(t *testing.T) {
	rb := NewColorbuffer(nil, 1, 1, wgpu.TextureFormatBGRA8Unorm)
	_, err := rb.CreateView()
	assert.Error(t, err)
	rb.Release()
}
