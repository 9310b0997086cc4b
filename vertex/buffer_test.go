package vertex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_SetData(t *testing.T) {
	factory := NewHostFactory()
	buf := NewBuffer(factory, "vb")
	serial := buf.Serial()

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, buf.SetData(data, UsageDynamic))
	assert.NotEqual(t, serial, buf.Serial())
	assert.Equal(t, uint64(8), buf.Size())
	assert.Nil(t, buf.StaticVertexBuffer(), "dynamic data waits for promotion")

	storage, ok := buf.VertexBuffer().(*HostVertexBuffer)
	require.True(t, ok)
	assert.Equal(t, data, storage.Bytes())

	data[0] = 99
	assert.Equal(t, byte(1), buf.Data()[0], "SetData copies")
}

func TestBuffer_StaticUsage(t *testing.T) {
	buf := NewBuffer(NewHostFactory(), "vb")
	require.NoError(t, buf.SetData(make([]byte, 16), UsageStatic))
	static := buf.StaticVertexBuffer()
	require.NotNil(t, static)

	// an empty cache survives new data
	require.NoError(t, buf.SetData(make([]byte, 16), UsageStatic))
	assert.Same(t, static, buf.StaticVertexBuffer())

	a := Attribute{Enabled: true, Type: TypeUnsignedByte, Size: 4, Buffer: buf}
	require.NoError(t, static.ReserveVertexSpace(a, 4, 0))
	_, err := static.StoreVertexAttributes(a, DefaultCurrentValue(), 0, 4, 0)
	require.NoError(t, err)

	require.NoError(t, buf.SetSubData([]byte{7}, 3))
	assert.NotSame(t, static, buf.StaticVertexBuffer(), "populated cache is replaced")
	assert.Zero(t, buf.StaticVertexBuffer().BufferSize())
	assert.Zero(t, buf.StaticVertexBuffer().Entries())
}

func TestBuffer_SetSubData(t *testing.T) {
	buf := NewBuffer(NewHostFactory(), "vb")
	require.NoError(t, buf.SetData(make([]byte, 8), UsageDynamic))
	serial := buf.Serial()

	require.NoError(t, buf.SetSubData([]byte{1, 2}, 6))
	assert.NotEqual(t, serial, buf.Serial())
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 1, 2}, buf.Data())
	assert.Equal(t, buf.Data(), buf.VertexBuffer().(*HostVertexBuffer).Bytes())

	err := buf.SetSubData([]byte{1, 2}, 7)
	assert.ErrorIs(t, err, ErrSourceOutOfRange)
}

func TestBuffer_PromoteStaticUsage(t *testing.T) {
	buf := NewBuffer(NewHostFactory(), "vb")
	require.NoError(t, buf.SetData(make([]byte, 100), UsageDynamic))

	buf.PromoteStaticUsage(150)
	buf.PromoteStaticUsage(150)
	assert.Nil(t, buf.StaticVertexBuffer(), "exactly three times the size is not enough")
	buf.PromoteStaticUsage(1)
	assert.NotNil(t, buf.StaticVertexBuffer())
}

func TestBuffer_InvalidateResetsUsage(t *testing.T) {
	buf := NewBuffer(NewHostFactory(), "vb")
	require.NoError(t, buf.SetData(make([]byte, 100), UsageDynamic))
	buf.PromoteStaticUsage(250)
	require.NoError(t, buf.SetSubData([]byte{1}, 0))
	buf.PromoteStaticUsage(100)
	assert.Nil(t, buf.StaticVertexBuffer())
}

func TestBuffer_NoDirectBinding(t *testing.T) {
	factory := &HostFactory{}
	buf := NewBuffer(factory, "vb")
	require.NoError(t, buf.SetData(make([]byte, 16), UsageDynamic))
	assert.Nil(t, buf.VertexBuffer())
	assert.Empty(t, factory.Buffers())

	a := Attribute{Enabled: true, Type: TypeFloat, Size: 4, Buffer: buf}
	assert.False(t, DirectStoragePossible(a, DefaultCurrentValue()))
}

func TestDirectStoragePossible(t *testing.T) {
	buf := NewBuffer(NewHostFactory(), "vb")
	require.NoError(t, buf.SetData(make([]byte, 64), UsageDynamic))
	cv := DefaultCurrentValue()

	a := Attribute{Enabled: true, Type: TypeFloat, Size: 3, Buffer: buf}
	assert.True(t, DirectStoragePossible(a, cv))

	a.Offset = 2
	assert.False(t, DirectStoragePossible(a, cv), "misaligned offset")

	a.Offset, a.Stride = 0, 6
	assert.False(t, DirectStoragePossible(a, cv), "misaligned stride")

	a.Stride = MaxVertexStride + 4
	assert.False(t, DirectStoragePossible(a, cv), "stride over the device limit")

	n := Attribute{Enabled: true, Type: TypeShort, Size: 2, Normalized: true, Buffer: buf}
	assert.False(t, DirectStoragePossible(n, cv), "needs conversion")

	c := Attribute{Enabled: true, Type: TypeFloat, Size: 4, Pointer: make([]byte, 16)}
	assert.False(t, DirectStoragePossible(c, cv), "client memory is never bound")
}
