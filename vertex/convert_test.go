package vertex

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFloats(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func decodeInts(b []byte) []int32 {
	out := make([]int32, len(b)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func TestOutputFormatFor(t *testing.T) {
	tests := []struct {
		name       string
		attr       Attribute
		cv         CurrentValueType
		format     wgpu.VertexFormat
		conversion bool
	}{
		{"float3", Attribute{Enabled: true, Type: TypeFloat, Size: 3}, CurrentValueFloat, wgpu.VertexFormatFloat32x3, false},
		{"ubyte4 normalized", Attribute{Enabled: true, Type: TypeUnsignedByte, Size: 4, Normalized: true}, CurrentValueFloat, wgpu.VertexFormatFloat32x4, true},
		{"fixed2", Attribute{Enabled: true, Type: TypeFixed, Size: 2}, CurrentValueFloat, wgpu.VertexFormatFloat32x2, true},
		{"int2 pure", Attribute{Enabled: true, Type: TypeInt, Size: 2, PureInteger: true}, CurrentValueFloat, wgpu.VertexFormatSint32x2, false},
		{"ushort1 pure", Attribute{Enabled: true, Type: TypeUnsignedShort, Size: 1, PureInteger: true}, CurrentValueFloat, wgpu.VertexFormatUint32, true},
		{"disabled int", Attribute{Type: TypeFloat, Size: 2}, CurrentValueInt, wgpu.VertexFormatSint32x4, false},
		{"disabled uint", Attribute{Type: TypeFloat, Size: 2}, CurrentValueUnsignedInt, wgpu.VertexFormatUint32x4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			of := OutputFormatFor(tt.attr, tt.cv)
			assert.Equal(t, tt.format, of.Format)
			assert.Equal(t, tt.conversion, of.Conversion)
		})
	}
}

func TestConvertElements_Normalized(t *testing.T) {
	src := []byte{0, 255, 0, 0, 0x00, 0x80, 0xff, 0x7f}
	a := Attribute{Enabled: true, Type: TypeUnsignedByte, Size: 2, Normalized: true}
	dst := make([]byte, 8)
	require.NoError(t, convertElements(dst, src, a, OutputFormatFor(a, CurrentValueFloat), 1))
	assert.Equal(t, []float32{0, 1}, decodeFloats(dst))

	s := Attribute{Enabled: true, Type: TypeShort, Size: 2, Normalized: true}
	require.NoError(t, convertElements(dst, src[4:], s, OutputFormatFor(s, CurrentValueFloat), 1))
	assert.Equal(t, []float32{-1, 1}, decodeFloats(dst), "most negative short clamps to -1")

	u := Attribute{Enabled: true, Type: TypeUnsignedShort, Size: 1, Normalized: true}
	one := make([]byte, 4)
	require.NoError(t, convertElements(one, []byte{0xff, 0xff}, u, OutputFormatFor(u, CurrentValueFloat), 1))
	assert.Equal(t, []float32{1}, decodeFloats(one))
}

func TestConvertElements_FixedAndInteger(t *testing.T) {
	src := binary.LittleEndian.AppendUint32(nil, 0x00018000)
	a := Attribute{Enabled: true, Type: TypeFixed, Size: 1}
	dst := make([]byte, 4)
	require.NoError(t, convertElements(dst, src, a, OutputFormatFor(a, CurrentValueFloat), 1))
	assert.Equal(t, []float32{1.5}, decodeFloats(dst))

	i := Attribute{Enabled: true, Type: TypeInt, Size: 1}
	require.NoError(t, convertElements(dst, binary.LittleEndian.AppendUint32(nil, 7), i, OutputFormatFor(i, CurrentValueFloat), 1))
	assert.Equal(t, []float32{7}, decodeFloats(dst))

	p := Attribute{Enabled: true, Type: TypeByte, Size: 2, PureInteger: true}
	two := make([]byte, 8)
	require.NoError(t, convertElements(two, []byte{0xfd, 5}, p, OutputFormatFor(p, CurrentValueFloat), 1))
	assert.Equal(t, []int32{-3, 5}, decodeInts(two))
}

func TestConvertElements_Stride(t *testing.T) {
	// two ubyte elements 4 bytes apart, padding ignored
	src := []byte{1, 2, 99, 99, 3, 4}
	a := Attribute{Enabled: true, Type: TypeUnsignedByte, Size: 2, Stride: 4}
	dst := make([]byte, 16)
	require.NoError(t, convertElements(dst, src, a, OutputFormatFor(a, CurrentValueFloat), 2))
	assert.Equal(t, []float32{1, 2, 3, 4}, decodeFloats(dst))

	err := convertElements(dst, src[:5], a, OutputFormatFor(a, CurrentValueFloat), 2)
	assert.ErrorIs(t, err, ErrSourceOutOfRange)
}

func TestEncodeVertexAttributes_Disabled(t *testing.T) {
	cv := IntValue([4]int32{1, -2, 3, -4})
	dst := make([]byte, 32)
	require.NoError(t, encodeVertexAttributes(dst, DefaultAttribute(), cv, 0, 2, 0))
	assert.Equal(t, []int32{1, -2, 3, -4, 1, -2, 3, -4}, decodeInts(dst))
}

func TestCurrentValue_Equal(t *testing.T) {
	nan := float32(math.NaN())
	a := FloatValue([4]float32{nan, 0, 0, 1})
	assert.True(t, a.Equal(a))
	assert.False(t, a.Equal(FloatValue([4]float32{0, 0, 0, 1})))
	assert.False(t, UintValue([4]uint32{1, 2, 3, 4}).Equal(IntValue([4]int32{1, 2, 3, 4})), "type is part of the value")
	assert.Equal(t, float32(1), DefaultCurrentValue().Float()[3])
}
