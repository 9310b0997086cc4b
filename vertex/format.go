package vertex

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// MaxVertexStride is the largest array stride a vertex buffer layout accepts.
const MaxVertexStride = 2048

// OutputFormat is the layout an attribute takes in a destination buffer.
// Every output component is 32 bits wide.
type OutputFormat struct {
	Format     wgpu.VertexFormat
	Type       ComponentType // TypeFloat, TypeInt or TypeUnsignedInt
	Components uint32

	// Conversion is set when the source bytes cannot be copied verbatim.
	Conversion bool
}

// ElementSize returns the size of one output element in bytes.
func (f OutputFormat) ElementSize() uint32 {
	return 4 * f.Components
}

// OutputFormatFor selects the destination layout of a. Disabled attributes
// are sourced from the current value and always take four components.
func OutputFormatFor(a Attribute, cvType CurrentValueType) OutputFormat {
	if !a.Enabled {
		t := TypeFloat
		switch cvType {
		case CurrentValueInt:
			t = TypeInt
		case CurrentValueUnsignedInt:
			t = TypeUnsignedInt
		}
		return OutputFormat{Format: vertexFormat(t, 4), Type: t, Components: 4}
	}

	n := a.Size
	if n < 1 || n > 4 {
		return OutputFormat{Format: wgpu.VertexFormatUndefined, Components: n, Conversion: true}
	}

	if a.PureInteger && a.Type != TypeFloat && a.Type != TypeFixed {
		t := TypeUnsignedInt
		if a.Type.signed() {
			t = TypeInt
		}
		return OutputFormat{
			Format:     vertexFormat(t, n),
			Type:       t,
			Components: n,
			Conversion: a.Type.Size() != 4,
		}
	}

	return OutputFormat{
		Format:     vertexFormat(TypeFloat, n),
		Type:       TypeFloat,
		Components: n,
		Conversion: a.Type != TypeFloat,
	}
}

func vertexFormat(t ComponentType, n uint32) wgpu.VertexFormat {
	switch t {
	case TypeFloat:
		switch n {
		case 1:
			return wgpu.VertexFormatFloat32
		case 2:
			return wgpu.VertexFormatFloat32x2
		case 3:
			return wgpu.VertexFormatFloat32x3
		case 4:
			return wgpu.VertexFormatFloat32x4
		}
	case TypeInt:
		switch n {
		case 1:
			return wgpu.VertexFormatSint32
		case 2:
			return wgpu.VertexFormatSint32x2
		case 3:
			return wgpu.VertexFormatSint32x3
		case 4:
			return wgpu.VertexFormatSint32x4
		}
	case TypeUnsignedInt:
		switch n {
		case 1:
			return wgpu.VertexFormatUint32
		case 2:
			return wgpu.VertexFormatUint32x2
		case 3:
			return wgpu.VertexFormatUint32x3
		case 4:
			return wgpu.VertexFormatUint32x4
		}
	}
	return wgpu.VertexFormatUndefined
}
