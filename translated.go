package vertexshim

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/vertexshim/vertex"
)

// TranslatedAttribute tells draw submission where one slot's data lives.
// It is valid only for the draw it was prepared for.
type TranslatedAttribute struct {
	Active    bool
	Attribute *vertex.Attribute

	CurrentValueType vertex.CurrentValueType

	// Storage is the source buffer when it is bound directly.
	Storage      *vertex.Buffer
	VertexBuffer vertex.VertexBuffer
	Serial       vertex.Serial

	Format  wgpu.VertexFormat
	Stride  uint32
	Offset  uint64
	Divisor uint32
}

// Direct reports whether the source buffer is bound without a copy.
func (t TranslatedAttribute) Direct() bool {
	return t.Storage != nil
}

// ErrUnsupportedDivisor is returned for instanced attributes that advance
// less often than once per instance; vertex buffer layouts step per instance.
var ErrUnsupportedDivisor = errors.New("vertexshim: vertex buffer layouts support divisors of 0 or 1 only")

// Layout describes the attribute as its own vertex buffer slot bound to the
// given shader location.
func (t TranslatedAttribute) Layout(location uint32) (wgpu.VertexBufferLayout, error) {
	step := wgpu.VertexStepModeVertex
	switch {
	case t.Divisor == 1:
		step = wgpu.VertexStepModeInstance
	case t.Divisor > 1:
		return wgpu.VertexBufferLayout{}, fmt.Errorf("%w: location %d has divisor %d", ErrUnsupportedDivisor, location, t.Divisor)
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(t.Stride),
		StepMode:    step,
		Attributes: []wgpu.VertexAttribute{{
			Format:         t.Format,
			Offset:         0,
			ShaderLocation: location,
		}},
	}, nil
}
