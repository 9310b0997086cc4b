package vertexshim

import (
	"fmt"

	"github.com/gekko3d/vertexshim/vertex"
)

// Program reports which attribute slots the bound program consumes.
type Program interface {
	AttributeActive(index int) bool
}

// VertexState supplies the attribute descriptors of the bound vertex array
// and the constants substituted for disabled slots.
type VertexState interface {
	VertexAttributes() []vertex.Attribute
	CurrentValue(index int) vertex.CurrentValue
}

// ProgramAttributes is a Program backed by a bitmask of consumed slots.
type ProgramAttributes uint32

func NewProgramAttributes(slots ...int) ProgramAttributes {
	var p ProgramAttributes
	for _, s := range slots {
		p |= 1 << uint(s)
	}
	return p
}

func (p ProgramAttributes) AttributeActive(index int) bool {
	if index < 0 || index >= 32 {
		return false
	}
	return p&(1<<uint(index)) != 0
}

// VertexArray is a VertexState with GL-style setters.
type VertexArray struct {
	attributes    []vertex.Attribute
	currentValues []vertex.CurrentValue
}

func NewVertexArray(slots int) *VertexArray {
	va := &VertexArray{
		attributes:    make([]vertex.Attribute, slots),
		currentValues: make([]vertex.CurrentValue, slots),
	}
	for i := range va.attributes {
		va.attributes[i] = vertex.DefaultAttribute()
		va.currentValues[i] = vertex.DefaultCurrentValue()
	}
	return va
}

func (va *VertexArray) check(index int) {
	if index < 0 || index >= len(va.attributes) {
		panic(fmt.Sprintf("vertex attribute index %d out of range [0, %d)", index, len(va.attributes)))
	}
}

func (va *VertexArray) VertexAttributes() []vertex.Attribute {
	return va.attributes
}

func (va *VertexArray) CurrentValue(index int) vertex.CurrentValue {
	va.check(index)
	return va.currentValues[index]
}

// Attribute returns a copy of the descriptor at index.
func (va *VertexArray) Attribute(index int) vertex.Attribute {
	va.check(index)
	return va.attributes[index]
}

// SetAttribPointer sources a slot from client memory.
func (va *VertexArray) SetAttribPointer(index int, size uint32, typ vertex.ComponentType, normalized bool, stride uint32, data []byte) {
	va.check(index)
	a := &va.attributes[index]
	a.Size, a.Type, a.Normalized, a.PureInteger = size, typ, normalized, false
	a.Stride, a.Offset = stride, 0
	a.Buffer, a.Pointer = nil, data
}

// SetAttribBuffer sources a slot from a buffer at the given byte offset.
func (va *VertexArray) SetAttribBuffer(index int, size uint32, typ vertex.ComponentType, normalized bool, stride uint32, buf *vertex.Buffer, offset uint32) {
	va.check(index)
	a := &va.attributes[index]
	a.Size, a.Type, a.Normalized, a.PureInteger = size, typ, normalized, false
	a.Stride, a.Offset = stride, offset
	a.Buffer, a.Pointer = buf, nil
}

// SetAttribIntegerBuffer is SetAttribBuffer for pure integer inputs.
func (va *VertexArray) SetAttribIntegerBuffer(index int, size uint32, typ vertex.ComponentType, stride uint32, buf *vertex.Buffer, offset uint32) {
	va.SetAttribBuffer(index, size, typ, false, stride, buf, offset)
	va.attributes[index].PureInteger = true
}

func (va *VertexArray) EnableAttrib(index int) {
	va.check(index)
	va.attributes[index].Enabled = true
}

func (va *VertexArray) DisableAttrib(index int) {
	va.check(index)
	va.attributes[index].Enabled = false
}

func (va *VertexArray) SetAttribDivisor(index int, divisor uint32) {
	va.check(index)
	va.attributes[index].Divisor = divisor
}

func (va *VertexArray) SetCurrentValue(index int, cv vertex.CurrentValue) {
	va.check(index)
	va.currentValues[index] = cv
}
