package vertex

import (
	"fmt"
	"math"
)

// ComponentType is the storage type of a single attribute component.
type ComponentType uint8

const (
	TypeUndefined ComponentType = iota
	TypeByte
	TypeUnsignedByte
	TypeShort
	TypeUnsignedShort
	TypeInt
	TypeUnsignedInt
	TypeFixed // 16.16 signed fixed point
	TypeFloat
)

// Size returns the number of bytes of one component.
func (t ComponentType) Size() uint32 {
	switch t {
	case TypeByte, TypeUnsignedByte:
		return 1
	case TypeShort, TypeUnsignedShort:
		return 2
	case TypeInt, TypeUnsignedInt, TypeFixed, TypeFloat:
		return 4
	default:
		return 0
	}
}

func (t ComponentType) signed() bool {
	return t == TypeByte || t == TypeShort || t == TypeInt || t == TypeFixed
}

func (t ComponentType) String() string {
	switch t {
	case TypeByte:
		return "byte"
	case TypeUnsignedByte:
		return "ubyte"
	case TypeShort:
		return "short"
	case TypeUnsignedShort:
		return "ushort"
	case TypeInt:
		return "int"
	case TypeUnsignedInt:
		return "uint"
	case TypeFixed:
		return "fixed"
	case TypeFloat:
		return "float"
	default:
		return fmt.Sprintf("ComponentType(%d)", uint8(t))
	}
}

// Attribute describes one vertex input slot as specified by the client.
//
// Exactly one of Pointer or Buffer supplies the data of an enabled attribute.
// Offset is a byte offset into Buffer; client memory starts at Pointer[0].
type Attribute struct {
	Enabled     bool
	Type        ComponentType
	Size        uint32 // component count, 1..4
	Normalized  bool
	PureInteger bool
	Stride      uint32 // 0 means tightly packed
	Offset      uint32

	Pointer []byte
	Buffer  *Buffer

	Divisor uint32
}

// DefaultAttribute is the state of a slot nobody touched: disabled, four floats.
func DefaultAttribute() Attribute {
	return Attribute{Type: TypeFloat, Size: 4}
}

// TypeSize returns the tightly packed size of one element in bytes.
func TypeSize(a Attribute) uint32 {
	return a.Type.Size() * a.Size
}

// ComputeStride returns the effective stride of the attribute.
func ComputeStride(a Attribute) uint32 {
	if a.Stride != 0 {
		return a.Stride
	}
	return TypeSize(a)
}

// ElementsInBuffer returns how many whole elements of a are addressable in a
// buffer of the given size, starting from offset % stride. The result is not
// positive when the buffer holds no complete element.
func ElementsInBuffer(a Attribute, size uint64) int64 {
	if size > math.MaxInt32 {
		size = math.MaxInt32
	}
	stride := int64(ComputeStride(a))
	if stride == 0 {
		return 0
	}
	bias := int64(a.Offset) % stride
	return (int64(size) - bias + (stride - int64(TypeSize(a)))) / stride
}

// StreamingElementCount returns the number of elements a draw reads from a.
// Instanced attributes advance once every Divisor instances, rounding up.
func StreamingElementCount(a Attribute, vertexCount, instanceCount int) int {
	if instanceCount > 0 && a.Divisor > 0 {
		d := int(a.Divisor)
		return (instanceCount + d - 1) / d
	}
	return vertexCount
}

// signatureMatches reports whether b would be interpreted identically to a
// when converted from the same buffer.
func signatureMatches(a, b Attribute) bool {
	sa, sb := ComputeStride(a), ComputeStride(b)
	if sa == 0 || sb == 0 {
		return false
	}
	return a.Type == b.Type &&
		a.Size == b.Size &&
		a.Normalized == b.Normalized &&
		a.PureInteger == b.PureInteger &&
		sa == sb &&
		a.Offset%sa == b.Offset%sb
}
