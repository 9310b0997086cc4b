package vertex

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CurrentValueType tags the lanes of a CurrentValue.
type CurrentValueType uint8

const (
	CurrentValueFloat CurrentValueType = iota
	CurrentValueInt
	CurrentValueUnsignedInt
)

func (t CurrentValueType) String() string {
	switch t {
	case CurrentValueInt:
		return "int"
	case CurrentValueUnsignedInt:
		return "uint"
	default:
		return "float"
	}
}

// CurrentValue is the constant substituted for a disabled attribute.
// Lanes hold the raw 32-bit patterns so that comparison is exact.
type CurrentValue struct {
	Type  CurrentValueType
	Lanes [4]uint32
}

// DefaultCurrentValue is (0, 0, 0, 1) as floats.
func DefaultCurrentValue() CurrentValue {
	return FloatValue(mgl32.Vec4{0, 0, 0, 1})
}

func FloatValue(v mgl32.Vec4) CurrentValue {
	cv := CurrentValue{Type: CurrentValueFloat}
	for i, f := range v {
		cv.Lanes[i] = math.Float32bits(f)
	}
	return cv
}

func IntValue(v [4]int32) CurrentValue {
	cv := CurrentValue{Type: CurrentValueInt}
	for i, n := range v {
		cv.Lanes[i] = uint32(n)
	}
	return cv
}

func UintValue(v [4]uint32) CurrentValue {
	return CurrentValue{Type: CurrentValueUnsignedInt, Lanes: v}
}

// Float returns the lanes reinterpreted as floats.
func (cv CurrentValue) Float() mgl32.Vec4 {
	var v mgl32.Vec4
	for i, l := range cv.Lanes {
		v[i] = math.Float32frombits(l)
	}
	return v
}

func (cv CurrentValue) Int() [4]int32 {
	var v [4]int32
	for i, l := range cv.Lanes {
		v[i] = int32(l)
	}
	return v
}

func (cv CurrentValue) Uint() [4]uint32 {
	return cv.Lanes
}

// Equal compares type and bit patterns; NaN equals an identical NaN.
func (cv CurrentValue) Equal(other CurrentValue) bool {
	return cv.Type == other.Type && cv.Lanes == other.Lanes
}

func (cv CurrentValue) bytes() []byte {
	out := make([]byte, 16)
	for i, l := range cv.Lanes {
		binary.LittleEndian.PutUint32(out[i*4:], l)
	}
	return out
}
