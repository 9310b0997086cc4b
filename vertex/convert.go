package vertex

import (
	"encoding/binary"
	"fmt"
	"math"
)

// sourceData returns the client or buffer bytes of a beginning at element start.
// start may be negative for buffer sources as long as the resulting position
// stays inside the buffer.
func sourceData(a Attribute, start int) ([]byte, error) {
	var data []byte
	pos := int64(ComputeStride(a)) * int64(start)
	if a.Buffer != nil {
		data = a.Buffer.Data()
		pos += int64(a.Offset)
	} else {
		data = a.Pointer
	}
	if pos < 0 || pos > int64(len(data)) {
		return nil, fmt.Errorf("%w: element %d starts at byte %d of %d", ErrSourceOutOfRange, start, pos, len(data))
	}
	return data[pos:], nil
}

// convertElements writes count elements of a, read from src, into dst using
// the output layout of.
func convertElements(dst, src []byte, a Attribute, of OutputFormat, count int) error {
	if count <= 0 {
		return nil
	}
	stride := int(ComputeStride(a))
	ts := int(TypeSize(a))
	es := int(of.ElementSize())
	if need := (count-1)*stride + ts; need > len(src) {
		return fmt.Errorf("%w: %d elements need %d bytes, source holds %d", ErrSourceOutOfRange, count, need, len(src))
	}
	if count*es > len(dst) {
		return fmt.Errorf("%w: %d elements need %d bytes, destination holds %d", ErrOutOfMemory, count, count*es, len(dst))
	}

	cs := int(a.Type.Size())
	for i := 0; i < count; i++ {
		in := src[i*stride : i*stride+ts]
		out := dst[i*es : (i+1)*es]
		if !of.Conversion {
			copy(out, in)
			continue
		}
		for c := 0; c < int(of.Components); c++ {
			comp := in[c*cs : (c+1)*cs]
			var bits uint32
			switch of.Type {
			case TypeFloat:
				bits = math.Float32bits(componentFloat(comp, a.Type, a.Normalized))
			case TypeInt:
				bits = uint32(int32(componentInt(comp, a.Type)))
			case TypeUnsignedInt:
				bits = uint32(componentInt(comp, a.Type))
			}
			binary.LittleEndian.PutUint32(out[c*4:], bits)
		}
	}
	return nil
}

func componentInt(b []byte, t ComponentType) int64 {
	switch t {
	case TypeByte:
		return int64(int8(b[0]))
	case TypeUnsignedByte:
		return int64(b[0])
	case TypeShort:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case TypeUnsignedShort:
		return int64(binary.LittleEndian.Uint16(b))
	case TypeInt, TypeFixed:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	case TypeUnsignedInt:
		return int64(binary.LittleEndian.Uint32(b))
	case TypeFloat:
		return int64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
	return 0
}

func componentFloat(b []byte, t ComponentType, normalized bool) float32 {
	switch t {
	case TypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case TypeFixed:
		return float32(float64(componentInt(b, t)) / 65536.0)
	}
	v := float64(componentInt(b, t))
	if !normalized {
		return float32(v)
	}
	bitsN := float64(t.Size() * 8)
	if t.signed() {
		return float32(math.Max(v/(math.Exp2(bitsN-1)-1), -1))
	}
	return float32(v / (math.Exp2(bitsN) - 1))
}
