package vertex

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

var (
	ErrOutOfMemory      = errors.New("vertex: out of memory")
	ErrSourceOutOfRange = errors.New("vertex: source data out of range")
	ErrStaticResize     = errors.New("vertex: static vertex buffers can't be resized")
)

// Serial identifies a buffer's current storage. It changes whenever the
// content a consumer may have bound becomes different.
type Serial uuid.UUID

func NewSerial() Serial { return Serial(uuid.New()) }

func (s Serial) String() string { return uuid.UUID(s).String() }

func (s Serial) IsZero() bool { return s == Serial(uuid.Nil) }

// maxOffset bounds every byte offset handed to the device.
const maxOffset = math.MaxUint32

// AddOffsets sums terms, failing when any partial sum leaves the offset range.
func AddOffsets(terms ...uint64) (uint64, error) {
	var sum uint64
	for _, t := range terms {
		if t > maxOffset || sum > maxOffset-t {
			return 0, fmt.Errorf("%w: offset overflow", ErrOutOfMemory)
		}
		sum += t
	}
	return sum, nil
}

func MulOffset(a, b uint64) (uint64, error) {
	if a != 0 && b > maxOffset/a {
		return 0, fmt.Errorf("%w: size overflow (%d x %d)", ErrOutOfMemory, a, b)
	}
	return a * b, nil
}

func roundUp16(n uint64) (uint64, error) {
	r, err := AddOffsets(n, 15)
	if err != nil {
		return 0, err
	}
	return r &^ 15, nil
}

// VertexBuffer is device storage for converted vertex data.
type VertexBuffer interface {
	Serial() Serial
	Size() uint64

	// SetSize reallocates the storage; previous content is lost.
	SetSize(size uint64) error
	// Discard orphans the current storage, keeping the size.
	Discard() error
	// Write uploads raw bytes, used for buffers bound without conversion.
	Write(offset uint64, data []byte) error

	SpaceRequired(a Attribute, count, instances int) (uint64, error)
	// StoreVertexAttributes converts elements of a into the buffer at offset
	// and leaves the buffer mapped until HintUnmap.
	StoreVertexAttributes(a Attribute, cv CurrentValue, start, count, instances int, offset uint64) error
	HintUnmap()

	Release()
}

// Factory creates device vertex buffers.
type Factory interface {
	CreateVertexBuffer(label string) VertexBuffer
	// SupportsDirectBinding reports whether application buffers may be bound
	// as vertex buffers without a copy.
	SupportsDirectBinding() bool
}

func elementCount(a Attribute, count, instances int) int {
	if instances == 0 || a.Divisor == 0 {
		return count
	}
	return StreamingElementCount(a, count, instances)
}

func spaceRequired(a Attribute, count, instances int) (uint64, error) {
	n := elementCount(a, count, instances)
	if n < 0 {
		return 0, fmt.Errorf("%w: negative element count %d", ErrOutOfMemory, n)
	}
	es := OutputFormatFor(a, CurrentValueFloat).ElementSize()
	return MulOffset(uint64(es), uint64(n))
}

// encodeVertexAttributes fills dst with the output elements of a. Disabled
// attributes repeat the current value.
func encodeVertexAttributes(dst []byte, a Attribute, cv CurrentValue, start, count, instances int) error {
	n := elementCount(a, count, instances)
	if !a.Enabled {
		raw := cv.bytes()
		if n*len(raw) > len(dst) {
			return fmt.Errorf("%w: current value does not fit", ErrOutOfMemory)
		}
		for i := 0; i < n; i++ {
			copy(dst[i*len(raw):], raw)
		}
		return nil
	}
	src, err := sourceData(a, start)
	if err != nil {
		return err
	}
	return convertElements(dst, src, a, OutputFormatFor(a, cv.Type), n)
}
