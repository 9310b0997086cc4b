package vertex

import (
	"fmt"
)

// Destination is a vertex buffer that translated attributes are written to.
type Destination interface {
	VertexBuffer() VertexBuffer
	Serial() Serial
	BufferSize() uint64

	DirectStoragePossible(a Attribute, cv CurrentValue) bool
	ReserveVertexSpace(a Attribute, count, instances int) error
	StoreVertexAttributes(a Attribute, cv CurrentValue, start, count, instances int) (uint64, error)
	ClearReservation()
}

// DirectStoragePossible reports whether a can be bound straight from its
// buffer: no conversion, 4 byte aligned stride and offset, stride within limits.
func DirectStoragePossible(a Attribute, cv CurrentValue) bool {
	if !a.Enabled || a.Buffer == nil || !a.Buffer.SupportsDirectBinding() || a.Buffer.VertexBuffer() == nil {
		return false
	}
	of := OutputFormatFor(a, cv.Type)
	if of.Conversion {
		return false
	}
	stride := ComputeStride(a)
	alignment := min(of.ElementSize(), 4)
	return stride%alignment == 0 && a.Offset%alignment == 0 && stride <= MaxVertexStride
}

type destination struct {
	vb            VertexBuffer
	writePosition uint64
	reservedSpace uint64
}

func (d *destination) VertexBuffer() VertexBuffer { return d.vb }
func (d *destination) Serial() Serial             { return d.vb.Serial() }
func (d *destination) BufferSize() uint64         { return d.vb.Size() }

func (d *destination) DirectStoragePossible(a Attribute, cv CurrentValue) bool {
	return DirectStoragePossible(a, cv)
}

func (d *destination) alignedSpace(a Attribute, count, instances int) (uint64, error) {
	space, err := d.vb.SpaceRequired(a, count, instances)
	if err != nil {
		return 0, err
	}
	return roundUp16(space)
}

func (d *destination) ReserveVertexSpace(a Attribute, count, instances int) error {
	aligned, err := d.alignedSpace(a, count, instances)
	if err != nil {
		return err
	}
	total, err := AddOffsets(d.reservedSpace, aligned)
	if err != nil {
		return err
	}
	d.reservedSpace = total
	return nil
}

// ClearReservation drops space reserved for stores that will not happen.
func (d *destination) ClearReservation() { d.reservedSpace = 0 }

// store makes room for everything reserved so far, then writes at the
// current write position.
func (d *destination) store(a Attribute, cv CurrentValue, start, count, instances int, reserve func(uint64) error) (uint64, error) {
	aligned, err := d.alignedSpace(a, count, instances)
	if err != nil {
		return 0, err
	}
	reserved := d.reservedSpace
	d.reservedSpace = 0
	if _, err := AddOffsets(reserved, aligned); err != nil {
		return 0, err
	}
	if err := reserve(reserved); err != nil {
		return 0, err
	}

	if err := d.vb.StoreVertexAttributes(a, cv, start, count, instances, d.writePosition); err != nil {
		return 0, err
	}
	offset := d.writePosition
	next, err := AddOffsets(d.writePosition, aligned)
	if err != nil {
		return 0, err
	}
	d.writePosition = next
	return offset, nil
}

// StreamingVertexBuffer is rewritten every draw. It grows when a reservation
// exceeds its capacity and wraps to the start when the remainder is too small.
type StreamingVertexBuffer struct {
	destination
}

func NewStreamingVertexBuffer(factory Factory, label string, initialSize uint64) (*StreamingVertexBuffer, error) {
	vb := factory.CreateVertexBuffer(label)
	if err := vb.SetSize(initialSize); err != nil {
		vb.Release()
		return nil, fmt.Errorf("failed to allocate streaming vertex buffer: %w", err)
	}
	return &StreamingVertexBuffer{destination{vb: vb}}, nil
}

func (s *StreamingVertexBuffer) reserveSpace(size uint64) error {
	cur := s.vb.Size()
	if size > cur {
		grow := cur + cur/2
		if grow < size || grow > maxOffset {
			grow = size
		}
		if err := s.vb.SetSize(grow); err != nil {
			return err
		}
		s.writePosition = 0
		return nil
	}
	end, err := AddOffsets(s.writePosition, size)
	if err != nil || end > cur {
		if err := s.vb.Discard(); err != nil {
			return err
		}
		s.writePosition = 0
	}
	return nil
}

func (s *StreamingVertexBuffer) StoreVertexAttributes(a Attribute, cv CurrentValue, start, count, instances int) (uint64, error) {
	return s.store(a, cv, start, count, instances, s.reserveSpace)
}

func (s *StreamingVertexBuffer) Release() {
	s.vb.Release()
}

type staticEntry struct {
	attrib       Attribute
	source       Serial
	streamOffset uint64
}

// StaticVertexBuffer is the persistent conversion cache of one Buffer. It is
// sized once and remembers where each attribute signature was converted to.
type StaticVertexBuffer struct {
	destination
	cache []staticEntry
}

func NewStaticVertexBuffer(factory Factory, label string) *StaticVertexBuffer {
	return &StaticVertexBuffer{destination: destination{vb: factory.CreateVertexBuffer(label)}}
}

// LookupAttribute returns the offset a matching signature was stored at.
func (s *StaticVertexBuffer) LookupAttribute(a Attribute) (uint64, bool) {
	for _, e := range s.cache {
		if a.Buffer != nil && e.source != a.Buffer.Serial() {
			continue
		}
		if signatureMatches(e.attrib, a) {
			return e.streamOffset, true
		}
	}
	return 0, false
}

// Entries returns the number of cached signatures.
func (s *StaticVertexBuffer) Entries() int { return len(s.cache) }

func (s *StaticVertexBuffer) reserveSpace(size uint64) error {
	cur := s.vb.Size()
	switch {
	case cur == 0:
		return s.vb.SetSize(size)
	case cur >= size:
		return nil
	default:
		return fmt.Errorf("%w: have %d bytes, need %d", ErrStaticResize, cur, size)
	}
}

func (s *StaticVertexBuffer) StoreVertexAttributes(a Attribute, cv CurrentValue, start, count, instances int) (uint64, error) {
	offset, err := s.store(a, cv, start, count, instances, s.reserveSpace)
	if err != nil {
		return 0, err
	}
	e := staticEntry{attrib: a, streamOffset: offset}
	e.attrib.Pointer, e.attrib.Buffer = nil, nil
	if a.Buffer != nil {
		e.source = a.Buffer.Serial()
	}
	s.cache = append(s.cache, e)
	return offset, nil
}

func (s *StaticVertexBuffer) Release() {
	s.cache = nil
	s.vb.Release()
}
