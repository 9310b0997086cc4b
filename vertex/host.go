package vertex

import (
	"fmt"
)

// HostFactory creates vertex buffers in CPU memory.
type HostFactory struct {
	// MaxBufferSize limits a single allocation; zero means unlimited.
	MaxBufferSize uint64
	DirectBinding bool

	buffers []*HostVertexBuffer
}

func NewHostFactory() *HostFactory {
	return &HostFactory{DirectBinding: true}
}

func (f *HostFactory) CreateVertexBuffer(label string) VertexBuffer {
	vb := &HostVertexBuffer{label: label, serial: NewSerial(), maxSize: f.MaxBufferSize}
	f.buffers = append(f.buffers, vb)
	return vb
}

func (f *HostFactory) SupportsDirectBinding() bool { return f.DirectBinding }

// Buffers returns every buffer created so far, in creation order.
func (f *HostFactory) Buffers() []*HostVertexBuffer { return f.buffers }

// HostStats counts operations performed on a HostVertexBuffer.
type HostStats struct {
	Stores   int
	Maps     int
	Unmaps   int
	Discards int
	Resizes  int
}

// HostVertexBuffer is a VertexBuffer over a byte slice.
type HostVertexBuffer struct {
	label    string
	serial   Serial
	data     []byte
	maxSize  uint64
	mapped   bool
	released bool
	stats    HostStats
}

func (b *HostVertexBuffer) Label() string  { return b.label }
func (b *HostVertexBuffer) Serial() Serial { return b.serial }
func (b *HostVertexBuffer) Size() uint64   { return uint64(len(b.data)) }
func (b *HostVertexBuffer) Mapped() bool   { return b.mapped }
func (b *HostVertexBuffer) Released() bool { return b.released }
func (b *HostVertexBuffer) Stats() HostStats {
	return b.stats
}

// Bytes exposes the buffer content.
func (b *HostVertexBuffer) Bytes() []byte { return b.data }

func (b *HostVertexBuffer) SetSize(size uint64) error {
	if b.maxSize != 0 && size > b.maxSize {
		return fmt.Errorf("%w: %s: %d bytes exceeds limit %d", ErrOutOfMemory, b.label, size, b.maxSize)
	}
	b.data = make([]byte, size)
	b.stats.Resizes++
	return nil
}

func (b *HostVertexBuffer) Discard() error {
	b.data = make([]byte, len(b.data))
	b.stats.Discards++
	return nil
}

func (b *HostVertexBuffer) Write(offset uint64, data []byte) error {
	end, err := AddOffsets(offset, uint64(len(data)))
	if err != nil {
		return err
	}
	if end > uint64(len(b.data)) {
		return fmt.Errorf("%w: %s: write [%d,%d) past size %d", ErrOutOfMemory, b.label, offset, end, len(b.data))
	}
	copy(b.data[offset:], data)
	return nil
}

func (b *HostVertexBuffer) SpaceRequired(a Attribute, count, instances int) (uint64, error) {
	return spaceRequired(a, count, instances)
}

func (b *HostVertexBuffer) StoreVertexAttributes(a Attribute, cv CurrentValue, start, count, instances int, offset uint64) error {
	space, err := spaceRequired(a, count, instances)
	if err != nil {
		return err
	}
	end, err := AddOffsets(offset, space)
	if err != nil {
		return err
	}
	if end > uint64(len(b.data)) {
		return fmt.Errorf("%w: %s: store [%d,%d) past size %d", ErrOutOfMemory, b.label, offset, end, len(b.data))
	}
	if !b.mapped {
		b.mapped = true
		b.stats.Maps++
	}
	if err := encodeVertexAttributes(b.data[offset:end], a, cv, start, count, instances); err != nil {
		return err
	}
	b.stats.Stores++
	return nil
}

func (b *HostVertexBuffer) HintUnmap() {
	if b.mapped {
		b.mapped = false
		b.stats.Unmaps++
	}
}

func (b *HostVertexBuffer) Release() {
	b.data = nil
	b.mapped = false
	b.released = true
}
