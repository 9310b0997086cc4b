package vertex

import (
	"fmt"
)

// Usage is the client's hint of how often a buffer's content changes.
type Usage uint8

const (
	UsageStatic Usage = iota
	UsageDynamic
	UsageStream
)

func (u Usage) String() string {
	switch u {
	case UsageStatic:
		return "static"
	case UsageDynamic:
		return "dynamic"
	case UsageStream:
		return "stream"
	default:
		return fmt.Sprintf("Usage(%d)", uint8(u))
	}
}

// staticPromotionFactor is how many times its own size a buffer must be read
// unmodified before it receives a static cache.
const staticPromotionFactor = 3

// Buffer is an application vertex buffer. It owns the device storage used
// for direct binding and, once created, its static conversion cache.
type Buffer struct {
	factory Factory
	label   string
	serial  Serial
	usage   Usage
	data    []byte

	storage VertexBuffer
	static  *StaticVertexBuffer

	unmodifiedDataUse uint64
}

func NewBuffer(factory Factory, label string) *Buffer {
	return &Buffer{factory: factory, label: label, serial: NewSerial(), usage: UsageStatic}
}

func (b *Buffer) Label() string  { return b.label }
func (b *Buffer) Serial() Serial { return b.serial }
func (b *Buffer) Size() uint64   { return uint64(len(b.data)) }
func (b *Buffer) Usage() Usage   { return b.usage }

// Data returns the current content. Callers must not modify it.
func (b *Buffer) Data() []byte { return b.data }

func (b *Buffer) SupportsDirectBinding() bool {
	return b.factory.SupportsDirectBinding()
}

// VertexBuffer returns the device storage bound for direct use, or nil if
// the factory cannot bind application buffers.
func (b *Buffer) VertexBuffer() VertexBuffer { return b.storage }

// StaticVertexBuffer returns the static cache, nil until one is created.
func (b *Buffer) StaticVertexBuffer() *StaticVertexBuffer { return b.static }

// SetData replaces the content. Static usage creates the cache right away.
func (b *Buffer) SetData(data []byte, usage Usage) error {
	b.data = append([]byte(nil), data...)
	b.usage = usage
	if err := b.upload(0, b.data, true); err != nil {
		return err
	}
	b.dataChanged()
	if usage == UsageStatic {
		b.initializeStaticData()
	}
	return nil
}

// SetSubData overwrites part of the content.
func (b *Buffer) SetSubData(data []byte, offset uint64) error {
	end, err := AddOffsets(offset, uint64(len(data)))
	if err != nil {
		return err
	}
	if end > uint64(len(b.data)) {
		return fmt.Errorf("%w: %s: sub data [%d,%d) past size %d", ErrSourceOutOfRange, b.label, offset, end, len(b.data))
	}
	copy(b.data[offset:], data)
	if err := b.upload(offset, data, false); err != nil {
		return err
	}
	b.dataChanged()
	return nil
}

func (b *Buffer) upload(offset uint64, data []byte, resize bool) error {
	if !b.factory.SupportsDirectBinding() {
		return nil
	}
	if b.storage == nil {
		b.storage = b.factory.CreateVertexBuffer(b.label)
		resize = true
	}
	if resize {
		if err := b.storage.SetSize(uint64(len(b.data))); err != nil {
			return fmt.Errorf("failed to allocate storage for buffer %s: %w", b.label, err)
		}
		offset, data = 0, b.data
	}
	if len(data) == 0 {
		return nil
	}
	if err := b.storage.Write(offset, data); err != nil {
		return fmt.Errorf("failed to upload buffer %s: %w", b.label, err)
	}
	return nil
}

func (b *Buffer) dataChanged() {
	b.serial = NewSerial()
	b.InvalidateStaticData()
}

func (b *Buffer) initializeStaticData() {
	if b.static == nil {
		b.static = NewStaticVertexBuffer(b.factory, b.label+" static")
	}
}

// InvalidateStaticData drops a populated static cache, replacing it with an
// empty one, and restarts usage tracking.
func (b *Buffer) InvalidateStaticData() {
	if b.static != nil && b.static.BufferSize() != 0 {
		b.static.Release()
		b.static = NewStaticVertexBuffer(b.factory, b.label+" static")
	}
	b.unmodifiedDataUse = 0
}

// PromoteStaticUsage records that dataSize bytes were read unmodified. Heavy
// reuse earns the buffer a static cache.
func (b *Buffer) PromoteStaticUsage(dataSize uint64) {
	if b.static != nil {
		return
	}
	b.unmodifiedDataUse += dataSize
	if b.unmodifiedDataUse > staticPromotionFactor*b.Size() {
		b.initializeStaticData()
	}
}

func (b *Buffer) Release() {
	if b.static != nil {
		b.static.Release()
		b.static = nil
	}
	if b.storage != nil {
		b.storage.Release()
		b.storage = nil
	}
	b.data = nil
}
