package vertex

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPUFactory creates vertex buffers on a WebGPU device.
type GPUFactory struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue
}

func NewGPUFactory(device *wgpu.Device) *GPUFactory {
	return &GPUFactory{Device: device, Queue: device.GetQueue()}
}

func (f *GPUFactory) CreateVertexBuffer(label string) VertexBuffer {
	return &GPUVertexBuffer{
		device: f.Device,
		queue:  f.Queue,
		label:  label,
		serial: NewSerial(),
	}
}

func (f *GPUFactory) SupportsDirectBinding() bool { return true }

// GPUVertexBuffer keeps a CPU staging copy of a device buffer. Stores land in
// the staging copy; HintUnmap uploads the touched range.
type GPUVertexBuffer struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	label  string
	serial Serial

	buffer  *wgpu.Buffer
	staging []byte

	mapped           bool
	dirtyLo, dirtyHi uint64
	flushErr         error
}

// Buffer returns the device buffer to bind, nil before the first SetSize.
func (b *GPUVertexBuffer) Buffer() *wgpu.Buffer { return b.buffer }

func (b *GPUVertexBuffer) Serial() Serial { return b.serial }
func (b *GPUVertexBuffer) Size() uint64   { return uint64(len(b.staging)) }

// Err returns and clears the error of the last upload.
func (b *GPUVertexBuffer) Err() error {
	err := b.flushErr
	b.flushErr = nil
	return err
}

func (b *GPUVertexBuffer) allocate(size uint64) error {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
	b.mapped = false
	b.dirtyLo, b.dirtyHi = 0, 0
	if size == 0 {
		b.staging = nil
		return nil
	}
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            b.label,
		Size:             size,
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		b.staging = nil
		return fmt.Errorf("%w: failed to create vertex buffer %s: %v", ErrOutOfMemory, b.label, err)
	}
	b.buffer = buf
	b.staging = make([]byte, size)
	return nil
}

func (b *GPUVertexBuffer) SetSize(size uint64) error {
	// queue writes need 4 byte granularity
	if size%4 != 0 {
		size += 4 - (size % 4)
	}
	return b.allocate(size)
}

func (b *GPUVertexBuffer) Discard() error {
	return b.allocate(uint64(len(b.staging)))
}

func (b *GPUVertexBuffer) checkRange(offset, length uint64) (uint64, error) {
	if err := b.Err(); err != nil {
		return 0, err
	}
	end, err := AddOffsets(offset, length)
	if err != nil {
		return 0, err
	}
	if end > uint64(len(b.staging)) {
		return 0, fmt.Errorf("%w: %s: range [%d,%d) past size %d", ErrOutOfMemory, b.label, offset, end, len(b.staging))
	}
	return end, nil
}

func (b *GPUVertexBuffer) Write(offset uint64, data []byte) error {
	end, err := b.checkRange(offset, uint64(len(data)))
	if err != nil {
		return err
	}
	copy(b.staging[offset:], data)
	return b.flush(offset, end)
}

func (b *GPUVertexBuffer) SpaceRequired(a Attribute, count, instances int) (uint64, error) {
	return spaceRequired(a, count, instances)
}

func (b *GPUVertexBuffer) StoreVertexAttributes(a Attribute, cv CurrentValue, start, count, instances int, offset uint64) error {
	space, err := spaceRequired(a, count, instances)
	if err != nil {
		return err
	}
	end, err := b.checkRange(offset, space)
	if err != nil {
		return err
	}
	if err := encodeVertexAttributes(b.staging[offset:end], a, cv, start, count, instances); err != nil {
		return err
	}
	b.markDirty(offset, end)
	return nil
}

// markDirty maps the buffer and extends the pending upload to [lo, hi).
func (b *GPUVertexBuffer) markDirty(lo, hi uint64) {
	if !b.mapped {
		b.mapped = true
		b.dirtyLo, b.dirtyHi = lo, hi
		return
	}
	b.dirtyLo = min(b.dirtyLo, lo)
	b.dirtyHi = max(b.dirtyHi, hi)
}

// alignedRange widens [lo, hi) to 4 byte boundaries, clamped to size.
func alignedRange(lo, hi, size uint64) (uint64, uint64) {
	lo &^= 3
	hi = (hi + 3) &^ 3
	return lo, min(hi, size)
}

func (b *GPUVertexBuffer) HintUnmap() {
	if !b.mapped {
		return
	}
	b.mapped = false
	if err := b.flush(b.dirtyLo, b.dirtyHi); err != nil {
		b.flushErr = err
	}
}

func (b *GPUVertexBuffer) flush(lo, hi uint64) error {
	if b.buffer == nil || hi <= lo {
		return nil
	}
	lo, hi = alignedRange(lo, hi, uint64(len(b.staging)))
	if err := b.queue.WriteBuffer(b.buffer, lo, b.staging[lo:hi]); err != nil {
		return fmt.Errorf("failed to upload vertex buffer %s: %w", b.label, err)
	}
	return nil
}

func (b *GPUVertexBuffer) Release() {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
	b.staging = nil
	b.mapped = false
}
