package vertexshim

import (
	"errors"
	"fmt"

	"github.com/gekko3d/vertexshim/vertex"
)

var ErrNoStreamingBuffer = errors.New("vertexshim: internal streaming vertex buffer is unexpectedly nil")

// currentValueState caches the constant last written for a disabled slot.
type currentValueState struct {
	buffer *vertex.StreamingVertexBuffer
	data   vertex.CurrentValue
	stored bool
	offset uint64
}

// Manager translates the vertex attributes of a draw into buffers the
// device can bind. It is not safe for concurrent use.
type Manager struct {
	factory vertex.Factory
	cfg     Config
	logger  Logger

	streaming         *vertex.StreamingVertexBuffer
	currentValueCache []currentValueState
}

func NewManager(factory vertex.Factory, cfg Config, logger Logger) *Manager {
	def := DefaultConfig()
	if cfg.InitialStreamBufferSize == 0 {
		cfg.InitialStreamBufferSize = def.InitialStreamBufferSize
	}
	if cfg.ConstantVertexBufferSize == 0 {
		cfg.ConstantVertexBufferSize = def.ConstantVertexBufferSize
	}
	if cfg.MaxVertexAttribs <= 0 {
		cfg.MaxVertexAttribs = def.MaxVertexAttribs
	}
	switch l := logger.(type) {
	case nil:
		logger = NewNopLogger()
	case *DefaultLogger:
		logger = l.Named("manager")
	}

	m := &Manager{
		factory:           factory,
		cfg:               cfg,
		logger:            logger,
		currentValueCache: make([]currentValueState, cfg.MaxVertexAttribs),
	}
	streaming, err := vertex.NewStreamingVertexBuffer(factory, "streaming vertex buffer", cfg.InitialStreamBufferSize)
	if err != nil {
		logger.Errorf("Failed to allocate the streaming vertex buffer: %v", err)
	} else {
		m.streaming = streaming
	}
	return m
}

// StreamingBuffer returns the shared streaming buffer, nil if it could not be allocated.
func (m *Manager) StreamingBuffer() *vertex.StreamingVertexBuffer { return m.streaming }

func (m *Manager) Release() {
	if m.streaming != nil {
		m.streaming.Release()
		m.streaming = nil
	}
	for i := range m.currentValueCache {
		if m.currentValueCache[i].buffer != nil {
			m.currentValueCache[i].buffer.Release()
		}
		m.currentValueCache[i] = currentValueState{}
	}
}

// PrepareVertexData translates every attribute slot of state for a draw of
// count vertices starting at start, repeated for instances instances.
// The returned records are valid until the next call.
func (m *Manager) PrepareVertexData(program Program, state VertexState, start, count, instances int) ([]TranslatedAttribute, error) {
	if m.streaming == nil {
		return nil, ErrNoStreamingBuffer
	}
	if start < 0 || count < 0 || instances < 0 {
		panic(fmt.Sprintf("PrepareVertexData: negative draw range start=%d count=%d instances=%d", start, count, instances))
	}

	attribs := state.VertexAttributes()
	if len(attribs) > len(m.currentValueCache) {
		panic(fmt.Sprintf("PrepareVertexData: %d vertex attributes exceed the limit of %d", len(attribs), len(m.currentValueCache)))
	}

	translated := make([]TranslatedAttribute, len(attribs))
	for i := range attribs {
		t := &translated[i]
		t.Active = program.AttributeActive(i)
		if !t.Active {
			continue
		}
		t.Attribute = &attribs[i]
		if attribs[i].Enabled {
			if attribs[i].Buffer == nil && attribs[i].Pointer == nil {
				panic(fmt.Sprintf("PrepareVertexData: enabled attribute %d has neither a buffer nor client data", i))
			}
			if vertex.TypeSize(attribs[i]) == 0 || attribs[i].Size > 4 {
				panic(fmt.Sprintf("PrepareVertexData: enabled attribute %d has an invalid format (%d x %s)", i, attribs[i].Size, attribs[i].Type))
			}
			// Also invalidate static buffers that don't contain matching attributes
			m.invalidateMatchingStaticData(attribs[i], state.CurrentValue(i))
		}
	}

	err := m.translate(translated, state, start, count, instances)
	m.hintUnmapAllResources(attribs)
	if err != nil {
		m.clearReservations(attribs)
		m.logger.Warnf("Vertex translation failed (start=%d count=%d instances=%d): %v", start, count, instances, err)
		return nil, err
	}

	for i := range attribs {
		a := attribs[i]
		if translated[i].Active && a.Enabled && a.Buffer != nil {
			hadStatic := a.Buffer.StaticVertexBuffer() != nil
			a.Buffer.PromoteStaticUsage(uint64(count) * uint64(vertex.TypeSize(a)))
			if !hadStatic && a.Buffer.StaticVertexBuffer() != nil {
				m.logger.Debugf("Buffer %s promoted to a static vertex cache", a.Buffer.Label())
			}
		}
	}
	return translated, nil
}

func (m *Manager) translate(translated []TranslatedAttribute, state VertexState, start, count, instances int) error {
	// Reserve the required space in the buffers
	for i := range translated {
		t := &translated[i]
		if t.Active && t.Attribute.Enabled {
			if err := m.reserveSpaceForAttrib(*t.Attribute, state.CurrentValue(i), count, instances); err != nil {
				return fmt.Errorf("failed to reserve space for attribute %d: %w", i, err)
			}
		}
	}

	// Perform the vertex data translations
	for i := range translated {
		t := &translated[i]
		if !t.Active {
			continue
		}
		cv := state.CurrentValue(i)
		if t.Attribute.Enabled {
			if err := m.storeAttribute(cv, t, start, count, instances); err != nil {
				return fmt.Errorf("failed to store attribute %d: %w", i, err)
			}
			continue
		}

		cached := &m.currentValueCache[i]
		if cached.buffer == nil {
			buf, err := vertex.NewStreamingVertexBuffer(m.factory, fmt.Sprintf("current value %d", i), m.cfg.ConstantVertexBufferSize)
			if err != nil {
				return fmt.Errorf("failed to create current value buffer %d: %w", i, err)
			}
			cached.buffer = buf
		}
		if err := m.storeCurrentValue(cv, t, cached); err != nil {
			return fmt.Errorf("failed to store current value %d: %w", i, err)
		}
	}
	return nil
}

// destinationFor picks the static cache of a's buffer when there is one,
// the streaming buffer otherwise.
func (m *Manager) destinationFor(a vertex.Attribute) (vertex.Destination, *vertex.StaticVertexBuffer) {
	if a.Buffer != nil {
		if static := a.Buffer.StaticVertexBuffer(); static != nil {
			return static, static
		}
	}
	return m.streaming, nil
}

func (m *Manager) invalidateMatchingStaticData(a vertex.Attribute, cv vertex.CurrentValue) {
	if a.Buffer == nil {
		return
	}
	static := a.Buffer.StaticVertexBuffer()
	if static == nil || static.BufferSize() == 0 {
		return
	}
	if _, ok := static.LookupAttribute(a); ok {
		return
	}
	if static.DirectStoragePossible(a, cv) {
		return
	}
	m.logger.Debugf("Invalidating static vertex cache of buffer %s", a.Buffer.Label())
	a.Buffer.InvalidateStaticData()
}

func (m *Manager) reserveSpaceForAttrib(a vertex.Attribute, cv vertex.CurrentValue, count, instances int) error {
	dest, static := m.destinationFor(a)
	if dest.DirectStoragePossible(a, cv) {
		return nil
	}

	if static != nil {
		if static.BufferSize() == 0 {
			total := max(vertex.ElementsInBuffer(a, a.Buffer.Size()), 0)
			return static.ReserveVertexSpace(a, int(total), 0)
		}
		return nil
	}

	total := vertex.StreamingElementCount(a, count, instances)
	if a.Buffer != nil && vertex.ElementsInBuffer(a, a.Buffer.Size()) < int64(total) {
		panic(fmt.Sprintf("reserveSpaceForAttrib: buffer %s holds fewer than %d elements", a.Buffer.Label(), total))
	}
	return m.streaming.ReserveVertexSpace(a, total, instances)
}

func (m *Manager) storeAttribute(cv vertex.CurrentValue, t *TranslatedAttribute, start, count, instances int) error {
	a := *t.Attribute
	dest, static := m.destinationFor(a)
	direct := dest.DirectStoragePossible(a, cv)
	stride := uint64(vertex.ComputeStride(a))

	// Instanced vertices do not apply the 'start' offset
	firstVertexIndex := start
	if instances > 0 && a.Divisor > 0 {
		firstVertexIndex = 0
	}

	var streamOffset, outputElementSize uint64
	switch {
	case direct:
		outputElementSize = stride
		rel, err := vertex.MulOffset(stride, uint64(firstVertexIndex))
		if err != nil {
			return err
		}
		if streamOffset, err = vertex.AddOffsets(uint64(a.Offset), rel); err != nil {
			return err
		}

	case static != nil:
		var err error
		if outputElementSize, err = static.VertexBuffer().SpaceRequired(a, 1, 0); err != nil {
			return err
		}
		cachedOffset, ok := static.LookupAttribute(a)
		if !ok {
			// Convert the entire buffer
			total := max(vertex.ElementsInBuffer(a, a.Buffer.Size()), 0)
			startIndex := int(uint64(a.Offset) / stride)
			if cachedOffset, err = static.StoreVertexAttributes(a, cv, -startIndex, int(total), 0); err != nil {
				return err
			}
		}

		firstElementOffset, err := vertex.MulOffset(uint64(a.Offset)/stride, outputElementSize)
		if err != nil {
			return err
		}
		var startOffset uint64
		if instances == 0 || a.Divisor == 0 {
			if startOffset, err = vertex.MulOffset(uint64(firstVertexIndex), outputElementSize); err != nil {
				return err
			}
		}
		if streamOffset, err = vertex.AddOffsets(cachedOffset, firstElementOffset, startOffset); err != nil {
			return err
		}

	default:
		var err error
		total := vertex.StreamingElementCount(a, count, instances)
		if outputElementSize, err = m.streaming.VertexBuffer().SpaceRequired(a, 1, 0); err != nil {
			return err
		}
		if streamOffset, err = m.streaming.StoreVertexAttributes(a, cv, firstVertexIndex, total, instances); err != nil {
			return err
		}
	}

	t.Storage = nil
	if direct {
		t.Storage = a.Buffer
		t.VertexBuffer = a.Buffer.VertexBuffer()
		t.Serial = a.Buffer.Serial()
	} else {
		t.VertexBuffer = dest.VertexBuffer()
		t.Serial = dest.Serial()
	}
	t.Divisor = a.Divisor
	t.CurrentValueType = cv.Type
	t.Format = vertex.OutputFormatFor(a, cv.Type).Format
	t.Stride = uint32(outputElementSize)
	t.Offset = streamOffset
	return nil
}

func (m *Manager) storeCurrentValue(cv vertex.CurrentValue, t *TranslatedAttribute, cached *currentValueState) error {
	a := *t.Attribute
	if !cached.stored || !cached.data.Equal(cv) {
		if err := cached.buffer.ReserveVertexSpace(a, 1, 0); err != nil {
			return err
		}
		offset, err := cached.buffer.StoreVertexAttributes(a, cv, 0, 1, 0)
		if err != nil {
			return err
		}
		cached.data = cv
		cached.offset = offset
		cached.stored = true
	}

	t.Storage = nil
	t.VertexBuffer = cached.buffer.VertexBuffer()
	t.Serial = cached.buffer.Serial()
	t.Divisor = 0
	t.CurrentValueType = cv.Type
	t.Format = vertex.OutputFormatFor(a, cv.Type).Format
	t.Stride = 0
	t.Offset = cached.offset
	return nil
}

// hintUnmapAllResources releases the CPU mapping of every buffer this pass
// may have written, once each.
func (m *Manager) hintUnmapAllResources(attribs []vertex.Attribute) {
	seen := make(map[vertex.Serial]bool)
	hint := func(vb vertex.VertexBuffer) {
		if vb == nil || seen[vb.Serial()] {
			return
		}
		seen[vb.Serial()] = true
		vb.HintUnmap()
	}

	hint(m.streaming.VertexBuffer())

	for _, a := range attribs {
		if a.Enabled && a.Buffer != nil {
			if static := a.Buffer.StaticVertexBuffer(); static != nil {
				hint(static.VertexBuffer())
			}
		}
	}

	for i := range m.currentValueCache {
		if m.currentValueCache[i].buffer != nil {
			hint(m.currentValueCache[i].buffer.VertexBuffer())
		}
	}
}

// clearReservations drops what a failed pass reserved so the next draw starts
// from an empty reservation.
func (m *Manager) clearReservations(attribs []vertex.Attribute) {
	m.streaming.ClearReservation()
	for _, a := range attribs {
		if a.Buffer != nil {
			if static := a.Buffer.StaticVertexBuffer(); static != nil {
				static.ClearReservation()
			}
		}
	}
	for i := range m.currentValueCache {
		if m.currentValueCache[i].buffer != nil {
			m.currentValueCache[i].buffer.ClearReservation()
		}
	}
}
