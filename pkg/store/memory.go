package store

import (
	"io"
	"sync"
)

// Memory is a Store held entirely in memory
type Memory struct {
	data   []byte
	pos    int64
	closed bool
	mutex  sync.RWMutex
}

// NewMemory creates a memory store holding a copy of data
func NewMemory(data []byte) *Memory {
	return &Memory{data: append([]byte(nil), data...)}
}

// Bytes returns the current contents. The slice aliases the store until the next write.
func (m *Memory) Bytes() []byte {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.data
}

func (m *Memory) Read(p []byte) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	n, err := m.readAt(p, m.pos)
	m.pos += int64(n)
	return n, err
}

func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.readAt(p, off)
}

func (m *Memory) readAt(p []byte, off int64) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrNegativeOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}

	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *Memory) Write(p []byte) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	n, err := m.writeAt(p, m.pos)
	m.pos += int64(n)
	return n, err
}

func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.writeAt(p, off)
}

func (m *Memory) writeAt(p []byte, off int64) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrNegativeOffset
	}

	if end := off + int64(len(p)); end > int64(len(m.data)) {
		m.grow(end)
	}
	return copy(m.data[off:], p), nil
}

func (m *Memory) grow(size int64) {
	if size <= int64(cap(m.data)) {
		m.data = m.data[:size]
		return
	}
	data := make([]byte, size, size+size/4)
	copy(data, m.data)
	m.data = data
}

func (m *Memory) Seek(offset int64, whence int) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = m.pos + offset
	case io.SeekEnd:
		pos = int64(len(m.data)) + offset
	default:
		return 0, ErrInvalidWhence
	}
	if pos < 0 {
		return 0, ErrNegativeOffset
	}

	m.pos = pos
	return pos, nil
}

// Size returns the length of the store
func (m *Memory) Size() (int64, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	return int64(len(m.data)), nil
}

// Truncate sets the length of the store
func (m *Memory) Truncate(size int64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return ErrClosed
	}
	if size < 0 {
		return ErrNegativeOffset
	}

	if size <= int64(len(m.data)) {
		clear(m.data[size:])
		m.data = m.data[:size]
		return nil
	}
	m.grow(size)
	return nil
}

// Sync is a no-op for memory stores
func (m *Memory) Sync() error {
	return nil
}

// Close releases the store contents
func (m *Memory) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed = true
	m.data = nil
	return nil
}
