package store

import (
	"bufio"
	"io"
	"sync"
)

const defaultBufferSize = 64 << 10

// AppendWriter buffers sequential writes into a store starting at a fixed offset
type AppendWriter struct {
	store  Store
	writer *bufio.Writer
	config AppendWriterConfig
	mutex  sync.Mutex
	offset int64 // Offset of the next byte written
}

// NewAppendWriter creates a writer that appends to s from config.Offset
func NewAppendWriter(s Store, config AppendWriterConfig) (*AppendWriter, error) {
	if config.Offset < 0 {
		return nil, ErrNegativeOffset
	}
	if config.BufferSize <= 0 {
		config.BufferSize = defaultBufferSize
	}

	return &AppendWriter{
		store:  s,
		writer: bufio.NewWriterSize(io.NewOffsetWriter(s, config.Offset), config.BufferSize),
		config: config,
		offset: config.Offset,
	}, nil
}

func (w *AppendWriter) Write(p []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	n, err := w.writer.Write(p)
	w.offset += int64(n)
	return n, err
}

// Offset returns the offset of the next byte written
func (w *AppendWriter) Offset() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Flush writes buffered data to the store
func (w *AppendWriter) Flush() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.writer.Flush()
}

// Sync flushes buffered data and syncs the store
func (w *AppendWriter) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.store.Sync()
}

// NewRangeReader returns a buffered reader over [off, off+n) of s
func NewRangeReader(s io.ReaderAt, off, n int64, bufferSize int) *bufio.Reader {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return bufio.NewReaderSize(io.NewSectionReader(s, off, n), bufferSize)
}
