package store

import (
	"io"
)

// Store is a random-access byte store. It is borrowed by the codec for the
// duration of one operation and never closed by it.
type Store interface {
	io.Reader
	io.Writer
	io.Seeker
	io.ReaderAt
	io.WriterAt

	// Size returns the current length of the store
	Size() (int64, error)
	// Truncate sets the length of the store, zero extending it if needed
	Truncate(size int64) error
	// Sync flushes written data to durable storage where that applies
	Sync() error
	Close() error
}

// AppendWriterConfig holds configuration for an append writer
type AppendWriterConfig struct {
	Offset     int64 // Offset of the first byte written
	BufferSize int   // Write buffer size
}

// Errors
var (
	ErrClosed         = &StoreError{"store closed"}
	ErrNegativeOffset = &StoreError{"negative offset"}
	ErrInvalidWhence  = &StoreError{"invalid whence"}
)

// StoreError represents a byte store error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}

// Position returns the current offset of the store
func Position(s Store) (int64, error) {
	return s.Seek(0, io.SeekCurrent)
}
