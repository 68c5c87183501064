package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// File is a Store backed by a file on an afero filesystem
type File struct {
	afero.File
	path string
}

// OpenFile opens path on fs with the given flags, creating parent directories
// when os.O_CREATE is set
func OpenFile(fs afero.Fs, path string, flag int) (*File, error) {
	if flag&os.O_CREATE != 0 {
		if err := fs.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("create directory for %s: %w", path, err)
		}
	}

	f, err := fs.OpenFile(path, flag, 0600)
	if err != nil {
		return nil, err
	}
	return &File{File: f, path: path}, nil
}

// Open opens an existing file for reading
func Open(fs afero.Fs, path string) (*File, error) {
	return OpenFile(fs, path, os.O_RDONLY)
}

// Create creates or truncates a file for reading and writing
func Create(fs afero.Fs, path string) (*File, error) {
	return OpenFile(fs, path, os.O_CREATE|os.O_RDWR|os.O_TRUNC)
}

// ReadAt reads len(p) bytes at off. Unlike some afero files it returns io.EOF
// whenever fewer bytes are available.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	n, err := f.File.ReadAt(p, off)
	if n < len(p) && err == nil {
		err = io.EOF
	}
	return n, err
}

// Size returns the current length of the file
func (f *File) Size() (int64, error) {
	stat, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

// Path returns the file path
func (f *File) Path() string {
	return f.path
}
