package store

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openStores returns one store of every implementation, each holding data
func openStores(t *testing.T, data []byte) map[string]Store {
	t.Helper()

	fs := afero.NewMemMapFs()
	f, err := Create(fs, filepath.Join("stores", "test.bin"))
	require.NoError(t, err)
	_, err = f.WriteAt(data, 0)
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemory(data),
		"file":   f,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore_ReadAtWriteAt(t *testing.T) {
	for name, s := range openStores(t, []byte("0123456789")) {
		t.Run(name, func(t *testing.T) {
			buf := make([]byte, 4)
			n, err := s.ReadAt(buf, 3)
			require.NoError(t, err)
			assert.Equal(t, 4, n)
			assert.Equal(t, []byte("3456"), buf)

			// Reading past the end returns what is available and io.EOF
			n, err = s.ReadAt(buf, 8)
			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, 2, n)

			_, err = s.WriteAt([]byte("xy"), 12)
			require.NoError(t, err)

			size, err := s.Size()
			require.NoError(t, err)
			assert.Equal(t, int64(14), size)

			all := make([]byte, size)
			_, err = s.ReadAt(all, 0)
			require.NoError(t, err)
			assert.Equal(t, []byte("0123456789\x00\x00xy"), all)
		})
	}
}

func TestFile_ReadAtShort(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/short.bin", []byte("abcde"), 0600))

	f, err := Open(fs, "/short.bin")
	require.NoError(t, err)
	defer f.Close()

	t.Run("straddling the end", func(t *testing.T) {
		buf := make([]byte, 4)
		n, err := f.ReadAt(buf, 3)
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, 2, n)
		assert.Equal(t, []byte("de"), buf[:n])
	})

	t.Run("past the end", func(t *testing.T) {
		n, err := f.ReadAt(make([]byte, 4), 9)
		assert.ErrorIs(t, err, io.EOF)
		assert.Zero(t, n)
	})

	t.Run("exact", func(t *testing.T) {
		buf := make([]byte, 5)
		n, err := f.ReadAt(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	})
}

func TestStore_SeekReadWrite(t *testing.T) {
	for name, s := range openStores(t, []byte("abcdef")) {
		t.Run(name, func(t *testing.T) {
			pos, err := s.Seek(-2, io.SeekEnd)
			require.NoError(t, err)
			assert.Equal(t, int64(4), pos)

			buf := make([]byte, 2)
			_, err = io.ReadFull(s, buf)
			require.NoError(t, err)
			assert.Equal(t, []byte("ef"), buf)

			pos, err = Position(s)
			require.NoError(t, err)
			assert.Equal(t, int64(6), pos)

			_, err = s.Write([]byte("gh"))
			require.NoError(t, err)

			size, err := s.Size()
			require.NoError(t, err)
			assert.Equal(t, int64(8), size)

			_, err = s.Seek(1, io.SeekStart)
			require.NoError(t, err)
			_, err = io.ReadFull(s, buf)
			require.NoError(t, err)
			assert.Equal(t, []byte("bc"), buf)
		})
	}
}

func TestStore_Truncate(t *testing.T) {
	for name, s := range openStores(t, []byte("abcdef")) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Truncate(3))
			size, err := s.Size()
			require.NoError(t, err)
			assert.Equal(t, int64(3), size)

			// Growing again exposes zeros, not the truncated bytes
			require.NoError(t, s.Truncate(5))
			buf := make([]byte, 5)
			_, err = s.ReadAt(buf, 0)
			require.NoError(t, err)
			assert.Equal(t, []byte("abc\x00\x00"), buf)
		})
	}
}

func TestMemory_NegativeOffsets(t *testing.T) {
	m := NewMemory([]byte("abc"))

	_, err := m.ReadAt(make([]byte, 1), -1)
	assert.ErrorIs(t, err, ErrNegativeOffset)

	_, err = m.WriteAt([]byte("x"), -1)
	assert.ErrorIs(t, err, ErrNegativeOffset)

	_, err = m.Seek(-4, io.SeekEnd)
	assert.ErrorIs(t, err, ErrNegativeOffset)

	_, err = m.Seek(0, 42)
	assert.ErrorIs(t, err, ErrInvalidWhence)

	assert.ErrorIs(t, m.Truncate(-1), ErrNegativeOffset)
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory([]byte("abc"))
	require.NoError(t, m.Close())

	_, err := m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)

	_, err = m.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)

	_, err = m.Size()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemory_CopiesInput(t *testing.T) {
	data := []byte("abc")
	m := NewMemory(data)
	data[0] = 'z'

	assert.Equal(t, []byte("abc"), m.Bytes())
}

func TestOpenFile_DirectoryCreation(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join("nested", "deep", "path", "container.rrc")

	f, err := OpenFile(fs, path, os.O_CREATE|os.O_RDWR)
	require.NoError(t, err)
	defer f.Close()

	exists, err := afero.DirExists(fs, filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, f.Path())
}

func TestOpen_NonExistentFile(t *testing.T) {
	f, err := Open(afero.NewMemMapFs(), "/non/existent/file.rrc")
	assert.Error(t, err)
	assert.Nil(t, f)
}

func TestAppendWriter(t *testing.T) {
	m := NewMemory([]byte("head"))

	w, err := NewAppendWriter(m, AppendWriterConfig{Offset: 4, BufferSize: 2})
	require.NoError(t, err)

	_, err = w.Write([]byte("-body"))
	require.NoError(t, err)
	_, err = w.Write([]byte("-tail"))
	require.NoError(t, err)
	assert.Equal(t, int64(14), w.Offset())

	require.NoError(t, w.Sync())
	assert.Equal(t, []byte("head-body-tail"), m.Bytes())
}

func TestAppendWriter_NegativeOffset(t *testing.T) {
	w, err := NewAppendWriter(NewMemory(nil), AppendWriterConfig{Offset: -1})
	assert.ErrorIs(t, err, ErrNegativeOffset)
	assert.Nil(t, w)
}

func TestNewRangeReader(t *testing.T) {
	r := NewRangeReader(NewMemory([]byte("0123456789")), 2, 5, 0)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("23456"), got)
}
