package codec

import (
	"encoding/binary"
	"fmt"
)

// EntrySize is the encoded size of a PositioningEntry
const EntrySize = 8

// PositioningEntry fingerprints one chunk of a layer's protected region
type PositioningEntry struct {
	Hash uint32 // Polynomial rolling hash of the zero-padded chunk
	CRC  uint32 // CRC32 (IEEE) of the zero-padded chunk
}

// AppendBinary appends the encoded entry to b
func (e PositioningEntry) AppendBinary(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, e.Hash)
	return binary.LittleEndian.AppendUint32(b, e.CRC)
}

// ParseEntries decodes a contiguous positioning table
func ParseEntries(b []byte) ([]PositioningEntry, error) {
	if len(b)%EntrySize != 0 {
		return nil, fmt.Errorf("%w: positioning table length %d is not a multiple of %d", ErrTrailerCorrupt, len(b), EntrySize)
	}

	entries := make([]PositioningEntry, len(b)/EntrySize)
	for i := range entries {
		off := i * EntrySize
		entries[i] = PositioningEntry{
			Hash: binary.LittleEndian.Uint32(b[off:]),
			CRC:  binary.LittleEndian.Uint32(b[off+4:]),
		}
	}
	return entries, nil
}
