package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
)

// KindReedSolomon marks a trailer describing a Reed-Solomon protected layer
const KindReedSolomon byte = 0x00

const (
	flagLast byte = 1 << 0

	// kind + dataSize + eccSize + three one-byte varints + flags + crc
	minTrailerSize = 1 + 1 + 1 + 3 + 1 + 4
)

var (
	// ErrTrailerCorrupt is returned when a trailer or positioning table cannot be parsed
	ErrTrailerCorrupt = errors.New("trailer corrupt")
	// ErrShortBuffer is returned when a buffer is too short to hold what it claims
	ErrShortBuffer = errors.New("buffer too short")
)

// Trailer describes one layer of a container
type Trailer struct {
	DataSize   uint8  // Data symbols per codeword
	EccSize    uint8  // Parity symbols per codeword
	BlockCount uint32 // Interleaved codewords per matrix
	DataLength uint64 // Protected payload length in bytes
	EccLength  uint64 // Parity length in bytes
	Last       bool   // Set on the layer that protects the original input
}

// ChunkSize returns the size of one location unit (BlockCount * DataSize bytes)
func (t Trailer) ChunkSize() int64 {
	return int64(t.BlockCount) * int64(t.DataSize)
}

// RegionLength returns the length of the protected region (payload and parity)
func (t Trailer) RegionLength() int64 {
	return int64(t.DataLength + t.EccLength)
}

// EntryCount returns the number of positioning entries describing the region
func (t Trailer) EntryCount() int {
	chunk := t.ChunkSize()
	if chunk == 0 {
		return 0
	}
	return int((t.RegionLength() + chunk - 1) / chunk)
}

// Validate checks the structural invariants of the trailer fields
func (t Trailer) Validate() error {
	if t.DataSize == 0 {
		return fmt.Errorf("%w: data size is zero", ErrTrailerCorrupt)
	}
	if t.EccSize == 0 || t.EccSize%2 != 0 {
		return fmt.Errorf("%w: ecc size %d must be even and non-zero", ErrTrailerCorrupt, t.EccSize)
	}
	if int(t.DataSize)+int(t.EccSize) > 255 {
		return fmt.Errorf("%w: codeword %d+%d exceeds 255 symbols", ErrTrailerCorrupt, t.DataSize, t.EccSize)
	}
	if t.BlockCount == 0 {
		return fmt.Errorf("%w: block count is zero", ErrTrailerCorrupt)
	}
	if t.DataLength > math.MaxInt64/2 || t.EccLength > math.MaxInt64/2 {
		return fmt.Errorf("%w: implausible region length %d+%d", ErrTrailerCorrupt, t.DataLength, t.EccLength)
	}
	return nil
}

// Size returns the encoded size of the trailer including its self-length byte
func (t Trailer) Size() int {
	return len(t.AppendBinary(nil))
}

// AppendBinary appends the encoded trailer and its self-length byte to b
func (t Trailer) AppendBinary(b []byte) []byte {
	start := len(b)

	b = append(b, KindReedSolomon, t.DataSize, t.EccSize)
	b = binary.AppendUvarint(b, uint64(t.BlockCount))
	b = binary.AppendUvarint(b, t.DataLength)
	b = binary.AppendUvarint(b, t.EccLength)

	var flags byte
	if t.Last {
		flags |= flagLast
	}
	b = append(b, flags)
	b = binary.LittleEndian.AppendUint32(b, crc32.ChecksumIEEE(b[start:]))

	return append(b, byte(len(b)-start))
}

// ParseTrailer reads a trailer backwards from the end of blob using only the
// final self-length byte. It returns the trailer and the number of bytes it
// occupies at the end of blob, self-length byte included.
func ParseTrailer(blob []byte) (Trailer, int, error) {
	if len(blob) == 0 {
		return Trailer{}, 0, fmt.Errorf("%w: empty blob", ErrTrailerCorrupt)
	}

	selfLen := int(blob[len(blob)-1])
	if selfLen < minTrailerSize {
		return Trailer{}, 0, fmt.Errorf("%w: self length %d below minimum %d", ErrTrailerCorrupt, selfLen, minTrailerSize)
	}
	if selfLen+1 > len(blob) {
		return Trailer{}, 0, fmt.Errorf("%w: self length %d exceeds blob of %d bytes", ErrTrailerCorrupt, selfLen, len(blob))
	}

	raw := blob[len(blob)-1-selfLen : len(blob)-1]
	body := raw[:len(raw)-4]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(raw[len(raw)-4:]) {
		return Trailer{}, 0, fmt.Errorf("%w: checksum mismatch", ErrTrailerCorrupt)
	}

	if body[0] != KindReedSolomon {
		return Trailer{}, 0, fmt.Errorf("%w: unknown kind %#x", ErrTrailerCorrupt, body[0])
	}

	t := Trailer{DataSize: body[1], EccSize: body[2]}
	pos := 3

	readUvarint := func(name string) (uint64, error) {
		v, n := binary.Uvarint(body[pos:])
		if n <= 0 {
			return 0, fmt.Errorf("%w: bad %s varint", ErrTrailerCorrupt, name)
		}
		pos += n
		return v, nil
	}

	blockCount, err := readUvarint("block count")
	if err != nil {
		return Trailer{}, 0, err
	}
	if blockCount > math.MaxUint32 {
		return Trailer{}, 0, fmt.Errorf("%w: block count %d overflows", ErrTrailerCorrupt, blockCount)
	}
	t.BlockCount = uint32(blockCount)

	if t.DataLength, err = readUvarint("data length"); err != nil {
		return Trailer{}, 0, err
	}
	if t.EccLength, err = readUvarint("ecc length"); err != nil {
		return Trailer{}, 0, err
	}

	if pos != len(body)-1 {
		return Trailer{}, 0, fmt.Errorf("%w: %d stray bytes before flags", ErrTrailerCorrupt, len(body)-1-pos)
	}
	flags := body[pos]
	if flags&^flagLast != 0 {
		return Trailer{}, 0, fmt.Errorf("%w: unknown flags %#x", ErrTrailerCorrupt, flags)
	}
	t.Last = flags&flagLast != 0

	if err := t.Validate(); err != nil {
		return Trailer{}, 0, err
	}

	return t, selfLen + 1, nil
}
