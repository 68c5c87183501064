package codec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

const (
	// AnchorOverhead is the number of bytes an anchor copy adds to its payload
	AnchorOverhead = 4 + 1
	// MaxAnchorPayload is the largest payload the one-byte length tag can describe
	MaxAnchorPayload = 255
)

// AppendAnchor appends one tagged anchor copy of payload to b
func AppendAnchor(b, payload []byte) ([]byte, error) {
	if len(payload) > MaxAnchorPayload {
		return b, fmt.Errorf("anchor payload of %d bytes exceeds %d", len(payload), MaxAnchorPayload)
	}
	b = append(b, payload...)
	b = binary.LittleEndian.AppendUint32(b, crc32.ChecksumIEEE(payload))
	return append(b, byte(len(payload))), nil
}

// ParseAnchorAt interprets buf[:end] as ending with an anchor copy. It returns
// the payload and the offset in buf where the copy starts when the length tag
// and checksum are consistent.
func ParseAnchorAt(buf []byte, end int) ([]byte, int, bool) {
	if end < AnchorOverhead || end > len(buf) {
		return nil, 0, false
	}

	length := int(buf[end-1])
	start := end - AnchorOverhead - length
	if start < 0 {
		return nil, 0, false
	}

	payload := buf[start : start+length]
	crc := binary.LittleEndian.Uint32(buf[end-AnchorOverhead : end-1])
	if crc32.ChecksumIEEE(payload) != crc {
		return nil, 0, false
	}
	return payload, start, true
}
