//go:build fuzz
// +build fuzz

package codec

import (
	"testing"
)

// FuzzParseTrailer checks that arbitrary input never panics and that anything
// accepted re-encodes to the same bytes
func FuzzParseTrailer(f *testing.F) {
	f.Add(Trailer{DataSize: 215, EccSize: 24, BlockCount: 47, DataLength: 10000, EccLength: 1128, Last: true}.AppendBinary(nil))
	f.Add(Trailer{DataSize: 1, EccSize: 254, BlockCount: 1}.AppendBinary(nil))
	f.Add([]byte{})
	f.Add([]byte{0xff})

	f.Fuzz(func(t *testing.T, blob []byte) {
		tr, n, err := ParseTrailer(blob)
		if err != nil {
			return
		}

		encoded := tr.AppendBinary(nil)
		if string(encoded) != string(blob[len(blob)-n:]) {
			t.Fatalf("re-encoded trailer differs: %x vs %x", encoded, blob[len(blob)-n:])
		}
	})
}

// FuzzParseMetadata checks that arbitrary metadata blobs never panic
func FuzzParseMetadata(f *testing.F) {
	m := Metadata{
		Entries: []PositioningEntry{{Hash: 1, CRC: 2}},
		Trailer: Trailer{DataSize: 100, EccSize: 10, BlockCount: 1, DataLength: 50, EccLength: 10},
	}
	f.Add(m.AppendBinary(nil))

	f.Fuzz(func(t *testing.T, blob []byte) {
		got, err := ParseMetadata(blob)
		if err != nil {
			return
		}
		if got.Size() != len(blob) {
			t.Fatalf("metadata size %d, blob %d", got.Size(), len(blob))
		}
	})
}

// FuzzParseAnchorAt checks that anchor parsing stays within bounds
func FuzzParseAnchorAt(f *testing.F) {
	blob, _ := AppendAnchor(nil, []byte("seed"))
	f.Add(blob, len(blob))
	f.Add([]byte{0, 0, 0, 0, 0}, 5)

	f.Fuzz(func(t *testing.T, buf []byte, end int) {
		payload, start, ok := ParseAnchorAt(buf, end)
		if !ok {
			return
		}
		if start < 0 || start+len(payload)+AnchorOverhead != end {
			t.Fatalf("inconsistent anchor bounds start=%d len=%d end=%d", start, len(payload), end)
		}
	})
}
