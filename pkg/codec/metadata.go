package codec

import (
	"fmt"
)

// Metadata is the blob written after a layer's protected region: the
// positioning table followed by the trailer
type Metadata struct {
	Entries []PositioningEntry
	Trailer Trailer
}

// Size returns the encoded size of the metadata blob
func (m Metadata) Size() int {
	return len(m.Entries)*EntrySize + m.Trailer.Size()
}

// AppendBinary appends the encoded metadata blob to b
func (m Metadata) AppendBinary(b []byte) []byte {
	for _, e := range m.Entries {
		b = e.AppendBinary(b)
	}
	return m.Trailer.AppendBinary(b)
}

// ParseMetadata decodes a metadata blob. The blob must hold exactly the
// positioning table implied by the trailer followed by the trailer itself.
func ParseMetadata(blob []byte) (Metadata, error) {
	t, n, err := ParseTrailer(blob)
	if err != nil {
		return Metadata{}, err
	}

	tableLen := t.EntryCount() * EntrySize
	if tableLen+n != len(blob) {
		return Metadata{}, fmt.Errorf("%w: blob of %d bytes does not match %d entries and %d trailer bytes",
			ErrTrailerCorrupt, len(blob), t.EntryCount(), n)
	}

	entries, err := ParseEntries(blob[:tableLen])
	if err != nil {
		return Metadata{}, err
	}

	return Metadata{Entries: entries, Trailer: t}, nil
}
