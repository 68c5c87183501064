package rrc

import (
	"context"
	"hash/crc32"
	"io"

	"github.com/ssargent/rrc/pkg/codec"
	"github.com/ssargent/rrc/pkg/store"
)

// cancelCheckInterval is how many window positions are scanned between context checks
const cancelCheckInterval = 64 << 10

// blockDef is a positioning entry waiting to be located
type blockDef struct {
	crc    uint32
	index  int
	unique bool // No other entry has the same hash and CRC
}

// locator places the chunks of one layer into a reconstruction buffer by
// content. A chunk of index i is copied to buf[i*window:] wherever its hash
// and CRC are found, regardless of its physical offset.
type locator struct {
	entries []codec.PositioningEntry
	defs    map[uint32][]blockDef
	window  int64
	buf     []byte

	located   []bool
	found     []int64 // Physical offset a chunk was located at
	verified  []bool  // Unlocated chunk whose inferred bytes matched its checksum
	remaining int
	scanned   int64
}

func newLocator(entries []codec.PositioningEntry, window int64, buf []byte) *locator {
	l := &locator{
		entries:   entries,
		defs:      make(map[uint32][]blockDef, len(entries)),
		window:    window,
		buf:       buf,
		located:   make([]bool, len(entries)),
		found:     make([]int64, len(entries)),
		verified:  make([]bool, len(entries)),
		remaining: len(entries),
	}

	counts := make(map[codec.PositioningEntry]int, len(entries))
	for _, e := range entries {
		counts[e]++
	}
	for i, e := range entries {
		l.defs[e.Hash] = append(l.defs[e.Hash], blockDef{crc: e.CRC, index: i, unique: counts[e] == 1})
	}
	return l
}

// chunkLength returns the bytes of chunk i that lie inside the region
func (l *locator) chunkLength(i int) int64 {
	return min(l.window, int64(len(l.buf))-int64(i)*l.window)
}

func (l *locator) markLocated(i int, offset int64) {
	l.located[i] = true
	l.found[i] = offset
	l.remaining--
}

// checkNominal checks every chunk at its nominal offset, which locates the chunks of
// an undamaged region without scanning
func (l *locator) checkNominal(r io.ReaderAt, size, regionStart int64) {
	for i := range l.entries {
		off := regionStart + int64(i)*l.window
		n := l.chunkLength(i)
		if off < 0 || off+n > size {
			continue
		}

		chunk := l.buf[int64(i)*l.window : int64(i)*l.window+n]
		if _, err := readFullAt(r, chunk, off); err != nil {
			clear(chunk)
			continue
		}
		if codec.Checksum(chunk, int(l.window)) == l.entries[i] {
			l.markLocated(i, off)
		} else {
			clear(chunk)
		}
	}
}

// scan slides a window over [start, end) of r with a rolling hash and copies
// every window matching an unlocated entry into the buffer
func (l *locator) scan(ctx context.Context, r io.ReaderAt, start, end int64) error {
	if l.remaining == 0 || end-start < l.window {
		return nil
	}

	rd := store.NewRangeReader(r, start, end-start, 0)
	ring := make([]byte, l.window)
	if _, err := io.ReadFull(rd, ring); err != nil {
		return err
	}

	hash := codec.NewRollingHash(int(l.window))
	hash.Write(ring)

	head := int64(0) // Index of the oldest byte in ring
	for pos := start; ; pos++ {
		if defs, ok := l.defs[hash.Sum32()]; ok {
			l.match(defs, ring, head, pos)
			if l.remaining == 0 {
				break
			}
		}

		if pos+l.window >= end {
			break
		}
		if (pos-start)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		in, err := rd.ReadByte()
		if err != nil {
			return err
		}
		out := ring[head]
		ring[head] = in
		head++
		if head == l.window {
			head = 0
		}
		hash.Roll(out, in)
		l.scanned++
	}
	return nil
}

func (l *locator) match(defs []blockDef, ring []byte, head, pos int64) {
	var crc uint32
	computed := false

	for _, d := range defs {
		if l.located[d.index] {
			continue
		}
		if !computed {
			crc = crc32.Update(crc32.ChecksumIEEE(ring[head:]), crc32.IEEETable, ring[:head])
			computed = true
		}
		if crc != d.crc {
			continue
		}

		dst := l.buf[int64(d.index)*l.window:]
		n := copy(dst, ring[head:])
		copy(dst[n:], ring[:head])
		l.markLocated(d.index, pos)
	}
}

// scanTail looks for a short final chunk over [start, end). Its entry covers
// the chunk followed by zero padding that is never stored, so the chunk is
// fingerprinted on its own length. It reports whether the chunk was located.
func (l *locator) scanTail(ctx context.Context, r io.ReaderAt, start, end int64) (bool, error) {
	last := len(l.entries) - 1
	if last < 0 || l.intact(last) {
		return false, nil
	}
	n := l.chunkLength(last)
	if n == l.window || end-start < n {
		return false, nil
	}

	pad := uint32(1)
	for i := n; i < l.window; i++ {
		pad *= codec.HashBase
	}
	want := l.entries[last]
	candidate := make([]byte, n)

	rd := store.NewRangeReader(r, start, end-start, 0)
	ring := make([]byte, n)
	if _, err := io.ReadFull(rd, ring); err != nil {
		return false, err
	}

	hash := codec.NewRollingHash(int(n))
	hash.Write(ring)

	head := int64(0)
	for pos := start; ; pos++ {
		if hash.Sum32()*pad == want.Hash {
			k := copy(candidate, ring[head:])
			copy(candidate[k:], ring[:head])
			if codec.Checksum(candidate, int(l.window)) == want {
				copy(l.buf[int64(last)*l.window:], candidate)
				l.markLocated(last, pos)
				return true, nil
			}
		}

		if pos+n >= end {
			break
		}
		if (pos-start)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}

		in, err := rd.ReadByte()
		if err != nil {
			return false, err
		}
		out := ring[head]
		ring[head] = in
		head++
		if head == n {
			head = 0
		}
		hash.Roll(out, in)
		l.scanned++
	}
	return false, nil
}

// displacement returns how far chunk i is inferred to have moved from its
// nominal offset, taken from the nearest located chunk, preceding ones first
func (l *locator) displacement(i int, regionStart int64) int64 {
	for j := i - 1; j >= 0; j-- {
		if l.located[j] {
			return l.found[j] - (regionStart + int64(j)*l.window)
		}
	}
	for j := i + 1; j < len(l.entries); j++ {
		if l.located[j] {
			return l.found[j] - (regionStart + int64(j)*l.window)
		}
	}
	return 0
}

// prefill fills every unlocated chunk with the bytes at its inferred offset
// and marks it verified when those bytes match its checksum. Bytes outside
// the store are left zero.
func (l *locator) prefill(r io.ReaderAt, size, regionStart int64) {
	for i := range l.entries {
		if l.located[i] {
			continue
		}

		chunk := l.buf[int64(i)*l.window : int64(i)*l.window+l.chunkLength(i)]
		clear(chunk)

		off := regionStart + int64(i)*l.window + l.displacement(i, regionStart)
		lo, hi := max(off, 0), min(off+int64(len(chunk)), size)
		if lo < hi {
			_, _ = readFullAt(r, chunk[lo-off:hi-off], lo)
		}

		l.verified[i] = codec.Checksum(chunk, int(l.window)) == l.entries[i]
	}
}

// inferredStart returns the region start implied by the first uniquely
// located chunk, or fallback when there is none
func (l *locator) inferredStart(fallback int64) int64 {
	for i, located := range l.located {
		if located && l.unique(i) {
			return l.found[i] - int64(i)*l.window
		}
	}
	return fallback
}

func (l *locator) unique(i int) bool {
	for _, d := range l.defs[l.entries[i].Hash] {
		if d.index == i {
			return d.unique
		}
	}
	return false
}

// minFoundOffset returns the smallest offset a chunk was located at, or -1
func (l *locator) minFoundOffset() int64 {
	m := int64(-1)
	for i, located := range l.located {
		if located && (m < 0 || l.found[i] < m) {
			m = l.found[i]
		}
	}
	return m
}

// intact reports whether chunk i holds its original bytes
func (l *locator) intact(i int) bool {
	return l.located[i] || l.verified[i]
}

// intactRange reports whether every chunk overlapping [lo, hi) of the region is intact
func (l *locator) intactRange(lo, hi int64) bool {
	for i := lo / l.window; i*l.window < hi; i++ {
		if !l.intact(int(i)) {
			return false
		}
	}
	return true
}

func (l *locator) counts() (located, verified, unlocated int) {
	for i := range l.entries {
		switch {
		case l.located[i]:
			located++
		case l.verified[i]:
			verified++
		default:
			unlocated++
		}
	}
	return located, verified, unlocated
}
