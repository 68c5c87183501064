package codec

import (
	"hash/crc32"
)

// HashBase is the multiplier of the polynomial rolling hash
const HashBase uint32 = 809

var zeroPad [4096]byte

// RollingHash maintains the polynomial hash of a fixed-size sliding window
type RollingHash struct {
	sum    uint32
	pow    uint32 // HashBase^(window-1) mod 2^32
	window int
}

// NewRollingHash creates a rolling hash for windows of the given size
func NewRollingHash(window int) *RollingHash {
	pow := uint32(1)
	for i := 1; i < window; i++ {
		pow *= HashBase
	}
	return &RollingHash{pow: pow, window: window}
}

// Write appends bytes to the hash without dropping any
func (h *RollingHash) Write(p []byte) {
	sum := h.sum
	for _, b := range p {
		sum = sum*HashBase + uint32(b)
	}
	h.sum = sum
}

// Roll drops the oldest byte of the window and appends a new one
func (h *RollingHash) Roll(out, in byte) {
	h.sum = (h.sum-h.pow*uint32(out))*HashBase + uint32(in)
}

// Sum32 returns the current hash value
func (h *RollingHash) Sum32() uint32 {
	return h.sum
}

// Window returns the window size the hash was created for
func (h *RollingHash) Window() int {
	return h.window
}

// Reset clears the hash state
func (h *RollingHash) Reset() {
	h.sum = 0
}

// Hash computes the rolling hash of p from scratch
func Hash(p []byte) uint32 {
	var sum uint32
	for _, b := range p {
		sum = sum*HashBase + uint32(b)
	}
	return sum
}

// Checksum computes the positioning entry of a chunk, zero padding it to size bytes
func Checksum(chunk []byte, size int) PositioningEntry {
	sum := Hash(chunk)
	crc := crc32.ChecksumIEEE(chunk)

	for pad := size - len(chunk); pad > 0; {
		n := pad
		if n > len(zeroPad) {
			n = len(zeroPad)
		}
		for i := 0; i < n; i++ {
			sum *= HashBase
		}
		crc = crc32.Update(crc, crc32.IEEETable, zeroPad[:n])
		pad -= n
	}

	return PositioningEntry{Hash: sum, CRC: crc}
}
