// Package codec provides the binary building blocks of a Recursive Redundancy
// Container (RRC).
//
// The codec package knows nothing about Reed-Solomon arithmetic or byte stores.
// It only defines how the self-describing pieces of a container are laid out
// on disk and how they are checksummed, so that the encoder and the decoder in
// package rrc agree byte for byte.
//
// # Layer Metadata
//
// Every layer of a container ends with a metadata blob:
//
//	[PositioningEntry * N][Trailer][SelfLength(1)]
//
// A PositioningEntry is 8 bytes:
//
//	[RollingHash(4)][CRC32(4)]
//
// Both fields are little-endian and describe one chunk of BlockCount*DataSize
// bytes of the layer's protected region. A short final chunk is zero padded
// before it is hashed.
//
// The trailer is:
//
//	[Kind(1)][DataSize(1)][EccSize(1)][BlockCount(uvarint)]
//	[DataLength(uvarint)][EccLength(uvarint)][Flags(1)][CRC32(4)]
//
// followed by a single self-length byte that holds the size of the trailer
// (excluding that byte). The self-length byte is the only index a reader needs
// to find the trailer from the end of a buffer. The trailer CRC32 covers every
// trailer byte before it.
//
// # Repetition Anchor
//
// The innermost metadata blob is stored without any error correction as
//
//	[Payload][CRC32(4)][Length(1)]
//
// repeated a fixed number of times at the very end of the container. A reader
// scans backwards for copies whose CRC32 validates and takes a majority vote.
//
// # Rolling Hash
//
// Chunks are located by content using a 32-bit polynomial rolling hash with
// base 809 over unsigned bytes:
//
//	h = sum(b[i] * 809^(n-1-i)) mod 2^32
//
// RollingHash slides the window one byte at a time in O(1).
//
// # Thread Safety
//
// All encoding and parsing functions are pure and safe for concurrent use.
// A RollingHash value must not be shared between goroutines.
package codec
