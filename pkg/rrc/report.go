package rrc

import (
	"time"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/rrc/pkg/ecc"
)

// LayerReport describes how one layer was decoded
type LayerReport struct {
	Depth      int // 1 for the layer next to the anchor
	Shape      ecc.Shape
	BlockCount int
	DataLength int64
	EccLength  int64
	Last       bool

	Chunks    int // Positioning entries in the layer
	Located   int // Chunks found by content
	Verified  int // Unlocated chunks whose inferred bytes matched their checksum
	Unlocated int // Chunks left to error correction

	SearchStart    int64
	SearchEnd      int64
	ScannedBytes   int64
	RegionStart    int64 // Inferred physical start of the protected region
	MinFoundOffset int64 // Smallest offset a chunk was found at, -1 when none was

	CorrectedSymbols int
	Codewords        []ecc.CodewordFix
}

// Report summarizes an encode or decode run
type Report struct {
	RunID     ksuid.KSUID
	Operation string
	Shape     ecc.Shape

	InputLength     int64 // Original input bytes
	ContainerLength int64 // Store length including every layer and the anchor

	Plan *Plan // Set by encode runs

	AnchorStart      int64 // Set by decode runs
	AnchorVotes      int
	AnchorCandidates int
	Layers           []LayerReport // Decode order, outermost first

	CorrectedSymbols int
	Duration         time.Duration
}

// UnlocatedBlocks returns the number of chunks that were neither located nor verified
func (r *Report) UnlocatedBlocks() int {
	n := 0
	for _, l := range r.Layers {
		n += l.Unlocated
	}
	return n
}

func newReport(operation string) *Report {
	return &Report{RunID: ksuid.New(), Operation: operation, AnchorStart: -1}
}
