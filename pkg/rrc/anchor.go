package rrc

import (
	"bytes"
	"fmt"

	"github.com/ssargent/rrc/pkg/codec"
	"github.com/ssargent/rrc/pkg/store"
)

// anchorSpan returns how many bytes from the end of a store are scanned for
// anchor copies: enough for every copy of the largest payload and one more
func anchorSpan(repetitions int) int64 {
	return int64(repetitions+1) * (codec.MaxAnchorPayload + codec.AnchorOverhead)
}

func writeAnchor(s store.Store, offset int64, remnant []byte, repetitions int) error {
	buf := make([]byte, 0, repetitions*(len(remnant)+codec.AnchorOverhead))
	for i := 0; i < repetitions; i++ {
		var err error
		if buf, err = codec.AppendAnchor(buf, remnant); err != nil {
			return newError(KindParameterInfeasible, 0, 0, 0, err)
		}
	}

	if _, err := s.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("write anchor: %w", err)
	}
	return nil
}

type anchorCandidate struct {
	payload  []byte
	votes    int
	minStart int64 // Smallest start offset of a copy
	maxEnd   int64 // Largest end offset of a copy
}

// anchorResult is the recovered root remnant and where its copies begin
type anchorResult struct {
	remnant    []byte
	start      int64
	votes      int
	candidates int
}

// decodeAnchor recovers the root remnant from the tail of s by majority vote
// among CRC-valid copies whose payload parses as layer metadata
func decodeAnchor(s store.Store, size int64, repetitions int) (anchorResult, error) {
	from := size - anchorSpan(repetitions)
	if from < 0 {
		from = 0
	}

	buf := make([]byte, size-from)
	if _, err := readFullAt(s, buf, from); err != nil {
		return anchorResult{}, fmt.Errorf("read anchor: %w", err)
	}

	byContent := make(map[string]*anchorCandidate)
	var order []*anchorCandidate
	for end := len(buf); end >= codec.AnchorOverhead; end-- {
		payload, start, ok := codec.ParseAnchorAt(buf, end)
		if !ok || len(payload) == 0 {
			continue
		}

		c, seen := byContent[string(payload)]
		if !seen {
			if _, err := codec.ParseMetadata(payload); err != nil {
				continue
			}
			c = &anchorCandidate{payload: payload, minStart: from + int64(start), maxEnd: from + int64(end)}
			byContent[string(payload)] = c
			order = append(order, c)
		}
		c.votes++
		c.minStart = min(c.minStart, from+int64(start))
	}

	// order is by descending end offset, so the first of equal votes ends nearest the tail
	var winner *anchorCandidate
	for _, c := range order {
		if winner == nil || c.votes > winner.votes {
			winner = c
		}
	}
	if winner == nil {
		return anchorResult{}, newError(KindAnchorUnrecoverable, 0, from, size,
			fmt.Errorf("no valid anchor copy in the last %d bytes", size-from))
	}

	return anchorResult{
		remnant:    append([]byte(nil), winner.payload...),
		start:      anchorStart(s, winner, repetitions),
		votes:      winner.votes,
		candidates: len(order),
	}, nil
}

// anchorStart finds where the first anchor copy begins. The in-file copy of the
// remnant ends exactly there, so earlier copy boundaries are tried until the
// preceding bytes match it. Without a match the earliest intact copy is used.
func anchorStart(s store.Store, c *anchorCandidate, repetitions int) int64 {
	copyLen := int64(len(c.payload) + codec.AnchorOverhead)
	intact := (c.maxEnd - c.minStart) / copyLen
	prev := make([]byte, len(c.payload))

	for k := int64(0); k <= int64(repetitions)-intact; k++ {
		start := c.minStart - k*copyLen
		if start-int64(len(prev)) < 0 {
			break
		}
		if _, err := readFullAt(s, prev, start-int64(len(prev))); err != nil {
			break
		}
		if bytes.Equal(prev, c.payload) {
			return start
		}
	}
	return c.minStart
}
