// Package ecc selects Reed-Solomon shapes and runs interleaved Reed-Solomon
// encoding and error correction over GF(256).
package ecc

import (
	"errors"
	"fmt"
)

const (
	// MaxCodeword is the largest codeword (data + parity symbols) over GF(256)
	MaxCodeword = 255

	maxDataSize = 253
	ratioSlack  = 0.005
)

// ErrParameterInfeasible is returned when no shape meets the requested ratio
var ErrParameterInfeasible = errors.New("parameter infeasible")

// Shape is the data/parity symbol split of one codeword
type Shape struct {
	DataSize int
	EccSize  int
}

// Validate checks that the shape describes a usable GF(256) codeword
func (s Shape) Validate() error {
	if s.DataSize < 1 {
		return fmt.Errorf("invalid shape %s: data size must be positive", s)
	}
	if s.EccSize < 2 || s.EccSize%2 != 0 {
		return fmt.Errorf("invalid shape %s: ecc size must be even and at least 2", s)
	}
	if s.DataSize+s.EccSize > MaxCodeword {
		return fmt.Errorf("invalid shape %s: codeword exceeds %d symbols", s, MaxCodeword)
	}
	return nil
}

// Codeword returns the total number of symbols per codeword
func (s Shape) Codeword() int {
	return s.DataSize + s.EccSize
}

// MaxErrors returns how many symbol errors one codeword can correct
func (s Shape) MaxErrors() int {
	return s.EccSize / 2
}

// Ratio returns the fraction of symbols per codeword that may be corrupted
func (s Shape) Ratio() float64 {
	return float64(s.EccSize/2) / float64(s.DataSize+s.EccSize)
}

// Overhead returns the parity bytes added per payload byte
func (s Shape) Overhead() float64 {
	return float64(s.EccSize) / float64(s.DataSize)
}

func (s Shape) String() string {
	return fmt.Sprintf("RS(%d,%d)", s.DataSize, s.DataSize+s.EccSize)
}

// SelectShape picks the shape whose correctable ratio exceeds ratio by the
// smallest margin, provided the margin stays below 0.005
func SelectShape(ratio float64) (Shape, error) {
	if !(ratio > 0 && ratio < 1) {
		return Shape{}, fmt.Errorf("%w: ratio %v outside (0,1)", ErrParameterInfeasible, ratio)
	}

	var best Shape
	bestDelta := 1.0
	for dataSize := maxDataSize; dataSize > 0; dataSize-- {
		for eccSize := 2; dataSize+eccSize <= MaxCodeword; eccSize += 2 {
			s := Shape{DataSize: dataSize, EccSize: eccSize}
			delta := s.Ratio() - ratio
			if delta > 0 && delta < ratioSlack && delta < bestDelta {
				bestDelta = delta
				best = s
			}
		}
	}

	if best.DataSize == 0 {
		return Shape{}, fmt.Errorf("%w: no GF(256) shape corrects a ratio of %v", ErrParameterInfeasible, ratio)
	}
	return best, nil
}
