package rrc

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/ssargent/rrc/pkg/ecc"
	"github.com/ssargent/rrc/pkg/metrics"
)

const (
	DefaultCorruptionRatio     = 0.05
	DefaultRepetitions         = 32
	DefaultRepetitionThreshold = 64
	DefaultSearchMultiplier    = 3

	// maxLayers bounds the layer count when encoding and decoding
	maxLayers = 64
)

// Options configures an Encoder or Decoder
type Options struct {
	CorruptionRatio     float64 // Fraction of symbols per codeword that may be corrupted
	Repetitions         int     // Copies of the anchor written at the end of the container
	RepetitionThreshold int     // Remnant size at which layering stops
	SearchMultiplier    int     // Search range in multiples of a layer's region length
	ThroughputBudget    int64   // Bytes one matrix may span; caps the block count
	Workers             int     // Matrices corrected concurrently

	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Progress ecc.Progress
}

// DefaultOptions returns the default codec options
func DefaultOptions() Options {
	return Options{
		CorruptionRatio:     DefaultCorruptionRatio,
		Repetitions:         DefaultRepetitions,
		RepetitionThreshold: DefaultRepetitionThreshold,
		SearchMultiplier:    DefaultSearchMultiplier,
		ThroughputBudget:    ecc.DefaultThroughputBudget,
		Workers:             runtime.GOMAXPROCS(0),
	}
}

// withDefaults fills zero fields with their defaults
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CorruptionRatio == 0 {
		o.CorruptionRatio = d.CorruptionRatio
	}
	if o.Repetitions == 0 {
		o.Repetitions = d.Repetitions
	}
	if o.RepetitionThreshold == 0 {
		o.RepetitionThreshold = d.RepetitionThreshold
	}
	if o.SearchMultiplier == 0 {
		o.SearchMultiplier = d.SearchMultiplier
	}
	if o.ThroughputBudget == 0 {
		o.ThroughputBudget = d.ThroughputBudget
	}
	if o.Workers == 0 {
		o.Workers = d.Workers
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Validate checks option ranges
func (o Options) Validate() error {
	if o.Repetitions < 1 {
		return fmt.Errorf("repetitions must be positive, got %d", o.Repetitions)
	}
	if o.RepetitionThreshold < 1 || o.RepetitionThreshold > 255 {
		return fmt.Errorf("repetition threshold must be in [1,255], got %d", o.RepetitionThreshold)
	}
	if o.SearchMultiplier < 1 {
		return fmt.Errorf("search multiplier must be at least 1, got %d", o.SearchMultiplier)
	}
	if o.ThroughputBudget < 1 {
		return fmt.Errorf("throughput budget must be positive, got %d", o.ThroughputBudget)
	}
	if o.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", o.Workers)
	}
	return nil
}

func (o Options) engineOptions() []ecc.Option {
	return []ecc.Option{
		ecc.WithThroughputBudget(o.ThroughputBudget),
		ecc.WithWorkers(o.Workers),
	}
}
