package rrc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ssargent/rrc/pkg/codec"
	"github.com/ssargent/rrc/pkg/ecc"
	"github.com/ssargent/rrc/pkg/store"
)

type decodeState int

const (
	stateAnchorPending decodeState = iota
	stateLayerPending
	stateDone
)

// layerInput is what the decoder knows about a layer before decoding it
type layerInput struct {
	depth      int
	blob       []byte // Positioning table and trailer
	blobStart  int64  // Physical offset the blob was read from or inferred at
	nominalEnd int64  // Where the protected region should end
	searchEnd  int64  // Exclusive end of the locator search range
}

// Decoder recovers the input of recursive redundancy containers
type Decoder struct {
	opts Options
}

// NewDecoder creates a decoder
func NewDecoder(opts Options) (*Decoder, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{opts: opts}, nil
}

// Decode recovers the original input from src and writes it to w
func (d *Decoder) Decode(ctx context.Context, src store.Store, w io.Writer) (*Report, error) {
	payload, report, err := d.run(ctx, src, "decode")
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(payload); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	return report, nil
}

// Verify decodes src without producing output and reports what was repaired
func (d *Decoder) Verify(ctx context.Context, src store.Store) (*Report, error) {
	_, report, err := d.run(ctx, src, "verify")
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Strip decodes s, writes the recovered input back from offset 0 and
// truncates the container away
func (d *Decoder) Strip(ctx context.Context, s store.Store) (*Report, error) {
	payload, report, err := d.run(ctx, s, "strip")
	if err != nil {
		return nil, err
	}

	if _, err := s.WriteAt(payload, 0); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}
	if err := s.Truncate(int64(len(payload))); err != nil {
		return nil, fmt.Errorf("truncate container: %w", err)
	}
	if err := s.Sync(); err != nil {
		return nil, fmt.Errorf("sync input: %w", err)
	}
	return report, nil
}

func (d *Decoder) run(ctx context.Context, src store.Store, operation string) (payload []byte, report *Report, err error) {
	start := time.Now()
	report = newReport(operation)
	log := d.opts.Logger.With(zap.Stringer("run", report.RunID), zap.String("operation", operation))

	defer func() {
		report.Duration = time.Since(start)
		recordOperation(d.opts, operation, report, err)
		if err != nil {
			log.Debug("decode failed", zap.Error(err), zap.Int("layers", len(report.Layers)))
		}
	}()

	size, err := src.Size()
	if err != nil {
		return nil, report, fmt.Errorf("stat container: %w", err)
	}
	report.ContainerLength = size

	var in layerInput
	for state := stateAnchorPending; state != stateDone; {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		switch state {
		case stateAnchorPending:
			anchor, err := decodeAnchor(src, size, d.opts.Repetitions)
			if err != nil {
				return nil, report, err
			}

			report.AnchorStart = anchor.start
			report.AnchorVotes = anchor.votes
			report.AnchorCandidates = anchor.candidates
			if d.opts.Metrics != nil {
				d.opts.Metrics.RecordAnchor(anchor.votes)
			}
			log.Debug("anchor recovered",
				zap.Int64("start", anchor.start),
				zap.Int("remnant", len(anchor.remnant)),
				zap.Int("votes", anchor.votes),
				zap.Int("candidates", anchor.candidates))

			nominalEnd := anchor.start - int64(len(anchor.remnant))
			in = layerInput{
				depth:      1,
				blob:       anchor.remnant,
				blobStart:  nominalEnd,
				nominalEnd: nominalEnd,
				searchEnd:  anchor.start,
			}
			state = stateLayerPending

		case stateLayerPending:
			if in.depth > maxLayers {
				return nil, report, newError(KindTrailerCorrupt, in.depth, in.blobStart, in.blobStart+int64(len(in.blob)),
					fmt.Errorf("more than %d layers", maxLayers))
			}

			out, layer, err := d.decodeLayer(ctx, src, size, in)
			if err != nil {
				return nil, report, err
			}
			report.Layers = append(report.Layers, layer)
			report.CorrectedSymbols += layer.CorrectedSymbols
			d.logLayer(log, layer)

			if layer.Last {
				payload = out
				state = stateDone
				break
			}
			in = layerInput{
				depth:      in.depth + 1,
				blob:       out,
				blobStart:  layer.RegionStart,
				nominalEnd: layer.RegionStart,
				searchEnd:  layer.RegionStart,
			}
		}
	}

	report.Shape = report.Layers[0].Shape
	report.InputLength = int64(len(payload))
	log.Info("container decoded",
		zap.Int64("input", report.InputLength),
		zap.Int("layers", len(report.Layers)),
		zap.Int("corrected_symbols", report.CorrectedSymbols),
		zap.Int("unlocated_blocks", report.UnlocatedBlocks()))

	return payload, report, nil
}

// checkTrailer rejects trailers whose geometry cannot describe a region of this store
func checkTrailer(t codec.Trailer, shape ecc.Shape, size int64) error {
	if err := shape.Validate(); err != nil {
		return err
	}
	if want := ecc.ParityLength(shape, int64(t.DataLength), int(t.BlockCount)); int64(t.EccLength) != want {
		return fmt.Errorf("ecc length %d, shape %s with %d blocks implies %d", t.EccLength, shape, t.BlockCount, want)
	}
	if t.RegionLength() > 2*size {
		return fmt.Errorf("region of %d bytes exceeds twice the %d byte store", t.RegionLength(), size)
	}
	if t.ChunkSize() > t.RegionLength()+int64(t.DataSize) {
		return fmt.Errorf("chunk of %d bytes exceeds the %d byte region", t.ChunkSize(), t.RegionLength())
	}
	return nil
}

func (d *Decoder) decodeLayer(ctx context.Context, src store.Store, size int64, in layerInput) ([]byte, LayerReport, error) {
	blobEnd := in.blobStart + int64(len(in.blob))

	meta, err := codec.ParseMetadata(in.blob)
	if err != nil {
		return nil, LayerReport{}, newError(KindTrailerCorrupt, in.depth, in.blobStart, blobEnd, err)
	}
	t := meta.Trailer
	shape := ecc.Shape{DataSize: int(t.DataSize), EccSize: int(t.EccSize)}
	if err := checkTrailer(t, shape, size); err != nil {
		return nil, LayerReport{}, newError(KindTrailerCorrupt, in.depth, in.blobStart, blobEnd, err)
	}

	region := t.RegionLength()
	window := t.ChunkSize()
	regionStart := in.nominalEnd - region
	searchStart := max(0, in.nominalEnd-int64(d.opts.SearchMultiplier)*region)
	searchEnd := min(in.searchEnd, size)

	buf := make([]byte, region)
	loc := newLocator(meta.Entries, window, buf)
	loc.checkNominal(src, size, regionStart)
	if err := loc.scan(ctx, src, searchStart, searchEnd); err != nil {
		return nil, LayerReport{}, fmt.Errorf("layer %d: locate blocks: %w", in.depth, err)
	}
	loc.prefill(src, size, regionStart)
	found, err := loc.scanTail(ctx, src, searchStart, searchEnd)
	if err != nil {
		return nil, LayerReport{}, fmt.Errorf("layer %d: locate final block: %w", in.depth, err)
	}
	if found {
		loc.prefill(src, size, regionStart)
	}

	layer := LayerReport{
		Depth:          in.depth,
		Shape:          shape,
		BlockCount:     int(t.BlockCount),
		DataLength:     int64(t.DataLength),
		EccLength:      int64(t.EccLength),
		Last:           t.Last,
		Chunks:         len(meta.Entries),
		SearchStart:    searchStart,
		SearchEnd:      searchEnd,
		ScannedBytes:   loc.scanned,
		RegionStart:    loc.inferredStart(regionStart),
		MinFoundOffset: loc.minFoundOffset(),
	}
	layer.Located, layer.Verified, layer.Unlocated = loc.counts()
	if d.opts.Metrics != nil {
		d.opts.Metrics.RecordLayer("decode", region)
		d.opts.Metrics.RecordBlocks(layer.Located, layer.Verified, layer.Unlocated, layer.ScannedBytes)
	}

	engine, err := ecc.NewEngine(shape, d.opts.engineOptions()...)
	if err != nil {
		return nil, layer, newError(KindTrailerCorrupt, in.depth, in.blobStart, blobEnd, err)
	}

	// A matrix is skipped only when its payload and parity both lie in intact chunks
	parityRows := int64(shape.EccSize)
	fix, err := engine.InterleavedErrorCorrection(ctx, buf, layer.DataLength, layer.BlockCount,
		func(off, n int64) bool {
			cols := (n + int64(shape.DataSize) - 1) / int64(shape.DataSize)
			parityOff := layer.DataLength + off/window*int64(layer.BlockCount)*parityRows
			return loc.intactRange(off, off+n) && loc.intactRange(parityOff, parityOff+parityRows*cols)
		}, d.opts.Progress)

	var uncorrectable *ecc.UncorrectableError
	if errors.As(err, &uncorrectable) {
		var cause error = uncorrectable
		if layer.Unlocated > 0 {
			cause = errors.Join(cause, newError(KindBlockNotLocated, in.depth, layer.RegionStart, layer.RegionStart+region,
				fmt.Errorf("%d of %d blocks not located", layer.Unlocated, layer.Chunks)))
		}
		start := layer.RegionStart + uncorrectable.Offset
		return nil, layer, newError(KindUncorrectableCodeword, in.depth, start, start+uncorrectable.Length, cause)
	}
	if err != nil {
		return nil, layer, fmt.Errorf("layer %d: correct: %w", in.depth, err)
	}

	layer.CorrectedSymbols = fix.Symbols
	layer.Codewords = fix.Codewords
	if d.opts.Metrics != nil {
		d.opts.Metrics.RecordCorrection(fix.Symbols, len(fix.Codewords))
	}

	// A miscorrection can turn a chunk into a different valid codeword sequence.
	// Every chunk is checked, including the one straddling payload and parity.
	for i := range meta.Entries {
		lo, hi := int64(i)*window, min(int64(i+1)*window, region)
		if codec.Checksum(buf[lo:hi], int(window)) != meta.Entries[i] {
			return nil, layer, newError(KindUncorrectableCodeword, in.depth, layer.RegionStart+lo, layer.RegionStart+hi,
				fmt.Errorf("chunk %d fails its checksum after correction", i))
		}
	}

	return buf[:layer.DataLength], layer, nil
}

func (d *Decoder) logLayer(log *zap.Logger, layer LayerReport) {
	fields := []zap.Field{
		zap.Int("depth", layer.Depth),
		zap.Stringer("shape", layer.Shape),
		zap.Int("block_count", layer.BlockCount),
		zap.Int64("data_length", layer.DataLength),
		zap.Int64("region_start", layer.RegionStart),
		zap.Int("located", layer.Located),
		zap.Int("verified", layer.Verified),
		zap.Int("unlocated", layer.Unlocated),
		zap.Int("corrected_symbols", layer.CorrectedSymbols),
		zap.Bool("last", layer.Last),
	}

	if layer.Unlocated > 0 || layer.CorrectedSymbols > 0 {
		log.Warn("layer repaired", fields...)
		return
	}
	log.Debug("layer decoded", fields...)
}
