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

// Encoder writes recursive redundancy containers
type Encoder struct {
	opts   Options
	engine *ecc.Engine
}

// NewEncoder creates an encoder. It fails with ErrParameterInfeasible when no
// code shape meets the configured corruption ratio.
func NewEncoder(opts Options) (*Encoder, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	shape, err := ecc.SelectShape(opts.CorruptionRatio)
	if err != nil {
		return nil, newError(KindParameterInfeasible, 0, 0, 0, err)
	}
	engine, err := ecc.NewEngine(shape, opts.engineOptions()...)
	if err != nil {
		return nil, newError(KindParameterInfeasible, 0, 0, 0, err)
	}

	return &Encoder{opts: opts, engine: engine}, nil
}

// Shape returns the code shape selected for the configured corruption ratio
func (e *Encoder) Shape() ecc.Shape {
	return e.engine.Shape()
}

// Plan returns the container geometry for an input of the given length
func (e *Encoder) Plan(inputLength int64) (Plan, error) {
	return planLayers(e.engine, inputLength, e.opts)
}

// Encode copies r into dst from offset 0 and appends a container protecting it.
// Anything dst held beyond the copied input is discarded.
func (e *Encoder) Encode(ctx context.Context, r io.Reader, dst store.Store) (*Report, error) {
	w, err := store.NewAppendWriter(dst, store.AppendWriterConfig{})
	if err != nil {
		return nil, err
	}

	n, err := io.Copy(w, &contextReader{ctx: ctx, r: r})
	if err != nil {
		return nil, fmt.Errorf("copy input: %w", err)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("copy input: %w", err)
	}

	return e.protect(ctx, dst, n, "encode")
}

// Protect appends a container to s, which holds the input from offset 0
func (e *Encoder) Protect(ctx context.Context, s store.Store) (*Report, error) {
	size, err := s.Size()
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	return e.protect(ctx, s, size, "protect")
}

func (e *Encoder) protect(ctx context.Context, s store.Store, inputLength int64, operation string) (report *Report, err error) {
	start := time.Now()
	report = newReport(operation)
	report.Shape = e.engine.Shape()
	report.InputLength = inputLength

	log := e.opts.Logger.With(zap.Stringer("run", report.RunID), zap.String("operation", operation))
	defer func() {
		report.Duration = time.Since(start)
		recordOperation(e.opts, operation, report, err)
		if err != nil {
			report = nil
		}
	}()

	plan, err := e.Plan(inputLength)
	if err != nil {
		return report, err
	}
	report.Plan = &plan

	if err := s.Truncate(inputLength); err != nil {
		return report, fmt.Errorf("truncate to input: %w", err)
	}

	var remnant []byte
	for _, layer := range plan.Layers {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		remnant, err = e.encodeLayer(ctx, s, layer)
		if err != nil {
			return report, fmt.Errorf("layer %d: %w", layer.Index, err)
		}

		log.Debug("layer written",
			zap.Int("layer", layer.Index),
			zap.Int64("offset", layer.Offset),
			zap.Int64("payload", layer.PayloadLength),
			zap.Int64("parity", layer.ParityLength),
			zap.Int("block_count", layer.BlockCount),
			zap.Int("entries", layer.EntryCount))
		if e.opts.Metrics != nil {
			e.opts.Metrics.RecordLayer(operation, layer.RegionLength())
		}
	}

	if err := writeAnchor(s, plan.ContainerLength-plan.AnchorLength(), remnant, plan.Repetitions); err != nil {
		return report, err
	}
	if err := s.Sync(); err != nil {
		return report, fmt.Errorf("sync container: %w", err)
	}

	report.ContainerLength = plan.ContainerLength
	log.Info("container written",
		zap.Stringer("shape", plan.Shape),
		zap.Int64("input", inputLength),
		zap.Int64("container", plan.ContainerLength),
		zap.Int("layers", len(plan.Layers)),
		zap.Int("remnant", plan.RemnantLength))

	return report, nil
}

// encodeLayer writes the parity, positioning table and trailer of one layer
// and returns the metadata blob that becomes the next layer's payload
func (e *Encoder) encodeLayer(ctx context.Context, s store.Store, layer LayerPlan) ([]byte, error) {
	shape := e.engine.Shape()
	parityOffset := layer.Offset + layer.PayloadLength

	w, err := store.NewAppendWriter(s, store.AppendWriterConfig{Offset: parityOffset})
	if err != nil {
		return nil, err
	}
	r := store.NewRangeReader(s, layer.Offset, layer.PayloadLength, 0)

	n, err := e.engine.GenerateInterleavedCode(ctx, r, w, layer.BlockCount, e.opts.Progress)
	if err != nil {
		return nil, err
	}
	if n != layer.ParityLength {
		return nil, fmt.Errorf("wrote %d parity bytes, planned %d", n, layer.ParityLength)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("write parity: %w", err)
	}

	meta := codec.Metadata{
		Entries: make([]codec.PositioningEntry, 0, layer.EntryCount),
		Trailer: codec.Trailer{
			DataSize:   uint8(shape.DataSize),
			EccSize:    uint8(shape.EccSize),
			BlockCount: uint32(layer.BlockCount),
			DataLength: uint64(layer.PayloadLength),
			EccLength:  uint64(layer.ParityLength),
			Last:       layer.Last,
		},
	}

	chunk := layer.ChunkSize(shape)
	region := layer.RegionLength()
	buf := make([]byte, min(chunk, region))
	cr := store.NewRangeReader(s, layer.Offset, region, 0)
	for off := int64(0); off < region; off += chunk {
		n := min(chunk, region-off)
		if _, err := io.ReadFull(cr, buf[:n]); err != nil {
			return nil, fmt.Errorf("read region: %w", err)
		}
		meta.Entries = append(meta.Entries, codec.Checksum(buf[:n], int(chunk)))
	}

	blob := meta.AppendBinary(nil)
	if int64(len(blob)) != layer.MetadataLength {
		return nil, fmt.Errorf("metadata of %d bytes, planned %d", len(blob), layer.MetadataLength)
	}
	if _, err := s.WriteAt(blob, parityOffset+layer.ParityLength); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	return blob, nil
}

func recordOperation(opts Options, operation string, report *Report, err error) {
	if opts.Metrics == nil {
		return
	}

	opts.Metrics.RecordOperation(operation, err == nil, report.InputLength, report.Duration)
	if err == nil {
		return
	}

	var codecErr *CodecError
	if errors.As(err, &codecErr) {
		opts.Metrics.RecordFailure(codecErr.Kind.String())
	} else {
		opts.Metrics.RecordFailure("other")
	}
}

// contextReader stops a copy once its context is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

func readFullAt(r io.ReaderAt, p []byte, off int64) (int, error) {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return n, nil
	}
	return n, err
}
