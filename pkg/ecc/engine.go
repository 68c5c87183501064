package ecc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"storj.io/infectious"
)

// DefaultThroughputBudget bounds the bytes spanned by the columns of one matrix
const DefaultThroughputBudget = 1 << 20

// Progress receives the number of payload bytes processed since the last call.
// Calls never overlap, but during correction they may come from different
// worker goroutines.
type Progress func(n int64)

// Verified reports whether the payload range [off, off+n) is already known to be intact
type Verified func(off, n int64) bool

// CodewordFix records the symbols repaired in one codeword
type CodewordFix struct {
	Matrix  int // Index of the interleaved matrix
	Column  int // Codeword index within the matrix
	Symbols int // Symbols changed by the correction
}

// Correction summarizes an interleaved error correction pass
type Correction struct {
	Symbols   int           // Total symbols corrected
	Codewords []CodewordFix // Codewords that needed correction, in matrix/column order
	Matrices  int           // Matrices in the region
	Skipped   int           // Matrices skipped because their payload was verified
}

// UncorrectableError reports a matrix holding more errors than its codewords can correct
type UncorrectableError struct {
	Matrix int
	Offset int64 // Payload offset of the matrix
	Length int64 // Payload bytes in the matrix
	Err    error
}

func (e *UncorrectableError) Error() string {
	return fmt.Sprintf("uncorrectable matrix %d at payload [%d,%d): %v", e.Matrix, e.Offset, e.Offset+e.Length, e.Err)
}

func (e *UncorrectableError) Unwrap() error {
	return e.Err
}

var errPaddingDamaged = errors.New("correction altered zero padding")

// Option configures an Engine
type Option func(*Engine)

// WithThroughputBudget sets the byte budget used to cap the block count
func WithThroughputBudget(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.budget = n
		}
	}
}

// WithWorkers sets how many matrices are corrected concurrently
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// Engine encodes and corrects interleaved Reed-Solomon codewords of one shape.
//
// A payload is cut into matrices of DataSize rows by blockCount columns stored
// row-major, so column c of every row belongs to codeword c. Each matrix is
// followed in the parity stream by EccSize rows of the same width.
type Engine struct {
	shape   Shape
	budget  int64
	workers int
	fecs    chan *infectious.FEC
}

// NewEngine creates an engine for the given shape
func NewEngine(shape Shape, opts ...Option) (*Engine, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		shape:   shape,
		budget:  DefaultThroughputBudget,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.fecs = make(chan *infectious.FEC, e.workers)

	return e, nil
}

// Shape returns the engine's codeword shape
func (e *Engine) Shape() Shape {
	return e.shape
}

// DataSize returns the data symbols per codeword
func (e *Engine) DataSize() int {
	return e.shape.DataSize
}

// EccSize returns the parity symbols per codeword
func (e *Engine) EccSize() int {
	return e.shape.EccSize
}

// MaxThroughputBlocks returns the largest block count the throughput budget allows
func (e *Engine) MaxThroughputBlocks() int {
	n := e.budget / int64(e.shape.MaxErrors())
	if n < 1 {
		return 1
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// BlockCount returns the number of interleaved codewords per matrix for a payload
func (e *Engine) BlockCount(payloadLength int64) int {
	d := int64(e.shape.DataSize)
	n := (payloadLength + d - 1) / d
	if limit := int64(e.MaxThroughputBlocks()); n > limit {
		n = limit
	}
	if n < 1 {
		n = 1
	}
	return int(n)
}

// ParityLength returns the parity bytes generated for a payload
func ParityLength(shape Shape, dataLength int64, blockCount int) int64 {
	full := int64(blockCount) * int64(shape.DataSize)
	matrices := dataLength / full
	rem := dataLength % full
	tailColumns := (rem + int64(shape.DataSize) - 1) / int64(shape.DataSize)
	return (matrices*int64(blockCount) + tailColumns) * int64(shape.EccSize)
}

// ParityLength returns the parity bytes this engine generates for a payload
func (e *Engine) ParityLength(dataLength int64, blockCount int) int64 {
	return ParityLength(e.shape, dataLength, blockCount)
}

func (e *Engine) getFEC() (*infectious.FEC, error) {
	select {
	case f := <-e.fecs:
		return f, nil
	default:
		return infectious.NewFEC(e.shape.DataSize, e.shape.Codeword())
	}
}

func (e *Engine) putFEC(f *infectious.FEC) {
	select {
	case e.fecs <- f:
	default:
	}
}

// GenerateInterleavedCode reads the payload from r until EOF and writes only
// its parity to w. It returns the number of parity bytes written.
func (e *Engine) GenerateInterleavedCode(ctx context.Context, r io.Reader, w io.Writer, blockCount int, progress Progress) (int64, error) {
	if blockCount < 1 {
		return 0, fmt.Errorf("block count %d must be positive", blockCount)
	}

	fec, err := e.getFEC()
	if err != nil {
		return 0, fmt.Errorf("create codec: %w", err)
	}
	defer e.putFEC(fec)

	d, p := e.shape.DataSize, e.shape.EccSize
	matrix := make([]byte, d*blockCount)
	parity := make([]byte, p*blockCount)

	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, err := io.ReadFull(r, matrix)
		if err == io.EOF {
			break
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return written, fmt.Errorf("read payload: %w", err)
		}

		columns := blockCount
		if n < len(matrix) {
			columns = (n + d - 1) / d
			clear(matrix[n : columns*d])
		}

		err = fec.Encode(matrix[:columns*d], func(s infectious.Share) {
			if s.Number >= d {
				copy(parity[(s.Number-d)*columns:], s.Data)
			}
		})
		if err != nil {
			return written, fmt.Errorf("encode matrix: %w", err)
		}

		m, err := w.Write(parity[:p*columns])
		written += int64(m)
		if err != nil {
			return written, fmt.Errorf("write parity: %w", err)
		}
		if progress != nil {
			progress(int64(n))
		}

		if n < len(matrix) {
			break
		}
	}

	return written, nil
}

type matrixTask struct {
	index     int
	dataOff   int64
	dataLen   int64
	columns   int
	parityOff int64
}

func (e *Engine) matrices(dataLength int64, blockCount int) []matrixTask {
	full := int64(blockCount) * int64(e.shape.DataSize)
	var tasks []matrixTask
	for off, m := int64(0), 0; off < dataLength; off, m = off+full, m+1 {
		n := full
		if dataLength-off < n {
			n = dataLength - off
		}
		tasks = append(tasks, matrixTask{
			index:     m,
			dataOff:   off,
			dataLen:   n,
			columns:   int((n + int64(e.shape.DataSize) - 1) / int64(e.shape.DataSize)),
			parityOff: dataLength + int64(m)*int64(blockCount)*int64(e.shape.EccSize),
		})
	}
	return tasks
}

// InterleavedErrorCorrection corrects buf in place. buf holds dataLength
// payload bytes followed by their parity. Matrices whose payload is reported
// by verified are left untouched.
func (e *Engine) InterleavedErrorCorrection(ctx context.Context, buf []byte, dataLength int64, blockCount int, verified Verified, progress Progress) (Correction, error) {
	if blockCount < 1 {
		return Correction{}, fmt.Errorf("block count %d must be positive", blockCount)
	}
	if want := dataLength + e.ParityLength(dataLength, blockCount); int64(len(buf)) != want {
		return Correction{}, fmt.Errorf("buffer holds %d bytes, want %d", len(buf), want)
	}

	tasks := e.matrices(dataLength, blockCount)
	result := Correction{Matrices: len(tasks)}

	var mu sync.Mutex
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError().WithMaxGoroutines(e.workers)
	for _, task := range tasks {
		if verified != nil && verified(task.dataOff, task.dataLen) {
			result.Skipped++
			if progress != nil {
				mu.Lock()
				progress(task.dataLen)
				mu.Unlock()
			}
			continue
		}

		task := task
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			fixes, err := e.correctMatrix(buf, task)
			if err != nil {
				return &UncorrectableError{Matrix: task.index, Offset: task.dataOff, Length: task.dataLen, Err: err}
			}

			mu.Lock()
			for _, f := range fixes {
				result.Symbols += f.Symbols
			}
			result.Codewords = append(result.Codewords, fixes...)
			if progress != nil {
				progress(task.dataLen)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return result, err
	}

	sort.Slice(result.Codewords, func(i, j int) bool {
		a, b := result.Codewords[i], result.Codewords[j]
		if a.Matrix != b.Matrix {
			return a.Matrix < b.Matrix
		}
		return a.Column < b.Column
	})
	return result, nil
}

func (e *Engine) correctMatrix(buf []byte, task matrixTask) ([]CodewordFix, error) {
	fec, err := e.getFEC()
	if err != nil {
		return nil, err
	}
	defer e.putFEC(fec)

	d, cols := e.shape.DataSize, task.columns
	rows := e.shape.Codeword()

	work := make([]byte, rows*cols)
	copy(work, buf[task.dataOff:task.dataOff+task.dataLen])
	copy(work[d*cols:], buf[task.parityOff:task.parityOff+int64(e.shape.EccSize*cols)])
	orig := append([]byte(nil), work...)

	shares := make([]infectious.Share, rows)
	for i := range shares {
		shares[i] = infectious.Share{Number: i, Data: work[i*cols : (i+1)*cols]}
	}
	if err := fec.Correct(shares); err != nil {
		return nil, err
	}
	// Correct replaces the Data of every share it repairs, sorted by Number
	for _, s := range shares {
		copy(work[s.Number*cols:(s.Number+1)*cols], s.Data)
	}

	for _, b := range work[task.dataLen : d*cols] {
		if b != 0 {
			return nil, errPaddingDamaged
		}
	}

	var fixes []CodewordFix
	for c := 0; c < cols; c++ {
		n := 0
		for r := 0; r < rows; r++ {
			if work[r*cols+c] != orig[r*cols+c] {
				n++
			}
		}
		if n > 0 {
			fixes = append(fixes, CodewordFix{Matrix: task.index, Column: c, Symbols: n})
		}
	}
	if len(fixes) == 0 {
		return nil, nil
	}

	copy(buf[task.dataOff:task.dataOff+task.dataLen], work[:task.dataLen])
	copy(buf[task.parityOff:], work[d*cols:])
	return fixes, nil
}
