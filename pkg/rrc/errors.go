package rrc

import (
	"fmt"
)

// Kind classifies codec failures
type Kind int

const (
	KindParameterInfeasible Kind = iota + 1
	KindAnchorUnrecoverable
	KindTrailerCorrupt
	KindBlockNotLocated
	KindUncorrectableCodeword
)

func (k Kind) String() string {
	switch k {
	case KindParameterInfeasible:
		return "parameter infeasible"
	case KindAnchorUnrecoverable:
		return "anchor unrecoverable"
	case KindTrailerCorrupt:
		return "trailer corrupt"
	case KindBlockNotLocated:
		return "block not located"
	case KindUncorrectableCodeword:
		return "uncorrectable codeword"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Errors
var (
	ErrParameterInfeasible   = &CodecError{Kind: KindParameterInfeasible}
	ErrAnchorUnrecoverable   = &CodecError{Kind: KindAnchorUnrecoverable}
	ErrTrailerCorrupt        = &CodecError{Kind: KindTrailerCorrupt}
	ErrBlockNotLocated       = &CodecError{Kind: KindBlockNotLocated}
	ErrUncorrectableCodeword = &CodecError{Kind: KindUncorrectableCodeword}
)

// CodecError represents a codec failure. errors.Is matches any two
// CodecErrors of the same kind, so the Err* values can be used as targets.
type CodecError struct {
	Kind  Kind
	Layer int   // Decode depth, 1 being the layer next to the anchor; 0 when not tied to a layer
	Start int64 // Physical byte range the failure concerns
	End   int64
	Err   error
}

func (e *CodecError) Error() string {
	msg := e.Kind.String()
	if e.Layer > 0 {
		msg = fmt.Sprintf("%s in layer %d at [%d,%d)", msg, e.Layer, e.Start, e.End)
	} else if e.End > e.Start {
		msg = fmt.Sprintf("%s at [%d,%d)", msg, e.Start, e.End)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

func (e *CodecError) Is(target error) bool {
	t, ok := target.(*CodecError)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, layer int, start, end int64, err error) *CodecError {
	return &CodecError{Kind: kind, Layer: layer, Start: start, End: end, Err: err}
}
