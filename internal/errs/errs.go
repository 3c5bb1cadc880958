// Package errs classifies the failures surfaced by collection, persistence
// and production so commands can report which precondition failed.
package errs

import (
	"errors"
	"fmt"
)

// #region kind

// Kind classifies an error for handling purposes.
type Kind int

const (
	// KindInput: source missing or unreadable, or no source given at all.
	KindInput Kind = iota
	// KindModelEmpty: sampling was requested from a chain with zero keys.
	KindModelEmpty
	// KindSerializationFormat: unsupported or corrupt persisted chain.
	KindSerializationFormat
	// KindParameter: bad order, seed arity or malformed seed string.
	KindParameter
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindModelEmpty:
		return "model_empty"
	case KindSerializationFormat:
		return "serialization_format"
	case KindParameter:
		return "parameter"
	default:
		return "unknown"
	}
}

// #endregion kind

// #region sentinels

var (
	ErrNoSource          = errors.New("no inline text or source file given")
	ErrEmptyModel        = errors.New("cannot produce from an empty model")
	ErrUnsupportedFormat = errors.New("unsupported chain format")
	ErrMalformed         = errors.New("malformed chain data")
	ErrSeedArity         = errors.New("seed length does not match chain order")
	ErrMalformedSeed     = errors.New("malformed seed")
	ErrInvalidOrder      = errors.New("invalid chain order")
)

// #endregion sentinels

// #region error

// Error wraps an underlying error with its Kind and the failing operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Input classifies err as an input error.
func Input(op string, err error) error { return wrap(KindInput, op, err) }

// ModelEmpty classifies err as an empty-model error.
func ModelEmpty(op string, err error) error { return wrap(KindModelEmpty, op, err) }

// Format classifies err as a serialization format error.
func Format(op string, err error) error { return wrap(KindSerializationFormat, op, err) }

// Parameter classifies err as a parameter error.
func Parameter(op string, err error) error { return wrap(KindParameter, op, err) }

// #endregion error

// #region predicates

// KindOf returns the Kind of the first classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsInput reports whether err is an input error.
func IsInput(err error) bool { return is(err, KindInput) }

// IsModelEmpty reports whether err is an empty-model error.
func IsModelEmpty(err error) bool { return is(err, KindModelEmpty) }

// IsFormat reports whether err is a serialization format error.
func IsFormat(err error) bool { return is(err, KindSerializationFormat) }

// IsParameter reports whether err is a parameter error.
func IsParameter(err error) bool { return is(err, KindParameter) }

// #endregion predicates
