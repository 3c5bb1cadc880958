package sequencer

import (
	"cmp"
	"fmt"

	"github.com/danielpatrickdp/markov/internal/chain"
	"github.com/danielpatrickdp/markov/internal/errs"
)

// #region config

// Upper bounds enforced by Validate. They keep one request from
// allocating or walking without limit.
const (
	MaxCount       = 10000
	MaxLengthLimit = 100000
	MaxAttemptsCap = 10000
)

// Config holds the production knobs.
type Config struct {
	MaxLength        int  // emitted tokens per sequence, seed tokens included
	MinLength        int  // shorter sequences are discarded and redrawn
	Count            int  // sequences per Produce call
	RecycleThreshold int  // sequences produced from one seed before a fresh draw
	InitialOnly      bool // draw fresh seeds only from unit-opening windows
	MaxAttempts      int  // draws allowed per requested sequence
}

// DefaultConfig returns sensible defaults: a fresh seed after every
// sequence and no minimum length.
func DefaultConfig() Config {
	return Config{
		MaxLength:        50,
		MinLength:        0,
		Count:            10,
		RecycleThreshold: 1,
		InitialOnly:      false,
		MaxAttempts:      100,
	}
}

// Validate reports the first out-of-range knob as a parameter error.
func (c Config) Validate() error {
	var err error
	switch {
	case c.MaxLength < 1:
		err = fmt.Errorf("max length %d < 1", c.MaxLength)
	case c.MaxLength > MaxLengthLimit:
		err = fmt.Errorf("max length %d exceeds %d", c.MaxLength, MaxLengthLimit)
	case c.MinLength < 0:
		err = fmt.Errorf("min length %d < 0", c.MinLength)
	case c.MinLength > c.MaxLength:
		err = fmt.Errorf("min length %d exceeds max length %d", c.MinLength, c.MaxLength)
	case c.Count < 0:
		err = fmt.Errorf("count %d < 0", c.Count)
	case c.Count > MaxCount:
		err = fmt.Errorf("count %d exceeds %d", c.Count, MaxCount)
	case c.RecycleThreshold < 1:
		err = fmt.Errorf("recycle threshold %d < 1", c.RecycleThreshold)
	case c.MaxAttempts < 1:
		err = fmt.Errorf("max attempts %d < 1", c.MaxAttempts)
	case c.MaxAttempts > MaxAttemptsCap:
		err = fmt.Errorf("max attempts %d exceeds %d", c.MaxAttempts, MaxAttemptsCap)
	}
	return errs.Parameter("validate config", err)
}

// #endregion config

// #region sequence

// Reason says why a sequence closed.
type Reason string

const (
	ReasonTerminal  Reason = "terminal"
	ReasonDeadEnd   Reason = "dead_end"
	ReasonMaxLength Reason = "max_length"
)

// Reasons lists every close reason.
func Reasons() []Reason { return []Reason{ReasonTerminal, ReasonDeadEnd, ReasonMaxLength} }

// Sequence is one produced unit.
type Sequence[T cmp.Ordered] struct {
	Tokens []T
	Seed   chain.Key[T]
	Reason Reason
}

// #endregion sequence

// #region observer

// Observer receives every closed sequence, accepted or discarded.
type Observer interface {
	ObserveSequence(reason string, length int, accepted bool)
}

// #endregion observer
