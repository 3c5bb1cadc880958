package chain

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/danielpatrickdp/markov/internal/errs"
)

// DefaultPrecision is the number of decimal places probabilities are
// rounded to.
const DefaultPrecision = 6

// #region options

type settings struct {
	precision int
}

// Option configures a Builder.
type Option func(*settings)

// WithPrecision sets the rounding precision in decimal places (1..15).
func WithPrecision(places int) Option {
	return func(s *settings) {
		if places >= 1 && places <= 15 {
			s.precision = places
		}
	}
}

// #endregion options

// #region builder

// Builder collects transition counts over token units and normalizes them
// into a Chain. One Builder performs one collection pass.
type Builder[T cmp.Ordered] struct {
	order  int
	cfg    settings
	counts *Counts[T]
	units  int
}

// NewBuilder returns a builder for order-N windows.
func NewBuilder[T cmp.Ordered](order int, opts ...Option) (*Builder[T], error) {
	if order < 1 || order > MaxOrder {
		return nil, errs.Parameter("new builder", fmt.Errorf("%w: %d not in [1,%d]", errs.ErrInvalidOrder, order, MaxOrder))
	}
	cfg := settings{precision: DefaultPrecision}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Builder[T]{order: order, cfg: cfg, counts: NewCounts[T](order)}, nil
}

// AddUnit slides the window over one unit. The unit is preceded by N
// Initial symbols and the last window is followed by Terminal, so every
// token of the unit is recorded as a next symbol and the unit's end is
// learnable. Empty units contribute nothing.
func (b *Builder[T]) AddUnit(unit []T) {
	if len(unit) == 0 {
		return
	}
	b.units++
	key := StartKey[T](b.order)
	for _, v := range unit {
		next := Token(v)
		b.counts.Add(key, next)
		key = key.Shift(next)
	}
	b.counts.Add(key, TerminalSymbol[T]())
}

// AddUnits adds each unit in order.
func (b *Builder[T]) AddUnits(units [][]T) {
	for _, u := range units {
		b.AddUnit(u)
	}
}

// Units returns how many non-empty units were collected.
func (b *Builder[T]) Units() int { return b.units }

// Counts exposes the raw count table.
func (b *Builder[T]) Counts() *Counts[T] { return b.counts }

// Build normalizes the counts: p(next) = count(next) / row total, rounded
// to the configured precision. No smoothing is applied. A probability that
// would round to zero is kept at the smallest representable step. The chain
// keeps its own copy of the counts, so later AddUnit calls do not reach it.
func (b *Builder[T]) Build() *Chain[T] {
	scale := math.Pow10(b.cfg.precision)
	rows := make(map[Key[T]]Distribution[T], b.counts.Len())
	for key, row := range b.counts.rows {
		total := 0
		for _, n := range row {
			total += n
		}
		d := make(Distribution[T], 0, len(row))
		for s, n := range row {
			p := math.Round(float64(n)/float64(total)*scale) / scale
			if p == 0 {
				p = 1 / scale
			}
			d = append(d, Outcome[T]{Symbol: s, P: p})
		}
		slices.SortFunc(d, func(a, b Outcome[T]) int { return a.Symbol.Compare(b.Symbol) })
		rows[key] = d
	}
	return newChain(b.order, b.cfg.precision, rows, b.counts.Clone())
}

// Build collects all units and returns the resulting chain.
func Build[T cmp.Ordered](units [][]T, order int, opts ...Option) (*Chain[T], error) {
	b, err := NewBuilder[T](order, opts...)
	if err != nil {
		return nil, err
	}
	b.AddUnits(units)
	return b.Build(), nil
}

// #endregion builder
