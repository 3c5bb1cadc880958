package chain

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/danielpatrickdp/markov/internal/errs"
)

// #region distribution

// Outcome is one next-symbol entry of a distribution.
type Outcome[T cmp.Ordered] struct {
	Symbol Symbol[T]
	P      float64
}

// Distribution is a window's next-symbol distribution in ascending symbol
// order. Zero-probability outcomes are never stored.
type Distribution[T cmp.Ordered] []Outcome[T]

// Sample performs inverse-CDF selection: the first outcome whose cumulative
// probability strictly exceeds r. When rounding leaves the cumulative sum at
// or below r the last outcome is returned.
func (d Distribution[T]) Sample(r float64) Symbol[T] {
	var cum float64
	for _, o := range d {
		cum += o.P
		if cum > r {
			return o.Symbol
		}
	}
	return d[len(d)-1].Symbol
}

// P returns the probability of s, 0 when absent.
func (d Distribution[T]) P(s Symbol[T]) float64 {
	for _, o := range d {
		if o.Symbol == s {
			return o.P
		}
	}
	return 0
}

// Probs returns the probabilities in distribution order.
func (d Distribution[T]) Probs() []float64 {
	out := make([]float64, len(d))
	for i, o := range d {
		out[i] = o.P
	}
	return out
}

// #endregion distribution

// #region chain

// Chain is a trained order-N model. It is read-only once built, so any
// number of sequencers may share one.
type Chain[T cmp.Ordered] struct {
	order     int
	precision int
	rows      map[Key[T]]Distribution[T]
	keys      []Key[T]
	initial   []Key[T]
	counts    *Counts[T]
}

func newChain[T cmp.Ordered](order, precision int, rows map[Key[T]]Distribution[T], counts *Counts[T]) *Chain[T] {
	c := &Chain[T]{order: order, precision: precision, rows: rows, counts: counts}
	c.keys = make([]Key[T], 0, len(rows))
	for k := range rows {
		c.keys = append(c.keys, k)
	}
	slices.SortFunc(c.keys, Key[T].Compare)
	for _, k := range c.keys {
		if k.StartsUnit() {
			c.initial = append(c.initial, k)
		}
	}
	return c
}

func (c *Chain[T]) Order() int { return c.order }

// Precision is the number of decimal places probabilities were rounded to.
func (c *Chain[T]) Precision() int { return c.precision }

// Len returns the number of windows.
func (c *Chain[T]) Len() int { return len(c.rows) }

// Empty reports whether the chain has no windows.
func (c *Chain[T]) Empty() bool { return len(c.rows) == 0 }

// Keys returns all windows in ascending order.
func (c *Chain[T]) Keys() []Key[T] { return slices.Clone(c.keys) }

// InitialKeys returns the windows that open a unit, ascending.
func (c *Chain[T]) InitialKeys() []Key[T] { return slices.Clone(c.initial) }

// Probabilities returns key's distribution. A missing key is reported with
// ok == false and is not an error.
func (c *Chain[T]) Probabilities(key Key[T]) (Distribution[T], bool) {
	d, ok := c.rows[key]
	return d, ok
}

// Has reports whether key is a window of the chain.
func (c *Chain[T]) Has(key Key[T]) bool {
	_, ok := c.rows[key]
	return ok
}

// Columns returns every next symbol of the chain, ascending.
func (c *Chain[T]) Columns() []Symbol[T] {
	seen := make(map[Symbol[T]]struct{})
	for _, d := range c.rows {
		for _, o := range d {
			seen[o.Symbol] = struct{}{}
		}
	}
	out := make([]Symbol[T], 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	slices.SortFunc(out, Symbol[T].Compare)
	return out
}

// Counts returns the raw counts the chain was built from, or nil when the
// chain was rehydrated from persisted probabilities.
func (c *Chain[T]) Counts() *Counts[T] { return c.counts }

// #endregion chain

// #region rehydrate

// FromProbabilities rebuilds a chain from persisted probabilities without
// re-running collection. Zero entries are dropped; a row left empty, a
// negative or non-finite probability, or a key of the wrong arity is a
// serialization format error.
func FromProbabilities[T cmp.Ordered](order, precision int, rows map[Key[T]]map[Symbol[T]]float64) (*Chain[T], error) {
	if order < 1 || order > MaxOrder {
		return nil, errs.Parameter("rehydrate chain", fmt.Errorf("%w: %d", errs.ErrInvalidOrder, order))
	}
	out := make(map[Key[T]]Distribution[T], len(rows))
	for k, row := range rows {
		if k.Len() != order {
			return nil, errs.Format("rehydrate chain", fmt.Errorf("%w: key %v has %d symbols, order is %d", errs.ErrMalformed, k, k.Len(), order))
		}
		d := make(Distribution[T], 0, len(row))
		for s, p := range row {
			if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
				return nil, errs.Format("rehydrate chain", fmt.Errorf("%w: key %v next %v probability %v", errs.ErrMalformed, k, s, p))
			}
			if p == 0 {
				continue
			}
			d = append(d, Outcome[T]{Symbol: s, P: p})
		}
		if len(d) == 0 {
			return nil, errs.Format("rehydrate chain", fmt.Errorf("%w: key %v has no transitions", errs.ErrMalformed, k))
		}
		slices.SortFunc(d, func(a, b Outcome[T]) int { return a.Symbol.Compare(b.Symbol) })
		out[k] = d
	}
	return newChain(order, precision, out, nil), nil
}

// #endregion rehydrate
