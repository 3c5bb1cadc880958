// Package pipeline binds a token adapter to the chain, persistence and
// sequencer packages so callers can work with a domain chosen at run time.
package pipeline

import (
	"cmp"
	"fmt"
	"io"

	"github.com/danielpatrickdp/markov/internal/chain"
	"github.com/danielpatrickdp/markov/internal/errs"
	"github.com/danielpatrickdp/markov/internal/eval"
	"github.com/danielpatrickdp/markov/internal/persist"
	"github.com/danielpatrickdp/markov/internal/sequencer"
	"github.com/danielpatrickdp/markov/internal/tokens"
)

// #region engine-interface

// Engine is a chain of one domain with its codec. Collect, Load and
// FromRows replace the held chain; every other method reads it and is safe
// for concurrent use once the chain is in place.
type Engine interface {
	Domain() string
	Order() int
	Empty() bool
	Stats() chain.Stats

	Collect(src tokens.Source) error
	Load(path string) error
	FromRows(rows []persist.Row) error

	Save(path string) error
	SaveCounts(path string) error
	Encode(w io.Writer, f persist.Format) error
	Rows() []persist.Row
	Validate(h *eval.EvalHarness) eval.EvalResult

	Transitions(key string) ([]Transition, error)
	CheckSeed(seed string) error
	Produce(req Request, opts ...sequencer.Option) ([]Output, error)
}

// #endregion engine-interface

// #region engine

type engine[T cmp.Ordered] struct {
	adapter   tokens.Adapter[T]
	order     int
	precision int
	chain     *chain.Chain[T]
}

func newEngine[T cmp.Ordered](a tokens.Adapter[T], s Settings) *engine[T] {
	e := &engine[T]{adapter: a, order: s.Order, precision: s.Precision}
	if e.precision == 0 {
		e.precision = chain.DefaultPrecision
	}
	e.chain, _ = chain.Build[T](nil, max(e.order, 1), chain.WithPrecision(e.precision))
	return e
}

func (e *engine[T]) Domain() string     { return e.adapter.Domain() }
func (e *engine[T]) Order() int         { return e.chain.Order() }
func (e *engine[T]) Empty() bool        { return e.chain.Empty() }
func (e *engine[T]) Stats() chain.Stats { return e.chain.Stats() }

// Collect reads src through the adapter and builds the chain.
func (e *engine[T]) Collect(src tokens.Source) error {
	units, err := e.adapter.Units(src)
	if err != nil {
		return err
	}
	c, err := chain.Build(units, e.order, chain.WithPrecision(e.precision))
	if err != nil {
		return err
	}
	e.chain = c
	return nil
}

// Load replaces the chain with one read from path. The configured order is
// used for validation; 0 infers it from the file. The loaded chain reports
// the configured precision.
func (e *engine[T]) Load(path string) error {
	c, err := persist.Load(path, e.order, e.precision, e.adapter.Codec())
	if err != nil {
		return err
	}
	e.chain = c
	return nil
}

func (e *engine[T]) FromRows(rows []persist.Row) error {
	c, err := persist.FromRows(rows, e.order, e.precision, e.adapter.Codec())
	if err != nil {
		return err
	}
	e.chain = c
	return nil
}

func (e *engine[T]) Save(path string) error {
	return persist.Save(path, e.chain, e.adapter.Codec())
}

// SaveCounts writes the raw count table. A rehydrated chain has none.
func (e *engine[T]) SaveCounts(path string) error {
	counts := e.chain.Counts()
	if counts == nil {
		return errs.Format("save counts", fmt.Errorf("chain was loaded without counts"))
	}
	return persist.SaveCounts(path, counts, e.adapter.Codec())
}

func (e *engine[T]) Encode(w io.Writer, f persist.Format) error {
	return persist.Encode(w, f, e.chain, e.adapter.Codec())
}

func (e *engine[T]) Rows() []persist.Row {
	return persist.Rows(e.chain, e.adapter.Codec())
}

func (e *engine[T]) Validate(h *eval.EvalHarness) eval.EvalResult {
	return eval.Check(h, e.chain, e.adapter.Codec())
}

// Transitions returns the distribution of an encoded key. A key the chain
// does not hold yields no transitions and no error.
func (e *engine[T]) Transitions(key string) ([]Transition, error) {
	codec := e.adapter.Codec()
	k, err := codec.ParseKey(key, e.chain.Order())
	if err != nil {
		return nil, errs.Parameter("transitions", err)
	}
	d, _ := e.chain.Probabilities(k)
	out := make([]Transition, len(d))
	for i, o := range d {
		out[i] = Transition{Next: codec.FormatSymbol(o.Symbol), P: o.P}
	}
	return out, nil
}

// CheckSeed parses seed against the held chain's order. An empty seed is
// valid; a malformed or wrong-arity one is a parameter error.
func (e *engine[T]) CheckSeed(seed string) error {
	_, err := e.parseSeed(seed)
	return err
}

func (e *engine[T]) parseSeed(seed string) (*chain.Key[T], error) {
	if seed == "" {
		return nil, nil
	}
	k, err := e.adapter.Codec().ParseKey(seed, e.chain.Order())
	if err != nil {
		return nil, errs.Parameter("parse seed", err)
	}
	return &k, nil
}

// Produce runs a fresh Sequencer over the held chain and renders every
// sequence through the adapter.
func (e *engine[T]) Produce(req Request, opts ...sequencer.Option) ([]Output, error) {
	seq, err := sequencer.New(e.chain, req.Config, sequencer.NewRand(req.RandSeed), opts...)
	if err != nil {
		return nil, err
	}
	codec := e.adapter.Codec()
	k, err := e.parseSeed(req.Seed)
	if err != nil {
		return nil, err
	}
	if k != nil {
		if err := seq.SetSeed(*k); err != nil {
			return nil, err
		}
	}
	seqs, err := seq.Produce()
	if err != nil {
		return nil, err
	}
	out := make([]Output, 0, len(seqs))
	seen := make(map[string]struct{})
	for _, s := range seqs {
		text := e.adapter.Render(s.Tokens)
		if req.Unique {
			if _, dup := seen[text]; dup {
				continue
			}
			seen[text] = struct{}{}
		}
		out = append(out, Output{
			Text:   text,
			Seed:   codec.FormatKey(s.Seed),
			Reason: string(s.Reason),
			Length: len(s.Tokens),
		})
	}
	return out, nil
}

// #endregion engine
