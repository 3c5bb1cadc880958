// Package sequencer samples new token sequences from a trained chain.
package sequencer

import (
	"cmp"
	"fmt"
	"log/slog"

	"github.com/danielpatrickdp/markov/internal/chain"
	"github.com/danielpatrickdp/markov/internal/errs"
)

// #region options

type options struct {
	logger   *slog.Logger
	observer Observer
}

// Option configures a Sequencer.
type Option func(*options)

// WithLogger sets the logger used for seeding and closing events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver reports every closed sequence to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// #endregion options

// #region sequencer

// Sequencer performs the seeded random walk over one chain. It owns its
// random stream and seed state and is not safe for concurrent use; the
// chain it reads may be shared.
type Sequencer[T cmp.Ordered] struct {
	chain  *chain.Chain[T]
	cfg    Config
	rng    Rand
	opts   options
	pool   []chain.Key[T] // fresh-seed candidates
	fixed  *chain.Key[T]
	last   chain.Key[T]
	reuse  bool // last is eligible for reuse
	uses   int  // sequences accepted from last since it was drawn
	drawn  int
	closed map[Reason]int
}

// New validates cfg and returns a Sequencer. An empty chain is a
// model-empty error. A nil rng means NewRand(0).
func New[T cmp.Ordered](c *chain.Chain[T], cfg Config, rng Rand, opts ...Option) (*Sequencer[T], error) {
	if c == nil || c.Empty() {
		return nil, errs.ModelEmpty("new sequencer", errs.ErrEmptyModel)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRand(0)
	}
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	pool := c.Keys()
	if cfg.InitialOnly {
		if initial := c.InitialKeys(); len(initial) > 0 {
			pool = initial
		}
	}
	return &Sequencer[T]{chain: c, cfg: cfg, rng: rng, opts: o, pool: pool, closed: make(map[Reason]int)}, nil
}

// SetSeed fixes the first seed. A key of the wrong arity is a parameter
// error. A key the chain does not hold is accepted but never used: SEEDING
// falls back to a fresh draw.
func (s *Sequencer[T]) SetSeed(k chain.Key[T]) error {
	if k.Len() != s.chain.Order() {
		return errs.Parameter("set seed", fmt.Errorf("%w: seed %v has %d symbols, order is %d", errs.ErrSeedArity, k, k.Len(), s.chain.Order()))
	}
	s.fixed = &k
	return nil
}

// Config returns the active configuration.
func (s *Sequencer[T]) Config() Config { return s.cfg }

// #endregion sequencer

// #region produce

// Produce runs the SEEDING, EMITTING, CLOSING loop until Count sequences
// are accepted or a sequence exhausts MaxAttempts draws. Seed state and the
// recycle counter carry over between calls.
func (s *Sequencer[T]) Produce() ([]Sequence[T], error) {
	if s.chain.Empty() {
		return nil, errs.ModelEmpty("produce", errs.ErrEmptyModel)
	}
	var out []Sequence[T]
	for len(out) < s.cfg.Count {
		seq, ok := s.next()
		if !ok {
			s.opts.logger.Warn("min length not reached, stopping early",
				"min_length", s.cfg.MinLength, "attempts", s.cfg.MaxAttempts, "produced", len(out))
			break
		}
		out = append(out, seq)
	}
	return out, nil
}

// next draws until one sequence meets MinLength.
func (s *Sequencer[T]) next() (Sequence[T], bool) {
	for range s.cfg.MaxAttempts {
		seed := s.seed()
		seq := s.Walk(seed)
		accepted := len(seq.Tokens) >= s.cfg.MinLength
		s.closed[seq.Reason]++
		if s.opts.observer != nil {
			s.opts.observer.ObserveSequence(string(seq.Reason), len(seq.Tokens), accepted)
		}
		if !accepted {
			s.reuse = false
			continue
		}
		s.uses++
		if s.uses >= s.cfg.RecycleThreshold {
			s.reuse = false
		}
		return seq, true
	}
	return Sequence[T]{}, false
}

// seed is the SEEDING state: the fixed seed first, then the last seed while
// the recycle counter allows, otherwise a uniform fresh draw.
func (s *Sequencer[T]) seed() chain.Key[T] {
	if s.fixed != nil {
		k := *s.fixed
		s.fixed = nil
		if s.chain.Has(k) {
			s.last, s.reuse, s.uses = k, true, 0
			return k
		}
		s.opts.logger.Debug("fixed seed not in chain, drawing fresh", "seed", k.String())
	}
	if s.reuse {
		return s.last
	}
	k := s.pool[s.rng.Intn(len(s.pool))]
	s.drawn++
	s.last, s.reuse, s.uses = k, true, 0
	s.opts.logger.Debug("drew seed", "seed", k.String(), "initial_only", s.cfg.InitialOnly)
	return k
}

// Walk runs EMITTING from seed until TERMINAL, a dead end or MaxLength.
// The seed's natural tokens open the sequence.
func (s *Sequencer[T]) Walk(seed chain.Key[T]) Sequence[T] {
	seq := Sequence[T]{Seed: seed, Tokens: seed.Naturals()}
	if len(seq.Tokens) >= s.cfg.MaxLength {
		seq.Tokens = seq.Tokens[:s.cfg.MaxLength]
		seq.Reason = ReasonMaxLength
		return seq
	}
	key := seed
	for len(seq.Tokens) < s.cfg.MaxLength {
		next, ok := s.Step(key)
		if !ok {
			seq.Reason = ReasonDeadEnd
			return seq
		}
		if next.IsTerminal() {
			seq.Reason = ReasonTerminal
			return seq
		}
		seq.Tokens = append(seq.Tokens, next.Value())
		key = key.Shift(next)
		if !s.chain.Has(key) {
			seq.Reason = ReasonDeadEnd
			return seq
		}
	}
	seq.Reason = ReasonMaxLength
	return seq
}

// Step is one EMITTING transition: draw r in [0,1) and select by inverse
// CDF over key's distribution. ok is false when key is not in the chain.
func (s *Sequencer[T]) Step(key chain.Key[T]) (chain.Symbol[T], bool) {
	d, ok := s.chain.Probabilities(key)
	if !ok || len(d) == 0 {
		return chain.Symbol[T]{}, false
	}
	return d.Sample(s.rng.Float64()), true
}

// #endregion produce

// #region stats

// Stats counts fresh seed draws and closed sequences by reason since New.
type Stats struct {
	SeedDraws int
	Closed    map[Reason]int
}

// Stats returns a snapshot of the production counters.
func (s *Sequencer[T]) Stats() Stats {
	closed := make(map[Reason]int, len(s.closed))
	for r, n := range s.closed {
		closed[r] = n
	}
	return Stats{SeedDraws: s.drawn, Closed: closed}
}

// #endregion stats
