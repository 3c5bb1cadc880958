package sequencer

import (
	"reflect"
	"testing"

	"github.com/danielpatrickdp/markov/internal/chain"
	"github.com/danielpatrickdp/markov/internal/errs"
)

// #region mock

// fixedRand returns the same Float64 forever and cycles Intn through 0..n-1.
type fixedRand struct {
	f     float64
	calls int
}

func (r *fixedRand) Float64() float64 { return r.f }

func (r *fixedRand) Intn(n int) int {
	i := r.calls % n
	r.calls++
	return i
}

// recorder collects observed sequences.
type recorder struct {
	reasons  []string
	accepted int
	rejected int
}

func (r *recorder) ObserveSequence(reason string, _ int, accepted bool) {
	r.reasons = append(r.reasons, reason)
	if accepted {
		r.accepted++
	} else {
		r.rejected++
	}
}

// #endregion mock

// #region fixtures

func wordChain(t *testing.T) *chain.Chain[string] {
	t.Helper()
	c, err := chain.Build([][]string{{"I", "run", "."}, {"I", "walk", "."}}, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return c
}

func cycleChain(t *testing.T) *chain.Chain[string] {
	t.Helper()
	c, err := chain.FromProbabilities(1, 6, map[chain.Key[string]]map[chain.Symbol[string]]float64{
		chain.KeyOf("a"): {chain.Token("b"): 1},
		chain.KeyOf("b"): {chain.Token("a"): 1},
	})
	if err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	return c
}

func mustNew(t *testing.T, c *chain.Chain[string], cfg Config, rng Rand) *Sequencer[string] {
	t.Helper()
	s, err := New(c, cfg, rng)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// #endregion fixtures

// #region new-tests

func TestNew_EmptyChain(t *testing.T) {
	empty, err := chain.Build[string](nil, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	_, err = New(empty, DefaultConfig(), nil)
	if !errs.IsModelEmpty(err) {
		t.Fatalf("expected model empty error, got %v", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	bad := []Config{
		{MaxLength: 0, Count: 1, RecycleThreshold: 1, MaxAttempts: 1},
		{MaxLength: 5, MinLength: 6, Count: 1, RecycleThreshold: 1, MaxAttempts: 1},
		{MaxLength: 5, Count: -1, RecycleThreshold: 1, MaxAttempts: 1},
		{MaxLength: 5, Count: 1, RecycleThreshold: 0, MaxAttempts: 1},
		{MaxLength: 5, Count: 1, RecycleThreshold: 1, MaxAttempts: 0},
		{MaxLength: 5, Count: MaxCount + 1, RecycleThreshold: 1, MaxAttempts: 1},
		{MaxLength: MaxLengthLimit + 1, Count: 1, RecycleThreshold: 1, MaxAttempts: 1},
		{MaxLength: 5, Count: 1, RecycleThreshold: 1, MaxAttempts: MaxAttemptsCap + 1},
	}
	for i, cfg := range bad {
		if _, err := New(wordChain(t), cfg, nil); !errs.IsParameter(err) {
			t.Errorf("config %d: expected parameter error, got %v", i, err)
		}
	}
}

func TestSetSeed_Arity(t *testing.T) {
	s := mustNew(t, wordChain(t), DefaultConfig(), nil)
	err := s.SetSeed(chain.KeyOf("I", "run"))
	if !errs.IsParameter(err) {
		t.Fatalf("expected parameter error, got %v", err)
	}
}

func TestNew_ConfigAtLimits(t *testing.T) {
	cfg := Config{MaxLength: MaxLengthLimit, Count: MaxCount, RecycleThreshold: 1, MaxAttempts: MaxAttemptsCap}
	if _, err := New(wordChain(t), cfg, nil); err != nil {
		t.Fatalf("expected limits to be accepted, got %v", err)
	}
}

// #endregion new-tests

// #region step-tests

func TestStep_InverseCDF(t *testing.T) {
	s := mustNew(t, wordChain(t), DefaultConfig(), &fixedRand{f: 0.999999})
	for range 5 {
		next, ok := s.Step(chain.KeyOf("I"))
		if !ok {
			t.Fatal("expected key to be found")
		}
		if next != chain.Token("walk") {
			t.Fatalf("expected walk, got %v", next)
		}
	}

	s = mustNew(t, wordChain(t), DefaultConfig(), &fixedRand{f: 0.25})
	if next, _ := s.Step(chain.KeyOf("I")); next != chain.Token("run") {
		t.Errorf("expected run for r=0.25, got %v", next)
	}
}

func TestStep_MissingKey(t *testing.T) {
	s := mustNew(t, wordChain(t), DefaultConfig(), nil)
	if _, ok := s.Step(chain.KeyOf("fly")); ok {
		t.Error("expected missing key to report ok=false")
	}
}

// #endregion step-tests

// #region walk-tests

func TestWalk_Terminal(t *testing.T) {
	s := mustNew(t, wordChain(t), DefaultConfig(), &fixedRand{f: 0})
	seq := s.Walk(chain.StartKey[string](1))
	if seq.Reason != ReasonTerminal {
		t.Fatalf("expected terminal, got %s", seq.Reason)
	}
	if want := []string{"I", "run", "."}; !reflect.DeepEqual(seq.Tokens, want) {
		t.Errorf("expected %v, got %v", want, seq.Tokens)
	}
}

func TestWalk_SeedTokensIncluded(t *testing.T) {
	s := mustNew(t, wordChain(t), DefaultConfig(), &fixedRand{f: 0.9})
	seq := s.Walk(chain.KeyOf("I"))
	if want := []string{"I", "walk", "."}; !reflect.DeepEqual(seq.Tokens, want) {
		t.Errorf("expected %v, got %v", want, seq.Tokens)
	}
}

func TestWalk_MaxLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLength = 7
	s := mustNew(t, cycleChain(t), cfg, nil)
	seq := s.Walk(chain.KeyOf("a"))
	if seq.Reason != ReasonMaxLength {
		t.Fatalf("expected max_length, got %s", seq.Reason)
	}
	if want := []string{"a", "b", "a", "b", "a", "b", "a"}; !reflect.DeepEqual(seq.Tokens, want) {
		t.Errorf("expected %v, got %v", want, seq.Tokens)
	}
}

func TestWalk_DeadEnd(t *testing.T) {
	c, err := chain.FromProbabilities(1, 6, map[chain.Key[string]]map[chain.Symbol[string]]float64{
		chain.KeyOf("a"): {chain.Token("b"): 1},
	})
	if err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	s := mustNew(t, c, DefaultConfig(), nil)
	seq := s.Walk(chain.KeyOf("a"))
	if seq.Reason != ReasonDeadEnd {
		t.Fatalf("expected dead_end, got %s", seq.Reason)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(seq.Tokens, want) {
		t.Errorf("expected %v, got %v", want, seq.Tokens)
	}
}

// #endregion walk-tests

// #region produce-tests

func TestProduce_Deterministic(t *testing.T) {
	c, err := chain.Build([][]string{
		{"the", "cat", "sat", "."},
		{"the", "dog", "sat", "."},
		{"a", "cat", "ran", "!"},
		{"the", "cat", "ran", "."},
	}, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Count = 20
	a, _ := New(c, cfg, NewRand(7))
	b, _ := New(c, cfg, NewRand(7))
	outA, err := a.Produce()
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	outB, _ := b.Produce()
	if !reflect.DeepEqual(outA, outB) {
		t.Fatal("same seed produced different output")
	}
	if len(outA) != 20 {
		t.Errorf("expected 20 sequences, got %d", len(outA))
	}
}

func TestProduce_Terminates(t *testing.T) {
	for order := 1; order <= 3; order++ {
		c, err := chain.Build([][]rune{[]rune("abababab"), []rune("ba")}, order)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		cfg := DefaultConfig()
		cfg.MaxLength = 12
		cfg.Count = 50
		s, err := New(c, cfg, NewRand(int64(order)))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		out, err := s.Produce()
		if err != nil {
			t.Fatalf("produce: %v", err)
		}
		for _, seq := range out {
			if len(seq.Tokens) > cfg.MaxLength {
				t.Fatalf("order %d: sequence of %d tokens exceeds max", order, len(seq.Tokens))
			}
		}
	}
}

func TestProduce_Recycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 4
	cfg.RecycleThreshold = 2
	rng := &fixedRand{f: 0}
	s := mustNew(t, wordChain(t), cfg, rng)
	out, err := s.Produce()
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	keys := wordChain(t).Keys()
	want := []chain.Key[string]{keys[0], keys[0], keys[1], keys[1]}
	for i, seq := range out {
		if seq.Seed != want[i] {
			t.Errorf("sequence %d: expected seed %v, got %v", i, want[i], seq.Seed)
		}
	}
	if s.Stats().SeedDraws != 2 {
		t.Errorf("expected 2 seed draws, got %d", s.Stats().SeedDraws)
	}

	// the counter carries across calls: the next call draws fresh
	more, _ := s.Produce()
	if more[0].Seed != keys[2] {
		t.Errorf("expected fresh seed %v, got %v", keys[2], more[0].Seed)
	}
}

func TestProduce_FixedSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 3
	cfg.RecycleThreshold = 3
	s := mustNew(t, wordChain(t), cfg, &fixedRand{f: 0.9})
	if err := s.SetSeed(chain.KeyOf("I")); err != nil {
		t.Fatalf("SetSeed: %v", err)
	}
	out, _ := s.Produce()
	for _, seq := range out {
		if want := []string{"I", "walk", "."}; !reflect.DeepEqual(seq.Tokens, want) {
			t.Errorf("expected %v, got %v", want, seq.Tokens)
		}
	}
	if s.Stats().SeedDraws != 0 {
		t.Errorf("fixed seed should not draw, got %d draws", s.Stats().SeedDraws)
	}
}

func TestProduce_UnknownFixedSeedDrawsFresh(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 1
	s := mustNew(t, wordChain(t), cfg, &fixedRand{f: 0})
	if err := s.SetSeed(chain.KeyOf("fly")); err != nil {
		t.Fatalf("SetSeed: %v", err)
	}
	out, err := s.Produce()
	if err != nil || len(out) != 1 {
		t.Fatalf("expected one sequence, got %d (%v)", len(out), err)
	}
	if s.Stats().SeedDraws != 1 {
		t.Errorf("expected a fresh draw, got %d", s.Stats().SeedDraws)
	}
}

func TestProduce_InitialOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 10
	cfg.InitialOnly = true
	s := mustNew(t, wordChain(t), cfg, NewRand(3))
	out, _ := s.Produce()
	for _, seq := range out {
		if !seq.Seed.StartsUnit() {
			t.Errorf("seed %v does not open a unit", seq.Seed)
		}
		if seq.Tokens[0] != "I" {
			t.Errorf("expected sentence to start with I, got %v", seq.Tokens)
		}
	}
}

func TestProduce_MinLengthExhausted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 3
	cfg.MinLength = 10
	cfg.MaxAttempts = 4
	obs := &recorder{}
	s, err := New(wordChain(t), cfg, NewRand(1), WithObserver(obs))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := s.Produce()
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no sequences, got %d", len(out))
	}
	if obs.rejected != 4 || obs.accepted != 0 {
		t.Errorf("expected 4 rejected draws, got %d rejected %d accepted", obs.rejected, obs.accepted)
	}
}

// #endregion produce-tests

// #region rand-tests

func TestNewRand_ZeroSeed(t *testing.T) {
	a, b := NewRand(0), NewRand(DefaultSeed)
	for range 10 {
		if a.Int63() != b.Int63() {
			t.Fatal("seed 0 should match DefaultSeed")
		}
	}
}

func TestDeriveSeed(t *testing.T) {
	if DeriveSeed(42, 1) != DeriveSeed(42, 1) {
		t.Error("DeriveSeed is not deterministic")
	}
	if DeriveSeed(42, 1) == DeriveSeed(42, 2) {
		t.Error("streams should differ")
	}
}

// #endregion rand-tests
