// Package eval validates a chain before it is persisted.
package eval

import (
	"cmp"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/danielpatrickdp/markov/internal/chain"
	"github.com/danielpatrickdp/markov/internal/tokens"
)

// #region eval-harness
// EvalHarness checks the structural invariants of a chain.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run validates rows against stats. Every failing check is recorded; the
// reason names the first.
func (h *EvalHarness) Run(stats chain.Stats, rows []Row) EvalResult {
	var metrics []EvalMetric
	var failReasons []string
	check := func(name string, value float64, pass bool, reason string) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass})
		if !pass {
			failReasons = append(failReasons, reason)
		}
	}

	// 1. Non-empty
	check("keys", float64(stats.Keys), stats.Keys >= h.config.MinKeys,
		fmt.Sprintf("chain has %d keys, need %d", stats.Keys, h.config.MinKeys))

	// 2. Per-row structure
	var badArity, badCells, initialNext, terminalInKey, lateInitial int
	sums := make(map[string][]float64)
	order := make([]string, 0)
	for _, r := range rows {
		if len(r.Kinds) != stats.Order {
			badArity++
		}
		if math.IsNaN(r.P) || r.P <= 0 || r.P > 1 {
			badCells++
		}
		if r.Next == chain.Initial {
			initialNext++
		}
		natural := false
		for _, k := range r.Kinds {
			switch k {
			case chain.Terminal:
				terminalInKey++
			case chain.Initial:
				if natural {
					lateInitial++
				}
			case chain.Natural:
				natural = true
			}
		}
		if _, ok := sums[r.Key]; !ok {
			order = append(order, r.Key)
		}
		sums[r.Key] = append(sums[r.Key], r.P)
	}
	check("key_arity_errors", float64(badArity), badArity == 0,
		fmt.Sprintf("%d rows have keys of the wrong length for order %d", badArity, stats.Order))
	check("bad_cells", float64(badCells), badCells == 0,
		fmt.Sprintf("%d cells are not in (0, 1]", badCells))
	check("initial_as_next", float64(initialNext), initialNext == 0,
		fmt.Sprintf("%d rows emit the initial symbol", initialNext))
	check("terminal_in_key", float64(terminalInKey), terminalInKey == 0,
		fmt.Sprintf("%d keys contain the terminal symbol", terminalInKey))
	check("initial_after_token", float64(lateInitial), lateInitial == 0,
		fmt.Sprintf("%d keys pad after a natural token", lateInitial))

	// 3. Row sums
	var worst float64
	worstKey := ""
	for _, k := range order {
		p := sums[k]
		tol := h.config.BaseTolerance + float64(len(p))*math.Pow(10, -float64(h.config.Precision))
		if e := math.Abs(floats.Sum(p) - 1); e > tol && e > worst {
			worst, worstKey = e, k
		}
	}
	check("row_sum_error", worst, worstKey == "",
		fmt.Sprintf("row %q sums to 1 %+.2g", worstKey, worst))

	// 4. Entropy: informational
	metrics = append(metrics, EvalMetric{Name: "mean_entropy_bits", Value: stats.MeanEntropy, Pass: true})

	reason := "all checks passed"
	if len(failReasons) > 0 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region rows
// Rows flattens c for Run, grouping by the codec's key encoding.
func Rows[T cmp.Ordered](c *chain.Chain[T], codec tokens.Codec[T]) []Row {
	var out []Row
	for _, k := range c.Keys() {
		syms := k.Symbols()
		kinds := make([]chain.Kind, len(syms))
		for i, s := range syms {
			kinds[i] = s.Kind()
		}
		text := codec.FormatKey(k)
		d, _ := c.Probabilities(k)
		for _, o := range d {
			out = append(out, Row{Key: text, Kinds: kinds, Next: o.Symbol.Kind(), P: o.P})
		}
	}
	return out
}

// Check runs the harness over a typed chain.
func Check[T cmp.Ordered](h *EvalHarness, c *chain.Chain[T], codec tokens.Codec[T]) EvalResult {
	return h.Run(c.Stats(), Rows(c, codec))
}

// #endregion rows
