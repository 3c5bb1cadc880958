package eval

import "github.com/danielpatrickdp/markov/internal/chain"

// #region eval-config
// EvalConfig holds thresholds for pre-persistence validation.
type EvalConfig struct {
	Precision     int     // decimal places the chain was rounded to
	BaseTolerance float64 // allowed row sum error on top of rounding slack
	MinKeys       int     // reject chains with fewer keys
}

// DefaultEvalConfig returns defaults matching the builder's precision.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		Precision:     chain.DefaultPrecision,
		BaseTolerance: 1e-9,
		MinKeys:       1,
	}
}

// #endregion eval-config

// #region eval-row
// Row is one transition reduced to what validation needs: the encoded key
// that groups a distribution, the kind of every key symbol, the kind of the
// next symbol and its probability.
type Row struct {
	Key   string
	Kinds []chain.Kind
	Next  chain.Kind
	P     float64
}

// #endregion eval-row

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of validation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
