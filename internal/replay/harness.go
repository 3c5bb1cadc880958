package replay

import (
	"fmt"

	"github.com/danielpatrickdp/markov/internal/logging"
	"github.com/danielpatrickdp/markov/internal/persist"
	"github.com/danielpatrickdp/markov/internal/pipeline"
	"github.com/danielpatrickdp/markov/internal/tokens"
)

// #region types

// Mismatch is one output that differs from the expected result.
type Mismatch struct {
	Index    int
	Expected string
	Actual   string
}

// ReplayResult captures the outcome of re-running one fixture or logged run.
type ReplayResult struct {
	Name       string
	Outputs    []string
	Mismatches []Mismatch
}

// Passed reports whether every output matched.
func (r ReplayResult) Passed() bool { return len(r.Mismatches) == 0 }

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total      int
	Passed     int
	Failed     int
	Mismatches int
}

// #endregion types

// #region replay

// Run builds the fixture's chain and produces from it in memory.
func Run(f *Fixture) ([]string, error) {
	e, err := pipeline.New(f.ToSettings())
	if err != nil {
		return nil, err
	}
	if len(f.Rows) > 0 {
		err = e.FromRows(f.ToRows())
	} else {
		err = e.Collect(tokens.Source{Text: f.Text})
	}
	if err != nil {
		return nil, fmt.Errorf("build fixture chain: %w", err)
	}
	outs, err := e.Produce(f.ToRequest())
	if err != nil {
		return nil, err
	}
	return pipeline.Texts(outs), nil
}

// Compare lines expected and actual up by index. A missing or extra output
// counts as a mismatch against the empty string.
func Compare(expected, actual []string) []Mismatch {
	var out []Mismatch
	for i := range max(len(expected), len(actual)) {
		var e, a string
		if i < len(expected) {
			e = expected[i]
		}
		if i < len(actual) {
			a = actual[i]
		}
		if i >= len(expected) || i >= len(actual) || e != a {
			out = append(out, Mismatch{Index: i, Expected: e, Actual: a})
		}
	}
	return out
}

// ReplayFixture runs f and compares against its expected outputs.
func ReplayFixture(name string, f *Fixture) (ReplayResult, error) {
	outs, err := Run(f)
	if err != nil {
		return ReplayResult{Name: name}, err
	}
	return ReplayResult{Name: name, Outputs: outs, Mismatches: Compare(f.Expected, outs)}, nil
}

// ReplayRun re-produces a logged run from the rows of its chain.
func ReplayRun(entry logging.RunEntry, rows []persist.Row, precision int) (ReplayResult, error) {
	f, err := FromRun(entry, rows, precision, "")
	if err != nil {
		return ReplayResult{}, err
	}
	return ReplayFixture(fmt.Sprintf("run %d", entry.ID), f)
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{Total: len(results)}
	for _, r := range results {
		if r.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
		s.Mismatches += len(r.Mismatches)
	}
	return s
}

// #endregion replay
