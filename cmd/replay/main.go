package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/markov/internal/logging"
	"github.com/danielpatrickdp/markov/internal/persist"
	"github.com/danielpatrickdp/markov/internal/replay"
	"github.com/danielpatrickdp/markov/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the chain store (DB mode)")
	chainID := flag.String("chain", "", "only replay runs of this chain id (DB mode)")
	last := flag.Int("last", 20, "number of most recent runs to replay (DB mode)")
	fixtureGlob := flag.String("fixture", "", "fixture JSON path or glob (fixture mode)")
	flag.Parse()

	if (*dbPath == "" && *fixtureGlob == "") || (*dbPath != "" && *fixtureGlob != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/markov.db [--chain id] [--last N]")
		fmt.Fprintln(os.Stderr, "       replay --fixture 'path/to/*.json'")
		os.Exit(2)
	}

	var exitCode int
	if *fixtureGlob != "" {
		exitCode = runFixtureMode(*fixtureGlob)
	} else {
		exitCode = runDBMode(*dbPath, *chainID, *last)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

func runDBMode(dbPath, chainID string, last int) int {
	st, err := store.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer st.Close()

	entries, err := logging.ListRuns(st.DB(), chainID, last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
		return 2
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found in run_log")
		return 2
	}

	// rows are shared by every run of the same chain version
	type chainRows struct {
		rec  store.ChainRecord
		rows []persist.Row
	}
	cache := make(map[string]*chainRows)

	var results []replay.ReplayResult
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		cr, ok := cache[entry.ChainID]
		if !ok {
			rec, err := st.GetChain(entry.ChainID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "get chain: %v\n", err)
				return 2
			}
			rows, err := st.LoadRows(entry.ChainID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "load rows: %v\n", err)
				return 2
			}
			cr = &chainRows{rec: rec, rows: rows}
			cache[entry.ChainID] = cr
		}
		res, err := replay.ReplayRun(entry, cr.rows, cr.rec.Precision)
		if err != nil {
			fmt.Fprintf(os.Stderr, "replay run %d: %v\n", entry.ID, err)
			return 2
		}
		results = append(results, res)
	}

	return printComparison(results)
}

// #endregion db-mode

// #region fixture-mode

func runFixtureMode(pattern string) int {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad fixture pattern: %v\n", err)
		return 2
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "no fixtures match %s\n", pattern)
		return 2
	}

	results := make([]replay.ReplayResult, 0, len(paths))
	for _, path := range paths {
		f, err := replay.LoadFixture(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
			return 2
		}
		res, err := replay.ReplayFixture(filepath.Base(path), f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "replay %s: %v\n", path, err)
			return 2
		}
		results = append(results, res)
	}
	return printComparison(results)
}

// #endregion fixture-mode

// #region output

// printComparison outputs one line per replay plus every mismatch and
// returns the exit code.
func printComparison(results []replay.ReplayResult) int {
	fmt.Printf("%-28s| %-8s| %s\n", "Replay", "Outputs", "Match")
	fmt.Printf("%-28s+%-9s+%s\n", "----------------------------", "---------", "------")

	for _, r := range results {
		match := "OK"
		if !r.Passed() {
			match = "DIFF"
		}
		fmt.Printf("%-28s| %-8d| %s\n", r.Name, len(r.Outputs), match)
		for _, m := range r.Mismatches {
			fmt.Printf("    #%d expected %q, replayed %q\n", m.Index, m.Expected, m.Actual)
		}
	}

	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d total, %d match, %d diverge (%d outputs differ)\n",
		s.Total, s.Passed, s.Failed, s.Mismatches)

	if s.Failed > 0 {
		return 1
	}
	return 0
}

// #endregion output
