package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/markov/internal/logging"
	"github.com/danielpatrickdp/markov/internal/replay"
	"github.com/danielpatrickdp/markov/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the chain store")
	runID := flag.Int64("run", 0, "run_log id to export (0 means the most recent run)")
	outPath := flag.String("out", "", "output fixture JSON path")
	desc := flag.String("desc", "", "fixture description")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/markov.db --out path/to/fixture.json [--run id] [--desc text]")
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *outPath, *desc); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath string, runID int64, outPath, desc string) error {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	var entry logging.RunEntry
	if runID == 0 {
		entries, err := logging.ListRuns(st.DB(), "", 1)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("no runs found in run_log")
		}
		entry = entries[0]
	} else {
		entry, err = logging.GetRun(st.DB(), runID)
		if err != nil {
			return err
		}
	}

	rec, err := st.GetChain(entry.ChainID)
	if err != nil {
		return err
	}
	rows, err := st.LoadRows(entry.ChainID)
	if err != nil {
		return err
	}

	if desc == "" {
		desc = fmt.Sprintf("run %d of %s (%s, order %d)", entry.ID, rec.Name, rec.Domain, rec.Order)
	}
	f, err := replay.FromRun(entry, rows, rec.Precision, desc)
	if err != nil {
		return fmt.Errorf("build fixture: %w", err)
	}
	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}

	fmt.Printf("Exported run %d (%d rows, %d outputs) to %s\n", entry.ID, len(f.Rows), len(f.Expected), outPath)
	return nil
}

// #endregion extract
