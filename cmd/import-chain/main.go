package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/danielpatrickdp/markov/internal/config"
	"github.com/danielpatrickdp/markov/internal/eval"
	"github.com/danielpatrickdp/markov/internal/pipeline"
	"github.com/danielpatrickdp/markov/internal/store"
)

// #region main
func main() {
	cfg, err := config.Parse("import-chain", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Chain == "" || cfg.DB == "" || cfg.Name == "" {
		fmt.Fprintln(os.Stderr, "usage: import-chain -chain path/to/chain.{csv,json,yaml} -db path/to/markov.db -name name [-domain d] [-order n]")
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	fmt.Println("=== Chain Import Tool ===")
	fmt.Printf("  File: %s | DB: %s | Name: %s\n", cfg.Chain, cfg.DB, cfg.Name)
	fmt.Printf("  Domain: %s | Precision: %d\n", cfg.Domain, cfg.Precision)

	e, err := pipeline.New(cfg.Settings())
	if err != nil {
		log.Fatalf("engine: %v", err)
	}
	fmt.Print("Loading chain... ")
	if err := e.Load(cfg.Chain); err != nil {
		log.Fatalf("load chain: %v", err)
	}
	stats := e.Stats()
	fmt.Printf("order %d, %d keys, %d transitions.\n", stats.Order, stats.Keys, stats.Transitions)

	fmt.Print("Validating... ")
	res := e.Validate(eval.NewEvalHarness(eval.EvalConfig{
		Precision:     cfg.Precision,
		BaseTolerance: eval.DefaultEvalConfig().BaseTolerance,
		MinKeys:       1,
	}))
	if !res.Passed {
		fmt.Println("FAILED")
		for _, m := range res.Metrics {
			if !m.Pass {
				fmt.Printf("  %-22s %g\n", m.Name, m.Value)
			}
		}
		log.Fatalf("chain rejected: %s", res.Reason)
	}
	fmt.Println("ok.")

	st, err := store.NewStore(cfg.DB)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		log.Fatalf("marshal stats: %v", err)
	}
	rec, err := st.SaveChain(store.ChainRecord{
		Name:      cfg.Name,
		Domain:    e.Domain(),
		Order:     e.Order(),
		Precision: cfg.Precision,
		StatsJSON: string(statsJSON),
	}, e.Rows())
	if err != nil {
		log.Fatalf("store chain: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Import Complete ===")
	fmt.Printf("  Chain:  %s\n", rec.ChainID)
	if rec.ParentID != "" {
		fmt.Printf("  Parent: %s\n", rec.ParentID)
	}
	fmt.Printf("  Rows:   %d\n", rec.Rows)
}
// #endregion main
