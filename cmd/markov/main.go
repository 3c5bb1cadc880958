package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/danielpatrickdp/markov/internal/config"
	"github.com/danielpatrickdp/markov/internal/errs"
	"github.com/danielpatrickdp/markov/internal/eval"
	"github.com/danielpatrickdp/markov/internal/logging"
	"github.com/danielpatrickdp/markov/internal/persist"
	"github.com/danielpatrickdp/markov/internal/pipeline"
	"github.com/danielpatrickdp/markov/internal/store"
)

// #region main
func main() {
	cfg, err := config.Parse("markov", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	slog.SetDefault(logger)

	if cfg.PerPart {
		if err := runPerPart(cfg); err != nil {
			log.Fatalf("produce parts: %v", err)
		}
		return
	}

	var st *store.Store
	if cfg.DB != "" {
		st, err = store.NewStore(cfg.DB)
		if err != nil {
			log.Fatalf("failed to open store: %v", err)
		}
		defer st.Close()
	}

	if err := run(cfg, st); err != nil {
		if k, ok := errs.KindOf(err); ok {
			log.Fatalf("[%s] %v", k, err)
		}
		log.Fatalf("error: %v", err)
	}
}
// #endregion main

// #region run
func run(cfg *config.Config, st *store.Store) error {
	e, chainID, err := obtainChain(cfg, st)
	if err != nil {
		return err
	}
	if err := e.CheckSeed(cfg.Seed); err != nil {
		return err
	}
	stats := e.Stats()
	slog.Info("chain ready", "domain", e.Domain(), "order", stats.Order, "keys", stats.Keys,
		"initial_keys", stats.InitialKeys, "mean_entropy_bits", stats.MeanEntropy)

	if cfg.Display != "" {
		f, _ := persist.ParseFormat(cfg.Display)
		if err := e.Encode(os.Stdout, f); err != nil {
			return fmt.Errorf("display: %w", err)
		}
	}

	if cfg.Num == 0 {
		return nil
	}
	outs, err := e.Produce(cfg.Request())
	if err != nil {
		return err
	}
	for _, o := range outs {
		fmt.Println(o.Text)
	}
	if len(outs) < cfg.Num {
		slog.Warn("fewer sequences than requested", "requested", cfg.Num, "produced", len(outs))
	}

	if st != nil && chainID != "" {
		entry, err := logging.NewRunEntry(chainID, e.Domain(), cfg.RandSeed, cfg.Seed, cfg.RunConfig(e.Order()), pipeline.Texts(outs))
		if err != nil {
			return err
		}
		id, err := logging.LogRun(st.DB(), entry)
		if err != nil {
			slog.Error("run log failed", "error", err)
		} else {
			slog.Info("run logged", "run_id", id, "chain_id", chainID)
		}
	}
	return nil
}

// obtainChain collects, loads or fetches the chain. The returned chain id is
// set when the chain is stored, so runs against it can be logged.
func obtainChain(cfg *config.Config, st *store.Store) (pipeline.Engine, string, error) {
	switch {
	case cfg.Text != "" || cfg.Source != "":
		return collect(cfg, st)
	case cfg.Chain != "":
		e, err := pipeline.New(cfg.Settings())
		if err != nil {
			return nil, "", err
		}
		if err := e.Load(cfg.Chain); err != nil {
			return nil, "", err
		}
		slog.Info("chain loaded", "path", cfg.Chain)
		return e, "", nil
	default:
		return fromStore(cfg, st)
	}
}

func collect(cfg *config.Config, st *store.Store) (pipeline.Engine, string, error) {
	e, err := pipeline.New(cfg.Settings())
	if err != nil {
		return nil, "", err
	}
	src := cfg.SourceSpec()
	if err := e.Collect(src); err != nil {
		return nil, "", err
	}
	slog.Info("collected", "source", src.String(), "keys", e.Stats().Keys)

	// a bad seed fails the run before anything is persisted
	if err := e.CheckSeed(cfg.Seed); err != nil {
		return nil, "", err
	}

	if cfg.Save == "" && st == nil {
		return e, "", nil
	}

	res := e.Validate(eval.NewEvalHarness(eval.EvalConfig{
		Precision:     cfg.Precision,
		BaseTolerance: eval.DefaultEvalConfig().BaseTolerance,
		MinKeys:       1,
	}))
	if !res.Passed {
		return nil, "", errs.Format("validate chain", errors.New(res.Reason))
	}

	if cfg.Save != "" {
		if err := e.Save(cfg.Save); err != nil {
			return nil, "", err
		}
		slog.Info("chain saved", "path", cfg.Save)
		if cfg.Counts {
			path := persist.CountsPath(cfg.Save)
			if err := e.SaveCounts(path); err != nil {
				return nil, "", err
			}
			slog.Info("counts saved", "path", path)
		}
	}

	if st == nil || cfg.Name == "" {
		return e, "", nil
	}
	statsJSON, _ := json.Marshal(e.Stats())
	rec, err := st.SaveChain(store.ChainRecord{
		Name:      cfg.Name,
		Domain:    e.Domain(),
		Order:     e.Order(),
		Precision: cfg.Precision,
		StatsJSON: string(statsJSON),
	}, e.Rows())
	if err != nil {
		return nil, "", err
	}
	slog.Info("chain stored", "name", rec.Name, "chain_id", rec.ChainID, "parent_id", rec.ParentID)
	return e, rec.ChainID, nil
}

func fromStore(cfg *config.Config, st *store.Store) (pipeline.Engine, string, error) {
	if st == nil || cfg.Name == "" {
		return nil, "", errs.Input("load chain", errs.ErrNoSource)
	}
	rec, err := st.GetActive(cfg.Name)
	if err != nil {
		return nil, "", errs.Input("load chain", err)
	}
	rows, err := st.LoadRows(rec.ChainID)
	if err != nil {
		return nil, "", err
	}
	s := cfg.Settings()
	s.Domain, s.Order, s.Precision = rec.Domain, rec.Order, rec.Precision
	e, err := pipeline.New(s)
	if err != nil {
		return nil, "", err
	}
	if err := e.FromRows(rows); err != nil {
		return nil, "", err
	}
	slog.Info("chain fetched", "name", rec.Name, "chain_id", rec.ChainID)
	return e, rec.ChainID, nil
}
// #endregion run

// #region per-part
func runPerPart(cfg *config.Config) error {
	parts, err := pipeline.ProduceParts(context.Background(), cfg.Settings(), cfg.SourceSpec(), cfg.Request())
	if err != nil {
		return err
	}
	for _, p := range parts {
		fmt.Printf("# %s\n", p.Part)
		for _, o := range p.Outputs {
			fmt.Println(o.Text)
		}
	}
	return nil
}
// #endregion per-part
