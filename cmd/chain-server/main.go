package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/markov/internal/chainrpc"
	"github.com/danielpatrickdp/markov/internal/config"
	"github.com/danielpatrickdp/markov/internal/errs"
	"github.com/danielpatrickdp/markov/internal/logging"
	"github.com/danielpatrickdp/markov/internal/metrics"
	"github.com/danielpatrickdp/markov/internal/pipeline"
	"github.com/danielpatrickdp/markov/internal/store"
)

const shutdownTimeout = 5 * time.Second

// #region main
func main() {
	cfg, err := config.Parse("chain-server", os.Args[1:])
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

	e, name, err := loadChain(cfg)
	if err != nil {
		log.Fatalf("load chain: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := serve(ctx, cfg, name, e, logger); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
// #endregion main

// #region load
// loadChain serves the active stored version of cfg.Name, a chain file, or a
// chain collected from text, in that order of preference.
func loadChain(cfg *config.Config) (pipeline.Engine, string, error) {
	if cfg.DB != "" && cfg.Name != "" {
		st, err := store.NewStore(cfg.DB)
		if err != nil {
			return nil, "", err
		}
		defer st.Close()
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
		return e, rec.Name, nil
	}

	e, err := pipeline.New(cfg.Settings())
	if err != nil {
		return nil, "", err
	}
	name := cfg.Name
	if cfg.Chain != "" {
		if err := e.Load(cfg.Chain); err != nil {
			return nil, "", err
		}
		if name == "" {
			name = cfg.Chain
		}
	} else {
		if err := e.Collect(cfg.SourceSpec()); err != nil {
			return nil, "", err
		}
		if name == "" {
			name = cfg.SourceSpec().String()
		}
	}
	return e, name, nil
}
// #endregion load

// #region serve
func serve(ctx context.Context, cfg *config.Config, name string, e pipeline.Engine, logger *slog.Logger) error {
	m := metrics.New(true)
	srv := chainrpc.NewServer(name, e,
		chainrpc.WithMetrics(m),
		chainrpc.WithLogger(logger),
		chainrpc.WithDefaults(cfg.SequencerConfig()),
	)

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	g := grpc.NewServer()
	hs := srv.Register(g)

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	httpSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	stats := e.Stats()
	slog.Info("chain server ready", "chain", name, "domain", e.Domain(), "order", stats.Order,
		"keys", stats.Keys, "grpc", lis.Addr().String(), "metrics", cfg.MetricsAddr)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := g.Serve(lis); err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics serve: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		hs.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		stopped := make(chan struct{})
		go func() {
			g.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			g.Stop()
		}
		return httpSrv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
// #endregion serve
