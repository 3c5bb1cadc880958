package chainrpc

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/markov/internal/errs"
	"github.com/danielpatrickdp/markov/internal/metrics"
	"github.com/danielpatrickdp/markov/internal/pipeline"
	"github.com/danielpatrickdp/markov/internal/sequencer"
)

// #region server

// Server answers production requests from one loaded chain. Each request
// runs its own Sequencer; the chain is only read.
type Server struct {
	name     string
	engine   pipeline.Engine
	defaults sequencer.Config
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMetrics reports productions and closed sequences to m.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithDefaults sets the production knobs used for fields a request omits.
func WithDefaults(cfg sequencer.Config) ServerOption {
	return func(s *Server) { s.defaults = cfg }
}

// NewServer serves e under name.
func NewServer(name string, e pipeline.Engine, opts ...ServerOption) *Server {
	s := &Server{
		name:     name,
		engine:   e,
		defaults: sequencer.DefaultConfig(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil {
		s.metrics.SetChainKeys(name, e.Stats().Keys)
	}
	return s
}

// Register adds the chain service and a health service to g.
func (s *Server) Register(g *grpc.Server) *health.Server {
	RegisterChainServiceServer(g, s)
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(g, hs)
	return hs
}

// #endregion server

// #region produce

// Produce reads num, seed, rand_seed, min, max, initial, unique, recycle
// and max_attempts from the request and returns {"chain", "domain", "outputs"}.
func (s *Server) Produce(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	f := in.GetFields()
	cfg := s.defaults
	var randSeed int
	for _, fld := range []struct {
		name string
		dst  *int
	}{
		{"num", &cfg.Count},
		{"min", &cfg.MinLength},
		{"max", &cfg.MaxLength},
		{"recycle", &cfg.RecycleThreshold},
		{"max_attempts", &cfg.MaxAttempts},
		{"rand_seed", &randSeed},
	} {
		v, err := intField(f, fld.name, *fld.dst)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		*fld.dst = v
	}
	cfg.InitialOnly = boolField(f, "initial", cfg.InitialOnly)
	if err := cfg.Validate(); err != nil {
		return nil, toStatus(err)
	}
	req := pipeline.Request{
		Config:   cfg,
		RandSeed: int64(randSeed),
		Seed:     f["seed"].GetStringValue(),
		Unique:   boolField(f, "unique", false),
	}

	var opts []sequencer.Option
	if s.metrics != nil {
		opts = append(opts, sequencer.WithObserver(s.metrics))
	}
	opts = append(opts, sequencer.WithLogger(s.logger))
	outs, err := s.engine.Produce(req, opts...)
	if s.metrics != nil {
		s.metrics.ObserveProduction(s.engine.Domain(), err)
	}
	if err != nil {
		s.logger.Warn("produce failed", "chain", s.name, "error", err)
		return nil, toStatus(err)
	}
	s.logger.Debug("produced", "chain", s.name, "count", len(outs), "rand_seed", req.RandSeed)

	items := make([]any, len(outs))
	for i, o := range outs {
		items[i] = map[string]any{
			"text":   o.Text,
			"seed":   o.Seed,
			"reason": o.Reason,
			"length": o.Length,
		}
	}
	return newStruct(map[string]any{
		"chain":   s.name,
		"domain":  s.engine.Domain(),
		"outputs": items,
	})
}

// #endregion produce

// #region probabilities

// Probabilities returns the distribution of {"key"} as
// {"key", "transitions": [{"next", "p"}]}.
func (s *Server) Probabilities(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	key := in.GetFields()["key"].GetStringValue()
	ts, err := s.engine.Transitions(key)
	if err != nil {
		return nil, toStatus(err)
	}
	items := make([]any, len(ts))
	for i, t := range ts {
		items[i] = map[string]any{"next": t.Next, "p": t.P}
	}
	return newStruct(map[string]any{"key": key, "transitions": items})
}

// #endregion probabilities

// #region helpers

// maxExactInt is the largest integer a JSON number holds exactly.
const maxExactInt = 1 << 53

// intField reads a whole number field. Fractions, non-finite values and
// magnitudes past 2^53 are rejected; a missing or non-number field keeps def.
func intField(f map[string]*structpb.Value, name string, def int) (int, error) {
	v, ok := f[name]
	if !ok {
		return def, nil
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return def, nil
	}
	n := v.GetNumberValue()
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || math.Abs(n) > maxExactInt {
		return 0, fmt.Errorf("field %q: %v is not a whole number in range", name, n)
	}
	return int(n), nil
}

func boolField(f map[string]*structpb.Value, name string, def bool) bool {
	v, ok := f[name]
	if !ok {
		return def
	}
	if _, isBool := v.GetKind().(*structpb.Value_BoolValue); !isBool {
		return def
	}
	return v.GetBoolValue()
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}

// toStatus maps the error taxonomy onto gRPC codes.
func toStatus(err error) error {
	switch {
	case errs.IsParameter(err), errs.IsInput(err), errs.IsFormat(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errs.IsModelEmpty(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// #endregion helpers
