package chainrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/markov/internal/pipeline"
)

// #region types

// ProduceParams are the request fields of Produce. Zero values leave the
// server's defaults in place, except Initial which is always sent.
type ProduceParams struct {
	Num         int
	Seed        string
	RandSeed    int64 // carried as a JSON number; keep below 2^53
	Min         int
	Max         int
	Recycle     int
	MaxAttempts int
	Initial     bool
	Unique      bool
}

// #endregion types

// #region client-struct

// Client wraps the gRPC connection to a chain server.
type Client struct {
	conn   *grpc.ClientConn
	client ChainServiceClient
}

// #endregion client-struct

// #region constructor

// NewClient connects to the chain server at addr.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, client: NewChainServiceClient(conn)}, nil
}

// NewClientWithService creates a Client with an injected service
// implementation. Used for testing without a real gRPC connection.
func NewClientWithService(svc ChainServiceClient) *Client {
	return &Client{client: svc}
}

// #endregion constructor

// #region close

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region produce

// Produce asks the server for sequences.
func (c *Client) Produce(ctx context.Context, p ProduceParams) ([]pipeline.Output, error) {
	fields := map[string]any{"initial": p.Initial}
	if p.Unique {
		fields["unique"] = true
	}
	setNonZero(fields, "num", p.Num)
	setNonZero(fields, "min", p.Min)
	setNonZero(fields, "max", p.Max)
	setNonZero(fields, "recycle", p.Recycle)
	setNonZero(fields, "max_attempts", p.MaxAttempts)
	if p.RandSeed != 0 {
		fields["rand_seed"] = p.RandSeed
	}
	if p.Seed != "" {
		fields["seed"] = p.Seed
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode produce request: %w", err)
	}

	resp, err := c.client.Produce(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("produce rpc: %w", err)
	}

	items := resp.GetFields()["outputs"].GetListValue().GetValues()
	outs := make([]pipeline.Output, len(items))
	for i, v := range items {
		f := v.GetStructValue().GetFields()
		outs[i] = pipeline.Output{
			Text:   f["text"].GetStringValue(),
			Seed:   f["seed"].GetStringValue(),
			Reason: f["reason"].GetStringValue(),
			Length: int(f["length"].GetNumberValue()),
		}
	}
	return outs, nil
}

// #endregion produce

// #region probabilities

// Probabilities returns the distribution of key in chain file encoding.
func (c *Client) Probabilities(ctx context.Context, key string) ([]pipeline.Transition, error) {
	in, err := structpb.NewStruct(map[string]any{"key": key})
	if err != nil {
		return nil, fmt.Errorf("encode probabilities request: %w", err)
	}
	resp, err := c.client.Probabilities(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("probabilities rpc: %w", err)
	}

	items := resp.GetFields()["transitions"].GetListValue().GetValues()
	out := make([]pipeline.Transition, len(items))
	for i, v := range items {
		f := v.GetStructValue().GetFields()
		out[i] = pipeline.Transition{Next: f["next"].GetStringValue(), P: f["p"].GetNumberValue()}
	}
	return out, nil
}

// #endregion probabilities

func setNonZero(fields map[string]any, name string, v int) {
	if v != 0 {
		fields[name] = v
	}
}
