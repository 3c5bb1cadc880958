// Package chainrpc serves chain production over gRPC. Messages are
// structpb.Struct values so the service needs no generated code.
package chainrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-desc

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "markov.v1.ChainService"

const (
	produceMethod       = "/" + ServiceName + "/Produce"
	probabilitiesMethod = "/" + ServiceName + "/Probabilities"
)

// ChainServiceServer is the server side of the chain service.
type ChainServiceServer interface {
	Produce(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Probabilities(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterChainServiceServer registers srv on s.
func RegisterChainServiceServer(s grpc.ServiceRegistrar, srv ChainServiceServer) {
	s.RegisterService(&ChainServiceDesc, srv)
}

func produceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChainServiceServer).Produce(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: produceMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ChainServiceServer).Produce(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func probabilitiesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChainServiceServer).Probabilities(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: probabilitiesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ChainServiceServer).Probabilities(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ChainServiceDesc describes the chain service for grpc.Server.
var ChainServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChainServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Produce", Handler: produceHandler},
		{MethodName: "Probabilities", Handler: probabilitiesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "markov/v1/chain.proto",
}

// #endregion service-desc

// #region service-client

// ChainServiceClient is the client side of the chain service.
type ChainServiceClient interface {
	Produce(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Probabilities(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type chainServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewChainServiceClient returns a client over cc.
func NewChainServiceClient(cc grpc.ClientConnInterface) ChainServiceClient {
	return &chainServiceClient{cc: cc}
}

func (c *chainServiceClient) Produce(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, produceMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *chainServiceClient) Probabilities(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, probabilitiesMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion service-client
