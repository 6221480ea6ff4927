package ratelimiterv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func errUnimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

// Full method names of the Ratelimiter service.
const (
	Ratelimiter_SubmitTicket_FullMethodName  = "/ratelimiter.v1.Ratelimiter/SubmitTicket"
	Ratelimiter_SubmitHeaders_FullMethodName = "/ratelimiter.v1.Ratelimiter/SubmitHeaders"
)

// RatelimiterClient is the client API for the Ratelimiter service.
type RatelimiterClient interface {
	SubmitTicket(ctx context.Context, in *BucketSubmitTicketRequest, opts ...grpc.CallOption) (*BucketSubmitTicketResponse, error)
	SubmitHeaders(ctx context.Context, in *HeadersSubmitRequest, opts ...grpc.CallOption) (*HeadersSubmitResponse, error)
}

type ratelimiterClient struct {
	cc grpc.ClientConnInterface
}

// NewRatelimiterClient constructs a client over an established connection.
func NewRatelimiterClient(cc grpc.ClientConnInterface) RatelimiterClient {
	return &ratelimiterClient{cc: cc}
}

func (c *ratelimiterClient) SubmitTicket(ctx context.Context, in *BucketSubmitTicketRequest, opts ...grpc.CallOption) (*BucketSubmitTicketResponse, error) {
	out := new(BucketSubmitTicketResponse)
	if err := c.cc.Invoke(ctx, Ratelimiter_SubmitTicket_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ratelimiterClient) SubmitHeaders(ctx context.Context, in *HeadersSubmitRequest, opts ...grpc.CallOption) (*HeadersSubmitResponse, error) {
	out := new(HeadersSubmitResponse)
	if err := c.cc.Invoke(ctx, Ratelimiter_SubmitHeaders_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RatelimiterServer is the server API for the Ratelimiter service.
type RatelimiterServer interface {
	SubmitTicket(ctx context.Context, in *BucketSubmitTicketRequest) (*BucketSubmitTicketResponse, error)
	SubmitHeaders(ctx context.Context, in *HeadersSubmitRequest) (*HeadersSubmitResponse, error)
}

// UnimplementedRatelimiterServer can be embedded for forward compatibility.
type UnimplementedRatelimiterServer struct{}

// SubmitTicket returns an unimplemented error.
func (UnimplementedRatelimiterServer) SubmitTicket(context.Context, *BucketSubmitTicketRequest) (*BucketSubmitTicketResponse, error) {
	return nil, errUnimplemented("SubmitTicket")
}

// SubmitHeaders returns an unimplemented error.
func (UnimplementedRatelimiterServer) SubmitHeaders(context.Context, *HeadersSubmitRequest) (*HeadersSubmitResponse, error) {
	return nil, errUnimplemented("SubmitHeaders")
}

// RegisterRatelimiterServer registers the service implementation.
func RegisterRatelimiterServer(s grpc.ServiceRegistrar, srv RatelimiterServer) {
	s.RegisterService(&Ratelimiter_ServiceDesc, srv)
}

func _Ratelimiter_SubmitTicket_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BucketSubmitTicketRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RatelimiterServer).SubmitTicket(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Ratelimiter_SubmitTicket_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RatelimiterServer).SubmitTicket(ctx, req.(*BucketSubmitTicketRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Ratelimiter_SubmitHeaders_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HeadersSubmitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RatelimiterServer).SubmitHeaders(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Ratelimiter_SubmitHeaders_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RatelimiterServer).SubmitHeaders(ctx, req.(*HeadersSubmitRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Ratelimiter_ServiceDesc is the grpc.ServiceDesc for the Ratelimiter service.
var Ratelimiter_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "ratelimiter.v1.Ratelimiter",
	HandlerType: (*RatelimiterServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SubmitTicket",
			Handler:    _Ratelimiter_SubmitTicket_Handler,
		},
		{
			MethodName: "SubmitHeaders",
			Handler:    _Ratelimiter_SubmitHeaders_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ratelimiter/v1/ratelimiter.proto",
}
