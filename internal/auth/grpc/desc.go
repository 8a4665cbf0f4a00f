// Package grpc exposes session verification over gRPC for services that
// cannot read the session cookie.
//
// The wire contract is the single-method service
//
//	service Auth {
//	  rpc VerifyToken(VerifyTokenRequest) returns (VerifyTokenResponse);
//	}
//
// whose messages carry one field each (token = 1, success = 1). They are
// encoded with the well-known StringValue and BoolValue types, which share
// that layout, so no generated code is needed.
package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "auth.Auth"

	// VerifyTokenMethod is the full method name of VerifyToken.
	VerifyTokenMethod = "/" + ServiceName + "/VerifyToken"
)

// AuthServer is the server API for the auth.Auth service.
type AuthServer interface {
	VerifyToken(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// AuthClient is the client API for the auth.Auth service.
type AuthClient interface {
	VerifyToken(ctx context.Context, req *wrapperspb.StringValue, opts ...gogrpc.CallOption) (*wrapperspb.BoolValue, error)
}

type authClient struct {
	cc gogrpc.ClientConnInterface
}

func NewAuthClient(cc gogrpc.ClientConnInterface) AuthClient {
	return &authClient{cc: cc}
}

func (c *authClient) VerifyToken(ctx context.Context, req *wrapperspb.StringValue, opts ...gogrpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, VerifyTokenMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterAuthServer registers srv on s.
func RegisterAuthServer(s gogrpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes auth.Auth for grpc.Server.RegisterService.
var ServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{
			MethodName: "VerifyToken",
			Handler:    verifyTokenHandler,
		},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "auth.proto",
}

func verifyTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServer).VerifyToken(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: VerifyTokenMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServer).VerifyToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
