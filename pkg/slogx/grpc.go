package slogx

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/authgate/pkg/idx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// requestIDMetadataKey is the gRPC counterpart of RequestIDHeader.
const requestIDMetadataKey = "x-request-id"

// UnaryServerInterceptor attaches a contextual logger to each unary call and
// logs its outcome, mirroring HTTPMiddleware.
func UnaryServerInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		var inbound string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(requestIDMetadataKey); len(v) > 0 {
				inbound = v[0]
			}
		}
		reqID := idx.FromHeader(inbound).String()

		logger := base.With(
			"req_id", reqID,
			"rpc", info.FullMethod,
		)
		ctx = WithContext(ctx, logger)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		logger.Log(ctx, LevelForCode(code), "grpc_request",
			"code", code.String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

// LevelForCode picks the log level for a gRPC status code.
func LevelForCode(code codes.Code) slog.Level {
	switch code {
	case codes.OK:
		return slog.LevelInfo
	case codes.Unknown, codes.DeadlineExceeded, codes.Unimplemented, codes.Internal,
		codes.Unavailable, codes.DataLoss:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
