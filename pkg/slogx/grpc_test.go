package slogx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/aussiebroadwan/authgate/pkg/idx"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestUnaryServerInterceptor(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	reqID := idx.New().String()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", reqID))
	info := &grpc.UnaryServerInfo{FullMethod: "/auth.Auth/VerifyToken"}

	var sawLogger bool
	_, err := UnaryServerInterceptor(base)(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		sawLogger = FromContext(ctx) != slog.Default()
		return nil, status.Error(codes.Unavailable, "down")
	})
	require.Equal(t, codes.Unavailable, status.Code(err))
	require.True(t, sawLogger)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "grpc_request", entry["msg"])
	require.Equal(t, "ERROR", entry["level"])
	require.Equal(t, reqID, entry["req_id"])
	require.Equal(t, "/auth.Auth/VerifyToken", entry["rpc"])
	require.Equal(t, "Unavailable", entry["code"])
}

func TestLevelForCode(t *testing.T) {
	require.Equal(t, slog.LevelInfo, LevelForCode(codes.OK))
	require.Equal(t, slog.LevelWarn, LevelForCode(codes.InvalidArgument))
	require.Equal(t, slog.LevelError, LevelForCode(codes.Unavailable))
}
