package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/authgate/internal/auth/service"
	"github.com/aussiebroadwan/authgate/pkg/slogx"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Handler implements AuthServer on top of the orchestrator.
type Handler struct {
	Auth *service.AuthService
}

// VerifyToken answers true for a live session token and false for any token
// that is invalid. Only failures of the service itself surface as errors.
func (h *Handler) VerifyToken(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	_, err := h.Auth.VerifyToken(ctx, req.GetValue())
	switch {
	case err == nil:
		return wrapperspb.Bool(true), nil
	case errors.Is(err, service.ErrInvalidToken):
		return wrapperspb.Bool(false), nil
	default:
		slogx.FromContext(ctx).Error("verify token failed", "err", err)
		return nil, status.Error(codes.Unavailable, "Unexpected error")
	}
}

// Server is a gRPC server carrying the auth service and the standard health
// service.
type Server struct {
	*gogrpc.Server
	health *health.Server
}

func NewServer(auth *service.AuthService, logger *slog.Logger) *Server {
	s := gogrpc.NewServer(
		gogrpc.StatsHandler(otelgrpc.NewServerHandler()),
		gogrpc.ChainUnaryInterceptor(slogx.UnaryServerInterceptor(logger)),
	)

	RegisterAuthServer(s, &Handler{Auth: auth})

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{Server: s, health: hs}
}

// GracefulStop marks every service as not serving, then drains in-flight
// calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.Server.GracefulStop()
}
