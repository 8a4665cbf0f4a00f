package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/store"
	"github.com/aussiebroadwan/authgate/pkg/authsdk"
	"github.com/aussiebroadwan/authgate/pkg/httpx"
	"github.com/aussiebroadwan/authgate/pkg/slogx"
)

const readyzTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness Probe
//	@Description	Pings the credential store and the session stores. 503 if any of them is unreachable.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, users, sessions store.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Users:    ping(ctx, "users", users),
			Sessions: ping(ctx, "sessions", sessions),
		}

		status, code := "ok", http.StatusOK
		if checks.Users != "ok" || checks.Sessions != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}

// ping returns "ok" or "error". A nil pinger has nothing to check.
func ping(ctx context.Context, name string, p store.Pinger) string {
	if p == nil {
		return "ok"
	}
	if err := p.Ping(ctx); err != nil {
		slogx.FromContext(ctx).Warn("readiness check failed", "store", name, "err", err)
		return "error"
	}
	return "ok"
}
