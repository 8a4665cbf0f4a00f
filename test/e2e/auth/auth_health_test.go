package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLivezEndpoint verifies the liveness check endpoint.
func TestLivezEndpoint(t *testing.T) {
	svc := setupAuthService(t, relaxedRateLimits)

	health, err := svc.client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
	require.NotEmpty(t, health.Version)
}

// TestReadyzEndpoint verifies readiness reports both backing stores.
func TestReadyzEndpoint(t *testing.T) {
	svc := setupAuthService(t, relaxedRateLimits)

	health, err := svc.client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Users)
	require.Equal(t, "ok", health.Checks.Sessions)
}
