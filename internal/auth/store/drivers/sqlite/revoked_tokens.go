package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/pkg/cryptox"
)

type revokedTokensRepo struct {
	q   *queries
	ttl time.Duration
	now func() time.Time
}

func (r *revokedTokensRepo) Revoke(ctx context.Context, token domain.SessionToken) error {
	expiresAt := r.now().Add(r.ttl).UnixMilli()
	return r.q.UpsertRevokedToken(ctx, cryptox.FingerprintToken(token.Expose()), expiresAt)
}

func (r *revokedTokensRepo) IsRevoked(ctx context.Context, token domain.SessionToken) (bool, error) {
	return r.q.IsTokenRevoked(ctx, cryptox.FingerprintToken(token.Expose()), r.now().UnixMilli())
}
