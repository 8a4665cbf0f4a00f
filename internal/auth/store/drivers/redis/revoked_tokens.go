package redis

import (
	"context"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/pkg/cryptox"
	"github.com/redis/go-redis/v9"
)

type revokedTokensRepo struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func (r *revokedTokensRepo) key(token domain.SessionToken) string {
	return r.prefix + ":revoked:" + cryptox.FingerprintToken(token.Expose())
}

func (r *revokedTokensRepo) Revoke(ctx context.Context, token domain.SessionToken) error {
	if err := r.rdb.Set(ctx, r.key(token), 1, r.ttl).Err(); err != nil {
		return backendErr(err)
	}
	return nil
}

func (r *revokedTokensRepo) IsRevoked(ctx context.Context, token domain.SessionToken) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, backendErr(err)
	}
	return n > 0, nil
}
