package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/pkg/cryptox"
)

type revokedTokensRepo struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time // fingerprint -> expires at
}

func (r *revokedTokensRepo) Revoke(ctx context.Context, token domain.SessionToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[cryptox.FingerprintToken(token.Expose())] = r.now().Add(r.ttl)
	return nil
}

func (r *revokedTokensRepo) IsRevoked(ctx context.Context, token domain.SessionToken) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiresAt, ok := r.entries[cryptox.FingerprintToken(token.Expose())]
	return ok && r.now().Before(expiresAt), nil
}

func (r *revokedTokensRepo) deleteExpired() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var n int64
	for fp, expiresAt := range r.entries {
		if !now.Before(expiresAt) {
			delete(r.entries, fp)
			n++
		}
	}
	return n
}
