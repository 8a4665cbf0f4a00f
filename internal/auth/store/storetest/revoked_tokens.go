package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
	"github.com/stretchr/testify/require"
)

// RunRevokedTokens exercises a store.RevokedTokens whose records live for ttl.
func RunRevokedTokens(t *testing.T, newRepo func(t *testing.T, ttl time.Duration) (store.RevokedTokens, Advance)) {
	t.Helper()
	ctx := context.Background()
	const ttl = 10 * time.Minute

	tokenA := domain.NewSessionToken("header.payload-a.signature")
	tokenB := domain.NewSessionToken("header.payload-b.signature")

	t.Run("unknown token is not revoked", func(t *testing.T) {
		repo, _ := newRepo(t, ttl)
		revoked, err := repo.IsRevoked(ctx, tokenA)
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("revoke is observed", func(t *testing.T) {
		repo, _ := newRepo(t, ttl)
		require.NoError(t, repo.Revoke(ctx, tokenA))

		revoked, err := repo.IsRevoked(ctx, tokenA)
		require.NoError(t, err)
		require.True(t, revoked)

		revoked, err = repo.IsRevoked(ctx, tokenB)
		require.NoError(t, err)
		require.False(t, revoked, "revoking one token must not affect another")
	})

	t.Run("revoking twice is fine", func(t *testing.T) {
		repo, _ := newRepo(t, ttl)
		require.NoError(t, repo.Revoke(ctx, tokenA))
		require.NoError(t, repo.Revoke(ctx, tokenA))

		revoked, err := repo.IsRevoked(ctx, tokenA)
		require.NoError(t, err)
		require.True(t, revoked)
	})

	t.Run("records expire", func(t *testing.T) {
		repo, advance := newRepo(t, ttl)
		require.NoError(t, repo.Revoke(ctx, tokenA))

		advance(ttl - time.Second)
		revoked, err := repo.IsRevoked(ctx, tokenA)
		require.NoError(t, err)
		require.True(t, revoked)

		advance(2 * time.Second)
		revoked, err = repo.IsRevoked(ctx, tokenA)
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("concurrent revocations", func(t *testing.T) {
		repo, _ := newRepo(t, ttl)
		tokens := make([]domain.SessionToken, 32)
		for i := range tokens {
			tokens[i] = domain.NewSessionToken("header.payload-" + string(rune('A'+i)) + ".signature")
		}

		var wg sync.WaitGroup
		for _, tok := range tokens {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = repo.Revoke(ctx, tok)
			}()
		}
		wg.Wait()

		for _, tok := range tokens {
			revoked, err := repo.IsRevoked(ctx, tok)
			require.NoError(t, err)
			require.True(t, revoked)
		}
	})
}
