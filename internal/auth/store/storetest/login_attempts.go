package storetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
	"github.com/stretchr/testify/require"
)

// RunLoginAttempts exercises a store.LoginAttempts whose records live for ttl.
// Attempts are stored with a zero IssuedAt so the driver stamps its own clock.
func RunLoginAttempts(t *testing.T, newRepo func(t *testing.T, ttl time.Duration) (store.LoginAttempts, Advance)) {
	t.Helper()
	ctx := context.Background()
	const ttl = 10 * time.Minute

	email := domain.MustParseEmail("a@example.com")
	attempt := func(t *testing.T, code string) domain.LoginAttempt {
		c, err := domain.ParseTwoFactorCode(code)
		require.NoError(t, err)
		return domain.LoginAttempt{Email: email, ID: domain.NewLoginAttemptID(), Code: c}
	}

	t.Run("put then get", func(t *testing.T) {
		repo, _ := newRepo(t, ttl)
		a := attempt(t, "123456")
		require.NoError(t, repo.Put(ctx, a))

		got, err := repo.Get(ctx, email)
		require.NoError(t, err)
		require.Equal(t, a.Email, got.Email)
		require.Equal(t, a.ID, got.ID)
		require.Equal(t, "123456", got.Code.Expose())
		require.False(t, got.IssuedAt.IsZero())
	})

	t.Run("get unknown", func(t *testing.T) {
		repo, _ := newRepo(t, ttl)
		_, err := repo.Get(ctx, email)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put replaces earlier attempt", func(t *testing.T) {
		repo, _ := newRepo(t, ttl)
		first := attempt(t, "111111")
		second := attempt(t, "222222")
		require.NoError(t, repo.Put(ctx, first))
		require.NoError(t, repo.Put(ctx, second))

		got, err := repo.Get(ctx, email)
		require.NoError(t, err)
		require.Equal(t, second.ID, got.ID)
		require.Equal(t, "222222", got.Code.Expose())
	})

	t.Run("remove", func(t *testing.T) {
		repo, _ := newRepo(t, ttl)
		require.NoError(t, repo.Remove(ctx, email), "removing nothing is not an error")

		require.NoError(t, repo.Put(ctx, attempt(t, "123456")))
		require.NoError(t, repo.Remove(ctx, email))

		_, err := repo.Get(ctx, email)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("remove if current", func(t *testing.T) {
		repo, _ := newRepo(t, ttl)
		stale := attempt(t, "111111")
		current := attempt(t, "222222")
		require.NoError(t, repo.Put(ctx, stale))
		require.NoError(t, repo.Put(ctx, current))

		removed, err := repo.RemoveIfCurrent(ctx, email, stale.ID)
		require.NoError(t, err)
		require.False(t, removed)

		_, err = repo.Get(ctx, email)
		require.NoError(t, err, "a stale id must not remove the current attempt")

		removed, err = repo.RemoveIfCurrent(ctx, email, current.ID)
		require.NoError(t, err)
		require.True(t, removed)

		_, err = repo.Get(ctx, email)
		require.ErrorIs(t, err, store.ErrNotFound)

		removed, err = repo.RemoveIfCurrent(ctx, email, current.ID)
		require.NoError(t, err)
		require.False(t, removed)
	})

	t.Run("concurrent consumers have one winner", func(t *testing.T) {
		repo, _ := newRepo(t, ttl)
		a := attempt(t, "123456")
		require.NoError(t, repo.Put(ctx, a))

		var (
			wg   sync.WaitGroup
			wins atomic.Int32
		)
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, err := repo.RemoveIfCurrent(ctx, email, a.ID); err == nil && ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		require.EqualValues(t, 1, wins.Load())
	})

	t.Run("attempts expire", func(t *testing.T) {
		repo, advance := newRepo(t, ttl)
		a := attempt(t, "123456")
		require.NoError(t, repo.Put(ctx, a))

		advance(ttl - time.Second)
		_, err := repo.Get(ctx, email)
		require.NoError(t, err)

		advance(2 * time.Second)
		_, err = repo.Get(ctx, email)
		require.ErrorIs(t, err, store.ErrNotFound)

		removed, err := repo.RemoveIfCurrent(ctx, email, a.ID)
		require.NoError(t, err)
		require.False(t, removed)
	})
}

func errorIs(err, target error) bool { return errors.Is(err, target) }
