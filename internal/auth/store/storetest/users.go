package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
	"github.com/stretchr/testify/require"
)

// RunUsers exercises a store.Users built with PlainHasher.
func RunUsers(t *testing.T, newUsers func(t *testing.T) store.Users) {
	t.Helper()
	ctx := context.Background()

	user := func(t *testing.T, email, password string, twoFA bool) domain.User {
		hash, err := PlainHasher{}.Hash(ctx, password)
		require.NoError(t, err)
		return domain.User{
			Email:                domain.MustParseEmail(email),
			PasswordHash:         hash,
			RequiresSecondFactor: twoFA,
			CreatedAt:            time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}

	t.Run("add then get", func(t *testing.T) {
		users := newUsers(t)
		u := user(t, "a@example.com", "password1", true)

		require.NoError(t, users.Add(ctx, u))

		got, err := users.Get(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, u.Email, got.Email)
		require.Equal(t, u.PasswordHash, got.PasswordHash)
		require.True(t, got.RequiresSecondFactor)
		require.True(t, u.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("get unknown", func(t *testing.T) {
		users := newUsers(t)
		_, err := users.Get(ctx, domain.MustParseEmail("nobody@example.com"))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate add keeps the first record", func(t *testing.T) {
		users := newUsers(t)
		first := user(t, "a@example.com", "password1", false)
		second := user(t, "a@example.com", "password2", true)

		require.NoError(t, users.Add(ctx, first))
		require.ErrorIs(t, users.Add(ctx, second), store.ErrAlreadyExists)

		got, err := users.Get(ctx, first.Email)
		require.NoError(t, err)
		require.Equal(t, first.PasswordHash, got.PasswordHash)
		require.False(t, got.RequiresSecondFactor)
	})

	t.Run("concurrent adds have one winner", func(t *testing.T) {
		users := newUsers(t)
		const n = 16

		var (
			wg      sync.WaitGroup
			wins    atomic.Int32
			dupes   atomic.Int32
			unknown atomic.Int32
		)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := users.Add(ctx, user(t, "race@example.com", "password"+string(rune('a'+i)), false))
				switch {
				case err == nil:
					wins.Add(1)
				case errorIs(err, store.ErrAlreadyExists):
					dupes.Add(1)
				default:
					unknown.Add(1)
				}
			}()
		}
		wg.Wait()

		require.EqualValues(t, 1, wins.Load())
		require.EqualValues(t, n-1, dupes.Load())
		require.Zero(t, unknown.Load())
	})

	t.Run("validate", func(t *testing.T) {
		users := newUsers(t)
		u := user(t, "a@example.com", "password1", false)
		require.NoError(t, users.Add(ctx, u))

		got, err := users.Validate(ctx, u.Email, mustPassword(t, "password1"))
		require.NoError(t, err)
		require.Equal(t, u.Email, got.Email)
		require.Equal(t, u.RequiresSecondFactor, got.RequiresSecondFactor)

		_, err = users.Validate(ctx, u.Email, mustPassword(t, "password2"))
		require.ErrorIs(t, err, store.ErrInvalidCredentials)
		_, err = users.Validate(ctx, domain.MustParseEmail("b@example.com"), mustPassword(t, "password1"))
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func mustPassword(t *testing.T, raw string) domain.Password {
	t.Helper()
	p, err := domain.ParsePassword(raw)
	require.NoError(t, err)
	return p
}
