package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
	"github.com/aussiebroadwan/authgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/authgate/internal/auth/store/storetest"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ttl time.Duration) (*sqlite.Store, *storetest.Clock) {
	t.Helper()

	clock := storetest.NewClock()
	dsn := filepath.Join(t.TempDir(), "auth.db")
	s, err := sqlite.NewStore(dsn, storetest.PlainHasher{}, sqlite.Options{
		RevocationTTL:   ttl,
		LoginAttemptTTL: ttl,
		Now:             clock.Now,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s, clock
}

func TestUsers(t *testing.T) {
	storetest.RunUsers(t, func(t *testing.T) store.Users {
		s, _ := newStore(t, 0)
		return s.Users()
	})
}

func TestRevokedTokens(t *testing.T) {
	storetest.RunRevokedTokens(t, func(t *testing.T, ttl time.Duration) (store.RevokedTokens, storetest.Advance) {
		s, clock := newStore(t, ttl)
		return s.RevokedTokens(), clock.Advance
	})
}

func TestLoginAttempts(t *testing.T) {
	storetest.RunLoginAttempts(t, func(t *testing.T, ttl time.Duration) (store.LoginAttempts, storetest.Advance) {
		s, clock := newStore(t, ttl)
		return s.LoginAttempts(), clock.Advance
	})
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s, _ := newStore(t, 0)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestDataSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "auth.db")

	s, err := sqlite.NewStore(dsn, storetest.PlainHasher{}, sqlite.Options{})
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())

	u := domain.User{
		Email:        domain.MustParseEmail("a@example.com"),
		PasswordHash: "plain$password1",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.Users().Add(ctx, u))
	require.NoError(t, s.RevokedTokens().Revoke(ctx, domain.NewSessionToken("a.b.c")))
	require.NoError(t, s.Close())

	s, err = sqlite.NewStore(dsn, storetest.PlainHasher{}, sqlite.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	_, err = s.Users().Get(ctx, u.Email)
	require.NoError(t, err)

	revoked, err := s.RevokedTokens().IsRevoked(ctx, domain.NewSessionToken("a.b.c"))
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestDeleteExpired(t *testing.T) {
	ctx := context.Background()
	s, clock := newStore(t, time.Minute)

	require.NoError(t, s.RevokedTokens().Revoke(ctx, domain.NewSessionToken("a.b.c")))
	code, err := domain.ParseTwoFactorCode("123456")
	require.NoError(t, err)
	require.NoError(t, s.LoginAttempts().Put(ctx, domain.LoginAttempt{
		Email: domain.MustParseEmail("a@example.com"),
		ID:    domain.NewLoginAttemptID(),
		Code:  code,
	}))

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	clock.Advance(time.Minute)

	n, err = s.DeleteExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}
