// Package memory provides in-process implementations of the store
// interfaces. Each repository guards its state with a single mutex, which is
// plenty for tests and single-node development.
package memory

import (
	"context"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
)

// Options tune the memory store. Zero values fall back to the defaults.
type Options struct {
	RevocationTTL   time.Duration
	LoginAttemptTTL time.Duration

	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

type Store struct {
	users    *usersRepo
	revoked  *revokedTokensRepo
	attempts *loginAttemptsRepo
}

// NewStore returns an empty memory store. hasher verifies passwords in
// Users().Validate.
func NewStore(hasher store.PasswordHasher, opts Options) *Store {
	if opts.RevocationTTL <= 0 {
		opts.RevocationTTL = domain.SessionTTL
	}
	if opts.LoginAttemptTTL <= 0 {
		opts.LoginAttemptTTL = domain.LoginAttemptTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Store{
		users: &usersRepo{
			hasher: hasher,
			users:  make(map[domain.Email]domain.User),
		},
		revoked: &revokedTokensRepo{
			ttl:     opts.RevocationTTL,
			now:     opts.Now,
			entries: make(map[string]time.Time),
		},
		attempts: &loginAttemptsRepo{
			ttl:      opts.LoginAttemptTTL,
			now:      opts.Now,
			attempts: make(map[domain.Email]domain.LoginAttempt),
		},
	}
}

func (s *Store) Users() store.Users                 { return s.users }
func (s *Store) RevokedTokens() store.RevokedTokens { return s.revoked }
func (s *Store) LoginAttempts() store.LoginAttempts { return s.attempts }

// DeleteExpired drops expired revocations and login attempts.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	return s.revoked.deleteExpired() + s.attempts.deleteExpired(), nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }
