package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
	_ "modernc.org/sqlite"
)

// Options tune the SQLite store. Zero values fall back to the defaults.
type Options struct {
	RevocationTTL   time.Duration
	LoginAttemptTTL time.Duration
	Now             func() time.Time
}

type Store struct {
	db     *sql.DB
	q      *queries
	hasher store.PasswordHasher
	opts   Options
}

// NewStore opens the database at dsn. Call ApplyMigrations before use.
func NewStore(dsn string, hasher store.PasswordHasher, opts Options) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite has a single writer; one connection avoids SQLITE_BUSY and keeps
	// ":memory:" databases from splitting across connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

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
		db:     db,
		q:      &queries{db: db},
		hasher: hasher,
		opts:   opts,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Users() store.Users { return &usersRepo{q: s.q, hasher: s.hasher} }

func (s *Store) RevokedTokens() store.RevokedTokens {
	return &revokedTokensRepo{q: s.q, ttl: s.opts.RevocationTTL, now: s.opts.Now}
}

func (s *Store) LoginAttempts() store.LoginAttempts {
	return &loginAttemptsRepo{q: s.q, ttl: s.opts.LoginAttemptTTL, now: s.opts.Now}
}

// DeleteExpired removes revocations and login attempts past their expiry.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	now := s.opts.Now().UnixMilli()

	tokens, err := s.q.DeleteExpiredRevokedTokens(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired revoked tokens: %w", err)
	}
	attempts, err := s.q.DeleteExpiredLoginAttempts(ctx, now)
	if err != nil {
		return tokens, fmt.Errorf("delete expired login attempts: %w", err)
	}
	return tokens + attempts, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
