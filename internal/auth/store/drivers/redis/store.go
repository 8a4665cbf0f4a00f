// Package redis implements the revoked-token and login-attempt stores on
// Redis. Records carry a native TTL, so there is no sweeper.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
	"github.com/redis/go-redis/v9"
)

// ErrBackend wraps every failure talking to Redis.
var ErrBackend = errors.New("redis: backend unavailable")

const DefaultKeyPrefix = "authgate"

type Options struct {
	KeyPrefix       string
	RevocationTTL   time.Duration
	LoginAttemptTTL time.Duration
	Now             func() time.Time
}

type Store struct {
	rdb  redis.UniversalClient
	opts Options
}

func NewStore(rdb redis.UniversalClient, opts Options) *Store {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
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
	return &Store{rdb: rdb, opts: opts}
}

// Open parses a redis:// URL and returns a store backed by a new client.
func Open(url string, opts Options) (*Store, error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewStore(redis.NewClient(o), opts), nil
}

func (s *Store) RevokedTokens() store.RevokedTokens {
	return &revokedTokensRepo{rdb: s.rdb, prefix: s.opts.KeyPrefix, ttl: s.opts.RevocationTTL}
}

func (s *Store) LoginAttempts() store.LoginAttempts {
	return &loginAttemptsRepo{rdb: s.rdb, prefix: s.opts.KeyPrefix, ttl: s.opts.LoginAttemptTTL, now: s.opts.Now}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return backendErr(err)
	}
	return nil
}

func (s *Store) Close() error { return s.rdb.Close() }

func backendErr(err error) error {
	return fmt.Errorf("%w: %v", ErrBackend, err)
}
