package app

import (
	"errors"
	"fmt"
	"io"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/authgate/internal/auth/store"
	"github.com/aussiebroadwan/authgate/internal/auth/store/drivers/memory"
	redisstore "github.com/aussiebroadwan/authgate/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/authgate/internal/auth/store/drivers/sqlite"
)

// stores holds the variants selected by USER_STORE and SESSION_STORE. When
// both name the same backend they share one instance.
type stores struct {
	users    store.Users
	revoked  store.RevokedTokens
	attempts store.LoginAttempts

	usersPing    store.Pinger
	sessionsPing store.Pinger

	sweepers []store.Sweeper
	closers  []io.Closer

	mem  *memory.Store
	lite *sqlite.Store
}

func openStores(cfg Config, hasher store.PasswordHasher) (_ *stores, err error) {
	s := &stores{}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	switch cfg.UserStore {
	case StoreMemory:
		m := s.memory(cfg, hasher)
		s.users, s.usersPing = m.Users(), m
	case StoreSQLite:
		db, err := s.sqlite(cfg, hasher)
		if err != nil {
			return nil, err
		}
		s.users, s.usersPing = db.Users(), db
	default:
		return nil, fmt.Errorf("unknown user store %q", cfg.UserStore)
	}

	switch cfg.SessionStore {
	case StoreMemory:
		m := s.memory(cfg, hasher)
		s.revoked, s.attempts, s.sessionsPing = m.RevokedTokens(), m.LoginAttempts(), m
	case StoreSQLite:
		db, err := s.sqlite(cfg, hasher)
		if err != nil {
			return nil, err
		}
		s.revoked, s.attempts, s.sessionsPing = db.RevokedTokens(), db.LoginAttempts(), db
	case StoreRedis:
		rs, err := openRedis(cfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, rs)
		s.revoked, s.attempts, s.sessionsPing = rs.RevokedTokens(), rs.LoginAttempts(), rs
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}

	return s, nil
}

// openRedis prefers REDIS_URL and falls back to the discrete REDIS_* keys.
func openRedis(cfg Config) (*redisstore.Store, error) {
	opts := redisstore.Options{
		KeyPrefix:       cfg.RedisKeyPrefix,
		RevocationTTL:   cfg.SessionTTL,
		LoginAttemptTTL: cfg.LoginAttemptTTL,
	}
	if cfg.RedisURL != "" {
		return redisstore.Open(cfg.RedisURL, opts)
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return redisstore.NewStore(rdb, opts), nil
}

func (s *stores) memory(cfg Config, hasher store.PasswordHasher) *memory.Store {
	if s.mem == nil {
		s.mem = memory.NewStore(hasher, memory.Options{
			RevocationTTL:   cfg.SessionTTL,
			LoginAttemptTTL: cfg.LoginAttemptTTL,
		})
		s.sweepers = append(s.sweepers, s.mem)
	}
	return s.mem
}

func (s *stores) sqlite(cfg Config, hasher store.PasswordHasher) (*sqlite.Store, error) {
	if s.lite != nil {
		return s.lite, nil
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn, hasher, sqlite.Options{
		RevocationTTL:   cfg.SessionTTL,
		LoginAttemptTTL: cfg.LoginAttemptTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s.closers = append(s.closers, db)

	if err := db.ApplyMigrations(); err != nil {
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	s.lite = db
	s.sweepers = append(s.sweepers, db)
	return db, nil
}

// Close releases every opened backend, last opened first.
func (s *stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
