package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
)

type loginAttemptsRepo struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	attempts map[domain.Email]domain.LoginAttempt
}

func (r *loginAttemptsRepo) Put(ctx context.Context, a domain.LoginAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.IssuedAt.IsZero() {
		a.IssuedAt = r.now()
	}
	r.attempts[a.Email] = a
	return nil
}

func (r *loginAttemptsRepo) Get(ctx context.Context, email domain.Email) (domain.LoginAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attempts[email]
	if !ok {
		return domain.LoginAttempt{}, store.ErrNotFound
	}
	if a.Expired(r.now(), r.ttl) {
		delete(r.attempts, email)
		return domain.LoginAttempt{}, store.ErrNotFound
	}
	return a, nil
}

func (r *loginAttemptsRepo) Remove(ctx context.Context, email domain.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.attempts, email)
	return nil
}

func (r *loginAttemptsRepo) RemoveIfCurrent(ctx context.Context, email domain.Email, id domain.LoginAttemptID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attempts[email]
	if !ok || a.ID != id || a.Expired(r.now(), r.ttl) {
		return false, nil
	}
	delete(r.attempts, email)
	return true, nil
}

func (r *loginAttemptsRepo) deleteExpired() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var n int64
	for email, a := range r.attempts {
		if a.Expired(now, r.ttl) {
			delete(r.attempts, email)
			n++
		}
	}
	return n
}
