package memory

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
)

type usersRepo struct {
	hasher store.PasswordHasher

	mu    sync.RWMutex
	users map[domain.Email]domain.User
}

func (r *usersRepo) Add(ctx context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.Email]; ok {
		return store.ErrAlreadyExists
	}
	r.users[u.Email] = u
	return nil
}

func (r *usersRepo) Get(ctx context.Context, email domain.Email) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

// Validate releases the lock before hashing; users are immutable so the
// copy taken under the lock stays accurate.
func (r *usersRepo) Validate(ctx context.Context, email domain.Email, password domain.Password) (domain.User, error) {
	u, err := r.Get(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	if err := store.CheckPassword(ctx, r.hasher, u, password); err != nil {
		return domain.User{}, err
	}
	return u, nil
}
