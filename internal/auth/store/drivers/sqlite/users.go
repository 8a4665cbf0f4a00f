package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
)

type usersRepo struct {
	q      *queries
	hasher store.PasswordHasher
}

func (r *usersRepo) Add(ctx context.Context, u domain.User) error {
	inserted, err := r.q.InsertUser(ctx, userRow{
		Email:        u.Email.String(),
		PasswordHash: u.PasswordHash,
		Requires2FA:  u.RequiresSecondFactor,
		CreatedAt:    u.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return err
	}
	if !inserted {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *usersRepo) Get(ctx context.Context, email domain.Email) (domain.User, error) {
	row, err := r.q.GetUser(ctx, email.String())
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row)
}

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

func mapUser(row userRow) (domain.User, error) {
	email, err := domain.ParseEmail(row.Email)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		Email:                email,
		PasswordHash:         row.PasswordHash,
		RequiresSecondFactor: row.Requires2FA,
		CreatedAt:            time.UnixMilli(row.CreatedAt).UTC(),
	}, nil
}
