package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
)

type loginAttemptsRepo struct {
	q   *queries
	ttl time.Duration
	now func() time.Time
}

func (r *loginAttemptsRepo) Put(ctx context.Context, a domain.LoginAttempt) error {
	if a.IssuedAt.IsZero() {
		a.IssuedAt = r.now()
	}
	return r.q.UpsertLoginAttempt(ctx, loginAttemptRow{
		Email:     a.Email.String(),
		AttemptID: a.ID.String(),
		Code:      a.Code.Expose(),
		IssuedAt:  a.IssuedAt.UnixMilli(),
		ExpiresAt: a.IssuedAt.Add(r.ttl).UnixMilli(),
	})
}

func (r *loginAttemptsRepo) Get(ctx context.Context, email domain.Email) (domain.LoginAttempt, error) {
	row, err := r.q.GetLoginAttempt(ctx, email.String(), r.now().UnixMilli())
	if err != nil {
		return domain.LoginAttempt{}, mapNotFound(err)
	}
	return mapLoginAttempt(email, row)
}

func (r *loginAttemptsRepo) Remove(ctx context.Context, email domain.Email) error {
	return r.q.DeleteLoginAttempt(ctx, email.String())
}

func (r *loginAttemptsRepo) RemoveIfCurrent(ctx context.Context, email domain.Email, id domain.LoginAttemptID) (bool, error) {
	return r.q.DeleteCurrentLoginAttempt(ctx, email.String(), id.String(), r.now().UnixMilli())
}

func mapLoginAttempt(email domain.Email, row loginAttemptRow) (domain.LoginAttempt, error) {
	id, err := domain.ParseLoginAttemptID(row.AttemptID)
	if err != nil {
		return domain.LoginAttempt{}, err
	}
	code, err := domain.ParseTwoFactorCode(row.Code)
	if err != nil {
		return domain.LoginAttempt{}, err
	}
	return domain.LoginAttempt{
		Email:    email,
		ID:       id,
		Code:     code,
		IssuedAt: time.UnixMilli(row.IssuedAt).UTC(),
	}, nil
}
