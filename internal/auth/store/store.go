// Package store defines the persistence capabilities the auth service
// depends on. Drivers under drivers/ implement them against memory, SQLite
// and Redis; the service layer only ever sees these interfaces.
package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
)

var (
	ErrNotFound           = errors.New("store: not found")
	ErrAlreadyExists      = errors.New("store: already exists")
	ErrInvalidCredentials = errors.New("store: invalid credentials")
)

// Users is the credential store. Records are immutable once added.
type Users interface {
	// Add inserts u. It returns ErrAlreadyExists if the email is taken; two
	// concurrent adds for the same email never both succeed.
	Add(ctx context.Context, u domain.User) error

	// Get returns the user or ErrNotFound.
	Get(ctx context.Context, email domain.Email) (domain.User, error)

	// Validate returns the user whose password matches. It returns
	// ErrNotFound for an unknown email and ErrInvalidCredentials when the
	// password does not match the stored hash.
	Validate(ctx context.Context, email domain.Email, password domain.Password) (domain.User, error)
}

// RevokedTokens is the session deny-list. Records expire on their own once
// the token they describe could no longer be valid.
type RevokedTokens interface {
	// Revoke records token as revoked. Revoking twice is not an error.
	Revoke(ctx context.Context, token domain.SessionToken) error

	// IsRevoked reports whether token has been revoked. A check that starts
	// after Revoke returned observes the revocation.
	IsRevoked(ctx context.Context, token domain.SessionToken) (bool, error)
}

// LoginAttempts holds at most one pending second-factor challenge per email.
type LoginAttempts interface {
	// Put stores a, replacing any earlier attempt for the same email.
	Put(ctx context.Context, a domain.LoginAttempt) error

	// Get returns the pending attempt, or ErrNotFound if there is none or it
	// has expired.
	Get(ctx context.Context, email domain.Email) (domain.LoginAttempt, error)

	// Remove deletes the pending attempt. Removing nothing is not an error.
	Remove(ctx context.Context, email domain.Email) error

	// RemoveIfCurrent deletes the pending attempt only if its id is still id,
	// reporting whether it did. It is how a verified attempt is consumed so
	// two concurrent verifications cannot both win.
	RemoveIfCurrent(ctx context.Context, email domain.Email, id domain.LoginAttemptID) (bool, error)
}

// PasswordHasher verifies plaintext passwords against stored hashes.
// cryptox.Hasher satisfies it.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, encodedHash string) error
}

// Pinger is implemented by drivers backed by a remote or on-disk resource.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Sweeper is implemented by drivers that do not expire records natively.
type Sweeper interface {
	// DeleteExpired removes expired records and returns how many went.
	DeleteExpired(ctx context.Context) (int64, error)
}
