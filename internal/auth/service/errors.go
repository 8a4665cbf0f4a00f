package service

import (
	"errors"
	"fmt"
)

// Errors returned by AuthService. The HTTP and gRPC bindings map these, and
// only these, to client-visible responses.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrMissingToken         = errors.New("missing token")
	ErrInvalidToken         = errors.New("invalid token")
	ErrUnexpected           = errors.New("unexpected error")
)

// Session validation failures. AuthService reports all three as
// ErrInvalidToken; they stay in the chain for logging.
var (
	ErrTokenMalformed = errors.New("session token malformed")
	ErrTokenExpired   = errors.New("session token expired")
	ErrTokenRevoked   = errors.New("session token revoked")
)

func unexpected(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnexpected, op, err)
}

func invalidToken(err error) error {
	if errors.Is(err, ErrUnexpected) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidToken, err)
}
