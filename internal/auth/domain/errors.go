package domain

import "errors"

var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidPassword  = errors.New("password must be at least 8 characters")
	ErrInvalidAttemptID = errors.New("invalid login attempt id")
	ErrInvalidCode      = errors.New("invalid two-factor code")
)
