package domain

import "unicode/utf8"

// MinPasswordLength is counted in characters, not bytes.
const MinPasswordLength = 8

// Password is a plaintext password that passed the length check. It is only
// ever compared against a stored hash.
type Password struct {
	Secret
}

func ParsePassword(raw string) (Password, error) {
	if utf8.RuneCountInString(raw) < MinPasswordLength {
		return Password{}, ErrInvalidPassword
	}
	return Password{Secret: NewSecret(raw)}, nil
}
