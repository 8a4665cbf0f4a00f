package domain

import (
	"fmt"
	"net/mail"
	"strings"
)

// Email is a validated, normalized email address. The zero value is not a
// valid address; construct one with ParseEmail.
type Email struct {
	addr string
}

// ParseEmail trims and lower-cases raw and checks it is a bare RFC 5322
// address. Display names ("Alice <a@x.com>") are rejected.
func ParseEmail(raw string) (Email, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Email{}, ErrInvalidEmail
	}

	parsed, err := mail.ParseAddress(s)
	if err != nil || parsed.Name != "" || parsed.Address != s {
		return Email{}, fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	if !strings.Contains(s[strings.LastIndexByte(s, '@')+1:], ".") {
		return Email{}, fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}

	return Email{addr: s}, nil
}

// MustParseEmail is ParseEmail for tests and constants.
func MustParseEmail(raw string) Email {
	e, err := ParseEmail(raw)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Email) String() string { return e.addr }
func (e Email) IsZero() bool { return e.addr == "" }
