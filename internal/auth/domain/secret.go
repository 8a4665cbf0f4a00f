package domain

import (
	"crypto/subtle"
	"log/slog"
)

const redacted = "[REDACTED]"

// Secret holds a sensitive string such as a password, a one-time code or a
// session token. Every formatting path redacts it: fmt verbs, slog attributes
// and JSON encoding. The raw value is only reachable through Expose.
type Secret struct {
	value string
}

func NewSecret(v string) Secret { return Secret{value: v} }

// Expose returns the raw value. Call it only at the point of use.
func (s Secret) Expose() string { return s.value }

func (s Secret) IsEmpty() bool { return s.value == "" }

// Equal compares two secrets in constant time.
func (s Secret) Equal(other Secret) bool {
	return subtle.ConstantTimeCompare([]byte(s.value), []byte(other.value)) == 1
}

func (s Secret) String() string { return redacted }
func (s Secret) GoString() string { return redacted }
func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }
func (s Secret) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }
