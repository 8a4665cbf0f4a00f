package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LoginAttemptTTL is how long a second-factor challenge stays valid.
const LoginAttemptTTL = 600 * time.Second

// TwoFactorCodeLength is the number of digits in a one-time code.
const TwoFactorCodeLength = 6

// LoginAttemptID correlates a login's second-factor challenge with the call
// that answers it. It is a random UUID.
type LoginAttemptID string

func NewLoginAttemptID() LoginAttemptID {
	return LoginAttemptID(uuid.NewString())
}

func ParseLoginAttemptID(raw string) (LoginAttemptID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAttemptID, err)
	}
	return LoginAttemptID(id.String()), nil
}

func (id LoginAttemptID) String() string { return string(id) }

// TwoFactorCode is a one-time numeric code delivered out of band.
type TwoFactorCode struct {
	Secret
}

func ParseTwoFactorCode(raw string) (TwoFactorCode, error) {
	if len(raw) != TwoFactorCodeLength {
		return TwoFactorCode{}, ErrInvalidCode
	}
	for i := range len(raw) {
		if raw[i] < '0' || raw[i] > '9' {
			return TwoFactorCode{}, ErrInvalidCode
		}
	}
	return TwoFactorCode{Secret: NewSecret(raw)}, nil
}

// LoginAttempt is a pending second-factor challenge. Only the most recent
// attempt per email is kept.
type LoginAttempt struct {
	Email    Email
	ID       LoginAttemptID
	Code     TwoFactorCode
	IssuedAt time.Time
}

// Expired reports whether the attempt is older than ttl at now.
func (a LoginAttempt) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(a.IssuedAt.Add(ttl))
}

// Matches compares id and code against the attempt. Both comparisons always
// run so timing does not reveal which one failed.
func (a LoginAttempt) Matches(id LoginAttemptID, code TwoFactorCode) bool {
	idOK := NewSecret(string(a.ID)).Equal(NewSecret(string(id)))
	codeOK := a.Code.Equal(code.Secret)
	return idOK && codeOK
}
