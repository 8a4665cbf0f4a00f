package jwtx

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/authgate/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the session-token claims. Only the registered claims are used:
// sub carries the user's email, exp the expiry and jti a random identifier so
// two tokens issued to the same user in the same second still differ.
type Claims struct {
	jwt.RegisteredClaims
}

// NewSessionClaims builds claims for subject valid for ttl from now.
func NewSessionClaims(subject string, ttl time.Duration, now time.Time) (Claims, error) {
	jti, err := NewJTI()
	if err != nil {
		return Claims{}, err
	}

	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}, nil
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() (string, error) {
	jti, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("jwtx: jti: %w", err)
	}
	return jti, nil
}

// ExpiresAtTime returns exp as a time.Time, or the zero time when unset.
func (c Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
