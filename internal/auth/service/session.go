package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
	"github.com/aussiebroadwan/authgate/pkg/jwtx"
)

// SessionService issues session tokens and checks them against the
// revoked-token store.
type SessionService struct {
	Signer       jwtx.Signer
	Verifier     jwtx.Verifier
	Revoked      store.RevokedTokens
	TTL          time.Duration
	StoreTimeout time.Duration

	// Now overrides the clock used for issuance. Nil means time.Now.
	Now func() time.Time
}

// Issue signs a fresh token for email.
func (s *SessionService) Issue(email domain.Email) (domain.SessionToken, time.Time, error) {
	now := s.now()
	claims, err := jwtx.NewSessionClaims(email.String(), s.ttl(), now)
	if err != nil {
		return domain.SessionToken{}, time.Time{}, unexpected("issue session", err)
	}

	raw, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.SessionToken{}, time.Time{}, unexpected("sign session", err)
	}
	return domain.NewSessionToken(raw), claims.ExpiresAtTime(), nil
}

// Validate returns the token's subject. Signature and expiry are checked
// before the revoked-token store is consulted, so forged tokens never cost a
// store round trip.
func (s *SessionService) Validate(ctx context.Context, token domain.SessionToken) (domain.Email, error) {
	claims, err := s.Verifier.Verify(token.Expose())
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return domain.Email{}, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return domain.Email{}, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	email, err := domain.ParseEmail(claims.Subject)
	if err != nil {
		return domain.Email{}, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout())
	defer cancel()

	revoked, err := s.Revoked.IsRevoked(ctx, token)
	if err != nil {
		return domain.Email{}, unexpected("check revocation", err)
	}
	if revoked {
		return domain.Email{}, ErrTokenRevoked
	}
	return email, nil
}

// Revoke adds token to the deny-list. It returns once the store has
// acknowledged the write.
func (s *SessionService) Revoke(ctx context.Context, token domain.SessionToken) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout())
	defer cancel()

	if err := s.Revoked.Revoke(ctx, token); err != nil {
		return unexpected("revoke session", err)
	}
	return nil
}

func (s *SessionService) ttl() time.Duration {
	return orDefault(s.TTL, domain.SessionTTL)
}

func (s *SessionService) storeTimeout() time.Duration {
	return orDefault(s.StoreTimeout, DefaultStoreTimeout)
}

func (s *SessionService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
