package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/pkg/cryptox"
)

// CheckPassword verifies password against u's stored hash. Drivers call it
// from Validate after loading the user.
func CheckPassword(ctx context.Context, h PasswordHasher, u domain.User, password domain.Password) error {
	err := h.Verify(ctx, password.Expose(), u.PasswordHash)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cryptox.ErrPasswordMismatch):
		return ErrInvalidCredentials
	default:
		return fmt.Errorf("store: verify password: %w", err)
	}
}
