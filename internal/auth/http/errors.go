package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/authgate/internal/auth/service"
	"github.com/aussiebroadwan/authgate/pkg/authsdk"
	"github.com/aussiebroadwan/authgate/pkg/httpx"
	"github.com/aussiebroadwan/authgate/pkg/slogx"
)

// writeError maps a service error onto its response. Only the fixed message
// reaches the client; the full chain is logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var apiErr *authsdk.APIError
	switch {
	case errors.Is(err, service.ErrUserAlreadyExists):
		apiErr = authsdk.ErrUserAlreadyExists
	case errors.Is(err, service.ErrInvalidCredentials):
		apiErr = authsdk.ErrInvalidCredentials
	case errors.Is(err, service.ErrIncorrectCredentials):
		apiErr = authsdk.ErrIncorrectCredentials
	case errors.Is(err, service.ErrInvalidToken):
		apiErr = authsdk.ErrInvalidToken
	case errors.Is(err, service.ErrMissingToken):
		apiErr = authsdk.ErrMissingToken
	case errors.Is(err, httpx.ErrBadBody):
		apiErr = authsdk.ErrMalformedRequest
	default:
		log.Error("request failed", "path", r.URL.Path, "err", err)
		authsdk.ErrUnexpected.WriteError(w)
		return
	}

	log.Warn("request rejected", "path", r.URL.Path, "err", err)
	apiErr.WriteError(w)
}
