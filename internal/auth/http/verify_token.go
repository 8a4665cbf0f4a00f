package http

import (
	"net/http"

	"github.com/aussiebroadwan/authgate/internal/auth/service"
	"github.com/aussiebroadwan/authgate/pkg/authsdk"
	"github.com/aussiebroadwan/authgate/pkg/httpx"
)

type VerifyTokenHandler struct {
	Auth *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Verify Token
//	@Description	Check that a session token is correctly signed, unexpired and not revoked. Has no side effects.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyTokenRequest	true	"token"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid token"
//	@Failure		422		{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many requests"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Unexpected error"
//	@Router			/verify-token [post].
func (h *VerifyTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyTokenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.Auth.VerifyToken(r.Context(), req.Token); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Token is valid"})
}
