package http

import (
	"net/http"

	"github.com/aussiebroadwan/authgate/internal/auth/service"
	"github.com/aussiebroadwan/authgate/pkg/authsdk"
	"github.com/aussiebroadwan/authgate/pkg/httpx"
)

type VerifySecondFactorHandler struct {
	Auth    *service.AuthService
	Cookies CookieConfig
}

// ServeHTTP godoc
//
//	@Summary		Verify Second Factor
//	@Description	Complete a login with the attempt id from /login and the emailed code. Each attempt can be used once,
//	@Description	and a newer login replaces any earlier attempt.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.Verify2FARequest	true	"email, loginAttemptId, 2FACode"
//	@Success		200		{object}	authsdk.MessageResponse		"Sets the jwt cookie"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Invalid credentials"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Incorrect credentials"
//	@Failure		422		{object}	authsdk.ErrorResponse		"Malformed request"
//	@Failure		429		{object}	authsdk.ErrorResponse		"Too many requests"
//	@Failure		500		{object}	authsdk.ErrorResponse		"Unexpected error"
//	@Router			/verify-2fa [post].
func (h *VerifySecondFactorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.Verify2FARequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := h.Auth.VerifySecondFactor(r.Context(), service.VerifySecondFactorInput{
		Email:     req.Email,
		AttemptID: req.LoginAttemptID,
		Code:      req.TwoFACode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Cookies.set(w, sess.Token.Expose(), sess.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Login successful"})
}
