package http

import (
	"net/http"

	"github.com/aussiebroadwan/authgate/internal/auth/service"
	"github.com/aussiebroadwan/authgate/pkg/authsdk"
	"github.com/aussiebroadwan/authgate/pkg/httpx"
)

type LoginHandler struct {
	Auth    *service.AuthService
	Cookies CookieConfig
}

// ServeHTTP godoc
//
//	@Summary		Log In
//	@Description	Check email and password. Accounts without a second factor get the session cookie straight away.
//	@Description	Accounts with one get 206 and a loginAttemptId; the code is emailed and completed at /verify-2fa.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest				true	"email, password"
//	@Success		200		{object}	authsdk.MessageResponse				"Sets the jwt cookie"
//	@Success		206		{object}	authsdk.TwoFactorRequiredResponse	"Second factor required"
//	@Failure		400		{object}	authsdk.ErrorResponse				"Invalid credentials"
//	@Failure		401		{object}	authsdk.ErrorResponse				"Incorrect credentials"
//	@Failure		422		{object}	authsdk.ErrorResponse				"Malformed request"
//	@Failure		429		{object}	authsdk.ErrorResponse				"Too many requests"
//	@Failure		500		{object}	authsdk.ErrorResponse				"Unexpected error"
//	@Router			/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Auth.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if res.SecondFactorRequired() {
		httpx.WriteJSON(w, http.StatusPartialContent, authsdk.TwoFactorRequiredResponse{
			Message:        "2FA required",
			LoginAttemptID: res.AttemptID.String(),
		})
		return
	}

	h.Cookies.set(w, res.Token.Expose(), res.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Login successful"})
}
