package http

import (
	"net/http"

	"github.com/aussiebroadwan/authgate/internal/auth/service"
	"github.com/aussiebroadwan/authgate/pkg/authsdk"
	"github.com/aussiebroadwan/authgate/pkg/httpx"
)

type LogoutHandler struct {
	Auth    *service.AuthService
	Cookies CookieConfig
}

// ServeHTTP godoc
//
//	@Summary		Log Out
//	@Description	Revoke the session in the jwt cookie and clear the cookie. Logging out twice with the same token fails.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse
//	@Failure		400	{object}	authsdk.ErrorResponse	"Missing token"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid token"
//	@Failure		429	{object}	authsdk.ErrorResponse	"Too many requests"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Unexpected error"
//	@Router			/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var token string
	if ck, err := r.Cookie(authsdk.CookieName); err == nil {
		token = ck.Value
	}

	if err := h.Auth.Logout(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}

	h.Cookies.clear(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Logged out"})
}
