package http

import (
	"net/http"

	"github.com/aussiebroadwan/authgate/internal/auth/service"
	"github.com/aussiebroadwan/authgate/pkg/authsdk"
	"github.com/aussiebroadwan/authgate/pkg/httpx"
)

type SignupHandler struct {
	Auth *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Sign Up
//	@Description	Register a new account. Set requires2FA to have every login confirmed with an emailed code.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignupRequest	true	"email, password, requires2FA"
//	@Success		201		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid credentials"
//	@Failure		409		{object}	authsdk.ErrorResponse	"User already exists"
//	@Failure		422		{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many requests"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Unexpected error"
//	@Router			/signup [post].
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignupRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.Auth.Signup(r.Context(), service.SignupInput{
		Email:                req.Email,
		Password:             req.Password,
		RequiresSecondFactor: req.Requires2FA,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.MessageResponse{Message: "User created successfully!"})
}
