package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/aussiebroadwan/authgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestSessionCookieAttributes verifies the cookie set on login.
func TestSessionCookieAttributes(t *testing.T) {
	svc := setupAuthService(t, relaxedRateLimits)
	signup(t, svc.client, "grace@example.com", false)

	body, err := json.Marshal(authsdk.LoginRequest{Email: "grace@example.com", Password: testPassword})
	require.NoError(t, err)

	resp, err := http.Post(svc.baseURL+"/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == authsdk.CookieName {
			cookie = ck
		}
	}
	require.NotNil(t, cookie, "login should set the session cookie")
	require.Equal(t, "/", cookie.Path)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	require.Equal(t, 600, cookie.MaxAge)
}

// TestTamperedToken verifies a token with a modified payload is rejected.
func TestTamperedToken(t *testing.T) {
	svc := setupAuthService(t, relaxedRateLimits)
	ctx := t.Context()
	signup(t, svc.client, "heidi@example.com", false)

	res, err := svc.client.Login(ctx, "heidi@example.com", testPassword)
	require.NoError(t, err)

	parts := strings.Split(res.Session.Token(), ".")
	require.Len(t, parts, 3)
	parts[1] = parts[1][:len(parts[1])-2] + "AA"
	forged := strings.Join(parts, ".")

	require.ErrorIs(t, svc.client.VerifyToken(ctx, forged), authsdk.ErrInvalidToken)
	require.ErrorIs(t, svc.client.Logout(ctx, forged), authsdk.ErrInvalidToken)
	require.ErrorIs(t, svc.client.Logout(ctx, ""), authsdk.ErrMissingToken)

	// The genuine token is unaffected.
	require.NoError(t, res.Session.Verify(ctx))
}

// TestMalformedRequest verifies unparseable bodies get 422 without detail.
func TestMalformedRequest(t *testing.T) {
	svc := setupAuthService(t, relaxedRateLimits)

	resp, err := http.Post(svc.baseURL+"/signup", "application/json", strings.NewReader(`{"email":`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var errResp authsdk.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	require.Equal(t, "Malformed request", errResp.Error)
}
