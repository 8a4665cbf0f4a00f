package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the authgate REST API.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Signup registers a new account.
func (c *SDKClient) Signup(ctx context.Context, req SignupRequest) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/signup", req, nil)
	if err != nil {
		return err
	}

	var out MessageResponse
	return decodeJSON(resp, &out, http.StatusCreated)
}

// LoginResult holds a Session, or the attempt id of a pending second-factor
// challenge when the account requires one.
type LoginResult struct {
	Session        *Session
	LoginAttemptID string
}

func (r *LoginResult) SecondFactorRequired() bool { return r.Session == nil }

// Login authenticates with email and password.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/login", LoginRequest{Email: email, Password: password}, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusPartialContent {
		var challenge TwoFactorRequiredResponse
		if err := decodeJSON(resp, &challenge, http.StatusPartialContent); err != nil {
			return nil, err
		}
		return &LoginResult{LoginAttemptID: challenge.LoginAttemptID}, nil
	}

	session, err := c.sessionFromResponse(resp)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: session}, nil
}

// Verify2FA completes a login challenge with the emailed code.
func (c *SDKClient) Verify2FA(ctx context.Context, email, loginAttemptID, code string) (*Session, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/verify-2fa", Verify2FARequest{
		Email:          email,
		LoginAttemptID: loginAttemptID,
		TwoFACode:      code,
	}, nil)
	if err != nil {
		return nil, err
	}
	return c.sessionFromResponse(resp)
}

// VerifyToken checks whether token is a live session token.
func (c *SDKClient) VerifyToken(ctx context.Context, token string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/verify-token", VerifyTokenRequest{Token: token}, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusOK)
}

// Logout revokes token. The server rejects a token that was already revoked.
func (c *SDKClient) Logout(ctx context.Context, token string) error {
	var cookies []*http.Cookie
	if token != "" {
		cookies = append(cookies, &http.Cookie{Name: CookieName, Value: token})
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/logout", nil, nil, cookies...)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusOK)
}

func (c *SDKClient) sessionFromResponse(resp *http.Response) (*Session, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, checkStatus(resp, http.StatusOK)
	}
	defer resp.Body.Close()

	for _, ck := range resp.Cookies() {
		if ck.Name == CookieName && ck.Value != "" {
			return &Session{client: c, token: ck.Value, expiresAt: ck.Expires}, nil
		}
	}
	return nil, &APIError{StatusCode: resp.StatusCode, Message: "response carried no session cookie"}
}
