/*
Package authsdk is a client for the authgate REST API.

# Overview

SDKClient covers the unauthenticated operations. A successful login returns
a Session wrapping the session token the server set in the "jwt" cookie.

	client := authsdk.NewSDKClient("https://auth.example.com")

	err := client.Signup(ctx, authsdk.SignupRequest{
		Email:       "a@example.com",
		Password:    "correct horse",
		Requires2FA: true,
	})

	res, err := client.Login(ctx, "a@example.com", "correct horse")
	if res.SecondFactorRequired() {
		// The code arrives by email.
		session, err = client.Verify2FA(ctx, "a@example.com", res.LoginAttemptID, code)
	}

	err = session.Verify(ctx)
	err = session.Logout(ctx)

# Errors

Non-2xx responses are returned as *APIError. Compare them with errors.Is
against the predefined values:

	if errors.Is(err, authsdk.ErrIncorrectCredentials) {
		// wrong email or password
	}

Logout is not idempotent: logging out a second time with the same token
returns ErrInvalidToken.

# Thread Safety

SDKClient and Session are safe for concurrent use.
*/
package authsdk
