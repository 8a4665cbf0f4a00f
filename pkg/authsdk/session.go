package authsdk

import (
	"context"
	"sync"
	"time"
)

// Session is a logged-in session. It is safe for concurrent use.
type Session struct {
	client *SDKClient

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	loggedOut bool
}

// NewSessionFromToken wraps an existing session token, for example one read
// from a browser cookie.
func (c *SDKClient) NewSessionFromToken(token string) *Session {
	return &Session{client: c, token: token}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt is the cookie expiry reported by the server, or zero if unknown.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Verify asks the server whether the session is still live.
func (s *Session) Verify(ctx context.Context) error {
	return s.client.VerifyToken(ctx, s.Token())
}

// Logout revokes the session on the server.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.client.Logout(ctx, s.Token()); err != nil {
		return err
	}

	s.mu.Lock()
	s.loggedOut = true
	s.mu.Unlock()
	return nil
}

// LoggedOut reports whether Logout has succeeded on this session.
func (s *Session) LoggedOut() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedOut
}
