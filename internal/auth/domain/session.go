package domain

import "time"

// SessionTTL is the lifetime of a session token.
const SessionTTL = 600 * time.Second

// SessionToken is a signed, self-contained bearer credential.
type SessionToken struct {
	Secret
}

func NewSessionToken(raw string) SessionToken {
	return SessionToken{Secret: NewSecret(raw)}
}
