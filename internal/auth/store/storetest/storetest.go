// Package storetest is a conformance suite for store drivers. Each driver's
// tests call the Run* functions with a factory for a fresh, empty repository.
package storetest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/authgate/pkg/cryptox"
)

// Advance moves a driver's notion of time forward by d.
type Advance func(d time.Duration)

// Clock is a manually advanced clock for drivers that accept a Now func.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// PlainHasher is a fast stand-in for cryptox.Hasher. Its hashes are not
// secret and must never leave a test.
type PlainHasher struct{}

const plainPrefix = "plain$"

func (PlainHasher) Hash(_ context.Context, password string) (string, error) {
	return plainPrefix + password, nil
}

func (PlainHasher) Verify(_ context.Context, password, encodedHash string) error {
	stored, ok := strings.CutPrefix(encodedHash, plainPrefix)
	if !ok {
		return cryptox.ErrMalformedHash
	}
	if stored != password {
		return cryptox.ErrPasswordMismatch
	}
	return nil
}
