package cryptox

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Hasher runs Argon2id hashing and verification on a bounded pool of
// goroutines so a burst of logins cannot saturate every CPU at once.
//
// Callers block until their job finishes or ctx is done. A job that is
// abandoned by its caller still runs to completion and releases its slot.
type Hasher struct {
	sem *semaphore.Weighted
}

// NewHasher returns a Hasher allowing at most workers concurrent jobs.
// A non-positive value defaults to runtime.NumCPU().
func NewHasher(workers int) *Hasher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Hasher{sem: semaphore.NewWeighted(int64(workers))}
}

// Hash returns the PHC encoded Argon2id hash of password.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	var (
		hash string
		err  error
	)
	if runErr := h.run(ctx, func() { hash, err = HashPassword(password) }); runErr != nil {
		return "", runErr
	}
	return hash, err
}

// Verify checks password against encodedHash. It returns ErrPasswordMismatch
// when the password is wrong.
func (h *Hasher) Verify(ctx context.Context, password, encodedHash string) error {
	var err error
	if runErr := h.run(ctx, func() { err = VerifyPassword(password, encodedHash) }); runErr != nil {
		return runErr
	}
	return err
}

func (h *Hasher) run(ctx context.Context, job func()) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer h.sem.Release(1)
		defer close(done)
		job()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
