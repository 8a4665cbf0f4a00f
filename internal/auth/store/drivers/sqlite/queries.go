package sqlite

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds every statement the driver runs. Times are unix milliseconds.
type queries struct {
	db DBTX
}

type userRow struct {
	Email        string
	PasswordHash string
	Requires2FA  bool
	CreatedAt    int64
}

const insertUser = `
INSERT INTO users (email, password_hash, requires_2fa, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (email) DO NOTHING`

// InsertUser reports whether a row was written.
func (q *queries) InsertUser(ctx context.Context, u userRow) (bool, error) {
	res, err := q.db.ExecContext(ctx, insertUser, u.Email, u.PasswordHash, u.Requires2FA, u.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

const getUser = `
SELECT email, password_hash, requires_2fa, created_at
FROM users
WHERE email = ?`

func (q *queries) GetUser(ctx context.Context, email string) (userRow, error) {
	var u userRow
	err := q.db.QueryRowContext(ctx, getUser, email).Scan(&u.Email, &u.PasswordHash, &u.Requires2FA, &u.CreatedAt)
	return u, err
}

const upsertRevokedToken = `
INSERT INTO revoked_tokens (fingerprint, expires_at)
VALUES (?, ?)
ON CONFLICT (fingerprint) DO UPDATE SET expires_at = excluded.expires_at`

func (q *queries) UpsertRevokedToken(ctx context.Context, fingerprint string, expiresAt int64) error {
	_, err := q.db.ExecContext(ctx, upsertRevokedToken, fingerprint, expiresAt)
	return err
}

const isTokenRevoked = `
SELECT EXISTS (
    SELECT 1 FROM revoked_tokens WHERE fingerprint = ? AND expires_at > ?
)`

func (q *queries) IsTokenRevoked(ctx context.Context, fingerprint string, now int64) (bool, error) {
	var revoked bool
	err := q.db.QueryRowContext(ctx, isTokenRevoked, fingerprint, now).Scan(&revoked)
	return revoked, err
}

const deleteExpiredRevokedTokens = `DELETE FROM revoked_tokens WHERE expires_at <= ?`

func (q *queries) DeleteExpiredRevokedTokens(ctx context.Context, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredRevokedTokens, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type loginAttemptRow struct {
	Email     string
	AttemptID string
	Code      string
	IssuedAt  int64
	ExpiresAt int64
}

const upsertLoginAttempt = `
INSERT INTO login_attempts (email, attempt_id, code, issued_at, expires_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (email) DO UPDATE SET
    attempt_id = excluded.attempt_id,
    code       = excluded.code,
    issued_at  = excluded.issued_at,
    expires_at = excluded.expires_at`

func (q *queries) UpsertLoginAttempt(ctx context.Context, a loginAttemptRow) error {
	_, err := q.db.ExecContext(ctx, upsertLoginAttempt, a.Email, a.AttemptID, a.Code, a.IssuedAt, a.ExpiresAt)
	return err
}

const getLoginAttempt = `
SELECT email, attempt_id, code, issued_at, expires_at
FROM login_attempts
WHERE email = ? AND expires_at > ?`

func (q *queries) GetLoginAttempt(ctx context.Context, email string, now int64) (loginAttemptRow, error) {
	var a loginAttemptRow
	err := q.db.QueryRowContext(ctx, getLoginAttempt, email, now).
		Scan(&a.Email, &a.AttemptID, &a.Code, &a.IssuedAt, &a.ExpiresAt)
	return a, err
}

const deleteLoginAttempt = `DELETE FROM login_attempts WHERE email = ?`

func (q *queries) DeleteLoginAttempt(ctx context.Context, email string) error {
	_, err := q.db.ExecContext(ctx, deleteLoginAttempt, email)
	return err
}

const deleteCurrentLoginAttempt = `
DELETE FROM login_attempts
WHERE email = ? AND attempt_id = ? AND expires_at > ?`

func (q *queries) DeleteCurrentLoginAttempt(ctx context.Context, email, attemptID string, now int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, deleteCurrentLoginAttempt, email, attemptID, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

const deleteExpiredLoginAttempts = `DELETE FROM login_attempts WHERE expires_at <= ?`

func (q *queries) DeleteExpiredLoginAttempts(ctx context.Context, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredLoginAttempts, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
