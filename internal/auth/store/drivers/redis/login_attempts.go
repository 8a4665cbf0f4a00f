package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
	"github.com/redis/go-redis/v9"
)

// Attempts are hashes with these fields.
const (
	fieldID       = "id"
	fieldCode     = "code"
	fieldIssuedAt = "issued_at"
)

// removeIfCurrent deletes KEYS[1] only while its id field equals ARGV[1].
var removeIfCurrent = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'id') == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type loginAttemptsRepo struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func (r *loginAttemptsRepo) key(email domain.Email) string {
	return r.prefix + ":2fa:" + email.String()
}

func (r *loginAttemptsRepo) Put(ctx context.Context, a domain.LoginAttempt) error {
	if a.IssuedAt.IsZero() {
		a.IssuedAt = r.now()
	}
	key := r.key(a.Email)

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldID, a.ID.String(),
			fieldCode, a.Code.Expose(),
			fieldIssuedAt, strconv.FormatInt(a.IssuedAt.UnixMilli(), 10),
		)
		pipe.PExpire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return backendErr(err)
	}
	return nil
}

func (r *loginAttemptsRepo) Get(ctx context.Context, email domain.Email) (domain.LoginAttempt, error) {
	fields, err := r.rdb.HGetAll(ctx, r.key(email)).Result()
	if err != nil {
		return domain.LoginAttempt{}, backendErr(err)
	}
	if len(fields) == 0 {
		return domain.LoginAttempt{}, store.ErrNotFound
	}

	id, err := domain.ParseLoginAttemptID(fields[fieldID])
	if err != nil {
		return domain.LoginAttempt{}, err
	}
	code, err := domain.ParseTwoFactorCode(fields[fieldCode])
	if err != nil {
		return domain.LoginAttempt{}, err
	}
	issuedAt, err := strconv.ParseInt(fields[fieldIssuedAt], 10, 64)
	if err != nil {
		return domain.LoginAttempt{}, err
	}

	return domain.LoginAttempt{
		Email:    email,
		ID:       id,
		Code:     code,
		IssuedAt: time.UnixMilli(issuedAt).UTC(),
	}, nil
}

func (r *loginAttemptsRepo) Remove(ctx context.Context, email domain.Email) error {
	if err := r.rdb.Del(ctx, r.key(email)).Err(); err != nil {
		return backendErr(err)
	}
	return nil
}

func (r *loginAttemptsRepo) RemoveIfCurrent(ctx context.Context, email domain.Email, id domain.LoginAttemptID) (bool, error) {
	n, err := removeIfCurrent.Run(ctx, r.rdb, []string{r.key(email)}, id.String()).Int64()
	if err != nil {
		return false, backendErr(err)
	}
	return n > 0, nil
}
