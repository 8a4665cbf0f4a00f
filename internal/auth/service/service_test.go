package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
	"github.com/aussiebroadwan/authgate/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/authgate/internal/auth/store/storetest"
	"github.com/aussiebroadwan/authgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type sentMessage struct {
	To      domain.Email
	Subject string
	Body    string
}

// recordingSender keeps every message so tests can read codes back.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (s *recordingSender) Send(_ context.Context, to domain.Email, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (s *recordingSender) lastCode(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent, "no email sent")
	code := codePattern.FindString(s.sent[len(s.sent)-1].Body)
	require.NotEmpty(t, code, "no code in email body")
	return code
}

type fixture struct {
	svc    *AuthService
	store  *memory.Store
	mailer *recordingSender
	clock  *storetest.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := storetest.NewClock()
	st := memory.NewStore(storetest.PlainHasher{}, memory.Options{Now: clock.Now})

	signer, err := jwtx.NewHMACSigner(testSecret)
	require.NoError(t, err)
	verifier, err := jwtx.NewHMACVerifier(testSecret, jwtx.VerifyOptions{Now: clock.Now})
	require.NoError(t, err)

	mailer := &recordingSender{}
	return &fixture{
		svc: &AuthService{
			Users:    st.Users(),
			Attempts: st.LoginAttempts(),
			Sessions: &SessionService{
				Signer:   signer,
				Verifier: verifier,
				Revoked:  st.RevokedTokens(),
				Now:      clock.Now,
			},
			Hasher: storetest.PlainHasher{},
			Mailer: mailer,
			Now:    clock.Now,
		},
		store:  st,
		mailer: mailer,
		clock:  clock,
	}
}

func (f *fixture) signup(t *testing.T, email, password string, twoFA bool) {
	t.Helper()
	require.NoError(t, f.svc.Signup(context.Background(), SignupInput{
		Email:                email,
		Password:             password,
		RequiresSecondFactor: twoFA,
	}))
}

func TestSignup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("duplicate leaves the first record unchanged", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "a@example.com", "password1", false)

		before, err := f.store.Users().Get(ctx, domain.MustParseEmail("a@example.com"))
		require.NoError(t, err)

		err = f.svc.Signup(ctx, SignupInput{Email: "a@example.com", Password: "password2", RequiresSecondFactor: true})
		require.ErrorIs(t, err, ErrUserAlreadyExists)

		after, err := f.store.Users().Get(ctx, domain.MustParseEmail("a@example.com"))
		require.NoError(t, err)
		require.Equal(t, before, after)
	})

	t.Run("emails are normalised", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "  A@Example.COM ", "password1", false)

		err := f.svc.Signup(ctx, SignupInput{Email: "a@example.com", Password: "password1"})
		require.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		f := newFixture(t)
		cases := []SignupInput{
			{Email: "", Password: "password1"},
			{Email: "not-an-email", Password: "password1"},
			{Email: "Alice <a@example.com>", Password: "password1"},
			{Email: "a@example.com", Password: "short"},
			{Email: "a@example.com", Password: ""},
		}
		for _, in := range cases {
			require.ErrorIs(t, f.svc.Signup(ctx, in), ErrInvalidCredentials, "%q", in.Email)
		}
	})

	t.Run("hash failure stores nothing", func(t *testing.T) {
		f := newFixture(t)
		f.svc.Hasher = failingHasher{}

		err := f.svc.Signup(ctx, SignupInput{Email: "a@example.com", Password: "password1"})
		require.ErrorIs(t, err, ErrUnexpected)

		_, err = f.store.Users().Get(ctx, domain.MustParseEmail("a@example.com"))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("concurrent signups have one winner", func(t *testing.T) {
		f := newFixture(t)
		const n = 16

		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = f.svc.Signup(ctx, SignupInput{Email: "race@example.com", Password: "password1"})
			}()
		}
		wg.Wait()

		var ok int
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			require.ErrorIs(t, err, ErrUserAlreadyExists)
		}
		require.Equal(t, 1, ok)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("without second factor issues a session", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "a@example.com", "password1", false)

		res, err := f.svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "password1"})
		require.NoError(t, err)
		require.False(t, res.SecondFactorRequired())
		require.False(t, res.Token.IsEmpty())
		require.True(t, f.clock.Now().Add(domain.SessionTTL).Equal(res.ExpiresAt))

		addr, err := f.svc.VerifyToken(ctx, res.Token.Expose())
		require.NoError(t, err)
		require.Equal(t, "a@example.com", addr.String())
		require.Empty(t, f.mailer.sent)
	})

	t.Run("loads the user once", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "a@example.com", "password1", true)
		users := &countingUsers{Users: f.svc.Users}
		f.svc.Users = users

		res, err := f.svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "password1"})
		require.NoError(t, err)
		require.True(t, res.SecondFactorRequired())
		require.Zero(t, users.gets.Load())
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "a@example.com", "password1", false)

		_, wrongPassword := f.svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "password2"})
		_, unknownUser := f.svc.Login(ctx, LoginInput{Email: "b@example.com", Password: "password1"})

		require.ErrorIs(t, wrongPassword, ErrIncorrectCredentials)
		require.Equal(t, wrongPassword, unknownUser)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Login(ctx, LoginInput{Email: "nope", Password: "password1"})
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = f.svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "short"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("with second factor starts a challenge", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "b@example.com", "password1", true)

		res, err := f.svc.Login(ctx, LoginInput{Email: "b@example.com", Password: "password1"})
		require.NoError(t, err)
		require.True(t, res.SecondFactorRequired())
		require.True(t, res.Token.IsEmpty())

		require.Len(t, f.mailer.sent, 1)
		require.Equal(t, "b@example.com", f.mailer.sent[0].To.String())

		attempt, err := f.store.LoginAttempts().Get(ctx, domain.MustParseEmail("b@example.com"))
		require.NoError(t, err)
		require.Equal(t, res.AttemptID, attempt.ID)
		require.Equal(t, f.mailer.lastCode(t), attempt.Code.Expose())
	})

	t.Run("email failure is unexpected", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "b@example.com", "password1", true)
		f.mailer.err = errors.New("smtp down")

		_, err := f.svc.Login(ctx, LoginInput{Email: "b@example.com", Password: "password1"})
		require.ErrorIs(t, err, ErrUnexpected)
	})

	t.Run("store outage is unexpected", func(t *testing.T) {
		f := newFixture(t)
		f.svc.Users = brokenUsers{}

		_, err := f.svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "password1"})
		require.ErrorIs(t, err, ErrUnexpected)
		require.NotErrorIs(t, err, ErrIncorrectCredentials)
	})
}

func TestVerifySecondFactor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	login := func(t *testing.T, f *fixture, email string) (string, string) {
		t.Helper()
		res, err := f.svc.Login(ctx, LoginInput{Email: email, Password: "password1"})
		require.NoError(t, err)
		require.True(t, res.SecondFactorRequired())
		return res.AttemptID.String(), f.mailer.lastCode(t)
	}

	wrong := func(code string) string {
		if code == "000000" {
			return "000001"
		}
		return "000000"
	}

	t.Run("succeeds exactly once", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "b@example.com", "password1", true)
		id, code := login(t, f, "b@example.com")

		_, err := f.svc.VerifySecondFactor(ctx, VerifySecondFactorInput{Email: "b@example.com", AttemptID: id, Code: wrong(code)})
		require.ErrorIs(t, err, ErrIncorrectCredentials)

		sess, err := f.svc.VerifySecondFactor(ctx, VerifySecondFactorInput{Email: "b@example.com", AttemptID: id, Code: code})
		require.NoError(t, err)

		addr, err := f.svc.VerifyToken(ctx, sess.Token.Expose())
		require.NoError(t, err)
		require.Equal(t, "b@example.com", addr.String())

		_, err = f.svc.VerifySecondFactor(ctx, VerifySecondFactorInput{Email: "b@example.com", AttemptID: id, Code: code})
		require.ErrorIs(t, err, ErrIncorrectCredentials)
	})

	t.Run("a new login supersedes the old attempt", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "b@example.com", "password1", true)
		firstID, firstCode := login(t, f, "b@example.com")
		secondID, secondCode := login(t, f, "b@example.com")

		_, err := f.svc.VerifySecondFactor(ctx, VerifySecondFactorInput{Email: "b@example.com", AttemptID: firstID, Code: firstCode})
		require.ErrorIs(t, err, ErrIncorrectCredentials)

		_, err = f.svc.VerifySecondFactor(ctx, VerifySecondFactorInput{Email: "b@example.com", AttemptID: secondID, Code: secondCode})
		require.NoError(t, err)
	})

	t.Run("mixing attempt id and code fails", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "b@example.com", "password1", true)
		firstID, _ := login(t, f, "b@example.com")
		_, secondCode := login(t, f, "b@example.com")

		_, err := f.svc.VerifySecondFactor(ctx, VerifySecondFactorInput{Email: "b@example.com", AttemptID: firstID, Code: secondCode})
		require.ErrorIs(t, err, ErrIncorrectCredentials)
	})

	t.Run("expired attempt fails", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "b@example.com", "password1", true)
		id, code := login(t, f, "b@example.com")

		f.clock.Advance(domain.LoginAttemptTTL)

		_, err := f.svc.VerifySecondFactor(ctx, VerifySecondFactorInput{Email: "b@example.com", AttemptID: id, Code: code})
		require.ErrorIs(t, err, ErrIncorrectCredentials)
	})

	t.Run("no pending attempt", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.VerifySecondFactor(ctx, VerifySecondFactorInput{
			Email:     "b@example.com",
			AttemptID: domain.NewLoginAttemptID().String(),
			Code:      "123456",
		})
		require.ErrorIs(t, err, ErrIncorrectCredentials)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		f := newFixture(t)
		id := domain.NewLoginAttemptID().String()
		cases := []VerifySecondFactorInput{
			{Email: "test", AttemptID: id, Code: "123456"},
			{Email: "b@example.com", AttemptID: "123123", Code: "123456"},
			{Email: "b@example.com", AttemptID: id, Code: "12345"},
			{Email: "b@example.com", AttemptID: id, Code: "abcdef"},
		}
		for _, in := range cases {
			_, err := f.svc.VerifySecondFactor(ctx, in)
			require.ErrorIs(t, err, ErrInvalidCredentials)
		}
	})

	t.Run("concurrent verifications have one winner", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "b@example.com", "password1", true)
		id, code := login(t, f, "b@example.com")

		const n = 16
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = f.svc.VerifySecondFactor(ctx, VerifySecondFactorInput{Email: "b@example.com", AttemptID: id, Code: code})
			}()
		}
		wg.Wait()

		var ok int
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			require.ErrorIs(t, err, ErrIncorrectCredentials)
		}
		require.Equal(t, 1, ok)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	session := func(t *testing.T, f *fixture) string {
		t.Helper()
		res, err := f.svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "password1"})
		require.NoError(t, err)
		return res.Token.Expose()
	}

	t.Run("succeeds once", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "a@example.com", "password1", false)
		token := session(t, f)

		require.NoError(t, f.svc.Logout(ctx, token))
		require.ErrorIs(t, f.svc.Logout(ctx, token), ErrInvalidToken)

		_, err := f.svc.VerifyToken(ctx, token)
		require.ErrorIs(t, err, ErrInvalidToken)
		require.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("only the presented token is revoked", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "a@example.com", "password1", false)
		first := session(t, f)
		second := session(t, f)
		require.NotEqual(t, first, second)

		require.NoError(t, f.svc.Logout(ctx, first))

		_, err := f.svc.VerifyToken(ctx, second)
		require.NoError(t, err)
	})

	t.Run("missing token", func(t *testing.T) {
		f := newFixture(t)
		require.ErrorIs(t, f.svc.Logout(ctx, ""), ErrMissingToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newFixture(t)
		require.ErrorIs(t, f.svc.Logout(ctx, "not.a.jwt"), ErrInvalidToken)
	})

	t.Run("revocation failure is unexpected", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "a@example.com", "password1", false)
		token := session(t, f)

		f.svc.Sessions.Revoked = &brokenRevocations{failRevoke: true}
		err := f.svc.Logout(ctx, token)
		require.ErrorIs(t, err, ErrUnexpected)
		require.NotErrorIs(t, err, ErrInvalidToken)
	})
}

func TestVerifyToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("expired token", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "a@example.com", "password1", false)
		res, err := f.svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "password1"})
		require.NoError(t, err)

		f.clock.Advance(domain.SessionTTL + time.Second)

		_, err = f.svc.VerifyToken(ctx, res.Token.Expose())
		require.ErrorIs(t, err, ErrInvalidToken)
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		f := newFixture(t)
		other, err := jwtx.NewHMACSigner([]byte("another-secret-another-secret-xx"))
		require.NoError(t, err)
		claims, err := jwtx.NewSessionClaims("a@example.com", time.Minute, f.clock.Now())
		require.NoError(t, err)
		raw, err := other.Sign(claims)
		require.NoError(t, err)

		_, err = f.svc.VerifyToken(ctx, raw)
		require.ErrorIs(t, err, ErrInvalidToken)
		require.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("empty token", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.VerifyToken(ctx, "")
		require.ErrorIs(t, err, ErrInvalidToken)
		require.NotErrorIs(t, err, ErrMissingToken)
	})

	t.Run("forged tokens never reach the store", func(t *testing.T) {
		f := newFixture(t)
		revocations := &brokenRevocations{}
		f.svc.Sessions.Revoked = revocations

		_, err := f.svc.VerifyToken(ctx, "header.payload.signature")
		require.ErrorIs(t, err, ErrInvalidToken)
		require.Zero(t, revocations.calls)
	})

	t.Run("store outage is unexpected, not invalid", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "a@example.com", "password1", false)
		res, err := f.svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "password1"})
		require.NoError(t, err)

		f.svc.Sessions.Revoked = &brokenRevocations{}
		_, err = f.svc.VerifyToken(ctx, res.Token.Expose())
		require.ErrorIs(t, err, ErrUnexpected)
		require.NotErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("slow store hits the timeout", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "a@example.com", "password1", false)
		res, err := f.svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "password1"})
		require.NoError(t, err)

		f.svc.Sessions.Revoked = blockingRevocations{}
		f.svc.Sessions.StoreTimeout = 20 * time.Millisecond

		_, err = f.svc.VerifyToken(ctx, res.Token.Expose())
		require.ErrorIs(t, err, ErrUnexpected)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestScenarios(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("password only", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Signup(ctx, SignupInput{Email: "a@x.com", Password: "pass1234"}))

		res, err := f.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "pass1234"})
		require.NoError(t, err)
		token := res.Token.Expose()

		_, err = f.svc.VerifyToken(ctx, token)
		require.NoError(t, err)
		require.NoError(t, f.svc.Logout(ctx, token))

		_, err = f.svc.VerifyToken(ctx, token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("second factor", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Signup(ctx, SignupInput{Email: "b@x.com", Password: "pass1234", RequiresSecondFactor: true}))

		res, err := f.svc.Login(ctx, LoginInput{Email: "b@x.com", Password: "pass1234"})
		require.NoError(t, err)
		require.True(t, res.SecondFactorRequired())
		code := f.mailer.lastCode(t)

		wrongCode := "000000"
		if code == wrongCode {
			wrongCode = "111111"
		}
		_, err = f.svc.VerifySecondFactor(ctx, VerifySecondFactorInput{Email: "b@x.com", AttemptID: res.AttemptID.String(), Code: wrongCode})
		require.ErrorIs(t, err, ErrIncorrectCredentials)

		sess, err := f.svc.VerifySecondFactor(ctx, VerifySecondFactorInput{Email: "b@x.com", AttemptID: res.AttemptID.String(), Code: code})
		require.NoError(t, err)
		require.False(t, sess.Token.IsEmpty())
	})
}

func TestHousekeeping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	f.signup(t, "b@example.com", "password1", true)
	_, err := f.svc.Login(ctx, LoginInput{Email: "b@example.com", Password: "password1"})
	require.NoError(t, err)

	hk := NewHousekeepingService(discardLogger(), time.Hour, f.store, failingSweeper{})
	require.Zero(t, hk.Sweep(ctx))

	f.clock.Advance(domain.LoginAttemptTTL)
	require.EqualValues(t, 1, hk.Sweep(ctx))

	hk.Start()
	hk.Stop()
}

type failingHasher struct{}

func (failingHasher) Hash(context.Context, string) (string, error) {
	return "", errors.New("hasher exploded")
}

func (failingHasher) Verify(context.Context, string, string) error {
	return errors.New("hasher exploded")
}

type countingUsers struct {
	store.Users
	gets atomic.Int32
}

func (u *countingUsers) Get(ctx context.Context, email domain.Email) (domain.User, error) {
	u.gets.Add(1)
	return u.Users.Get(ctx, email)
}

type brokenUsers struct{}

var errBackend = errors.New("backend down")

func (brokenUsers) Add(context.Context, domain.User) error { return errBackend }
func (brokenUsers) Get(context.Context, domain.Email) (domain.User, error) {
	return domain.User{}, errBackend
}
func (brokenUsers) Validate(context.Context, domain.Email, domain.Password) (domain.User, error) {
	return domain.User{}, errBackend
}

type brokenRevocations struct {
	mu         sync.Mutex
	calls      int
	failRevoke bool
}

func (b *brokenRevocations) Revoke(context.Context, domain.SessionToken) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return errBackend
}

func (b *brokenRevocations) IsRevoked(context.Context, domain.SessionToken) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.failRevoke {
		return false, nil
	}
	return false, errBackend
}

type blockingRevocations struct{}

func (blockingRevocations) Revoke(ctx context.Context, _ domain.SessionToken) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingRevocations) IsRevoked(ctx context.Context, _ domain.SessionToken) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

type failingSweeper struct{}

func (failingSweeper) DeleteExpired(context.Context) (int64, error) { return 0, errBackend }
