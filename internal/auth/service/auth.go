package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/email"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
	"github.com/aussiebroadwan/authgate/pkg/cryptox"
	"github.com/aussiebroadwan/authgate/pkg/slogx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultStoreTimeout = 2 * time.Second
	DefaultEmailTimeout = 5 * time.Second
	DefaultHashTimeout  = 10 * time.Second
)

const (
	twoFactorSubject = "Your authgate login code"
	twoFactorBody    = "Your login code is %s. It expires in %d minutes."
)

var tracer = otel.Tracer("authgate/service")

// Timeouts bound each kind of outbound call. Zero values use the defaults.
type Timeouts struct {
	Store time.Duration
	Email time.Duration
	Hash  time.Duration
}

// AuthService drives signup, login, second-factor verification and logout.
// It holds no locks; each store synchronises itself.
type AuthService struct {
	Users    store.Users
	Attempts store.LoginAttempts
	Sessions *SessionService
	Hasher   store.PasswordHasher
	Mailer   email.Sender
	Timeouts Timeouts

	// AttemptTTL is quoted in the code email. It should match the
	// login-attempt store's TTL; zero means domain.LoginAttemptTTL.
	AttemptTTL time.Duration

	// GenerateCode overrides one-time code generation, mostly for tests.
	GenerateCode func() (string, error)
	Now          func() time.Time
}

type SignupInput struct {
	Email                string
	Password             string
	RequiresSecondFactor bool
}

type LoginInput struct {
	Email    string
	Password string
}

type VerifySecondFactorInput struct {
	Email     string
	AttemptID string
	Code      string
}

// LoginResult holds either a session (Token set) or a pending second-factor
// challenge (AttemptID set), never both.
type LoginResult struct {
	Token     domain.SessionToken
	ExpiresAt time.Time
	AttemptID domain.LoginAttemptID
}

// SecondFactorRequired reports whether the login stopped at the challenge.
func (r LoginResult) SecondFactorRequired() bool { return r.AttemptID != "" }

type Session struct {
	Token     domain.SessionToken
	ExpiresAt time.Time
}

// Signup registers a new user.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Signup")
	defer func() { endSpan(span, err) }()

	addr, err := domain.ParseEmail(in.Email)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	password, err := domain.ParsePassword(in.Password)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	if _, err := s.getUser(ctx, addr); err == nil {
		return ErrUserAlreadyExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return unexpected("lookup user", err)
	}

	hash, err := s.hash(ctx, password)
	if err != nil {
		return unexpected("hash password", err)
	}

	user := domain.User{
		Email:                addr,
		PasswordHash:         hash,
		RequiresSecondFactor: in.RequiresSecondFactor,
		CreatedAt:            s.now().UTC(),
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.Users.Add(storeCtx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrUserAlreadyExists
		}
		return unexpected("add user", err)
	}

	slogx.FromContext(ctx).InfoContext(ctx, "user signed up",
		slog.String("email", addr.String()),
		slog.Bool("requires_2fa", user.RequiresSecondFactor),
	)
	return nil
}

// Login checks credentials. Users without a second factor get a session;
// the rest get a challenge whose code is emailed to them.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (_ LoginResult, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer func() { endSpan(span, err) }()

	addr, err := domain.ParseEmail(in.Email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	password, err := domain.ParsePassword(in.Password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	user, err := s.validate(ctx, addr, password)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidCredentials) {
			return LoginResult{}, ErrIncorrectCredentials
		}
		return LoginResult{}, unexpected("validate credentials", err)
	}

	if !user.RequiresSecondFactor {
		token, expiresAt, err := s.Sessions.Issue(addr)
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{Token: token, ExpiresAt: expiresAt}, nil
	}

	attemptID, err := s.startChallenge(ctx, addr)
	if err != nil {
		return LoginResult{}, err
	}
	span.SetAttributes(attribute.Bool("auth.second_factor", true))
	return LoginResult{AttemptID: attemptID}, nil
}

// startChallenge stores a fresh attempt, replacing any earlier one, and
// emails its code.
func (s *AuthService) startChallenge(ctx context.Context, addr domain.Email) (domain.LoginAttemptID, error) {
	raw, err := s.generateCode()
	if err != nil {
		return "", unexpected("generate code", err)
	}
	code, err := domain.ParseTwoFactorCode(raw)
	if err != nil {
		return "", unexpected("generate code", err)
	}

	attempt := domain.LoginAttempt{
		Email:    addr,
		ID:       domain.NewLoginAttemptID(),
		Code:     code,
		IssuedAt: s.now(),
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.Attempts.Put(storeCtx, attempt); err != nil {
		return "", unexpected("store login attempt", err)
	}

	mailCtx, cancelMail := context.WithTimeout(ctx, orDefault(s.Timeouts.Email, DefaultEmailTimeout))
	defer cancelMail()

	body := fmt.Sprintf(twoFactorBody, code.Expose(), int(orDefault(s.AttemptTTL, domain.LoginAttemptTTL)/time.Minute))
	if err := s.Mailer.Send(mailCtx, addr, twoFactorSubject, body); err != nil {
		return "", unexpected("send code", err)
	}
	return attempt.ID, nil
}

// VerifySecondFactor completes a login challenge. Each attempt can be
// consumed once; a wrong code leaves it in place.
func (s *AuthService) VerifySecondFactor(ctx context.Context, in VerifySecondFactorInput) (_ Session, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.VerifySecondFactor")
	defer func() { endSpan(span, err) }()

	addr, err := domain.ParseEmail(in.Email)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	attemptID, err := domain.ParseLoginAttemptID(in.AttemptID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	code, err := domain.ParseTwoFactorCode(in.Code)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	attempt, err := s.Attempts.Get(storeCtx, addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrIncorrectCredentials
		}
		return Session{}, unexpected("load login attempt", err)
	}

	if !attempt.Matches(attemptID, code) {
		return Session{}, ErrIncorrectCredentials
	}

	consumed, err := s.Attempts.RemoveIfCurrent(storeCtx, addr, attemptID)
	if err != nil {
		return Session{}, unexpected("consume login attempt", err)
	}
	if !consumed {
		return Session{}, ErrIncorrectCredentials
	}

	token, expiresAt, err := s.Sessions.Issue(addr)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Logout revokes a valid session token. A token that is already revoked is
// reported as invalid, so logging out twice fails the second time.
func (s *AuthService) Logout(ctx context.Context, raw string) (err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Logout")
	defer func() { endSpan(span, err) }()

	if raw == "" {
		return ErrMissingToken
	}
	token := domain.NewSessionToken(raw)

	addr, err := s.Sessions.Validate(ctx, token)
	if err != nil {
		return invalidToken(err)
	}

	if err := s.Sessions.Revoke(ctx, token); err != nil {
		return err
	}

	slogx.FromContext(ctx).InfoContext(ctx, "user logged out", slog.String("email", addr.String()))
	return nil
}

// VerifyToken reports the subject of a live session token. It never
// changes state.
func (s *AuthService) VerifyToken(ctx context.Context, raw string) (_ domain.Email, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.VerifyToken")
	defer func() { endSpan(span, err) }()

	if raw == "" {
		return domain.Email{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	addr, err := s.Sessions.Validate(ctx, domain.NewSessionToken(raw))
	if err != nil {
		return domain.Email{}, invalidToken(err)
	}
	return addr, nil
}

func (s *AuthService) getUser(ctx context.Context, addr domain.Email) (domain.User, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	return s.Users.Get(ctx, addr)
}

// validate covers both the lookup and the hash check, so it runs under the
// longer of the store and hash timeouts.
func (s *AuthService) validate(ctx context.Context, addr domain.Email, password domain.Password) (domain.User, error) {
	timeout := max(orDefault(s.Timeouts.Store, DefaultStoreTimeout), orDefault(s.Timeouts.Hash, DefaultHashTimeout))
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Users.Validate(ctx, addr, password)
}

func (s *AuthService) hash(ctx context.Context, password domain.Password) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, orDefault(s.Timeouts.Hash, DefaultHashTimeout))
	defer cancel()
	return s.Hasher.Hash(ctx, password.Expose())
}

func (s *AuthService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, orDefault(s.Timeouts.Store, DefaultStoreTimeout))
}

func (s *AuthService) generateCode() (string, error) {
	if s.GenerateCode != nil {
		return s.GenerateCode()
	}
	return cryptox.GenerateNumericCode(domain.TwoFactorCodeLength)
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// endSpan records err on span unless it is an ordinary client failure.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrUnexpected) {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
