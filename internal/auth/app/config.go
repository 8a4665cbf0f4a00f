package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	httpapi "github.com/aussiebroadwan/authgate/internal/auth/http"
	"github.com/aussiebroadwan/authgate/pkg/jwtx"
)

// Store variants accepted by USER_STORE and SESSION_STORE.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Email senders accepted by EMAIL_SENDER.
const (
	SenderLog      = "log"
	SenderPostmark = "postmark"
)

type Config struct {
	Env       string `env:"ENV"        envDefault:"dev"`  // dev, staging, prod
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"` // debug, info, warn, error
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json, text

	Port     int `env:"PORT"      envDefault:"8080"`
	GRPCPort int `env:"GRPC_PORT" envDefault:"50051"`

	// JWTSecret signs session tokens. At least 32 bytes.
	JWTSecret       string        `env:"JWT_SECRET"`
	SessionTTL      time.Duration `env:"SESSION_TTL"       envDefault:"600s"`
	LoginAttemptTTL time.Duration `env:"LOGIN_ATTEMPT_TTL" envDefault:"600s"`
	CookieSecure    bool          `env:"COOKIE_SECURE"`

	UserStore    string `env:"USER_STORE"    envDefault:"sqlite"` // memory, sqlite
	SessionStore string `env:"SESSION_STORE" envDefault:"sqlite"` // memory, sqlite, redis

	DatabaseFile string `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"`
	PepperFile   string `env:"AUTH_PEPPER_FILE"   envDefault:"pepper"`

	RedisURL       string `env:"REDIS_URL"`
	RedisAddr      string `env:"REDIS_ADDR"       envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"authgate"`

	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"2s"`
	EmailTimeout time.Duration `env:"EMAIL_TIMEOUT" envDefault:"5s"`
	HashTimeout  time.Duration `env:"HASH_TIMEOUT"  envDefault:"10s"`
	HashWorkers  int           `env:"HASH_WORKERS"` // 0 means one per CPU

	EmailSender         string `env:"EMAIL_SENDER"          envDefault:"log"`
	PostmarkServerToken string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkFrom        string `env:"POSTMARK_FROM"`
	PostmarkBaseURL     string `env:"POSTMARK_BASE_URL"     envDefault:"https://api.postmarkapp.com"`

	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"10m"`

	// OTLPEndpoint enables tracing when set.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	RateLimits httpapi.RateLimits `envPrefix:"RATELIMIT_"`
}

// LoadConfig reads the configuration from the environment. Rate limit
// profiles start from their defaults and only overridden fields change.
func LoadConfig() (Config, error) {
	cfg := Config{RateLimits: httpapi.DefaultRateLimits()}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.LoginAttemptTTL <= 0 {
		errs = append(errs, errors.New("LOGIN_ATTEMPT_TTL must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("GRPC_PORT %d out of range", c.GRPCPort))
	}
	if c.GRPCPort == c.Port {
		errs = append(errs, errors.New("PORT and GRPC_PORT must differ"))
	}

	switch c.UserStore {
	case StoreMemory, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("USER_STORE %q must be one of memory, sqlite", c.UserStore))
	}
	switch c.SessionStore {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE %q must be one of memory, sqlite, redis", c.SessionStore))
	}
	if c.SessionStore == StoreRedis && strings.TrimSpace(c.RedisURL) == "" && strings.TrimSpace(c.RedisAddr) == "" {
		errs = append(errs, errors.New("REDIS_URL or REDIS_ADDR is required when SESSION_STORE=redis"))
	}

	for name, d := range map[string]time.Duration{
		"STORE_TIMEOUT":         c.StoreTimeout,
		"EMAIL_TIMEOUT":         c.EmailTimeout,
		"HASH_TIMEOUT":          c.HashTimeout,
		"SHUTDOWN_GRACE_PERIOD": c.ShutdownGracePeriod,
		"HOUSEKEEPING_INTERVAL": c.HousekeepingInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.HashWorkers < 0 {
		errs = append(errs, errors.New("HASH_WORKERS must not be negative"))
	}

	switch c.EmailSender {
	case SenderLog:
		if c.Env == "prod" {
			errs = append(errs, errors.New("EMAIL_SENDER=log is not allowed in prod"))
		}
	case SenderPostmark:
		if c.PostmarkServerToken == "" || c.PostmarkFrom == "" {
			errs = append(errs, errors.New("POSTMARK_SERVER_TOKEN and POSTMARK_FROM are required when EMAIL_SENDER=postmark"))
		}
	default:
		errs = append(errs, fmt.Errorf("EMAIL_SENDER %q must be one of log, postmark", c.EmailSender))
	}

	if err := validateRateLimits(c.RateLimits); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validateRateLimits(rl httpapi.RateLimits) error {
	var errs []error
	for name, p := range map[string]struct {
		requests, burst int
		window          time.Duration
	}{
		"STRICT":   {rl.Strict.RequestsPerWindow, rl.Strict.Burst, rl.Strict.Window},
		"MODERATE": {rl.Moderate.RequestsPerWindow, rl.Moderate.Burst, rl.Moderate.Window},
		"LENIENT":  {rl.Lenient.RequestsPerWindow, rl.Lenient.Burst, rl.Lenient.Window},
	} {
		if p.requests <= 0 || p.burst <= 0 || p.window <= 0 {
			errs = append(errs, fmt.Errorf("RATELIMIT_%s_* values must be positive", name))
		}
	}
	return errors.Join(errs...)
}
