package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/internal/auth/service"
	"github.com/aussiebroadwan/authgate/internal/auth/store"
	"github.com/aussiebroadwan/authgate/pkg/httpx"
	"github.com/aussiebroadwan/authgate/pkg/slogx"

	_ "github.com/aussiebroadwan/authgate/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits are the per-profile limits applied to the routes.
type RateLimits struct {
	Strict   httpx.RateLimitConfig `envPrefix:"STRICT_"`
	Moderate httpx.RateLimitConfig `envPrefix:"MODERATE_"`
	Lenient  httpx.RateLimitConfig `envPrefix:"LENIENT_"`
}

func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   httpx.StrictLimit,
		Moderate: httpx.ModerateLimit,
		Lenient:  httpx.LenientLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Auth         *service.AuthService
	Cookies      CookieConfig
	RateLimits   RateLimits
	UsersPing    store.Pinger
	SessionsPing store.Pinger
}

func NewRouter(auth *service.AuthService, buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		Auth:         auth,
		Cookies:      CookieConfig{TTL: domain.SessionTTL},
		RateLimits:   DefaultRateLimits(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			authgate API
//	@version		0.1.0
//	@description	Credential issuance and session verification. Sessions are HS256 JWTs carried in the "jwt" cookie.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/authgate
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// Credential checks are limited per IP and email so one client cannot
	// lock out an address for everyone.
	r.Mux.Handle("POST /signup",
		httpx.Chain(&SignupHandler{Auth: r.Auth},
			httpx.RateLimitByIP(r.RateLimits.Moderate),
		),
	)
	r.Mux.Handle("POST /login",
		httpx.Chain(&LoginHandler{Auth: r.Auth, Cookies: r.Cookies},
			httpx.RateLimitByIPAndJSONField(r.RateLimits.Strict, "email"),
		),
	)
	r.Mux.Handle("POST /verify-2fa",
		httpx.Chain(&VerifySecondFactorHandler{Auth: r.Auth, Cookies: r.Cookies},
			httpx.RateLimitByIPAndJSONField(r.RateLimits.Strict, "email"),
		),
	)
	r.Mux.Handle("POST /logout",
		httpx.Chain(&LogoutHandler{Auth: r.Auth, Cookies: r.Cookies},
			httpx.RateLimitByIP(r.RateLimits.Moderate),
		),
	)
	r.Mux.Handle("POST /verify-token",
		httpx.Chain(&VerifyTokenHandler{Auth: r.Auth},
			httpx.RateLimitByIP(r.RateLimits.Lenient),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.UsersPing, r.SessionsPing))
}
