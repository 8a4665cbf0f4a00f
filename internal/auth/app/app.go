package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/email"
	authgrpc "github.com/aussiebroadwan/authgate/internal/auth/grpc"
	httpapi "github.com/aussiebroadwan/authgate/internal/auth/http"
	"github.com/aussiebroadwan/authgate/internal/auth/service"
	"github.com/aussiebroadwan/authgate/pkg/cryptox"
	"github.com/aussiebroadwan/authgate/pkg/jwtx"
	"github.com/aussiebroadwan/authgate/pkg/otelx"
	"github.com/aussiebroadwan/authgate/pkg/slogx"
	gogrpc "google.golang.org/grpc"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

const serviceName = "authgate"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	stores       *stores
	hasher       *cryptox.Hasher
	otelShutdown func(context.Context) error

	authService         *service.AuthService
	housekeepingService *service.HousekeepingService

	httpServer *http.Server
	router     *httpapi.Router
	grpcServer *authgrpc.Server
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)
	app.hasher = cryptox.NewHasher(cfg.HashWorkers)

	shutdown, err := otelx.Setup(context.Background(), otelx.Config{
		ServiceName: serviceName,
		Version:     BuildVersion,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.otelShutdown = shutdown

	app.stores, err = openStores(cfg, app.hasher)
	if err != nil {
		_ = app.otelShutdown(context.Background())
		return nil, err
	}
	app.logger.Info("stores ready", "users", cfg.UserStore, "sessions", cfg.SessionStore)

	if err := app.initServices(); err != nil {
		_ = app.stores.Close()
		_ = app.otelShutdown(context.Background())
		return nil, err
	}
	app.initHTTP()
	app.initGRPC()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", app.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen on grpc port %d: %w", app.cfg.GRPCPort, err)
	}

	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"grpc_port", app.cfg.GRPCPort,
		"version", BuildVersion,
	)

	serverErrors := make(chan error, 2)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("http server failed: %w", err)
		}
	}()
	go func() {
		if err := app.grpcServer.Serve(lis); err != nil && !errors.Is(err, gogrpc.ErrServerStopped) {
			serverErrors <- fmt.Errorf("grpc server failed: %w", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		_ = app.Shutdown()
		return err
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
	}

	if err := app.Shutdown(); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.httpServer.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "err", err)
		if err := app.httpServer.Close(); err != nil {
			app.logger.Error("error closing server", "err", err)
		}
	}

	stopped := make(chan struct{})
	go func() {
		app.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		app.logger.Error("graceful grpc shutdown timed out")
		app.grpcServer.Stop()
	}

	app.housekeepingService.Stop()

	if err := app.otelShutdown(ctx); err != nil {
		app.logger.Error("error flushing traces", "err", err)
	}

	if err := app.stores.Close(); err != nil {
		app.logger.Error("error closing stores", "err", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	secret := []byte(app.cfg.JWTSecret)
	signer, err := jwtx.NewHMACSigner(secret)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}
	verifier, err := jwtx.NewHMACVerifier(secret, jwtx.VerifyOptions{})
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	mailer, err := app.newMailer()
	if err != nil {
		return err
	}

	app.authService = &service.AuthService{
		Users:    app.stores.users,
		Attempts: app.stores.attempts,
		Sessions: &service.SessionService{
			Signer:       signer,
			Verifier:     verifier,
			Revoked:      app.stores.revoked,
			TTL:          app.cfg.SessionTTL,
			StoreTimeout: app.cfg.StoreTimeout,
		},
		Hasher: app.hasher,
		Mailer: mailer,
		Timeouts: service.Timeouts{
			Store: app.cfg.StoreTimeout,
			Email: app.cfg.EmailTimeout,
			Hash:  app.cfg.HashTimeout,
		},
		AttemptTTL: app.cfg.LoginAttemptTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.logger,
		app.cfg.HousekeepingInterval,
		app.stores.sweepers...,
	)
	return nil
}

func (app *Application) newMailer() (email.Sender, error) {
	switch app.cfg.EmailSender {
	case SenderPostmark:
		s, err := email.NewPostmarkSender(
			app.cfg.PostmarkBaseURL,
			app.cfg.PostmarkServerToken,
			app.cfg.PostmarkFrom,
			app.cfg.EmailTimeout,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postmark sender: %w", err)
		}
		return s, nil
	default:
		app.logger.Warn("login codes are written to the log; set EMAIL_SENDER=postmark to deliver them")
		return email.LogSender{Logger: app.logger}, nil
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.authService, BuildVersion, app.logger)
	router.Cookies = httpapi.CookieConfig{
		Secure: app.cfg.CookieSecure,
		TTL:    app.cfg.SessionTTL,
	}
	router.RateLimits = app.cfg.RateLimits
	router.UsersPing = app.stores.usersPing
	router.SessionsPing = app.stores.sessionsPing
	router.ApplyRoutes()

	app.router = router

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func (app *Application) initGRPC() {
	app.grpcServer = authgrpc.NewServer(app.authService, app.logger)
}
