package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/fitra/internal/auth/http"
	"github.com/aussiebroadwan/fitra/internal/auth/metrics"
	"github.com/aussiebroadwan/fitra/internal/auth/service"
	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"github.com/aussiebroadwan/fitra/pkg/cryptox"
	"github.com/aussiebroadwan/fitra/pkg/errutil"
	"github.com/aussiebroadwan/fitra/pkg/jwtx"
	"github.com/aussiebroadwan/fitra/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags "-X ...".
var BuildVersion = "dev"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	keyManager *jwtx.KeyManager
	metrics    *metrics.Metrics
	hashers    *cryptox.WorkerPool

	// Services
	registrationService *service.RegistrationService
	credentialService   *service.CredentialService
	sessionService      *service.SessionService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService
	housekeepingRunning bool

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(ctx context.Context, cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "fitra-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initHashing(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	keyManager, err := InitSessionKeys(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.keyManager = keyManager

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler is the fully wired HTTP handler, middleware included.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until ctx is done, a shutdown
// signal arrives or the server fails.
func (app *Application) Run(ctx context.Context) error {
	app.housekeepingService.Start()
	app.housekeepingRunning = true

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
	case <-ctx.Done():
		app.logger.Info("context cancelled, shutting down")
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

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingRunning {
		app.housekeepingService.Stop()
		app.housekeepingRunning = false
	}

	if err := app.db.Close(); err != nil {
		errutil.LogError(app.logger, "error closing database", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase connects to the store and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := OpenStore(ctx, app.cfg.Database, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	users, err := db.Users().CountUsers(ctx)
	if err != nil {
		app.logger.Warn("failed to count users", "error", err)
	}
	app.metrics.SetUsers(users)

	app.logger.Info("database migrations applied successfully",
		"driver", app.cfg.Database.Driver,
		"users", users,
	)
	return nil
}

// initHashing loads the pepper and builds the hashing worker pool
func (app *Application) initHashing() error {
	pepper, err := cryptox.LoadOrGeneratePepper(app.cfg.Password.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	hasher, err := cryptox.NewHasher(cryptox.HasherOptions{
		Algorithm:  cryptox.Algorithm(app.cfg.Password.Algorithm),
		Argon2:     cryptox.DefaultArgon2Params,
		BcryptCost: app.cfg.Password.BcryptCost,
		Pepper:     pepper,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	app.hashers = cryptox.NewWorkerPool(hasher, app.cfg.Password.HashWorkers, app.metrics.ObserveHash)
	app.logger.Info("password hashing ready",
		"algorithm", hasher.Algorithm(),
		"workers", app.cfg.Password.HashWorkers,
	)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.registrationService = service.NewRegistrationService(app.db, app.hashers)
	app.credentialService = &service.CredentialService{Store: app.db, Hashers: app.hashers}
	app.sessionService = service.NewSessionService(app.keyManager, app.db, app.cfg.Session.TTL)
	app.userService = &service.UserService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.RegistrationService = app.registrationService
	router.CredentialService = app.credentialService
	router.SessionService = app.sessionService
	router.UserService = app.userService
	router.Metrics = app.metrics
	router.Cookies = app.cfg.Cookies()
	router.RateLimits = app.cfg.RateLimits
	router.CORSOrigins = app.cfg.CORSOrigins
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Migrate applies the schema (or collection indexes) and returns. It backs
// the migrate command.
func Migrate(ctx context.Context, cfg Config, logger *slog.Logger) error {
	db, err := OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.ApplyMigrations(ctx); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "driver", cfg.Database.Driver)
	return nil
}
