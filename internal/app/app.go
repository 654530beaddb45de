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

	httpapi "github.com/aussiebroadwan/tokenkit/internal/http"
	"github.com/aussiebroadwan/tokenkit/pkg/keyring"
	"github.com/aussiebroadwan/tokenkit/pkg/profile"
	"github.com/aussiebroadwan/tokenkit/pkg/service"
	"github.com/aussiebroadwan/tokenkit/pkg/slogx"
	"github.com/aussiebroadwan/tokenkit/pkg/store"
	"github.com/aussiebroadwan/tokenkit/pkg/store/drivers/redis"
	"github.com/aussiebroadwan/tokenkit/pkg/store/drivers/sqlite"
)

const (
	// BuildVersion is overridden at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires profiles, key material, the state store and the token
// services together. Everything is built once by New.
type Application struct {
	cfg    Config
	logger *slog.Logger

	profiles *profile.Registry
	keys     *keyring.Keyring
	db       store.Store

	issuer       *service.Issuer
	authorizer   *service.Authorizer
	housekeeping *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New loads the profiles, resolves their keys, opens the state store and
// removes expired state. Any failure aborts.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tokenkit",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  cfg.LogOutput,
		}),
	}

	if err := app.initProfiles(); err != nil {
		return nil, err
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}

	app.initServices()

	ctx := slogx.WithContext(context.Background(), app.logger)
	if _, err := app.housekeeping.RunOnce(ctx); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to clean up token states: %w", err)
	}

	app.initHTTP()

	return app, nil
}

func (app *Application) Logger() *slog.Logger { return app.logger }

func (app *Application) Profiles() *profile.Registry { return app.profiles }

func (app *Application) Keys() *keyring.Keyring { return app.keys }

func (app *Application) Store() store.Store { return app.db }

func (app *Application) Issuer() *service.Issuer { return app.issuer }

func (app *Application) Authorizer() *service.Authorizer { return app.authorizer }

func (app *Application) Housekeeping() *service.HousekeepingService { return app.housekeeping }

// Handler returns the HTTP API.
func (app *Application) Handler() http.Handler { return app.router }

// Run serves HTTP and blocks until ctx is done or a shutdown signal arrives.
func (app *Application) Run(ctx context.Context) error {
	app.housekeeping.Start()

	app.logger.Info("token service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		app.logger.Info("shutdown requested")
	}

	if err := app.Shutdown(); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server and releases every resource.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down token service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	return app.Close()
}

// Close stops housekeeping and closes the state store.
func (app *Application) Close() error {
	app.housekeeping.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing state store", "error", err)
		return err
	}

	app.logger.Info("token service stopped")
	return nil
}

func (app *Application) initProfiles() error {
	profiles, err := profile.Load(profile.LoadOptions{
		Root:     app.cfg.Root,
		Patterns: app.cfg.ProfilePatterns,
		Logger:   app.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to load token profiles: %w", err)
	}
	app.profiles = profiles

	keys, err := keyring.Resolve(profiles, keyring.Options{Root: app.cfg.Root, Logger: app.logger})
	if err != nil {
		return fmt.Errorf("failed to resolve key material: %w", err)
	}
	app.keys = keys

	return nil
}

// initStore opens the state store and applies migrations.
func (app *Application) initStore() error {
	switch app.cfg.StoreDriver {
	case DriverSQLite, "":
		path := app.cfg.DatabasePath()
		db, err := sqlite.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open database %s: %w", path, err)
		}
		app.db = db
	case DriverRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var opts []redis.Option
		if app.cfg.RedisPrefix != "" {
			opts = append(opts, redis.WithPrefix(app.cfg.RedisPrefix))
		}
		db, err := redis.Open(ctx, app.cfg.RedisAddr, opts...)
		if err != nil {
			return fmt.Errorf("failed to connect to redis %s: %w", app.cfg.RedisAddr, err)
		}
		app.db = db
	default:
		return fmt.Errorf("unknown store driver %q", app.cfg.StoreDriver)
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("state store ready", "driver", app.cfg.StoreDriver)
	return nil
}

func (app *Application) initServices() {
	app.issuer = service.NewIssuer(app.profiles, app.keys)
	app.authorizer = service.NewAuthorizer(app.profiles, app.keys, app.db.TokenStates())
	app.housekeeping = service.NewHousekeepingService(
		app.db.TokenStates(),
		app.logger,
		app.cfg.CleanupInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.profiles, app.keys, app.db, BuildVersion, app.logger)
	router.Issuer = app.issuer
	router.Authorizer = app.authorizer
	router.Info = app.Info
	if app.cfg.IssueLimit.RequestsPerWindow > 0 && app.cfg.IssueLimit.Window > 0 {
		router.IssueLimit = app.cfg.IssueLimit
	}
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
