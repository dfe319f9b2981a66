package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/hms-dta/agencyauth/internal/auth/http"
	"github.com/hms-dta/agencyauth/internal/auth/metrics"
	"github.com/hms-dta/agencyauth/internal/auth/service"
	"github.com/hms-dta/agencyauth/internal/auth/store"
	"github.com/hms-dta/agencyauth/internal/auth/store/drivers/sqlite"
	"github.com/hms-dta/agencyauth/pkg/httpx"
	"github.com/hms-dta/agencyauth/pkg/jwtx"
	"github.com/hms-dta/agencyauth/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	keys    *jwtx.KeySet
	metrics *metrics.Metrics

	deviceFlowService   *service.DeviceFlowService
	tokenService        *service.TokenService
	userService         *service.UserService
	domainService       *service.DomainService
	seedService         *service.SeedService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "agencyauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keys, err := InitSigningKeys(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keys = keys

	registry := prometheus.NewRegistry()
	app.metrics = metrics.New(registry)

	app.initServices()
	app.initHTTP(registry)

	if app.cfg.SeedDemoData {
		if err := app.seedService.Seed(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.deviceFlowService = &service.DeviceFlowService{
		Store:           app.db,
		Metrics:         app.metrics,
		VerificationURI: app.cfg.VerificationURI,
		CodeTTL:         app.cfg.DeviceCodeTTL,
		PollInterval:    app.cfg.PollInterval,
	}

	app.tokenService = &service.TokenService{
		Signer:     jwtx.NewSignerHS256(app.keys),
		Store:      app.db,
		Metrics:    app.metrics,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.userService = &service.UserService{Store: app.db, Metrics: app.metrics}
	app.domainService = &service.DomainService{Store: app.db}
	app.seedService = &service.SeedService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP(registry *prometheus.Registry) {
	verifier := jwtx.NewVerifierHS256(app.keys, app.cfg.Issuer)

	router := httpapi.NewRouter(
		app.keys,
		verifier,
		app.cfg.Issuer,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.DeviceFlowService = app.deviceFlowService
	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.DomainService = app.domainService
	router.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	if len(app.cfg.CORSAllowedOrigins) > 0 {
		router.UseCORS(httpx.DefaultCORSConfig(app.cfg.CORSAllowedOrigins))
	}

	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
