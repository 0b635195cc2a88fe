/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave planner server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment)
  2. Initialize logger and message catalog
  3. Open the store selected by STORE_DRIVER
  4. Load company closure days into the holiday calendar
  5. Build services, bootstrap the first admin if ADMIN_PIN is set
  6. Configure HTTP router and start server with graceful shutdown

ENVIRONMENT:
  See config/config.go. The most common ones:
  PORT          HTTP server port (default: 8080)
  STORE_DRIVER  sqlite | mongo | memory (default: sqlite)
  SQLITE_PATH   SQLite database path (default: leave.db)
  JWT_SECRET    Token signing key (required in production)
  ADMIN_PIN     Creates the first admin on an empty user store

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Settings
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/leave-planner/api"
	"github.com/warp/leave-planner/auth"
	"github.com/warp/leave-planner/config"
	"github.com/warp/leave-planner/holiday"
	"github.com/warp/leave-planner/i18n"
	"github.com/warp/leave-planner/leave"
	"github.com/warp/leave-planner/leave/store"
	"github.com/warp/leave-planner/logger"
	"github.com/warp/leave-planner/store/mongo"
	"github.com/warp/leave-planner/store/sqlite"
)

// backend is what every store driver provides.
type backend interface {
	leave.Store
	holiday.ClosureStore
}

func main() {
	if err := run(); err != nil {
		log := logger.Init(logger.Options{})
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	if err := i18n.Init(cfg.Locale); err != nil {
		return err
	}

	// Initialize store
	db, closeStore, ping, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	calendar := holiday.NewGerman()
	if err := calendar.LoadClosures(ctx, db); err != nil {
		return err
	}

	requests := leave.NewManager(db, calendar, log.With().Str("component", "requests").Logger())
	users := leave.NewUserService(db, requests, log.With().Str("component", "users").Logger())
	users.MaxFailedLogins = cfg.Auth.MaxFailedLogins
	users.LoginLockout = cfg.Auth.LoginLockout
	tasks := leave.NewTaskService(db, log.With().Str("component", "tasks").Logger())

	if cfg.Auth.AdminPIN != "" {
		admin, created, err := users.Bootstrap(ctx, cfg.Auth.AdminName, cfg.Auth.AdminPIN)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			log.Info().Str("user_id", admin.ID).Msg("created initial admin; log in with this id and ADMIN_PIN")
		}
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn().Msg("JWT_SECRET not set; using a random key, tokens will not survive a restart")
	}

	handler := &api.Handler{
		Requests:    requests,
		Users:       users,
		Tasks:       tasks,
		Calendar:    calendar,
		Closures:    db,
		Tokens:      auth.NewIssuer(secret, cfg.Auth.TokenTTL),
		Logger:      log.With().Str("component", "http").Logger(),
		Ping:        ping,
		DemoEnabled: cfg.IsDevelopment(),
	}

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{CORSOrigins: cfg.CORSOrigins})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.Store.Driver).
			Str("env", cfg.Env).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// openStore opens the configured driver. The ping func may be nil.
func openStore(ctx context.Context, cfg *config.Config) (backend, func(), func(context.Context) error, error) {
	log := logger.Get()

	switch cfg.Store.Driver {
	case "mongo":
		s, err := mongo.New(ctx, cfg.Store.MongoURI, cfg.Store.MongoDB)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			logClose(log, s.Close(closeCtx))
		}
		return s, closeFn, s.Ping, nil

	case "memory":
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return store.NewMemory(), func() {}, nil, nil

	default:
		s, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, func() { logClose(log, s.Close()) }, s.Ping, nil
	}
}

func logClose(log zerolog.Logger, err error) {
	if err != nil {
		log.Error().Err(err).Msg("close store")
	}
}
