// Package app initializes and runs the users service.
// It configures logging, storage and routing, and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/patric-chuzhbe/usersvc/internal/config"
	"github.com/patric-chuzhbe/usersvc/internal/db/memorystorage"
	"github.com/patric-chuzhbe/usersvc/internal/db/storage"
	"github.com/patric-chuzhbe/usersvc/internal/ipchecker"
	"github.com/patric-chuzhbe/usersvc/internal/logger"
	"github.com/patric-chuzhbe/usersvc/internal/models"
	"github.com/patric-chuzhbe/usersvc/internal/router"
)

type App struct {
	cfg         *config.Config
	db          storage.Storage
	httpHandler http.Handler
}

// New loads the configuration, initializes the logger, builds the
// in-memory storage and mounts the router on it.
func New(optionsProto ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(optionsProto...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var storageOptions []memorystorage.Option
	if app.cfg.SeedUsers {
		storageOptions = append(storageOptions, memorystorage.WithUsers(models.SeedUserNames...))
	}
	app.db, err = memorystorage.New(storageOptions...)
	if err != nil {
		return nil, err
	}

	ipChecker, err := ipchecker.New(
		app.cfg.TrustedSubnet,
		ipchecker.WithTrustProxyHeaders(app.cfg.TrustProxyHeaders),
	)
	if err != nil {
		return nil, err
	}

	if app.cfg.EnableTestRoutes {
		logger.Log.Warnln("test-support routes are enabled, do not use this configuration in production")
	}

	app.httpHandler = router.New(
		app.db,
		ipChecker,
		router.WithTestRoutes(app.cfg.EnableTestRoutes),
	)

	return app, nil
}

// Handler exposes the HTTP handler, mostly for tests.
func (a *App) Handler() http.Handler {
	return a.httpHandler
}

// Run serves HTTP until SIGINT/SIGTERM, then shuts the server down
// within the configured timeout.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.serve(ctx)
}

func (a *App) serve(ctx context.Context) error {
	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Stopping the server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// Close flushes the logger.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}
