// Package app assembles the pipeline: configuration, logging, the roster
// snapshot, the SQLite-backed store, the services, and the HTTP server
// with graceful shutdown.
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

	"cwhub/internal/config"
	"cwhub/internal/infrastructure"
	"cwhub/internal/roster"
	"cwhub/internal/services"
	"cwhub/internal/store"
	handlers "cwhub/internal/transport/http"
)

// Application is the composed server and its dependencies.
type Application struct {
	Config      *config.Config
	Logger      *slog.Logger
	Store       *store.Store
	Roster      *roster.Roster
	Uploads     *services.UploadService
	Reports     *services.ReportService
	Assignments *services.AssignmentService
	Server      *http.Server
}

// NewApplication loads configuration and wires every component. The roster
// file is optional: a missing file starts the server with an empty roster
// and every entity lands in the needs-assignment bucket until overridden.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	r, err := loadRoster(cfg.Storage.RosterPath, logger)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Storage.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	app := &Application{
		Config:      cfg,
		Logger:      logger,
		Store:       st,
		Roster:      r,
		Uploads:     services.NewUploadService(st, r, cfg.Pipeline, logger),
		Reports:     services.NewReportService(st, r, cfg.Pipeline.TrendMetric, logger),
		Assignments: services.NewAssignmentService(st, r, logger),
	}

	router := handlers.NewRouter(handlers.Deps{
		Uploads:     app.Uploads,
		Reports:     app.Reports,
		Assignments: app.Assignments,
		Store:       st,
		Logger:      logger,
		Server:      cfg.Server,
	})

	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

func loadRoster(path string, logger *slog.Logger) (*roster.Roster, error) {
	if path == "" {
		return roster.New(nil), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn("roster file not found, starting with an empty roster",
			slog.String("path", path))
		return roster.New(nil), nil
	}

	chatters, err := roster.LoadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("load roster %s: %w", path, err)
	}
	r := roster.New(chatters)
	logger.Info("roster loaded",
		slog.String("path", path),
		slog.Int("entries", r.Size()),
		slog.Int("teams", len(r.Teams())))
	return r, nil
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM, then
// shuts down gracefully within the configured timeout.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.closeStore()
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		a.Logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(ctx); err != nil {
		a.closeStore()
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	a.closeStore()
	a.Logger.Info("server stopped")
	return infrastructure.CloseLogFile()
}

func (a *Application) closeStore() {
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("store close failed", slog.String("error", err.Error()))
	}
}
