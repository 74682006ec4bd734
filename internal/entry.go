// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/example/daygap/internal/api"
	"github.com/example/daygap/internal/backfill"
	"github.com/example/daygap/internal/confirm"
	"github.com/example/daygap/internal/dailynotes"
	"github.com/example/daygap/internal/date"
	"github.com/example/daygap/internal/history"
	"github.com/example/daygap/internal/settings"
	"github.com/example/daygap/internal/sse"
	"github.com/example/daygap/internal/storage"
	"github.com/example/daygap/internal/watcher"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("daily_pattern", cfg.Daily.Pattern),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Open vault storage and the run history database.
	core, err := openCore(cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	// Runtime settings persisted next to the vault.
	st, err := settings.Open(cfg.Settings.Path)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Notifications reach both the log and connected SSE clients.
	notify := func(msg string) {
		logger.Info("notice", slog.String("message", msg))
		broker.Notice(msg)
	}

	// Backfill service, confirmation flows and the startup policy.
	svc := backfill.NewService(core.vault, core.hist, notify, logger)
	svc.OnCompleted = func(res backfill.Result) {
		broker.Publish(sse.Event{Type: "backfill.completed", Data: map[string]any{
			"run_id":  res.RunID,
			"start":   res.Start,
			"end":     res.End,
			"created": len(res.Created),
			"failed":  len(res.Failed),
			"message": res.Message(),
		}})
	}

	flows := confirm.NewManager(core.vault, svc, notify, logger)
	flows.OnChange = func(id string, s confirm.State) {
		broker.PlanUpdated(id, len(s.Missing), string(s.Outcome))
	}

	policy := backfill.NewPolicy(core.vault, st, svc, flows.OpenRange, notify, logger)

	// Apply the startup rules once before serving: create today's note,
	// close small gaps, open a confirmation flow for large ones.
	if err := policy.RunStartup(ctx); err != nil {
		logger.Warn("startup backfill failed", slog.String("error", err.Error()))
	}

	// Build API handler and router. The broker serves GET /api/events.
	h := api.NewHandler(core.vault, st, flows, core.hist)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		err := watcher.Watch(gCtx, core.vault, cfg.Vault.Path, logger, func(kind, path string, day date.Date) {
			broker.PublishDailyEvent(kind, path, day.String())
		})
		if err != nil {
			logger.Warn("file watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Unblock the watcher.
		cancel()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// core bundles the storage-backed components every run mode opens: the
// note vault and the run history database.
type core struct {
	vault *dailynotes.Vault
	hist  *history.DB
}

// Close releases the history database.
func (c *core) Close() {
	if err := c.hist.Close(); err != nil {
		slog.Warn("close history db", slog.String("error", err.Error()))
	}
}

// openCore ensures the vault directory exists and opens the shared
// components. The daily note pattern is validated here, so a broken
// config fails before anything serves.
func openCore(cfg *Config, logger *slog.Logger) (*core, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	vault, err := dailynotes.NewVault(store, cfg.Daily.Notes(), logger)
	if err != nil {
		return nil, fmt.Errorf("init daily notes: %w", err)
	}

	hist, err := history.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}

	return &core{vault: vault, hist: hist}, nil
}
