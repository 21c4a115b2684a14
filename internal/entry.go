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

	"github.com/wlfogle/OmnioSearch/internal/api"
	"github.com/wlfogle/OmnioSearch/internal/cloud"
	"github.com/wlfogle/OmnioSearch/internal/discover"
	"github.com/wlfogle/OmnioSearch/internal/fileservice"
	"github.com/wlfogle/OmnioSearch/internal/fulltext"
	"github.com/wlfogle/OmnioSearch/internal/indexer"
	"github.com/wlfogle/OmnioSearch/internal/interpret"
	"github.com/wlfogle/OmnioSearch/internal/mcpserver"
	"github.com/wlfogle/OmnioSearch/internal/search"
	"github.com/wlfogle/OmnioSearch/internal/sse"
	"github.com/wlfogle/OmnioSearch/internal/store"
)

// components holds everything a front-end (HTTP, MCP, CLI verb) needs.
type components struct {
	db     *store.DB
	ft     *fulltext.Index
	ix     *indexer.Indexer
	svc    *fileservice.Service
	logger *slog.Logger
}

func (c *components) Close() {
	if err := c.ft.Close(); err != nil {
		c.logger.Error("fulltext close error", slog.String("error", err.Error()))
	}
	if err := c.db.Close(); err != nil {
		c.logger.Error("store close error", slog.String("error", err.Error()))
	}
}

// NewLogger builds the structured JSON logger and installs it as the
// process default.
func NewLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Bootstrap opens both persistent stores and wires the search and indexing
// components. Store-initialization failures are fatal; the caller owns the
// returned components and must Close them.
func Bootstrap(cfg *Config, logger *slog.Logger) (*components, error) {
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := store.Open(cfg.Data.StorePath())
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	ft, err := fulltext.Open(cfg.Data.FulltextPath())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init fulltext index: %w", err)
	}
	db.SetExtraSizeFunc(ft.SizeOnDisk)

	policy := discover.Policy{
		ExcludedPrefixes: cfg.Search.ExcludedPrefixes,
		IncludeHidden:    cfg.Search.IncludeHidden,
		IncludedExts:     cfg.Search.IncludedExts,
		ExcludedExts:     cfg.Search.ExcludedExts,
		MaxFileSize:      cfg.Search.MaxFileSize,
	}

	ix := indexer.New(db, ft, logger, indexer.Options{
		BatchSize:      cfg.Search.BatchSize,
		Workers:        cfg.Search.Workers,
		ExtractContent: cfg.Search.IndexContent,
		Policy:         policy,
	})

	var cm *cloud.Manager
	if cfg.Cloud.Enabled {
		cm = cloud.NewManager(logger, cfg.Cloud.HTTPTimeout, cloud.Defaults()...)
	}

	interp := interpret.New(logger)
	engine := search.NewEngine(db, ft, cm, interp, logger, search.Options{
		Roots:       cfg.Search.Roots,
		ToolTimeout: cfg.Search.ToolTimeout,
	})

	svc := fileservice.New(db, engine, ix, cm, interp, cfg.Search.Roots)

	return &components{db: db, ft: ft, ix: ix, svc: svc, logger: logger}, nil
}

// Run starts the HTTP server with the given options and blocks until
// shutdown.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := NewLogger(cfg)
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Data.Dir),
		slog.Int("roots", len(cfg.Search.Roots)),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := Bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	// SSE broker.
	broker := sse.NewBroker(500 * time.Millisecond)
	defer broker.Close()

	// Build API router.
	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	if cfg.Search.WatchRoots {
		g.Go(func() error {
			if err := c.ix.Watch(gCtx, cfg.Search.Roots, func(kind, path string) {
				broker.PublishFileEvent(kind, path)
			}); err != nil {
				logger.Error("watcher error", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Pump indexing progress to SSE subscribers.
	g.Go(func() error {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				if update := c.ix.Progress(); update != nil {
					broker.PublishProgress(update)
				}
			}
		}
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves MCP tools over stdio until the client disconnects.
func RunMCP(cfg *Config) error {
	logger := NewLogger(cfg)
	c, err := Bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()
	return mcpserver.New(c.svc).ServeStdio()
}

// RunSearch executes one search and returns the ranked results.
func RunSearch(ctx context.Context, cfg *Config, text string) ([]search.Result, error) {
	logger := NewLogger(cfg)
	c, err := Bootstrap(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.svc.Search(ctx, text)
}

// RunIndex runs a bulk indexing pass and blocks until it reaches a
// terminal phase, printing progress along the way.
func RunIndex(ctx context.Context, cfg *Config, roots []string) error {
	logger := NewLogger(cfg)
	c, err := Bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.svc.StartIndexing(ctx, roots); err != nil {
		return err
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			update := c.svc.Progress()
			if update == nil {
				continue
			}
			logger.Info("indexing",
				slog.String("phase", string(update.Phase)),
				slog.Int64("processed", update.ProcessedFiles),
				slog.Int64("total", update.TotalFiles),
				slog.Float64("files_per_sec", update.Speed))
			switch update.Phase {
			case indexer.PhaseComplete:
				return nil
			case indexer.PhaseError:
				return fmt.Errorf("indexing failed: %s", update.Error)
			}
		}
	}
}

// RunStatus fetches the aggregate index status.
func RunStatus(cfg *Config) (*store.IndexStatus, error) {
	logger := NewLogger(cfg)
	c, err := Bootstrap(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.svc.Status()
}
