package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/adr/internal/api"
	"github.com/starford/adr/internal/apperr"
	"github.com/starford/adr/internal/engine"
	"github.com/starford/adr/internal/index"
	"github.com/starford/adr/internal/mcpserver"
	"github.com/starford/adr/internal/recordservice"
	"github.com/starford/adr/internal/sse"
	"github.com/starford/adr/internal/storage"
)

// openIndex opens the SQLite index and brings it up to date. The record
// directory must already exist.
func (a *application) openIndex(ctx context.Context, fs *storage.FS, e *engine.Engine, logger *slog.Logger) (*index.DB, string, error) {
	ok, err := e.Store().Initialized(ctx)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", apperr.New(apperr.ErrUninitializedStore,
			"no record directory at %s; run `adr init` first", e.Store().Dir())
	}
	dir, err := fs.Abs(e.Store().Dir())
	if err != nil {
		return nil, "", err
	}

	dbPath := a.config.SQLite.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(fs.Root(), dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, "", fmt.Errorf("create index dir: %w", err)
	}
	db, err := index.Open(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("init index: %w", err)
	}

	ch, err := index.Sync(ctx, db, e.Store(), logger)
	if err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logger.Info("index synced",
			slog.Int("created", len(ch.Created)),
			slog.Int("updated", len(ch.Updated)),
			slog.Int("removed", len(ch.Removed)))
	}
	return db, dir, nil
}

// serve runs the HTTP API, the watcher and the signal handler until one
// of them fails or a shutdown signal arrives.
func (a *application) serve(ctx context.Context, fs *storage.FS, e *engine.Engine, logger *slog.Logger) error {
	cfg := a.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("root", fs.Root()),
		slog.String("record_dir", e.Store().Dir()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, dir, err := a.openIndex(ctx, fs, e, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := recordservice.NewService(e, db, logger)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ok, err := e.Store().Initialized(req.Context()); err != nil || !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"record directory missing"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return index.Watch(gCtx, db, e.Store(), dir, logger, broker.PublishRecordEvent)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Stops the watcher once the server is down.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// serveMCP runs the MCP server on stdio next to the index watcher. It
// returns when the client closes stdin.
func (a *application) serveMCP(ctx context.Context, fs *storage.FS, e *engine.Engine, logger *slog.Logger) error {
	db, dir, err := a.openIndex(ctx, fs, e, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := mcpserver.New(recordservice.NewService(e, db, logger), a.version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return index.Watch(gCtx, db, e.Store(), dir, logger, nil)
	})
	g.Go(func() error {
		defer cancel()
		logger.Info("MCP server listening on stdio")
		return srv.ServeStdio()
	})

	return g.Wait()
}
