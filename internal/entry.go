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
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/larder/internal/api"
	"github.com/starford/larder/internal/importer"
	"github.com/starford/larder/internal/mcpserver"
	"github.com/starford/larder/internal/recipeservice"
	"github.com/starford/larder/internal/recipestore"
	"github.com/starford/larder/internal/sse"
	"github.com/starford/larder/internal/storage"
)

func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{version: "dev", logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

func openStore(cfg *Config, logger *slog.Logger) (*recipestore.Store, error) {
	store, err := recipestore.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open recipe store: %w", err)
	}
	logger.Debug("recipe store opened", slog.String("driver", store.Driver()))
	return store, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("import_dir", cfg.Import.Dir),
		slog.Bool("auth_enabled", cfg.Auth.AuthEnabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	svc := recipeservice.NewService(store, broker, logger)

	var files *storage.FS
	if cfg.Import.Dir != "" {
		if err := os.MkdirAll(cfg.Import.Dir, 0o755); err != nil {
			return fmt.Errorf("create import dir: %w", err)
		}
		if files, err = storage.NewFS(cfg.Import.Dir); err != nil {
			return fmt.Errorf("init import dir: %w", err)
		}
		res, err := importer.Sync(ctx, svc, files, logger)
		if err != nil {
			logger.Warn("initial import failed", slog.String("error", err.Error()))
		} else {
			logger.Info("initial import done",
				slog.Int("imported", res.Imported),
				slog.Int("unchanged", res.Unchanged),
				slog.Int("removed", res.Removed),
				slog.Int("failed", res.Failed))
		}
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.CORS.AllowedOrigins)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	api.MountHealth(r, svc)

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if files != nil && cfg.Import.Watch {
		g.Go(func() error {
			return importer.Watch(gCtx, svc, files, files.Root(), cfg.Import.Debounce, logger)
		})
	}

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

		logger.Info("Shutting down server...")

		// Close SSE streams first so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// ErrExportIntoImportDir is returned when an export would write into the
// directory the importer reads, which would re-import every recipe as new.
var ErrExportIntoImportDir = errors.New("export dir is inside the import dir")

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	store, err := openStore(app.config, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := recipeservice.NewService(store, nil, logger)
	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc, app.version).ServeStdio()
}

// RunImport loads every recipe file under dir into the store once.
func RunImport(ctx context.Context, dir string, opts ...Option) (importer.Result, error) {
	app, logger, err := setup(opts)
	if err != nil {
		return importer.Result{}, err
	}
	files, err := storage.NewFS(dir)
	if err != nil {
		return importer.Result{}, err
	}
	store, err := openStore(app.config, logger)
	if err != nil {
		return importer.Result{}, err
	}
	defer store.Close()

	return importer.Sync(ctx, recipeservice.NewService(store, nil, logger), files, logger)
}

// RunExport writes every stored recipe to dir as YAML and returns the
// written file names.
func RunExport(ctx context.Context, dir string, opts ...Option) ([]string, error) {
	app, logger, err := setup(opts)
	if err != nil {
		return nil, err
	}
	if app.config.Import.Dir != "" {
		inside, err := isWithin(dir, app.config.Import.Dir)
		if err != nil {
			return nil, err
		}
		if inside {
			return nil, fmt.Errorf("%w: %s", ErrExportIntoImportDir, dir)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	files, err := storage.NewFS(dir)
	if err != nil {
		return nil, err
	}
	store, err := openStore(app.config, logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return importer.Export(ctx, recipeservice.NewService(store, nil, logger), files)
}

// isWithin reports whether path is root or lies below it.
func isWithin(path, root string) (bool, error) {
	p, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	r, err := filepath.Abs(root)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(r, p)
	if err != nil {
		return false, nil
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))), nil
}

// RunMigrate applies the schema and exits.
func RunMigrate(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	store, err := openStore(app.config, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("schema up to date", slog.String("driver", store.Driver()))
	return nil
}
