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

	"github.com/aoyagi/manabi/internal/api"
	"github.com/aoyagi/manabi/internal/authgw"
	"github.com/aoyagi/manabi/internal/chatservice"
	"github.com/aoyagi/manabi/internal/index"
	"github.com/aoyagi/manabi/internal/logservice"
	"github.com/aoyagi/manabi/internal/mcpserver"
	"github.com/aoyagi/manabi/internal/models"
	"github.com/aoyagi/manabi/internal/profileservice"
	"github.com/aoyagi/manabi/internal/sse"
	"github.com/aoyagi/manabi/internal/store"
)

// Run starts the HTTP application with the given options.
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
		slog.String("data_dir", cfg.Data.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure data directory exists.
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Initialize the JSON file store.
	st, err := store.NewFiles(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	// Initialize SQLite search index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := index.Sync(db, st, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Domain services. Log mutations feed both the index and the SSE
	// stream; chat turns only the stream.
	logs := logservice.NewService(st, func(kind string, log models.LearningLog) {
		switch kind {
		case logservice.ChangeDeleted:
			if err := db.DeleteLog(log.ID.String()); err != nil {
				logger.Warn("index delete failed", slog.String("id", log.ID.String()), slog.String("error", err.Error()))
			}
		default:
			if err := db.UpsertLog(index.RowFromLog(log)); err != nil {
				logger.Warn("index upsert failed", slog.String("id", log.ID.String()), slog.String("error", err.Error()))
			}
		}
		broker.PublishLogEvent(kind, log.ID.String())
	})
	if err := logs.LoadAll(ctx); err != nil {
		return fmt.Errorf("load logs: %w", err)
	}

	chat := chatservice.NewService(st, chatservice.NewMockResponder(cfg.Chat.ReplyDelay), func(msg models.ChatMessage) {
		broker.PublishChatMessage(msg.ID.String(), msg.IsUser)
	})
	if err := chat.LoadHistory(ctx); err != nil {
		return fmt.Errorf("load chat history: %w", err)
	}

	profiles := profileservice.NewService(st)

	var gw *authgw.Client
	if cfg.Auth.Provider.Enabled() {
		gw = authgw.NewClient(cfg.Auth.Provider.URL, cfg.Auth.Provider.AnonKey)
	}

	apiRouter := api.NewRouter(api.Deps{
		Logs:        logs,
		Chat:        chat,
		Profiles:    profiles,
		Index:       db,
		Auth:        gw,
		SSE:         broker,
		DataDir:     cfg.Data.Dir,
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
	})

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

	// Avatar images (unauthenticated, like any static asset).
	avatars := api.NewAvatarHandler(cfg.Data.Dir, profiles)
	r.Get("/avatars/{filename}", avatars.ServeFile)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the data dir for external edits; reload the snapshot and
	// nudge clients when the log file changes on disk.
	g.Go(func() error {
		err := index.Watch(gCtx, db, st, logger, func() {
			if err := logs.LoadAll(gCtx); err != nil {
				logger.Warn("reload after external edit failed", slog.String("error", err.Error()))
			}
			broker.Publish(sse.Event{Type: "logs.synced", Data: map[string]string{}})
		})
		if err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
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

// RunMCP starts the stdio MCP server sharing the same store and index.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Logs go to stderr: stdout carries the MCP protocol.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	st, err := store.NewFiles(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, st, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	logs := logservice.NewService(st, nil)
	if err := logs.LoadAll(ctx); err != nil {
		return fmt.Errorf("load logs: %w", err)
	}
	profiles := profileservice.NewService(st)

	srv := mcpserver.New(logs, profiles, db, cfg.Data.Dir)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
