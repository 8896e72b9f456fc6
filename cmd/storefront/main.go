// Storefront gateway - serves the store backend's catalog, cart and auth
// operations through the client-side storefront core: carts reconciled
// against the catalog, money in minor units, totals computed locally.
// Designed for Cloud Run deployment with stateless operation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/api"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/session"
	"storefront/internal/storefront"
	"storefront/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := initLogger(cfg)

	logger.Info("configuration loaded",
		slog.String("backend_url", cfg.Store.BackendURL),
		slog.String("environment", cfg.Environment),
		slog.String("session_store", cfg.Store.SessionStore),
	)

	// Backend client, optionally behind the Chrome-fingerprint transport
	var rt http.RoundTripper = transport.NewDefault()
	if cfg.Store.ChromeTLS {
		rt = transport.NewChrome(30 * time.Second)
	}
	client, err := api.New(api.Config{
		BaseURL:       cfg.Store.BackendURL,
		MinAPIVersion: cfg.Store.MinAPIVersion,
		Transport:     rt,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	sessions, closeSessions, err := createSessionStore(cfg)
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}
	defer closeSessions()

	core := storefront.New(client, logger)
	defer core.Close()

	// Warm the catalog with whatever session is on hand; a cold start with
	// the backend down is not fatal, the first request retries.
	sess, err := sessions.Load(ctx)
	if err != nil {
		logger.Warn("loading stored session", slog.String("error", err.Error()))
		sess = session.Session{}
	}
	if err := core.Bootstrap(ctx, sess); err != nil {
		logger.Warn("catalog warmup failed", slog.String("error", err.Error()))
	}

	h := handler.New(core, client, sessions, logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// createSessionStore builds the configured session store. The returned close
// function releases any held connections.
func createSessionStore(cfg *config.Config) (session.Store, func(), error) {
	switch cfg.Store.SessionStore {
	case "memory":
		return session.NewMemoryStore(), func() {}, nil
	case "file":
		return session.NewFileStore(cfg.Store.SessionFile), func() {}, nil
	case "redis":
		store := session.NewRedisStore(cfg.Store.RedisAddr, cfg.Store.RedisPrefix)
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session store: %s", cfg.Store.SessionStore)
	}
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger(cfg *config.Config) *slog.Logger {
	level := cfg.SlogLevel()
	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
