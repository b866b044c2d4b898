// Negotium - Negotiation Role-Play Simulator Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/negotium-labs/negotium/internal/agents"
	"github.com/negotium-labs/negotium/internal/api"
	"github.com/negotium-labs/negotium/internal/config"
	"github.com/negotium-labs/negotium/internal/engine"
	"github.com/negotium-labs/negotium/internal/identity"
	"github.com/negotium-labs/negotium/internal/live"
	"github.com/negotium-labs/negotium/internal/middleware"
	"github.com/negotium-labs/negotium/internal/provider"
	"github.com/negotium-labs/negotium/internal/session"
	"github.com/negotium-labs/negotium/internal/store"
	"github.com/negotium-labs/negotium/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Text generation provider (optional). Without an API key the server still
	// runs: scenario design and analysis degrade to stock content, and message
	// turns report the provider as unavailable.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var gen agents.Generator
	aiEnabled := false
	if cfg.Gemini.APIKey != "" {
		gemini, err := provider.NewGemini(ctx, cfg.Gemini.APIKey)
		if err != nil {
			slog.Warn("Failed to initialize Gemini client, AI features disabled", "error", err)
			gen = provider.Disabled{}
		} else {
			gen = gemini
			aiEnabled = true
			slog.Info("Gemini provider initialized", "model", cfg.Gemini.Model, "coach_model", cfg.Gemini.CoachModel)
		}
	} else {
		slog.Info("AI features disabled (GEMINI_API_KEY not set)")
		gen = provider.Disabled{}
	}

	// Initialize services.
	suite := agents.NewSuite(gen, cfg.Gemini.Model, cfg.Gemini.CoachModel)
	hub := live.NewHub()
	registry := session.NewMemoryRegistry()
	orch := session.NewOrchestrator(registry, repo, suite, engine.SystemVariance(), hub)

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, orch, aiEnabled)
	sessionHandler := api.NewSessionHandler(baseHandler)
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := live.NewWebSocketHandler(hub, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// All routes use identity middleware (no auth needed).
	sessionHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/session", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Create server.
	// Note: WebSocket connections require long timeouts (no WriteTimeout).
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,                 // 0 = no timeout for WebSocket support
		IdleTimeout:  120 * time.Second, // 2 minutes for idle connections
	}

	// Start idle session sweeper.
	orch.StartIdleSweeper(ctx, cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
