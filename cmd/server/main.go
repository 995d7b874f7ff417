// Wizard Trials game server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/wizard-trials/internal/api"
	"github.com/ashureev/wizard-trials/internal/config"
	"github.com/ashureev/wizard-trials/internal/identity"
	"github.com/ashureev/wizard-trials/internal/live"
	"github.com/ashureev/wizard-trials/internal/lobby"
	"github.com/ashureev/wizard-trials/internal/middleware"
	"github.com/ashureev/wizard-trials/internal/probe"
	"github.com/ashureev/wizard-trials/internal/store"
	"github.com/ashureev/wizard-trials/web"
)

const probeInterval = 10 * time.Second

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

	// "server healthcheck" is used as the container HEALTHCHECK command.
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheck(cfg))
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

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

	// Game state lives in memory; the hub numbers and fans out its events.
	hub := live.NewHub(cfg.Live.ReplaySize)
	games := lobby.New(repo,
		lobby.WithRecordTimeout(cfg.RunRecordTimeout),
		lobby.WithEventSink(hub.Publish),
		lobby.WithEvictHook(hub.Drop),
	)
	// Closed after the HTTP server so in-flight requests still find their games.
	defer games.Close()

	baseHandler := api.NewHandler(repo, games)
	gameHandler := api.NewGameHandler(baseHandler)
	playerHandler := api.NewPlayerHandler(baseHandler, cfg.HallOfFameLimit)
	healthHandler := api.NewHealthHandler(repo, games.Len)
	wsHandler := live.NewWebSocketHandler(games, hub, cfg.FrontendURL, cfg.IsDevelopment(), cfg.Live.WriteTimeout)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	allowedOrigins := []string{"*"}
	if cfg.FrontendURL != "" && !cfg.IsDevelopment() {
		allowedOrigins = strings.Split(cfg.FrontendURL, ",")
	}

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	healthHandler.RegisterHealth(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter))
		gameHandler.RegisterRoutes(r)
		playerHandler.RegisterRoutes(r)
		r.Get("/ws/game", wsHandler.ServeHTTP)
	})

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// WebSocket streams are long-lived, so there is no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	games.StartSweeper(ctx, cfg.SessionSweepInterval, cfg.SessionIdleTTL)
	slog.Info("Idle game sweeper started", "idle_ttl", cfg.SessionIdleTTL, "interval", cfg.SessionSweepInterval)
	limiter.StartEviction(ctx, cfg.SessionSweepInterval, cfg.SessionIdleTTL)

	if cfg.GRPCHealthAddr != "" {
		probeSrv, err := probe.Listen(cfg.GRPCHealthAddr)
		if err != nil {
			slog.Error("Failed to start health probe", "error", err)
			os.Exit(1)
		}
		defer probeSrv.Stop()
		go probeSrv.Watch(ctx, probeInterval, repo.Ping)
	}

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

func runHealthcheck(cfg *config.Config) int {
	addr := cfg.GRPCHealthAddr
	if addr == "" {
		slog.Error("GRPC_HEALTH_ADDR is not set")
		return 1
	}
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := probe.Check(ctx, addr); err != nil {
		slog.Error("Health check failed", "error", err)
		return 1
	}
	return 0
}
