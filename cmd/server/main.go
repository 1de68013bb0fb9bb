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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourorg/jobtracker/internal/events"
	"github.com/yourorg/jobtracker/internal/featureflags"
	"github.com/yourorg/jobtracker/internal/handler"
	"github.com/yourorg/jobtracker/internal/infrastructure/logger"
	"github.com/yourorg/jobtracker/internal/infrastructure/redis"
	"github.com/yourorg/jobtracker/internal/observability/metrics"
	"github.com/yourorg/jobtracker/internal/observability/tracing"
	"github.com/yourorg/jobtracker/internal/reliability/retry"
	"github.com/yourorg/jobtracker/internal/repository"
	"github.com/yourorg/jobtracker/internal/security/audit"
	"github.com/yourorg/jobtracker/internal/security/auth"
	"github.com/yourorg/jobtracker/internal/security/middleware"
	"github.com/yourorg/jobtracker/internal/service"
	"github.com/yourorg/jobtracker/internal/worker"
	"github.com/yourorg/jobtracker/pkg/config"
	"github.com/yourorg/jobtracker/pkg/database"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting JobTracker server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "jobtracker", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("tracing shutdown error", slog.String("error", err.Error()))
		}
	}()

	// 4. Connect to Postgres, retrying while it comes up
	pool, err := retry.Do(ctx, retry.DefaultConfig(), log, "database connect",
		func(ctx context.Context) (*database.ConnectionPool, error) {
			return database.NewConnectionPool(ctx, database.DefaultConfig(cfg.DatabaseURL), log)
		})
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool.GetDB()); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. User cache: Redis when configured, in-process otherwise
	var userCache service.UserCache
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL, cfg.AccessTokenTTL, log)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		userCache = redisClient
	} else {
		userCache = service.NewMemoryUserCache(cfg.AccessTokenTTL)
	}

	// 6. Initialize repositories
	userRepo := repository.NewPostgresUserRepository(pool.GetDB(), log)
	appRepo := repository.NewPostgresApplicationRepository(pool.GetDB(), log)

	// 7. Initialize security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	passwordHasher := auth.NewPasswordHasher(cfg.BcryptCost)

	var auditLogger *audit.Logger
	if featureflags.Enabled("audit") {
		auditLogger = audit.NewLogger(log)
	}

	// 8. Initialize services
	var hub *events.Hub
	if featureflags.Enabled("events") {
		hub = events.NewHub(log)
	}
	authService := service.NewAuthService(userRepo, passwordHasher, tokenManager, userCache, log)
	appService := service.NewApplicationService(appRepo, hub, log)

	// 9. Initialize handlers
	authHandler := handler.NewAuthHandler(authService, auditLogger, log)
	appHandler := handler.NewApplicationHandler(appService, auditLogger, log)
	meHandler := handler.NewMeHandler(log)

	var cachePinger handler.Pinger
	if redisClient != nil {
		cachePinger = redisClient
	}
	healthHandler := handler.NewHealthHandler(pool, cachePinger, log)

	// 10. Setup HTTP routes
	requireAuth := middleware.RequireAuth(authService, auditLogger, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handler.Meta)
	mux.Handle("POST /auth/register", http.HandlerFunc(authHandler.Register))
	mux.Handle("POST /auth/login", http.HandlerFunc(authHandler.Login))
	mux.Handle("GET /me", requireAuth(meHandler))
	mux.Handle("POST /applications", requireAuth(http.HandlerFunc(appHandler.Create)))
	mux.Handle("GET /applications", requireAuth(http.HandlerFunc(appHandler.List)))
	mux.Handle("GET /applications/{id}", requireAuth(http.HandlerFunc(appHandler.Get)))
	mux.Handle("PATCH /applications/{id}", requireAuth(http.HandlerFunc(appHandler.Update)))
	mux.Handle("DELETE /applications/{id}", requireAuth(http.HandlerFunc(appHandler.Delete)))
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	if hub != nil {
		eventsHandler := handler.NewEventsHandler(authService, hub, cfg.CORSAllowedOrigins, log)
		mux.Handle("GET /ws/applications", eventsHandler)
	}

	// Chain middleware: request ID -> metrics -> CORS -> content-type check
	rootHandler := middleware.RequestID(log)(
		metrics.HTTPMetricsMiddleware(
			middleware.CORS(cfg.CORSAllowedOrigins)(
				middleware.ValidateJSONContentType(log)(mux),
			),
		),
	)
	rootHandler = otelhttp.NewHandler(rootHandler, "jobtracker")

	// 11. Start stats worker in background
	statsWorker := worker.NewStatsWorker(userRepo, appRepo, log, time.Minute)
	go statsWorker.Start(ctx)

	// 12. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Bool("events", hub != nil),
		slog.Bool("audit", auditLogger != nil),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop stats worker
	log.Info("server stopped")
}
