package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/V4T54L/waste-watch/internal/adapter/api"
	"github.com/V4T54L/waste-watch/internal/adapter/api/middleware"
	"github.com/V4T54L/waste-watch/internal/adapter/identity"
	"github.com/V4T54L/waste-watch/internal/adapter/metrics"
	mongostore "github.com/V4T54L/waste-watch/internal/adapter/repository/mongo"
	"github.com/V4T54L/waste-watch/internal/adapter/repository/postgres"
	redisrepo "github.com/V4T54L/waste-watch/internal/adapter/repository/redis"
	"github.com/V4T54L/waste-watch/internal/domain"
	"github.com/V4T54L/waste-watch/internal/pkg/config"
	"github.com/V4T54L/waste-watch/internal/pkg/logger"
	"github.com/V4T54L/waste-watch/internal/pkg/tracing"
	"github.com/V4T54L/waste-watch/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel, cfg.RedactFields())
	slog.SetDefault(logger)

	m := metrics.NewDashboardMetrics(prometheus.DefaultRegisterer)

	// --- Start Admin and Metrics Server ---
	adminServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: api.NewAdminRouter(prometheus.DefaultGatherer),
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Tracing ---
	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{Endpoint: cfg.OtelEndpoint, Service: cfg.OtelServiceName})
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	if cfg.OtelEndpoint != "" {
		logger.Info("exporting traces", "endpoint", cfg.OtelEndpoint)
	}

	// --- Store Connections ---
	mongoClient, err := mongostore.Connect(ctx, cfg.Store.MongoURI, logger)
	if err != nil {
		logger.Error("failed to connect to mongo", "error", err)
		os.Exit(1)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			logger.Warn("mongo disconnect failed", "error", err)
		}
	}()
	db := mongoClient.Database(cfg.Store.MongoDB)
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		logger.Warn("could not ensure mongo indexes", "error", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// --- Initialize Repositories ---
	var admins domain.AdminRepository = mongostore.NewAdminRepository(db)
	if cfg.Store.AdminSource == config.AdminSourcePostgres {
		pg, err := sql.Open("postgres", cfg.Store.PostgresURL)
		if err != nil {
			logger.Error("failed to open postgres connection", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		if err := pg.PingContext(ctx); err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		pgAdmins := postgres.NewAdminRepository(pg, logger, cfg.AdminCacheTTL, m)
		if err := pgAdmins.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare admin allowlist table", "error", err)
			os.Exit(1)
		}
		admins = pgAdmins
	}
	logger.Info("admin allowlist source", "source", cfg.Store.AdminSource)

	provider := identity.NewProvider(
		mongostore.NewIdentityRepository(db),
		redisrepo.NewSessionRepository(redisClient, logger),
		logger,
		identity.Options{Secret: cfg.JWTSecret, SessionTTL: cfg.SessionTTL},
	)

	// --- Initialize Use Cases ---
	gate := usecase.NewSessionGate(provider, admins, mongostore.NewProfileRepository(db), logger, m)
	enricher := usecase.NewEnricher(mongostore.NewReferenceRepository(db), logger, m)
	pager := usecase.NewLogPager(mongostore.NewWasteLogRepository(db, logger), enricher, logger, m, usecase.PagerOptions{
		Retries:      cfg.FetchRetries,
		RetryBackoff: cfg.FetchRetryBackoff,
	})
	viewers := usecase.NewViewerRegistry(pager, logger, m, cfg.SessionTTL)
	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.SignInRate), cfg.SignInBurst)

	// --- Initialize API Server ---
	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(cfg, logger, gate, pager, viewers, limiter),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting dashboard api server", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("dashboard api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("trace exporter shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
