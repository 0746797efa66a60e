package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/arunika-studio/backend-arunika/internal/app"
	"github.com/arunika-studio/backend-arunika/internal/catalog"
	"github.com/arunika-studio/backend-arunika/internal/config"
	"github.com/arunika-studio/backend-arunika/internal/jobs"
	"github.com/arunika-studio/backend-arunika/internal/obs"
	"github.com/arunika-studio/backend-arunika/internal/order"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := app.NewPool(initCtx, cfg, "arunika-worker")
	initCancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Store:  catalog.NewPGStore(pool),
		Cache:  catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		Logger: logger.With().Str("component", "catalog").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}

	orderService, err := order.NewService(order.ServiceConfig{
		Store:   order.NewPGStore(pool),
		Catalog: catalogService,
		Logger:  logger.With().Str("component", "order").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise order service")
	}

	asynqOpt, err := app.AsynqRedisOpt(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse asynq redis options")
	}
	srv := asynq.NewServer(asynqOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
	})

	mux := asynq.NewServeMux()
	mux.Handle(jobs.TypeRepriceOrders, jobs.NewRepriceHandler(orderService, logger))

	go func() {
		<-ctx.Done()
		logger.Info().Msg("worker shutting down")
		srv.Shutdown()
	}()

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
