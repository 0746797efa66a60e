package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/arunika-studio/backend-arunika/internal/app"
	"github.com/arunika-studio/backend-arunika/internal/auth"
	"github.com/arunika-studio/backend-arunika/internal/catalog"
	"github.com/arunika-studio/backend-arunika/internal/common"
	"github.com/arunika-studio/backend-arunika/internal/config"
	"github.com/arunika-studio/backend-arunika/internal/health"
	"github.com/arunika-studio/backend-arunika/internal/jobs"
	"github.com/arunika-studio/backend-arunika/internal/obs"
	"github.com/arunika-studio/backend-arunika/internal/order"
	"github.com/arunika-studio/backend-arunika/internal/quote"
	"github.com/arunika-studio/backend-arunika/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "arunika")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "arunika-api",
			Endpoint:      cfg.OTLPEndpoint,
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: cfg.TraceSampleRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := app.NewPool(ctx, cfg, "arunika-api")
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()

	if err := app.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	pingCancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Store:          catalog.NewPGStore(pool),
		Cache:          catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		Logger:         logger.With().Str("component", "catalog").Logger(),
		StrictRateKeys: cfg.StrictRateKeys,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = catalogService.ValidateRateKeys(startupCtx)
	if err == nil {
		err = catalogService.ValidateAddonGraph(startupCtx)
	}
	startupCancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("validate catalog")
	}

	asynqOpt, err := app.AsynqRedisOpt(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse asynq redis options")
	}
	taskClient := asynq.NewClient(asynqOpt)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()
	enqueuer := jobs.NewEnqueuer(taskClient, logger.With().Str("component", "jobs").Logger())

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{
		Service: catalogService,
		Reprice: func(r *http.Request) error {
			return enqueuer.EnqueueRepriceAll(r.Context())
		},
		Logger: logger.With().Str("component", "catalog").Logger(),
	})

	validate := app.NewValidator()
	quoteHandler := quote.NewHandler(quote.HandlerConfig{
		Catalog:   catalogService,
		Validator: validate,
		Logger:    logger.With().Str("component", "quote").Logger(),
	})

	orderService, err := order.NewService(order.ServiceConfig{
		Store:   order.NewPGStore(pool),
		Catalog: catalogService,
		Logger:  logger.With().Str("component", "order").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise order service")
	}
	orderHandler := order.NewHandler(orderService)

	authService, err := auth.NewService(auth.Config{
		Store:          auth.NewPGStaffStore(pool),
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := auth.NewHandler(authService)
	authMiddleware := auth.Middleware{Service: authService}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	quoteLimiter, err := app.NewRateLimiter(redisClient, cfg.QuoteRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise quote rate limiter")
	}
	quoteLimit := mhttp.NewMiddleware(quoteLimiter)

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    500 * time.Millisecond,
		RedisTimeout: 300 * time.Millisecond,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Post("/auth/login", authHandler.Login)

		v.Get("/catalog/products", catalogHandler.Products)
		v.Get("/catalog/products/{id}", catalogHandler.ProductDetail)
		v.Get("/catalog/rates", catalogHandler.Rates)

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Put("/rates", catalogHandler.UpdateRates)
		})

		v.With(quoteLimit.Handler).Post("/quote", quoteHandler.Quote)

		v.Route("/orders", func(o chi.Router) {
			o.Use(authMiddleware.RequireAuth)
			o.Get("/", orderHandler.List)
			o.With(idem.Middleware).Post("/", orderHandler.Create)
			o.Route("/{orderId}", func(child chi.Router) {
				child.Get("/", orderHandler.Get)
				child.Patch("/", orderHandler.Update)
				child.Delete("/", orderHandler.Delete)
				child.Get("/billing", orderHandler.Billing)
				child.Group(func(g chi.Router) {
					g.Use(idem.Middleware)
					g.Post("/deliverables", orderHandler.AddDeliverable)
					g.Patch("/deliverables/{deliverableId}", orderHandler.UpdateDeliverable)
					g.Delete("/deliverables/{deliverableId}", orderHandler.RemoveDeliverable)
					g.Post("/activate", orderHandler.Activate)
				})
			})
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		health.SetReady(false)
		drainCtx, drainCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer drainCancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
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

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}
