package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/assets"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/auth"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/config"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/event"
	handler "github.com/Mdsakib999/cloud-kitchen-server/internal/handler/http"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository/postgres"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/service"
	"github.com/Mdsakib999/cloud-kitchen-server/migrations"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/database"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/health"
	pkgkafka "github.com/Mdsakib999/cloud-kitchen-server/pkg/kafka"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/tracing"
)

// App wires together all dependencies and runs the cloud kitchen server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	cache          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "cloud-kitchen",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSample,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.PostgresConfig()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "cloud-kitchen")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThreshold > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	}

	// Redis backs the trending product cache. The server stays up without
	// it; every trending request just recomputes the ranking.
	cache, err := database.NewRedisClient(ctx, cfg.RedisConfig())
	if err != nil {
		logger.Warn("redis unavailable, trending cache disabled",
			slog.String("error", err.Error()),
		)
		cache = nil
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Token issuing and federated token verification.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	keyfunc, err := federatedKeyfunc(cfg.FederatedSigningKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parse federated signing key: %w", err)
	}
	verifier := auth.NewIDTokenVerifier(cfg.FederatedIssuer, cfg.FederatedAudience, keyfunc)

	// Uploaded images live on the external asset host.
	store := assets.NewHTTPStore(cfg.AssetHostURL, cfg.AssetHostAPIKey, logger)

	// Build the dependency graph.
	userRepo := postgres.NewUserRepository(pool)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	promotionRepo := postgres.NewPromotionRepository(pool)
	blogRepo := postgres.NewBlogRepository(pool)

	eventProducer := event.NewProducer(producer, logger)

	couponService := service.NewCouponService(couponRepo, logger)
	svcs := handler.Services{
		Auth:       service.NewAuthService(userRepo, refreshTokenRepo, jwtManager, verifier, eventProducer, logger),
		Users:      service.NewUserService(userRepo, store, logger),
		Categories: service.NewCategoryService(categoryRepo, store, logger),
		Products:   service.NewProductService(productRepo, categoryRepo, store, eventProducer, logger),
		Coupons:    couponService,
		Orders:     service.NewOrderService(orderRepo, userRepo, couponService, eventProducer, logger),
		Trending:   service.NewTrendingService(orderRepo, productRepo, cache, cfg.TrendingCacheTTL, logger),
		Reviews:    service.NewReviewService(reviewRepo, orderRepo, productRepo, eventProducer, logger),
		Promotions: service.NewPromotionService(promotionRepo, store, logger),
		Blogs:      service.NewBlogService(blogRepo, store, logger),
	}

	// Health checks.
	// Postgres is the only hard dependency. Kafka and Redis outages degrade
	// the service but must not take it out of rotation.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	if cache != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return cache.Ping(ctx).Err()
		})
	}

	// HTTP router.
	router := handler.NewRouter(svcs, jwtManager, healthHandler, logger, cfg.PprofAllowedCIDRs)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		cache:          cache,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 4. Close Redis client.
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 5. Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// federatedKeyfunc builds the key resolver used to check federated ID token
// signatures. Without a configured key every verification fails, which keeps
// federated sign-in disabled rather than accepting unverified tokens.
func federatedKeyfunc(pemKey string) (jwt.Keyfunc, error) {
	if pemKey == "" {
		return func(*jwt.Token) (any, error) {
			return nil, errors.New("federated sign-in is not configured")
		}, nil
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, err
	}
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return key, nil
	}, nil
}
