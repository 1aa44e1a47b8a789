package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/engine"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/repository"
	redisrepo "github.com/utafrali/storefront/internal/repository/redis"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

const (
	serviceName = "storefront"

	eventDedupTTL      = 24 * time.Hour
	consumerAttempts   = 5
	consumerBackoff    = 500 * time.Millisecond
	rateLimiterIdleTTL = 3 * time.Minute
)

// Version is stamped at build time.
var Version = "dev"

// Options adjust how the application is assembled.
type Options struct {
	// SkipMigrations leaves the schema alone even when DB_AUTO_MIGRATE is set.
	SkipMigrations bool
	// WithoutConsumer never starts the Kafka index consumer, for one-shot
	// commands.
	WithoutConsumer bool
}

// App wires together all dependencies and runs the storefront server.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry

	repos    *repository.Repositories
	engine   engine.SearchEngine
	redis    *goredis.Client
	producer *pkgkafka.Producer
	consumer *pkgkafka.Consumer
	limiter  *middleware.RateLimiter
	services handler.Services

	httpServer       *http.Server
	shutdownTracing  func(context.Context) error
	shutdownComplete bool
}

// New creates the application, connecting every configured backend. On
// error, whatever was already opened is closed again.
func New(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.closeBackends(context.Background())
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := httpclient.RegisterMetrics(a.registry); err != nil {
		return nil, fmt.Errorf("register breaker metrics: %w", err)
	}

	a.shutdownTracing, err = tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Record store and search index.
	a.repos, err = OpenStore(ctx, cfg, cfg.AutoMigrate && !opts.SkipMigrations, a.registry, logger)
	if err != nil {
		return nil, err
	}
	a.engine, err = OpenEngine(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Token revocation and event deduplication live in Redis when enabled.
	var (
		revoked auth.RevocationList       = auth.NewMemoryRevocationList()
		seen    pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(eventDedupTTL)
	)
	if cfg.RedisEnabled {
		a.redis, err = database.NewRedisClient(ctx, cfg.Redis(), logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		revoked = redisrepo.NewRevocationList(a.redis)
		seen = redisrepo.NewIdempotencyStore(a.redis, eventDedupTTL)
		logger.Info("connected to redis", slog.String("addr", cfg.Redis().Addr()))
	}

	// Services.
	searchMetrics := service.NewMetrics(a.registry)
	indexer := service.NewIndexer(a.repos.Products, a.engine, cfg.ReindexBatchSize, searchMetrics, logger)

	var events service.ProductEvents
	var kafkaMetrics *pkgkafka.Metrics
	if cfg.KafkaEnabled {
		kafkaMetrics = pkgkafka.NewMetrics(a.registry)
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), kafkaMetrics, logger)
		events = event.NewProducer(a.producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	if cfg.KafkaIndexConsumer && !opts.WithoutConsumer {
		consumer := event.NewIndexConsumer(indexer, logger)
		a.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:      cfg.KafkaBrokers,
			GroupID:      cfg.KafkaGroupID,
			Topics:       event.IndexTopics(),
			MaxAttempts:  consumerAttempts,
			RetryBackoff: consumerBackoff,
		}, consumer.Handler(seen, kafkaMetrics), kafkaMetrics, logger)
		logger.Info("kafka index consumer initialized",
			slog.String("group_id", cfg.KafkaGroupID),
			slog.Any("topics", event.IndexTopics()),
		)
	}

	a.services = handler.Services{
		Auth: service.NewAuthService(a.repos.Users, auth.NewJWTManager(cfg.SigningSecret(), cfg.JWTExpiry),
			revoked, cfg.BcryptCost, logger),
		Category: service.NewCategoryService(a.repos.Categories, a.repos.Products, logger),
		Product:  service.NewProductService(a.repos.Products, a.repos.Categories, indexer, events, logger),
		Search: service.NewSearchService(a.repos.Products, a.engine, service.SearchOptions{
			Fuzziness:   cfg.SearchFuzziness,
			MaxResults:  cfg.SearchMaxResults,
			ExactMaxLen: cfg.SearchExactMaxLen,
		}, searchMetrics, logger),
		Indexer: indexer,
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("record_store", a.repos.Ping)
	healthHandler.RegisterNonCritical("search_index", a.engine.Ping)
	if a.redis != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	// HTTP router.
	a.limiter = middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, rateLimiterIdleTTL, logger)
	if err := a.limiter.TrustProxies(cfg.TrustedProxyCIDRs); err != nil {
		return nil, err
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(a.services, healthHandler, handler.Options{
		CORS:           cors,
		CookieSecure:   cfg.CookieSecure,
		CacheMaxAge:    cfg.CacheMaxAge,
		AuthLimiter:    a.limiter,
		HTTPMetrics:    middleware.NewHTTPMetrics(a.registry, serviceName),
		MetricsHandler: promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		Tracing:        cfg.OTELEnabled,
		PprofEnabled:   cfg.PprofEnabled,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
	}, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return a, nil
}

// Handler returns the HTTP handler served by Run.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Services returns the application services, for one-shot commands.
func (a *App) Services() handler.Services {
	return a.services
}

// Run starts the HTTP server and the Kafka index consumer, blocking until
// the context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.limiter.Run(runCtx)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		a.logger.Error("component failed, shutting down", slog.String("error", runErr.Error()))
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops the server and closes every backend in reverse
// order of opening. It is safe to call more than once.
func (a *App) Shutdown() error {
	if a.shutdownComplete {
		return nil
	}
	a.shutdownComplete = true
	a.logger.Info("shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	errs = append(errs, a.closeBackends(ctx)...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeBackends(ctx context.Context) []error {
	var errs []error
	closeWith := func(name string, fn func() error) {
		if err := fn(); err != nil {
			a.logger.Error(name+" close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.consumer != nil {
		closeWith("kafka consumer", a.consumer.Close)
	}
	if a.producer != nil {
		closeWith("kafka producer", a.producer.Close)
	}
	if a.redis != nil {
		closeWith("redis", a.redis.Close)
	}
	if a.repos != nil {
		a.repos.Close()
	}
	if a.shutdownTracing != nil {
		closeWith("tracer", func() error { return a.shutdownTracing(ctx) })
	}
	return errs
}
