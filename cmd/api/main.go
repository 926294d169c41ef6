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

	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	_ "github.com/ghuser/itemlocations/docs/swagger"
	"github.com/ghuser/itemlocations/pkg/app"
	"github.com/ghuser/itemlocations/pkg/auth"
	"github.com/ghuser/itemlocations/pkg/cache"
	"github.com/ghuser/itemlocations/pkg/config"
	"github.com/ghuser/itemlocations/pkg/database"
	"github.com/ghuser/itemlocations/pkg/events"
	"github.com/ghuser/itemlocations/pkg/httpx"
	"github.com/ghuser/itemlocations/pkg/logger"
	"github.com/ghuser/itemlocations/pkg/stream"
	"github.com/ghuser/itemlocations/pkg/telemetry"
	itemApi "github.com/ghuser/itemlocations/services/item/application/api"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	slog.SetDefault(log.ToSlog())

	// Telemetry: OTel tracing + metrics
	ctx := context.Background()
	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	// Crash reporting: Sentry (optional, log and continue on failure)
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
	}
	defer pool.Close() //nolint:errcheck
	log.Info("database pool connected")

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure
	}
	defer redisClient.Close() //nolint:errcheck
	log.Info("redis connected")

	producer, err := newStreamProducer(cfg, redisClient, log)
	if err != nil {
		log.Error("failed to setup event stream", "error", err, "driver", cfg.StreamDriver)
		os.Exit(1) //nolint:gocritic
	}
	defer producer.Close() //nolint:errcheck
	log.Info("event stream ready", "driver", cfg.StreamDriver, "stream", cfg.StreamName)

	authorizer, err := newAuthorizer(ctx, cfg)
	if err != nil {
		log.Error("failed to setup authorizer", "error", err, "mode", cfg.AuthMode)
		os.Exit(1) //nolint:gocritic
	}

	apiMetrics, err := telemetry.NewAPIMetrics(otel.GetMeterProvider())
	if err != nil {
		log.Error("failed to create api metrics", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	observer, err := telemetry.NewDispatchObserver(otel.GetMeterProvider())
	if err != nil {
		log.Error("failed to create dispatch metrics", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	appConfig := &app.Application{
		Config:           cfg,
		Db:               pool,
		Logger:           log,
		EventBus:         eventBus,
		Redis:            redisClient,
		Stream:           producer,
		Authorizer:       authorizer,
		Metrics:          apiMetrics,
		DispatchObserver: observer,
	}

	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		},
		logger.Middleware(log),
		logger.Recovery(log),
		telemetry.SentryMiddleware(),
		otelhttp.NewMiddleware(cfg.ServiceName),
	)

	r.Get("/health", httpx.HealthHandler(httpx.HealthChecks{
		Database:      pool,
		Redis:         redisClient,
		Notifications: eventBus,
		Stream:        producer,
	}))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	if err := itemApi.ItemRoutes(r, appConfig); err != nil {
		log.Error("failed to register item routes", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	srv := httpx.NewServer(cfg.HTTPAddr, r)

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// newStreamProducer picks the audit stream transport from STREAM_DRIVER.
func newStreamProducer(cfg *config.Config, redisClient *cache.RedisClient, log logger.Logger) (stream.Producer, error) {
	switch cfg.StreamDriver {
	case config.StreamDriverKafka:
		return stream.NewKafkaProducer(cfg.Brokers(), cfg.StreamName, log)
	case config.StreamDriverRedis:
		return stream.NewRedisProducer(redisClient.Client(), cfg.StreamName, cfg.StreamMaxLen), nil
	default:
		return nil, fmt.Errorf("unknown stream driver %q", cfg.StreamDriver)
	}
}

// newAuthorizer builds the bearer token verifier from AUTH_MODE.
func newAuthorizer(ctx context.Context, cfg *config.Config) (*auth.Authorizer, error) {
	var verifier auth.Verifier
	switch cfg.AuthMode {
	case config.AuthModeOIDC:
		v, err := auth.NewOIDCVerifier(ctx, auth.OIDCConfig{
			IssuerURL: cfg.AuthIssuerURL,
			JWKSURL:   cfg.AuthJWKSURL,
			Audience:  cfg.AuthAudience,
		})
		if err != nil {
			return nil, err
		}
		verifier = v
	case config.AuthModeHS256:
		v, err := auth.NewHS256Verifier(cfg.AuthHS256Secret, cfg.AuthAudience, cfg.AuthIssuerURL)
		if err != nil {
			return nil, err
		}
		verifier = v
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
	return auth.NewAuthorizer(verifier, cfg.AuthTimeout), nil
}
