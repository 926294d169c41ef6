package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghuser/itemlocations/pkg/cache"
	"github.com/ghuser/itemlocations/pkg/config"
	"github.com/ghuser/itemlocations/pkg/database"
	"github.com/ghuser/itemlocations/pkg/events"
	"github.com/ghuser/itemlocations/pkg/logger"
	"github.com/ghuser/itemlocations/pkg/stream"
	"github.com/ghuser/itemlocations/pkg/telemetry"
	"github.com/ghuser/itemlocations/services/item/application/subscribers"
	"github.com/ghuser/itemlocations/services/item/infrastructure/persistence/postgres"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
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
		os.Exit(1) //nolint:gocritic
	}
	defer redisClient.Close() //nolint:errcheck
	log.Info("redis connected")

	repo := postgres.NewItemRepository(pool)
	errCh, err := eventBus.Subscribe(ctx, cfg.NotificationTopic,
		subscribers.WarmCache(repo, cache.NewItemCache(redisClient), log))
	if err != nil {
		log.Error("failed to subscribe", "topic", cfg.NotificationTopic, "error", err)
		os.Exit(1) //nolint:gocritic
	}
	// Drain subscriber errors in background so the channel never blocks.
	go func() {
		for err := range errCh {
			log.ErrorContext(ctx, "subscriber error", "topic", cfg.NotificationTopic, "error", err)
		}
	}()
	log.Info("event subscribers registered", "topics", []string{cfg.NotificationTopic})

	consumer, err := newStreamConsumer(cfg, redisClient, log)
	if err != nil {
		log.Error("failed to setup audit stream consumer", "driver", cfg.StreamDriver, "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer consumer.Close() //nolint:errcheck

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- consumer.Run(ctx, subscribers.LogAuditRecord(log))
	}()
	log.Info("audit stream consumer started", "driver", cfg.StreamDriver, "stream", cfg.StreamName, "group", cfg.StreamConsumerGroup)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-consumerDone:
		log.Error("audit stream consumer stopped", "error", err)
	}

	log.Info("shutting down worker...")
	cancel()

	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("worker stopped")
}

// newStreamConsumer picks the audit stream transport from STREAM_DRIVER.
func newStreamConsumer(cfg *config.Config, redisClient *cache.RedisClient, log logger.Logger) (stream.Consumer, error) {
	switch cfg.StreamDriver {
	case config.StreamDriverKafka:
		return stream.NewKafkaConsumer(cfg.Brokers(), cfg.StreamName, cfg.StreamConsumerGroup, log)
	case config.StreamDriverRedis:
		host, _ := os.Hostname()
		return stream.NewRedisConsumer(redisClient.Client(), cfg.StreamName, cfg.StreamConsumerGroup, "worker-"+host, log), nil
	default:
		return nil, fmt.Errorf("unknown stream driver %q", cfg.StreamDriver)
	}
}
