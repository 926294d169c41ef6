package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ghuser/itemlocations/pkg/config"
)

const (
	defaultPoolSize = 20
	pingTimeout     = 2 * time.Second
)

// RedisClient owns the Redis pool used by the item cache and, when
// STREAM_DRIVER=redis, by the audit stream.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to cfg.RedisURL and fails fast when Redis does not
// answer a ping.
func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}

	return &RedisClient{client: rdb}, nil
}

// clientOptions keeps command timeouts short: a cache miss is cheaper than a
// slow request, and blocking stream reads extend the read deadline on their own.
func clientOptions(cfg *config.Config) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	opts.PoolSize = cfg.RedisPoolSize
	if opts.PoolSize <= 0 {
		opts.PoolSize = defaultPoolSize
	}
	opts.MinIdleConns = 2
	opts.MaxRetries = 2
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second
	opts.PoolTimeout = 2 * time.Second
	return opts, nil
}

// Ping backs the health endpoint.
func (r *RedisClient) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}

// Client exposes the pool to the stream producer and consumer.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}
