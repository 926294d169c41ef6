package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ghuser/itemlocations/pkg/logger"
)

const (
	redisKeyField  = "key"
	redisDataField = "data"
	redisReadCount = 100
	redisBlock     = 5 * time.Second
)

// RedisProducer appends records to a Redis stream with XADD. The stream is a
// single ordered log, so per-key order always holds.
type RedisProducer struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisProducer writes to stream, trimming it to roughly maxLen entries
// when maxLen is positive. The client is owned by the caller.
func NewRedisProducer(client *redis.Client, stream string, maxLen int64) *RedisProducer {
	return &RedisProducer{client: client, stream: stream, maxLen: maxLen}
}

// Append adds rec to the stream.
func (p *RedisProducer) Append(ctx context.Context, rec Record) error {
	name := rec.Topic
	if name == "" {
		name = p.stream
	}
	args := &redis.XAddArgs{
		Stream: name,
		Values: map[string]any{redisKeyField: rec.Key, redisDataField: rec.Value},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return classifyRedisError(err)
	}
	return nil
}

// classifyRedisError wraps server error replies with ErrRejected.
func classifyRedisError(err error) error {
	var rErr redis.Error
	if errors.As(err, &rErr) && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return fmt.Errorf("stream: redis xadd: %w", err)
}

// Ping checks the Redis connection.
func (p *RedisProducer) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("stream: redis ping: %w", err)
	}
	return nil
}

// Close is a no-op; the client belongs to the caller.
func (p *RedisProducer) Close() error { return nil }

// RedisConsumer reads a Redis stream through a consumer group and acknowledges
// each entry once handled.
type RedisConsumer struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	log      logger.Logger
}

// NewRedisConsumer reads stream as consumer within group.
func NewRedisConsumer(client *redis.Client, stream, group, consumer string, log logger.Logger) *RedisConsumer {
	return &RedisConsumer{client: client, stream: stream, group: group, consumer: consumer, log: log}
}

// Run creates the group if needed and reads until ctx is cancelled.
func (c *RedisConsumer) Run(ctx context.Context, h Handler) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("stream: create group %s: %w", c.group, err)
	}

	for {
		res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.consumer,
			Streams:  []string{c.stream, ">"},
			Count:    redisReadCount,
			Block:    redisBlock,
		}).Result()
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			c.log.ErrorContext(ctx, "stream: redis read failed", "stream", c.stream, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		for _, s := range res {
			for _, msg := range s.Messages {
				c.handle(ctx, h, s.Stream, msg)
			}
		}
	}
}

func (c *RedisConsumer) handle(ctx context.Context, h Handler, name string, msg redis.XMessage) {
	defer func() {
		if err := c.client.XAck(ctx, name, c.group, msg.ID).Err(); err != nil && ctx.Err() == nil {
			c.log.ErrorContext(ctx, "stream: redis ack failed", "id", msg.ID, "error", err)
		}
	}()

	rec, err := recordFromRedis(name, msg)
	if err != nil {
		c.log.WarnContext(ctx, "stream: malformed redis entry, skipping", "id", msg.ID, "error", err)
		return
	}
	if err := h(ctx, rec); err != nil {
		c.log.WarnContext(ctx, "stream: handler failed, skipping record", "id", msg.ID, "error", err)
	}
}

func recordFromRedis(name string, msg redis.XMessage) (*Record, error) {
	data, ok := msg.Values[redisDataField].(string)
	if !ok {
		return nil, fmt.Errorf("entry has no %q field", redisDataField)
	}
	key, _ := msg.Values[redisKeyField].(string)
	return &Record{Topic: name, Key: key, Value: []byte(data)}, nil
}

// Close is a no-op; the client belongs to the caller.
func (c *RedisConsumer) Close() error { return nil }
