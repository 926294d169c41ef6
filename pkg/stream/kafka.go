package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/ghuser/itemlocations/pkg/logger"
)

// KafkaProducer appends records to a Kafka topic. The record key picks the
// partition, so records sharing a key stay ordered.
type KafkaProducer struct {
	client *kgo.Client
	topic  string
}

// NewKafkaProducer creates a producer for topic. No connection is made until
// the first Append or Ping.
func NewKafkaProducer(brokers []string, topic string, log logger.Logger) (*KafkaProducer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("stream: kafka brokers are required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.WithLogger(&kgoLogger{log: log}),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("stream: kafka client: %w", err)
	}
	return &KafkaProducer{client: client, topic: topic}, nil
}

// Append produces rec and waits for the broker acknowledgement.
func (p *KafkaProducer) Append(ctx context.Context, rec Record) error {
	topic := rec.Topic
	if topic == "" {
		topic = p.topic
	}
	kr := &kgo.Record{Topic: topic, Key: []byte(rec.Key), Value: rec.Value}
	if err := p.client.ProduceSync(ctx, kr).FirstErr(); err != nil {
		return classifyKafkaError(err)
	}
	return nil
}

// classifyKafkaError wraps broker error codes with ErrRejected.
func classifyKafkaError(err error) error {
	var kErr *kerr.Error
	if errors.As(err, &kErr) {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return fmt.Errorf("stream: kafka produce: %w", err)
}

// Ping checks that at least one broker answers.
func (p *KafkaProducer) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("stream: kafka ping: %w", err)
	}
	return nil
}

// Close flushes nothing; Append is synchronous.
func (p *KafkaProducer) Close() error {
	p.client.Close()
	return nil
}

// KafkaConsumer reads a topic as part of a consumer group and commits offsets
// after each polled batch has been handled.
type KafkaConsumer struct {
	client *kgo.Client
	log    logger.Logger
}

// NewKafkaConsumer joins group and subscribes to topic.
func NewKafkaConsumer(brokers []string, topic, group string, log logger.Logger) (*KafkaConsumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("stream: kafka brokers are required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.WithLogger(&kgoLogger{log: log}),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("stream: kafka consumer client: %w", err)
	}
	return &KafkaConsumer{client: client, log: log}, nil
}

// Run polls until ctx is cancelled or the client is closed.
func (c *KafkaConsumer) Run(ctx context.Context, h Handler) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.log.ErrorContext(ctx, "stream: kafka fetch failed",
				"topic", topic, "partition", partition, "error", err)
		})
		fetches.EachRecord(func(r *kgo.Record) {
			rec := &Record{Topic: r.Topic, Key: string(r.Key), Value: r.Value}
			if err := h(ctx, rec); err != nil {
				c.log.WarnContext(ctx, "stream: handler failed, skipping record",
					"topic", r.Topic, "partition", r.Partition, "offset", r.Offset, "error", err)
			}
		})
		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.log.ErrorContext(ctx, "stream: kafka commit failed", "error", err)
		}
	}
}

// Close leaves the group and closes the client.
func (c *KafkaConsumer) Close() error {
	c.client.Close()
	return nil
}

// kgoLogger bridges logger.Logger to kgo.Logger. Client chatter below warn
// is dropped.
type kgoLogger struct{ log logger.Logger }

func (l *kgoLogger) Level() kgo.LogLevel { return kgo.LogLevelWarn }

func (l *kgoLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	switch level {
	case kgo.LogLevelError:
		l.log.Error("kafka: "+msg, keyvals...)
	case kgo.LogLevelWarn:
		l.log.Warn("kafka: "+msg, keyvals...)
	case kgo.LogLevelInfo:
		l.log.Info("kafka: "+msg, keyvals...)
	default:
		l.log.Debug("kafka: "+msg, keyvals...)
	}
}
