// Package stream appends records to an ordered event stream and consumes them
// back. Two transports exist: Kafka (franz-go) and Redis Streams (go-redis).
//
// Records with the same Key keep their relative order. Producers report a
// record the broker refused with an error wrapping ErrRejected; any other
// error means the broker could not be reached or did not answer in time.
package stream

import (
	"context"
	"errors"
)

// ErrRejected marks an append the broker received and refused.
var ErrRejected = errors.New("stream: record rejected")

// Record is one entry on the stream.
type Record struct {
	Topic string
	Key   string
	Value []byte
}

// Handler processes one consumed record. Returning an error is logged; the
// record is still committed so a poison record never blocks the stream.
type Handler func(ctx context.Context, rec *Record) error

// Producer appends records to a stream.
type Producer interface {
	Append(ctx context.Context, rec Record) error
	Ping(ctx context.Context) error
	Close() error
}

// Consumer delivers records to a Handler until ctx is cancelled.
type Consumer interface {
	Run(ctx context.Context, h Handler) error
	Close() error
}
