// Package auditstream appends item audit records to the event stream.
package auditstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/itemlocations/pkg/stream"
	itemdomain "github.com/ghuser/itemlocations/services/item/domain"
	"github.com/ghuser/itemlocations/services/item/domain/events"
)

// SinkName labels errors from this sink.
const SinkName = "stream"

// Appender is satisfied by stream.KafkaProducer and stream.RedisProducer.
type Appender interface {
	Append(ctx context.Context, rec stream.Record) error
}

// Sink writes ItemAuditRecord values as JSON keyed by postcode.
type Sink struct {
	out Appender
}

// NewSink returns a Sink writing to out.
func NewSink(out Appender) *Sink {
	return &Sink{out: out}
}

// Append writes rec and maps transport failures to SinkError kinds.
func (s *Sink) Append(ctx context.Context, rec events.ItemAuditRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return &itemdomain.SinkError{Sink: SinkName, Kind: itemdomain.SinkRejected, Err: fmt.Errorf("encode: %w", err)}
	}
	if err := s.out.Append(ctx, stream.Record{Key: rec.PartitionKey(), Value: value}); err != nil {
		return &itemdomain.SinkError{Sink: SinkName, Kind: kindOf(err), Err: err}
	}
	return nil
}

func kindOf(err error) itemdomain.SinkErrorKind {
	switch {
	case errors.Is(err, stream.ErrRejected):
		return itemdomain.SinkRejected
	case errors.Is(err, context.DeadlineExceeded):
		return itemdomain.SinkTimeout
	default:
		return itemdomain.SinkUnavailable
	}
}

// Decode parses a consumed stream value back into an audit record.
func Decode(value []byte) (*events.ItemAuditRecord, error) {
	var rec events.ItemAuditRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("decode audit record: %w", err)
	}
	if rec.EventID == uuid.Nil {
		return nil, errors.New("decode audit record: missing event_id")
	}
	return &rec, nil
}
