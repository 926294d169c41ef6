// Package notify publishes item notifications to the pub/sub topic.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"

	itemdomain "github.com/ghuser/itemlocations/services/item/domain"
	"github.com/ghuser/itemlocations/services/item/domain/events"
)

// SinkName labels errors from this sink.
const SinkName = "notification"

// Publisher is the subset of events.EventBus the sink needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// Sink publishes ItemCreatedNotification messages on a topic.
type Sink struct {
	pub   Publisher
	topic string
}

// NewSink returns a Sink publishing on topic.
func NewSink(pub Publisher, topic string) *Sink {
	return &Sink{pub: pub, topic: topic}
}

// Publish sends n. The message UUID is the event id so subscribers can dedupe.
func (s *Sink) Publish(ctx context.Context, n events.ItemCreatedNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return &itemdomain.SinkError{Sink: SinkName, Kind: itemdomain.SinkRejected, Err: fmt.Errorf("encode: %w", err)}
	}
	msg := message.NewMessage(n.EventID.String(), payload)
	msg.Metadata.Set("event_version", strconv.Itoa(n.Version))
	msg.Metadata.Set("item_id", n.ItemID.String())

	if err := s.pub.Publish(ctx, s.topic, msg); err != nil {
		kind := itemdomain.SinkUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			kind = itemdomain.SinkTimeout
		}
		return &itemdomain.SinkError{Sink: SinkName, Kind: kind, Err: err}
	}
	return nil
}
