// Package subscribers holds the worker-side handlers for item events: the
// notification subscriber that warms the read-model cache and the audit
// stream consumer that records every ingested item.
package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ghuser/itemlocations/pkg/logger"
	"github.com/ghuser/itemlocations/pkg/stream"
	itemdomain "github.com/ghuser/itemlocations/services/item/domain"
	"github.com/ghuser/itemlocations/services/item/domain/events"
	"github.com/ghuser/itemlocations/services/item/domain/models"
	"github.com/ghuser/itemlocations/services/item/infrastructure/auditstream"
)

// ItemReader loads an item by id.
type ItemReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
}

// CacheWriter stores an item in the read model.
type CacheWriter interface {
	Set(ctx context.Context, item *models.Item) error
}

// WarmCache returns a handler for item.created notifications. The
// notification only identifies the item, so the handler loads it and writes
// it to the cache. Returning an error makes the event bus retry, so only
// repository failures are returned.
func WarmCache(repo ItemReader, c CacheWriter, log logger.Logger) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var n events.ItemCreatedNotification
		if err := json.Unmarshal(msg.Payload, &n); err != nil {
			log.WarnContext(ctx, "malformed item.created notification, skipping",
				"message_id", msg.UUID, "error", err)
			return nil
		}

		item, err := repo.GetByID(ctx, n.ItemID)
		if errors.Is(err, itemdomain.ErrItemNotFound) {
			// Removed after a failed stream write, or deleted since.
			log.InfoContext(ctx, "item gone before cache warm", "item_id", n.ItemID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load item %s: %w", n.ItemID, err)
		}

		if err := c.Set(ctx, item); err != nil {
			log.WarnContext(ctx, "cache warm failed for item.created",
				"item_id", n.ItemID, "error", err)
			return nil
		}
		log.InfoContext(ctx, "cache warmed", "item_id", n.ItemID, "event_id", n.EventID)
		return nil
	}
}

// LogAuditRecord returns a stream handler that logs each audit record.
// Malformed records are logged and skipped so they never block the stream.
func LogAuditRecord(log logger.Logger) stream.Handler {
	return func(ctx context.Context, rec *stream.Record) error {
		audit, err := auditstream.Decode(rec.Value)
		if err != nil {
			log.WarnContext(ctx, "malformed audit record, skipping",
				"topic", rec.Topic, "key", rec.Key, "error", err)
			return nil
		}
		log.InfoContext(ctx, "audit record",
			"event_id", audit.EventID,
			"action", audit.Action,
			"subject", audit.Subject,
			"item_id", audit.Item.ID,
			"postcode", audit.Item.Postcode,
			"occurred_at", audit.OccurredAt,
		)
		return nil
	}
}
