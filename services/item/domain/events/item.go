package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/itemlocations/services/item/domain/models"
)

// TopicItemCreated is the default notification topic for created items.
const TopicItemCreated = "item.created"

// ActionItemCreated labels audit records written on create.
const ActionItemCreated = "item.created"

// EventVersion is the payload schema version; increment on breaking changes.
const EventVersion = 1

// ItemCreatedNotification is the advisory message fanned out to subscribers.
// It carries enough to identify the item; consumers load the rest.
type ItemCreatedNotification struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	ItemID     uuid.UUID `json:"item_id"`
	Name       string    `json:"name"`
	Postcode   string    `json:"postcode"`
	Direction  string    `json:"direction,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ItemAuditRecord is appended to the event stream. It holds the full item and
// the subject of the principal that created it.
type ItemAuditRecord struct {
	EventID    uuid.UUID   `json:"event_id"`
	Version    int         `json:"version"`
	Action     string      `json:"action"`
	Subject    string      `json:"subject"`
	Email      string      `json:"email,omitempty"`
	Item       models.Item `json:"item"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// PartitionKey orders records per postcode.
func (r *ItemAuditRecord) PartitionKey() string {
	return r.Item.Postcode
}

// NewItemCreatedNotification builds the notification for item.
func NewItemCreatedNotification(eventID uuid.UUID, item *models.Item, at time.Time) ItemCreatedNotification {
	n := ItemCreatedNotification{
		EventID:    eventID,
		Version:    EventVersion,
		ItemID:     item.ID,
		Name:       item.Name.String(),
		Postcode:   item.Postcode,
		OccurredAt: at.UTC(),
	}
	if item.DirectionFromReference != nil {
		n.Direction = string(*item.DirectionFromReference)
	}
	return n
}

// NewItemAuditRecord builds the audit record for item created by subject.
func NewItemAuditRecord(eventID uuid.UUID, item *models.Item, subject, email string, at time.Time) ItemAuditRecord {
	return ItemAuditRecord{
		EventID:    eventID,
		Version:    EventVersion,
		Action:     ActionItemCreated,
		Subject:    subject,
		Email:      email,
		Item:       *item,
		OccurredAt: at.UTC(),
	}
}
