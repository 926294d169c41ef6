package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/itemlocations/services/item/domain/models"
)

// QueryOpts contains pagination parameters for list queries.
type QueryOpts struct {
	Limit  int // Maximum number of records to return
	Offset int // Number of records to skip
}

// ItemRepository is the persistence interface for the Item aggregate.
// The domain layer owns this interface; infrastructure implements it.
type ItemRepository interface {
	Save(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// List retrieves a page of items, newest first.
	// Returns the items slice and the total count (ignoring pagination).
	List(ctx context.Context, opts QueryOpts) ([]*models.Item, int, error)

	// Update persists changes to an existing Item.
	// Returns ErrItemNotFound if the item no longer exists.
	Update(ctx context.Context, item *models.Item) error

	// Delete removes an item by ID. Returns ErrItemNotFound if nothing was deleted.
	Delete(ctx context.Context, id uuid.UUID) error
}
