package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ghuser/itemlocations/pkg/auth"
	"github.com/ghuser/itemlocations/pkg/logger"
	itemdomain "github.com/ghuser/itemlocations/services/item/domain"
	"github.com/ghuser/itemlocations/services/item/domain/models"
	"github.com/ghuser/itemlocations/services/item/domain/repositories"
	domainsvcs "github.com/ghuser/itemlocations/services/item/domain/services"
)

// ItemCache is the read model consulted by GetByID. A miss is reported as
// redis.Nil.
type ItemCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Item, error)
	Set(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Geocoder resolves a postcode to coordinates.
type Geocoder interface {
	Lookup(ctx context.Context, postcode string) (lat, lon float64, err error)
}

// ItemService orchestrates the item use cases. Create is the only operation
// that dispatches; reads go through the cache when one is configured.
type ItemService struct {
	repo       repositories.ItemRepository
	validator  *domainsvcs.Validator
	dispatcher *Dispatcher
	cache      ItemCache
	geocoder   Geocoder
	log        logger.Logger
	now        func() time.Time
}

// ItemServiceOption configures optional collaborators.
type ItemServiceOption func(*ItemService)

// WithCache enables the read-through cache.
func WithCache(c ItemCache) ItemServiceOption {
	return func(s *ItemService) { s.cache = c }
}

// WithGeocoder fills missing coordinates from the postcode.
func WithGeocoder(g Geocoder) ItemServiceOption {
	return func(s *ItemService) { s.geocoder = g }
}

// NewItemService returns an ItemService.
func NewItemService(repo repositories.ItemRepository, v *domainsvcs.Validator, d *Dispatcher, log logger.Logger, opts ...ItemServiceOption) *ItemService {
	s := &ItemService{repo: repo, validator: v, dispatcher: d, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates doc, stores the item and dispatches it. A failed
// notification still returns the item; a failed stream write removes the
// stored item again and returns a *domain.DispatchError.
func (s *ItemService) Create(ctx context.Context, p *auth.Principal, doc any) (*models.Item, error) {
	item, err := s.validator.Validate(doc)
	if err != nil {
		return nil, err
	}
	item.AssignIdentity(uuid.New(), s.now())

	if !item.HasCoordinates() {
		s.geocode(ctx, item)
	}
	domainsvcs.DeriveLocation(item)

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}

	res := s.dispatcher.Dispatch(ctx, item, p)
	if res.Failed() {
		if err := s.repo.Delete(context.WithoutCancel(ctx), item.ID); err != nil {
			s.log.ErrorContext(ctx, "failed to remove item after stream failure", "item_id", item.ID, "error", err)
		}
		// The notification may already have warmed the cache.
		s.evict(ctx, item.ID)
		return nil, res.Err()
	}
	return item, nil
}

// GetByID reads through the cache. Cache errors other than a miss are logged
// and the repository answers instead.
func (s *ItemService) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "item cache read failed", "item_id", id, "error", err)
		}
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, item); err != nil {
			s.log.WarnContext(ctx, "item cache write failed", "item_id", id, "error", err)
		}
	}
	return item, nil
}

// List returns one page of items, newest first, plus the total count.
func (s *ItemService) List(ctx context.Context, opts repositories.QueryOpts) ([]*models.Item, int, error) {
	items, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	return items, total, nil
}

// Update applies a partial document to an existing item. A new postcode
// without coordinates triggers a fresh lookup; new coordinates recompute the
// derived direction unless the document sets one.
func (s *ItemService) Update(ctx context.Context, id uuid.UUID, doc any) (*models.Item, error) {
	patch, err := s.validator.ValidatePartial(doc)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		s.log.DebugContext(ctx, "empty patch, touching updatedAt only", "item_id", id)
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	postcodeChanged := patch.Postcode != nil && *patch.Postcode != item.Postcode
	item.Apply(patch, s.now())
	if (patch.Latitude != nil || patch.Longitude != nil) && patch.DirectionFromReference == nil {
		item.DirectionFromReference = nil
	}
	if postcodeChanged && !item.HasCoordinates() {
		s.geocode(ctx, item)
	}
	domainsvcs.DeriveLocation(item)

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	s.evict(ctx, id)
	return item, nil
}

// Delete removes an item. Returns domain.ErrItemNotFound when absent.
func (s *ItemService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, itemdomain.ErrItemNotFound) {
			return err
		}
		return fmt.Errorf("delete item: %w", err)
	}
	s.evict(ctx, id)
	return nil
}

func (s *ItemService) geocode(ctx context.Context, item *models.Item) {
	if s.geocoder == nil {
		return
	}
	lat, lon, err := s.geocoder.Lookup(ctx, item.Postcode)
	if err != nil {
		s.log.WarnContext(ctx, "postcode lookup failed, continuing without coordinates",
			"postcode", item.Postcode, "error", err)
		return
	}
	item.Latitude, item.Longitude = &lat, &lon
}

func (s *ItemService) evict(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(context.WithoutCancel(ctx), id); err != nil {
		s.log.WarnContext(ctx, "item cache evict failed", "item_id", id, "error", err)
	}
}
