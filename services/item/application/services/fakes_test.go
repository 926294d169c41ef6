package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	itemdomain "github.com/ghuser/itemlocations/services/item/domain"
	"github.com/ghuser/itemlocations/services/item/domain/events"
	"github.com/ghuser/itemlocations/services/item/domain/models"
	"github.com/ghuser/itemlocations/services/item/domain/repositories"
)

type fakeNotifications struct {
	mu    sync.Mutex
	err   error
	block bool
	got   []events.ItemCreatedNotification
}

func (f *fakeNotifications) Publish(ctx context.Context, n events.ItemCreatedNotification) error {
	if f.block {
		<-make(chan struct{})
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, n)
	return f.err
}

type fakeStream struct {
	mu      sync.Mutex
	err     error
	waitCtx bool
	got     []events.ItemAuditRecord
	// onAppend runs before the result is returned.
	onAppend func(rec events.ItemAuditRecord)
}

func (f *fakeStream) Append(ctx context.Context, rec events.ItemAuditRecord) error {
	if f.waitCtx {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.onAppend != nil {
		f.onAppend(rec)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, rec)
	return f.err
}

type observation struct {
	outcome string
	err     error
}

type fakeObserver struct {
	mu  sync.Mutex
	got []observation
}

func (f *fakeObserver) ObserveDispatch(_ context.Context, outcome string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, observation{outcome, err})
}

type fakeRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*models.Item
	saveErr error
	deleted []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[uuid.UUID]*models.Item{}}
}

func (r *fakeRepo) Save(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, ok := r.items[item.ID]; ok {
		return itemdomain.ErrItemAlreadyExists
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, itemdomain.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *fakeRepo) List(_ context.Context, opts repositories.QueryOpts) ([]*models.Item, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Item
	for _, item := range r.items {
		cp := *item
		out = append(out, &cp)
	}
	total := len(out)
	if opts.Offset >= len(out) {
		return nil, total, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, total, nil
}

func (r *fakeRepo) Update(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return itemdomain.ErrItemNotFound
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return itemdomain.ErrItemNotFound
	}
	delete(r.items, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeGeocoder struct {
	lat, lon float64
	err      error
	calls    []string
}

func (g *fakeGeocoder) Lookup(_ context.Context, postcode string) (float64, float64, error) {
	g.calls = append(g.calls, postcode)
	return g.lat, g.lon, g.err
}

var errDown = errors.New("connection refused")
