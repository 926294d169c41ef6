package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/itemlocations/pkg/database"
	"github.com/ghuser/itemlocations/pkg/logger"
	"github.com/ghuser/itemlocations/pkg/migrator"
	itemdomain "github.com/ghuser/itemlocations/services/item/domain"
	"github.com/ghuser/itemlocations/services/item/domain/models"
	"github.com/ghuser/itemlocations/services/item/domain/repositories"
)

// fakeRow scans fixed column values in itemColumns order.
type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	if len(dest) != len(r) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = r[i].(uuid.UUID)
		case *string:
			*p = r[i].(string)
		case *sql.NullFloat64:
			if r[i] != nil {
				*p = sql.NullFloat64{Float64: r[i].(float64), Valid: true}
			}
		case *sql.NullString:
			if r[i] != nil {
				*p = sql.NullString{String: r[i].(string), Valid: true}
			}
		case *[]byte:
			if r[i] != nil {
				*p = []byte(r[i].(string))
			}
		case *time.Time:
			*p = r[i].(time.Time)
		default:
			return errors.New("unexpected destination type")
		}
	}
	return nil
}

func TestScanItem(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()

	t.Run("all columns", func(t *testing.T) {
		item, err := scanItem(fakeRow{id, "Desk", "10001", 40.75, -73.99, "NE", 3.12, "Office", `["a","b","a"]`, now, now, now})
		if err != nil {
			t.Fatalf("scanItem: %v", err)
		}
		if item.ID != id || item.Name != "Desk" || *item.DirectionFromReference != models.DirectionNE || *item.Title != "Office" {
			t.Errorf("unexpected item: %+v", item)
		}
		if len(item.Users) != 3 || item.Users[2] != "a" {
			t.Errorf("users: %v", item.Users)
		}
	})

	t.Run("nullable columns stay nil", func(t *testing.T) {
		item, err := scanItem(fakeRow{id, "Desk", "10001", nil, nil, nil, nil, nil, nil, now, now, now})
		if err != nil {
			t.Fatalf("scanItem: %v", err)
		}
		if item.Latitude != nil || item.DirectionFromReference != nil || item.Title != nil || item.Users != nil {
			t.Errorf("expected nil optionals: %+v", item)
		}
	})

	t.Run("unknown direction", func(t *testing.T) {
		if _, err := scanItem(fakeRow{id, "Desk", "10001", 40.75, -73.99, "north", nil, nil, nil, now, now, now}); err == nil {
			t.Fatal("expected decode error for unknown direction")
		}
	})

	t.Run("empty users stay empty", func(t *testing.T) {
		item, err := scanItem(fakeRow{id, "Desk", "10001", nil, nil, nil, nil, nil, "[]", now, now, now})
		if err != nil {
			t.Fatalf("scanItem: %v", err)
		}
		if item.Users == nil || len(item.Users) != 0 {
			t.Errorf("expected empty non-nil users, got %#v", item.Users)
		}
	})

	t.Run("corrupt users", func(t *testing.T) {
		if _, err := scanItem(fakeRow{id, "Desk", "10001", nil, nil, nil, nil, nil, "{", now, now, now}); err == nil {
			t.Fatal("expected decode error")
		}
	})
}

func TestEncodeUsers(t *testing.T) {
	if v, _ := encodeUsers(nil); v != nil {
		t.Errorf("nil users: got %v, want NULL", v)
	}
	if v, _ := encodeUsers([]string{}); v != "[]" {
		t.Errorf("empty users: got %v", v)
	}
	if v, _ := encodeUsers([]string{"b", "a"}); v != `["b","a"]` {
		t.Errorf("order lost: got %v", v)
	}
}

// Integration tests: skipped unless DATABASE_URL is set.
func TestItemRepositoryIntegration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set; skipping integration tests")
	}
	ctx := context.Background()

	migrations := os.DirFS(filepath.Join("..", "..", "..", "..", "..", "migrations", "item"))
	if err := migrator.RunMigrations(ctx, url, migrations, logger.Discard()); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	db, err := database.NewPool(ctx, url, logger.Discard())
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer db.Close() //nolint:errcheck
	repo := NewItemRepository(db)

	lat, lon := 40.75, -73.99
	item := &models.Item{
		Name:      "Desk",
		Postcode:  "10001",
		Latitude:  &lat,
		Longitude: &lon,
		Users:     []string{"a", "b"},
		StartDate: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
	item.AssignIdentity(uuid.New(), time.Now())
	defer repo.Delete(ctx, item.ID) //nolint:errcheck

	t.Run("Save", func(t *testing.T) {
		if err := repo.Save(ctx, item); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := repo.Save(ctx, item); !errors.Is(err, itemdomain.ErrItemAlreadyExists) {
			t.Errorf("duplicate save: expected ErrItemAlreadyExists, got %v", err)
		}
	})

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, item.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Name != item.Name || *got.Latitude != lat || len(got.Users) != 2 || !got.StartDate.Equal(item.StartDate) {
			t.Errorf("round trip mismatch: %+v", got)
		}
		if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, itemdomain.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		items, total, err := repo.List(ctx, repositories.QueryOpts{Limit: 1000})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total < 1 || len(items) < 1 {
			t.Errorf("expected at least one item, got %d of %d", len(items), total)
		}
	})

	t.Run("Update", func(t *testing.T) {
		title := "Standing desk"
		item.Title = &title
		item.Users = nil
		if err := repo.Update(ctx, item); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, _ := repo.GetByID(ctx, item.ID)
		if got.Title == nil || *got.Title != title || got.Users != nil {
			t.Errorf("update not persisted: %+v", got)
		}
		missing := *item
		missing.ID = uuid.New()
		if err := repo.Update(ctx, &missing); !errors.Is(err, itemdomain.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := repo.Delete(ctx, item.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := repo.Delete(ctx, item.ID); !errors.Is(err, itemdomain.ErrItemNotFound) {
			t.Errorf("second delete: expected ErrItemNotFound, got %v", err)
		}
	})
}
