package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/itemlocations/pkg/database"
	itemdomain "github.com/ghuser/itemlocations/services/item/domain"
	"github.com/ghuser/itemlocations/services/item/domain/models"
	"github.com/ghuser/itemlocations/services/item/domain/repositories"
)

const itemColumns = `id, name, postcode, latitude, longitude, direction, distance, title, users, start_date, created_at, updated_at`

const (
	insertItemSQL = `INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	getItemSQL   = `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	listItemsSQL = `SELECT ` + itemColumns + ` FROM items ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	countSQL     = `SELECT count(*) FROM items`
	updateSQL    = `UPDATE items SET name = $2, postcode = $3, latitude = $4, longitude = $5, direction = $6,
		distance = $7, title = $8, users = $9, start_date = $10, updated_at = $11 WHERE id = $1`
	deleteSQL = `DELETE FROM items WHERE id = $1`
)

// ItemRepository implements repositories.ItemRepository against PostgreSQL.
type ItemRepository struct {
	db *database.Database
}

// NewItemRepository returns an ItemRepository backed by the given connection pool.
func NewItemRepository(db *database.Database) *ItemRepository {
	return &ItemRepository{db: db}
}

var _ repositories.ItemRepository = (*ItemRepository)(nil)

// Save persists a new Item. Returns ErrItemAlreadyExists on unique constraint violations.
func (r *ItemRepository) Save(ctx context.Context, item *models.Item) error {
	users, err := encodeUsers(item.Users)
	if err != nil {
		return err
	}
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insertItemSQL,
			item.ID, item.Name.String(), item.Postcode,
			item.Latitude, item.Longitude, directionArg(item.DirectionFromReference), item.DistanceFromReference,
			item.Title, users, item.StartDate, item.CreatedAt, item.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return itemdomain.ErrItemAlreadyExists
			}
			return fmt.Errorf("insert item: %w", err)
		}
		return nil
	})
}

// GetByID retrieves an Item by ID. Returns ErrItemNotFound if not found.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, err := scanItem(r.db.DB().QueryRowContext(ctx, getItemSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, itemdomain.ErrItemNotFound
		}
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

// List retrieves a page of items and the total count.
func (r *ItemRepository) List(ctx context.Context, opts repositories.QueryOpts) ([]*models.Item, int, error) {
	rows, err := r.db.DB().QueryContext(ctx, listItemsSQL, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	items := make([]*models.Item, 0, opts.Limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate items: %w", err)
	}

	var total int
	if err := r.db.DB().QueryRowContext(ctx, countSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}
	return items, total, nil
}

// Update persists every mutable field of an existing Item.
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	users, err := encodeUsers(item.Users)
	if err != nil {
		return err
	}
	res, err := r.db.DB().ExecContext(ctx, updateSQL,
		item.ID, item.Name.String(), item.Postcode,
		item.Latitude, item.Longitude, directionArg(item.DirectionFromReference), item.DistanceFromReference,
		item.Title, users, item.StartDate, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return requireAffected(res)
}

// Delete removes an item by ID.
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.DB().ExecContext(ctx, deleteSQL, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return itemdomain.ErrItemNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem maps one items row to a domain models.Item.
func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item      models.Item
		name      string
		lat, lon  sql.NullFloat64
		direction sql.NullString
		distance  sql.NullFloat64
		title     sql.NullString
		users     []byte
	)
	if err := row.Scan(&item.ID, &name, &item.Postcode, &lat, &lon, &direction, &distance,
		&title, &users, &item.StartDate, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}

	item.Name = models.ItemName(name)
	item.Latitude = floatPtr(lat)
	item.Longitude = floatPtr(lon)
	item.DistanceFromReference = floatPtr(distance)
	if direction.Valid {
		d := models.Direction(direction.String)
		if !d.Valid() {
			return nil, fmt.Errorf("decode direction: unknown quadrant %q", direction.String)
		}
		item.DirectionFromReference = &d
	}
	if title.Valid {
		item.Title = &title.String
	}
	if len(users) > 0 {
		if err := json.Unmarshal(users, &item.Users); err != nil {
			return nil, fmt.Errorf("decode users: %w", err)
		}
	}
	return &item, nil
}

// encodeUsers keeps an absent list as SQL NULL and an empty list as [].
func encodeUsers(users []string) (any, error) {
	if users == nil {
		return nil, nil
	}
	b, err := json.Marshal(users)
	if err != nil {
		return nil, fmt.Errorf("encode users: %w", err)
	}
	return string(b), nil
}

func directionArg(d *models.Direction) any {
	if d == nil {
		return nil
	}
	return string(*d)
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
