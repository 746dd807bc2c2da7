package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fabtrack/fabledger/internal/apperrors"
	"github.com/fabtrack/fabledger/internal/core/domain"
	portsrepo "github.com/fabtrack/fabledger/internal/core/ports/repositories"
)

type itemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository creates a new repository for item master data.
func NewItemRepository(pool *pgxpool.Pool) portsrepo.ItemRepositoryFacade {
	return &itemRepository{pool: pool}
}

var _ portsrepo.ItemRepositoryFacade = (*itemRepository)(nil)

const itemColumns = `item_id, code, name, unit_of_measure, unit_cost, qty_raw, qty_wip, qty_finished, qty_scrap, is_active, created_at, created_by, last_updated_at, last_updated_by`

func scanItem(row pgx.Row) (*domain.Item, error) {
	var item domain.Item
	err := row.Scan(
		&item.ItemID,
		&item.Code,
		&item.Name,
		&item.UnitOfMeasure,
		&item.UnitCost,
		&item.QtyRaw,
		&item.QtyWIP,
		&item.QtyFinished,
		&item.QtyScrap,
		&item.IsActive,
		&item.CreatedAt,
		&item.CreatedBy,
		&item.LastUpdatedAt,
		&item.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) SaveItem(ctx context.Context, item domain.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.pool.Exec(ctx, query,
		item.ItemID,
		item.Code,
		item.Name,
		item.UnitOfMeasure,
		item.UnitCost,
		item.QtyRaw,
		item.QtyWIP,
		item.QtyFinished,
		item.QtyScrap,
		item.IsActive,
		item.CreatedAt,
		item.CreatedBy,
		item.LastUpdatedAt,
		item.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: item code %s", apperrors.ErrDuplicate, item.Code)
		}
		return fmt.Errorf("failed to save item %s: %w", item.ItemID, err)
	}
	return nil
}

func (r *itemRepository) UpdateItem(ctx context.Context, item domain.Item) error {
	query := `
		UPDATE items
		SET name = $2, unit_of_measure = $3, unit_cost = $4, is_active = $5, last_updated_at = $6, last_updated_by = $7
		WHERE item_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query,
		item.ItemID,
		item.Name,
		item.UnitOfMeasure,
		item.UnitCost,
		item.IsActive,
		item.LastUpdatedAt,
		item.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update item %s: %w", item.ItemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: item %s", apperrors.ErrNotFound, item.ItemID)
	}
	return nil
}

func (r *itemRepository) FindItemByID(ctx context.Context, itemID string) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE item_id = $1;`
	item, err := scanItem(r.pool.QueryRow(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: item %s", apperrors.ErrNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to find item by ID %s: %w", itemID, err)
	}
	return item, nil
}

func (r *itemRepository) FindItemByCode(ctx context.Context, code string) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE code = $1;`
	item, err := scanItem(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: item code %s", apperrors.ErrNotFound, code)
		}
		return nil, fmt.Errorf("failed to find item by code %s: %w", code, err)
	}
	return item, nil
}

func (r *itemRepository) ListItems(ctx context.Context, limit int, offset int) ([]domain.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE is_active
		ORDER BY code
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// FindItemForUpdate locks the item row for the remainder of the transaction.
func (r *itemRepository) FindItemForUpdate(ctx context.Context, tx pgx.Tx, itemID string) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE item_id = $1 FOR UPDATE;`
	item, err := scanItem(tx.QueryRow(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: item %s", apperrors.ErrNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to lock item %s: %w", itemID, err)
	}
	return item, nil
}

// UpdateItemQuantities writes the four bucket columns.
func (r *itemRepository) UpdateItemQuantities(ctx context.Context, tx pgx.Tx, item domain.Item) error {
	query := `
		UPDATE items
		SET qty_raw = $2, qty_wip = $3, qty_finished = $4, qty_scrap = $5
		WHERE item_id = $1;
	`
	tag, err := tx.Exec(ctx, query, item.ItemID, item.QtyRaw, item.QtyWIP, item.QtyFinished, item.QtyScrap)
	if err != nil {
		return fmt.Errorf("failed to update quantities for item %s: %w", item.ItemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: item %s", apperrors.ErrNotFound, item.ItemID)
	}
	return nil
}
