package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fabtrack/fabledger/internal/core/domain"
)

// ItemReader defines read operations for item master data and cached stock.
type ItemReader interface {
	// FindItemByID retrieves an item by its unique identifier.
	FindItemByID(ctx context.Context, itemID string) (*domain.Item, error)

	// FindItemByCode retrieves an item by its user-facing code.
	FindItemByCode(ctx context.Context, code string) (*domain.Item, error)

	// ListItems retrieves active items ordered by code.
	ListItems(ctx context.Context, limit int, offset int) ([]domain.Item, error)
}

// ItemWriter defines write operations for item master data.
type ItemWriter interface {
	// SaveItem persists a new item.
	SaveItem(ctx context.Context, item domain.Item) error

	// UpdateItem updates master fields (name, uom, unit cost, active flag).
	UpdateItem(ctx context.Context, item domain.Item) error
}

// ItemStockMutator defines the transaction-scoped operations the inventory
// state machine uses. Quantity columns are touched only through these, always
// inside a coordinator transaction.
type ItemStockMutator interface {
	// FindItemForUpdate retrieves an item with a row lock held for the
	// remainder of the transaction.
	FindItemForUpdate(ctx context.Context, tx pgx.Tx, itemID string) (*domain.Item, error)

	// UpdateItemQuantities writes the four bucket columns of the item.
	UpdateItemQuantities(ctx context.Context, tx pgx.Tx, item domain.Item) error
}

// ItemRepositoryFacade combines all item-related repository interfaces.
type ItemRepositoryFacade interface {
	ItemReader
	ItemWriter
	ItemStockMutator
}
