package repositories

import (
	"context"

	"github.com/fabtrack/fabledger/internal/core/domain"
)

// BOMReader defines read operations for bills of materials.
type BOMReader interface {
	// FindBOMByID retrieves a BOM with its lines.
	FindBOMByID(ctx context.Context, bomID string) (*domain.BOM, error)

	// FindActiveBOMByItemID retrieves the active BOM for a parent item, or
	// apperrors.ErrNotFound when the item has none.
	FindActiveBOMByItemID(ctx context.Context, itemID string) (*domain.BOM, error)

	// ListBOMsByItemID retrieves all BOM versions for a parent item.
	ListBOMsByItemID(ctx context.Context, itemID string) ([]domain.BOM, error)
}

// BOMWriter defines write operations for bills of materials.
type BOMWriter interface {
	// SaveBOM persists a BOM and its lines, deactivating any previously
	// active BOM of the same parent item.
	SaveBOM(ctx context.Context, bom domain.BOM) error
}

// BOMRepositoryFacade combines BOM repository interfaces.
type BOMRepositoryFacade interface {
	BOMReader
	BOMWriter
}
