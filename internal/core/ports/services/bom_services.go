package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fabtrack/fabledger/internal/core/domain"
	"github.com/fabtrack/fabledger/internal/dto"
)

// BOMSvcFacade resolves bills of materials and manages their definitions.
type BOMSvcFacade interface {
	// ResolveBOM expands the active BOM of the item depth-first into flat
	// raw-material requirements scaled by qty-per-unit x (1 + scrap rate),
	// plus total planned cost. Fails with *apperrors.CyclicBOMReferenceError
	// when an item reappears on the current path; resolution is cancellable
	// between nodes via ctx.
	ResolveBOM(ctx context.Context, itemID string, plannedQty decimal.Decimal) (*domain.ResolvedBOM, error)

	// ResolveForOrder is ResolveBOM memoized per production order. The cache
	// entry survives until the BOM of any involved item is edited while the
	// order has not started.
	ResolveForOrder(ctx context.Context, orderID string, itemID string, plannedQty decimal.Decimal) (*domain.ResolvedBOM, error)

	// InvalidateOrder drops the cached resolution for an order.
	InvalidateOrder(orderID string)

	// SaveBOM stores a new BOM version for a parent item and invalidates
	// cached resolutions of not-yet-started orders.
	SaveBOM(ctx context.Context, req dto.SaveBOMRequest, actorID string) (*domain.BOM, error)

	// GetActiveBOM returns the active BOM of an item with its lines.
	GetActiveBOM(ctx context.Context, itemID string) (*domain.BOM, error)
}
