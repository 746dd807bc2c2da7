package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fabtrack/fabledger/internal/core/domain"
)

// InventoryMutator is the inventory state machine. Every operation mutates the
// item's bucket quantities and appends exactly one movement (ConsumeFinished
// may append two when raw substitutes for finished) within the caller's
// transaction. These methods are invoked only from inside coordinator units.
type InventoryMutator interface {
	// MoveToWIP moves qty from RAW to WIP. Fails with
	// *apperrors.InsufficientStockError when qty_raw < qty.
	MoveToWIP(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, ref domain.EventRef, actorID string) (*domain.Movement, error)

	// ReceiveFromWIP moves finishedQty to FINISHED and scrapQty to SCRAP out
	// of WIP. Fails with *apperrors.OverReceiptError when the sum exceeds
	// outstanding WIP.
	ReceiveFromWIP(ctx context.Context, tx pgx.Tx, itemID string, finishedQty, scrapQty decimal.Decimal, ref domain.EventRef, actorID string) ([]domain.Movement, error)

	// ReceiveRaw adds purchased quantity to RAW.
	ReceiveRaw(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, ref domain.EventRef, actorID string) (*domain.Movement, error)

	// ConsumeFinished removes qty from FINISHED for sale or further
	// assembly. When allowRawSubstitute is set, raw stock may cover the
	// shortfall (finished is drawn first).
	ConsumeFinished(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, allowRawSubstitute bool, ref domain.EventRef, actorID string) ([]domain.Movement, error)

	// ConsumeWIP removes qty from WIP when components are converted into a
	// produced assembly. Fails with *apperrors.InsufficientStockError when
	// qty_wip < qty.
	ConsumeWIP(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, ref domain.EventRef, actorID string) (*domain.Movement, error)

	// ReturnFromWIP moves qty back from WIP to RAW when dispatched material
	// comes back unprocessed, typically on cancellation.
	ReturnFromWIP(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, ref domain.EventRef, actorID string) (*domain.Movement, error)

	// ReceiveProduced books production output: finishedQty to FINISHED and
	// scrapQty to SCRAP of the produced item. Either leg may be zero, but not
	// both.
	ReceiveProduced(ctx context.Context, tx pgx.Tx, itemID string, finishedQty, scrapQty decimal.Decimal, ref domain.EventRef, actorID string) ([]domain.Movement, error)

	// ScrapAdjust is a manual scrap correction out of fromState, recorded
	// with the manual-adjustment event type.
	ScrapAdjust(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, fromState domain.StockState, ref domain.EventRef, actorID string) (*domain.Movement, error)
}

// InventoryReader exposes the read model over items and the movement log.
type InventoryReader interface {
	// GetStockSnapshot returns the bucket quantities of an item from the
	// materialized cache.
	GetStockSnapshot(ctx context.Context, itemID string) (*domain.StockSnapshot, error)

	// RebuildSnapshot replays the movement log of an item and returns the
	// derived snapshot; drift against the cached columns is logged.
	RebuildSnapshot(ctx context.Context, itemID string) (*domain.StockSnapshot, error)

	// ListMovements pages through the movement history of an item.
	ListMovements(ctx context.Context, itemID string, limit int, nextToken *string) ([]domain.Movement, *string, error)
}

// InventorySvcFacade combines the state machine with its read model.
type InventorySvcFacade interface {
	InventoryMutator
	InventoryReader
}
