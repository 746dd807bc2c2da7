package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fabtrack/fabledger/internal/core/domain"
)

// MovementWriter appends movement records. Movements are immutable once
// written; there is no update or delete operation by design.
type MovementWriter interface {
	// SaveMovement appends one movement within the given transaction.
	SaveMovement(ctx context.Context, tx pgx.Tx, movement domain.Movement) error
}

// MovementReader defines read operations over the append-only movement log.
// The log is safe for concurrent readers without locking.
type MovementReader interface {
	// FindMovementByID retrieves a single movement.
	FindMovementByID(ctx context.Context, movementID string) (*domain.Movement, error)

	// ListMovementsByItemID retrieves a page of movements for an item in
	// append order using token-based pagination.
	ListMovementsByItemID(ctx context.Context, itemID string, limit int, nextToken *string) ([]domain.Movement, *string, error)

	// FindMovementsByItemID retrieves the full movement history of an item
	// in append order, for snapshot replay.
	FindMovementsByItemID(ctx context.Context, itemID string) ([]domain.Movement, error)

	// FindMovementsByEventRef retrieves the movements caused by one event.
	FindMovementsByEventRef(ctx context.Context, ref domain.EventRef) ([]domain.Movement, error)
}

// MovementRepositoryFacade combines movement log interfaces.
type MovementRepositoryFacade interface {
	MovementWriter
	MovementReader
}
