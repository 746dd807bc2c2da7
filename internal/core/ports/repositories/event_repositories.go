package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fabtrack/fabledger/internal/core/domain"
)

// ProcessedEventRepository is the idempotency registry of the transaction
// coordinator. Rows are written inside the unit's transaction so the event
// record commits with the unit's effects or not at all.
type ProcessedEventRepository interface {
	// FindByKey retrieves a processed-event record, or apperrors.ErrNotFound
	// when the event has not been applied.
	FindByKey(ctx context.Context, eventKey string) (*domain.ProcessedEvent, error)

	// Record appends a processed-event record within the transaction. A
	// unique-key violation maps to apperrors.ErrDuplicate.
	Record(ctx context.Context, tx pgx.Tx, event domain.ProcessedEvent) error
}
