package services

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/fabtrack/fabledger/internal/core/domain"
)

// UnitFunc is the body of one atomic business unit. It receives the unit's
// transaction handle and returns a JSON-serializable result. All repository
// writes inside the unit must go through tx.
type UnitFunc func(ctx context.Context, tx pgx.Tx) (any, error)

// UnitOutcome is the result of executing a coordinator unit.
type UnitOutcome struct {
	// Result is the value returned by the unit body; nil when Replayed.
	Result any
	// Stored is the serialized result as persisted in the idempotency
	// registry. For replays this is the original unit's result.
	Stored json.RawMessage
	// Replayed is true when the event reference had already been processed
	// and no new effects were applied.
	Replayed bool
}

// CoordinatorSvcFacade wraps one business event into an atomic unit touching
// the inventory state machine and the ledger. Re-submitting the same event
// reference is a safe no-op returning the original result. Serialization
// failures are retried a bounded number of times with backoff before being
// surfaced as *apperrors.ConcurrentModificationError.
type CoordinatorSvcFacade interface {
	Execute(ctx context.Context, ref domain.EventRef, fn UnitFunc) (*UnitOutcome, error)
}
