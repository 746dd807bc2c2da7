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

type processedEventRepository struct {
	pool *pgxpool.Pool
}

// NewProcessedEventRepository creates the idempotency registry repository.
func NewProcessedEventRepository(pool *pgxpool.Pool) portsrepo.ProcessedEventRepository {
	return &processedEventRepository{pool: pool}
}

var _ portsrepo.ProcessedEventRepository = (*processedEventRepository)(nil)

func (r *processedEventRepository) FindByKey(ctx context.Context, eventKey string) (*domain.ProcessedEvent, error) {
	query := `
		SELECT event_key, event_type, event_id, result, processed_at
		FROM processed_events
		WHERE event_key = $1;
	`
	var event domain.ProcessedEvent
	err := r.pool.QueryRow(ctx, query, eventKey).Scan(
		&event.EventKey,
		&event.EventType,
		&event.EventID,
		&event.Result,
		&event.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: event %s", apperrors.ErrNotFound, eventKey)
		}
		return nil, fmt.Errorf("failed to find processed event %s: %w", eventKey, err)
	}
	return &event, nil
}

// Record appends the processed-event row within the unit's transaction so it
// commits with the unit's effects or not at all.
func (r *processedEventRepository) Record(ctx context.Context, tx pgx.Tx, event domain.ProcessedEvent) error {
	query := `
		INSERT INTO processed_events (event_key, event_type, event_id, result, processed_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := tx.Exec(ctx, query,
		event.EventKey,
		event.EventType,
		event.EventID,
		event.Result,
		event.ProcessedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: event %s", apperrors.ErrDuplicate, event.EventKey)
		}
		return fmt.Errorf("failed to record processed event %s: %w", event.EventKey, err)
	}
	return nil
}
