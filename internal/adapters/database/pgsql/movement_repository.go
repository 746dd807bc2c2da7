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
	"github.com/fabtrack/fabledger/internal/utils/pagination"
)

type movementRepository struct {
	pool *pgxpool.Pool
}

// NewMovementRepository creates a new repository over the append-only
// movement log.
func NewMovementRepository(pool *pgxpool.Pool) portsrepo.MovementRepositoryFacade {
	return &movementRepository{pool: pool}
}

var _ portsrepo.MovementRepositoryFacade = (*movementRepository)(nil)

const movementColumns = `movement_id, item_id, from_state, to_state, quantity, event_type, event_id, notes, created_at, created_by`

func scanMovement(row pgx.Row) (*domain.Movement, error) {
	var m domain.Movement
	err := row.Scan(
		&m.MovementID,
		&m.ItemID,
		&m.FromState,
		&m.ToState,
		&m.Quantity,
		&m.EventType,
		&m.EventID,
		&m.Notes,
		&m.CreatedAt,
		&m.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *movementRepository) SaveMovement(ctx context.Context, tx pgx.Tx, movement domain.Movement) error {
	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := tx.Exec(ctx, query,
		movement.MovementID,
		movement.ItemID,
		movement.FromState,
		movement.ToState,
		movement.Quantity,
		movement.EventType,
		movement.EventID,
		movement.Notes,
		movement.CreatedAt,
		movement.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save movement %s: %w", movement.MovementID, err)
	}
	return nil
}

func (r *movementRepository) FindMovementByID(ctx context.Context, movementID string) (*domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE movement_id = $1;`
	m, err := scanMovement(r.pool.QueryRow(ctx, query, movementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: movement %s", apperrors.ErrNotFound, movementID)
		}
		return nil, fmt.Errorf("failed to find movement %s: %w", movementID, err)
	}
	return m, nil
}

// ListMovementsByItemID pages through an item's movements in append order
// using a keyset token.
func (r *movementRepository) ListMovementsByItemID(ctx context.Context, itemID string, limit int, nextToken *string) ([]domain.Movement, *string, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE item_id = $1
	`
	args := []any{itemID}
	if nextToken != nil && *nextToken != "" {
		afterTime, afterID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		query += ` AND (created_at, movement_id) > ($2, $3)`
		args = append(args, afterTime, afterID)
	}
	query += fmt.Sprintf(` ORDER BY created_at, movement_id LIMIT %d;`, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list movements for item %s: %w", itemID, err)
	}
	defer rows.Close()

	movements := []domain.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan movement row: %w", err)
		}
		movements = append(movements, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var token *string
	if len(movements) > limit {
		movements = movements[:limit]
		last := movements[len(movements)-1]
		t := pagination.EncodeToken(last.CreatedAt, last.MovementID)
		token = &t
	}
	return movements, token, nil
}

// FindMovementsByItemID retrieves the full movement history of an item in
// append order, for snapshot replay.
func (r *movementRepository) FindMovementsByItemID(ctx context.Context, itemID string) ([]domain.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE item_id = $1
		ORDER BY created_at, movement_id;
	`
	rows, err := r.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements for item %s: %w", itemID, err)
	}
	defer rows.Close()

	movements := []domain.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement row: %w", err)
		}
		movements = append(movements, *m)
	}
	return movements, rows.Err()
}

func (r *movementRepository) FindMovementsByEventRef(ctx context.Context, ref domain.EventRef) ([]domain.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE event_type = $1 AND event_id = $2
		ORDER BY created_at, movement_id;
	`
	rows, err := r.pool.Query(ctx, query, ref.Type, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements for event %s: %w", ref.Key(), err)
	}
	defer rows.Close()

	movements := []domain.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement row: %w", err)
		}
		movements = append(movements, *m)
	}
	return movements, rows.Err()
}
