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

type grnRepository struct {
	pool *pgxpool.Pool
}

// NewGRNRepository creates a new repository for goods receipt notes.
func NewGRNRepository(pool *pgxpool.Pool) portsrepo.GRNRepository {
	return &grnRepository{pool: pool}
}

var _ portsrepo.GRNRepository = (*grnRepository)(nil)

const grnColumns = `grn_id, number, job_work_id, item_id, state, received_qty, accepted_qty, rejected_qty, clearing_value, tax_amount, clearing_journal_id, received_at, inspected_at, created_at, created_by, last_updated_at, last_updated_by`

func scanGRN(row pgx.Row) (*domain.GRN, error) {
	var g domain.GRN
	var clearingJournalID *string
	err := row.Scan(
		&g.GRNID,
		&g.Number,
		&g.JobWorkID,
		&g.ItemID,
		&g.State,
		&g.ReceivedQty,
		&g.AcceptedQty,
		&g.RejectedQty,
		&g.ClearingValue,
		&g.TaxAmount,
		&clearingJournalID,
		&g.ReceivedAt,
		&g.InspectedAt,
		&g.CreatedAt,
		&g.CreatedBy,
		&g.LastUpdatedAt,
		&g.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if clearingJournalID != nil {
		g.ClearingJournalID = *clearingJournalID
	}
	return &g, nil
}

func (r *grnRepository) SaveGRN(ctx context.Context, grn domain.GRN) error {
	query := `
		INSERT INTO grns (` + grnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := r.pool.Exec(ctx, query,
		grn.GRNID,
		grn.Number,
		grn.JobWorkID,
		grn.ItemID,
		grn.State,
		grn.ReceivedQty,
		grn.AcceptedQty,
		grn.RejectedQty,
		grn.ClearingValue,
		grn.TaxAmount,
		nullable(grn.ClearingJournalID),
		grn.ReceivedAt,
		grn.InspectedAt,
		grn.CreatedAt,
		grn.CreatedBy,
		grn.LastUpdatedAt,
		grn.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: GRN number %s", apperrors.ErrDuplicate, grn.Number)
		}
		return fmt.Errorf("failed to save GRN %s: %w", grn.GRNID, err)
	}
	return nil
}

func (r *grnRepository) FindGRNByID(ctx context.Context, grnID string) (*domain.GRN, error) {
	query := `SELECT ` + grnColumns + ` FROM grns WHERE grn_id = $1;`
	g, err := scanGRN(r.pool.QueryRow(ctx, query, grnID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: GRN %s", apperrors.ErrNotFound, grnID)
		}
		return nil, fmt.Errorf("failed to find GRN %s: %w", grnID, err)
	}
	return g, nil
}

func (r *grnRepository) FindGRNForUpdate(ctx context.Context, tx pgx.Tx, grnID string) (*domain.GRN, error) {
	query := `SELECT ` + grnColumns + ` FROM grns WHERE grn_id = $1 FOR UPDATE;`
	g, err := scanGRN(tx.QueryRow(ctx, query, grnID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: GRN %s", apperrors.ErrNotFound, grnID)
		}
		return nil, fmt.Errorf("failed to lock GRN %s: %w", grnID, err)
	}
	return g, nil
}

func (r *grnRepository) UpdateGRN(ctx context.Context, tx pgx.Tx, grn domain.GRN) error {
	query := `
		UPDATE grns
		SET state = $2, received_qty = $3, accepted_qty = $4, rejected_qty = $5, clearing_value = $6, tax_amount = $7, clearing_journal_id = $8, received_at = $9, inspected_at = $10, last_updated_at = $11, last_updated_by = $12
		WHERE grn_id = $1;
	`
	tag, err := tx.Exec(ctx, query,
		grn.GRNID,
		grn.State,
		grn.ReceivedQty,
		grn.AcceptedQty,
		grn.RejectedQty,
		grn.ClearingValue,
		grn.TaxAmount,
		nullable(grn.ClearingJournalID),
		grn.ReceivedAt,
		grn.InspectedAt,
		grn.LastUpdatedAt,
		grn.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update GRN %s: %w", grn.GRNID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: GRN %s", apperrors.ErrNotFound, grn.GRNID)
	}
	return nil
}

func (r *grnRepository) ListGRNsByJobWorkID(ctx context.Context, jobWorkID string) ([]domain.GRN, error) {
	query := `
		SELECT ` + grnColumns + `
		FROM grns
		WHERE job_work_id = $1
		ORDER BY created_at, grn_id;
	`
	rows, err := r.pool.Query(ctx, query, jobWorkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list GRNs for job work %s: %w", jobWorkID, err)
	}
	defer rows.Close()

	grns := []domain.GRN{}
	for rows.Next() {
		g, err := scanGRN(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan GRN row: %w", err)
		}
		grns = append(grns, *g)
	}
	return grns, rows.Err()
}
