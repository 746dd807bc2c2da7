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

type jobWorkRepository struct {
	pool *pgxpool.Pool
}

// NewJobWorkRepository creates a new repository for job work orders.
func NewJobWorkRepository(pool *pgxpool.Pool) portsrepo.JobWorkRepository {
	return &jobWorkRepository{pool: pool}
}

var _ portsrepo.JobWorkRepository = (*jobWorkRepository)(nil)

const jobWorkColumns = `job_work_id, number, item_id, state, dispatched_qty, received_qty, rate_per_unit, worker_id, vendor_partner_id, dispatched_at, completed_at, created_at, created_by, last_updated_at, last_updated_by`

func scanJobWork(row pgx.Row) (*domain.JobWork, error) {
	var jw domain.JobWork
	var workerID, vendorID *string
	err := row.Scan(
		&jw.JobWorkID,
		&jw.Number,
		&jw.ItemID,
		&jw.State,
		&jw.DispatchedQty,
		&jw.ReceivedQty,
		&jw.RatePerUnit,
		&workerID,
		&vendorID,
		&jw.DispatchedAt,
		&jw.CompletedAt,
		&jw.CreatedAt,
		&jw.CreatedBy,
		&jw.LastUpdatedAt,
		&jw.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if workerID != nil {
		jw.WorkerID = *workerID
	}
	if vendorID != nil {
		jw.VendorPartnerID = *vendorID
	}
	return &jw, nil
}

func (r *jobWorkRepository) SaveJobWork(ctx context.Context, jobWork domain.JobWork) error {
	query := `
		INSERT INTO job_works (` + jobWorkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.pool.Exec(ctx, query,
		jobWork.JobWorkID,
		jobWork.Number,
		jobWork.ItemID,
		jobWork.State,
		jobWork.DispatchedQty,
		jobWork.ReceivedQty,
		jobWork.RatePerUnit,
		nullable(jobWork.WorkerID),
		nullable(jobWork.VendorPartnerID),
		jobWork.DispatchedAt,
		jobWork.CompletedAt,
		jobWork.CreatedAt,
		jobWork.CreatedBy,
		jobWork.LastUpdatedAt,
		jobWork.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: job work number %s", apperrors.ErrDuplicate, jobWork.Number)
		}
		return fmt.Errorf("failed to save job work %s: %w", jobWork.JobWorkID, err)
	}
	return nil
}

func (r *jobWorkRepository) FindJobWorkByID(ctx context.Context, jobWorkID string) (*domain.JobWork, error) {
	query := `SELECT ` + jobWorkColumns + ` FROM job_works WHERE job_work_id = $1;`
	jw, err := scanJobWork(r.pool.QueryRow(ctx, query, jobWorkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: job work %s", apperrors.ErrNotFound, jobWorkID)
		}
		return nil, fmt.Errorf("failed to find job work %s: %w", jobWorkID, err)
	}
	return jw, nil
}

func (r *jobWorkRepository) FindJobWorkForUpdate(ctx context.Context, tx pgx.Tx, jobWorkID string) (*domain.JobWork, error) {
	query := `SELECT ` + jobWorkColumns + ` FROM job_works WHERE job_work_id = $1 FOR UPDATE;`
	jw, err := scanJobWork(tx.QueryRow(ctx, query, jobWorkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: job work %s", apperrors.ErrNotFound, jobWorkID)
		}
		return nil, fmt.Errorf("failed to lock job work %s: %w", jobWorkID, err)
	}
	return jw, nil
}

func (r *jobWorkRepository) UpdateJobWork(ctx context.Context, tx pgx.Tx, jobWork domain.JobWork) error {
	query := `
		UPDATE job_works
		SET state = $2, received_qty = $3, worker_id = $4, vendor_partner_id = $5, dispatched_at = $6, completed_at = $7, last_updated_at = $8, last_updated_by = $9
		WHERE job_work_id = $1;
	`
	tag, err := tx.Exec(ctx, query,
		jobWork.JobWorkID,
		jobWork.State,
		jobWork.ReceivedQty,
		nullable(jobWork.WorkerID),
		nullable(jobWork.VendorPartnerID),
		jobWork.DispatchedAt,
		jobWork.CompletedAt,
		jobWork.LastUpdatedAt,
		jobWork.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update job work %s: %w", jobWork.JobWorkID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job work %s", apperrors.ErrNotFound, jobWork.JobWorkID)
	}
	return nil
}

func (r *jobWorkRepository) ListJobWorks(ctx context.Context, limit int, offset int) ([]domain.JobWork, error) {
	query := `
		SELECT ` + jobWorkColumns + `
		FROM job_works
		ORDER BY created_at DESC, job_work_id DESC
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list job works: %w", err)
	}
	defer rows.Close()

	jobWorks := []domain.JobWork{}
	for rows.Next() {
		jw, err := scanJobWork(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job work row: %w", err)
		}
		jobWorks = append(jobWorks, *jw)
	}
	return jobWorks, rows.Err()
}
