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

type bomRepository struct {
	pool *pgxpool.Pool
}

// NewBOMRepository creates a new repository for bills of materials.
func NewBOMRepository(pool *pgxpool.Pool) portsrepo.BOMRepositoryFacade {
	return &bomRepository{pool: pool}
}

var _ portsrepo.BOMRepositoryFacade = (*bomRepository)(nil)

const bomColumns = `bom_id, parent_item_id, version, is_active, labor_cost, created_at, created_by, last_updated_at, last_updated_by`

func scanBOM(row pgx.Row) (*domain.BOM, error) {
	var b domain.BOM
	err := row.Scan(
		&b.BOMID,
		&b.ParentItemID,
		&b.Version,
		&b.IsActive,
		&b.LaborCost,
		&b.CreatedAt,
		&b.CreatedBy,
		&b.LastUpdatedAt,
		&b.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SaveBOM persists a BOM and its lines as the next version for the parent
// item, deactivating any previously active version, all in one transaction.
func (r *bomRepository) SaveBOM(ctx context.Context, bom domain.BOM) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx,
		`UPDATE boms SET is_active = false WHERE parent_item_id = $1 AND is_active;`,
		bom.ParentItemID,
	); err != nil {
		return fmt.Errorf("failed to deactivate previous BOM for item %s: %w", bom.ParentItemID, err)
	}

	var version int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM boms WHERE parent_item_id = $1;`,
		bom.ParentItemID,
	).Scan(&version); err != nil {
		return fmt.Errorf("failed to compute BOM version for item %s: %w", bom.ParentItemID, err)
	}

	bomQuery := `
		INSERT INTO boms (` + bomColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	if _, err := tx.Exec(ctx, bomQuery,
		bom.BOMID,
		bom.ParentItemID,
		version,
		bom.IsActive,
		bom.LaborCost,
		bom.CreatedAt,
		bom.CreatedBy,
		bom.LastUpdatedAt,
		bom.LastUpdatedBy,
	); err != nil {
		return fmt.Errorf("failed to insert BOM %s: %w", bom.BOMID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO bom_lines (line_id, bom_id, position, component_item_id, qty_per_unit, scrap_rate, process_step)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, line := range bom.Lines {
		batch.Queue(lineQuery,
			line.LineID,
			line.BOMID,
			line.Position,
			line.ComponentItemID,
			line.QtyPerUnit,
			line.ScrapRate,
			line.ProcessStep,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute line batch for BOM %s: %w", bom.BOMID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit BOM %s: %w", bom.BOMID, err)
	}
	return nil
}

func (r *bomRepository) FindBOMByID(ctx context.Context, bomID string) (*domain.BOM, error) {
	query := `SELECT ` + bomColumns + ` FROM boms WHERE bom_id = $1;`
	bom, err := scanBOM(r.pool.QueryRow(ctx, query, bomID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: BOM %s", apperrors.ErrNotFound, bomID)
		}
		return nil, fmt.Errorf("failed to find BOM by ID %s: %w", bomID, err)
	}
	if bom.Lines, err = r.findLines(ctx, bom.BOMID); err != nil {
		return nil, err
	}
	return bom, nil
}

func (r *bomRepository) FindActiveBOMByItemID(ctx context.Context, itemID string) (*domain.BOM, error) {
	query := `SELECT ` + bomColumns + ` FROM boms WHERE parent_item_id = $1 AND is_active;`
	bom, err := scanBOM(r.pool.QueryRow(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: active BOM for item %s", apperrors.ErrNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to find active BOM for item %s: %w", itemID, err)
	}
	if bom.Lines, err = r.findLines(ctx, bom.BOMID); err != nil {
		return nil, err
	}
	return bom, nil
}

func (r *bomRepository) ListBOMsByItemID(ctx context.Context, itemID string) ([]domain.BOM, error) {
	query := `SELECT ` + bomColumns + ` FROM boms WHERE parent_item_id = $1 ORDER BY version DESC;`
	rows, err := r.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list BOMs for item %s: %w", itemID, err)
	}
	defer rows.Close()

	boms := []domain.BOM{}
	for rows.Next() {
		bom, err := scanBOM(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan BOM row: %w", err)
		}
		boms = append(boms, *bom)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range boms {
		if boms[i].Lines, err = r.findLines(ctx, boms[i].BOMID); err != nil {
			return nil, err
		}
	}
	return boms, nil
}

func (r *bomRepository) findLines(ctx context.Context, bomID string) ([]domain.BOMLine, error) {
	query := `
		SELECT line_id, bom_id, position, component_item_id, qty_per_unit, scrap_rate, process_step
		FROM bom_lines
		WHERE bom_id = $1
		ORDER BY position;
	`
	rows, err := r.pool.Query(ctx, query, bomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for BOM %s: %w", bomID, err)
	}
	defer rows.Close()

	lines := []domain.BOMLine{}
	for rows.Next() {
		var line domain.BOMLine
		if err := rows.Scan(
			&line.LineID,
			&line.BOMID,
			&line.Position,
			&line.ComponentItemID,
			&line.QtyPerUnit,
			&line.ScrapRate,
			&line.ProcessStep,
		); err != nil {
			return nil, fmt.Errorf("failed to scan BOM line row: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
