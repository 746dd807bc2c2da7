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

type partnerRepository struct {
	pool *pgxpool.Pool
}

// NewPartnerRepository creates a new repository for business partners.
func NewPartnerRepository(pool *pgxpool.Pool) portsrepo.PartnerRepository {
	return &partnerRepository{pool: pool}
}

var _ portsrepo.PartnerRepository = (*partnerRepository)(nil)

const partnerColumns = `partner_id, code, name, kind, gstin, is_active, created_at, created_by, last_updated_at, last_updated_by`

func scanPartner(row pgx.Row) (*domain.Partner, error) {
	var p domain.Partner
	err := row.Scan(
		&p.PartnerID,
		&p.Code,
		&p.Name,
		&p.Kind,
		&p.GSTIN,
		&p.IsActive,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *partnerRepository) SavePartner(ctx context.Context, partner domain.Partner) error {
	query := `
		INSERT INTO partners (` + partnerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.pool.Exec(ctx, query,
		partner.PartnerID,
		partner.Code,
		partner.Name,
		partner.Kind,
		partner.GSTIN,
		partner.IsActive,
		partner.CreatedAt,
		partner.CreatedBy,
		partner.LastUpdatedAt,
		partner.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: partner code %s", apperrors.ErrDuplicate, partner.Code)
		}
		return fmt.Errorf("failed to save partner %s: %w", partner.PartnerID, err)
	}
	return nil
}

func (r *partnerRepository) FindPartnerByID(ctx context.Context, partnerID string) (*domain.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE partner_id = $1;`
	p, err := scanPartner(r.pool.QueryRow(ctx, query, partnerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: partner %s", apperrors.ErrNotFound, partnerID)
		}
		return nil, fmt.Errorf("failed to find partner %s: %w", partnerID, err)
	}
	return p, nil
}

func (r *partnerRepository) FindPartnerByCode(ctx context.Context, code string) (*domain.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE code = $1;`
	p, err := scanPartner(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: partner code %s", apperrors.ErrNotFound, code)
		}
		return nil, fmt.Errorf("failed to find partner by code %s: %w", code, err)
	}
	return p, nil
}

func (r *partnerRepository) ListPartners(ctx context.Context, kind *domain.PartnerKind) ([]domain.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE is_active`
	args := []any{}
	if kind != nil {
		query += ` AND kind = $1`
		args = append(args, *kind)
	}
	query += ` ORDER BY code;`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	defer rows.Close()

	partners := []domain.Partner{}
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan partner row: %w", err)
		}
		partners = append(partners, *p)
	}
	return partners, rows.Err()
}
