package repositories

import (
	"context"

	"github.com/fabtrack/fabledger/internal/core/domain"
)

// PartnerRepository defines persistence operations for business partners.
type PartnerRepository interface {
	SavePartner(ctx context.Context, partner domain.Partner) error
	FindPartnerByID(ctx context.Context, partnerID string) (*domain.Partner, error)
	FindPartnerByCode(ctx context.Context, code string) (*domain.Partner, error)
	ListPartners(ctx context.Context, kind *domain.PartnerKind) ([]domain.Partner, error)
}
