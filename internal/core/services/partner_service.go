package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fabtrack/fabledger/internal/apperrors"
	"github.com/fabtrack/fabledger/internal/core/domain"
	portsrepo "github.com/fabtrack/fabledger/internal/core/ports/repositories"
	portssvc "github.com/fabtrack/fabledger/internal/core/ports/services"
	"github.com/fabtrack/fabledger/internal/dto"
)

type partnerService struct {
	partnerRepo portsrepo.PartnerRepository
}

// NewPartnerService creates the partner registry service.
func NewPartnerService(partnerRepo portsrepo.PartnerRepository) portssvc.PartnerSvcFacade {
	return &partnerService{partnerRepo: partnerRepo}
}

var _ portssvc.PartnerSvcFacade = (*partnerService)(nil)

// CreatePartner registers a business partner.
func (s *partnerService) CreatePartner(ctx context.Context, req dto.CreatePartnerRequest, actorID string) (*domain.Partner, error) {
	kind := domain.PartnerKind(req.Kind)
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown partner kind %s", apperrors.ErrValidation, req.Kind)
	}

	now := time.Now().UTC()
	partner := domain.Partner{
		PartnerID: uuid.NewString(),
		Code:      req.Code,
		Name:      req.Name,
		Kind:      kind,
		GSTIN:     req.GSTIN,
		IsActive:  true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if err := s.partnerRepo.SavePartner(ctx, partner); err != nil {
		return nil, err
	}
	return &partner, nil
}

// GetPartner retrieves a partner by id.
func (s *partnerService) GetPartner(ctx context.Context, partnerID string) (*domain.Partner, error) {
	return s.partnerRepo.FindPartnerByID(ctx, partnerID)
}

// ListPartners returns partners, optionally filtered by kind.
func (s *partnerService) ListPartners(ctx context.Context, kind *domain.PartnerKind) ([]domain.Partner, error) {
	if kind != nil && !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown partner kind %s", apperrors.ErrValidation, *kind)
	}
	return s.partnerRepo.ListPartners(ctx, kind)
}
