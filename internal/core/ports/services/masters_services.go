package services

import (
	"context"

	"github.com/fabtrack/fabledger/internal/core/domain"
	"github.com/fabtrack/fabledger/internal/dto"
)

// ItemSvcFacade manages item master data. Stock quantities are never touched
// here; they belong to the inventory state machine.
type ItemSvcFacade interface {
	CreateItem(ctx context.Context, req dto.CreateItemRequest, actorID string) (*domain.Item, error)
	GetItem(ctx context.Context, itemID string) (*domain.Item, error)
	GetItemByCode(ctx context.Context, code string) (*domain.Item, error)
	ListItems(ctx context.Context, limit, offset int) ([]domain.Item, error)
}

// PartnerSvcFacade manages business partners.
type PartnerSvcFacade interface {
	CreatePartner(ctx context.Context, req dto.CreatePartnerRequest, actorID string) (*domain.Partner, error)
	GetPartner(ctx context.Context, partnerID string) (*domain.Partner, error)
	ListPartners(ctx context.Context, kind *domain.PartnerKind) ([]domain.Partner, error)
}
