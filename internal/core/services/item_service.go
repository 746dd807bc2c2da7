package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fabtrack/fabledger/internal/apperrors"
	"github.com/fabtrack/fabledger/internal/core/domain"
	portsrepo "github.com/fabtrack/fabledger/internal/core/ports/repositories"
	portssvc "github.com/fabtrack/fabledger/internal/core/ports/services"
	"github.com/fabtrack/fabledger/internal/dto"
	"github.com/fabtrack/fabledger/internal/middleware"
)

// itemService manages item master data. Opening stock goes through the
// inventory state machine as a receipt so the movement log stays complete from
// day one.
type itemService struct {
	itemRepo    portsrepo.ItemRepositoryFacade
	coordinator portssvc.CoordinatorSvcFacade
	inventory   portssvc.InventoryMutator
}

// NewItemService creates the item master service.
func NewItemService(itemRepo portsrepo.ItemRepositoryFacade, coordinator portssvc.CoordinatorSvcFacade, inventory portssvc.InventoryMutator) portssvc.ItemSvcFacade {
	return &itemService{
		itemRepo:    itemRepo,
		coordinator: coordinator,
		inventory:   inventory,
	}
}

var _ portssvc.ItemSvcFacade = (*itemService)(nil)

// CreateItem persists a new item and, when an opening raw quantity is given,
// books it as a receipt movement.
func (s *itemService) CreateItem(ctx context.Context, req dto.CreateItemRequest, actorID string) (*domain.Item, error) {
	if req.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: unit cost must not be negative", apperrors.ErrValidation)
	}
	if req.OpeningRawQty.IsNegative() {
		return nil, fmt.Errorf("%w: opening raw quantity must not be negative", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	item := domain.Item{
		ItemID:        uuid.NewString(),
		Code:          req.Code,
		Name:          req.Name,
		UnitOfMeasure: req.UnitOfMeasure,
		UnitCost:      req.UnitCost,
		QtyRaw:        decimal.Zero,
		QtyWIP:        decimal.Zero,
		QtyFinished:   decimal.Zero,
		QtyScrap:      decimal.Zero,
		IsActive:      true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if err := s.itemRepo.SaveItem(ctx, item); err != nil {
		return nil, err
	}

	if req.OpeningRawQty.IsPositive() {
		ref := domain.EventRef{Type: domain.EventManualAdjustment, ID: "opening:" + item.ItemID}
		_, err := s.coordinator.Execute(ctx, ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
			return s.inventory.ReceiveRaw(ctx, tx, item.ItemID, req.OpeningRawQty, ref, actorID)
		})
		if err != nil {
			return nil, err
		}
		item.QtyRaw = req.OpeningRawQty
	}

	middleware.GetLoggerFromCtx(ctx).Info("Item created",
		slog.String("item_id", item.ItemID),
		slog.String("code", item.Code),
	)
	return &item, nil
}

// GetItem retrieves an item by id.
func (s *itemService) GetItem(ctx context.Context, itemID string) (*domain.Item, error) {
	return s.itemRepo.FindItemByID(ctx, itemID)
}

// GetItemByCode retrieves an item by its user-facing code.
func (s *itemService) GetItemByCode(ctx context.Context, code string) (*domain.Item, error) {
	return s.itemRepo.FindItemByCode(ctx, code)
}

// ListItems returns a page of active items.
func (s *itemService) ListItems(ctx context.Context, limit, offset int) ([]domain.Item, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.itemRepo.ListItems(ctx, limit, offset)
}
