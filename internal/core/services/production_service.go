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

// productionService drives in-house production orders. Reservation expands the
// BOM and moves every component to WIP; completion consumes the reserved
// material, books the produced item into finished stock and absorbs labor.
type productionService struct {
	coordinator    portssvc.CoordinatorSvcFacade
	txm            portsrepo.TransactionManager
	productionRepo portsrepo.ProductionOrderRepository
	itemRepo       portsrepo.ItemReader
	bomSvc         portssvc.BOMSvcFacade
	inventory      portssvc.InventoryMutator
	ledger         portssvc.LedgerPoster
}

// NewProductionService creates the production order workflow service.
func NewProductionService(
	coordinator portssvc.CoordinatorSvcFacade,
	txm portsrepo.TransactionManager,
	productionRepo portsrepo.ProductionOrderRepository,
	itemRepo portsrepo.ItemReader,
	bomSvc portssvc.BOMSvcFacade,
	inventory portssvc.InventoryMutator,
	ledger portssvc.LedgerPoster,
) portssvc.ProductionSvcFacade {
	return &productionService{
		coordinator:    coordinator,
		txm:            txm,
		productionRepo: productionRepo,
		itemRepo:       itemRepo,
		bomSvc:         bomSvc,
		inventory:      inventory,
		ledger:         ledger,
	}
}

var _ portssvc.ProductionSvcFacade = (*productionService)(nil)

// CreateProductionOrder opens an order in PLANNED with the planned cost from
// the item's active BOM.
func (s *productionService) CreateProductionOrder(ctx context.Context, req dto.CreateProductionOrderRequest, actorID string) (*domain.ProductionOrder, error) {
	if req.PlannedQty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: planned quantity must be positive", apperrors.ErrValidation)
	}
	if _, err := s.itemRepo.FindItemByID(ctx, req.ItemID); err != nil {
		return nil, err
	}

	bom, err := s.bomSvc.GetActiveBOM(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("item %s has no active BOM: %w", req.ItemID, err)
	}

	orderID := uuid.NewString()
	resolved, err := s.bomSvc.ResolveForOrder(ctx, orderID, req.ItemID, req.PlannedQty)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := domain.ProductionOrder{
		OrderID:     orderID,
		Number:      req.Number,
		ItemID:      req.ItemID,
		BOMID:       bom.BOMID,
		State:       domain.ProductionPlanned,
		PlannedQty:  req.PlannedQty,
		ProducedQty: decimal.Zero,
		ScrappedQty: decimal.Zero,
		PlannedCost: resolved.TotalCost,
		LaborCost:   resolved.LaborCost,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if err := s.productionRepo.SaveProductionOrder(ctx, order); err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Production order created",
		slog.String("order_id", order.OrderID),
		slog.String("number", order.Number),
		slog.String("planned_cost", order.PlannedCost.String()),
	)
	return &order, nil
}

// GetProductionOrder retrieves an order by id.
func (s *productionService) GetProductionOrder(ctx context.Context, orderID string) (*domain.ProductionOrder, error) {
	return s.productionRepo.FindProductionOrderByID(ctx, orderID)
}

// ListProductionOrders returns a page of orders.
func (s *productionService) ListProductionOrders(ctx context.Context, limit, offset int) ([]domain.ProductionOrder, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.productionRepo.ListProductionOrders(ctx, limit, offset)
}

// Transition moves the order toward target.
func (s *productionService) Transition(ctx context.Context, orderID string, target domain.ProductionOrderState, req dto.ProductionTransitionRequest, actorID string) (*domain.ProductionOrder, error) {
	current, err := s.productionRepo.FindProductionOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !current.State.CanTransitionTo(target) {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity:    "production order",
			EntityID:  orderID,
			FromState: string(current.State),
			ToState:   string(target),
		}
	}

	switch target {
	case domain.ProductionMaterialReserved:
		return s.reserveMaterial(ctx, orderID, actorID)
	case domain.ProductionCompleted, domain.ProductionPartial:
		return s.complete(ctx, orderID, target, req, actorID)
	case domain.ProductionCancelled:
		return s.cancel(ctx, orderID, actorID)
	default:
		return s.plainTransition(ctx, orderID, target, actorID)
	}
}

// reserveMaterial resolves the BOM and moves every component requirement to
// WIP as one coordinator unit. The resolved requirements are frozen on the
// order row.
func (s *productionService) reserveMaterial(ctx context.Context, orderID string, actorID string) (*domain.ProductionOrder, error) {
	ref := domain.EventRef{Type: domain.EventProductionReserve, ID: orderID}
	outcome, err := s.coordinator.Execute(ctx, ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		order, err := s.productionRepo.FindProductionOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return nil, err
		}
		if order.State != domain.ProductionPlanned {
			return nil, &apperrors.InvalidStateTransitionError{
				Entity:    "production order",
				EntityID:  orderID,
				FromState: string(order.State),
				ToState:   string(domain.ProductionMaterialReserved),
			}
		}

		resolved, err := s.bomSvc.ResolveForOrder(ctx, orderID, order.ItemID, order.PlannedQty)
		if err != nil {
			return nil, err
		}

		materialCost := decimal.Zero
		for _, requirement := range resolved.Requirements {
			if _, err := s.inventory.MoveToWIP(ctx, tx, requirement.ItemID, requirement.Quantity, ref, actorID); err != nil {
				return nil, err
			}
			materialCost = materialCost.Add(requirement.Cost)
		}

		if materialCost.IsPositive() {
			payload := domain.PostingPayload{
				Amount:      materialCost,
				Description: fmt.Sprintf("material reservation for production order %s", order.Number),
			}
			if _, err := s.ledger.PostJournal(ctx, tx, ref, payload, actorID); err != nil {
				return nil, err
			}
		}

		now := time.Now().UTC()
		order.State = domain.ProductionMaterialReserved
		order.PlannedCost = resolved.TotalCost
		order.LaborCost = resolved.LaborCost
		order.Requirements = resolved.Requirements
		order.ReservedAt = &now
		order.LastUpdatedAt = now
		order.LastUpdatedBy = actorID
		if err := s.productionRepo.UpdateProductionOrder(ctx, tx, *order); err != nil {
			return nil, err
		}
		return order, nil
	})
	if err != nil {
		return nil, err
	}
	s.bomSvc.InvalidateOrder(orderID)
	if outcome.Replayed {
		return s.productionRepo.FindProductionOrderByID(ctx, orderID)
	}
	return outcome.Result.(*domain.ProductionOrder), nil
}

// complete books production output. Components are consumed from WIP in
// proportion to the units accounted for; produced units enter finished stock
// at material plus labor, scrapped units are written off.
func (s *productionService) complete(ctx context.Context, orderID string, target domain.ProductionOrderState, req dto.ProductionTransitionRequest, actorID string) (*domain.ProductionOrder, error) {
	eventID := orderID
	if target == domain.ProductionPartial {
		eventID = orderID + ":partial"
	}
	ref := domain.EventRef{Type: domain.EventProductionCompletion, ID: eventID}

	outcome, err := s.coordinator.Execute(ctx, ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		order, err := s.productionRepo.FindProductionOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return nil, err
		}
		if !order.State.CanTransitionTo(target) {
			return nil, &apperrors.InvalidStateTransitionError{
				Entity:    "production order",
				EntityID:  orderID,
				FromState: string(order.State),
				ToState:   string(target),
			}
		}

		if req.ProducedQty.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: produced quantity must be positive", apperrors.ErrValidation)
		}
		if req.ScrappedQty.IsNegative() {
			return nil, fmt.Errorf("%w: scrapped quantity must not be negative", apperrors.ErrValidation)
		}

		newUnits := req.ProducedQty.Add(req.ScrappedQty)
		accounted := order.ProducedQty.Add(order.ScrappedQty).Add(newUnits)
		if accounted.GreaterThan(order.PlannedQty) {
			return nil, fmt.Errorf("%w: %s units accounted for exceed planned %s", apperrors.ErrValidation, accounted.String(), order.PlannedQty.String())
		}
		if target == domain.ProductionCompleted && !accounted.Equal(order.PlannedQty) {
			return nil, fmt.Errorf("%w: only %s of %s planned units accounted for; use PARTIALLY_COMPLETED or cancel the remainder", apperrors.ErrValidation, accounted.String(), order.PlannedQty.String())
		}
		if target == domain.ProductionPartial && accounted.Equal(order.PlannedQty) {
			return nil, fmt.Errorf("%w: all planned units accounted for; use COMPLETED", apperrors.ErrValidation)
		}

		// Consume the reserved components in proportion to the units
		// accounted for in this completion.
		fraction := newUnits.Div(order.PlannedQty)
		for _, requirement := range order.Requirements {
			consumeQty := requirement.Quantity.Mul(fraction)
			if _, err := s.inventory.ConsumeWIP(ctx, tx, requirement.ItemID, consumeQty, ref, actorID); err != nil {
				return nil, err
			}
		}

		if _, err := s.inventory.ReceiveProduced(ctx, tx, order.ItemID, req.ProducedQty, req.ScrappedQty, ref, actorID); err != nil {
			return nil, err
		}

		materialTotal := order.PlannedCost.Sub(order.LaborCost)
		materialGood := materialTotal.Mul(req.ProducedQty).Div(order.PlannedQty)
		materialScrap := materialTotal.Mul(req.ScrappedQty).Div(order.PlannedQty)
		laborGood := order.LaborCost.Mul(req.ProducedQty).Div(order.PlannedQty)

		if materialGood.Add(laborGood).IsPositive() {
			payload := domain.PostingPayload{
				MaterialCost: materialGood,
				LaborCost:    laborGood,
				Description:  fmt.Sprintf("completion of %s units on production order %s", req.ProducedQty.String(), order.Number),
			}
			if _, err := s.ledger.PostJournal(ctx, tx, ref, payload, actorID); err != nil {
				return nil, err
			}
		}
		if materialScrap.IsPositive() {
			scrapRef := domain.EventRef{Type: domain.EventScrapWriteoff, ID: eventID}
			payload := domain.PostingPayload{
				Amount:            materialScrap,
				SourceAccountCode: domain.AcctWIPInventory,
				Description:       fmt.Sprintf("scrapped units on production order %s", order.Number),
			}
			if _, err := s.ledger.PostJournal(ctx, tx, scrapRef, payload, actorID); err != nil {
				return nil, err
			}
		}

		now := time.Now().UTC()
		order.State = target
		order.ProducedQty = order.ProducedQty.Add(req.ProducedQty)
		order.ScrappedQty = order.ScrappedQty.Add(req.ScrappedQty)
		order.LastUpdatedAt = now
		order.LastUpdatedBy = actorID
		if target == domain.ProductionCompleted {
			order.CompletedAt = &now
		}
		if err := s.productionRepo.UpdateProductionOrder(ctx, tx, *order); err != nil {
			return nil, err
		}
		return order, nil
	})
	if err != nil {
		return nil, err
	}
	if outcome.Replayed {
		return s.productionRepo.FindProductionOrderByID(ctx, orderID)
	}
	return outcome.Result.(*domain.ProductionOrder), nil
}

// cancel terminates the order. Material reserved but not yet consumed returns
// to RAW with a matching material-return posting.
func (s *productionService) cancel(ctx context.Context, orderID string, actorID string) (*domain.ProductionOrder, error) {
	ref := domain.EventRef{Type: domain.EventMaterialReturn, ID: orderID}
	outcome, err := s.coordinator.Execute(ctx, ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		order, err := s.productionRepo.FindProductionOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return nil, err
		}
		if !order.State.CanTransitionTo(domain.ProductionCancelled) {
			return nil, &apperrors.InvalidStateTransitionError{
				Entity:    "production order",
				EntityID:  orderID,
				FromState: string(order.State),
				ToState:   string(domain.ProductionCancelled),
			}
		}

		if order.ReservedAt != nil {
			remainingUnits := order.PlannedQty.Sub(order.ProducedQty).Sub(order.ScrappedQty)
			if remainingUnits.IsPositive() {
				fraction := remainingUnits.Div(order.PlannedQty)
				for _, requirement := range order.Requirements {
					returnQty := requirement.Quantity.Mul(fraction)
					if _, err := s.inventory.ReturnFromWIP(ctx, tx, requirement.ItemID, returnQty, ref, actorID); err != nil {
						return nil, err
					}
				}
				materialTotal := order.PlannedCost.Sub(order.LaborCost)
				returnValue := materialTotal.Mul(fraction)
				if returnValue.IsPositive() {
					payload := domain.PostingPayload{
						Amount:      returnValue,
						Description: fmt.Sprintf("material returned on cancellation of production order %s", order.Number),
					}
					if _, err := s.ledger.PostJournal(ctx, tx, ref, payload, actorID); err != nil {
						return nil, err
					}
				}
			}
		}

		now := time.Now().UTC()
		order.State = domain.ProductionCancelled
		order.LastUpdatedAt = now
		order.LastUpdatedBy = actorID
		if err := s.productionRepo.UpdateProductionOrder(ctx, tx, *order); err != nil {
			return nil, err
		}
		return order, nil
	})
	if err != nil {
		return nil, err
	}
	s.bomSvc.InvalidateOrder(orderID)
	if outcome.Replayed {
		return s.productionRepo.FindProductionOrderByID(ctx, orderID)
	}
	return outcome.Result.(*domain.ProductionOrder), nil
}

func (s *productionService) plainTransition(ctx context.Context, orderID string, target domain.ProductionOrderState, actorID string) (*domain.ProductionOrder, error) {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.txm.Rollback(ctx, tx)
	}()

	order, err := s.productionRepo.FindProductionOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.State.CanTransitionTo(target) {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity:    "production order",
			EntityID:  orderID,
			FromState: string(order.State),
			ToState:   string(target),
		}
	}

	now := time.Now().UTC()
	order.State = target
	order.LastUpdatedAt = now
	order.LastUpdatedBy = actorID
	if err := s.productionRepo.UpdateProductionOrder(ctx, tx, *order); err != nil {
		return nil, err
	}
	if err := s.txm.Commit(ctx, tx); err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Production order transitioned",
		slog.String("order_id", orderID),
		slog.String("state", string(target)),
	)
	return order, nil
}
