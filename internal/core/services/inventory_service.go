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
	"github.com/fabtrack/fabledger/internal/middleware"
)

// inventoryService enforces valid stock state transitions and quantity
// conservation per item. Every mutation locks the item row, writes the bucket
// columns and appends movement rows in the caller's transaction; the movement
// log stays the source of truth and the columns a recomputable cache.
type inventoryService struct {
	itemRepo     portsrepo.ItemRepositoryFacade
	movementRepo portsrepo.MovementRepositoryFacade
	qtyPrecision int32
}

// NewInventoryService creates the inventory state machine service.
func NewInventoryService(itemRepo portsrepo.ItemRepositoryFacade, movementRepo portsrepo.MovementRepositoryFacade, qtyPrecision int32) portssvc.InventorySvcFacade {
	return &inventoryService{
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		qtyPrecision: qtyPrecision,
	}
}

var _ portssvc.InventorySvcFacade = (*inventoryService)(nil)

func (s *inventoryService) normalize(qty decimal.Decimal) decimal.Decimal {
	return qty.Round(s.qtyPrecision)
}

func (s *inventoryService) validateQty(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: quantity must be positive, got %s", apperrors.ErrValidation, qty.String())
	}
	return nil
}

// applyMovement writes the updated item buckets and appends one movement row.
func (s *inventoryService) applyMovement(ctx context.Context, tx pgx.Tx, item *domain.Item, from, to domain.StockState, qty decimal.Decimal, ref domain.EventRef, notes, actorID string) (*domain.Movement, error) {
	if err := s.itemRepo.UpdateItemQuantities(ctx, tx, *item); err != nil {
		return nil, fmt.Errorf("failed to update quantities for item %s: %w", item.ItemID, err)
	}
	movement := domain.Movement{
		MovementID: uuid.NewString(),
		ItemID:     item.ItemID,
		FromState:  from,
		ToState:    to,
		Quantity:   qty,
		EventType:  ref.Type,
		EventID:    ref.ID,
		Notes:      notes,
		CreatedAt:  time.Now().UTC(),
		CreatedBy:  actorID,
	}
	if err := s.movementRepo.SaveMovement(ctx, tx, movement); err != nil {
		return nil, fmt.Errorf("failed to save movement for item %s: %w", item.ItemID, err)
	}
	return &movement, nil
}

// MoveToWIP moves qty from RAW to WIP.
func (s *inventoryService) MoveToWIP(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, ref domain.EventRef, actorID string) (*domain.Movement, error) {
	qty = s.normalize(qty)
	if err := s.validateQty(qty); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindItemForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	if item.QtyRaw.LessThan(qty) {
		return nil, &apperrors.InsufficientStockError{
			ItemCode:  item.Code,
			Bucket:    string(domain.StateRaw),
			Requested: qty,
			Available: item.QtyRaw,
		}
	}

	item.QtyRaw = item.QtyRaw.Sub(qty)
	item.QtyWIP = item.QtyWIP.Add(qty)
	return s.applyMovement(ctx, tx, item, domain.StateRaw, domain.StateWIP, qty, ref, "", actorID)
}

// ReceiveFromWIP receives finished and scrap quantities back out of WIP.
// Either leg may be zero, but not both.
func (s *inventoryService) ReceiveFromWIP(ctx context.Context, tx pgx.Tx, itemID string, finishedQty, scrapQty decimal.Decimal, ref domain.EventRef, actorID string) ([]domain.Movement, error) {
	finishedQty = s.normalize(finishedQty)
	scrapQty = s.normalize(scrapQty)
	if finishedQty.IsNegative() || scrapQty.IsNegative() {
		return nil, fmt.Errorf("%w: receipt quantities must not be negative", apperrors.ErrValidation)
	}
	total := finishedQty.Add(scrapQty)
	if total.IsZero() {
		return nil, fmt.Errorf("%w: receipt must move some quantity", apperrors.ErrValidation)
	}

	item, err := s.itemRepo.FindItemForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	if item.QtyWIP.LessThan(total) {
		return nil, &apperrors.OverReceiptError{
			ItemCode:       item.Code,
			Received:       total,
			OutstandingWIP: item.QtyWIP,
		}
	}

	item.QtyWIP = item.QtyWIP.Sub(total)
	item.QtyFinished = item.QtyFinished.Add(finishedQty)
	item.QtyScrap = item.QtyScrap.Add(scrapQty)

	if err := s.itemRepo.UpdateItemQuantities(ctx, tx, *item); err != nil {
		return nil, fmt.Errorf("failed to update quantities for item %s: %w", item.ItemID, err)
	}

	now := time.Now().UTC()
	movements := make([]domain.Movement, 0, 2)
	if finishedQty.IsPositive() {
		movements = append(movements, domain.Movement{
			MovementID: uuid.NewString(),
			ItemID:     item.ItemID,
			FromState:  domain.StateWIP,
			ToState:    domain.StateFinished,
			Quantity:   finishedQty,
			EventType:  ref.Type,
			EventID:    ref.ID,
			CreatedAt:  now,
			CreatedBy:  actorID,
		})
	}
	if scrapQty.IsPositive() {
		movements = append(movements, domain.Movement{
			MovementID: uuid.NewString(),
			ItemID:     item.ItemID,
			FromState:  domain.StateWIP,
			ToState:    domain.StateScrap,
			Quantity:   scrapQty,
			EventType:  ref.Type,
			EventID:    ref.ID,
			CreatedAt:  now,
			CreatedBy:  actorID,
		})
	}
	for _, m := range movements {
		if err := s.movementRepo.SaveMovement(ctx, tx, m); err != nil {
			return nil, fmt.Errorf("failed to save movement for item %s: %w", item.ItemID, err)
		}
	}
	return movements, nil
}

// ReceiveRaw adds purchased quantity to the RAW bucket.
func (s *inventoryService) ReceiveRaw(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, ref domain.EventRef, actorID string) (*domain.Movement, error) {
	qty = s.normalize(qty)
	if err := s.validateQty(qty); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindItemForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	item.QtyRaw = item.QtyRaw.Add(qty)
	return s.applyMovement(ctx, tx, item, domain.StateExternal, domain.StateRaw, qty, ref, "", actorID)
}

// ConsumeFinished removes qty from FINISHED for a sale or further assembly.
// With allowRawSubstitute, available stock (raw + finished) may cover the
// request; finished is drawn first, then raw, each leg its own movement.
func (s *inventoryService) ConsumeFinished(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, allowRawSubstitute bool, ref domain.EventRef, actorID string) ([]domain.Movement, error) {
	qty = s.normalize(qty)
	if err := s.validateQty(qty); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindItemForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	available := item.QtyFinished
	bucket := domain.StateFinished
	if allowRawSubstitute {
		available = item.AvailableStock()
	}
	if available.LessThan(qty) {
		return nil, &apperrors.InsufficientStockError{
			ItemCode:  item.Code,
			Bucket:    string(bucket),
			Requested: qty,
			Available: available,
		}
	}

	fromFinished := decimal.Min(qty, item.QtyFinished)
	fromRaw := qty.Sub(fromFinished)

	item.QtyFinished = item.QtyFinished.Sub(fromFinished)
	item.QtyRaw = item.QtyRaw.Sub(fromRaw)

	if err := s.itemRepo.UpdateItemQuantities(ctx, tx, *item); err != nil {
		return nil, fmt.Errorf("failed to update quantities for item %s: %w", item.ItemID, err)
	}

	now := time.Now().UTC()
	movements := make([]domain.Movement, 0, 2)
	if fromFinished.IsPositive() {
		movements = append(movements, domain.Movement{
			MovementID: uuid.NewString(),
			ItemID:     item.ItemID,
			FromState:  domain.StateFinished,
			ToState:    domain.StateExternal,
			Quantity:   fromFinished,
			EventType:  ref.Type,
			EventID:    ref.ID,
			CreatedAt:  now,
			CreatedBy:  actorID,
		})
	}
	if fromRaw.IsPositive() {
		movements = append(movements, domain.Movement{
			MovementID: uuid.NewString(),
			ItemID:     item.ItemID,
			FromState:  domain.StateRaw,
			ToState:    domain.StateExternal,
			Quantity:   fromRaw,
			EventType:  ref.Type,
			EventID:    ref.ID,
			Notes:      "raw substituted for finished",
			CreatedAt:  now,
			CreatedBy:  actorID,
		})
	}
	for _, m := range movements {
		if err := s.movementRepo.SaveMovement(ctx, tx, m); err != nil {
			return nil, fmt.Errorf("failed to save movement for item %s: %w", item.ItemID, err)
		}
	}
	return movements, nil
}

// ConsumeWIP removes qty from WIP when components are converted into a
// produced assembly.
func (s *inventoryService) ConsumeWIP(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, ref domain.EventRef, actorID string) (*domain.Movement, error) {
	qty = s.normalize(qty)
	if err := s.validateQty(qty); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindItemForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	if item.QtyWIP.LessThan(qty) {
		return nil, &apperrors.InsufficientStockError{
			ItemCode:  item.Code,
			Bucket:    string(domain.StateWIP),
			Requested: qty,
			Available: item.QtyWIP,
		}
	}

	item.QtyWIP = item.QtyWIP.Sub(qty)
	return s.applyMovement(ctx, tx, item, domain.StateWIP, domain.StateExternal, qty, ref, "consumed into assembly", actorID)
}

// ReturnFromWIP moves qty back from WIP to RAW when dispatched material comes
// back unprocessed.
func (s *inventoryService) ReturnFromWIP(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, ref domain.EventRef, actorID string) (*domain.Movement, error) {
	qty = s.normalize(qty)
	if err := s.validateQty(qty); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindItemForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	if item.QtyWIP.LessThan(qty) {
		return nil, &apperrors.InsufficientStockError{
			ItemCode:  item.Code,
			Bucket:    string(domain.StateWIP),
			Requested: qty,
			Available: item.QtyWIP,
		}
	}

	item.QtyWIP = item.QtyWIP.Sub(qty)
	item.QtyRaw = item.QtyRaw.Add(qty)
	return s.applyMovement(ctx, tx, item, domain.StateWIP, domain.StateRaw, qty, ref, "returned unprocessed", actorID)
}

// ReceiveProduced books production output into the produced item's FINISHED
// and SCRAP buckets. Either leg may be zero, but not both.
func (s *inventoryService) ReceiveProduced(ctx context.Context, tx pgx.Tx, itemID string, finishedQty, scrapQty decimal.Decimal, ref domain.EventRef, actorID string) ([]domain.Movement, error) {
	finishedQty = s.normalize(finishedQty)
	scrapQty = s.normalize(scrapQty)
	if finishedQty.IsNegative() || scrapQty.IsNegative() {
		return nil, fmt.Errorf("%w: produced quantities must not be negative", apperrors.ErrValidation)
	}
	if finishedQty.Add(scrapQty).IsZero() {
		return nil, fmt.Errorf("%w: production receipt must move some quantity", apperrors.ErrValidation)
	}

	item, err := s.itemRepo.FindItemForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	item.QtyFinished = item.QtyFinished.Add(finishedQty)
	item.QtyScrap = item.QtyScrap.Add(scrapQty)

	if err := s.itemRepo.UpdateItemQuantities(ctx, tx, *item); err != nil {
		return nil, fmt.Errorf("failed to update quantities for item %s: %w", item.ItemID, err)
	}

	now := time.Now().UTC()
	movements := make([]domain.Movement, 0, 2)
	if finishedQty.IsPositive() {
		movements = append(movements, domain.Movement{
			MovementID: uuid.NewString(),
			ItemID:     item.ItemID,
			FromState:  domain.StateExternal,
			ToState:    domain.StateFinished,
			Quantity:   finishedQty,
			EventType:  ref.Type,
			EventID:    ref.ID,
			CreatedAt:  now,
			CreatedBy:  actorID,
		})
	}
	if scrapQty.IsPositive() {
		movements = append(movements, domain.Movement{
			MovementID: uuid.NewString(),
			ItemID:     item.ItemID,
			FromState:  domain.StateExternal,
			ToState:    domain.StateScrap,
			Quantity:   scrapQty,
			EventType:  ref.Type,
			EventID:    ref.ID,
			Notes:      "scrapped at production",
			CreatedAt:  now,
			CreatedBy:  actorID,
		})
	}
	for _, m := range movements {
		if err := s.movementRepo.SaveMovement(ctx, tx, m); err != nil {
			return nil, fmt.Errorf("failed to save movement for item %s: %w", item.ItemID, err)
		}
	}
	return movements, nil
}

// ScrapAdjust is a manual scrap correction out of fromState.
func (s *inventoryService) ScrapAdjust(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, fromState domain.StockState, ref domain.EventRef, actorID string) (*domain.Movement, error) {
	qty = s.normalize(qty)
	if err := s.validateQty(qty); err != nil {
		return nil, err
	}
	if !fromState.IsBucket() || fromState == domain.StateScrap {
		return nil, fmt.Errorf("%w: cannot scrap-adjust from state %s", apperrors.ErrValidation, fromState)
	}

	item, err := s.itemRepo.FindItemForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	held := item.QtyIn(fromState)
	if held.LessThan(qty) {
		return nil, &apperrors.InsufficientStockError{
			ItemCode:  item.Code,
			Bucket:    string(fromState),
			Requested: qty,
			Available: held,
		}
	}

	switch fromState {
	case domain.StateRaw:
		item.QtyRaw = item.QtyRaw.Sub(qty)
	case domain.StateWIP:
		item.QtyWIP = item.QtyWIP.Sub(qty)
	case domain.StateFinished:
		item.QtyFinished = item.QtyFinished.Sub(qty)
	}
	item.QtyScrap = item.QtyScrap.Add(qty)

	return s.applyMovement(ctx, tx, item, fromState, domain.StateScrap, qty, domain.EventRef{Type: domain.EventManualAdjustment, ID: ref.ID}, "manual scrap adjustment", actorID)
}

// GetStockSnapshot returns the cached bucket quantities of an item.
func (s *inventoryService) GetStockSnapshot(ctx context.Context, itemID string) (*domain.StockSnapshot, error) {
	item, err := s.itemRepo.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	snap := domain.SnapshotOf(*item)
	return &snap, nil
}

// RebuildSnapshot derives the bucket quantities of an item by replaying its
// movement log. Drift against the cached columns is logged, never silently
// patched; the caller decides whether to repost a correction.
func (s *inventoryService) RebuildSnapshot(ctx context.Context, itemID string) (*domain.StockSnapshot, error) {
	item, err := s.itemRepo.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	movements, err := s.movementRepo.FindMovementsByItemID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	buckets := map[domain.StockState]decimal.Decimal{
		domain.StateRaw:      decimal.Zero,
		domain.StateWIP:      decimal.Zero,
		domain.StateFinished: decimal.Zero,
		domain.StateScrap:    decimal.Zero,
	}
	for _, m := range movements {
		if m.FromState.IsBucket() {
			buckets[m.FromState] = buckets[m.FromState].Sub(m.Quantity)
		}
		if m.ToState.IsBucket() {
			buckets[m.ToState] = buckets[m.ToState].Add(m.Quantity)
		}
	}

	snap := &domain.StockSnapshot{
		ItemID:   item.ItemID,
		ItemCode: item.Code,
		Raw:      buckets[domain.StateRaw],
		WIP:      buckets[domain.StateWIP],
		Finished: buckets[domain.StateFinished],
		Scrap:    buckets[domain.StateScrap],
	}
	snap.Available = snap.Raw.Add(snap.Finished)
	snap.Total = snap.Raw.Add(snap.WIP).Add(snap.Finished).Add(snap.Scrap)

	cached := domain.SnapshotOf(*item)
	if !snap.Raw.Equal(cached.Raw) || !snap.WIP.Equal(cached.WIP) ||
		!snap.Finished.Equal(cached.Finished) || !snap.Scrap.Equal(cached.Scrap) {
		middleware.GetLoggerFromCtx(ctx).Warn("Stock cache drift detected",
			slog.String("item_id", itemID),
			slog.String("item_code", item.Code),
			slog.String("cached_total", cached.Total.String()),
			slog.String("replayed_total", snap.Total.String()),
		)
	}

	return snap, nil
}

// ListMovements pages through the movement history of an item.
func (s *inventoryService) ListMovements(ctx context.Context, itemID string, limit int, nextToken *string) ([]domain.Movement, *string, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.movementRepo.ListMovementsByItemID(ctx, itemID, limit, nextToken)
}
