package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fabtrack/fabledger/internal/apperrors"
	"github.com/fabtrack/fabledger/internal/core/domain"
	portsrepo "github.com/fabtrack/fabledger/internal/core/ports/repositories"
	portssvc "github.com/fabtrack/fabledger/internal/core/ports/services"
	"github.com/fabtrack/fabledger/internal/dto"
	"github.com/fabtrack/fabledger/internal/middleware"
)

// bomService resolves multi-level BOM trees into flat raw-material
// requirements and caches resolutions per production order.
type bomService struct {
	bomRepo  portsrepo.BOMRepositoryFacade
	itemRepo portsrepo.ItemReader

	mu    sync.RWMutex
	cache map[string]*domain.ResolvedBOM // production order id -> resolution
}

// NewBOMService creates the BOM resolver service.
func NewBOMService(bomRepo portsrepo.BOMRepositoryFacade, itemRepo portsrepo.ItemReader) portssvc.BOMSvcFacade {
	return &bomService{
		bomRepo:  bomRepo,
		itemRepo: itemRepo,
		cache:    make(map[string]*domain.ResolvedBOM),
	}
}

var _ portssvc.BOMSvcFacade = (*bomService)(nil)

// resolveState carries the accumulator and the current traversal path.
type resolveState struct {
	// path holds the item ids on the current DFS branch, in order; onPath
	// is its membership set for cycle detection.
	path   []string
	codes  []string
	onPath map[string]bool
	// requirements accumulates leaf quantities keyed by item id.
	requirements map[string]*domain.Requirement
	order        []string // first-seen order of requirement keys
	laborCost    decimal.Decimal
}

// ResolveBOM expands the active BOM of the item into flat requirements.
func (s *bomService) ResolveBOM(ctx context.Context, itemID string, plannedQty decimal.Decimal) (*domain.ResolvedBOM, error) {
	if plannedQty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: planned quantity must be positive", apperrors.ErrValidation)
	}

	st := &resolveState{
		onPath:       make(map[string]bool),
		requirements: make(map[string]*domain.Requirement),
		laborCost:    decimal.Zero,
	}
	if err := s.resolveNode(ctx, itemID, plannedQty, st); err != nil {
		return nil, err
	}

	resolved := &domain.ResolvedBOM{
		ItemID:     itemID,
		PlannedQty: plannedQty,
		LaborCost:  st.laborCost,
	}
	componentCost := decimal.Zero
	for _, id := range st.order {
		req := st.requirements[id]
		req.Cost = req.Quantity.Mul(req.UnitCost)
		componentCost = componentCost.Add(req.Cost)
		resolved.Requirements = append(resolved.Requirements, *req)
	}
	resolved.TotalCost = componentCost.Add(st.laborCost)
	return resolved, nil
}

// resolveNode walks one node of the BOM tree depth-first. A component with an
// active BOM of its own recurses; a component without one is a leaf
// requirement. Cancellation is honored between nodes; a node already on the
// current path is a cycle and fails resolution before any mutation occurs.
func (s *bomService) resolveNode(ctx context.Context, itemID string, qty decimal.Decimal, st *resolveState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	item, err := s.itemRepo.FindItemByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to load item %s during BOM resolution: %w", itemID, err)
	}

	if st.onPath[itemID] {
		return &apperrors.CyclicBOMReferenceError{
			ItemCode: item.Code,
			Path:     append(append([]string{}, st.codes...), item.Code),
		}
	}

	bom, err := s.bomRepo.FindActiveBOMByItemID(ctx, itemID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Leaf: a raw material with no BOM of its own.
			if req, ok := st.requirements[itemID]; ok {
				req.Quantity = req.Quantity.Add(qty)
			} else {
				st.requirements[itemID] = &domain.Requirement{
					ItemID:   itemID,
					ItemCode: item.Code,
					Quantity: qty,
					UnitCost: item.UnitCost,
				}
				st.order = append(st.order, itemID)
			}
			return nil
		}
		return err
	}

	st.path = append(st.path, itemID)
	st.codes = append(st.codes, item.Code)
	st.onPath[itemID] = true
	defer func() {
		st.path = st.path[:len(st.path)-1]
		st.codes = st.codes[:len(st.codes)-1]
		delete(st.onPath, itemID)
	}()

	st.laborCost = st.laborCost.Add(bom.LaborCost.Mul(qty))

	for _, line := range bom.Lines {
		// Requirement scales by qty-per-unit and the expected scrap loss.
		childQty := qty.Mul(line.QtyPerUnit).Mul(decimal.NewFromInt(1).Add(line.ScrapRate))
		if err := s.resolveNode(ctx, line.ComponentItemID, childQty, st); err != nil {
			return err
		}
	}
	return nil
}

// ResolveForOrder is ResolveBOM memoized per production order.
func (s *bomService) ResolveForOrder(ctx context.Context, orderID string, itemID string, plannedQty decimal.Decimal) (*domain.ResolvedBOM, error) {
	s.mu.RLock()
	cached, ok := s.cache[orderID]
	s.mu.RUnlock()
	if ok && cached.ItemID == itemID && cached.PlannedQty.Equal(plannedQty) {
		return cached, nil
	}

	resolved, err := s.ResolveBOM(ctx, itemID, plannedQty)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[orderID] = resolved
	s.mu.Unlock()
	return resolved, nil
}

// InvalidateOrder drops the cached resolution for an order.
func (s *bomService) InvalidateOrder(orderID string) {
	s.mu.Lock()
	delete(s.cache, orderID)
	s.mu.Unlock()
}

// invalidateAll drops every cached resolution. Called on BOM edits; orders
// that already reserved material hold their requirements on the order row, so
// dropping the cache never alters a started order.
func (s *bomService) invalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string]*domain.ResolvedBOM)
	s.mu.Unlock()
}

// SaveBOM stores a new BOM version for a parent item.
func (s *bomService) SaveBOM(ctx context.Context, req dto.SaveBOMRequest, actorID string) (*domain.BOM, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.itemRepo.FindItemByID(ctx, req.ParentItemID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bom := domain.BOM{
		BOMID:        uuid.NewString(),
		ParentItemID: req.ParentItemID,
		IsActive:     true,
		LaborCost:    req.LaborCost,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	for i, lineReq := range req.Lines {
		// Unconfirmed lines (vision/OCR proposals) never enter the model.
		if !lineReq.Confirmed {
			return nil, fmt.Errorf("%w: line %d for component %s is not confirmed", apperrors.ErrValidation, i+1, lineReq.ComponentItemID)
		}
		if lineReq.QtyPerUnit.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: qty per unit must be positive on line %d", apperrors.ErrValidation, i+1)
		}
		if lineReq.ScrapRate.IsNegative() {
			return nil, fmt.Errorf("%w: scrap rate must not be negative on line %d", apperrors.ErrValidation, i+1)
		}
		if lineReq.ComponentItemID == req.ParentItemID {
			return nil, &apperrors.CyclicBOMReferenceError{ItemCode: req.ParentItemID, Path: []string{req.ParentItemID, req.ParentItemID}}
		}
		if _, err := s.itemRepo.FindItemByID(ctx, lineReq.ComponentItemID); err != nil {
			return nil, fmt.Errorf("component %s on line %d: %w", lineReq.ComponentItemID, i+1, err)
		}
		bom.Lines = append(bom.Lines, domain.BOMLine{
			LineID:          uuid.NewString(),
			BOMID:           bom.BOMID,
			Position:        i + 1,
			ComponentItemID: lineReq.ComponentItemID,
			QtyPerUnit:      lineReq.QtyPerUnit,
			ScrapRate:       lineReq.ScrapRate,
			ProcessStep:     lineReq.ProcessStep,
		})
	}

	// Deep cycles via nested assemblies are caught before the new version is
	// stored: the parent must not be reachable from any component subtree.
	for _, line := range bom.Lines {
		reachable, err := s.subtreeContains(ctx, line.ComponentItemID, req.ParentItemID)
		if err != nil {
			return nil, err
		}
		if reachable {
			parent, _ := s.itemRepo.FindItemByID(ctx, req.ParentItemID)
			code := req.ParentItemID
			if parent != nil {
				code = parent.Code
			}
			cycleErr := &apperrors.CyclicBOMReferenceError{ItemCode: code, Path: []string{code, line.ComponentItemID, code}}
			logger.Error("Rejected BOM that would introduce a cycle", slog.String("parent_item_id", req.ParentItemID), slog.String("component_item_id", line.ComponentItemID))
			return nil, cycleErr
		}
	}

	if err := s.bomRepo.SaveBOM(ctx, bom); err != nil {
		return nil, err
	}

	s.invalidateAll()
	logger.Info("BOM saved", slog.String("bom_id", bom.BOMID), slog.String("parent_item_id", req.ParentItemID), slog.Int("lines", len(bom.Lines)))
	return &bom, nil
}

// subtreeContains walks the active-BOM graph below rootItemID and reports
// whether targetItemID is reachable. Already-visited nodes are skipped, so the
// walk terminates even on a graph that currently contains a cycle.
func (s *bomService) subtreeContains(ctx context.Context, rootItemID, targetItemID string) (bool, error) {
	visited := make(map[string]bool)
	var walk func(itemID string) (bool, error)
	walk = func(itemID string) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if itemID == targetItemID {
			return true, nil
		}
		if visited[itemID] {
			return false, nil
		}
		visited[itemID] = true

		bom, err := s.bomRepo.FindActiveBOMByItemID(ctx, itemID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		for _, line := range bom.Lines {
			found, err := walk(line.ComponentItemID)
			if err != nil || found {
				return found, err
			}
		}
		return false, nil
	}
	return walk(rootItemID)
}

// GetActiveBOM returns the active BOM of an item with its lines.
func (s *bomService) GetActiveBOM(ctx context.Context, itemID string) (*domain.BOM, error) {
	return s.bomRepo.FindActiveBOMByItemID(ctx, itemID)
}
