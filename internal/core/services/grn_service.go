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

// grnService drives the goods receipt workflow against a job work order.
// Receipt and inspection are bookkeeping on the GRN and its job work; clearing
// moves stock out of WIP and posts the accounting entries as one unit.
type grnService struct {
	coordinator portssvc.CoordinatorSvcFacade
	txm         portsrepo.TransactionManager
	grnRepo     portsrepo.GRNRepository
	jobWorkRepo portsrepo.JobWorkRepository
	itemRepo    portsrepo.ItemReader
	partnerRepo portsrepo.PartnerRepository
	inventory   portssvc.InventoryMutator
	ledger      portssvc.LedgerPoster
}

// NewGRNService creates the GRN workflow service.
func NewGRNService(
	coordinator portssvc.CoordinatorSvcFacade,
	txm portsrepo.TransactionManager,
	grnRepo portsrepo.GRNRepository,
	jobWorkRepo portsrepo.JobWorkRepository,
	itemRepo portsrepo.ItemReader,
	partnerRepo portsrepo.PartnerRepository,
	inventory portssvc.InventoryMutator,
	ledger portssvc.LedgerPoster,
) portssvc.GRNSvcFacade {
	return &grnService{
		coordinator: coordinator,
		txm:         txm,
		grnRepo:     grnRepo,
		jobWorkRepo: jobWorkRepo,
		itemRepo:    itemRepo,
		partnerRepo: partnerRepo,
		inventory:   inventory,
		ledger:      ledger,
	}
}

var _ portssvc.GRNSvcFacade = (*grnService)(nil)

// CreateGRN opens a GRN in DRAFT against a dispatched job work.
func (s *grnService) CreateGRN(ctx context.Context, req dto.CreateGRNRequest, actorID string) (*domain.GRN, error) {
	jobWork, err := s.jobWorkRepo.FindJobWorkByID(ctx, req.JobWorkID)
	if err != nil {
		return nil, err
	}
	if jobWork.State != domain.JobWorkInProgress {
		return nil, fmt.Errorf("%w: job work %s is %s; GRNs can only be opened against IN_PROGRESS job works", apperrors.ErrValidation, jobWork.Number, jobWork.State)
	}

	now := time.Now().UTC()
	grn := domain.GRN{
		GRNID:     uuid.NewString(),
		Number:    req.Number,
		JobWorkID: jobWork.JobWorkID,
		ItemID:    jobWork.ItemID,
		State:     domain.GRNDraft,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if err := s.grnRepo.SaveGRN(ctx, grn); err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("GRN created",
		slog.String("grn_id", grn.GRNID),
		slog.String("number", grn.Number),
		slog.String("job_work_id", grn.JobWorkID),
	)
	return &grn, nil
}

// GetGRN retrieves a GRN by id.
func (s *grnService) GetGRN(ctx context.Context, grnID string) (*domain.GRN, error) {
	return s.grnRepo.FindGRNByID(ctx, grnID)
}

// ListGRNsByJobWork returns the GRNs opened against a job work.
func (s *grnService) ListGRNsByJobWork(ctx context.Context, jobWorkID string) ([]domain.GRN, error) {
	return s.grnRepo.ListGRNsByJobWorkID(ctx, jobWorkID)
}

// Transition moves the GRN toward target.
func (s *grnService) Transition(ctx context.Context, grnID string, target domain.GRNState, req dto.GRNTransitionRequest, actorID string) (*domain.GRN, error) {
	current, err := s.grnRepo.FindGRNByID(ctx, grnID)
	if err != nil {
		return nil, err
	}
	if !current.State.CanTransitionTo(target) {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity:    "GRN",
			EntityID:  grnID,
			FromState: string(current.State),
			ToState:   string(target),
		}
	}

	switch target {
	case domain.GRNMaterialReceived:
		return s.receiveMaterial(ctx, grnID, req, actorID)
	case domain.GRNInspected:
		return s.inspect(ctx, grnID, req, actorID)
	case domain.GRNClearingPosted:
		return s.postClearing(ctx, grnID, req, actorID)
	case domain.GRNCancelled:
		return s.cancel(ctx, grnID, actorID)
	default:
		return s.plainTransition(ctx, grnID, target, actorID, nil)
	}
}

// receiveMaterial records the physically received quantity and accumulates it
// on the job work. Receiving more than is outstanding at the vendor fails.
func (s *grnService) receiveMaterial(ctx context.Context, grnID string, req dto.GRNTransitionRequest, actorID string) (*domain.GRN, error) {
	if req.ReceivedQty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: received quantity must be positive", apperrors.ErrValidation)
	}

	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.txm.Rollback(ctx, tx)
	}()

	grn, err := s.grnRepo.FindGRNForUpdate(ctx, tx, grnID)
	if err != nil {
		return nil, err
	}
	if !grn.State.CanTransitionTo(domain.GRNMaterialReceived) {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity:    "GRN",
			EntityID:  grnID,
			FromState: string(grn.State),
			ToState:   string(domain.GRNMaterialReceived),
		}
	}

	jobWork, err := s.jobWorkRepo.FindJobWorkForUpdate(ctx, tx, grn.JobWorkID)
	if err != nil {
		return nil, err
	}
	outstanding := jobWork.DispatchedQty.Sub(jobWork.ReceivedQty)
	if req.ReceivedQty.GreaterThan(outstanding) {
		item, ierr := s.itemRepo.FindItemByID(ctx, grn.ItemID)
		code := grn.ItemID
		if ierr == nil {
			code = item.Code
		}
		return nil, &apperrors.OverReceiptError{
			ItemCode:       code,
			Received:       req.ReceivedQty,
			OutstandingWIP: outstanding,
		}
	}

	now := time.Now().UTC()
	grn.State = domain.GRNMaterialReceived
	grn.ReceivedQty = req.ReceivedQty
	grn.ReceivedAt = &now
	grn.LastUpdatedAt = now
	grn.LastUpdatedBy = actorID
	if err := s.grnRepo.UpdateGRN(ctx, tx, *grn); err != nil {
		return nil, err
	}

	jobWork.ReceivedQty = jobWork.ReceivedQty.Add(req.ReceivedQty)
	jobWork.LastUpdatedAt = now
	jobWork.LastUpdatedBy = actorID
	if err := s.jobWorkRepo.UpdateJobWork(ctx, tx, *jobWork); err != nil {
		return nil, err
	}

	if err := s.txm.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return grn, nil
}

// inspect records the accepted/rejected split over the received quantity.
func (s *grnService) inspect(ctx context.Context, grnID string, req dto.GRNTransitionRequest, actorID string) (*domain.GRN, error) {
	return s.plainTransition(ctx, grnID, domain.GRNInspected, actorID, func(grn *domain.GRN) error {
		grn.AcceptedQty = req.AcceptedQty
		grn.RejectedQty = req.RejectedQty
		if !grn.InspectionValid() {
			return fmt.Errorf("%w: accepted %s + rejected %s must equal received %s with no negative leg",
				apperrors.ErrValidation, grn.AcceptedQty.String(), grn.RejectedQty.String(), grn.ReceivedQty.String())
		}
		now := time.Now().UTC()
		grn.InspectedAt = &now
		return nil
	})
}

// postClearing moves accepted stock to FINISHED and rejected to SCRAP, and
// posts the clearing journal, all as one coordinator unit keyed by the GRN.
func (s *grnService) postClearing(ctx context.Context, grnID string, req dto.GRNTransitionRequest, actorID string) (*domain.GRN, error) {
	ref := domain.EventRef{Type: domain.EventGRNClearing, ID: grnID}
	outcome, err := s.coordinator.Execute(ctx, ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		grn, err := s.grnRepo.FindGRNForUpdate(ctx, tx, grnID)
		if err != nil {
			return nil, err
		}
		if grn.State != domain.GRNInspected {
			return nil, &apperrors.InvalidStateTransitionError{
				Entity:    "GRN",
				EntityID:  grnID,
				FromState: string(grn.State),
				ToState:   string(domain.GRNClearingPosted),
			}
		}

		jobWork, err := s.jobWorkRepo.FindJobWorkByID(ctx, grn.JobWorkID)
		if err != nil {
			return nil, err
		}
		item, err := s.itemRepo.FindItemByID(ctx, grn.ItemID)
		if err != nil {
			return nil, err
		}

		if _, err := s.inventory.ReceiveFromWIP(ctx, tx, grn.ItemID, grn.AcceptedQty, grn.RejectedQty, ref, actorID); err != nil {
			return nil, err
		}

		clearingValue := req.ClearingValue
		if !clearingValue.IsPositive() {
			if jobWork.IsOutsourced() {
				clearingValue = grn.AcceptedQty.Mul(jobWork.RatePerUnit)
			} else {
				clearingValue = grn.AcceptedQty.Mul(item.UnitCost)
			}
		}
		if req.TaxAmount.IsNegative() {
			return nil, fmt.Errorf("%w: tax amount must not be negative", apperrors.ErrValidation)
		}

		partnerAccount := ""
		if jobWork.IsOutsourced() {
			vendor, err := s.partnerRepo.FindPartnerByID(ctx, jobWork.VendorPartnerID)
			if err != nil {
				return nil, err
			}
			partnerAccount = vendor.Kind.ControlAccountCode()
		}

		var clearingJournalID string
		if clearingValue.IsPositive() {
			payload := domain.PostingPayload{
				Amount:             clearingValue,
				TaxAmount:          req.TaxAmount,
				Outsourced:         jobWork.IsOutsourced(),
				PartnerAccountCode: partnerAccount,
				Description:        fmt.Sprintf("clearing for GRN %s against job work %s", grn.Number, jobWork.Number),
			}
			journal, err := s.ledger.PostJournal(ctx, tx, ref, payload, actorID)
			if err != nil {
				return nil, err
			}
			clearingJournalID = journal.JournalID
		}

		// Rejected material carries its input cost out of WIP into scrap
		// expense.
		scrapValue := grn.RejectedQty.Mul(item.UnitCost)
		if scrapValue.IsPositive() {
			scrapRef := domain.EventRef{Type: domain.EventScrapWriteoff, ID: grnID}
			payload := domain.PostingPayload{
				Amount:            scrapValue,
				SourceAccountCode: domain.AcctWIPInventory,
				Description:       fmt.Sprintf("rejected material on GRN %s", grn.Number),
			}
			if _, err := s.ledger.PostJournal(ctx, tx, scrapRef, payload, actorID); err != nil {
				return nil, err
			}
		}

		now := time.Now().UTC()
		grn.State = domain.GRNClearingPosted
		grn.ClearingValue = clearingValue
		grn.TaxAmount = req.TaxAmount
		grn.ClearingJournalID = clearingJournalID
		grn.LastUpdatedAt = now
		grn.LastUpdatedBy = actorID
		if err := s.grnRepo.UpdateGRN(ctx, tx, *grn); err != nil {
			return nil, err
		}
		return grn, nil
	})
	if err != nil {
		return nil, err
	}
	if outcome.Replayed {
		return s.grnRepo.FindGRNByID(ctx, grnID)
	}
	return outcome.Result.(*domain.GRN), nil
}

// cancel voids the GRN. A receipt already recorded on the job work is handed
// back so a replacement GRN can receive it.
func (s *grnService) cancel(ctx context.Context, grnID string, actorID string) (*domain.GRN, error) {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.txm.Rollback(ctx, tx)
	}()

	grn, err := s.grnRepo.FindGRNForUpdate(ctx, tx, grnID)
	if err != nil {
		return nil, err
	}
	if !grn.State.CanTransitionTo(domain.GRNCancelled) {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity:    "GRN",
			EntityID:  grnID,
			FromState: string(grn.State),
			ToState:   string(domain.GRNCancelled),
		}
	}

	now := time.Now().UTC()
	if grn.ReceivedQty.IsPositive() {
		jobWork, err := s.jobWorkRepo.FindJobWorkForUpdate(ctx, tx, grn.JobWorkID)
		if err != nil {
			return nil, err
		}
		jobWork.ReceivedQty = jobWork.ReceivedQty.Sub(grn.ReceivedQty)
		jobWork.LastUpdatedAt = now
		jobWork.LastUpdatedBy = actorID
		if err := s.jobWorkRepo.UpdateJobWork(ctx, tx, *jobWork); err != nil {
			return nil, err
		}
	}

	grn.State = domain.GRNCancelled
	grn.LastUpdatedAt = now
	grn.LastUpdatedBy = actorID
	if err := s.grnRepo.UpdateGRN(ctx, tx, *grn); err != nil {
		return nil, err
	}
	if err := s.txm.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return grn, nil
}

func (s *grnService) plainTransition(ctx context.Context, grnID string, target domain.GRNState, actorID string, mutate func(*domain.GRN) error) (*domain.GRN, error) {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.txm.Rollback(ctx, tx)
	}()

	grn, err := s.grnRepo.FindGRNForUpdate(ctx, tx, grnID)
	if err != nil {
		return nil, err
	}
	if !grn.State.CanTransitionTo(target) {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity:    "GRN",
			EntityID:  grnID,
			FromState: string(grn.State),
			ToState:   string(target),
		}
	}
	if mutate != nil {
		if err := mutate(grn); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	grn.State = target
	grn.LastUpdatedAt = now
	grn.LastUpdatedBy = actorID
	if err := s.grnRepo.UpdateGRN(ctx, tx, *grn); err != nil {
		return nil, err
	}
	if err := s.txm.Commit(ctx, tx); err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("GRN transitioned",
		slog.String("grn_id", grnID),
		slog.String("state", string(target)),
	)
	return grn, nil
}
