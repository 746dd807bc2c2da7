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

// jobWorkService drives the job work order workflow. Transitions that move
// stock or money (dispatch, cancellation after dispatch) run as coordinator
// units; pure state changes run in a plain transaction with the row locked.
type jobWorkService struct {
	coordinator portssvc.CoordinatorSvcFacade
	txm         portsrepo.TransactionManager
	jobWorkRepo portsrepo.JobWorkRepository
	itemRepo    portsrepo.ItemReader
	partnerRepo portsrepo.PartnerRepository
	inventory   portssvc.InventoryMutator
	ledger      portssvc.LedgerPoster
}

// NewJobWorkService creates the job work workflow service.
func NewJobWorkService(
	coordinator portssvc.CoordinatorSvcFacade,
	txm portsrepo.TransactionManager,
	jobWorkRepo portsrepo.JobWorkRepository,
	itemRepo portsrepo.ItemReader,
	partnerRepo portsrepo.PartnerRepository,
	inventory portssvc.InventoryMutator,
	ledger portssvc.LedgerPoster,
) portssvc.JobWorkSvcFacade {
	return &jobWorkService{
		coordinator: coordinator,
		txm:         txm,
		jobWorkRepo: jobWorkRepo,
		itemRepo:    itemRepo,
		partnerRepo: partnerRepo,
		inventory:   inventory,
		ledger:      ledger,
	}
}

var _ portssvc.JobWorkSvcFacade = (*jobWorkService)(nil)

// CreateJobWork opens a job work order in CREATED.
func (s *jobWorkService) CreateJobWork(ctx context.Context, req dto.CreateJobWorkRequest, actorID string) (*domain.JobWork, error) {
	if req.DispatchedQty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: dispatched quantity must be positive", apperrors.ErrValidation)
	}
	if req.RatePerUnit.IsNegative() {
		return nil, fmt.Errorf("%w: rate per unit must not be negative", apperrors.ErrValidation)
	}
	if _, err := s.itemRepo.FindItemByID(ctx, req.ItemID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	jobWork := domain.JobWork{
		JobWorkID:     uuid.NewString(),
		Number:        req.Number,
		ItemID:        req.ItemID,
		State:         domain.JobWorkCreated,
		DispatchedQty: req.DispatchedQty,
		ReceivedQty:   decimal.Zero,
		RatePerUnit:   req.RatePerUnit,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if err := s.jobWorkRepo.SaveJobWork(ctx, jobWork); err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Job work created",
		slog.String("job_work_id", jobWork.JobWorkID),
		slog.String("number", jobWork.Number),
	)
	return &jobWork, nil
}

// GetJobWork retrieves a job work order by id.
func (s *jobWorkService) GetJobWork(ctx context.Context, jobWorkID string) (*domain.JobWork, error) {
	return s.jobWorkRepo.FindJobWorkByID(ctx, jobWorkID)
}

// ListJobWorks returns a page of job work orders.
func (s *jobWorkService) ListJobWorks(ctx context.Context, limit, offset int) ([]domain.JobWork, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.jobWorkRepo.ListJobWorks(ctx, limit, offset)
}

// Transition moves the job work toward target, enforcing the guard table and
// the data guards on top of it.
func (s *jobWorkService) Transition(ctx context.Context, jobWorkID string, target domain.JobWorkState, req dto.JobWorkTransitionRequest, actorID string) (*domain.JobWork, error) {
	current, err := s.jobWorkRepo.FindJobWorkByID(ctx, jobWorkID)
	if err != nil {
		return nil, err
	}
	if !current.State.CanTransitionTo(target) {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity:    "job work",
			EntityID:  jobWorkID,
			FromState: string(current.State),
			ToState:   string(target),
		}
	}

	switch target {
	case domain.JobWorkInProgress:
		if current.State == domain.JobWorkAssigned {
			return s.dispatch(ctx, jobWorkID, actorID)
		}
		// Resuming from ON_HOLD moves no stock.
		return s.plainTransition(ctx, jobWorkID, target, actorID, nil)
	case domain.JobWorkCancelled:
		return s.cancel(ctx, jobWorkID, actorID)
	case domain.JobWorkAssigned:
		return s.assign(ctx, jobWorkID, req, actorID)
	case domain.JobWorkCompleted:
		return s.plainTransition(ctx, jobWorkID, target, actorID, func(jw *domain.JobWork) error {
			if !jw.ReceiptCoversDispatch() {
				return &apperrors.InvalidStateTransitionError{
					Entity:    "job work",
					EntityID:  jobWorkID,
					FromState: string(jw.State),
					ToState:   string(target),
					Reason:    fmt.Sprintf("received %s of dispatched %s; complete all GRNs first", jw.ReceivedQty.String(), jw.DispatchedQty.String()),
				}
			}
			now := time.Now().UTC()
			jw.CompletedAt = &now
			return nil
		})
	default:
		return s.plainTransition(ctx, jobWorkID, target, actorID, nil)
	}
}

// assign records the worker or vendor assignment. Exactly one must be set.
func (s *jobWorkService) assign(ctx context.Context, jobWorkID string, req dto.JobWorkTransitionRequest, actorID string) (*domain.JobWork, error) {
	if req.VendorPartnerID != "" {
		partner, err := s.partnerRepo.FindPartnerByID(ctx, req.VendorPartnerID)
		if err != nil {
			return nil, err
		}
		if partner.Kind != domain.PartnerVendor {
			return nil, fmt.Errorf("%w: partner %s is a %s, not a job-work vendor", apperrors.ErrValidation, partner.Code, partner.Kind)
		}
	}
	return s.plainTransition(ctx, jobWorkID, domain.JobWorkAssigned, actorID, func(jw *domain.JobWork) error {
		jw.WorkerID = req.WorkerID
		jw.VendorPartnerID = req.VendorPartnerID
		if !jw.AssignmentValid() {
			return fmt.Errorf("%w: exactly one of workerID and vendorPartnerID must be set", apperrors.ErrValidation)
		}
		return nil
	})
}

// dispatch moves the material to WIP and posts the dispatch journal as one
// coordinator unit keyed by the job work id.
func (s *jobWorkService) dispatch(ctx context.Context, jobWorkID string, actorID string) (*domain.JobWork, error) {
	ref := domain.EventRef{Type: domain.EventJobWorkDispatch, ID: jobWorkID}
	outcome, err := s.coordinator.Execute(ctx, ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		jw, err := s.jobWorkRepo.FindJobWorkForUpdate(ctx, tx, jobWorkID)
		if err != nil {
			return nil, err
		}
		if jw.State != domain.JobWorkAssigned {
			return nil, &apperrors.InvalidStateTransitionError{
				Entity:    "job work",
				EntityID:  jobWorkID,
				FromState: string(jw.State),
				ToState:   string(domain.JobWorkInProgress),
			}
		}

		item, err := s.itemRepo.FindItemByID(ctx, jw.ItemID)
		if err != nil {
			return nil, err
		}
		if _, err := s.inventory.MoveToWIP(ctx, tx, jw.ItemID, jw.DispatchedQty, ref, actorID); err != nil {
			return nil, err
		}

		materialValue := jw.DispatchedQty.Mul(item.UnitCost)
		if materialValue.IsPositive() {
			payload := domain.PostingPayload{
				Amount:      materialValue,
				Description: fmt.Sprintf("dispatch of %s x %s for job work %s", jw.DispatchedQty.String(), item.Code, jw.Number),
			}
			if _, err := s.ledger.PostJournal(ctx, tx, ref, payload, actorID); err != nil {
				return nil, err
			}
		}

		now := time.Now().UTC()
		jw.State = domain.JobWorkInProgress
		jw.DispatchedAt = &now
		jw.LastUpdatedAt = now
		jw.LastUpdatedBy = actorID
		if err := s.jobWorkRepo.UpdateJobWork(ctx, tx, *jw); err != nil {
			return nil, err
		}
		return jw, nil
	})
	if err != nil {
		return nil, err
	}
	if outcome.Replayed {
		return s.jobWorkRepo.FindJobWorkByID(ctx, jobWorkID)
	}
	return outcome.Result.(*domain.JobWork), nil
}

// cancel terminates the job work. Material still out at the vendor comes back
// to RAW and the dispatch journal is reversed, all in one unit.
func (s *jobWorkService) cancel(ctx context.Context, jobWorkID string, actorID string) (*domain.JobWork, error) {
	ref := domain.EventRef{Type: domain.EventJournalReversal, ID: jobWorkID}
	outcome, err := s.coordinator.Execute(ctx, ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		jw, err := s.jobWorkRepo.FindJobWorkForUpdate(ctx, tx, jobWorkID)
		if err != nil {
			return nil, err
		}
		if !jw.State.CanTransitionTo(domain.JobWorkCancelled) {
			return nil, &apperrors.InvalidStateTransitionError{
				Entity:    "job work",
				EntityID:  jobWorkID,
				FromState: string(jw.State),
				ToState:   string(domain.JobWorkCancelled),
			}
		}

		if jw.DispatchedAt != nil {
			outstanding := jw.DispatchedQty.Sub(jw.ReceivedQty)
			if outstanding.IsPositive() {
				if _, err := s.inventory.ReturnFromWIP(ctx, tx, jw.ItemID, outstanding, ref, actorID); err != nil {
					return nil, err
				}
			}
			dispatchRef := domain.EventRef{Type: domain.EventJobWorkDispatch, ID: jobWorkID}
			if _, err := s.ledger.ReverseJournalForEvent(ctx, tx, dispatchRef, ref, actorID); err != nil {
				return nil, err
			}
		}

		now := time.Now().UTC()
		jw.State = domain.JobWorkCancelled
		jw.LastUpdatedAt = now
		jw.LastUpdatedBy = actorID
		if err := s.jobWorkRepo.UpdateJobWork(ctx, tx, *jw); err != nil {
			return nil, err
		}
		return jw, nil
	})
	if err != nil {
		return nil, err
	}
	if outcome.Replayed {
		return s.jobWorkRepo.FindJobWorkByID(ctx, jobWorkID)
	}
	return outcome.Result.(*domain.JobWork), nil
}

// plainTransition applies a stock-neutral state change in its own transaction
// with the row locked. mutate, when set, runs after the guard re-check and may
// veto the transition.
func (s *jobWorkService) plainTransition(ctx context.Context, jobWorkID string, target domain.JobWorkState, actorID string, mutate func(*domain.JobWork) error) (*domain.JobWork, error) {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.txm.Rollback(ctx, tx)
	}()

	jw, err := s.jobWorkRepo.FindJobWorkForUpdate(ctx, tx, jobWorkID)
	if err != nil {
		return nil, err
	}
	if !jw.State.CanTransitionTo(target) {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity:    "job work",
			EntityID:  jobWorkID,
			FromState: string(jw.State),
			ToState:   string(target),
		}
	}
	if mutate != nil {
		if err := mutate(jw); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	jw.State = target
	jw.LastUpdatedAt = now
	jw.LastUpdatedBy = actorID
	if err := s.jobWorkRepo.UpdateJobWork(ctx, tx, *jw); err != nil {
		return nil, err
	}
	if err := s.txm.Commit(ctx, tx); err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Job work transitioned",
		slog.String("job_work_id", jobWorkID),
		slog.String("state", string(target)),
	)
	return jw, nil
}
