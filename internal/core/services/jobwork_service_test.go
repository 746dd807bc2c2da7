package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fabtrack/fabledger/internal/apperrors"
	"github.com/fabtrack/fabledger/internal/core/domain"
	portssvc "github.com/fabtrack/fabledger/internal/core/ports/services"
	"github.com/fabtrack/fabledger/internal/core/services"
	"github.com/fabtrack/fabledger/internal/dto"
)

type jobWorkFixture struct {
	coordinator *passthroughCoordinator
	txm         *MockTransactionManager
	jobWorkRepo *MockJobWorkRepository
	itemRepo    *MockItemRepository
	partnerRepo *MockPartnerRepository
	inventory   *MockInventory
	ledger      *MockLedger
}

func newJobWorkFixture() (*jobWorkFixture, context.Context) {
	txm, _ := newPlainTxManager()
	return &jobWorkFixture{
		coordinator: newPassthroughCoordinator(),
		txm:         txm,
		jobWorkRepo: new(MockJobWorkRepository),
		itemRepo:    new(MockItemRepository),
		partnerRepo: new(MockPartnerRepository),
		inventory:   new(MockInventory),
		ledger:      new(MockLedger),
	}, context.Background()
}

func (f *jobWorkFixture) service() portssvc.JobWorkSvcFacade {
	return services.NewJobWorkService(f.coordinator, f.txm, f.jobWorkRepo, f.itemRepo, f.partnerRepo, f.inventory, f.ledger)
}

func TestJobWork_CreateRejectsNonPositiveQty(t *testing.T) {
	f, ctx := newJobWorkFixture()
	svc := f.service()

	jw, err := svc.CreateJobWork(ctx, dto.CreateJobWorkRequest{
		Number:        "JW-001",
		ItemID:        "item-1",
		DispatchedQty: dec("0"),
	}, "tester")

	assert.Nil(t, jw)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	f.jobWorkRepo.AssertNotCalled(t, "SaveJobWork", mock.Anything, mock.Anything)
}

func TestJobWork_TransitionRejectsIllegalEdge(t *testing.T) {
	f, ctx := newJobWorkFixture()
	svc := f.service()

	f.jobWorkRepo.On("FindJobWorkByID", ctx, "jw-1").Return(&domain.JobWork{
		JobWorkID: "jw-1",
		State:     domain.JobWorkCreated,
	}, nil)

	jw, err := svc.Transition(ctx, "jw-1", domain.JobWorkCompleted, dto.JobWorkTransitionRequest{}, "tester")

	assert.Nil(t, jw)
	var invalid *apperrors.InvalidStateTransitionError
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, string(domain.JobWorkCreated), invalid.FromState)
	assert.Equal(t, string(domain.JobWorkCompleted), invalid.ToState)
	f.jobWorkRepo.AssertNotCalled(t, "UpdateJobWork", mock.Anything, mock.Anything, mock.Anything)
}

func TestJobWork_AssignRequiresExactlyOneAssignee(t *testing.T) {
	f, ctx := newJobWorkFixture()
	svc := f.service()

	jw := &domain.JobWork{JobWorkID: "jw-1", State: domain.JobWorkCreated}
	f.jobWorkRepo.On("FindJobWorkByID", ctx, "jw-1").Return(jw, nil)
	f.jobWorkRepo.On("FindJobWorkForUpdate", mock.Anything, mock.Anything, "jw-1").Return(jw, nil)

	_, err := svc.Transition(ctx, "jw-1", domain.JobWorkAssigned, dto.JobWorkTransitionRequest{}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	f.jobWorkRepo.AssertNotCalled(t, "UpdateJobWork", mock.Anything, mock.Anything, mock.Anything)
}

func TestJobWork_AssignRejectsNonVendorPartner(t *testing.T) {
	f, ctx := newJobWorkFixture()
	svc := f.service()

	f.jobWorkRepo.On("FindJobWorkByID", ctx, "jw-1").Return(&domain.JobWork{
		JobWorkID: "jw-1",
		State:     domain.JobWorkCreated,
	}, nil)
	f.partnerRepo.On("FindPartnerByID", ctx, "p-1").Return(&domain.Partner{
		PartnerID: "p-1",
		Code:      "CUST-01",
		Kind:      domain.PartnerCustomer,
	}, nil)

	_, err := svc.Transition(ctx, "jw-1", domain.JobWorkAssigned, dto.JobWorkTransitionRequest{VendorPartnerID: "p-1"}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestJobWork_DispatchMovesStockAndPostsJournal(t *testing.T) {
	f, ctx := newJobWorkFixture()
	svc := f.service()

	jw := &domain.JobWork{
		JobWorkID:       "jw-1",
		Number:          "JW-001",
		ItemID:          "item-1",
		State:           domain.JobWorkAssigned,
		VendorPartnerID: "p-1",
		DispatchedQty:   dec("100"),
		RatePerUnit:     dec("15"),
	}
	f.jobWorkRepo.On("FindJobWorkByID", ctx, "jw-1").Return(jw, nil)
	f.jobWorkRepo.On("FindJobWorkForUpdate", mock.Anything, f.coordinator.tx, "jw-1").Return(jw, nil)
	f.itemRepo.On("FindItemByID", mock.Anything, "item-1").Return(&domain.Item{
		ItemID:   "item-1",
		Code:     "CNC-PLATE",
		UnitCost: dec("50"),
	}, nil)

	dispatchRef := domain.EventRef{Type: domain.EventJobWorkDispatch, ID: "jw-1"}
	f.inventory.On("MoveToWIP", mock.Anything, f.coordinator.tx, "item-1", dec("100"), dispatchRef, "tester").
		Return(&domain.Movement{}, nil)
	f.ledger.On("PostJournal", mock.Anything, f.coordinator.tx, dispatchRef, mock.MatchedBy(func(p domain.PostingPayload) bool {
		return p.Amount.Equal(dec("5000"))
	}), "tester").Return(&domain.Journal{JournalID: "j-1"}, nil)
	f.jobWorkRepo.On("UpdateJobWork", mock.Anything, f.coordinator.tx, mock.MatchedBy(func(updated domain.JobWork) bool {
		return updated.State == domain.JobWorkInProgress && updated.DispatchedAt != nil
	})).Return(nil)

	result, err := svc.Transition(ctx, "jw-1", domain.JobWorkInProgress, dto.JobWorkTransitionRequest{}, "tester")

	assert.NoError(t, err)
	assert.Equal(t, domain.JobWorkInProgress, result.State)
	assert.NotNil(t, result.DispatchedAt)
	f.inventory.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
}

func TestJobWork_CompleteRequiresFullReceipt(t *testing.T) {
	f, ctx := newJobWorkFixture()
	svc := f.service()

	jw := &domain.JobWork{
		JobWorkID:     "jw-1",
		State:         domain.JobWorkInProgress,
		DispatchedQty: dec("100"),
		ReceivedQty:   dec("60"),
	}
	f.jobWorkRepo.On("FindJobWorkByID", ctx, "jw-1").Return(jw, nil)
	f.jobWorkRepo.On("FindJobWorkForUpdate", mock.Anything, mock.Anything, "jw-1").Return(jw, nil)

	result, err := svc.Transition(ctx, "jw-1", domain.JobWorkCompleted, dto.JobWorkTransitionRequest{}, "tester")

	assert.Nil(t, result)
	var invalid *apperrors.InvalidStateTransitionError
	assert.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "complete all GRNs first")
	f.jobWorkRepo.AssertNotCalled(t, "UpdateJobWork", mock.Anything, mock.Anything, mock.Anything)
}

func TestJobWork_CancelAfterDispatchReturnsStockAndReversesJournal(t *testing.T) {
	f, ctx := newJobWorkFixture()
	svc := f.service()

	dispatchedAt := time.Now().UTC().Add(-time.Hour)
	jw := &domain.JobWork{
		JobWorkID:     "jw-1",
		ItemID:        "item-1",
		State:         domain.JobWorkInProgress,
		DispatchedQty: dec("100"),
		ReceivedQty:   dec("40"),
		DispatchedAt:  &dispatchedAt,
	}
	f.jobWorkRepo.On("FindJobWorkByID", ctx, "jw-1").Return(jw, nil)
	f.jobWorkRepo.On("FindJobWorkForUpdate", mock.Anything, f.coordinator.tx, "jw-1").Return(jw, nil)

	cancelRef := domain.EventRef{Type: domain.EventJournalReversal, ID: "jw-1"}
	dispatchRef := domain.EventRef{Type: domain.EventJobWorkDispatch, ID: "jw-1"}
	f.inventory.On("ReturnFromWIP", mock.Anything, f.coordinator.tx, "item-1", dec("60"), cancelRef, "tester").
		Return(&domain.Movement{}, nil)
	f.ledger.On("ReverseJournalForEvent", mock.Anything, f.coordinator.tx, dispatchRef, cancelRef, "tester").
		Return(&domain.Journal{JournalID: "j-2"}, nil)
	f.jobWorkRepo.On("UpdateJobWork", mock.Anything, f.coordinator.tx, mock.MatchedBy(func(updated domain.JobWork) bool {
		return updated.State == domain.JobWorkCancelled
	})).Return(nil)

	result, err := svc.Transition(ctx, "jw-1", domain.JobWorkCancelled, dto.JobWorkTransitionRequest{}, "tester")

	assert.NoError(t, err)
	assert.Equal(t, domain.JobWorkCancelled, result.State)
	f.inventory.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
}

func TestJobWork_CancelBeforeDispatchMovesNothing(t *testing.T) {
	f, ctx := newJobWorkFixture()
	svc := f.service()

	jw := &domain.JobWork{JobWorkID: "jw-1", ItemID: "item-1", State: domain.JobWorkCreated}
	f.jobWorkRepo.On("FindJobWorkByID", ctx, "jw-1").Return(jw, nil)
	f.jobWorkRepo.On("FindJobWorkForUpdate", mock.Anything, f.coordinator.tx, "jw-1").Return(jw, nil)
	f.jobWorkRepo.On("UpdateJobWork", mock.Anything, f.coordinator.tx, mock.Anything).Return(nil)

	result, err := svc.Transition(ctx, "jw-1", domain.JobWorkCancelled, dto.JobWorkTransitionRequest{}, "tester")

	assert.NoError(t, err)
	assert.Equal(t, domain.JobWorkCancelled, result.State)
	f.inventory.AssertNotCalled(t, "ReturnFromWIP", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "ReverseJournalForEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
