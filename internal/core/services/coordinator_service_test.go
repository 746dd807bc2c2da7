package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fabtrack/fabledger/internal/apperrors"
	"github.com/fabtrack/fabledger/internal/core/domain"
	"github.com/fabtrack/fabledger/internal/core/services"
)

func TestCoordinatorExecute_FirstRun(t *testing.T) {
	ctx := context.Background()
	txm, tx := newPlainTxManager()
	eventRepo := new(MockProcessedEventRepository)
	ref := domain.EventRef{Type: domain.EventJobWorkDispatch, ID: "jw-1"}

	eventRepo.On("FindByKey", ctx, ref.Key()).Return(nil, apperrors.ErrNotFound)
	eventRepo.On("Record", ctx, tx, mock.MatchedBy(func(ev domain.ProcessedEvent) bool {
		return ev.EventKey == ref.Key() && ev.EventType == ref.Type && ev.EventID == ref.ID
	})).Return(nil)

	svc := services.NewCoordinatorService(txm, eventRepo, 3, time.Millisecond)
	outcome, err := svc.Execute(ctx, ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		return map[string]string{"status": "dispatched"}, nil
	})

	assert.NoError(t, err)
	assert.NotNil(t, outcome)
	assert.False(t, outcome.Replayed)
	assert.Equal(t, map[string]string{"status": "dispatched"}, outcome.Result)
	assert.JSONEq(t, `{"status":"dispatched"}`, string(outcome.Stored))
	txm.AssertCalled(t, "Commit", ctx, tx)
	eventRepo.AssertExpectations(t)
}

func TestCoordinatorExecute_ReplaysProcessedEvent(t *testing.T) {
	ctx := context.Background()
	txm := new(MockTransactionManager)
	eventRepo := new(MockProcessedEventRepository)
	ref := domain.EventRef{Type: domain.EventGRNClearing, ID: "grn-7"}

	stored := json.RawMessage(`{"journalID":"j-1"}`)
	eventRepo.On("FindByKey", ctx, ref.Key()).Return(&domain.ProcessedEvent{
		EventKey: ref.Key(),
		Result:   stored,
	}, nil)

	called := false
	svc := services.NewCoordinatorService(txm, eventRepo, 3, time.Millisecond)
	outcome, err := svc.Execute(ctx, ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		called = true
		return nil, nil
	})

	assert.NoError(t, err)
	assert.True(t, outcome.Replayed)
	assert.Nil(t, outcome.Result)
	assert.Equal(t, stored, outcome.Stored)
	assert.False(t, called, "unit body must not run on replay")
	txm.AssertNotCalled(t, "Begin", mock.Anything)
}

func TestCoordinatorExecute_DuplicateRaceReplaysWinner(t *testing.T) {
	ctx := context.Background()
	txm, tx := newPlainTxManager()
	eventRepo := new(MockProcessedEventRepository)
	ref := domain.EventRef{Type: domain.EventProductionReserve, ID: "po-3"}

	// Miss on the fast path, but by the time our insert runs a concurrent
	// submission has committed the same key.
	stored := json.RawMessage(`{"reserved":true}`)
	eventRepo.On("FindByKey", ctx, ref.Key()).Return(nil, apperrors.ErrNotFound).Once()
	eventRepo.On("Record", ctx, tx, mock.Anything).Return(apperrors.ErrDuplicate)
	eventRepo.On("FindByKey", ctx, ref.Key()).Return(&domain.ProcessedEvent{
		EventKey: ref.Key(),
		Result:   stored,
	}, nil)

	svc := services.NewCoordinatorService(txm, eventRepo, 3, time.Millisecond)
	outcome, err := svc.Execute(ctx, ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		return map[string]bool{"reserved": true}, nil
	})

	assert.NoError(t, err)
	assert.True(t, outcome.Replayed)
	assert.Equal(t, stored, outcome.Stored)
	txm.AssertNotCalled(t, "Commit", ctx, tx)
}

func TestCoordinatorExecute_RetriesSerializationFailure(t *testing.T) {
	ctx := context.Background()
	txm, tx := newPlainTxManager()
	eventRepo := new(MockProcessedEventRepository)
	ref := domain.EventRef{Type: domain.EventGRNReceipt, ID: "grn-1"}

	eventRepo.On("FindByKey", ctx, ref.Key()).Return(nil, apperrors.ErrNotFound)
	eventRepo.On("Record", ctx, tx, mock.Anything).Return(nil)

	attempts := 0
	svc := services.NewCoordinatorService(txm, eventRepo, 3, time.Millisecond)
	outcome, err := svc.Execute(ctx, ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		attempts++
		if attempts == 1 {
			return nil, &pgconn.PgError{Code: "40001"}
		}
		return "ok", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "ok", outcome.Result)
	assert.Equal(t, 2, attempts)
}

func TestCoordinatorExecute_RetriesExhausted(t *testing.T) {
	ctx := context.Background()
	txm, _ := newPlainTxManager()
	eventRepo := new(MockProcessedEventRepository)
	ref := domain.EventRef{Type: domain.EventGRNReceipt, ID: "grn-2"}

	eventRepo.On("FindByKey", ctx, ref.Key()).Return(nil, apperrors.ErrNotFound)

	attempts := 0
	svc := services.NewCoordinatorService(txm, eventRepo, 3, time.Millisecond)
	outcome, err := svc.Execute(ctx, ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		attempts++
		return nil, &pgconn.PgError{Code: "40P01"}
	})

	assert.Nil(t, outcome)
	var cme *apperrors.ConcurrentModificationError
	assert.ErrorAs(t, err, &cme)
	assert.Equal(t, ref.Key(), cme.EventRef)
	assert.Equal(t, 3, cme.Attempts)
	assert.Equal(t, 3, attempts)
}

func TestCoordinatorExecute_NonRetryableFailsFast(t *testing.T) {
	ctx := context.Background()
	txm, tx := newPlainTxManager()
	eventRepo := new(MockProcessedEventRepository)
	ref := domain.EventRef{Type: domain.EventSaleInvoice, ID: "inv-9"}

	eventRepo.On("FindByKey", ctx, ref.Key()).Return(nil, apperrors.ErrNotFound)

	unitErr := errors.New("posting rule rejected payload")
	attempts := 0
	svc := services.NewCoordinatorService(txm, eventRepo, 3, time.Millisecond)
	outcome, err := svc.Execute(ctx, ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		attempts++
		return nil, unitErr
	})

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, unitErr)
	assert.Equal(t, 1, attempts)
	txm.AssertCalled(t, "Rollback", ctx, tx)
	txm.AssertNotCalled(t, "Commit", ctx, tx)
}

func TestCoordinatorExecute_EmptyEventID(t *testing.T) {
	ctx := context.Background()
	txm := new(MockTransactionManager)
	eventRepo := new(MockProcessedEventRepository)

	svc := services.NewCoordinatorService(txm, eventRepo, 3, time.Millisecond)
	outcome, err := svc.Execute(ctx, domain.EventRef{Type: domain.EventGRNReceipt}, func(ctx context.Context, tx pgx.Tx) (any, error) {
		return nil, nil
	})

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	eventRepo.AssertNotCalled(t, "FindByKey", mock.Anything, mock.Anything)
}
