package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fabtrack/fabledger/internal/apperrors"
	"github.com/fabtrack/fabledger/internal/core/domain"
	portsrepo "github.com/fabtrack/fabledger/internal/core/ports/repositories"
	portssvc "github.com/fabtrack/fabledger/internal/core/ports/services"
	"github.com/fabtrack/fabledger/internal/middleware"
)

// coordinatorService wraps one business event into an atomic unit: state
// machine mutations and journal postings either all commit or none do. Units
// are keyed by an idempotency reference; duplicates replay the stored result
// instead of double-posting.
type coordinatorService struct {
	txm          portsrepo.TransactionManager
	eventRepo    portsrepo.ProcessedEventRepository
	maxRetries   int
	retryBackoff time.Duration
}

// NewCoordinatorService creates the transaction coordinator.
func NewCoordinatorService(txm portsrepo.TransactionManager, eventRepo portsrepo.ProcessedEventRepository, maxRetries int, retryBackoff time.Duration) portssvc.CoordinatorSvcFacade {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &coordinatorService{
		txm:          txm,
		eventRepo:    eventRepo,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
	}
}

var _ portssvc.CoordinatorSvcFacade = (*coordinatorService)(nil)

// Execute runs fn as one atomic unit for the event reference. Serialization
// failures, deadlocks and lock timeouts are retried with exponential backoff;
// everything else surfaces immediately with the unit rolled back.
func (s *coordinatorService) Execute(ctx context.Context, ref domain.EventRef, fn portssvc.UnitFunc) (*portssvc.UnitOutcome, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(
		slog.String("event_type", string(ref.Type)),
		slog.String("event_id", ref.ID),
	)

	if ref.ID == "" {
		return nil, fmt.Errorf("%w: event reference id is required", apperrors.ErrValidation)
	}

	// Fast path: the event may already be applied.
	if outcome, found, err := s.findProcessed(ctx, ref); err != nil {
		return nil, err
	} else if found {
		logger.Info("Duplicate event replayed without effects")
		return outcome, nil
	}

	var lastErr error
	backoff := s.retryBackoff
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		outcome, err := s.runOnce(ctx, ref, fn)
		if err == nil {
			return outcome, nil
		}

		var dup *apperrors.DuplicateTransactionError
		if errors.As(err, &dup) {
			// Lost a race with a concurrent submission of the same
			// event: its committed result is the answer.
			outcome, found, ferr := s.findProcessed(ctx, ref)
			if ferr != nil {
				return nil, ferr
			}
			if found {
				logger.Info("Duplicate event replayed without effects")
				return outcome, nil
			}
			return nil, err
		}

		if !isRetryableTxError(err) {
			return nil, err
		}
		lastErr = err
		logger.Warn("Retrying coordinator unit after transient conflict",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, &apperrors.ConcurrentModificationError{
		EventRef: ref.Key(),
		Attempts: s.maxRetries,
		Last:     lastErr,
	}
}

// runOnce executes the unit body in a fresh serializable transaction.
func (s *coordinatorService) runOnce(ctx context.Context, ref domain.EventRef, fn portssvc.UnitFunc) (*portssvc.UnitOutcome, error) {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.txm.Rollback(ctx, tx)
	}()

	result, err := fn(ctx, tx)
	if err != nil {
		return nil, err
	}

	stored, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize unit result for %s: %w", ref.Key(), err)
	}

	// The idempotency record commits with the unit's effects or not at all.
	event := domain.ProcessedEvent{
		EventKey:    ref.Key(),
		EventType:   ref.Type,
		EventID:     ref.ID,
		Result:      stored,
		ProcessedAt: time.Now().UTC(),
	}
	if err := s.eventRepo.Record(ctx, tx, event); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, &apperrors.DuplicateTransactionError{EventRef: ref.Key()}
		}
		return nil, err
	}

	if err := s.txm.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &portssvc.UnitOutcome{Result: result, Stored: stored}, nil
}

func (s *coordinatorService) findProcessed(ctx context.Context, ref domain.EventRef) (*portssvc.UnitOutcome, bool, error) {
	event, err := s.eventRepo.FindByKey(ctx, ref.Key())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &portssvc.UnitOutcome{Stored: event.Result, Replayed: true}, true, nil
}

// Postgres SQLSTATEs that signal a transient conflict worth retrying.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	}
	return false
}
