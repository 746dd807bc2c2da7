package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fabtrack/fabledger/internal/core/domain"
	"github.com/fabtrack/fabledger/internal/dto"
)

// LedgerPoster posts journal batches inside coordinator transactions.
type LedgerPoster interface {
	// PostJournal builds the lines for the event via its posting rule,
	// verifies the balance invariant, and persists the batch plus cached
	// balance deltas within tx. Fails with *apperrors.UnbalancedJournalError
	// when debits != credits (a posting-rule bug, never corrected).
	PostJournal(ctx context.Context, tx pgx.Tx, ref domain.EventRef, payload domain.PostingPayload, actorID string) (*domain.Journal, error)

	// ReverseJournal posts a mirrored batch compensating an earlier journal
	// and links the pair. The original is marked REVERSED.
	ReverseJournal(ctx context.Context, tx pgx.Tx, journalID string, ref domain.EventRef, actorID string) (*domain.Journal, error)

	// ReverseJournalForEvent reverses the journal posted for originalRef.
	// Returns (nil, nil) when that event never posted a journal, so callers
	// can compensate unconditionally on cancellation.
	ReverseJournalForEvent(ctx context.Context, tx pgx.Tx, originalRef domain.EventRef, reversalRef domain.EventRef, actorID string) (*domain.Journal, error)
}

// LedgerReader exposes the chart of accounts and balances.
type LedgerReader interface {
	// GetBalance derives the balance of an account as of the given instant
	// by aggregating journal lines. A zero asOf means now.
	GetBalance(ctx context.Context, accountCode string, asOf time.Time) (decimal.Decimal, error)

	// GetJournal retrieves a journal batch with its lines.
	GetJournal(ctx context.Context, journalID string) (*domain.Journal, []domain.JournalLine, error)

	// ListJournals pages through the journal log newest-first.
	ListJournals(ctx context.Context, limit int, nextToken *string) ([]domain.Journal, *string, error)

	// ListAccounts returns the active chart of accounts.
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// LedgerAdmin manages the chart of accounts.
type LedgerAdmin interface {
	// CreateAccount adds an account to the chart.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error)
}

// LedgerSvcFacade combines the posting engine with its read model.
type LedgerSvcFacade interface {
	LedgerPoster
	LedgerReader
	LedgerAdmin
}
