package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fabtrack/fabledger/internal/core/domain"
)

// JournalWriter defines write operations for the append-only journal log.
type JournalWriter interface {
	// SaveJournal persists a journal batch and its lines within the given
	// transaction. The batch is inserted whole or not at all.
	SaveJournal(ctx context.Context, tx pgx.Tx, journal domain.Journal, lines []domain.JournalLine) error

	// UpdateJournalStatusAndLinks updates the status and reversal linkage of
	// a journal within the transaction. Used only when posting a reversal.
	UpdateJournalStatusAndLinks(ctx context.Context, tx pgx.Tx, journalID string, status domain.JournalStatus, reversingJournalID string, updatedBy string, updatedAt time.Time) error
}

// JournalReader defines read operations over the journal log.
type JournalReader interface {
	// FindJournalByID retrieves a journal batch by id.
	FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error)

	// FindJournalByEventRef retrieves the journal posted for a business
	// event, if any.
	FindJournalByEventRef(ctx context.Context, ref domain.EventRef) (*domain.Journal, error)

	// FindLinesByJournalID retrieves the lines of a batch in insert order.
	FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error)

	// ListJournals retrieves a page of journals newest-first using
	// token-based pagination.
	ListJournals(ctx context.Context, limit int, nextToken *string) ([]domain.Journal, *string, error)
}

// JournalRepositoryFacade combines journal repository interfaces.
type JournalRepositoryFacade interface {
	JournalWriter
	JournalReader
}
