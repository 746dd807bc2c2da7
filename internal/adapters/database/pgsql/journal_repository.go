package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fabtrack/fabledger/internal/apperrors"
	"github.com/fabtrack/fabledger/internal/core/domain"
	portsrepo "github.com/fabtrack/fabledger/internal/core/ports/repositories"
	"github.com/fabtrack/fabledger/internal/utils/pagination"
)

type journalRepository struct {
	pool *pgxpool.Pool
}

// NewJournalRepository creates a new repository for the journal log.
func NewJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &journalRepository{pool: pool}
}

var _ portsrepo.JournalRepositoryFacade = (*journalRepository)(nil)

const journalColumns = `journal_id, journal_date, event_type, event_id, description, currency_code, status, reversing_journal_id, original_journal_id, created_at, created_by, last_updated_at, last_updated_by`

func scanJournal(row pgx.Row) (*domain.Journal, error) {
	var j domain.Journal
	var reversingID, originalID *string
	err := row.Scan(
		&j.JournalID,
		&j.JournalDate,
		&j.EventType,
		&j.EventID,
		&j.Description,
		&j.CurrencyCode,
		&j.Status,
		&reversingID,
		&originalID,
		&j.CreatedAt,
		&j.CreatedBy,
		&j.LastUpdatedAt,
		&j.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if reversingID != nil {
		j.ReversingJournalID = *reversingID
	}
	if originalID != nil {
		j.OriginalJournalID = *originalID
	}
	return &j, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SaveJournal persists a journal batch and its lines within the given
// transaction. The batch is inserted whole or not at all.
func (r *journalRepository) SaveJournal(ctx context.Context, tx pgx.Tx, journal domain.Journal, lines []domain.JournalLine) error {
	journalQuery := `
		INSERT INTO journals (` + journalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := tx.Exec(ctx, journalQuery,
		journal.JournalID,
		journal.JournalDate,
		journal.EventType,
		journal.EventID,
		journal.Description,
		journal.CurrencyCode,
		journal.Status,
		nullable(journal.ReversingJournalID),
		nullable(journal.OriginalJournalID),
		journal.CreatedAt,
		journal.CreatedBy,
		journal.LastUpdatedAt,
		journal.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: journal for event %s:%s", apperrors.ErrDuplicate, journal.EventType, journal.EventID)
		}
		return fmt.Errorf("failed to insert journal %s: %w", journal.JournalID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO journal_lines (line_id, journal_id, account_id, account_code, amount, side, notes, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	for _, line := range lines {
		batch.Queue(lineQuery,
			line.LineID,
			line.JournalID,
			line.AccountID,
			line.AccountCode,
			line.Amount,
			line.Side,
			line.Notes,
			line.CreatedAt,
			line.CreatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute line batch for journal %s: %w", journal.JournalID, err)
	}
	return nil
}

// UpdateJournalStatusAndLinks marks a journal reversed and links its reversal.
func (r *journalRepository) UpdateJournalStatusAndLinks(ctx context.Context, tx pgx.Tx, journalID string, status domain.JournalStatus, reversingJournalID string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE journals
		SET status = $2, reversing_journal_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE journal_id = $1;
	`
	tag, err := tx.Exec(ctx, query, journalID, status, nullable(reversingJournalID), updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update journal %s: %w", journalID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}
	return nil
}

func (r *journalRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE journal_id = $1;`
	j, err := scanJournal(r.pool.QueryRow(ctx, query, journalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
		}
		return nil, fmt.Errorf("failed to find journal by ID %s: %w", journalID, err)
	}
	return j, nil
}

func (r *journalRepository) FindJournalByEventRef(ctx context.Context, ref domain.EventRef) (*domain.Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE event_type = $1 AND event_id = $2;`
	j, err := scanJournal(r.pool.QueryRow(ctx, query, ref.Type, ref.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: journal for event %s", apperrors.ErrNotFound, ref.Key())
		}
		return nil, fmt.Errorf("failed to find journal for event %s: %w", ref.Key(), err)
	}
	return j, nil
}

func (r *journalRepository) FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	query := `
		SELECT line_id, journal_id, account_id, account_code, amount, side, notes, created_at, created_by
		FROM journal_lines
		WHERE journal_id = $1
		ORDER BY created_at, line_id;
	`
	rows, err := r.pool.Query(ctx, query, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for journal %s: %w", journalID, err)
	}
	defer rows.Close()

	lines := []domain.JournalLine{}
	for rows.Next() {
		var line domain.JournalLine
		if err := rows.Scan(
			&line.LineID,
			&line.JournalID,
			&line.AccountID,
			&line.AccountCode,
			&line.Amount,
			&line.Side,
			&line.Notes,
			&line.CreatedAt,
			&line.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal line row: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ListJournals pages through the journal log newest-first using a keyset
// token.
func (r *journalRepository) ListJournals(ctx context.Context, limit int, nextToken *string) ([]domain.Journal, *string, error) {
	query := `SELECT ` + journalColumns + ` FROM journals`
	args := []any{}
	if nextToken != nil && *nextToken != "" {
		beforeTime, beforeID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		query += ` WHERE (created_at, journal_id) < ($1, $2)`
		args = append(args, beforeTime, beforeID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, journal_id DESC LIMIT %d;`, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list journals: %w", err)
	}
	defer rows.Close()

	journals := []domain.Journal{}
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		journals = append(journals, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var token *string
	if len(journals) > limit {
		journals = journals[:limit]
		last := journals[len(journals)-1]
		t := pagination.EncodeToken(last.CreatedAt, last.JournalID)
		token = &t
	}
	return journals, token, nil
}
