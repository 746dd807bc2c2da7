package services

import (
	"context"
	"errors"
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

// ledgerService is the double-entry posting engine: it owns the chart of
// accounts, turns business events into journal batches via posting rules, and
// maintains the cached account balances alongside the authoritative log.
type ledgerService struct {
	accountRepo     portsrepo.AccountRepositoryFacade
	journalRepo     portsrepo.JournalRepositoryFacade
	currencyCode    string
	amountPrecision int32
}

// NewLedgerService creates the accounting ledger service.
func NewLedgerService(accountRepo portsrepo.AccountRepositoryFacade, journalRepo portsrepo.JournalRepositoryFacade, currencyCode string, amountPrecision int32) portssvc.LedgerSvcFacade {
	return &ledgerService{
		accountRepo:     accountRepo,
		journalRepo:     journalRepo,
		currencyCode:    currencyCode,
		amountPrecision: amountPrecision,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// PostJournal builds, verifies and persists the journal batch for a business
// event within the caller's transaction.
func (s *ledgerService) PostJournal(ctx context.Context, tx pgx.Tx, ref domain.EventRef, payload domain.PostingPayload, actorID string) (*domain.Journal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	rule, ok := postingRules[ref.Type]
	if !ok {
		return nil, fmt.Errorf("%w: no posting rule for event type %s", apperrors.ErrValidation, ref.Type)
	}

	ruleLines, err := rule(payload)
	if err != nil {
		return nil, err
	}

	// Round half-up at line construction so the balance check is exact at
	// the configured precision.
	for i := range ruleLines {
		ruleLines[i].Amount = ruleLines[i].Amount.Round(s.amountPrecision)
	}

	debits, credits := decimal.Zero, decimal.Zero
	codes := make([]string, 0, len(ruleLines))
	for _, l := range ruleLines {
		codes = append(codes, l.AccountCode)
		if l.Side == domain.Debit {
			debits = debits.Add(l.Amount)
		} else {
			credits = credits.Add(l.Amount)
		}
	}
	if !debits.Equal(credits) {
		// A posting-rule bug: fatal, logged with full context, never
		// silently corrected.
		ubErr := &apperrors.UnbalancedJournalError{
			EventType:  string(ref.Type),
			DebitsSum:  debits,
			CreditsSum: credits,
		}
		logger.Error("Unbalanced journal rejected",
			slog.String("event_type", string(ref.Type)),
			slog.String("event_id", ref.ID),
			slog.String("debits", debits.String()),
			slog.String("credits", credits.String()),
		)
		return nil, ubErr
	}

	accounts, err := s.accountRepo.FindAccountsByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	journal := domain.Journal{
		JournalID:    uuid.NewString(),
		JournalDate:  now,
		EventType:    ref.Type,
		EventID:      ref.ID,
		Description:  payload.Description,
		CurrencyCode: s.currencyCode,
		Status:       domain.JournalPosted,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	lines := make([]domain.JournalLine, 0, len(ruleLines))
	balanceChanges := make(map[string]decimal.Decimal)
	for _, rl := range ruleLines {
		account, ok := accounts[rl.AccountCode]
		if !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, rl.AccountCode)
		}
		line := domain.JournalLine{
			LineID:      uuid.NewString(),
			JournalID:   journal.JournalID,
			AccountID:   account.AccountID,
			AccountCode: account.Code,
			Amount:      rl.Amount,
			Side:        rl.Side,
			Notes:       rl.Notes,
			CreatedAt:   now,
			CreatedBy:   actorID,
		}
		lines = append(lines, line)
		delta := line.SignedAmount(account.AccountType)
		balanceChanges[account.AccountID] = balanceChanges[account.AccountID].Add(delta)
	}

	if err := s.journalRepo.SaveJournal(ctx, tx, journal, lines); err != nil {
		return nil, err
	}
	if err := s.accountRepo.ApplyBalanceChanges(ctx, tx, balanceChanges); err != nil {
		return nil, err
	}

	logger.Info("Journal posted",
		slog.String("journal_id", journal.JournalID),
		slog.String("event_type", string(ref.Type)),
		slog.String("event_id", ref.ID),
		slog.Int("lines", len(lines)),
	)
	return &journal, nil
}

// ReverseJournal posts a mirrored batch compensating an earlier journal and
// links the pair within the caller's transaction.
func (s *ledgerService) ReverseJournal(ctx context.Context, tx pgx.Tx, journalID string, ref domain.EventRef, actorID string) (*domain.Journal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if original.Status != domain.JournalPosted {
		return nil, fmt.Errorf("%w: journal %s is %s, only POSTED journals can be reversed", apperrors.ErrValidation, journalID, original.Status)
	}

	originalLines, err := s.journalRepo.FindLinesByJournalID(ctx, journalID)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(originalLines))
	for _, l := range originalLines {
		codes = append(codes, l.AccountCode)
	}
	accounts, err := s.accountRepo.FindAccountsByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reversal := domain.Journal{
		JournalID:         uuid.NewString(),
		JournalDate:       now,
		EventType:         ref.Type,
		EventID:           ref.ID,
		Description:       fmt.Sprintf("reversal of %s", original.JournalID),
		CurrencyCode:      original.CurrencyCode,
		Status:            domain.JournalPosted,
		OriginalJournalID: original.JournalID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	lines := make([]domain.JournalLine, 0, len(originalLines))
	balanceChanges := make(map[string]decimal.Decimal)
	for _, ol := range originalLines {
		side := domain.Debit
		if ol.Side == domain.Debit {
			side = domain.Credit
		}
		line := domain.JournalLine{
			LineID:      uuid.NewString(),
			JournalID:   reversal.JournalID,
			AccountID:   ol.AccountID,
			AccountCode: ol.AccountCode,
			Amount:      ol.Amount,
			Side:        side,
			Notes:       "reversal",
			CreatedAt:   now,
			CreatedBy:   actorID,
		}
		lines = append(lines, line)
		account, ok := accounts[ol.AccountCode]
		if !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, ol.AccountCode)
		}
		balanceChanges[account.AccountID] = balanceChanges[account.AccountID].Add(line.SignedAmount(account.AccountType))
	}

	if err := s.journalRepo.SaveJournal(ctx, tx, reversal, lines); err != nil {
		return nil, err
	}
	if err := s.accountRepo.ApplyBalanceChanges(ctx, tx, balanceChanges); err != nil {
		return nil, err
	}
	if err := s.journalRepo.UpdateJournalStatusAndLinks(ctx, tx, original.JournalID, domain.JournalReversed, reversal.JournalID, actorID, now); err != nil {
		return nil, err
	}

	logger.Info("Journal reversed",
		slog.String("original_journal_id", original.JournalID),
		slog.String("reversal_journal_id", reversal.JournalID),
	)
	return &reversal, nil
}

// ReverseJournalForEvent reverses the journal posted for originalRef, if one
// exists. Returns (nil, nil) when the event never posted a journal.
func (s *ledgerService) ReverseJournalForEvent(ctx context.Context, tx pgx.Tx, originalRef domain.EventRef, reversalRef domain.EventRef, actorID string) (*domain.Journal, error) {
	original, err := s.journalRepo.FindJournalByEventRef(ctx, originalRef)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if original.Status != domain.JournalPosted {
		// Already reversed or otherwise settled; nothing to compensate.
		return nil, nil
	}
	return s.ReverseJournal(ctx, tx, original.JournalID, reversalRef, actorID)
}

// GetBalance derives an account balance from the journal log.
func (s *ledgerService) GetBalance(ctx context.Context, accountCode string, asOf time.Time) (decimal.Decimal, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, accountCode)
	if err != nil {
		return decimal.Zero, err
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	return s.accountRepo.DeriveBalanceAsOf(ctx, account.AccountID, asOf)
}

// GetJournal retrieves a journal batch with its lines.
func (s *ledgerService) GetJournal(ctx context.Context, journalID string) (*domain.Journal, []domain.JournalLine, error) {
	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.journalRepo.FindLinesByJournalID(ctx, journalID)
	if err != nil {
		return nil, nil, err
	}
	return journal, lines, nil
}

// ListJournals pages through the journal log newest-first.
func (s *ledgerService) ListJournals(ctx context.Context, limit int, nextToken *string) ([]domain.Journal, *string, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.journalRepo.ListJournals(ctx, limit, nextToken)
}

// ListAccounts returns the active chart of accounts.
func (s *ledgerService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.accountRepo.ListAccounts(ctx)
}

// CreateAccount adds an account to the chart.
func (s *ledgerService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error) {
	accountType := domain.AccountType(req.AccountType)
	if !accountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type %s", apperrors.ErrValidation, req.AccountType)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:    uuid.NewString(),
		Code:         req.Code,
		Name:         req.Name,
		AccountType:  accountType,
		CurrencyCode: s.currencyCode,
		Description:  req.Description,
		IsActive:     true,
		Balance:      decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		return nil, err
	}
	return &account, nil
}
