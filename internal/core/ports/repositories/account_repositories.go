package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fabtrack/fabledger/internal/core/domain"
)

// AccountReader defines read operations for the chart of accounts.
type AccountReader interface {
	// FindAccountByID retrieves an account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByCode retrieves an account by its unique code.
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// FindAccountsByCodes retrieves the accounts for a set of codes, keyed
	// by code. Missing codes are absent from the map.
	FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error)

	// ListAccounts retrieves active accounts ordered by code.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// DeriveBalanceAsOf aggregates the signed journal lines of an account up
	// to and including the given instant. This always reads the log, never
	// the cached balance column.
	DeriveBalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error)
}

// AccountWriter defines write operations for the chart of accounts.
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// ApplyBalanceChanges adjusts the cached balance of each account by the
	// given signed delta, locking the account rows, within the transaction.
	ApplyBalanceChanges(ctx context.Context, tx pgx.Tx, changes map[string]decimal.Decimal) error

	// RecomputeBalance rewrites the cached balance of an account from its
	// journal lines, within the transaction. Used on mismatch detection.
	RecomputeBalance(ctx context.Context, tx pgx.Tx, accountID string) (decimal.Decimal, error)
}

// AccountRepositoryFacade combines account repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
