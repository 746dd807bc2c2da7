package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/fabtrack/fabledger/internal/core/ports/repositories"
)

type pgxTransactionManager struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTransactionManager creates the transaction manager every coordinator
// unit runs under.
func NewTransactionManager(pool *pgxpool.Pool, lockTimeout time.Duration) portsrepo.TransactionManager {
	return &pgxTransactionManager{pool: pool, lockTimeout: lockTimeout}
}

var _ portsrepo.TransactionManager = (*pgxTransactionManager)(nil)

// Begin opens a serializable transaction and applies the lock timeout so a
// blocked row lock surfaces as a retryable 55P03 instead of hanging.
func (m *pgxTransactionManager) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	if m.lockTimeout > 0 {
		timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, timeout); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}
	return tx, nil
}

func (m *pgxTransactionManager) Commit(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

func (m *pgxTransactionManager) Rollback(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}
