package pgsql

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/fabtrack/fabledger/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgsql repository plus the transaction
// manager over one connection pool.
func NewRepositoryProvider(pool *pgxpool.Pool, lockTimeout time.Duration) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		Txm:            NewTransactionManager(pool, lockTimeout),
		ItemRepo:       NewItemRepository(pool),
		MovementRepo:   NewMovementRepository(pool),
		AccountRepo:    NewAccountRepository(pool),
		JournalRepo:    NewJournalRepository(pool),
		BOMRepo:        NewBOMRepository(pool),
		JobWorkRepo:    NewJobWorkRepository(pool),
		GRNRepo:        NewGRNRepository(pool),
		ProductionRepo: NewProductionOrderRepository(pool),
		EventRepo:      NewProcessedEventRepository(pool),
		PartnerRepo:    NewPartnerRepository(pool),
	}
}
