package services

import (
	portsrepo "github.com/fabtrack/fabledger/internal/core/ports/repositories"
	portssvc "github.com/fabtrack/fabledger/internal/core/ports/services"
	"github.com/fabtrack/fabledger/pkg/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Coordinator, inventory and ledger first since the workflow services
	// compose them.
	container.Coordinator = NewCoordinatorService(repos.Txm, repos.EventRepo, cfg.TxnMaxRetries, cfg.TxnRetryBackoff)
	container.Inventory = NewInventoryService(repos.ItemRepo, repos.MovementRepo, cfg.QtyPrecision)
	container.Ledger = NewLedgerService(repos.AccountRepo, repos.JournalRepo, cfg.BaseCurrency, cfg.AmountPrecision)
	container.BOM = NewBOMService(repos.BOMRepo, repos.ItemRepo)

	container.Item = NewItemService(repos.ItemRepo, container.Coordinator, container.Inventory)
	container.Partner = NewPartnerService(repos.PartnerRepo)

	container.JobWork = NewJobWorkService(
		container.Coordinator,
		repos.Txm,
		repos.JobWorkRepo,
		repos.ItemRepo,
		repos.PartnerRepo,
		container.Inventory,
		container.Ledger,
	)
	container.GRN = NewGRNService(
		container.Coordinator,
		repos.Txm,
		repos.GRNRepo,
		repos.JobWorkRepo,
		repos.ItemRepo,
		repos.PartnerRepo,
		container.Inventory,
		container.Ledger,
	)
	container.Production = NewProductionService(
		container.Coordinator,
		repos.Txm,
		repos.ProductionRepo,
		repos.ItemRepo,
		container.BOM,
		container.Inventory,
		container.Ledger,
	)

	return container
}
