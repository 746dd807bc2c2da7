package repositories

// RepositoryProvider aggregates all repositories plus the transaction manager
// for wiring into the service container.
type RepositoryProvider struct {
	Txm            TransactionManager
	ItemRepo       ItemRepositoryFacade
	MovementRepo   MovementRepositoryFacade
	AccountRepo    AccountRepositoryFacade
	JournalRepo    JournalRepositoryFacade
	BOMRepo        BOMRepositoryFacade
	JobWorkRepo    JobWorkRepository
	GRNRepo        GRNRepository
	ProductionRepo ProductionOrderRepository
	EventRepo      ProcessedEventRepository
	PartnerRepo    PartnerRepository
}
