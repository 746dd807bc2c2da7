package services_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/fabtrack/fabledger/internal/core/domain"
	portsrepo "github.com/fabtrack/fabledger/internal/core/ports/repositories"
	portssvc "github.com/fabtrack/fabledger/internal/core/ports/services"
	"github.com/fabtrack/fabledger/internal/dto"
)

// mockTx is an opaque transaction handle for services under test. None of its
// methods are ever invoked; repositories are mocked below it.
type mockTx struct {
	pgx.Tx
}

// --- Mock TransactionManager ---

type MockTransactionManager struct {
	mock.Mock
}

var _ portsrepo.TransactionManager = (*MockTransactionManager)(nil)

func (m *MockTransactionManager) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockTransactionManager) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionManager) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// newPlainTxManager returns a transaction manager that hands out one mockTx
// and accepts any commit/rollback, for tests that only care about the flow
// inside the transaction.
func newPlainTxManager() (*MockTransactionManager, pgx.Tx) {
	txm := new(MockTransactionManager)
	tx := &mockTx{}
	txm.On("Begin", mock.Anything).Return(tx, nil)
	txm.On("Commit", mock.Anything, tx).Return(nil)
	txm.On("Rollback", mock.Anything, tx).Return(nil)
	return txm, tx
}

// --- Mock ProcessedEventRepository ---

type MockProcessedEventRepository struct {
	mock.Mock
}

var _ portsrepo.ProcessedEventRepository = (*MockProcessedEventRepository)(nil)

func (m *MockProcessedEventRepository) FindByKey(ctx context.Context, eventKey string) (*domain.ProcessedEvent, error) {
	args := m.Called(ctx, eventKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessedEvent), args.Error(1)
}

func (m *MockProcessedEventRepository) Record(ctx context.Context, tx pgx.Tx, event domain.ProcessedEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

// --- Mock ItemRepository ---

type MockItemRepository struct {
	mock.Mock
}

var _ portsrepo.ItemRepositoryFacade = (*MockItemRepository)(nil)

func (m *MockItemRepository) FindItemByID(ctx context.Context, itemID string) (*domain.Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockItemRepository) FindItemByCode(ctx context.Context, code string) (*domain.Item, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockItemRepository) ListItems(ctx context.Context, limit, offset int) ([]domain.Item, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Item), args.Error(1)
}

func (m *MockItemRepository) SaveItem(ctx context.Context, item domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) UpdateItem(ctx context.Context, item domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) FindItemForUpdate(ctx context.Context, tx pgx.Tx, itemID string) (*domain.Item, error) {
	args := m.Called(ctx, tx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockItemRepository) UpdateItemQuantities(ctx context.Context, tx pgx.Tx, item domain.Item) error {
	args := m.Called(ctx, tx, item)
	return args.Error(0)
}

// --- Mock MovementRepository ---

type MockMovementRepository struct {
	mock.Mock
}

var _ portsrepo.MovementRepositoryFacade = (*MockMovementRepository)(nil)

func (m *MockMovementRepository) SaveMovement(ctx context.Context, tx pgx.Tx, movement domain.Movement) error {
	args := m.Called(ctx, tx, movement)
	return args.Error(0)
}

func (m *MockMovementRepository) FindMovementByID(ctx context.Context, movementID string) (*domain.Movement, error) {
	args := m.Called(ctx, movementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}

func (m *MockMovementRepository) ListMovementsByItemID(ctx context.Context, itemID string, limit int, nextToken *string) ([]domain.Movement, *string, error) {
	args := m.Called(ctx, itemID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var token *string
	if args.Get(1) != nil {
		v := args.Get(1).(string)
		token = &v
	}
	return args.Get(0).([]domain.Movement), token, args.Error(2)
}

func (m *MockMovementRepository) FindMovementsByItemID(ctx context.Context, itemID string) ([]domain.Movement, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Movement), args.Error(1)
}

func (m *MockMovementRepository) FindMovementsByEventRef(ctx context.Context, ref domain.EventRef) ([]domain.Movement, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Movement), args.Error(1)
}

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) DeriveBalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) ApplyBalanceChanges(ctx context.Context, tx pgx.Tx, changes map[string]decimal.Decimal) error {
	args := m.Called(ctx, tx, changes)
	return args.Error(0)
}

func (m *MockAccountRepository) RecomputeBalance(ctx context.Context, tx pgx.Tx, accountID string) (decimal.Decimal, error) {
	args := m.Called(ctx, tx, accountID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock JournalRepository ---

type MockJournalRepository struct {
	mock.Mock
}

var _ portsrepo.JournalRepositoryFacade = (*MockJournalRepository)(nil)

func (m *MockJournalRepository) SaveJournal(ctx context.Context, tx pgx.Tx, journal domain.Journal, lines []domain.JournalLine) error {
	args := m.Called(ctx, tx, journal, lines)
	return args.Error(0)
}

func (m *MockJournalRepository) UpdateJournalStatusAndLinks(ctx context.Context, tx pgx.Tx, journalID string, status domain.JournalStatus, reversingJournalID string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, tx, journalID, status, reversingJournalID, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockJournalRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalRepository) FindJournalByEventRef(ctx context.Context, ref domain.EventRef) (*domain.Journal, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalRepository) FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalLine), args.Error(1)
}

func (m *MockJournalRepository) ListJournals(ctx context.Context, limit int, nextToken *string) ([]domain.Journal, *string, error) {
	args := m.Called(ctx, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var token *string
	if args.Get(1) != nil {
		v := args.Get(1).(string)
		token = &v
	}
	return args.Get(0).([]domain.Journal), token, args.Error(2)
}

// --- Mock BOMRepository ---

type MockBOMRepository struct {
	mock.Mock
}

var _ portsrepo.BOMRepositoryFacade = (*MockBOMRepository)(nil)

func (m *MockBOMRepository) FindBOMByID(ctx context.Context, bomID string) (*domain.BOM, error) {
	args := m.Called(ctx, bomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BOM), args.Error(1)
}

func (m *MockBOMRepository) FindActiveBOMByItemID(ctx context.Context, itemID string) (*domain.BOM, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BOM), args.Error(1)
}

func (m *MockBOMRepository) ListBOMsByItemID(ctx context.Context, itemID string) ([]domain.BOM, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BOM), args.Error(1)
}

func (m *MockBOMRepository) SaveBOM(ctx context.Context, bom domain.BOM) error {
	args := m.Called(ctx, bom)
	return args.Error(0)
}

// --- Mock JobWorkRepository ---

type MockJobWorkRepository struct {
	mock.Mock
}

var _ portsrepo.JobWorkRepository = (*MockJobWorkRepository)(nil)

func (m *MockJobWorkRepository) SaveJobWork(ctx context.Context, jobWork domain.JobWork) error {
	args := m.Called(ctx, jobWork)
	return args.Error(0)
}

func (m *MockJobWorkRepository) FindJobWorkByID(ctx context.Context, jobWorkID string) (*domain.JobWork, error) {
	args := m.Called(ctx, jobWorkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JobWork), args.Error(1)
}

func (m *MockJobWorkRepository) FindJobWorkForUpdate(ctx context.Context, tx pgx.Tx, jobWorkID string) (*domain.JobWork, error) {
	args := m.Called(ctx, tx, jobWorkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JobWork), args.Error(1)
}

func (m *MockJobWorkRepository) UpdateJobWork(ctx context.Context, tx pgx.Tx, jobWork domain.JobWork) error {
	args := m.Called(ctx, tx, jobWork)
	return args.Error(0)
}

func (m *MockJobWorkRepository) ListJobWorks(ctx context.Context, limit, offset int) ([]domain.JobWork, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JobWork), args.Error(1)
}

// --- Mock GRNRepository ---

type MockGRNRepository struct {
	mock.Mock
}

var _ portsrepo.GRNRepository = (*MockGRNRepository)(nil)

func (m *MockGRNRepository) SaveGRN(ctx context.Context, grn domain.GRN) error {
	args := m.Called(ctx, grn)
	return args.Error(0)
}

func (m *MockGRNRepository) FindGRNByID(ctx context.Context, grnID string) (*domain.GRN, error) {
	args := m.Called(ctx, grnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GRN), args.Error(1)
}

func (m *MockGRNRepository) FindGRNForUpdate(ctx context.Context, tx pgx.Tx, grnID string) (*domain.GRN, error) {
	args := m.Called(ctx, tx, grnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GRN), args.Error(1)
}

func (m *MockGRNRepository) UpdateGRN(ctx context.Context, tx pgx.Tx, grn domain.GRN) error {
	args := m.Called(ctx, tx, grn)
	return args.Error(0)
}

func (m *MockGRNRepository) ListGRNsByJobWorkID(ctx context.Context, jobWorkID string) ([]domain.GRN, error) {
	args := m.Called(ctx, jobWorkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GRN), args.Error(1)
}

// --- Mock ProductionOrderRepository ---

type MockProductionOrderRepository struct {
	mock.Mock
}

var _ portsrepo.ProductionOrderRepository = (*MockProductionOrderRepository)(nil)

func (m *MockProductionOrderRepository) SaveProductionOrder(ctx context.Context, order domain.ProductionOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockProductionOrderRepository) FindProductionOrderByID(ctx context.Context, orderID string) (*domain.ProductionOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductionOrder), args.Error(1)
}

func (m *MockProductionOrderRepository) FindProductionOrderForUpdate(ctx context.Context, tx pgx.Tx, orderID string) (*domain.ProductionOrder, error) {
	args := m.Called(ctx, tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductionOrder), args.Error(1)
}

func (m *MockProductionOrderRepository) UpdateProductionOrder(ctx context.Context, tx pgx.Tx, order domain.ProductionOrder) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockProductionOrderRepository) ListProductionOrders(ctx context.Context, limit, offset int) ([]domain.ProductionOrder, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductionOrder), args.Error(1)
}

// --- Mock PartnerRepository ---

type MockPartnerRepository struct {
	mock.Mock
}

var _ portsrepo.PartnerRepository = (*MockPartnerRepository)(nil)

func (m *MockPartnerRepository) SavePartner(ctx context.Context, partner domain.Partner) error {
	args := m.Called(ctx, partner)
	return args.Error(0)
}

func (m *MockPartnerRepository) FindPartnerByID(ctx context.Context, partnerID string) (*domain.Partner, error) {
	args := m.Called(ctx, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Partner), args.Error(1)
}

func (m *MockPartnerRepository) FindPartnerByCode(ctx context.Context, code string) (*domain.Partner, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Partner), args.Error(1)
}

func (m *MockPartnerRepository) ListPartners(ctx context.Context, kind *domain.PartnerKind) ([]domain.Partner, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Partner), args.Error(1)
}

// --- Mock InventoryMutator ---

type MockInventory struct {
	mock.Mock
}

var _ portssvc.InventoryMutator = (*MockInventory)(nil)

func (m *MockInventory) MoveToWIP(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, ref domain.EventRef, actorID string) (*domain.Movement, error) {
	args := m.Called(ctx, tx, itemID, qty, ref, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}

func (m *MockInventory) ReceiveFromWIP(ctx context.Context, tx pgx.Tx, itemID string, finishedQty, scrapQty decimal.Decimal, ref domain.EventRef, actorID string) ([]domain.Movement, error) {
	args := m.Called(ctx, tx, itemID, finishedQty, scrapQty, ref, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Movement), args.Error(1)
}

func (m *MockInventory) ReceiveRaw(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, ref domain.EventRef, actorID string) (*domain.Movement, error) {
	args := m.Called(ctx, tx, itemID, qty, ref, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}

func (m *MockInventory) ConsumeFinished(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, allowRawSubstitute bool, ref domain.EventRef, actorID string) ([]domain.Movement, error) {
	args := m.Called(ctx, tx, itemID, qty, allowRawSubstitute, ref, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Movement), args.Error(1)
}

func (m *MockInventory) ConsumeWIP(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, ref domain.EventRef, actorID string) (*domain.Movement, error) {
	args := m.Called(ctx, tx, itemID, qty, ref, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}

func (m *MockInventory) ReturnFromWIP(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, ref domain.EventRef, actorID string) (*domain.Movement, error) {
	args := m.Called(ctx, tx, itemID, qty, ref, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}

func (m *MockInventory) ReceiveProduced(ctx context.Context, tx pgx.Tx, itemID string, finishedQty, scrapQty decimal.Decimal, ref domain.EventRef, actorID string) ([]domain.Movement, error) {
	args := m.Called(ctx, tx, itemID, finishedQty, scrapQty, ref, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Movement), args.Error(1)
}

func (m *MockInventory) ScrapAdjust(ctx context.Context, tx pgx.Tx, itemID string, qty decimal.Decimal, fromState domain.StockState, ref domain.EventRef, actorID string) (*domain.Movement, error) {
	args := m.Called(ctx, tx, itemID, qty, fromState, ref, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}

// --- Mock LedgerPoster ---

type MockLedger struct {
	mock.Mock
}

var _ portssvc.LedgerPoster = (*MockLedger)(nil)

func (m *MockLedger) PostJournal(ctx context.Context, tx pgx.Tx, ref domain.EventRef, payload domain.PostingPayload, actorID string) (*domain.Journal, error) {
	args := m.Called(ctx, tx, ref, payload, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockLedger) ReverseJournal(ctx context.Context, tx pgx.Tx, journalID string, ref domain.EventRef, actorID string) (*domain.Journal, error) {
	args := m.Called(ctx, tx, journalID, ref, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockLedger) ReverseJournalForEvent(ctx context.Context, tx pgx.Tx, originalRef domain.EventRef, reversalRef domain.EventRef, actorID string) (*domain.Journal, error) {
	args := m.Called(ctx, tx, originalRef, reversalRef, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

// --- Mock BOM service facade ---

type MockBOMService struct {
	mock.Mock
}

var _ portssvc.BOMSvcFacade = (*MockBOMService)(nil)

func (m *MockBOMService) ResolveBOM(ctx context.Context, itemID string, plannedQty decimal.Decimal) (*domain.ResolvedBOM, error) {
	args := m.Called(ctx, itemID, plannedQty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResolvedBOM), args.Error(1)
}

func (m *MockBOMService) ResolveForOrder(ctx context.Context, orderID string, itemID string, plannedQty decimal.Decimal) (*domain.ResolvedBOM, error) {
	args := m.Called(ctx, orderID, itemID, plannedQty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResolvedBOM), args.Error(1)
}

func (m *MockBOMService) InvalidateOrder(orderID string) {
	m.Called(orderID)
}

func (m *MockBOMService) SaveBOM(ctx context.Context, req dto.SaveBOMRequest, actorID string) (*domain.BOM, error) {
	args := m.Called(ctx, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BOM), args.Error(1)
}

func (m *MockBOMService) GetActiveBOM(ctx context.Context, itemID string) (*domain.BOM, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BOM), args.Error(1)
}

// passthroughCoordinator executes units inline against a throwaway tx handle.
// Idempotency and retry behavior have their own tests against the real
// coordinator; workflow tests only need the unit body to run.
type passthroughCoordinator struct {
	tx pgx.Tx
}

var _ portssvc.CoordinatorSvcFacade = (*passthroughCoordinator)(nil)

func newPassthroughCoordinator() *passthroughCoordinator {
	return &passthroughCoordinator{tx: &mockTx{}}
}

func (c *passthroughCoordinator) Execute(ctx context.Context, ref domain.EventRef, fn portssvc.UnitFunc) (*portssvc.UnitOutcome, error) {
	result, err := fn(ctx, c.tx)
	if err != nil {
		return nil, err
	}
	stored, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &portssvc.UnitOutcome{Result: result, Stored: stored}, nil
}
