package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fabtrack/fabledger/internal/apperrors"
	"github.com/fabtrack/fabledger/internal/core/domain"
	"github.com/fabtrack/fabledger/internal/core/services"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// stockFixture wires an inventory service around a single stateful item: the
// item repo hands back the same pointer on every lock, so consecutive
// operations observe each other's bucket updates the way they would across
// real transactions.
func stockFixture(item *domain.Item) (*MockItemRepository, *MockMovementRepository, *mockTx, context.Context) {
	itemRepo := new(MockItemRepository)
	movementRepo := new(MockMovementRepository)
	tx := &mockTx{}
	itemRepo.On("FindItemForUpdate", mock.Anything, tx, item.ItemID).Return(item, nil)
	itemRepo.On("UpdateItemQuantities", mock.Anything, tx, mock.AnythingOfType("domain.Item")).Return(nil)
	movementRepo.On("SaveMovement", mock.Anything, tx, mock.AnythingOfType("domain.Movement")).Return(nil)
	return itemRepo, movementRepo, tx, context.Background()
}

func TestInventory_JobWorkLifecycleConservesStock(t *testing.T) {
	item := &domain.Item{ItemID: "item-1", Code: "CNC-PLATE", QtyRaw: dec("100")}
	itemRepo, movementRepo, tx, ctx := stockFixture(item)
	svc := services.NewInventoryService(itemRepo, movementRepo, 3)

	dispatchRef := domain.EventRef{Type: domain.EventJobWorkDispatch, ID: "jw-1"}
	movement, err := svc.MoveToWIP(ctx, tx, "item-1", dec("50"), dispatchRef, "tester")
	assert.NoError(t, err)
	assert.Equal(t, domain.StateRaw, movement.FromState)
	assert.Equal(t, domain.StateWIP, movement.ToState)
	assert.True(t, item.QtyRaw.Equal(dec("50")))
	assert.True(t, item.QtyWIP.Equal(dec("50")))

	receiptRef := domain.EventRef{Type: domain.EventGRNClearing, ID: "grn-1"}
	movements, err := svc.ReceiveFromWIP(ctx, tx, "item-1", dec("48"), dec("2"), receiptRef, "tester")
	assert.NoError(t, err)
	assert.Len(t, movements, 2)
	assert.Equal(t, domain.StateFinished, movements[0].ToState)
	assert.Equal(t, domain.StateScrap, movements[1].ToState)

	assert.True(t, item.QtyRaw.Equal(dec("50")))
	assert.True(t, item.QtyWIP.Equal(dec("0")))
	assert.True(t, item.QtyFinished.Equal(dec("48")))
	assert.True(t, item.QtyScrap.Equal(dec("2")))
	assert.True(t, item.TotalStock().Equal(dec("100")), "no movement crossed the EXTERNAL boundary")
	assert.True(t, item.AvailableStock().Equal(dec("98")))
}

func TestInventory_MoveToWIPInsufficientRaw(t *testing.T) {
	item := &domain.Item{ItemID: "item-1", Code: "CNC-PLATE", QtyRaw: dec("30")}
	itemRepo, movementRepo, tx, ctx := stockFixture(item)
	svc := services.NewInventoryService(itemRepo, movementRepo, 3)

	movement, err := svc.MoveToWIP(ctx, tx, "item-1", dec("50"), domain.EventRef{Type: domain.EventJobWorkDispatch, ID: "jw-1"}, "tester")

	assert.Nil(t, movement)
	var insufficient *apperrors.InsufficientStockError
	assert.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "CNC-PLATE", insufficient.ItemCode)
	assert.Equal(t, string(domain.StateRaw), insufficient.Bucket)
	assert.True(t, insufficient.Requested.Equal(dec("50")))
	assert.True(t, insufficient.Available.Equal(dec("30")))
	assert.True(t, item.QtyRaw.Equal(dec("30")), "buckets untouched on failure")
	itemRepo.AssertNotCalled(t, "UpdateItemQuantities", mock.Anything, mock.Anything, mock.Anything)
}

func TestInventory_ReceiveFromWIPOverReceipt(t *testing.T) {
	item := &domain.Item{ItemID: "item-1", Code: "CNC-PLATE", QtyWIP: dec("40")}
	itemRepo, movementRepo, tx, ctx := stockFixture(item)
	svc := services.NewInventoryService(itemRepo, movementRepo, 3)

	movements, err := svc.ReceiveFromWIP(ctx, tx, "item-1", dec("45"), dec("5"), domain.EventRef{Type: domain.EventGRNClearing, ID: "grn-1"}, "tester")

	assert.Nil(t, movements)
	var over *apperrors.OverReceiptError
	assert.ErrorAs(t, err, &over)
	assert.Equal(t, "CNC-PLATE", over.ItemCode)
	assert.True(t, over.Received.Equal(dec("50")))
	assert.True(t, over.OutstandingWIP.Equal(dec("40")))
	assert.True(t, item.QtyWIP.Equal(dec("40")))
}

func TestInventory_ReceiveFromWIPRejectsZeroReceipt(t *testing.T) {
	item := &domain.Item{ItemID: "item-1", Code: "CNC-PLATE", QtyWIP: dec("40")}
	itemRepo, movementRepo, tx, ctx := stockFixture(item)
	svc := services.NewInventoryService(itemRepo, movementRepo, 3)

	_, err := svc.ReceiveFromWIP(ctx, tx, "item-1", decimal.Zero, decimal.Zero, domain.EventRef{Type: domain.EventGRNClearing, ID: "grn-1"}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.ReceiveFromWIP(ctx, tx, "item-1", dec("-1"), dec("2"), domain.EventRef{Type: domain.EventGRNClearing, ID: "grn-1"}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestInventory_ConsumeFinishedWithRawSubstitute(t *testing.T) {
	item := &domain.Item{ItemID: "item-1", Code: "CNC-PLATE", QtyRaw: dec("10"), QtyFinished: dec("5")}
	itemRepo, movementRepo, tx, ctx := stockFixture(item)
	svc := services.NewInventoryService(itemRepo, movementRepo, 3)

	movements, err := svc.ConsumeFinished(ctx, tx, "item-1", dec("8"), true, domain.EventRef{Type: domain.EventSaleInvoice, ID: "inv-1"}, "tester")

	assert.NoError(t, err)
	assert.Len(t, movements, 2)
	assert.Equal(t, domain.StateFinished, movements[0].FromState)
	assert.True(t, movements[0].Quantity.Equal(dec("5")))
	assert.Equal(t, domain.StateRaw, movements[1].FromState)
	assert.Equal(t, domain.StateExternal, movements[1].ToState)
	assert.True(t, movements[1].Quantity.Equal(dec("3")))
	assert.Equal(t, "raw substituted for finished", movements[1].Notes)
	assert.True(t, item.QtyFinished.Equal(dec("0")))
	assert.True(t, item.QtyRaw.Equal(dec("7")))
}

func TestInventory_ConsumeFinishedWithoutSubstitute(t *testing.T) {
	item := &domain.Item{ItemID: "item-1", Code: "CNC-PLATE", QtyRaw: dec("10"), QtyFinished: dec("5")}
	itemRepo, movementRepo, tx, ctx := stockFixture(item)
	svc := services.NewInventoryService(itemRepo, movementRepo, 3)

	movements, err := svc.ConsumeFinished(ctx, tx, "item-1", dec("8"), false, domain.EventRef{Type: domain.EventSaleInvoice, ID: "inv-1"}, "tester")

	assert.Nil(t, movements)
	var insufficient *apperrors.InsufficientStockError
	assert.ErrorAs(t, err, &insufficient)
	assert.Equal(t, string(domain.StateFinished), insufficient.Bucket)
	assert.True(t, insufficient.Available.Equal(dec("5")))
}

func TestInventory_ScrapAdjustRejectsNonBucketSource(t *testing.T) {
	item := &domain.Item{ItemID: "item-1", Code: "CNC-PLATE", QtyScrap: dec("5")}
	itemRepo, movementRepo, tx, ctx := stockFixture(item)
	svc := services.NewInventoryService(itemRepo, movementRepo, 3)

	ref := domain.EventRef{Type: domain.EventManualAdjustment, ID: "adj-1"}
	_, err := svc.ScrapAdjust(ctx, tx, "item-1", dec("1"), domain.StateScrap, ref, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.ScrapAdjust(ctx, tx, "item-1", dec("1"), domain.StateExternal, ref, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestInventory_ScrapAdjustRecordsManualAdjustment(t *testing.T) {
	item := &domain.Item{ItemID: "item-1", Code: "CNC-PLATE", QtyFinished: dec("5")}
	itemRepo, movementRepo, tx, ctx := stockFixture(item)
	svc := services.NewInventoryService(itemRepo, movementRepo, 3)

	movement, err := svc.ScrapAdjust(ctx, tx, "item-1", dec("2"), domain.StateFinished, domain.EventRef{Type: domain.EventScrapWriteoff, ID: "adj-1"}, "tester")

	assert.NoError(t, err)
	assert.Equal(t, domain.EventManualAdjustment, movement.EventType)
	assert.Equal(t, domain.StateFinished, movement.FromState)
	assert.Equal(t, domain.StateScrap, movement.ToState)
	assert.True(t, item.QtyFinished.Equal(dec("3")))
	assert.True(t, item.QtyScrap.Equal(dec("2")))
}

func TestInventory_ReceiveProducedRejectsEmptyOutput(t *testing.T) {
	item := &domain.Item{ItemID: "item-1", Code: "GEARBOX"}
	itemRepo, movementRepo, tx, ctx := stockFixture(item)
	svc := services.NewInventoryService(itemRepo, movementRepo, 3)

	_, err := svc.ReceiveProduced(ctx, tx, "item-1", decimal.Zero, decimal.Zero, domain.EventRef{Type: domain.EventProductionCompletion, ID: "po-1"}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestInventory_RebuildSnapshotReplaysMovementLog(t *testing.T) {
	ctx := context.Background()
	itemRepo := new(MockItemRepository)
	movementRepo := new(MockMovementRepository)
	svc := services.NewInventoryService(itemRepo, movementRepo, 3)

	item := &domain.Item{ItemID: "item-1", Code: "CNC-PLATE", QtyRaw: dec("50"), QtyFinished: dec("48"), QtyScrap: dec("2")}
	itemRepo.On("FindItemByID", ctx, "item-1").Return(item, nil)
	movementRepo.On("FindMovementsByItemID", ctx, "item-1").Return([]domain.Movement{
		{FromState: domain.StateExternal, ToState: domain.StateRaw, Quantity: dec("100")},
		{FromState: domain.StateRaw, ToState: domain.StateWIP, Quantity: dec("50")},
		{FromState: domain.StateWIP, ToState: domain.StateFinished, Quantity: dec("48")},
		{FromState: domain.StateWIP, ToState: domain.StateScrap, Quantity: dec("2")},
	}, nil)

	snap, err := svc.RebuildSnapshot(ctx, "item-1")

	assert.NoError(t, err)
	assert.True(t, snap.Raw.Equal(dec("50")))
	assert.True(t, snap.WIP.Equal(dec("0")))
	assert.True(t, snap.Finished.Equal(dec("48")))
	assert.True(t, snap.Scrap.Equal(dec("2")))
	assert.True(t, snap.Available.Equal(dec("98")))
	assert.True(t, snap.Total.Equal(dec("100")))
}
