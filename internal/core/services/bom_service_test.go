package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fabtrack/fabledger/internal/apperrors"
	"github.com/fabtrack/fabledger/internal/core/domain"
	"github.com/fabtrack/fabledger/internal/core/services"
	"github.com/fabtrack/fabledger/internal/dto"
)

func bomFixture() (*MockBOMRepository, *MockItemRepository, context.Context) {
	return new(MockBOMRepository), new(MockItemRepository), context.Background()
}

func stubItem(itemRepo *MockItemRepository, ctx context.Context, id, code, unitCost string) {
	itemRepo.On("FindItemByID", ctx, id).Return(&domain.Item{
		ItemID:   id,
		Code:     code,
		UnitCost: dec(unitCost),
	}, nil)
}

func TestBOM_ResolveFlattensNestedAssembly(t *testing.T) {
	bomRepo, itemRepo, ctx := bomFixture()
	svc := services.NewBOMService(bomRepo, itemRepo)

	// A is assembled from 3x B and 6x C; C carries a 10% scrap allowance.
	stubItem(itemRepo, ctx, "A", "ASSY-A", "0")
	stubItem(itemRepo, ctx, "B", "PART-B", "20")
	stubItem(itemRepo, ctx, "C", "PART-C", "5")
	bomRepo.On("FindActiveBOMByItemID", ctx, "A").Return(&domain.BOM{
		BOMID:        "bom-a",
		ParentItemID: "A",
		LaborCost:    dec("12"),
		Lines: []domain.BOMLine{
			{ComponentItemID: "B", QtyPerUnit: dec("3")},
			{ComponentItemID: "C", QtyPerUnit: dec("6"), ScrapRate: dec("0.1")},
		},
	}, nil)
	bomRepo.On("FindActiveBOMByItemID", ctx, "B").Return(nil, apperrors.ErrNotFound)
	bomRepo.On("FindActiveBOMByItemID", ctx, "C").Return(nil, apperrors.ErrNotFound)

	resolved, err := svc.ResolveBOM(ctx, "A", dec("5"))

	assert.NoError(t, err)
	assert.Len(t, resolved.Requirements, 2)
	assert.Equal(t, "PART-B", resolved.Requirements[0].ItemCode)
	assert.True(t, resolved.Requirements[0].Quantity.Equal(dec("15")))
	assert.True(t, resolved.Requirements[0].Cost.Equal(dec("300")))
	assert.Equal(t, "PART-C", resolved.Requirements[1].ItemCode)
	assert.True(t, resolved.Requirements[1].Quantity.Equal(dec("33")), "6 x 5 x 1.1")
	assert.True(t, resolved.Requirements[1].Cost.Equal(dec("165")))
	assert.True(t, resolved.LaborCost.Equal(dec("60")))
	assert.True(t, resolved.TotalCost.Equal(dec("525")))
}

func TestBOM_ResolveRecursesIntoSubassemblies(t *testing.T) {
	bomRepo, itemRepo, ctx := bomFixture()
	svc := services.NewBOMService(bomRepo, itemRepo)

	// A contains 2x SUB; SUB contains 4x C. Shared leaves aggregate into one
	// requirement line.
	stubItem(itemRepo, ctx, "A", "ASSY-A", "0")
	stubItem(itemRepo, ctx, "SUB", "SUB-ASSY", "0")
	stubItem(itemRepo, ctx, "C", "PART-C", "5")
	bomRepo.On("FindActiveBOMByItemID", ctx, "A").Return(&domain.BOM{
		ParentItemID: "A",
		Lines: []domain.BOMLine{
			{ComponentItemID: "SUB", QtyPerUnit: dec("2")},
			{ComponentItemID: "C", QtyPerUnit: dec("1")},
		},
	}, nil)
	bomRepo.On("FindActiveBOMByItemID", ctx, "SUB").Return(&domain.BOM{
		ParentItemID: "SUB",
		LaborCost:    dec("3"),
		Lines: []domain.BOMLine{
			{ComponentItemID: "C", QtyPerUnit: dec("4")},
		},
	}, nil)
	bomRepo.On("FindActiveBOMByItemID", ctx, "C").Return(nil, apperrors.ErrNotFound)

	resolved, err := svc.ResolveBOM(ctx, "A", dec("10"))

	assert.NoError(t, err)
	assert.Len(t, resolved.Requirements, 1)
	// 10 x 2 x 4 through the subassembly plus 10 x 1 direct.
	assert.True(t, resolved.Requirements[0].Quantity.Equal(dec("90")))
	// Labor accrues on 20 subassembly units.
	assert.True(t, resolved.LaborCost.Equal(dec("60")))
}

func TestBOM_ResolveDetectsCycle(t *testing.T) {
	bomRepo, itemRepo, ctx := bomFixture()
	svc := services.NewBOMService(bomRepo, itemRepo)

	stubItem(itemRepo, ctx, "A", "ASSY-A", "0")
	stubItem(itemRepo, ctx, "B", "PART-B", "0")
	bomRepo.On("FindActiveBOMByItemID", ctx, "A").Return(&domain.BOM{
		ParentItemID: "A",
		Lines:        []domain.BOMLine{{ComponentItemID: "B", QtyPerUnit: dec("1")}},
	}, nil)
	bomRepo.On("FindActiveBOMByItemID", ctx, "B").Return(&domain.BOM{
		ParentItemID: "B",
		Lines:        []domain.BOMLine{{ComponentItemID: "A", QtyPerUnit: dec("1")}},
	}, nil)

	resolved, err := svc.ResolveBOM(ctx, "A", dec("1"))

	assert.Nil(t, resolved)
	var cyclic *apperrors.CyclicBOMReferenceError
	assert.ErrorAs(t, err, &cyclic)
	assert.Equal(t, []string{"ASSY-A", "PART-B", "ASSY-A"}, cyclic.Path)
}

func TestBOM_ResolveRejectsNonPositiveQty(t *testing.T) {
	bomRepo, itemRepo, ctx := bomFixture()
	svc := services.NewBOMService(bomRepo, itemRepo)

	_, err := svc.ResolveBOM(ctx, "A", dec("0"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBOM_ResolveForOrderCachesResolution(t *testing.T) {
	bomRepo, itemRepo, ctx := bomFixture()
	svc := services.NewBOMService(bomRepo, itemRepo)

	stubItem(itemRepo, ctx, "A", "ASSY-A", "0")
	stubItem(itemRepo, ctx, "B", "PART-B", "10")
	bomRepo.On("FindActiveBOMByItemID", ctx, "A").Return(&domain.BOM{
		ParentItemID: "A",
		Lines:        []domain.BOMLine{{ComponentItemID: "B", QtyPerUnit: dec("2")}},
	}, nil)
	bomRepo.On("FindActiveBOMByItemID", ctx, "B").Return(nil, apperrors.ErrNotFound)

	first, err := svc.ResolveForOrder(ctx, "po-1", "A", dec("5"))
	assert.NoError(t, err)
	second, err := svc.ResolveForOrder(ctx, "po-1", "A", dec("5"))
	assert.NoError(t, err)
	assert.Same(t, first, second)
	bomRepo.AssertNumberOfCalls(t, "FindActiveBOMByItemID", 2)

	// Invalidation forces a fresh walk.
	svc.InvalidateOrder("po-1")
	third, err := svc.ResolveForOrder(ctx, "po-1", "A", dec("5"))
	assert.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestBOM_SaveRejectsUnconfirmedLine(t *testing.T) {
	bomRepo, itemRepo, ctx := bomFixture()
	svc := services.NewBOMService(bomRepo, itemRepo)

	stubItem(itemRepo, ctx, "A", "ASSY-A", "0")
	_, err := svc.SaveBOM(ctx, dto.SaveBOMRequest{
		ParentItemID: "A",
		Lines: []dto.SaveBOMLine{
			{ComponentItemID: "B", QtyPerUnit: dec("2"), Confirmed: false},
		},
	}, "planner")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	bomRepo.AssertNotCalled(t, "SaveBOM", mock.Anything, mock.Anything)
}

func TestBOM_SaveRejectsSelfReference(t *testing.T) {
	bomRepo, itemRepo, ctx := bomFixture()
	svc := services.NewBOMService(bomRepo, itemRepo)

	stubItem(itemRepo, ctx, "A", "ASSY-A", "0")
	_, err := svc.SaveBOM(ctx, dto.SaveBOMRequest{
		ParentItemID: "A",
		Lines: []dto.SaveBOMLine{
			{ComponentItemID: "A", QtyPerUnit: dec("1"), Confirmed: true},
		},
	}, "planner")

	var cyclic *apperrors.CyclicBOMReferenceError
	assert.ErrorAs(t, err, &cyclic)
}

func TestBOM_SaveRejectsDeepCycle(t *testing.T) {
	bomRepo, itemRepo, ctx := bomFixture()
	svc := services.NewBOMService(bomRepo, itemRepo)

	// B already contains A through its own active BOM, so A -> B would close
	// a loop.
	stubItem(itemRepo, ctx, "A", "ASSY-A", "0")
	stubItem(itemRepo, ctx, "B", "SUB-B", "0")
	bomRepo.On("FindActiveBOMByItemID", ctx, "B").Return(&domain.BOM{
		ParentItemID: "B",
		Lines:        []domain.BOMLine{{ComponentItemID: "A", QtyPerUnit: dec("1")}},
	}, nil)

	_, err := svc.SaveBOM(ctx, dto.SaveBOMRequest{
		ParentItemID: "A",
		Lines: []dto.SaveBOMLine{
			{ComponentItemID: "B", QtyPerUnit: dec("2"), Confirmed: true},
		},
	}, "planner")

	var cyclic *apperrors.CyclicBOMReferenceError
	assert.ErrorAs(t, err, &cyclic)
	bomRepo.AssertNotCalled(t, "SaveBOM", mock.Anything, mock.Anything)
}

func TestBOM_SaveStoresConfirmedLines(t *testing.T) {
	bomRepo, itemRepo, ctx := bomFixture()
	svc := services.NewBOMService(bomRepo, itemRepo)

	stubItem(itemRepo, ctx, "A", "ASSY-A", "0")
	stubItem(itemRepo, ctx, "B", "PART-B", "10")
	bomRepo.On("FindActiveBOMByItemID", ctx, "B").Return(nil, apperrors.ErrNotFound)

	var saved domain.BOM
	bomRepo.On("SaveBOM", ctx, mock.AnythingOfType("domain.BOM")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(domain.BOM)
		}).Return(nil)

	bom, err := svc.SaveBOM(ctx, dto.SaveBOMRequest{
		ParentItemID: "A",
		LaborCost:    dec("7"),
		Lines: []dto.SaveBOMLine{
			{ComponentItemID: "B", QtyPerUnit: dec("2"), ScrapRate: dec("0.05"), ProcessStep: "machining", Confirmed: true},
		},
	}, "planner")

	assert.NoError(t, err)
	assert.True(t, bom.IsActive)
	assert.Len(t, saved.Lines, 1)
	assert.Equal(t, 1, saved.Lines[0].Position)
	assert.Equal(t, "machining", saved.Lines[0].ProcessStep)
}
