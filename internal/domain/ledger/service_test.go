package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/numerator"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/catalogs/storeitem"
	"storeroom/internal/domain/ledger"
	"storeroom/internal/testutil/memrepo"
)

type fixture struct {
	db      *memrepo.DB
	svc     *ledger.Service
	storeID id.ID
	itemID  id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := memrepo.New()
	txm := memrepo.NewTxManager(db)
	svc := ledger.NewService(db.Lots(), db.StoreItems(), &numerator.MockGenerator{}, txm, nil)

	item := storeitem.New(id.New(), id.New())
	require.NoError(t, db.StoreItems().Create(context.Background(), item))

	return &fixture{db: db, svc: svc, storeID: item.StoreID, itemID: item.ID}
}

func (f *fixture) receive(t *testing.T, qty int64, cost string, received time.Time) *ledger.Lot {
	t.Helper()
	lot, err := f.svc.CreateLot(context.Background(), ledger.CreateLotInput{
		StoreItemID:  f.itemID,
		Quantity:     types.NewQuantityFromInt(qty),
		UnitCost:     types.MustMoney(cost),
		ReceivedDate: received,
		Provenance:   entity.RequisitionProvenance(id.New(), "PO-1001", "Acme Supplies"),
	})
	require.NoError(t, err)
	return lot
}

func (f *fixture) balance(t *testing.T) types.Quantity {
	t.Helper()
	qty, err := f.svc.GetBalance(context.Background(), f.itemID)
	require.NoError(t, err)
	return qty
}

func TestCreateLot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lot := f.receive(t, 100, "10", time.Now())

	assert.Equal(t, types.NewQuantityFromInt(100), lot.Quantity)
	assert.Equal(t, types.NewQuantityFromInt(100), lot.RemainingQuantity)
	assert.Equal(t, ledger.LotActive, lot.Status)
	assert.Contains(t, lot.LotNumber, "LOT-")
	assert.Equal(t, types.NewQuantityFromInt(100), f.balance(t))

	movements, err := f.svc.Movements(ctx, ledger.MovementFilter{StoreItemID: &f.itemID})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, entity.MovementReceive, movements[0].Kind)
	assert.Equal(t, types.NewQuantityFromInt(100), movements[0].Quantity)
	assert.Equal(t, entity.ProvenanceRequisition, movements[0].Provenance.Kind)
	assert.Equal(t, "PO-1001", movements[0].Provenance.OrderReference)
}

func TestCreateLotRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateLot(ctx, ledger.CreateLotInput{
		StoreItemID: f.itemID,
		Quantity:    types.NewQuantityFromInt(0),
		UnitCost:    types.MustMoney("10"),
		Provenance:  entity.RequisitionProvenance(id.New(), "PO-1", ""),
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidQuantity))

	_, err = f.svc.CreateLot(ctx, ledger.CreateLotInput{
		StoreItemID: f.itemID,
		Quantity:    types.NewQuantityFromInt(-5),
		UnitCost:    types.MustMoney("10"),
		Provenance:  entity.RequisitionProvenance(id.New(), "PO-1", ""),
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidQuantity))

	// Nothing was written.
	assert.Equal(t, types.Quantity(0), f.balance(t))
	lots, err := f.svc.GetActiveLots(ctx, f.itemID)
	require.NoError(t, err)
	assert.Empty(t, lots)
}

func TestConsumeFIFOSingleLot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lot := f.receive(t, 100, "10", time.Now())

	consumption, err := f.svc.ConsumeFIFO(ctx, ledger.ConsumeInput{
		StoreItemID: f.itemID,
		Quantity:    types.NewQuantityFromInt(40),
		Provenance:  entity.AdjustmentProvenance(id.New()),
		Kind:        entity.MovementPick,
	})
	require.NoError(t, err)

	assert.Equal(t, "400", consumption.TotalCost.String())
	assert.Equal(t, "10", consumption.AverageUnitCost.String())
	require.Len(t, consumption.ConsumedLots, 1)
	assert.Equal(t, lot.ID, consumption.ConsumedLots[0].LotID)

	assert.Equal(t, types.NewQuantityFromInt(60), f.balance(t))

	lots, err := f.svc.GetActiveLots(ctx, f.itemID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, types.NewQuantityFromInt(60), lots[0].RemainingQuantity)
}

func TestConsumeFIFOAcrossLots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lot1 := f.receive(t, 100, "10", base)
	lot2 := f.receive(t, 50, "12", base.AddDate(0, 0, 3))

	// Drain part of the first lot, then consume across the boundary.
	_, err := f.svc.ConsumeFIFO(ctx, ledger.ConsumeInput{
		StoreItemID: f.itemID,
		Quantity:    types.NewQuantityFromInt(40),
		Provenance:  entity.AdjustmentProvenance(id.New()),
	})
	require.NoError(t, err)

	consumption, err := f.svc.ConsumeFIFO(ctx, ledger.ConsumeInput{
		StoreItemID: f.itemID,
		Quantity:    types.NewQuantityFromInt(70),
		Provenance:  entity.AdjustmentProvenance(id.New()),
	})
	require.NoError(t, err)

	// 60 left of lot1 at 10 plus 10 of lot2 at 12.
	require.Len(t, consumption.ConsumedLots, 2)
	assert.Equal(t, lot1.ID, consumption.ConsumedLots[0].LotID)
	assert.Equal(t, types.NewQuantityFromInt(60), consumption.ConsumedLots[0].Quantity)
	assert.Equal(t, lot2.ID, consumption.ConsumedLots[1].LotID)
	assert.Equal(t, types.NewQuantityFromInt(10), consumption.ConsumedLots[1].Quantity)

	assert.Equal(t, "720", consumption.TotalCost.String())
	assert.Equal(t, "10.2857142857142857", consumption.AverageUnitCost.String())

	// lot1 is depleted, lot2 has 40 left.
	lots, err := f.svc.GetActiveLots(ctx, f.itemID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, lot2.ID, lots[0].ID)
	assert.Equal(t, types.NewQuantityFromInt(40), lots[0].RemainingQuantity)

	assert.Equal(t, types.NewQuantityFromInt(40), f.balance(t))
}

func TestConsumeFIFOInsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, 20, "10", time.Now())

	_, err := f.svc.ConsumeFIFO(ctx, ledger.ConsumeInput{
		StoreItemID: f.itemID,
		Quantity:    types.NewQuantityFromInt(30),
		Provenance:  entity.AdjustmentProvenance(id.New()),
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	// No partial consumption: lot and balance untouched.
	assert.Equal(t, types.NewQuantityFromInt(20), f.balance(t))
	lots, err := f.svc.GetActiveLots(ctx, f.itemID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, types.NewQuantityFromInt(20), lots[0].RemainingQuantity)

	movements, err := f.svc.Movements(ctx, ledger.MovementFilter{StoreItemID: &f.itemID})
	require.NoError(t, err)
	assert.Len(t, movements, 1) // the receipt only
}

func TestConsumeFIFODepletesAtExactlyZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, 25, "4", time.Now())

	_, err := f.svc.ConsumeFIFO(ctx, ledger.ConsumeInput{
		StoreItemID: f.itemID,
		Quantity:    types.NewQuantityFromInt(25),
		Provenance:  entity.AdjustmentProvenance(id.New()),
	})
	require.NoError(t, err)

	lots, err := f.svc.GetActiveLots(ctx, f.itemID)
	require.NoError(t, err)
	assert.Empty(t, lots)
	assert.Equal(t, types.Quantity(0), f.balance(t))
}

func TestConsumeFIFOFractionalQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lot, err := f.svc.CreateLot(ctx, ledger.CreateLotInput{
		StoreItemID: f.itemID,
		Quantity:    types.NewQuantityFromFloat64(2.5),
		UnitCost:    types.MustMoney("3.20"),
		Provenance:  entity.RequisitionProvenance(id.New(), "PO-7", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, "8", lot.TotalCost().String())

	consumption, err := f.svc.ConsumeFIFO(ctx, ledger.ConsumeInput{
		StoreItemID: f.itemID,
		Quantity:    types.NewQuantityFromFloat64(1.25),
		Provenance:  entity.AdjustmentProvenance(id.New()),
	})
	require.NoError(t, err)
	assert.Equal(t, "4", consumption.TotalCost.String())
	assert.Equal(t, types.NewQuantityFromFloat64(1.25), f.balance(t))
}

func TestAdjustDirect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Positive adjustment creates a synthetic lot.
	err := f.svc.AdjustDirect(ctx, f.itemID, types.NewQuantityFromInt(10), nil, "initial count")
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), f.balance(t))

	// Negative adjustment consumes FIFO.
	err = f.svc.AdjustDirect(ctx, f.itemID, types.NewQuantityFromInt(-4), nil, "breakage")
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(6), f.balance(t))

	// Zero is rejected.
	err = f.svc.AdjustDirect(ctx, f.itemID, 0, nil, "noop")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidQuantity))

	movements, err := f.svc.Movements(ctx, ledger.MovementFilter{StoreItemID: &f.itemID})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, entity.MovementAdjust, m.Kind)
		assert.Equal(t, entity.ProvenanceAdjustment, m.Provenance.Kind)
	}
}

func TestAdjustDirectBeyondStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, 5, "2", time.Now())

	err := f.svc.AdjustDirect(ctx, f.itemID, types.NewQuantityFromInt(-8), nil, "bad count")
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, types.NewQuantityFromInt(5), f.balance(t))
}

func TestPreviewConsumptionDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.receive(t, 10, "5", base)
	f.receive(t, 10, "7", base.AddDate(0, 0, 1))

	preview, err := f.svc.PreviewConsumption(ctx, f.itemID, types.NewQuantityFromInt(15))
	require.NoError(t, err)
	assert.Equal(t, "85", preview.TotalCost.String()) // 10*5 + 5*7

	assert.Equal(t, types.NewQuantityFromInt(20), f.balance(t))
	lots, err := f.svc.GetActiveLots(ctx, f.itemID)
	require.NoError(t, err)
	assert.Len(t, lots, 2)
}

func TestMovementLogConservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, 100, "10", time.Now())
	_, err := f.svc.ConsumeFIFO(ctx, ledger.ConsumeInput{
		StoreItemID: f.itemID,
		Quantity:    types.NewQuantityFromInt(35),
		Provenance:  entity.AdjustmentProvenance(id.New()),
	})
	require.NoError(t, err)

	movements, err := f.svc.Movements(ctx, ledger.MovementFilter{StoreItemID: &f.itemID})
	require.NoError(t, err)

	var sum types.Quantity
	for _, m := range movements {
		sum += m.Quantity
	}
	assert.Equal(t, f.balance(t), sum)
}

func TestEventsPublishedWithinTransaction(t *testing.T) {
	db := memrepo.New()
	txm := memrepo.NewTxManager(db)

	var published []entity.StockMovement
	publisher := publisherFunc(func(ctx context.Context, ms []entity.StockMovement) error {
		published = append(published, ms...)
		return nil
	})
	svc := ledger.NewService(db.Lots(), db.StoreItems(), &numerator.MockGenerator{}, txm, publisher)

	item := storeitem.New(id.New(), id.New())
	require.NoError(t, db.StoreItems().Create(context.Background(), item))

	_, err := svc.CreateLot(context.Background(), ledger.CreateLotInput{
		StoreItemID: item.ID,
		Quantity:    types.NewQuantityFromInt(3),
		UnitCost:    types.MustMoney("9"),
		Provenance:  entity.RequisitionProvenance(id.New(), "PO-42", ""),
	})
	require.NoError(t, err)

	require.Len(t, published, 1)
	assert.Equal(t, entity.MovementReceive, published[0].Kind)
}

type publisherFunc func(ctx context.Context, movements []entity.StockMovement) error

func (f publisherFunc) PublishMovements(ctx context.Context, movements []entity.StockMovement) error {
	return f(ctx, movements)
}
