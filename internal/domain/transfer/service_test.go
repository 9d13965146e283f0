package transfer_test

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
	"storeroom/internal/domain/transfer"
	"storeroom/internal/testutil/memrepo"
)

type fixture struct {
	db     *memrepo.DB
	svc    *transfer.Service
	ledger *ledger.Service

	masterID id.ID
	fromID   id.ID // store ids
	toID     id.ID

	sourceItem id.ID // store item at the source store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := memrepo.New()
	txm := memrepo.NewTxManager(db)
	gen := &numerator.MockGenerator{}

	items := storeitem.NewService(db.StoreItems(), txm)
	ledgerSvc := ledger.NewService(db.Lots(), db.StoreItems(), gen, txm, nil)
	svc := transfer.NewService(db.Transfers(), items, db.StoreItems(), ledgerSvc, gen, txm)

	f := &fixture{
		db:       db,
		svc:      svc,
		ledger:   ledgerSvc,
		masterID: id.New(),
		fromID:   id.New(),
		toID:     id.New(),
	}

	item := storeitem.New(f.fromID, f.masterID)
	require.NoError(t, db.StoreItems().Create(context.Background(), item))
	f.sourceItem = item.ID
	return f
}

func (f *fixture) stock(t *testing.T, qty int64, cost string, received time.Time) {
	t.Helper()
	_, err := f.ledger.CreateLot(context.Background(), ledger.CreateLotInput{
		StoreItemID:  f.sourceItem,
		Quantity:     types.NewQuantityFromInt(qty),
		UnitCost:     types.MustMoney(cost),
		ReceivedDate: received,
		Provenance:   entity.RequisitionProvenance(id.New(), "PO-1", ""),
	})
	require.NoError(t, err)
}

func (f *fixture) request(t *testing.T, qty int64) *transfer.Transfer {
	t.Helper()
	tr, err := f.svc.Request(context.Background(), transfer.RequestInput{
		MasterItemID: f.masterID,
		FromStoreID:  f.fromID,
		ToStoreID:    f.toID,
		Quantity:     types.NewQuantityFromInt(qty),
		Reason:       "rebalance",
		RequestedBy:  "kim",
	})
	require.NoError(t, err)
	return tr
}

func (f *fixture) balance(t *testing.T, storeID id.ID) types.Quantity {
	t.Helper()
	item, err := f.db.StoreItems().GetByStoreAndMasterItem(context.Background(), storeID, f.masterID)
	if apperror.IsNotFound(err) {
		return 0
	}
	require.NoError(t, err)
	return item.Quantity
}

func TestRequestWithoutAvailabilityCheck(t *testing.T) {
	f := newFixture(t)

	f.stock(t, 20, "10", time.Now())

	// Requesting more than on hand is legal; stock may arrive before
	// execution.
	tr := f.request(t, 30)
	assert.Equal(t, transfer.StatusPending, tr.Status)
	assert.Contains(t, tr.Number, "TRF-")
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Request(ctx, transfer.RequestInput{
		MasterItemID: f.masterID,
		FromStoreID:  f.fromID,
		ToStoreID:    f.toID,
		Quantity:     types.NewQuantityFromInt(0),
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidQuantity))

	_, err = f.svc.Request(ctx, transfer.RequestInput{
		MasterItemID: f.masterID,
		FromStoreID:  f.fromID,
		ToStoreID:    f.fromID,
		Quantity:     types.NewQuantityFromInt(1),
	})
	require.Error(t, err)
}

func TestDecisionGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr := f.request(t, 5)
	require.NoError(t, f.svc.Approve(ctx, tr.ID, "park"))

	// Approved transfers accept no further decisions.
	err := f.svc.Approve(ctx, tr.ID, "park")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransferState))
	err = f.svc.Reject(ctx, tr.ID, "park")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransferState))

	got, err := f.svc.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusApproved, got.Status)
	assert.Equal(t, "park", got.DecidedBy)
	assert.NotNil(t, got.DecidedAt)
}

func TestExecuteRequiresApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.stock(t, 50, "10", time.Now())
	tr := f.request(t, 5)

	_, err := f.svc.Execute(ctx, tr.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransferState))

	require.NoError(t, f.svc.Reject(ctx, tr.ID, "park"))
	_, err = f.svc.Execute(ctx, tr.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransferState))
}

func TestExecuteMovesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	f.stock(t, 60, "10", base)
	f.stock(t, 50, "12", base.AddDate(0, 0, 2))

	tr := f.request(t, 70)
	require.NoError(t, f.svc.Approve(ctx, tr.ID, "park"))

	res, err := f.svc.Execute(ctx, tr.ID)
	require.NoError(t, err)

	// 60 at 10 plus 10 at 12.
	assert.Equal(t, "720", res.TotalCost.String())
	assert.Equal(t, "10.2857142857142857", res.AverageUnitCost.String())

	assert.Equal(t, types.NewQuantityFromInt(40), f.balance(t, f.fromID))
	assert.Equal(t, types.NewQuantityFromInt(70), f.balance(t, f.toID))

	// Destination holds one consolidated lot at the average cost.
	destItem, err := f.db.StoreItems().GetByStoreAndMasterItem(ctx, f.toID, f.masterID)
	require.NoError(t, err)
	lots, err := f.ledger.GetActiveLots(ctx, destItem.ID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, res.DestinationLot, lots[0].ID)
	assert.Equal(t, types.NewQuantityFromInt(70), lots[0].RemainingQuantity)
	assert.Equal(t, "10.2857142857142857", lots[0].UnitCost.String())

	got, err := f.svc.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusExecuted, got.Status)
	assert.NotNil(t, got.ExecutedAt)

	// Paired movements on both sides reference the transfer.
	outKind := entity.MovementTransferOut
	outs, err := f.ledger.Movements(ctx, ledger.MovementFilter{Kind: &outKind})
	require.NoError(t, err)
	require.NotEmpty(t, outs)
	assert.Equal(t, entity.ProvenanceTransfer, outs[0].Provenance.Kind)
	assert.Equal(t, tr.ID, outs[0].Provenance.ID)
	require.NotNil(t, outs[0].CounterpartStoreID)
	assert.Equal(t, f.toID, *outs[0].CounterpartStoreID)

	inKind := entity.MovementTransferIn
	ins, err := f.ledger.Movements(ctx, ledger.MovementFilter{Kind: &inKind})
	require.NoError(t, err)
	require.Len(t, ins, 1)
	require.NotNil(t, ins[0].CounterpartStoreID)
	assert.Equal(t, f.fromID, *ins[0].CounterpartStoreID)
}

func TestExecuteInsufficientStockKeepsApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.stock(t, 20, "10", time.Now())

	tr := f.request(t, 30)
	require.NoError(t, f.svc.Approve(ctx, tr.ID, "park"))

	_, err := f.svc.Execute(ctx, tr.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	// Nothing moved and the transfer stays approved for a later retry.
	got, err := f.svc.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusApproved, got.Status)
	assert.Equal(t, types.NewQuantityFromInt(20), f.balance(t, f.fromID))
	assert.Equal(t, types.Quantity(0), f.balance(t, f.toID))

	// After stock arrives the same transfer executes.
	f.stock(t, 15, "10", time.Now())
	_, err = f.svc.Execute(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(5), f.balance(t, f.fromID))
	assert.Equal(t, types.NewQuantityFromInt(30), f.balance(t, f.toID))
}

func TestExecuteWithNoSourceItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	otherMaster := id.New()
	tr, err := f.svc.Request(ctx, transfer.RequestInput{
		MasterItemID: otherMaster,
		FromStoreID:  f.fromID,
		ToStoreID:    f.toID,
		Quantity:     types.NewQuantityFromInt(3),
		RequestedBy:  "kim",
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Approve(ctx, tr.ID, "park"))

	_, err = f.svc.Execute(ctx, tr.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
}

func TestExecuteConservesTotalQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.stock(t, 80, "5", time.Now())
	before := f.balance(t, f.fromID) + f.balance(t, f.toID)

	tr := f.request(t, 25)
	require.NoError(t, f.svc.Approve(ctx, tr.ID, "park"))
	_, err := f.svc.Execute(ctx, tr.ID)
	require.NoError(t, err)

	after := f.balance(t, f.fromID) + f.balance(t, f.toID)
	assert.Equal(t, before, after)
}

func TestExecuteWithZeroCostStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Source stock found in a cycle count carries no cost.
	require.NoError(t, f.ledger.AdjustDirect(ctx, f.sourceItem,
		types.NewQuantityFromInt(10), nil, "cycle count"))

	tr := f.request(t, 5)
	require.NoError(t, f.svc.Approve(ctx, tr.ID, "park"))

	res, err := f.svc.Execute(ctx, tr.ID)
	require.NoError(t, err)
	assert.True(t, res.TotalCost.IsZero())
	assert.True(t, res.AverageUnitCost.IsZero())

	assert.Equal(t, types.NewQuantityFromInt(5), f.balance(t, f.fromID))
	assert.Equal(t, types.NewQuantityFromInt(5), f.balance(t, f.toID))

	// The destination lot keeps the source's zero average cost.
	destItem, err := f.db.StoreItems().GetByStoreAndMasterItem(ctx, f.toID, f.masterID)
	require.NoError(t, err)
	lots, err := f.ledger.GetActiveLots(ctx, destItem.ID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.True(t, lots[0].UnitCost.IsZero())
}

func TestSuggestSources(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.stock(t, 20, "10", time.Now())

	// A better-stocked store, an empty store, and stock at the
	// requesting store itself.
	richStore := id.New()
	richItem := storeitem.New(richStore, f.masterID)
	require.NoError(t, f.db.StoreItems().Create(ctx, richItem))
	require.NoError(t, f.ledger.AdjustDirect(ctx, richItem.ID,
		types.NewQuantityFromInt(30), nil, "seed"))

	emptyStore := id.New()
	emptyItem := storeitem.New(emptyStore, f.masterID)
	require.NoError(t, f.db.StoreItems().Create(ctx, emptyItem))

	destItem := storeitem.New(f.toID, f.masterID)
	require.NoError(t, f.db.StoreItems().Create(ctx, destItem))
	require.NoError(t, f.ledger.AdjustDirect(ctx, destItem.ID,
		types.NewQuantityFromInt(7), nil, "seed"))

	holdings, err := f.svc.SuggestSources(ctx, f.masterID, &f.toID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	// Largest balance first; the requesting store and empty holdings
	// never appear.
	assert.Equal(t, richStore, holdings[0].StoreID)
	assert.Equal(t, types.NewQuantityFromInt(30), holdings[0].Quantity)
	assert.Equal(t, f.fromID, holdings[1].StoreID)
	assert.Equal(t, types.NewQuantityFromInt(20), holdings[1].Quantity)
}
