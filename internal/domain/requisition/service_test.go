package requisition_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/numerator"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/catalogs/storeitem"
	"storeroom/internal/domain/ledger"
	"storeroom/internal/domain/requisition"
	"storeroom/internal/testutil/memrepo"
)

type fixture struct {
	db      *memrepo.DB
	svc     *requisition.Service
	ledger  *ledger.Service
	storeID id.ID
	itemA   id.ID // master item ids
	itemB   id.ID
}

func newFixture(t *testing.T, cfg requisition.Config) *fixture {
	t.Helper()

	db := memrepo.New()
	txm := memrepo.NewTxManager(db)
	gen := &numerator.MockGenerator{}

	items := storeitem.NewService(db.StoreItems(), txm)
	ledgerSvc := ledger.NewService(db.Lots(), db.StoreItems(), gen, txm, nil)
	svc := requisition.NewService(db.Requisitions(), items, ledgerSvc, gen, txm, cfg)

	return &fixture{
		db:      db,
		svc:     svc,
		ledger:  ledgerSvc,
		storeID: id.New(),
		itemA:   id.New(),
		itemB:   id.New(),
	}
}

// orderedReq creates and submits a two-line requisition: 20 of itemA, 8 of
// itemB.
func (f *fixture) orderedReq(t *testing.T) *requisition.Requisition {
	t.Helper()
	ctx := context.Background()

	req, err := f.svc.Create(ctx, requisition.CreateInput{
		StoreID:   f.storeID,
		Requester: "lee",
		Lines: []requisition.LineInput{
			{MasterItemID: f.itemA, Quantity: types.NewQuantityFromInt(20), EstimatedUnitCost: types.MustMoney("10")},
			{MasterItemID: f.itemB, Quantity: types.NewQuantityFromInt(8), EstimatedUnitCost: types.MustMoney("3")},
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Submit(ctx, req.ID))

	req, err = f.svc.GetByID(ctx, req.ID)
	require.NoError(t, err)
	return req
}

func (f *fixture) storeBalance(t *testing.T, masterItemID id.ID) types.Quantity {
	t.Helper()
	item, err := f.db.StoreItems().GetByStoreAndMasterItem(context.Background(), f.storeID, masterItemID)
	if apperror.IsNotFound(err) {
		return 0
	}
	require.NoError(t, err)
	return item.Quantity
}

func TestCreateRequisition(t *testing.T) {
	f := newFixture(t, requisition.DefaultConfig())

	req := f.orderedReq(t)

	assert.Contains(t, req.Number, "PR-")
	assert.Equal(t, requisition.StatusOrdered, req.Status)
	require.Len(t, req.Lines, 2)
	assert.Equal(t, types.Quantity(0), req.Lines[0].ReceivedQuantity)
}

func TestCreateEmptyRequisition(t *testing.T) {
	f := newFixture(t, requisition.DefaultConfig())

	_, err := f.svc.Create(context.Background(), requisition.CreateInput{
		StoreID:   f.storeID,
		Requester: "lee",
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeEmptyRequisition))
}

func TestReceiveRequiresOrderReference(t *testing.T) {
	f := newFixture(t, requisition.DefaultConfig())
	ctx := context.Background()

	req := f.orderedReq(t)

	for _, ref := range []string{"", "   "} {
		_, err := f.svc.Receive(ctx, requisition.ReceiveInput{
			RequisitionID:  req.ID,
			OrderReference: ref,
			Lines: []requisition.ReceiptLine{
				{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(12), UnitCost: types.MustMoney("10")},
			},
		})
		assert.True(t, apperror.HasCode(err, apperror.CodeMissingOrderReference))
	}

	// Nothing moved: no stock, line untouched, status unchanged.
	assert.Equal(t, types.Quantity(0), f.storeBalance(t, f.itemA))
	got, err := f.svc.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusOrdered, got.Status)
	assert.Equal(t, types.Quantity(0), got.Lines[0].ReceivedQuantity)
}

func TestReceivePartialThenFull(t *testing.T) {
	f := newFixture(t, requisition.DefaultConfig())
	ctx := context.Background()

	req := f.orderedReq(t)

	res, err := f.svc.Receive(ctx, requisition.ReceiveInput{
		RequisitionID:  req.ID,
		OrderReference: "PO-2026-001",
		Supplier:       "Acme Supplies",
		Lines: []requisition.ReceiptLine{
			{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(12), UnitCost: types.MustMoney("10")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusPartiallyReceived, res.Status)
	require.Len(t, res.Receipts, 1)
	assert.Contains(t, res.Receipts[0].LotNumber, "LOT-")

	assert.Equal(t, types.NewQuantityFromInt(12), f.storeBalance(t, f.itemA))

	// Second delivery under a different order completes both lines.
	res, err = f.svc.Receive(ctx, requisition.ReceiveInput{
		RequisitionID:  req.ID,
		OrderReference: "PO-2026-002",
		Supplier:       "Acme Supplies",
		Lines: []requisition.ReceiptLine{
			{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(8), UnitCost: types.MustMoney("10.50")},
			{RequisitionLineID: req.Lines[1].ID, Quantity: types.NewQuantityFromInt(8), UnitCost: types.MustMoney("3")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusFullyReceived, res.Status)

	assert.Equal(t, types.NewQuantityFromInt(20), f.storeBalance(t, f.itemA))
	assert.Equal(t, types.NewQuantityFromInt(8), f.storeBalance(t, f.itemB))

	refs, err := f.svc.OrderReferences(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	// A repeated order number reuses the existing reference row.
	got, err := f.svc.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(20), got.Lines[0].ReceivedQuantity)
	assert.Equal(t, types.NewQuantityFromInt(8), got.Lines[1].ReceivedQuantity)
}

func TestReceiveSameOrderReferenceTwice(t *testing.T) {
	f := newFixture(t, requisition.DefaultConfig())
	ctx := context.Background()

	req := f.orderedReq(t)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Receive(ctx, requisition.ReceiveInput{
			RequisitionID:  req.ID,
			OrderReference: "PO-555",
			Lines: []requisition.ReceiptLine{
				{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(5), UnitCost: types.MustMoney("10")},
			},
		})
		require.NoError(t, err)
	}

	refs, err := f.svc.OrderReferences(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

func TestReceiveCreatesLotsAtActualCost(t *testing.T) {
	f := newFixture(t, requisition.DefaultConfig())
	ctx := context.Background()

	req := f.orderedReq(t)

	_, err := f.svc.Receive(ctx, requisition.ReceiveInput{
		RequisitionID:  req.ID,
		OrderReference: "PO-9",
		Lines: []requisition.ReceiptLine{
			{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(10), UnitCost: types.MustMoney("11.40")},
		},
	})
	require.NoError(t, err)

	item, err := f.db.StoreItems().GetByStoreAndMasterItem(ctx, f.storeID, f.itemA)
	require.NoError(t, err)
	lots, err := f.ledger.GetActiveLots(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "11.4", lots[0].UnitCost.String())
	assert.Equal(t, "PO-9", lots[0].OrderReference)
}

func TestReceiveFallsBackToEstimatedCost(t *testing.T) {
	f := newFixture(t, requisition.DefaultConfig())
	ctx := context.Background()

	req := f.orderedReq(t)

	_, err := f.svc.Receive(ctx, requisition.ReceiveInput{
		RequisitionID:  req.ID,
		OrderReference: "PO-10",
		Lines: []requisition.ReceiptLine{
			{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(5)},
		},
	})
	require.NoError(t, err)

	item, err := f.db.StoreItems().GetByStoreAndMasterItem(ctx, f.storeID, f.itemA)
	require.NoError(t, err)
	lots, err := f.ledger.GetActiveLots(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "10", lots[0].UnitCost.String())
}

func TestOverReceiptPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed by default", func(t *testing.T) {
		f := newFixture(t, requisition.DefaultConfig())
		req := f.orderedReq(t)

		res, err := f.svc.Receive(ctx, requisition.ReceiveInput{
			RequisitionID:  req.ID,
			OrderReference: "PO-1",
			Lines: []requisition.ReceiptLine{
				{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(25), UnitCost: types.MustMoney("10")},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, requisition.StatusPartiallyReceived, res.Status)
		assert.Equal(t, types.NewQuantityFromInt(25), f.storeBalance(t, f.itemA))
	})

	t.Run("rejected when disabled", func(t *testing.T) {
		f := newFixture(t, requisition.Config{AllowOverReceipt: false})
		req := f.orderedReq(t)

		_, err := f.svc.Receive(ctx, requisition.ReceiveInput{
			RequisitionID:  req.ID,
			OrderReference: "PO-1",
			Lines: []requisition.ReceiptLine{
				{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(25), UnitCost: types.MustMoney("10")},
			},
		})
		require.Error(t, err)
		assert.Equal(t, types.Quantity(0), f.storeBalance(t, f.itemA))
	})

	t.Run("rejected when split across entries", func(t *testing.T) {
		f := newFixture(t, requisition.Config{AllowOverReceipt: false})
		req := f.orderedReq(t)

		// Two entries of 12 against a requested 20 are each under the
		// outstanding amount but exceed it combined.
		_, err := f.svc.Receive(ctx, requisition.ReceiveInput{
			RequisitionID:  req.ID,
			OrderReference: "PO-1",
			Lines: []requisition.ReceiptLine{
				{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(12), UnitCost: types.MustMoney("10")},
				{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(12), UnitCost: types.MustMoney("10")},
			},
		})
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		assert.Equal(t, types.Quantity(0), f.storeBalance(t, f.itemA))

		got, err := f.svc.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, types.Quantity(0), got.Lines[0].ReceivedQuantity)
	})
}

func TestReceiveRejectsBadLines(t *testing.T) {
	f := newFixture(t, requisition.DefaultConfig())
	ctx := context.Background()

	req := f.orderedReq(t)

	_, err := f.svc.Receive(ctx, requisition.ReceiveInput{
		RequisitionID:  req.ID,
		OrderReference: "PO-1",
		Lines: []requisition.ReceiptLine{
			{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(0)},
		},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidQuantity))

	_, err = f.svc.Receive(ctx, requisition.ReceiveInput{
		RequisitionID:  req.ID,
		OrderReference: "PO-1",
		Lines: []requisition.ReceiptLine{
			{RequisitionLineID: id.New(), Quantity: types.NewQuantityFromInt(1)},
		},
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestReceiveOnCancelledRequisition(t *testing.T) {
	f := newFixture(t, requisition.DefaultConfig())
	ctx := context.Background()

	req := f.orderedReq(t)
	require.NoError(t, f.svc.Cancel(ctx, req.ID))

	_, err := f.svc.Receive(ctx, requisition.ReceiveInput{
		RequisitionID:  req.ID,
		OrderReference: "PO-1",
		Lines: []requisition.ReceiptLine{
			{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(1), UnitCost: types.MustMoney("10")},
		},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeRequisitionCancelled))
}

func TestReceiveOnFullyReceivedRequisition(t *testing.T) {
	f := newFixture(t, requisition.DefaultConfig())
	ctx := context.Background()

	req := f.orderedReq(t)

	_, err := f.svc.Receive(ctx, requisition.ReceiveInput{
		RequisitionID:  req.ID,
		OrderReference: "PO-1",
		Lines: []requisition.ReceiptLine{
			{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(20), UnitCost: types.MustMoney("10")},
			{RequisitionLineID: req.Lines[1].ID, Quantity: types.NewQuantityFromInt(8), UnitCost: types.MustMoney("3")},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Receive(ctx, requisition.ReceiveInput{
		RequisitionID:  req.ID,
		OrderReference: "PO-2",
		Lines: []requisition.ReceiptLine{
			{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(1), UnitCost: types.MustMoney("10")},
		},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidRequisitionState))
}

func TestCancelLifecycle(t *testing.T) {
	f := newFixture(t, requisition.DefaultConfig())
	ctx := context.Background()

	req := f.orderedReq(t)

	// Cancel after a partial receipt is allowed; earlier receipts stay.
	_, err := f.svc.Receive(ctx, requisition.ReceiveInput{
		RequisitionID:  req.ID,
		OrderReference: "PO-1",
		Lines: []requisition.ReceiptLine{
			{RequisitionLineID: req.Lines[0].ID, Quantity: types.NewQuantityFromInt(5), UnitCost: types.MustMoney("10")},
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(ctx, req.ID))

	got, err := f.svc.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusCancelled, got.Status)
	assert.Equal(t, types.NewQuantityFromInt(5), f.storeBalance(t, f.itemA))

	// Cancelling twice fails.
	err = f.svc.Cancel(ctx, req.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeRequisitionCancelled))
}

func TestSubmitOnlyFromCreated(t *testing.T) {
	f := newFixture(t, requisition.DefaultConfig())
	ctx := context.Background()

	req := f.orderedReq(t)
	err := f.svc.Submit(ctx, req.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidRequisitionState))
}

func TestRecomputeStatusIdempotent(t *testing.T) {
	req := &requisition.Requisition{
		Status: requisition.StatusOrdered,
		Lines: []requisition.Line{
			{RequestedQuantity: types.NewQuantityFromInt(10), ReceivedQuantity: types.NewQuantityFromInt(10)},
			{RequestedQuantity: types.NewQuantityFromInt(5), ReceivedQuantity: types.NewQuantityFromInt(5)},
		},
	}

	assert.Equal(t, requisition.StatusFullyReceived, req.RecomputeStatus())
	req.Status = requisition.StatusFullyReceived
	assert.Equal(t, requisition.StatusFullyReceived, req.RecomputeStatus())

	cancelled := &requisition.Requisition{Status: requisition.StatusCancelled}
	assert.Equal(t, requisition.StatusCancelled, cancelled.RecomputeStatus())
}

func TestListDue(t *testing.T) {
	f := newFixture(t, requisition.DefaultConfig())
	ctx := context.Background()

	soon := time.Now().UTC().AddDate(0, 0, 2)
	later := time.Now().UTC().AddDate(0, 0, 30)

	mk := func(required time.Time) {
		_, err := f.svc.Create(ctx, requisition.CreateInput{
			StoreID:      f.storeID,
			Requester:    "lee",
			RequiredDate: &required,
			Lines: []requisition.LineInput{
				{MasterItemID: f.itemA, Quantity: types.NewQuantityFromInt(1), EstimatedUnitCost: types.MustMoney("1")},
			},
		})
		require.NoError(t, err)
	}
	mk(soon)
	mk(later)

	due, err := f.svc.ListDue(ctx, &f.storeID, 7)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}
