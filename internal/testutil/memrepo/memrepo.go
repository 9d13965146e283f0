// Package memrepo provides in-memory repository implementations backed by a
// single shared state, plus a transaction manager with snapshot rollback.
// Used by domain service tests in place of the postgres layer.
package memrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/catalogs/storeitem"
	"storeroom/internal/domain/ledger"
	"storeroom/internal/domain/requisition"
	"storeroom/internal/domain/transfer"
)

// DB holds all in-memory state. Every repository view reads and writes the
// same maps, so cross-aggregate flows (receipt -> lot -> balance) behave
// like they would against one database.
type DB struct {
	mu sync.Mutex

	items     map[id.ID]storeitem.StoreItem
	lots      map[id.ID]ledger.Lot
	lotOrder  []id.ID
	movements []entity.StockMovement
	reqs      map[id.ID]requisition.Requisition
	orderRefs []requisition.OrderReference
	transfers map[id.ID]transfer.Transfer
}

// New creates an empty database.
func New() *DB {
	return &DB{
		items:     make(map[id.ID]storeitem.StoreItem),
		lots:      make(map[id.ID]ledger.Lot),
		reqs:      make(map[id.ID]requisition.Requisition),
		transfers: make(map[id.ID]transfer.Transfer),
	}
}

func (db *DB) snapshot() *DB {
	s := New()
	for k, v := range db.items {
		s.items[k] = v
	}
	for k, v := range db.lots {
		s.lots[k] = v
	}
	s.lotOrder = append([]id.ID(nil), db.lotOrder...)
	s.movements = append([]entity.StockMovement(nil), db.movements...)
	for k, v := range db.reqs {
		v.Lines = append([]requisition.Line(nil), v.Lines...)
		s.reqs[k] = v
	}
	s.orderRefs = append([]requisition.OrderReference(nil), db.orderRefs...)
	for k, v := range db.transfers {
		s.transfers[k] = v
	}
	return s
}

func (db *DB) restore(s *DB) {
	db.items = s.items
	db.lots = s.lots
	db.lotOrder = s.lotOrder
	db.movements = s.movements
	db.reqs = s.reqs
	db.orderRefs = s.orderRefs
	db.transfers = s.transfers
}

type txDepthKey struct{}

// TxManager implements tx.Manager over the in-memory state. The outermost
// call snapshots the state and restores it when fn fails, so rollback
// semantics match the real transaction manager. Nested calls join the
// outer transaction.
type TxManager struct {
	db *DB
}

// NewTxManager creates a transaction manager for the database.
func NewTxManager(db *DB) *TxManager { return &TxManager{db: db} }

func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if depth, _ := ctx.Value(txDepthKey{}).(int); depth > 0 {
		return fn(context.WithValue(ctx, txDepthKey{}, depth+1))
	}

	m.db.mu.Lock()
	snap := m.db.snapshot()
	m.db.mu.Unlock()

	if err := fn(context.WithValue(ctx, txDepthKey{}, 1)); err != nil {
		m.db.mu.Lock()
		m.db.restore(snap)
		m.db.mu.Unlock()
		return err
	}
	return nil
}

func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// StoreItems returns the storeitem.Repository view.
func (db *DB) StoreItems() storeitem.Repository { return &storeItemRepo{db} }

// Lots returns the ledger.Repository view.
func (db *DB) Lots() ledger.Repository { return &ledgerRepo{db} }

// Requisitions returns the requisition.Repository view.
func (db *DB) Requisitions() requisition.Repository { return &requisitionRepo{db} }

// Transfers returns the transfer.Repository view.
func (db *DB) Transfers() transfer.Repository { return &transferRepo{db} }

type storeItemRepo struct{ db *DB }

func (r *storeItemRepo) Create(ctx context.Context, item *storeitem.StoreItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.items[item.ID] = *item
	return nil
}

func (r *storeItemRepo) GetByID(ctx context.Context, itemID id.ID) (*storeitem.StoreItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	item, ok := r.db.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("store item", itemID)
	}
	return &item, nil
}

func (r *storeItemRepo) GetForUpdate(ctx context.Context, itemID id.ID) (*storeitem.StoreItem, error) {
	return r.GetByID(ctx, itemID)
}

func (r *storeItemRepo) GetByStoreAndMasterItem(ctx context.Context, storeID, masterItemID id.ID) (*storeitem.StoreItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, item := range r.db.items {
		if item.StoreID == storeID && item.MasterItemID == masterItemID {
			found := item
			return &found, nil
		}
	}
	return nil, apperror.NewNotFound("store item", masterItemID)
}

func (r *storeItemRepo) Update(ctx context.Context, item *storeitem.StoreItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.items[item.ID]; !ok {
		return apperror.NewNotFound("store item", item.ID)
	}
	r.db.items[item.ID] = *item
	return nil
}

func (r *storeItemRepo) AdjustQuantity(ctx context.Context, itemID id.ID, delta types.Quantity) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	item, ok := r.db.items[itemID]
	if !ok {
		return apperror.NewNotFound("store item", itemID)
	}
	item.Quantity += delta
	r.db.items[itemID] = item
	return nil
}

func (r *storeItemRepo) ListByStore(ctx context.Context, storeID id.ID, includeInactive bool) ([]*storeitem.StoreItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*storeitem.StoreItem
	for _, item := range r.db.items {
		if item.StoreID != storeID {
			continue
		}
		if !includeInactive && !item.IsActive {
			continue
		}
		found := item
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return id.Less(out[i].ID, out[j].ID) })
	return out, nil
}

func (r *storeItemRepo) ListLowStock(ctx context.Context, storeID *id.ID) ([]storeitem.LowStockRow, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []storeitem.LowStockRow
	for _, item := range r.db.items {
		if storeID != nil && item.StoreID != *storeID {
			continue
		}
		if !item.IsActive || item.ReorderPoint.IsZero() {
			continue
		}
		if item.Quantity <= item.ReorderPoint {
			out = append(out, storeitem.LowStockRow{
				StoreItemID:  item.ID,
				StoreID:      item.StoreID,
				MasterItemID: item.MasterItemID,
				Quantity:     item.Quantity,
				ReorderPoint: item.ReorderPoint,
				SafetyStock:  item.SafetyStock,
			})
		}
	}
	return out, nil
}

func (r *storeItemRepo) ListHoldings(ctx context.Context, masterItemID id.ID, excludeStoreID *id.ID) ([]storeitem.StoreHolding, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []storeitem.StoreHolding
	for _, item := range r.db.items {
		if item.MasterItemID != masterItemID || !item.IsActive {
			continue
		}
		if !item.Quantity.IsPositive() {
			continue
		}
		if excludeStoreID != nil && item.StoreID == *excludeStoreID {
			continue
		}
		out = append(out, storeitem.StoreHolding{
			StoreItemID:  item.ID,
			StoreID:      item.StoreID,
			MasterItemID: item.MasterItemID,
			Quantity:     item.Quantity,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return id.Less(out[i].StoreItemID, out[j].StoreItemID)
	})
	return out, nil
}

type ledgerRepo struct{ db *DB }

func (r *ledgerRepo) CreateLot(ctx context.Context, lot *ledger.Lot) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.lots[lot.ID] = *lot
	r.db.lotOrder = append(r.db.lotOrder, lot.ID)
	return nil
}

func (r *ledgerRepo) activeLots(storeItemID id.ID) []ledger.Lot {
	var out []ledger.Lot
	for _, lotID := range r.db.lotOrder {
		lot := r.db.lots[lotID]
		if lot.StoreItemID == storeItemID && lot.Status == ledger.LotActive {
			out = append(out, lot)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ReceivedDate.Equal(out[j].ReceivedDate) {
			return out[i].ReceivedDate.Before(out[j].ReceivedDate)
		}
		return id.Less(out[i].ID, out[j].ID)
	})
	return out
}

func (r *ledgerRepo) GetActiveLotsForUpdate(ctx context.Context, storeItemID id.ID) ([]ledger.Lot, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.activeLots(storeItemID), nil
}

func (r *ledgerRepo) GetActiveLots(ctx context.Context, storeItemID id.ID) ([]ledger.Lot, error) {
	return r.GetActiveLotsForUpdate(ctx, storeItemID)
}

func (r *ledgerRepo) UpdateLotConsumption(ctx context.Context, lotID id.ID, remaining types.Quantity, status ledger.LotStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	lot, ok := r.db.lots[lotID]
	if !ok {
		return apperror.NewNotFound("lot", lotID)
	}
	lot.RemainingQuantity = remaining
	lot.Status = status
	r.db.lots[lotID] = lot
	return nil
}

func (r *ledgerRepo) SumActiveRemaining(ctx context.Context, storeItemID id.ID) (types.Quantity, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var sum types.Quantity
	for _, lot := range r.activeLots(storeItemID) {
		sum += lot.RemainingQuantity
	}
	return sum, nil
}

func (r *ledgerRepo) AppendMovements(ctx context.Context, movements []entity.StockMovement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.movements = append(r.db.movements, movements...)
	return nil
}

func (r *ledgerRepo) ListMovements(ctx context.Context, filter ledger.MovementFilter) ([]entity.StockMovement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entity.StockMovement
	for _, m := range r.db.movements {
		if filter.StoreID != nil && m.StoreID != *filter.StoreID {
			continue
		}
		if filter.StoreItemID != nil && m.StoreItemID != *filter.StoreItemID {
			continue
		}
		if filter.Kind != nil && m.Kind != *filter.Kind {
			continue
		}
		if filter.From != nil && m.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && m.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

type requisitionRepo struct{ db *DB }

func cloneReq(req requisition.Requisition) requisition.Requisition {
	req.Lines = append([]requisition.Line(nil), req.Lines...)
	return req
}

func (r *requisitionRepo) Create(ctx context.Context, req *requisition.Requisition) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.reqs[req.ID] = cloneReq(*req)
	return nil
}

func (r *requisitionRepo) GetByID(ctx context.Context, reqID id.ID) (*requisition.Requisition, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req, ok := r.db.reqs[reqID]
	if !ok {
		return nil, apperror.NewNotFound("requisition", reqID)
	}
	found := cloneReq(req)
	return &found, nil
}

func (r *requisitionRepo) GetForUpdate(ctx context.Context, reqID id.ID) (*requisition.Requisition, error) {
	return r.GetByID(ctx, reqID)
}

func (r *requisitionRepo) UpdateStatus(ctx context.Context, reqID id.ID, status requisition.Status) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req, ok := r.db.reqs[reqID]
	if !ok {
		return apperror.NewNotFound("requisition", reqID)
	}
	req.Status = status
	req.UpdatedAt = time.Now().UTC()
	r.db.reqs[reqID] = req
	return nil
}

func (r *requisitionRepo) AddLineReceived(ctx context.Context, lineID id.ID, delta types.Quantity) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for reqID, req := range r.db.reqs {
		for i := range req.Lines {
			if req.Lines[i].ID == lineID {
				req.Lines[i].ReceivedQuantity += delta
				r.db.reqs[reqID] = req
				return nil
			}
		}
	}
	return apperror.NewNotFound("requisition line", lineID)
}

func (r *requisitionRepo) List(ctx context.Context, filter requisition.ListFilter) ([]*requisition.Requisition, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*requisition.Requisition
	for _, req := range r.db.reqs {
		if filter.StoreID != nil && req.StoreID != *filter.StoreID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		found := cloneReq(req)
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *requisitionRepo) ListDue(ctx context.Context, storeID *id.ID, horizon time.Time) ([]*requisition.Requisition, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*requisition.Requisition
	for _, req := range r.db.reqs {
		if storeID != nil && req.StoreID != *storeID {
			continue
		}
		if req.Status == requisition.StatusCancelled || req.Status == requisition.StatusFullyReceived {
			continue
		}
		if req.RequiredDate == nil || req.RequiredDate.After(horizon) {
			continue
		}
		found := cloneReq(req)
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequiredDate.Before(*out[j].RequiredDate)
	})
	return out, nil
}

func (r *requisitionRepo) GetOrderReference(ctx context.Context, reqID id.ID, number string) (*requisition.OrderReference, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, ref := range r.db.orderRefs {
		if ref.RequisitionID == reqID && ref.Number == number {
			found := ref
			return &found, nil
		}
	}
	return nil, apperror.NewNotFound("order reference", number)
}

func (r *requisitionRepo) CreateOrderReference(ctx context.Context, ref *requisition.OrderReference) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.orderRefs = append(r.db.orderRefs, *ref)
	return nil
}

func (r *requisitionRepo) ListOrderReferences(ctx context.Context, reqID id.ID) ([]requisition.OrderReference, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []requisition.OrderReference
	for _, ref := range r.db.orderRefs {
		if ref.RequisitionID == reqID {
			out = append(out, ref)
		}
	}
	return out, nil
}

type transferRepo struct{ db *DB }

func (r *transferRepo) Create(ctx context.Context, t *transfer.Transfer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.transfers[t.ID] = *t
	return nil
}

func (r *transferRepo) GetByID(ctx context.Context, transferID id.ID) (*transfer.Transfer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.transfers[transferID]
	if !ok {
		return nil, apperror.NewNotFound("transfer", transferID)
	}
	return &t, nil
}

func (r *transferRepo) GetForUpdate(ctx context.Context, transferID id.ID) (*transfer.Transfer, error) {
	return r.GetByID(ctx, transferID)
}

func (r *transferRepo) UpdateDecision(ctx context.Context, transferID id.ID, status transfer.Status, decidedBy string, decidedAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.transfers[transferID]
	if !ok {
		return apperror.NewNotFound("transfer", transferID)
	}
	t.Status = status
	t.DecidedBy = decidedBy
	t.DecidedAt = &decidedAt
	t.UpdatedAt = decidedAt
	r.db.transfers[transferID] = t
	return nil
}

func (r *transferRepo) MarkExecuted(ctx context.Context, transferID id.ID, executedAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.transfers[transferID]
	if !ok {
		return apperror.NewNotFound("transfer", transferID)
	}
	t.Status = transfer.StatusExecuted
	t.ExecutedAt = &executedAt
	t.UpdatedAt = executedAt
	r.db.transfers[transferID] = t
	return nil
}

func (r *transferRepo) List(ctx context.Context, filter transfer.ListFilter) ([]*transfer.Transfer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*transfer.Transfer
	for _, t := range r.db.transfers {
		if filter.StoreID != nil && t.FromStoreID != *filter.StoreID && t.ToStoreID != *filter.StoreID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		found := t
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
