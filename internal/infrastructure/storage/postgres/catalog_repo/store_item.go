package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/catalogs/storeitem"
	"storeroom/internal/infrastructure/storage/postgres"
)

const storeItemsTable = "store_items"

var storeItemColumns = []string{
	"id", "version", "is_active", "created_at", "updated_at",
	"store_id", "master_item_id", "local_sku", "local_name",
	"reorder_point", "reorder_quantity", "safety_stock", "lead_time_days",
	"quantity",
}

var _ storeitem.Repository = (*StoreItemRepo)(nil)

// StoreItemRepo implements storeitem.Repository.
type StoreItemRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStoreItemRepo creates a store item repository.
func NewStoreItemRepo(txManager *postgres.TxManager) *StoreItemRepo {
	return &StoreItemRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *StoreItemRepo) Create(ctx context.Context, item *storeitem.StoreItem) error {
	sql, args, err := r.builder.Insert(storeItemsTable).
		Columns(storeItemColumns...).
		Values(
			item.ID, item.Version, item.IsActive, item.CreatedAt, item.UpdatedAt,
			item.StoreID, item.MasterItemID, item.LocalSKU, item.LocalName,
			item.ReorderPoint, item.ReorderQuantity, item.SafetyStock, item.LeadTimeDays,
			item.Quantity,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("store item", "master_item_id", item.MasterItemID.String())
		}
		return fmt.Errorf("insert store item: %w", err)
	}
	return nil
}

func (r *StoreItemRepo) GetByID(ctx context.Context, itemID id.ID) (*storeitem.StoreItem, error) {
	return r.getOne(ctx, squirrel.Eq{"id": itemID}, false)
}

// GetForUpdate locks the store item row. Must run inside a transaction.
func (r *StoreItemRepo) GetForUpdate(ctx context.Context, itemID id.ID) (*storeitem.StoreItem, error) {
	return r.getOne(ctx, squirrel.Eq{"id": itemID}, true)
}

func (r *StoreItemRepo) GetByStoreAndMasterItem(ctx context.Context, storeID, masterItemID id.ID) (*storeitem.StoreItem, error) {
	return r.getOne(ctx, squirrel.Eq{"store_id": storeID, "master_item_id": masterItemID}, false)
}

func (r *StoreItemRepo) getOne(ctx context.Context, where squirrel.Eq, forUpdate bool) (*storeitem.StoreItem, error) {
	q := r.builder.Select(storeItemColumns...).
		From(storeItemsTable).
		Where(where)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var item storeitem.StoreItem
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("store item", fmt.Sprintf("%v", where))
		}
		return nil, fmt.Errorf("get store item: %w", err)
	}
	return &item, nil
}

func (r *StoreItemRepo) Update(ctx context.Context, item *storeitem.StoreItem) error {
	sql, args, err := r.builder.Update(storeItemsTable).
		Set("version", item.Version).
		Set("is_active", item.IsActive).
		Set("updated_at", item.UpdatedAt).
		Set("local_sku", item.LocalSKU).
		Set("local_name", item.LocalName).
		Set("reorder_point", item.ReorderPoint).
		Set("reorder_quantity", item.ReorderQuantity).
		Set("safety_stock", item.SafetyStock).
		Set("lead_time_days", item.LeadTimeDays).
		Where(squirrel.Eq{"id": item.ID}).
		Where(squirrel.Eq{"version": item.Version - 1}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update store item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("store item", item.ID)
	}
	return nil
}

// AdjustQuantity applies a signed delta to the cached balance. The caller
// holds the row lock from GetForUpdate.
func (r *StoreItemRepo) AdjustQuantity(ctx context.Context, itemID id.ID, delta types.Quantity) error {
	sql, args, err := r.builder.Update(storeItemsTable).
		Set("quantity", squirrel.Expr("quantity + ?", delta)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("adjust quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("store item", itemID)
	}
	return nil
}

func (r *StoreItemRepo) ListByStore(ctx context.Context, storeID id.ID, includeInactive bool) ([]*storeitem.StoreItem, error) {
	q := r.builder.Select(storeItemColumns...).
		From(storeItemsTable).
		Where(squirrel.Eq{"store_id": storeID}).
		OrderBy("created_at")
	if !includeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var items []*storeitem.StoreItem
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list store items: %w", err)
	}
	return items, nil
}

// ListLowStock joins the master catalog so the listing carries resolved
// display fields. Rows with a zero reorder point never alert.
func (r *StoreItemRepo) ListLowStock(ctx context.Context, storeID *id.ID) ([]storeitem.LowStockRow, error) {
	q := r.builder.Select(
		"si.id AS store_item_id",
		"si.store_id",
		"si.master_item_id",
		"COALESCE(NULLIF(si.local_sku, ''), mi.sku) AS sku",
		"COALESCE(NULLIF(si.local_name, ''), mi.name) AS name",
		"si.quantity",
		"si.reorder_point",
		"si.safety_stock",
	).
		From(storeItemsTable + " si").
		Join(masterItemsTable + " mi ON mi.id = si.master_item_id").
		Where(squirrel.Eq{"si.is_active": true}).
		Where(squirrel.Gt{"si.reorder_point": 0}).
		Where("si.quantity <= si.reorder_point").
		OrderBy("si.quantity - si.safety_stock")

	if storeID != nil {
		q = q.Where(squirrel.Eq{"si.store_id": *storeID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []storeitem.LowStockRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return rows, nil
}

// ListHoldings joins the store catalog so suggestions carry the store's
// code and name. Only positive balances qualify.
func (r *StoreItemRepo) ListHoldings(ctx context.Context, masterItemID id.ID, excludeStoreID *id.ID) ([]storeitem.StoreHolding, error) {
	q := r.builder.Select(
		"si.id AS store_item_id",
		"si.store_id",
		"st.code AS store_code",
		"st.name AS store_name",
		"si.master_item_id",
		"si.quantity",
	).
		From(storeItemsTable + " si").
		Join(storesTable + " st ON st.id = si.store_id").
		Where(squirrel.Eq{"si.master_item_id": masterItemID}).
		Where(squirrel.Eq{"si.is_active": true, "st.is_active": true}).
		Where(squirrel.Gt{"si.quantity": 0}).
		OrderBy("si.quantity DESC")

	if excludeStoreID != nil {
		q = q.Where(squirrel.NotEq{"si.store_id": *excludeStoreID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []storeitem.StoreHolding
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	return rows, nil
}
