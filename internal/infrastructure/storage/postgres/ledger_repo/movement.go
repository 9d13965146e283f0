package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"storeroom/internal/core/entity"
	"storeroom/internal/domain/ledger"
)

const movementsTable = "stock_movements"

var movementColumns = []string{
	"id", "store_id", "store_item_id", "lot_id", "kind", "quantity", "unit_cost",
	"provenance_kind", "provenance_id", "order_reference", "supplier",
	"counterpart_store_id", "actor", "created_at",
}

// AppendMovements batch inserts transaction log entries. Uses COPY inside a
// transaction, plain insert otherwise.
func (r *LedgerRepo) AppendMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, []any{
			m.ID, m.StoreID, m.StoreItemID, m.LotID, m.Kind, m.Quantity, m.UnitCost,
			m.Provenance.Kind, m.Provenance.ID, m.OrderReference, m.Supplier,
			m.CounterpartStoreID, m.Actor, m.CreatedAt,
		})
	}

	if dbTx := r.txManager.GetTx(ctx); dbTx != nil {
		_, err := dbTx.CopyFrom(ctx, pgx.Identifier{movementsTable}, movementColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(movementsTable).Columns(movementColumns...)
	for _, row := range rows {
		q = q.Values(row...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

func (r *LedgerRepo) ListMovements(ctx context.Context, filter ledger.MovementFilter) ([]entity.StockMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		OrderBy("created_at DESC", "id DESC")

	if filter.StoreID != nil {
		q = q.Where(squirrel.Eq{"store_id": *filter.StoreID})
	}
	if filter.StoreItemID != nil {
		q = q.Where(squirrel.Eq{"store_item_id": *filter.StoreItemID})
	}
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.To})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}
