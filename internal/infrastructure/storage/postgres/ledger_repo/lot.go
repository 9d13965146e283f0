// Package ledger_repo provides the PostgreSQL implementation of the lot
// ledger repository.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/ledger"
	"storeroom/internal/infrastructure/storage/postgres"
)

const lotsTable = "inventory_lots"

var lotColumns = []string{
	"id", "store_item_id", "lot_number", "quantity", "unit_cost",
	"remaining_quantity", "status", "received_date",
	"provenance_kind", "provenance_id", "order_reference", "supplier",
	"created_at",
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository: lot rows plus the append-only
// movement log.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *LedgerRepo) CreateLot(ctx context.Context, lot *ledger.Lot) error {
	sql, args, err := r.builder.Insert(lotsTable).
		Columns(lotColumns...).
		Values(
			lot.ID, lot.StoreItemID, lot.LotNumber, lot.Quantity, lot.UnitCost,
			lot.RemainingQuantity, lot.Status, lot.ReceivedDate,
			lot.Provenance.Kind, lot.Provenance.ID, lot.OrderReference, lot.Supplier,
			lot.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

// GetActiveLotsForUpdate returns the item's active lots with row locks,
// FIFO order: oldest received date first, id ascending on ties.
func (r *LedgerRepo) GetActiveLotsForUpdate(ctx context.Context, storeItemID id.ID) ([]ledger.Lot, error) {
	return r.activeLots(ctx, storeItemID, true)
}

func (r *LedgerRepo) GetActiveLots(ctx context.Context, storeItemID id.ID) ([]ledger.Lot, error) {
	return r.activeLots(ctx, storeItemID, false)
}

func (r *LedgerRepo) activeLots(ctx context.Context, storeItemID id.ID, forUpdate bool) ([]ledger.Lot, error) {
	q := r.builder.Select(lotColumns...).
		From(lotsTable).
		Where(squirrel.Eq{
			"store_item_id": storeItemID,
			"status":        ledger.LotActive,
		}).
		OrderBy("received_date", "id")
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var lots []ledger.Lot
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lots, sql, args...); err != nil {
		return nil, fmt.Errorf("select active lots: %w", err)
	}
	return lots, nil
}

func (r *LedgerRepo) UpdateLotConsumption(ctx context.Context, lotID id.ID, remaining types.Quantity, status ledger.LotStatus) error {
	sql, args, err := r.builder.Update(lotsTable).
		Set("remaining_quantity", remaining).
		Set("status", status).
		Where(squirrel.Eq{"id": lotID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("lot", lotID)
	}
	return nil
}

func (r *LedgerRepo) SumActiveRemaining(ctx context.Context, storeItemID id.ID) (types.Quantity, error) {
	sql, args, err := r.builder.Select("COALESCE(SUM(remaining_quantity), 0)").
		From(lotsTable).
		Where(squirrel.Eq{
			"store_item_id": storeItemID,
			"status":        ledger.LotActive,
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build select: %w", err)
	}

	var sum int64
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &sum, sql, args...); err != nil {
		return 0, fmt.Errorf("sum active lots: %w", err)
	}
	return types.NewQuantityFromInt64Scaled(sum), nil
}
