// Package transfer_repo provides the PostgreSQL implementation of the
// transfer repository.
package transfer_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain/transfer"
	"storeroom/internal/infrastructure/storage/postgres"
)

const transfersTable = "transfer_requests"

var transferColumns = []string{
	"id", "number", "master_item_id", "from_store_id", "to_store_id",
	"quantity", "status", "reason", "requested_by",
	"decided_by", "decided_at", "executed_at",
	"version", "created_at", "updated_at",
}

var _ transfer.Repository = (*TransferRepo)(nil)

// TransferRepo implements transfer.Repository.
type TransferRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewTransferRepo creates a transfer repository.
func NewTransferRepo(txManager *postgres.TxManager) *TransferRepo {
	return &TransferRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *TransferRepo) Create(ctx context.Context, t *transfer.Transfer) error {
	sql, args, err := r.builder.Insert(transfersTable).
		Columns(transferColumns...).
		Values(
			t.ID, t.Number, t.MasterItemID, t.FromStoreID, t.ToStoreID,
			t.Quantity, t.Status, t.Reason, t.RequestedBy,
			t.DecidedBy, t.DecidedAt, t.ExecutedAt,
			t.Version, t.CreatedAt, t.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (r *TransferRepo) GetByID(ctx context.Context, transferID id.ID) (*transfer.Transfer, error) {
	return r.getOne(ctx, transferID, false)
}

func (r *TransferRepo) GetForUpdate(ctx context.Context, transferID id.ID) (*transfer.Transfer, error) {
	return r.getOne(ctx, transferID, true)
}

func (r *TransferRepo) getOne(ctx context.Context, transferID id.ID, forUpdate bool) (*transfer.Transfer, error) {
	q := r.builder.Select(transferColumns...).
		From(transfersTable).
		Where(squirrel.Eq{"id": transferID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var t transfer.Transfer
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("transfer", transferID)
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return &t, nil
}

func (r *TransferRepo) UpdateDecision(ctx context.Context, transferID id.ID, status transfer.Status, decidedBy string, decidedAt time.Time) error {
	sql, args, err := r.builder.Update(transfersTable).
		Set("status", status).
		Set("decided_by", decidedBy).
		Set("decided_at", decidedAt).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", decidedAt).
		Where(squirrel.Eq{"id": transferID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update transfer decision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("transfer", transferID)
	}
	return nil
}

func (r *TransferRepo) MarkExecuted(ctx context.Context, transferID id.ID, executedAt time.Time) error {
	sql, args, err := r.builder.Update(transfersTable).
		Set("status", transfer.StatusExecuted).
		Set("executed_at", executedAt).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", executedAt).
		Where(squirrel.Eq{"id": transferID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark transfer executed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("transfer", transferID)
	}
	return nil
}

func (r *TransferRepo) List(ctx context.Context, filter transfer.ListFilter) ([]*transfer.Transfer, error) {
	q := r.builder.Select(transferColumns...).
		From(transfersTable).
		OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	if filter.StoreID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"from_store_id": *filter.StoreID},
			squirrel.Eq{"to_store_id": *filter.StoreID},
		})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var transfers []*transfer.Transfer
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &transfers, sql, args...); err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	return transfers, nil
}
