// Package requisition_repo provides the PostgreSQL implementation of the
// requisition repository.
package requisition_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/requisition"
	"storeroom/internal/infrastructure/storage/postgres"
)

const (
	requisitionsTable = "requisitions"
	linesTable        = "requisition_lines"
	orderRefsTable    = "order_references"
)

var requisitionColumns = []string{
	"id", "number", "store_id", "requester", "priority", "required_date",
	"status", "note", "version", "created_at", "updated_at",
}

var lineColumns = []string{
	"id", "requisition_id", "master_item_id",
	"requested_quantity", "estimated_unit_cost", "received_quantity", "note",
}

var _ requisition.Repository = (*RequisitionRepo)(nil)

// RequisitionRepo implements requisition.Repository.
type RequisitionRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewRequisitionRepo creates a requisition repository.
func NewRequisitionRepo(txManager *postgres.TxManager) *RequisitionRepo {
	return &RequisitionRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *RequisitionRepo) Create(ctx context.Context, req *requisition.Requisition) error {
	sql, args, err := r.builder.Insert(requisitionsTable).
		Columns(requisitionColumns...).
		Values(
			req.ID, req.Number, req.StoreID, req.Requester, req.Priority, req.RequiredDate,
			req.Status, req.Note, req.Version, req.CreatedAt, req.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert requisition: %w", err)
	}

	lineQ := r.builder.Insert(linesTable).Columns(lineColumns...)
	for _, line := range req.Lines {
		lineQ = lineQ.Values(
			line.ID, line.RequisitionID, line.MasterItemID,
			line.RequestedQuantity, line.EstimatedUnitCost, line.ReceivedQuantity, line.Note,
		)
	}
	sql, args, err = lineQ.ToSql()
	if err != nil {
		return fmt.Errorf("build lines insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert requisition lines: %w", err)
	}
	return nil
}

func (r *RequisitionRepo) GetByID(ctx context.Context, reqID id.ID) (*requisition.Requisition, error) {
	return r.getOne(ctx, reqID, false)
}

// GetForUpdate locks the requisition header row; lines are read after the
// lock is held.
func (r *RequisitionRepo) GetForUpdate(ctx context.Context, reqID id.ID) (*requisition.Requisition, error) {
	return r.getOne(ctx, reqID, true)
}

func (r *RequisitionRepo) getOne(ctx context.Context, reqID id.ID, forUpdate bool) (*requisition.Requisition, error) {
	q := r.builder.Select(requisitionColumns...).
		From(requisitionsTable).
		Where(squirrel.Eq{"id": reqID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var req requisition.Requisition
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &req, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("requisition", reqID)
		}
		return nil, fmt.Errorf("get requisition: %w", err)
	}

	if err := r.loadLines(ctx, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequisitionRepo) loadLines(ctx context.Context, req *requisition.Requisition) error {
	sql, args, err := r.builder.Select(lineColumns...).
		From(linesTable).
		Where(squirrel.Eq{"requisition_id": req.ID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lines select: %w", err)
	}

	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &req.Lines, sql, args...); err != nil {
		return fmt.Errorf("load requisition lines: %w", err)
	}
	return nil
}

func (r *RequisitionRepo) UpdateStatus(ctx context.Context, reqID id.ID, status requisition.Status) error {
	sql, args, err := r.builder.Update(requisitionsTable).
		Set("status", status).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": reqID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update requisition status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("requisition", reqID)
	}
	return nil
}

func (r *RequisitionRepo) AddLineReceived(ctx context.Context, lineID id.ID, delta types.Quantity) error {
	sql, args, err := r.builder.Update(linesTable).
		Set("received_quantity", squirrel.Expr("received_quantity + ?", delta)).
		Where(squirrel.Eq{"id": lineID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update line received: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("requisition line", lineID)
	}
	return nil
}

func (r *RequisitionRepo) List(ctx context.Context, filter requisition.ListFilter) ([]*requisition.Requisition, error) {
	q := r.builder.Select(requisitionColumns...).
		From(requisitionsTable).
		OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	if filter.StoreID != nil {
		q = q.Where(squirrel.Eq{"store_id": *filter.StoreID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	return r.selectMany(ctx, q)
}

func (r *RequisitionRepo) ListDue(ctx context.Context, storeID *id.ID, horizon time.Time) ([]*requisition.Requisition, error) {
	q := r.builder.Select(requisitionColumns...).
		From(requisitionsTable).
		Where(squirrel.NotEq{"status": []requisition.Status{
			requisition.StatusCancelled, requisition.StatusFullyReceived,
		}}).
		Where(squirrel.NotEq{"required_date": nil}).
		Where(squirrel.LtOrEq{"required_date": horizon}).
		OrderBy("required_date")

	if storeID != nil {
		q = q.Where(squirrel.Eq{"store_id": *storeID})
	}

	return r.selectMany(ctx, q)
}

func (r *RequisitionRepo) selectMany(ctx context.Context, q squirrel.SelectBuilder) ([]*requisition.Requisition, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var reqs []*requisition.Requisition
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &reqs, sql, args...); err != nil {
		return nil, fmt.Errorf("list requisitions: %w", err)
	}

	for _, req := range reqs {
		if err := r.loadLines(ctx, req); err != nil {
			return nil, err
		}
	}
	return reqs, nil
}

func (r *RequisitionRepo) GetOrderReference(ctx context.Context, reqID id.ID, number string) (*requisition.OrderReference, error) {
	sql, args, err := r.builder.Select("id", "requisition_id", "number", "supplier", "created_at").
		From(orderRefsTable).
		Where(squirrel.Eq{"requisition_id": reqID, "number": number}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var ref requisition.OrderReference
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &ref, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order reference", number)
		}
		return nil, fmt.Errorf("get order reference: %w", err)
	}
	return &ref, nil
}

func (r *RequisitionRepo) CreateOrderReference(ctx context.Context, ref *requisition.OrderReference) error {
	sql, args, err := r.builder.Insert(orderRefsTable).
		Columns("id", "requisition_id", "number", "supplier", "created_at").
		Values(ref.ID, ref.RequisitionID, ref.Number, ref.Supplier, ref.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order reference: %w", err)
	}
	return nil
}

func (r *RequisitionRepo) ListOrderReferences(ctx context.Context, reqID id.ID) ([]requisition.OrderReference, error) {
	sql, args, err := r.builder.Select("id", "requisition_id", "number", "supplier", "created_at").
		From(orderRefsTable).
		Where(squirrel.Eq{"requisition_id": reqID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var refs []requisition.OrderReference
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &refs, sql, args...); err != nil {
		return nil, fmt.Errorf("list order references: %w", err)
	}
	return refs, nil
}
