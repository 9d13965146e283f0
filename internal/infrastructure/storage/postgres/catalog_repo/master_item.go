// Package catalog_repo provides PostgreSQL implementations for the catalog
// repositories.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain/catalogs/masteritem"
	"storeroom/internal/infrastructure/storage/postgres"
)

const masterItemsTable = "master_items"

var masterItemColumns = []string{
	"id", "version", "is_active", "created_at", "updated_at",
	"sku", "barcode", "name", "category", "unit", "spec",
}

var _ masteritem.Repository = (*MasterItemRepo)(nil)

// MasterItemRepo implements masteritem.Repository.
type MasterItemRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewMasterItemRepo creates a master item repository.
func NewMasterItemRepo(txManager *postgres.TxManager) *MasterItemRepo {
	return &MasterItemRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *MasterItemRepo) Create(ctx context.Context, item *masteritem.MasterItem) error {
	q := r.builder.Insert(masterItemsTable).
		Columns(masterItemColumns...).
		Values(
			item.ID, item.Version, item.IsActive, item.CreatedAt, item.UpdatedAt,
			item.SKU, item.Barcode, item.Name, item.Category, item.Unit, item.Spec,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("master item", "sku", item.SKU)
		}
		return fmt.Errorf("insert master item: %w", err)
	}
	return nil
}

func (r *MasterItemRepo) GetByID(ctx context.Context, itemID id.ID) (*masteritem.MasterItem, error) {
	q := r.builder.Select(masterItemColumns...).
		From(masterItemsTable).
		Where(squirrel.Eq{"id": itemID})
	return r.getOne(ctx, q, itemID)
}

func (r *MasterItemRepo) GetBySKU(ctx context.Context, sku string) (*masteritem.MasterItem, error) {
	q := r.builder.Select(masterItemColumns...).
		From(masterItemsTable).
		Where(squirrel.Eq{"sku": sku})
	return r.getOne(ctx, q, sku)
}

func (r *MasterItemRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key any) (*masteritem.MasterItem, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var item masteritem.MasterItem
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("master item", key)
		}
		return nil, fmt.Errorf("get master item: %w", err)
	}
	return &item, nil
}

func (r *MasterItemRepo) Update(ctx context.Context, item *masteritem.MasterItem) error {
	q := r.builder.Update(masterItemsTable).
		Set("version", item.Version).
		Set("is_active", item.IsActive).
		Set("updated_at", item.UpdatedAt).
		Set("name", item.Name).
		Set("category", item.Category).
		Set("unit", item.Unit).
		Set("spec", item.Spec).
		Where(squirrel.Eq{"id": item.ID}).
		Where(squirrel.Eq{"version": item.Version - 1})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update master item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("master item", item.ID)
	}
	return nil
}

func (r *MasterItemRepo) List(ctx context.Context, filter masteritem.ListFilter) ([]*masteritem.MasterItem, error) {
	q := r.builder.Select(masterItemColumns...).
		From(masterItemsTable).
		OrderBy("sku").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	if !filter.IncludeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"barcode": pattern},
		})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var items []*masteritem.MasterItem
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list master items: %w", err)
	}
	return items, nil
}

func (r *MasterItemRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	sql, args, err := r.builder.Select("1").
		From(masterItemsTable).
		Where(squirrel.Eq{"sku": sku}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}

	var one int
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &one, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check sku: %w", err)
	}
	return true, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
