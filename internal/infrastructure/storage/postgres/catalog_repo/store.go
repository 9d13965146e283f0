package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain/catalogs/store"
	"storeroom/internal/infrastructure/storage/postgres"
)

const storesTable = "stores"

var storeColumns = []string{
	"id", "version", "is_active", "created_at", "updated_at",
	"code", "name", "department",
}

var _ store.Repository = (*StoreRepo)(nil)

// StoreRepo implements store.Repository.
type StoreRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStoreRepo creates a store repository.
func NewStoreRepo(txManager *postgres.TxManager) *StoreRepo {
	return &StoreRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *StoreRepo) Create(ctx context.Context, st *store.Store) error {
	sql, args, err := r.builder.Insert(storesTable).
		Columns(storeColumns...).
		Values(
			st.ID, st.Version, st.IsActive, st.CreatedAt, st.UpdatedAt,
			st.Code, st.Name, st.Department,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("store", "code", st.Code)
		}
		return fmt.Errorf("insert store: %w", err)
	}
	return nil
}

func (r *StoreRepo) GetByID(ctx context.Context, storeID id.ID) (*store.Store, error) {
	return r.getOne(ctx, squirrel.Eq{"id": storeID}, storeID)
}

func (r *StoreRepo) GetByCode(ctx context.Context, code string) (*store.Store, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code)
}

func (r *StoreRepo) getOne(ctx context.Context, where squirrel.Eq, key any) (*store.Store, error) {
	sql, args, err := r.builder.Select(storeColumns...).
		From(storesTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var st store.Store
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &st, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("store", key)
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return &st, nil
}

func (r *StoreRepo) Update(ctx context.Context, st *store.Store) error {
	sql, args, err := r.builder.Update(storesTable).
		Set("version", st.Version).
		Set("is_active", st.IsActive).
		Set("updated_at", st.UpdatedAt).
		Set("name", st.Name).
		Set("department", st.Department).
		Where(squirrel.Eq{"id": st.ID}).
		Where(squirrel.Eq{"version": st.Version - 1}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update store: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("store", st.ID)
	}
	return nil
}

func (r *StoreRepo) List(ctx context.Context, includeInactive bool) ([]*store.Store, error) {
	q := r.builder.Select(storeColumns...).
		From(storesTable).
		OrderBy("code")
	if !includeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var stores []*store.Store
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &stores, sql, args...); err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return stores, nil
}

func (r *StoreRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	sql, args, err := r.builder.Select("1").
		From(storesTable).
		Where(squirrel.Eq{"code": code}).
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
		return false, fmt.Errorf("check code: %w", err)
	}
	return true, nil
}
