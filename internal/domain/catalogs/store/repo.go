package store

import (
	"context"

	"storeroom/internal/core/id"
)

// Repository defines the interface for Store persistence.
type Repository interface {
	Create(ctx context.Context, st *Store) error
	GetByID(ctx context.Context, storeID id.ID) (*Store, error)
	GetByCode(ctx context.Context, code string) (*Store, error)
	Update(ctx context.Context, st *Store) error
	List(ctx context.Context, includeInactive bool) ([]*Store, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
