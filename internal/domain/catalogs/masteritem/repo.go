package masteritem

import (
	"context"

	"storeroom/internal/core/id"
)

// ListFilter narrows master item listings.
type ListFilter struct {
	// Search matches name, SKU or barcode (case-insensitive substring).
	Search string

	Category string

	// IncludeInactive includes deactivated items.
	IncludeInactive bool

	Limit  int
	Offset int
}

// Repository defines the interface for MasterItem persistence.
type Repository interface {
	Create(ctx context.Context, item *MasterItem) error
	GetByID(ctx context.Context, itemID id.ID) (*MasterItem, error)
	GetBySKU(ctx context.Context, sku string) (*MasterItem, error)
	Update(ctx context.Context, item *MasterItem) error
	List(ctx context.Context, filter ListFilter) ([]*MasterItem, error)
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
}
