package storeitem

import (
	"context"

	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// LowStockRow is the joined read model for the low-stock listing.
type LowStockRow struct {
	StoreItemID  id.ID          `db:"store_item_id" json:"storeItemId"`
	StoreID      id.ID          `db:"store_id" json:"storeId"`
	MasterItemID id.ID          `db:"master_item_id" json:"masterItemId"`
	SKU          string         `db:"sku" json:"sku"`
	Name         string         `db:"name" json:"name"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	ReorderPoint types.Quantity `db:"reorder_point" json:"reorderPoint"`
	SafetyStock  types.Quantity `db:"safety_stock" json:"safetyStock"`
	Severity     StockSeverity  `db:"-" json:"severity"`
}

// StoreHolding is the joined read model for one store currently holding a
// master item. Feeds transfer source suggestions.
type StoreHolding struct {
	StoreItemID  id.ID          `db:"store_item_id" json:"storeItemId"`
	StoreID      id.ID          `db:"store_id" json:"storeId"`
	StoreCode    string         `db:"store_code" json:"storeCode"`
	StoreName    string         `db:"store_name" json:"storeName"`
	MasterItemID id.ID          `db:"master_item_id" json:"masterItemId"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
}

// Repository defines the interface for StoreItem persistence.
type Repository interface {
	Create(ctx context.Context, item *StoreItem) error
	GetByID(ctx context.Context, itemID id.ID) (*StoreItem, error)

	// GetForUpdate retrieves the store item with a row lock. Every
	// ledger mutation locks the store item first, so concurrent
	// read-check-write sequences on the same item serialize.
	GetForUpdate(ctx context.Context, itemID id.ID) (*StoreItem, error)

	GetByStoreAndMasterItem(ctx context.Context, storeID, masterItemID id.ID) (*StoreItem, error)
	Update(ctx context.Context, item *StoreItem) error

	// AdjustQuantity applies a signed delta to the cached balance.
	// Must run inside a transaction holding the item's row lock.
	AdjustQuantity(ctx context.Context, itemID id.ID, delta types.Quantity) error

	ListByStore(ctx context.Context, storeID id.ID, includeInactive bool) ([]*StoreItem, error)
	ListLowStock(ctx context.Context, storeID *id.ID) ([]LowStockRow, error)

	// ListHoldings returns stores holding the master item with a positive
	// balance, largest balance first, optionally excluding one store.
	ListHoldings(ctx context.Context, masterItemID id.ID, excludeStoreID *id.ID) ([]StoreHolding, error)
}
