// Package storeitem provides the binding of a master item to one store:
// local naming overrides, reorder parameters, and the cached on-hand
// quantity maintained by the lot ledger.
package storeitem

import (
	"context"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// StoreItem binds a MasterItem to a specific store.
//
// Invariant (owned by the lot ledger, checked on every mutation):
// Quantity == sum of remaining quantity over this item's active lots.
type StoreItem struct {
	entity.BaseEntity

	StoreID      id.ID `db:"store_id" json:"storeId"`
	MasterItemID id.ID `db:"master_item_id" json:"masterItemId"`

	// Local overrides; nil means "use the master item's value".
	LocalSKU  *string `db:"local_sku" json:"localSku,omitempty"`
	LocalName *string `db:"local_name" json:"localName,omitempty"`

	// Reorder parameters.
	ReorderPoint    types.Quantity `db:"reorder_point" json:"reorderPoint"`
	ReorderQuantity types.Quantity `db:"reorder_quantity" json:"reorderQuantity"`
	SafetyStock     types.Quantity `db:"safety_stock" json:"safetyStock"`
	LeadTimeDays    int            `db:"lead_time_days" json:"leadTimeDays"`

	// Quantity is the cached on-hand balance, denormalized from lots.
	// Mutated exclusively through the lot ledger.
	Quantity types.Quantity `db:"quantity" json:"quantity"`
}

// New creates a store item with zero quantity.
func New(storeID, masterItemID id.ID) *StoreItem {
	return &StoreItem{
		BaseEntity:   entity.NewBaseEntity(),
		StoreID:      storeID,
		MasterItemID: masterItemID,
		LeadTimeDays: 7,
	}
}

// Validate implements entity.Validatable.
func (si *StoreItem) Validate(ctx context.Context) error {
	if id.IsNil(si.StoreID) {
		return apperror.NewValidation("store is required").
			WithDetail("field", "storeId")
	}
	if id.IsNil(si.MasterItemID) {
		return apperror.NewValidation("master item is required").
			WithDetail("field", "masterItemId")
	}
	if si.ReorderPoint.IsNegative() || si.ReorderQuantity.IsNegative() || si.SafetyStock.IsNegative() {
		return apperror.NewValidation("reorder parameters must not be negative")
	}
	return nil
}

// DisplayName resolves the store-local name, falling back to the master
// item's name.
func (si *StoreItem) DisplayName(masterName string) string {
	if si.LocalName != nil && *si.LocalName != "" {
		return *si.LocalName
	}
	return masterName
}

// DisplaySKU resolves the store-local SKU, falling back to the master SKU.
func (si *StoreItem) DisplaySKU(masterSKU string) string {
	if si.LocalSKU != nil && *si.LocalSKU != "" {
		return *si.LocalSKU
	}
	return masterSKU
}

// StockSeverity classifies how low a store item's balance is.
type StockSeverity string

const (
	SeverityNormal   StockSeverity = "normal"
	SeverityWarning  StockSeverity = "warning"  // at or below reorder point
	SeverityCritical StockSeverity = "critical" // at or below safety stock
)

// Severity returns the current stock severity for the cached balance.
func (si *StoreItem) Severity() StockSeverity {
	switch {
	case si.Quantity <= si.SafetyStock:
		return SeverityCritical
	case si.Quantity <= si.ReorderPoint:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}
