package dto

import (
	"storeroom/internal/core/types"
)

// EnsureStoreItemRequest binds a master item into a store's catalog.
type EnsureStoreItemRequest struct {
	StoreID      string `json:"storeId" binding:"required"`
	MasterItemID string `json:"masterItemId" binding:"required"`
}

// SetLocalOverridesRequest updates store-local naming. Null clears the
// override back to the master item's value.
type SetLocalOverridesRequest struct {
	LocalSKU  *string `json:"localSku"`
	LocalName *string `json:"localName"`
}

// SetReorderParametersRequest updates replenishment thresholds.
type SetReorderParametersRequest struct {
	ReorderPoint    types.Quantity `json:"reorderPoint"`
	ReorderQuantity types.Quantity `json:"reorderQuantity"`
	SafetyStock     types.Quantity `json:"safetyStock"`
	LeadTimeDays    int            `json:"leadTimeDays"`
}
