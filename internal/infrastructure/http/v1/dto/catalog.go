package dto

import (
	"storeroom/internal/domain/catalogs/masteritem"
	"storeroom/internal/domain/catalogs/store"
)

// --- Master item ---

// CreateMasterItemRequest is the request body for creating a master item.
type CreateMasterItemRequest struct {
	SKU      string         `json:"sku" binding:"required"`
	Barcode  string         `json:"barcode"`
	Name     string         `json:"name" binding:"required"`
	Category string         `json:"category"`
	Unit     string         `json:"unit" binding:"required"`
	Spec     map[string]any `json:"spec"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateMasterItemRequest) ToEntity() *masteritem.MasterItem {
	item := masteritem.New(r.SKU, r.Name, r.Unit)
	item.Barcode = r.Barcode
	item.Category = r.Category
	item.Spec = r.Spec
	return item
}

// UpdateMasterItemRequest is the request body for updating a master item.
// SKU and barcode are immutable once created.
type UpdateMasterItemRequest struct {
	Name     string         `json:"name" binding:"required"`
	Category string         `json:"category"`
	Unit     string         `json:"unit" binding:"required"`
	Spec     map[string]any `json:"spec"`
}

// ListMasterItemsRequest contains master item list filters.
type ListMasterItemsRequest struct {
	ListRequest
	Search          string `form:"search"`
	Category        string `form:"category"`
	IncludeInactive bool   `form:"includeInactive"`
}

// ToFilter converts the request to a repository filter.
func (r *ListMasterItemsRequest) ToFilter() masteritem.ListFilter {
	r.Defaults()
	return masteritem.ListFilter{
		Search:          r.Search,
		Category:        r.Category,
		IncludeInactive: r.IncludeInactive,
		Limit:           r.Limit,
		Offset:          r.Offset,
	}
}

// --- Store ---

// CreateStoreRequest is the request body for creating a store.
type CreateStoreRequest struct {
	Code       string `json:"code" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Department string `json:"department"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateStoreRequest) ToEntity() *store.Store {
	st := store.New(r.Code, r.Name)
	st.Department = r.Department
	return st
}
