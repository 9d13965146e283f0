package handlers

import (
	"github.com/gin-gonic/gin"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain/catalogs/storeitem"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// StoreItemHandler handles HTTP requests for store-local item bindings.
type StoreItemHandler struct {
	*BaseHandler
	service *storeitem.Service
}

// NewStoreItemHandler creates a new store item handler.
func NewStoreItemHandler(base *BaseHandler, service *storeitem.Service) *StoreItemHandler {
	return &StoreItemHandler{BaseHandler: base, service: service}
}

// Ensure handles POST /store-items
// Idempotent: returns the existing binding when the pair is already known.
func (h *StoreItemHandler) Ensure(c *gin.Context) {
	var req dto.EnsureStoreItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	storeID, err := id.Parse(req.StoreID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid storeId format"))
		return
	}
	masterItemID, err := id.Parse(req.MasterItemID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid masterItemId format"))
		return
	}

	item, err := h.service.Ensure(c.Request.Context(), storeID, masterItemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// Get handles GET /store-items/:id
func (h *StoreItemHandler) Get(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	item, err := h.service.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// SetLocalOverrides handles PUT /store-items/:id/overrides
func (h *StoreItemHandler) SetLocalOverrides(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetLocalOverridesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetLocalOverrides(c.Request.Context(), itemID, req.LocalSKU, req.LocalName); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "overrides updated")
}

// SetReorderParameters handles PUT /store-items/:id/reorder
func (h *StoreItemHandler) SetReorderParameters(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetReorderParametersRequest
	if !h.BindJSON(c, &req) {
		return
	}

	err := h.service.SetReorderParameters(c.Request.Context(), itemID,
		req.ReorderPoint, req.ReorderQuantity, req.SafetyStock, req.LeadTimeDays)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "reorder parameters updated")
}

// Deactivate handles DELETE /store-items/:id
func (h *StoreItemHandler) Deactivate(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), itemID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ListByStore handles GET /stores/:id/items
func (h *StoreItemHandler) ListByStore(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	items, err := h.service.ListByStore(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items, len(items), 0, 0))
}

// ListLowStock handles GET /reports/low-stock
func (h *StoreItemHandler) ListLowStock(c *gin.Context) {
	var storeID *id.ID
	if s := c.Query("storeId"); s != "" {
		parsed, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid storeId format"))
			return
		}
		storeID = &parsed
	}

	rows, err := h.service.ListLowStock(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(rows, len(rows), 0, 0))
}
