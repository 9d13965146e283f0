package handlers

import (
	"github.com/gin-gonic/gin"

	"storeroom/internal/domain/catalogs/masteritem"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// MasterItemHandler handles HTTP requests for the master item catalog.
type MasterItemHandler struct {
	*BaseHandler
	service *masteritem.Service
}

// NewMasterItemHandler creates a new master item handler.
func NewMasterItemHandler(base *BaseHandler, service *masteritem.Service) *MasterItemHandler {
	return &MasterItemHandler{BaseHandler: base, service: service}
}

// Create handles POST /master-items
func (h *MasterItemHandler) Create(c *gin.Context) {
	var req dto.CreateMasterItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item.ID.String())
}

// Get handles GET /master-items/:id
func (h *MasterItemHandler) Get(c *gin.Context) {
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

// GetBySKU handles GET /master-items/by-sku/:sku
func (h *MasterItemHandler) GetBySKU(c *gin.Context) {
	item, err := h.service.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// Update handles PUT /master-items/:id
func (h *MasterItemHandler) Update(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateMasterItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.service.Update(c.Request.Context(), itemID, req.Name, req.Category, req.Unit, req.Spec)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// Deactivate handles DELETE /master-items/:id
func (h *MasterItemHandler) Deactivate(c *gin.Context) {
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

// List handles GET /master-items
func (h *MasterItemHandler) List(c *gin.Context) {
	var req dto.ListMasterItemsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := req.ToFilter()
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items, len(items), filter.Limit, filter.Offset))
}
