package handlers

import (
	"github.com/gin-gonic/gin"

	"storeroom/internal/domain/catalogs/store"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// StoreHandler handles HTTP requests for the store catalog.
type StoreHandler struct {
	*BaseHandler
	service *store.Service
}

// NewStoreHandler creates a new store handler.
func NewStoreHandler(base *BaseHandler, service *store.Service) *StoreHandler {
	return &StoreHandler{BaseHandler: base, service: service}
}

// Create handles POST /stores
func (h *StoreHandler) Create(c *gin.Context) {
	var req dto.CreateStoreRequest
	if !h.BindJSON(c, &req) {
		return
	}

	st := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), st); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, st.ID.String())
}

// Get handles GET /stores/:id
func (h *StoreHandler) Get(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	st, err := h.service.GetByID(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, st)
}

// List handles GET /stores
func (h *StoreHandler) List(c *gin.Context) {
	stores, err := h.service.List(c.Request.Context(), c.Query("includeInactive") == "true")
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(stores, len(stores), 0, 0))
}

// Deactivate handles DELETE /stores/:id
func (h *StoreHandler) Deactivate(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), storeID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
