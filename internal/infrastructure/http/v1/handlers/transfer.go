package handlers

import (
	"github.com/gin-gonic/gin"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain/transfer"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// TransferHandler handles HTTP requests for cross-store transfers.
type TransferHandler struct {
	*BaseHandler
	service *transfer.Service
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(base *BaseHandler, service *transfer.Service) *TransferHandler {
	return &TransferHandler{BaseHandler: base, service: service}
}

// Request handles POST /transfers
func (h *TransferHandler) Request(c *gin.Context) {
	var req dto.RequestTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput(h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	created, err := h.service.Request(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created.ID.String())
}

// Get handles GET /transfers/:id
func (h *TransferHandler) Get(c *gin.Context) {
	transferID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), transferID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Approve handles POST /transfers/:id/approve
func (h *TransferHandler) Approve(c *gin.Context) {
	transferID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Approve(c.Request.Context(), transferID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "transfer approved")
}

// Reject handles POST /transfers/:id/reject
func (h *TransferHandler) Reject(c *gin.Context) {
	transferID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Reject(c.Request.Context(), transferID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "transfer rejected")
}

// Execute handles POST /transfers/:id/execute
// Moves the stock; on failure the transfer stays approved and can be retried.
func (h *TransferHandler) Execute(c *gin.Context) {
	transferID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Execute(c.Request.Context(), transferID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// SuggestSources handles GET /transfers/suggest-sources
func (h *TransferHandler) SuggestSources(c *gin.Context) {
	masterItemID, err := id.Parse(c.Query("masterItemId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid masterItemId format"))
		return
	}

	var requestingStoreID *id.ID
	if s := c.Query("toStoreId"); s != "" {
		parsed, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid toStoreId format"))
			return
		}
		requestingStoreID = &parsed
	}

	holdings, err := h.service.SuggestSources(c.Request.Context(), masterItemID, requestingStoreID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(holdings, len(holdings), 0, 0))
}

// List handles GET /transfers
func (h *TransferHandler) List(c *gin.Context) {
	var req dto.ListTransfersRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	transfers, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(transfers, len(transfers), filter.Limit, filter.Offset))
}
