package handlers

import (
	"github.com/gin-gonic/gin"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain/requisition"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// RequisitionHandler handles HTTP requests for the requisition workflow.
type RequisitionHandler struct {
	*BaseHandler
	service *requisition.Service
}

// NewRequisitionHandler creates a new requisition handler.
func NewRequisitionHandler(base *BaseHandler, service *requisition.Service) *RequisitionHandler {
	return &RequisitionHandler{BaseHandler: base, service: service}
}

// Create handles POST /requisitions
func (h *RequisitionHandler) Create(c *gin.Context) {
	var req dto.CreateRequisitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	if in.Requester == "" {
		in.Requester = h.Actor(c)
	}

	created, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created.ID.String())
}

// Get handles GET /requisitions/:id
func (h *RequisitionHandler) Get(c *gin.Context) {
	reqID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	req, err := h.service.GetByID(c.Request.Context(), reqID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, req)
}

// Submit handles POST /requisitions/:id/submit
// Moves the requisition from created to ordered.
func (h *RequisitionHandler) Submit(c *gin.Context) {
	reqID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Submit(c.Request.Context(), reqID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "requisition submitted")
}

// Receive handles POST /requisitions/:id/receive
func (h *RequisitionHandler) Receive(c *gin.Context) {
	reqID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReceiveRequisitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput(reqID)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Receive(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Cancel handles POST /requisitions/:id/cancel
func (h *RequisitionHandler) Cancel(c *gin.Context) {
	reqID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), reqID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "requisition cancelled")
}

// List handles GET /requisitions
func (h *RequisitionHandler) List(c *gin.Context) {
	var req dto.ListRequisitionsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	reqs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(reqs, len(reqs), filter.Limit, filter.Offset))
}

// ListDue handles GET /requisitions/due
// Returns open requisitions whose required date falls within the horizon.
func (h *RequisitionHandler) ListDue(c *gin.Context) {
	var storeID *id.ID
	if s := c.Query("storeId"); s != "" {
		parsed, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid storeId format"))
			return
		}
		storeID = &parsed
	}
	days := h.ParseIntQuery(c, "days", 7)

	reqs, err := h.service.ListDue(c.Request.Context(), storeID, days)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(reqs, len(reqs), 0, 0))
}

// OrderReferences handles GET /requisitions/:id/order-references
func (h *RequisitionHandler) OrderReferences(c *gin.Context) {
	reqID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	refs, err := h.service.OrderReferences(c.Request.Context(), reqID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(refs, len(refs), 0, 0))
}
