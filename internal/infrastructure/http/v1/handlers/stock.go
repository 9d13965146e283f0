package handlers

import (
	"github.com/gin-gonic/gin"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/domain/ledger"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// StockHandler handles HTTP requests for the lot ledger.
type StockHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *ledger.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// GetBalance handles GET /store-items/:id/balance
func (h *StockHandler) GetBalance(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	qty, err := h.service.GetBalance(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.BalanceResponse{StoreItemID: itemID.String(), Quantity: qty})
}

// GetLots handles GET /store-items/:id/lots
func (h *StockHandler) GetLots(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	lots, err := h.service.GetActiveLots(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(lots, len(lots), 0, 0))
}

// PreviewConsumption handles GET /store-items/:id/consume-preview
// Computes the FIFO plan and costs without mutating anything.
func (h *StockHandler) PreviewConsumption(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ConsumeStockRequest
	qtyStr := c.Query("quantity")
	if qtyStr == "" {
		h.Error(c, apperror.NewValidation("quantity is required"))
		return
	}
	if err := req.Quantity.UnmarshalJSON([]byte(qtyStr)); err != nil {
		h.Error(c, apperror.NewValidation("invalid quantity format"))
		return
	}

	plan, err := h.service.PreviewConsumption(c.Request.Context(), itemID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, plan)
}

// Consume handles POST /store-items/:id/consume
// Issues stock for direct usage, outside the requisition and transfer flows.
func (h *StockHandler) Consume(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ConsumeStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	consumption, err := h.service.ConsumeFIFO(c.Request.Context(), ledger.ConsumeInput{
		StoreItemID: itemID,
		Quantity:    req.Quantity,
		Provenance:  entity.AdjustmentProvenance(id.New()),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, consumption)
}

// Adjust handles POST /store-items/:id/adjust
func (h *StockHandler) Adjust(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.AdjustDirect(c.Request.Context(), itemID, req.Quantity, req.UnitCost, req.Reason); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "stock adjusted")
}

// ListMovements handles GET /movements
func (h *StockHandler) ListMovements(c *gin.Context) {
	var req dto.ListMovementsRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Defaults()

	filter := ledger.MovementFilter{
		From:   req.From,
		To:     req.To,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.StoreID != "" {
		storeID, err := id.Parse(req.StoreID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid storeId format"))
			return
		}
		filter.StoreID = &storeID
	}
	if req.StoreItemID != "" {
		itemID, err := id.Parse(req.StoreItemID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid storeItemId format"))
			return
		}
		filter.StoreItemID = &itemID
	}
	if req.Kind != "" {
		kind := entity.MovementKind(req.Kind)
		filter.Kind = &kind
	}

	movements, err := h.service.Movements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(movements, len(movements), filter.Limit, filter.Offset))
}
