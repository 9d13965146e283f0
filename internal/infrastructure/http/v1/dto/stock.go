package dto

import (
	"time"

	"storeroom/internal/core/types"
)

// AdjustStockRequest corrects a store item balance outside the normal
// receive/consume flows. Quantity is signed.
type AdjustStockRequest struct {
	Quantity types.Quantity `json:"quantity" binding:"required"`
	UnitCost *types.Money   `json:"unitCost"`
	Reason   string         `json:"reason" binding:"required"`
}

// ConsumeStockRequest issues stock from a store item.
type ConsumeStockRequest struct {
	Quantity types.Quantity `json:"quantity" binding:"required"`
}

// ListMovementsRequest contains transaction log filters.
type ListMovementsRequest struct {
	ListRequest
	StoreID     string     `form:"storeId"`
	StoreItemID string     `form:"storeItemId"`
	Kind        string     `form:"kind"`
	From        *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To          *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// BalanceResponse reports the projected on-hand balance of a store item.
type BalanceResponse struct {
	StoreItemID string         `json:"storeItemId"`
	Quantity    types.Quantity `json:"quantity"`
}
