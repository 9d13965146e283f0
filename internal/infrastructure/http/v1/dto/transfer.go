package dto

import (
	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/transfer"
)

// RequestTransferRequest is the request body for requesting a transfer.
type RequestTransferRequest struct {
	MasterItemID string         `json:"masterItemId" binding:"required"`
	FromStoreID  string         `json:"fromStoreId" binding:"required"`
	ToStoreID    string         `json:"toStoreId" binding:"required"`
	Quantity     types.Quantity `json:"quantity" binding:"required"`
	Reason       string         `json:"reason"`
}

// ToInput converts the request to a service input.
func (r *RequestTransferRequest) ToInput(requestedBy string) (transfer.RequestInput, error) {
	masterID, err := id.Parse(r.MasterItemID)
	if err != nil {
		return transfer.RequestInput{}, apperror.NewValidation("invalid masterItemId format")
	}
	fromID, err := id.Parse(r.FromStoreID)
	if err != nil {
		return transfer.RequestInput{}, apperror.NewValidation("invalid fromStoreId format")
	}
	toID, err := id.Parse(r.ToStoreID)
	if err != nil {
		return transfer.RequestInput{}, apperror.NewValidation("invalid toStoreId format")
	}
	return transfer.RequestInput{
		MasterItemID: masterID,
		FromStoreID:  fromID,
		ToStoreID:    toID,
		Quantity:     r.Quantity,
		Reason:       r.Reason,
		RequestedBy:  requestedBy,
	}, nil
}

// ListTransfersRequest contains transfer list filters.
type ListTransfersRequest struct {
	ListRequest
	StoreID string `form:"storeId"`
	Status  string `form:"status"`
}

// ToFilter converts the request to a repository filter.
func (r *ListTransfersRequest) ToFilter() (transfer.ListFilter, error) {
	r.Defaults()
	filter := transfer.ListFilter{Limit: r.Limit, Offset: r.Offset}
	if r.StoreID != "" {
		storeID, err := id.Parse(r.StoreID)
		if err != nil {
			return filter, apperror.NewValidation("invalid storeId format")
		}
		filter.StoreID = &storeID
	}
	if r.Status != "" {
		status := transfer.Status(r.Status)
		filter.Status = &status
	}
	return filter, nil
}
