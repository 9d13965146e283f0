package dto

import (
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/requisition"
)

// CreateRequisitionRequest is the request body for creating a requisition.
type CreateRequisitionRequest struct {
	StoreID      string                   `json:"storeId" binding:"required"`
	Requester    string                   `json:"requester"`
	Priority     string                   `json:"priority"`
	RequiredDate *time.Time               `json:"requiredDate"`
	Note         string                   `json:"note"`
	Lines        []RequisitionLineRequest `json:"lines" binding:"required"`
}

// RequisitionLineRequest is one requested item.
type RequisitionLineRequest struct {
	MasterItemID      string         `json:"masterItemId" binding:"required"`
	Quantity          types.Quantity `json:"quantity" binding:"required"`
	EstimatedUnitCost types.Money    `json:"estimatedUnitCost"`
	Note              string         `json:"note"`
}

// ToInput converts the request to a service input.
func (r *CreateRequisitionRequest) ToInput() (requisition.CreateInput, error) {
	storeID, err := id.Parse(r.StoreID)
	if err != nil {
		return requisition.CreateInput{}, apperror.NewValidation("invalid storeId format")
	}

	in := requisition.CreateInput{
		StoreID:      storeID,
		Requester:    r.Requester,
		Priority:     requisition.Priority(r.Priority),
		RequiredDate: r.RequiredDate,
		Note:         r.Note,
		Lines:        make([]requisition.LineInput, 0, len(r.Lines)),
	}
	for _, line := range r.Lines {
		masterID, err := id.Parse(line.MasterItemID)
		if err != nil {
			return requisition.CreateInput{}, apperror.NewValidation("invalid masterItemId format").
				WithDetail("masterItemId", line.MasterItemID)
		}
		in.Lines = append(in.Lines, requisition.LineInput{
			MasterItemID:      masterID,
			Quantity:          line.Quantity,
			EstimatedUnitCost: line.EstimatedUnitCost,
			Note:              line.Note,
		})
	}
	return in, nil
}

// ReceiveRequisitionRequest is the request body for receiving stock against
// an ordered requisition. OrderReference is mandatory.
type ReceiveRequisitionRequest struct {
	OrderReference string               `json:"orderReference"`
	Supplier       string               `json:"supplier"`
	ReceivedDate   *time.Time           `json:"receivedDate"`
	Lines          []ReceiptLineRequest `json:"lines" binding:"required"`
}

// ReceiptLineRequest is one received line.
type ReceiptLineRequest struct {
	RequisitionLineID string         `json:"requisitionLineId" binding:"required"`
	Quantity          types.Quantity `json:"quantity" binding:"required"`
	UnitCost          types.Money    `json:"unitCost"`
}

// ToInput converts the request to a service input.
func (r *ReceiveRequisitionRequest) ToInput(requisitionID id.ID) (requisition.ReceiveInput, error) {
	in := requisition.ReceiveInput{
		RequisitionID:  requisitionID,
		OrderReference: r.OrderReference,
		Supplier:       r.Supplier,
		Lines:          make([]requisition.ReceiptLine, 0, len(r.Lines)),
	}
	if r.ReceivedDate != nil {
		in.ReceivedDate = *r.ReceivedDate
	}
	for _, line := range r.Lines {
		lineID, err := id.Parse(line.RequisitionLineID)
		if err != nil {
			return requisition.ReceiveInput{}, apperror.NewValidation("invalid requisitionLineId format").
				WithDetail("requisitionLineId", line.RequisitionLineID)
		}
		in.Lines = append(in.Lines, requisition.ReceiptLine{
			RequisitionLineID: lineID,
			Quantity:          line.Quantity,
			UnitCost:          line.UnitCost,
		})
	}
	return in, nil
}

// ListRequisitionsRequest contains requisition list filters.
type ListRequisitionsRequest struct {
	ListRequest
	StoreID string `form:"storeId"`
	Status  string `form:"status"`
}

// ToFilter converts the request to a repository filter.
func (r *ListRequisitionsRequest) ToFilter() (requisition.ListFilter, error) {
	r.Defaults()
	filter := requisition.ListFilter{Limit: r.Limit, Offset: r.Offset}
	if r.StoreID != "" {
		storeID, err := id.Parse(r.StoreID)
		if err != nil {
			return filter, apperror.NewValidation("invalid storeId format")
		}
		filter.StoreID = &storeID
	}
	if r.Status != "" {
		status := requisition.Status(r.Status)
		filter.Status = &status
	}
	return filter, nil
}
