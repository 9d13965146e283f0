// Package requisition provides the purchase requisition (PR) workflow:
// creation, direct ordering, supplier receipts tied to external order
// references, and partial/full fulfillment tracking.
package requisition

import (
	"context"
	"strings"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// Status is the requisition lifecycle state.
type Status string

const (
	StatusCreated           Status = "created"
	StatusOrdered           Status = "ordered"
	StatusPartiallyReceived Status = "partially_received"
	StatusFullyReceived     Status = "fully_received"
	StatusCancelled         Status = "cancelled"
)

// Priority of a requisition.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Requisition is a request to acquire items for one store.
// Never deleted once items have been received against it.
type Requisition struct {
	ID id.ID `db:"id" json:"id"`

	// Number is the human-readable identifier (PR-YYYYMMDD-NNNN),
	// allocated from a date-scoped atomic sequence.
	Number string `db:"number" json:"number"`

	StoreID   id.ID  `db:"store_id" json:"storeId"`
	Requester string `db:"requester" json:"requester"`

	Priority     Priority   `db:"priority" json:"priority"`
	RequiredDate *time.Time `db:"required_date" json:"requiredDate,omitempty"`

	Status Status `db:"status" json:"status"`

	Note string `db:"note" json:"note,omitempty"`

	Lines []Line `db:"-" json:"lines"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Line is one requested item on a requisition.
type Line struct {
	ID            id.ID `db:"id" json:"id"`
	RequisitionID id.ID `db:"requisition_id" json:"requisitionId"`
	MasterItemID  id.ID `db:"master_item_id" json:"masterItemId"`

	RequestedQuantity types.Quantity `db:"requested_quantity" json:"requestedQuantity"`
	EstimatedUnitCost types.Money    `db:"estimated_unit_cost" json:"estimatedUnitCost"`

	// ReceivedQuantity accumulates across receipts; over-receipt is
	// permitted by policy and recorded as-is.
	ReceivedQuantity types.Quantity `db:"received_quantity" json:"receivedQuantity"`

	Note string `db:"note" json:"note,omitempty"`
}

// Outstanding returns how much of the line is still unreceived (never
// negative, even after over-receipt).
func (l *Line) Outstanding() types.Quantity {
	out := l.RequestedQuantity - l.ReceivedQuantity
	if out.IsNegative() {
		return 0
	}
	return out
}

// Satisfied reports whether the line's requested quantity has been received.
func (l *Line) Satisfied() bool {
	return l.ReceivedQuantity >= l.RequestedQuantity
}

// Validate checks the requisition invariants.
func (r *Requisition) Validate(ctx context.Context) error {
	if id.IsNil(r.StoreID) {
		return apperror.NewValidation("store is required").
			WithDetail("field", "storeId")
	}
	if strings.TrimSpace(r.Requester) == "" {
		return apperror.NewValidation("requester is required").
			WithDetail("field", "requester")
	}
	if len(r.Lines) == 0 {
		return apperror.NewEmptyRequisition()
	}
	for i := range r.Lines {
		if !r.Lines[i].RequestedQuantity.IsPositive() {
			return apperror.NewInvalidQuantity("lines.requestedQuantity", r.Lines[i].RequestedQuantity.String())
		}
		if id.IsNil(r.Lines[i].MasterItemID) {
			return apperror.NewValidation("line master item is required").
				WithDetail("line", i)
		}
	}
	return nil
}

// CanReceive reports whether receipts are legal in the current state.
func (r *Requisition) CanReceive() error {
	switch r.Status {
	case StatusCancelled:
		return apperror.NewRequisitionCancelled(r.Number)
	case StatusOrdered, StatusPartiallyReceived:
		return nil
	default:
		return apperror.NewInvalidRequisitionState(string(r.Status), "receive")
	}
}

// CanCancel reports whether cancellation is legal in the current state.
// Cancelling never reverses lots already created by earlier receipts.
func (r *Requisition) CanCancel() error {
	switch r.Status {
	case StatusCreated, StatusOrdered, StatusPartiallyReceived:
		return nil
	case StatusCancelled:
		return apperror.NewRequisitionCancelled(r.Number)
	default:
		return apperror.NewInvalidRequisitionState(string(r.Status), "cancel")
	}
}

// RecomputeStatus derives the fulfillment status from line received
// quantities. Idempotent: with no new receipts the result is unchanged.
func (r *Requisition) RecomputeStatus() Status {
	if r.Status == StatusCancelled || r.Status == StatusCreated {
		return r.Status
	}

	all := true
	some := false
	for i := range r.Lines {
		if r.Lines[i].Satisfied() {
			some = true
		} else {
			all = false
		}
		if r.Lines[i].ReceivedQuantity.IsPositive() {
			some = true
		}
	}

	switch {
	case all:
		r.Status = StatusFullyReceived
	case some:
		r.Status = StatusPartiallyReceived
	default:
		r.Status = StatusOrdered
	}
	return r.Status
}

// OrderReference records the supplier-side order number associated with a
// requisition's fulfillment. One requisition accumulates one row per
// distinct order number, created lazily on first receipt citing it.
type OrderReference struct {
	ID            id.ID     `db:"id" json:"id"`
	RequisitionID id.ID     `db:"requisition_id" json:"requisitionId"`
	Number        string    `db:"number" json:"number"`
	Supplier      string    `db:"supplier" json:"supplier,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}
