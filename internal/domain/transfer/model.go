package transfer

import (
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// Status is the transfer request lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusExecuted Status = "executed"
	StatusRejected Status = "rejected"
)

// Transfer is a request to move stock of one master item between two stores.
// Stock moves only on execution; request and approval are intent records.
type Transfer struct {
	ID           id.ID          `db:"id" json:"id"`
	Number       string         `db:"number" json:"number"`
	MasterItemID id.ID          `db:"master_item_id" json:"masterItemId"`
	FromStoreID  id.ID          `db:"from_store_id" json:"fromStoreId"`
	ToStoreID    id.ID          `db:"to_store_id" json:"toStoreId"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	Status       Status         `db:"status" json:"status"`
	Reason       string         `db:"reason" json:"reason,omitempty"`
	RequestedBy  string         `db:"requested_by" json:"requestedBy"`
	DecidedBy    string         `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt    *time.Time     `db:"decided_at" json:"decidedAt,omitempty"`
	ExecutedAt   *time.Time     `db:"executed_at" json:"executedAt,omitempty"`
	Version      int            `db:"version" json:"version"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// Validate checks structural rules at request time. Availability is not
// checked here: stock may well arrive between request and execution.
func (t *Transfer) Validate() error {
	if !t.Quantity.IsPositive() {
		return apperror.NewInvalidQuantity("quantity", t.Quantity.String())
	}
	if t.FromStoreID == t.ToStoreID {
		return apperror.NewValidation("source and destination stores must differ").
			WithDetail("store_id", t.FromStoreID)
	}
	return nil
}

// CanApprove reports whether the transfer accepts an approval decision.
func (t *Transfer) CanApprove() error {
	if t.Status != StatusPending {
		return apperror.NewInvalidTransferState(string(t.Status), "approve")
	}
	return nil
}

// CanReject reports whether the transfer accepts a rejection decision.
func (t *Transfer) CanReject() error {
	if t.Status != StatusPending {
		return apperror.NewInvalidTransferState(string(t.Status), "reject")
	}
	return nil
}

// CanExecute reports whether the transfer is ready to move stock.
func (t *Transfer) CanExecute() error {
	if t.Status != StatusApproved {
		return apperror.NewInvalidTransferState(string(t.Status), "execute")
	}
	return nil
}
