// Package entity provides core domain entities shared across modules.
package entity

import (
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// MovementKind classifies a quantity-affecting event.
type MovementKind string

const (
	MovementReceive     MovementKind = "receive"
	MovementPick        MovementKind = "pick"
	MovementAdjust      MovementKind = "adjust"
	MovementTransferIn  MovementKind = "transfer_in"
	MovementTransferOut MovementKind = "transfer_out"
)

// ProvenanceKind identifies what business operation produced a lot or
// movement. Modeled as a tagged union rather than bidirectional foreign keys.
type ProvenanceKind string

const (
	ProvenanceRequisition ProvenanceKind = "requisition"
	ProvenanceTransfer    ProvenanceKind = "transfer"
	ProvenanceAdjustment  ProvenanceKind = "adjustment"
)

// Provenance links a lot or movement back to its originating operation.
type Provenance struct {
	Kind ProvenanceKind `db:"provenance_kind" json:"kind"`
	ID   id.ID          `db:"provenance_id" json:"id"`

	// OrderReference carries the supplier-side order number for
	// requisition receipts; empty otherwise.
	OrderReference string `db:"order_reference" json:"orderReference,omitempty"`

	// Supplier name as stated on the receipt; empty for internal moves.
	Supplier string `db:"supplier" json:"supplier,omitempty"`
}

// RequisitionProvenance builds provenance for a supplier receipt.
func RequisitionProvenance(requisitionID id.ID, orderReference, supplier string) Provenance {
	return Provenance{
		Kind:           ProvenanceRequisition,
		ID:             requisitionID,
		OrderReference: orderReference,
		Supplier:       supplier,
	}
}

// TransferProvenance builds provenance for a cross-store transfer leg.
func TransferProvenance(transferID id.ID) Provenance {
	return Provenance{Kind: ProvenanceTransfer, ID: transferID}
}

// AdjustmentProvenance builds provenance for a manual adjustment.
func AdjustmentProvenance(adjustmentID id.ID) Provenance {
	return Provenance{Kind: ProvenanceAdjustment, ID: adjustmentID}
}

// StockMovement is the immutable transaction log entry for one quantity
// change. Append-only; the sole source of truth for audit and historical
// on-hand reconstruction.
type StockMovement struct {
	ID          id.ID `db:"id" json:"id"`
	StoreID     id.ID `db:"store_id" json:"storeId"`
	StoreItemID id.ID `db:"store_item_id" json:"storeItemId"`

	// LotID references the lot affected; nil for pure adjustments that
	// bypass lot accounting (never the case for ledger-driven paths).
	LotID *id.ID `db:"lot_id" json:"lotId,omitempty"`

	Kind MovementKind `db:"kind" json:"kind"`

	// Quantity is signed: positive for receive/transfer_in and upward
	// adjustments, negative for pick/transfer_out and downward adjustments.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// UnitCost at the time of movement.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	Provenance

	// CounterpartStoreID is set on transfer_in/transfer_out pairs and
	// points at the other side of the move.
	CounterpartStoreID *id.ID `db:"counterpart_store_id" json:"counterpartStoreId,omitempty"`

	Actor     string    `db:"actor" json:"actor"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a movement record with generated id and timestamp.
func NewStockMovement(storeID, storeItemID id.ID, lotID *id.ID, kind MovementKind, quantity types.Quantity, unitCost types.Money, prov Provenance, actor string) StockMovement {
	return StockMovement{
		ID:          id.New(),
		StoreID:     storeID,
		StoreItemID: storeItemID,
		LotID:       lotID,
		Kind:        kind,
		Quantity:    quantity,
		UnitCost:    unitCost,
		Provenance:  prov,
		Actor:       actor,
		CreatedAt:   time.Now().UTC(),
	}
}

// WithCounterpart sets the opposite store on a transfer movement.
func (m StockMovement) WithCounterpart(storeID id.ID) StockMovement {
	m.CounterpartStoreID = &storeID
	return m
}
