// Package ledger owns quantity truth: cost lots, FIFO consumption, the
// cached store-item balance, and the append-only movement log. Every balance
// mutation in the system goes through this package.
package ledger

import (
	"time"

	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// LotStatus tracks whether a lot still holds stock.
type LotStatus string

const (
	// LotActive: remaining quantity > 0.
	LotActive LotStatus = "active"
	// LotDepleted: remaining quantity reached exactly zero. Terminal.
	LotDepleted LotStatus = "depleted"
)

// Lot is a batch of stock received at one unit cost.
//
// Invariants: 0 <= RemainingQuantity <= Quantity; UnitCost is fixed at
// creation; RemainingQuantity only ever decreases; lots are never deleted.
type Lot struct {
	ID          id.ID `db:"id" json:"id"`
	StoreItemID id.ID `db:"store_item_id" json:"storeItemId"`

	// LotNumber is the human-readable batch identifier (LOT-YYYYMMDD-NNNN).
	LotNumber string `db:"lot_number" json:"lotNumber"`

	// Quantity received; never changes after creation.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	RemainingQuantity types.Quantity `db:"remaining_quantity" json:"remainingQuantity"`

	Status LotStatus `db:"status" json:"status"`

	ReceivedDate time.Time `db:"received_date" json:"receivedDate"`

	entity.Provenance

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// TotalCost returns quantity * unit cost for the full received batch.
func (l *Lot) TotalCost() types.Money {
	return l.UnitCost.Mul(l.Quantity.Decimal())
}

// Consume reduces the remaining quantity, flipping status to depleted at
// exactly zero. Caller guarantees qty <= RemainingQuantity.
func (l *Lot) Consume(qty types.Quantity) {
	l.RemainingQuantity -= qty
	if l.RemainingQuantity.IsZero() {
		l.Status = LotDepleted
	}
}

// ConsumedLot records one lot's contribution to a consumption plan.
type ConsumedLot struct {
	LotID    id.ID          `json:"lotId"`
	Quantity types.Quantity `json:"quantity"`
	UnitCost types.Money    `json:"unitCost"`
}

// Consumption is the result of a FIFO consumption: the per-lot breakdown and
// the aggregate cost. AverageUnitCost is TotalCost / quantity, computed once
// after summing lot-level costs.
type Consumption struct {
	TotalCost       types.Money   `json:"totalCost"`
	AverageUnitCost types.Money   `json:"averageUnitCost"`
	ConsumedLots    []ConsumedLot `json:"consumedLots"`
}

// Quantity returns the total consumed quantity across lots.
func (c Consumption) Quantity() types.Quantity {
	var total types.Quantity
	for _, cl := range c.ConsumedLots {
		total += cl.Quantity
	}
	return total
}
