package ledger

import (
	"context"
	"time"

	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// Repository defines persistence for lots and the movement log.
type Repository interface {
	CreateLot(ctx context.Context, lot *Lot) error

	// GetActiveLotsForUpdate returns the store item's active lots with row
	// locks, ordered oldest received date first, lot id ascending on ties
	// (insertion order; lot ids are time-ordered UUIDv7).
	GetActiveLotsForUpdate(ctx context.Context, storeItemID id.ID) ([]Lot, error)

	// GetActiveLots is the lock-free read used for FIFO preview/costing.
	GetActiveLots(ctx context.Context, storeItemID id.ID) ([]Lot, error)

	// UpdateLotConsumption persists a lot's decreased remaining quantity
	// and status transition.
	UpdateLotConsumption(ctx context.Context, lotID id.ID, remaining types.Quantity, status LotStatus) error

	// SumActiveRemaining returns the sum of remaining quantity over the
	// store item's active lots, for the balance invariant check.
	SumActiveRemaining(ctx context.Context, storeItemID id.ID) (types.Quantity, error)

	// AppendMovements writes transaction log entries. Append-only.
	AppendMovements(ctx context.Context, movements []entity.StockMovement) error

	ListMovements(ctx context.Context, filter MovementFilter) ([]entity.StockMovement, error)
}

// MovementFilter narrows transaction log queries.
type MovementFilter struct {
	StoreID     *id.ID
	StoreItemID *id.ID
	Kind        *entity.MovementKind
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// EventPublisher delivers committed movement records to the outside world
// (the notification collaborator). Implementations must write within the
// mutating transaction (outbox pattern) so that dispatch happens strictly
// after commit and a failing notifier can never roll back the ledger.
type EventPublisher interface {
	PublishMovements(ctx context.Context, movements []entity.StockMovement) error
}

// NopPublisher discards events. Used in tests and tools.
type NopPublisher struct{}

func (NopPublisher) PublishMovements(ctx context.Context, movements []entity.StockMovement) error {
	return nil
}
