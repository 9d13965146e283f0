package transfer

import (
	"context"
	"time"

	"storeroom/internal/core/id"
)

// ListFilter describes transfer listing criteria.
type ListFilter struct {
	StoreID *id.ID // matches either side of the transfer
	Status  *Status
	Limit   int
	Offset  int
}

// Repository defines transfer persistence operations.
type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	GetByID(ctx context.Context, transferID id.ID) (*Transfer, error)

	// GetForUpdate locks the transfer row for the duration of the
	// enclosing transaction.
	GetForUpdate(ctx context.Context, transferID id.ID) (*Transfer, error)

	// UpdateDecision records an approve/reject outcome.
	UpdateDecision(ctx context.Context, transferID id.ID, status Status, decidedBy string, decidedAt time.Time) error

	// MarkExecuted transitions an approved transfer to executed.
	MarkExecuted(ctx context.Context, transferID id.ID, executedAt time.Time) error

	List(ctx context.Context, filter ListFilter) ([]*Transfer, error)
}
