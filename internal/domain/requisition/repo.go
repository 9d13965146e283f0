package requisition

import (
	"context"
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// ListFilter narrows requisition listings.
type ListFilter struct {
	StoreID *id.ID
	Status  *Status
	Limit   int
	Offset  int
}

// Repository defines persistence for requisitions, their lines, and the
// external order references accumulated during fulfillment.
type Repository interface {
	Create(ctx context.Context, req *Requisition) error

	// GetByID retrieves a requisition with its lines.
	GetByID(ctx context.Context, reqID id.ID) (*Requisition, error)

	// GetForUpdate retrieves the requisition with a row lock so receipt
	// processing and status recomputation serialize per requisition.
	GetForUpdate(ctx context.Context, reqID id.ID) (*Requisition, error)

	UpdateStatus(ctx context.Context, reqID id.ID, status Status) error
	AddLineReceived(ctx context.Context, lineID id.ID, delta types.Quantity) error

	List(ctx context.Context, filter ListFilter) ([]*Requisition, error)

	// ListDue returns non-terminal requisitions whose required date falls
	// before the horizon, oldest first. Feeds delivery alerting.
	ListDue(ctx context.Context, storeID *id.ID, horizon time.Time) ([]*Requisition, error)

	GetOrderReference(ctx context.Context, reqID id.ID, number string) (*OrderReference, error)
	CreateOrderReference(ctx context.Context, ref *OrderReference) error
	ListOrderReferences(ctx context.Context, reqID id.ID) ([]OrderReference, error)
}
