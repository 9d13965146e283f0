package transfer

import (
	"context"
	"fmt"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/numerator"
	"storeroom/internal/core/tx"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/catalogs/storeitem"
	"storeroom/internal/domain/ledger"
	"storeroom/pkg/logger"
)

// Service drives the cross-store transfer workflow. Execution is the only
// step that moves stock; it issues from the source by FIFO and receives a
// single consolidated lot at the destination.
type Service struct {
	repo      Repository
	items     *storeitem.Service
	itemRepo  storeitem.Repository
	ledger    *ledger.Service
	numerator numerator.Generator
	txManager tx.Manager
}

// NewService creates a new transfer service.
func NewService(
	repo Repository,
	items *storeitem.Service,
	itemRepo storeitem.Repository,
	ledgerSvc *ledger.Service,
	gen numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		items:     items,
		itemRepo:  itemRepo,
		ledger:    ledgerSvc,
		numerator: gen,
		txManager: txManager,
	}
}

// RequestInput describes a new transfer request.
type RequestInput struct {
	MasterItemID id.ID
	FromStoreID  id.ID
	ToStoreID    id.ID
	Quantity     types.Quantity
	Reason       string
	RequestedBy  string
}

// Request records a pending transfer. Only structural validation applies;
// source availability is checked at execution time.
func (s *Service) Request(ctx context.Context, in RequestInput) (*Transfer, error) {
	now := time.Now().UTC()
	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("TRF"), nil, now)
	if err != nil {
		return nil, fmt.Errorf("generate transfer number: %w", err)
	}

	t := &Transfer{
		ID:           id.New(),
		Number:       number,
		MasterItemID: in.MasterItemID,
		FromStoreID:  in.FromStoreID,
		ToStoreID:    in.ToStoreID,
		Quantity:     in.Quantity,
		Status:       StatusPending,
		Reason:       in.Reason,
		RequestedBy:  in.RequestedBy,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("create transfer: %w", err)
	}

	logger.Info(ctx, "transfer requested",
		"id", t.ID,
		"number", t.Number,
		"from_store_id", t.FromStoreID,
		"to_store_id", t.ToStoreID,
		"quantity", t.Quantity)
	return t, nil
}

// Approve accepts a pending transfer.
func (s *Service) Approve(ctx context.Context, transferID id.ID, decidedBy string) error {
	return s.decide(ctx, transferID, StatusApproved, decidedBy)
}

// Reject declines a pending transfer.
func (s *Service) Reject(ctx context.Context, transferID id.ID, decidedBy string) error {
	return s.decide(ctx, transferID, StatusRejected, decidedBy)
}

func (s *Service) decide(ctx context.Context, transferID id.ID, status Status, decidedBy string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if status == StatusApproved {
			err = t.CanApprove()
		} else {
			err = t.CanReject()
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := s.repo.UpdateDecision(ctx, transferID, status, decidedBy, now); err != nil {
			return fmt.Errorf("update decision: %w", err)
		}

		logger.Info(ctx, "transfer decided",
			"id", transferID, "number", t.Number, "status", status, "decided_by", decidedBy)
		return nil
	})
}

// ExecuteResult reports the cost outcome of an executed transfer.
type ExecuteResult struct {
	TransferID      id.ID          `json:"transferId"`
	Quantity        types.Quantity `json:"quantity"`
	TotalCost       types.Money    `json:"totalCost"`
	AverageUnitCost types.Money    `json:"averageUnitCost"`
	DestinationLot  id.ID          `json:"destinationLotId"`
}

// Execute moves the stock of an approved transfer: FIFO issue at the source
// and one destination lot priced at the average unit cost of the consumed
// source lots. The whole move commits or rolls back as a unit; on
// insufficient stock the transfer stays approved and may be retried once
// stock arrives.
func (s *Service) Execute(ctx context.Context, transferID id.ID) (*ExecuteResult, error) {
	var result *ExecuteResult

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if err := t.CanExecute(); err != nil {
			return err
		}

		source, err := s.itemRepo.GetByStoreAndMasterItem(ctx, t.FromStoreID, t.MasterItemID)
		if err != nil {
			// An item never stocked at the source has nothing to issue.
			if apperror.IsNotFound(err) {
				return apperror.NewInsufficientStock(t.MasterItemID.String(), t.Quantity.String(), "0")
			}
			return err
		}
		dest, err := s.items.Ensure(ctx, t.ToStoreID, t.MasterItemID)
		if err != nil {
			return err
		}

		// Both item rows are locked up front in ascending id order, so
		// opposing transfers between the same pair cannot deadlock. The
		// ledger re-locks each row; the locks are already held.
		if err := s.lockPair(ctx, source.ID, dest.ID); err != nil {
			return err
		}

		consumption, err := s.ledger.ConsumeFIFO(ctx, ledger.ConsumeInput{
			StoreItemID:        source.ID,
			Quantity:           t.Quantity,
			Provenance:         entity.TransferProvenance(t.ID),
			Kind:               entity.MovementTransferOut,
			CounterpartStoreID: &t.ToStoreID,
		})
		if err != nil {
			return err
		}

		lot, err := s.ledger.CreateLot(ctx, ledger.CreateLotInput{
			StoreItemID:        dest.ID,
			Quantity:           t.Quantity,
			UnitCost:           consumption.AverageUnitCost,
			Provenance:         entity.TransferProvenance(t.ID),
			Kind:               entity.MovementTransferIn,
			CounterpartStoreID: &t.FromStoreID,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := s.repo.MarkExecuted(ctx, transferID, now); err != nil {
			return fmt.Errorf("mark executed: %w", err)
		}

		result = &ExecuteResult{
			TransferID:      t.ID,
			Quantity:        t.Quantity,
			TotalCost:       consumption.TotalCost,
			AverageUnitCost: consumption.AverageUnitCost,
			DestinationLot:  lot.ID,
		}

		logger.Info(ctx, "transfer executed",
			"id", t.ID,
			"number", t.Number,
			"quantity", t.Quantity,
			"total_cost", consumption.TotalCost,
			"average_unit_cost", consumption.AverageUnitCost)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) lockPair(ctx context.Context, a, b id.ID) error {
	first, second := a, b
	if id.Less(b, a) {
		first, second = b, a
	}
	if _, err := s.itemRepo.GetForUpdate(ctx, first); err != nil {
		return err
	}
	if _, err := s.itemRepo.GetForUpdate(ctx, second); err != nil {
		return err
	}
	return nil
}

// GetByID retrieves a transfer.
func (s *Service) GetByID(ctx context.Context, transferID id.ID) (*Transfer, error) {
	return s.repo.GetByID(ctx, transferID)
}

// List retrieves transfers with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transfer, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// SuggestSources returns stores holding the master item with stock on hand,
// best-stocked first, excluding the requesting store when given. Supports
// picking a source before raising a transfer request.
func (s *Service) SuggestSources(ctx context.Context, masterItemID id.ID, requestingStoreID *id.ID) ([]storeitem.StoreHolding, error) {
	return s.itemRepo.ListHoldings(ctx, masterItemID, requestingStoreID)
}
