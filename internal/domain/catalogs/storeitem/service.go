package storeitem

import (
	"context"
	"fmt"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/tx"
	"storeroom/internal/core/types"
	"storeroom/pkg/logger"
)

// Service provides business operations for store-local item records.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new store item service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Ensure resolves the store item for (store, master item), creating it with
// zero quantity on first receipt or transfer into the store.
// Must be called within the enclosing operation's transaction so the created
// row is visible to the ledger writes that follow.
func (s *Service) Ensure(ctx context.Context, storeID, masterItemID id.ID) (*StoreItem, error) {
	item, err := s.repo.GetByStoreAndMasterItem(ctx, storeID, masterItemID)
	if err == nil {
		return item, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("resolve store item: %w", err)
	}

	item = New(storeID, masterItemID)
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create store item: %w", err)
	}

	logger.Info(ctx, "store item created",
		"id", item.ID,
		"store_id", storeID,
		"master_item_id", masterItemID)
	return item, nil
}

// GetByID retrieves a store item.
func (s *Service) GetByID(ctx context.Context, itemID id.ID) (*StoreItem, error) {
	return s.repo.GetByID(ctx, itemID)
}

// SetLocalOverrides updates local naming for the store item.
func (s *Service) SetLocalOverrides(ctx context.Context, itemID id.ID, localSKU, localName *string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetByID(ctx, itemID)
		if err != nil {
			return err
		}

		item.LocalSKU = localSKU
		item.LocalName = localName
		item.Touch()
		return s.repo.Update(ctx, item)
	})
}

// SetReorderParameters updates the reorder policy for the store item.
func (s *Service) SetReorderParameters(ctx context.Context, itemID id.ID, reorderPoint, reorderQty, safetyStock types.Quantity, leadTimeDays int) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetByID(ctx, itemID)
		if err != nil {
			return err
		}

		item.ReorderPoint = reorderPoint
		item.ReorderQuantity = reorderQty
		item.SafetyStock = safetyStock
		item.LeadTimeDays = leadTimeDays
		if err := item.Validate(ctx); err != nil {
			return err
		}
		item.Touch()
		return s.repo.Update(ctx, item)
	})
}

// Deactivate soft-disables the store item. The record stays while lots
// reference it.
func (s *Service) Deactivate(ctx context.Context, itemID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		item.Deactivate()
		item.Touch()
		return s.repo.Update(ctx, item)
	})
}

// ListByStore retrieves all items held by a store.
func (s *Service) ListByStore(ctx context.Context, storeID id.ID) ([]*StoreItem, error) {
	return s.repo.ListByStore(ctx, storeID, false)
}

// ListLowStock returns items at or below their reorder point, with severity
// derived from the safety stock threshold. Feeds the external alerting
// collaborator.
func (s *Service) ListLowStock(ctx context.Context, storeID *id.ID) ([]LowStockRow, error) {
	rows, err := s.repo.ListLowStock(ctx, storeID)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		item := StoreItem{
			Quantity:     rows[i].Quantity,
			ReorderPoint: rows[i].ReorderPoint,
			SafetyStock:  rows[i].SafetyStock,
		}
		rows[i].Severity = item.Severity()
	}
	return rows, nil
}
