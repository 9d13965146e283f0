package masteritem

import (
	"context"
	"fmt"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/tx"
	"storeroom/pkg/logger"
)

// Service provides business operations for the master item catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new master item service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create registers a new master item. SKU must be unique.
func (s *Service) Create(ctx context.Context, item *MasterItem) error {
	if err := item.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsBySKU(ctx, item.SKU)
		if err != nil {
			return fmt.Errorf("check sku: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("master item", "sku", item.SKU)
		}

		if err := s.repo.Create(ctx, item); err != nil {
			return fmt.Errorf("create master item: %w", err)
		}

		logger.Info(ctx, "master item created",
			"id", item.ID,
			"sku", item.SKU)
		return nil
	})
}

// GetByID retrieves a master item.
func (s *Service) GetByID(ctx context.Context, itemID id.ID) (*MasterItem, error) {
	return s.repo.GetByID(ctx, itemID)
}

// GetBySKU retrieves a master item by canonical SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*MasterItem, error) {
	return s.repo.GetBySKU(ctx, sku)
}

// Update modifies descriptive fields of an existing item.
func (s *Service) Update(ctx context.Context, itemID id.ID, name, category, unit string, spec map[string]any) (*MasterItem, error) {
	var updated *MasterItem
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetByID(ctx, itemID)
		if err != nil {
			return err
		}

		item.ApplyUpdate(name, category, unit, spec)
		if err := item.Validate(ctx); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, item); err != nil {
			return fmt.Errorf("update master item: %w", err)
		}

		updated = item
		return nil
	})
	return updated, err
}

// Deactivate soft-disables a master item. Lots and movements keep their
// references; the item simply stops appearing in active listings.
func (s *Service) Deactivate(ctx context.Context, itemID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetByID(ctx, itemID)
		if err != nil {
			return err
		}

		item.Deactivate()
		item.Touch()
		if err := s.repo.Update(ctx, item); err != nil {
			return fmt.Errorf("deactivate master item: %w", err)
		}

		logger.Info(ctx, "master item deactivated", "id", itemID)
		return nil
	})
}

// List retrieves master items with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*MasterItem, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}
