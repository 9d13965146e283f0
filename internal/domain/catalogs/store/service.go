package store

import (
	"context"
	"fmt"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/tx"
	"storeroom/pkg/logger"
)

// Service provides business operations for the store registry.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new store service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create registers a new store. Code must be unique.
func (s *Service) Create(ctx context.Context, st *Store) error {
	if err := st.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsByCode(ctx, st.Code)
		if err != nil {
			return fmt.Errorf("check code: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("store", "code", st.Code)
		}

		if err := s.repo.Create(ctx, st); err != nil {
			return fmt.Errorf("create store: %w", err)
		}

		logger.Info(ctx, "store created", "id", st.ID, "code", st.Code)
		return nil
	})
}

// GetByID retrieves a store.
func (s *Service) GetByID(ctx context.Context, storeID id.ID) (*Store, error) {
	return s.repo.GetByID(ctx, storeID)
}

// List retrieves all stores.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]*Store, error) {
	return s.repo.List(ctx, includeInactive)
}

// Deactivate soft-disables a store.
func (s *Service) Deactivate(ctx context.Context, storeID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		st, err := s.repo.GetByID(ctx, storeID)
		if err != nil {
			return err
		}
		st.Deactivate()
		st.Touch()
		return s.repo.Update(ctx, st)
	})
}
