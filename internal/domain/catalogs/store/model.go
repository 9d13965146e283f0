// Package store provides the store registry: the physical or organizational
// locations that hold their own stock balances and requisitions.
package store

import (
	"context"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
)

// Store represents one stock-holding location.
type Store struct {
	entity.BaseEntity

	// Code is a short human-readable identifier (e.g., "ER", "WARD-3").
	Code string `db:"code" json:"code"`

	Name string `db:"name" json:"name"`

	// Department groups stores for cross-store requests and reporting.
	Department string `db:"department" json:"department,omitempty"`
}

// New creates a store with required fields.
func New(code, name string) *Store {
	return &Store{
		BaseEntity: entity.NewBaseEntity(),
		Code:       code,
		Name:       name,
	}
}

// Validate implements entity.Validatable.
func (s *Store) Validate(ctx context.Context) error {
	if s.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if s.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
