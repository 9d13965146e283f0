// Package masteritem provides the global item catalog.
// Master items are the canonical definitions shared by every store; their
// identity (SKU, barcode) is immutable, descriptive fields are editable, and
// records are deactivated rather than deleted.
package masteritem

import (
	"context"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
)

// MasterItem is a global catalog entry.
type MasterItem struct {
	entity.BaseEntity

	// SKU is the canonical stock keeping unit, unique across the catalog.
	SKU string `db:"sku" json:"sku"`

	// Barcode is optional secondary identity.
	Barcode string `db:"barcode" json:"barcode,omitempty"`

	Name     string `db:"name" json:"name"`
	Category string `db:"category" json:"category,omitempty"`

	// Unit of measure (e.g., "pcs", "box").
	Unit string `db:"unit" json:"unit"`

	// Spec is a free-form specification bag (JSONB in PostgreSQL).
	Spec map[string]any `db:"spec" json:"spec,omitempty"`
}

// New creates a master item with required identity fields.
func New(sku, name, unit string) *MasterItem {
	return &MasterItem{
		BaseEntity: entity.NewBaseEntity(),
		SKU:        sku,
		Name:       name,
		Unit:       unit,
	}
}

// Validate implements entity.Validatable.
func (m *MasterItem) Validate(ctx context.Context) error {
	if m.SKU == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}
	if m.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if m.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}
	return nil
}

// ApplyUpdate copies the editable descriptive fields. Identity (SKU,
// barcode) stays fixed once created.
func (m *MasterItem) ApplyUpdate(name, category, unit string, spec map[string]any) {
	if name != "" {
		m.Name = name
	}
	if category != "" {
		m.Category = category
	}
	if unit != "" {
		m.Unit = unit
	}
	if spec != nil {
		m.Spec = spec
	}
	m.Touch()
}
