package inventory

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/venueos/backend/internal/domain/shared"
)

// RawMaterial is a trackable ingredient or good. CurrentStock is a
// denormalized aggregate and must always equal the sum of remaining
// quantities across the material's non-terminal batches; it is mutated only
// as a side effect of batch operations, never directly.
type RawMaterial struct {
	shared.BaseEntity
	Name         string
	SKU          string
	Unit         string
	CurrentStock decimal.Decimal
	// CostPerUnit is the last-known unit cost, used by the standard-cost
	// policy and as fallback when a material has no batches.
	CostPerUnit  decimal.Decimal
	ReorderPoint decimal.Decimal
}

// NewRawMaterial creates a raw material with zero stock
func NewRawMaterial(name, sku, unit string, costPerUnit, reorderPoint decimal.Decimal) (*RawMaterial, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "material name is required")
	}
	if strings.TrimSpace(unit) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "material unit is required")
	}
	if costPerUnit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "cost per unit cannot be negative")
	}
	if reorderPoint.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "reorder point cannot be negative")
	}
	return &RawMaterial{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		SKU:          sku,
		Unit:         unit,
		CurrentStock: decimal.Zero,
		CostPerUnit:  costPerUnit,
		ReorderPoint: reorderPoint,
	}, nil
}

// ApplyStockDelta shifts the aggregate stock by a signed delta.
// The resulting stock may not go negative.
func (m *RawMaterial) ApplyStockDelta(delta decimal.Decimal) error {
	next := m.CurrentStock.Add(delta)
	if next.IsNegative() {
		return shared.NewDomainError("INVALID_STATE", "aggregate stock cannot go negative")
	}
	m.CurrentStock = next
	m.Touch()
	return nil
}

// UpdateCostPerUnit records the latest known unit cost
func (m *RawMaterial) UpdateCostPerUnit(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "cost per unit cannot be negative")
	}
	m.CostPerUnit = cost
	m.Touch()
	return nil
}

// IsBelowReorderPoint reports whether the aggregate stock has fallen to or
// under the reorder point
func (m *RawMaterial) IsBelowReorderPoint() bool {
	return m.CurrentStock.LessThanOrEqual(m.ReorderPoint)
}
