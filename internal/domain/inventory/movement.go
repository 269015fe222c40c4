package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venueos/backend/internal/domain/shared"
)

// MovementType classifies a stock quantity change
type MovementType string

const (
	MovementTypePurchase   MovementType = "PURCHASE"
	MovementTypeUsage      MovementType = "USAGE"
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
	MovementTypeCount      MovementType = "COUNT"
	MovementTypeSpoilage   MovementType = "SPOILAGE"
	MovementTypeQuarantine MovementType = "QUARANTINE"
)

// String returns the string representation of the movement type
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypePurchase, MovementTypeUsage, MovementTypeAdjustment,
		MovementTypeCount, MovementTypeSpoilage, MovementTypeQuarantine:
		return true
	default:
		return false
	}
}

// IsDeduction returns true for types that normally carry negative quantity
func (t MovementType) IsDeduction() bool {
	switch t {
	case MovementTypeUsage, MovementTypeSpoilage:
		return true
	default:
		return false
	}
}

// RawMaterialMovement is one append-only ledger row recording a quantity
// change against a batch. Movements are never mutated or deleted; the sum of
// all movement quantities for a material equals its aggregate stock delta
// since creation.
type RawMaterialMovement struct {
	shared.BaseEntity
	MaterialID uuid.UUID
	BatchID    *uuid.UUID
	// BatchNumber is denormalized for display without a join
	BatchNumber  string
	MovementType MovementType
	// Quantity is signed: negative for deductions, positive for receipts,
	// zero for audit-only events such as quarantine.
	Quantity decimal.Decimal
	// PreviousStock and NewStock snapshot the material aggregate around this
	// movement for audit reconciliation.
	PreviousStock decimal.Decimal
	NewStock      decimal.Decimal
	// CostImpact is the signed monetary value of the movement
	CostImpact decimal.Decimal
	Reason     string
	Reference  string
	CreatedBy  *uuid.UUID
}

// NewMovement creates a ledger row. NewStock must equal PreviousStock plus
// the signed quantity; a mismatch means the caller computed the snapshot
// outside the lock scope.
func NewMovement(materialID uuid.UUID, movementType MovementType, quantity,
	previousStock, newStock, costImpact decimal.Decimal) (*RawMaterialMovement, error) {
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "material id is required")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("unknown movement type %q", movementType))
	}
	if !previousStock.Add(quantity).Equal(newStock) {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("stock snapshot mismatch: %s + %s != %s", previousStock, quantity, newStock))
	}
	return &RawMaterialMovement{
		BaseEntity:    shared.NewBaseEntity(),
		MaterialID:    materialID,
		MovementType:  movementType,
		Quantity:      quantity,
		PreviousStock: previousStock,
		NewStock:      newStock,
		CostImpact:    costImpact,
	}, nil
}

// WithBatch links the movement to the batch it drew from
func (m *RawMaterialMovement) WithBatch(batchID uuid.UUID, batchNumber string) *RawMaterialMovement {
	m.BatchID = &batchID
	m.BatchNumber = batchNumber
	return m
}

// WithReason attaches a human-readable reason
func (m *RawMaterialMovement) WithReason(reason string) *RawMaterialMovement {
	m.Reason = reason
	return m
}

// WithReference attaches an external reference such as an order id
func (m *RawMaterialMovement) WithReference(reference string) *RawMaterialMovement {
	m.Reference = reference
	return m
}

// WithCreatedBy records the acting user
func (m *RawMaterialMovement) WithCreatedBy(userID uuid.UUID) *RawMaterialMovement {
	m.CreatedBy = &userID
	return m
}

// IsAuditOnly reports whether the movement records an event without moving
// stock, such as a quarantine
func (m *RawMaterialMovement) IsAuditOnly() bool {
	return m.Quantity.IsZero()
}
