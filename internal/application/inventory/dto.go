package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venueos/backend/internal/domain/inventory"
	"github.com/venueos/backend/internal/domain/shared/strategy"
)

// CreateMaterialRequest carries the fields for registering a raw material
type CreateMaterialRequest struct {
	Name         string
	SKU          string
	Unit         string
	CostPerUnit  decimal.Decimal
	ReorderPoint decimal.Decimal
}

// CreateBatchRequest carries the fields for recording one stock receipt
type CreateBatchRequest struct {
	MaterialID uuid.UUID
	Quantity   decimal.Decimal
	// Unit defaults to the material's unit when empty
	Unit        string
	CostPerUnit decimal.Decimal
	// ReceivedDate defaults to now when zero
	ReceivedDate        time.Time
	ExpirationDate      *time.Time
	PurchaseOrderLineID *uuid.UUID
	Reference           string
	CreatedBy           *uuid.UUID
}

// DeductStockRequest carries the fields for a FIFO stock deduction
type DeductStockRequest struct {
	MaterialID   uuid.UUID
	Quantity     decimal.Decimal
	MovementType inventory.MovementType
	Reason       string
	Reference    string
	CreatedBy    *uuid.UUID
}

// MaterialResponse is the service-level view of a material
type MaterialResponse struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	SKU                 string          `json:"sku"`
	Unit                string          `json:"unit"`
	CurrentStock        decimal.Decimal `json:"current_stock"`
	CostPerUnit         decimal.Decimal `json:"cost_per_unit"`
	ReorderPoint        decimal.Decimal `json:"reorder_point"`
	IsBelowReorderPoint bool            `json:"is_below_reorder_point"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewMaterialResponse builds a MaterialResponse from the domain entity
func NewMaterialResponse(m *inventory.RawMaterial) *MaterialResponse {
	return &MaterialResponse{
		ID:                  m.ID,
		Name:                m.Name,
		SKU:                 m.SKU,
		Unit:                m.Unit,
		CurrentStock:        m.CurrentStock,
		CostPerUnit:         m.CostPerUnit,
		ReorderPoint:        m.ReorderPoint,
		IsBelowReorderPoint: m.IsBelowReorderPoint(),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// BatchResponse is the service-level view of a stock batch
type BatchResponse struct {
	ID                  uuid.UUID             `json:"id"`
	MaterialID          uuid.UUID             `json:"material_id"`
	BatchNumber         string                `json:"batch_number"`
	InitialQuantity     decimal.Decimal       `json:"initial_quantity"`
	RemainingQuantity   decimal.Decimal       `json:"remaining_quantity"`
	Unit                string                `json:"unit"`
	CostPerUnit         decimal.Decimal       `json:"cost_per_unit"`
	ReceivedDate        time.Time             `json:"received_date"`
	ExpirationDate      *time.Time            `json:"expiration_date,omitempty"`
	Status              inventory.BatchStatus `json:"status"`
	DepletedAt          *time.Time            `json:"depleted_at,omitempty"`
	QuarantineReason    string                `json:"quarantine_reason,omitempty"`
	PurchaseOrderLineID *uuid.UUID            `json:"purchase_order_line_id,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
}

// NewBatchResponse builds a BatchResponse from the domain entity
func NewBatchResponse(b *inventory.StockBatch) *BatchResponse {
	return &BatchResponse{
		ID:                  b.ID,
		MaterialID:          b.MaterialID,
		BatchNumber:         b.BatchNumber,
		InitialQuantity:     b.InitialQuantity,
		RemainingQuantity:   b.RemainingQuantity,
		Unit:                b.Unit,
		CostPerUnit:         b.CostPerUnit,
		ReceivedDate:        b.ReceivedDate,
		ExpirationDate:      b.ExpirationDate,
		Status:              b.Status,
		DepletedAt:          b.DepletedAt,
		QuarantineReason:    b.QuarantineReason,
		PurchaseOrderLineID: b.PurchaseOrderLineID,
		CreatedAt:           b.CreatedAt,
	}
}

// MovementResponse is the service-level view of a ledger row
type MovementResponse struct {
	ID            uuid.UUID              `json:"id"`
	MaterialID    uuid.UUID              `json:"material_id"`
	BatchID       *uuid.UUID             `json:"batch_id,omitempty"`
	BatchNumber   string                 `json:"batch_number,omitempty"`
	MovementType  inventory.MovementType `json:"movement_type"`
	Quantity      decimal.Decimal        `json:"quantity"`
	PreviousStock decimal.Decimal        `json:"previous_stock"`
	NewStock      decimal.Decimal        `json:"new_stock"`
	CostImpact    decimal.Decimal        `json:"cost_impact"`
	Reason        string                 `json:"reason,omitempty"`
	Reference     string                 `json:"reference,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// NewMovementResponse builds a MovementResponse from the domain entity
func NewMovementResponse(m *inventory.RawMaterialMovement) *MovementResponse {
	return &MovementResponse{
		ID:            m.ID,
		MaterialID:    m.MaterialID,
		BatchID:       m.BatchID,
		BatchNumber:   m.BatchNumber,
		MovementType:  m.MovementType,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		CostImpact:    m.CostImpact,
		Reason:        m.Reason,
		Reference:     m.Reference,
		CreatedAt:     m.CreatedAt,
	}
}

// AllocationPreviewResponse is the read-only allocation preview. It must
// never be used to apply a deduction; quantities are not locked.
type AllocationPreviewResponse struct {
	MaterialID     uuid.UUID                   `json:"material_id"`
	Requested      decimal.Decimal             `json:"requested"`
	TotalAvailable decimal.Decimal             `json:"total_available"`
	TotalCost      decimal.Decimal             `json:"total_cost"`
	FullySatisfied bool                        `json:"fully_satisfied"`
	Shortfall      decimal.Decimal             `json:"shortfall"`
	Allocations    []inventory.AllocationEntry `json:"allocations"`
}

// CostQuoteResponse is the result of a what-if cost calculation
type CostQuoteResponse struct {
	MaterialID        uuid.UUID           `json:"material_id"`
	Method            strategy.CostMethod `json:"method"`
	Quantity          decimal.Decimal     `json:"quantity"`
	UnitCost          decimal.Decimal     `json:"unit_cost"`
	TotalCost         decimal.Decimal     `json:"total_cost"`
	AvailableQuantity decimal.Decimal     `json:"available_quantity"`
	FullyCovered      bool                `json:"fully_covered"`
}

// BatchStatisticsResponse aggregates batch state for reporting
type BatchStatisticsResponse struct {
	MaterialID          *uuid.UUID       `json:"material_id,omitempty"`
	CountsByStatus      map[string]int64 `json:"counts_by_status"`
	TotalRemainingValue decimal.Decimal  `json:"total_remaining_value"`
}
