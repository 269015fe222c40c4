package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venueos/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// RawMaterialModel is the persistence model for the RawMaterial entity.
type RawMaterialModel struct {
	BaseModel
	Name         string          `gorm:"type:varchar(255);not null"`
	SKU          string          `gorm:"type:varchar(100);index"`
	Unit         string          `gorm:"type:varchar(30);not null"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CostPerUnit  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReorderPoint decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DeletedAt    gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for GORM
func (RawMaterialModel) TableName() string {
	return "raw_materials"
}

// ToDomain converts the persistence model to a domain RawMaterial entity.
func (m *RawMaterialModel) ToDomain() *inventory.RawMaterial {
	return &inventory.RawMaterial{
		BaseEntity:   m.BaseModel.ToDomain(),
		Name:         m.Name,
		SKU:          m.SKU,
		Unit:         m.Unit,
		CurrentStock: m.CurrentStock,
		CostPerUnit:  m.CostPerUnit,
		ReorderPoint: m.ReorderPoint,
	}
}

// FromDomain populates the persistence model from a domain RawMaterial entity.
func (m *RawMaterialModel) FromDomain(r *inventory.RawMaterial) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.Name = r.Name
	m.SKU = r.SKU
	m.Unit = r.Unit
	m.CurrentStock = r.CurrentStock
	m.CostPerUnit = r.CostPerUnit
	m.ReorderPoint = r.ReorderPoint
}

// RawMaterialModelFromDomain creates a new persistence model from a domain entity.
func RawMaterialModelFromDomain(r *inventory.RawMaterial) *RawMaterialModel {
	m := &RawMaterialModel{}
	m.FromDomain(r)
	return m
}

// StockBatchModel is the persistence model for the StockBatch entity.
type StockBatchModel struct {
	BaseModel
	MaterialID          uuid.UUID             `gorm:"type:uuid;not null;index:idx_batch_material;uniqueIndex:idx_batch_material_number,priority:1"`
	BatchNumber         string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_batch_material_number,priority:2"`
	InitialQuantity     decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	RemainingQuantity   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Unit                string                `gorm:"type:varchar(30);not null"`
	CostPerUnit         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	ReceivedDate        time.Time             `gorm:"type:timestamptz;not null;index:idx_batch_fifo,priority:2"`
	ExpirationDate      *time.Time            `gorm:"type:timestamptz;index"`
	Status              inventory.BatchStatus `gorm:"type:varchar(20);not null;index:idx_batch_fifo,priority:1"`
	DepletedAt          *time.Time            `gorm:"type:timestamptz"`
	QuarantineReason    string                `gorm:"type:varchar(255)"`
	PurchaseOrderLineID *uuid.UUID            `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (StockBatchModel) TableName() string {
	return "stock_batches"
}

// ToDomain converts the persistence model to a domain StockBatch entity.
func (m *StockBatchModel) ToDomain() *inventory.StockBatch {
	return &inventory.StockBatch{
		BaseEntity:          m.BaseModel.ToDomain(),
		MaterialID:          m.MaterialID,
		BatchNumber:         m.BatchNumber,
		InitialQuantity:     m.InitialQuantity,
		RemainingQuantity:   m.RemainingQuantity,
		Unit:                m.Unit,
		CostPerUnit:         m.CostPerUnit,
		ReceivedDate:        m.ReceivedDate,
		ExpirationDate:      m.ExpirationDate,
		Status:              m.Status,
		DepletedAt:          m.DepletedAt,
		QuarantineReason:    m.QuarantineReason,
		PurchaseOrderLineID: m.PurchaseOrderLineID,
	}
}

// FromDomain populates the persistence model from a domain StockBatch entity.
func (m *StockBatchModel) FromDomain(b *inventory.StockBatch) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.MaterialID = b.MaterialID
	m.BatchNumber = b.BatchNumber
	m.InitialQuantity = b.InitialQuantity
	m.RemainingQuantity = b.RemainingQuantity
	m.Unit = b.Unit
	m.CostPerUnit = b.CostPerUnit
	m.ReceivedDate = b.ReceivedDate
	m.ExpirationDate = b.ExpirationDate
	m.Status = b.Status
	m.DepletedAt = b.DepletedAt
	m.QuarantineReason = b.QuarantineReason
	m.PurchaseOrderLineID = b.PurchaseOrderLineID
}

// StockBatchModelFromDomain creates a new persistence model from a domain entity.
func StockBatchModelFromDomain(b *inventory.StockBatch) *StockBatchModel {
	m := &StockBatchModel{}
	m.FromDomain(b)
	return m
}

// RawMaterialMovementModel is the persistence model for the append-only
// movement ledger. Rows are inserted and read, never updated or deleted.
type RawMaterialMovementModel struct {
	BaseModel
	MaterialID    uuid.UUID              `gorm:"type:uuid;not null;index:idx_movement_material_time,priority:1"`
	BatchID       *uuid.UUID             `gorm:"type:uuid;index"`
	BatchNumber   string                 `gorm:"type:varchar(50)"`
	MovementType  inventory.MovementType `gorm:"type:varchar(20);not null;index"`
	Quantity      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	PreviousStock decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	NewStock      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	CostImpact    decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Reason        string                 `gorm:"type:varchar(255)"`
	Reference     string                 `gorm:"type:varchar(100);index"`
	CreatedBy     *uuid.UUID             `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (RawMaterialMovementModel) TableName() string {
	return "raw_material_movements"
}

// ToDomain converts the persistence model to a domain movement entity.
func (m *RawMaterialMovementModel) ToDomain() *inventory.RawMaterialMovement {
	return &inventory.RawMaterialMovement{
		BaseEntity:    m.BaseModel.ToDomain(),
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
		CreatedBy:     m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain movement entity.
func (m *RawMaterialMovementModel) FromDomain(mv *inventory.RawMaterialMovement) {
	m.FromDomainBaseEntity(mv.BaseEntity)
	m.MaterialID = mv.MaterialID
	m.BatchID = mv.BatchID
	m.BatchNumber = mv.BatchNumber
	m.MovementType = mv.MovementType
	m.Quantity = mv.Quantity
	m.PreviousStock = mv.PreviousStock
	m.NewStock = mv.NewStock
	m.CostImpact = mv.CostImpact
	m.Reason = mv.Reason
	m.Reference = mv.Reference
	m.CreatedBy = mv.CreatedBy
}

// RawMaterialMovementModelFromDomain creates a new persistence model from a domain entity.
func RawMaterialMovementModelFromDomain(mv *inventory.RawMaterialMovement) *RawMaterialMovementModel {
	m := &RawMaterialMovementModel{}
	m.FromDomain(mv)
	return m
}
