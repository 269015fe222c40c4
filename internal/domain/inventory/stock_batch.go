package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venueos/backend/internal/domain/shared"
)

// BatchStatus represents the lifecycle state of a stock batch
type BatchStatus string

const (
	BatchStatusActive      BatchStatus = "ACTIVE"
	BatchStatusDepleted    BatchStatus = "DEPLETED"
	BatchStatusExpired     BatchStatus = "EXPIRED"
	BatchStatusQuarantined BatchStatus = "QUARANTINED"
)

// String returns the string representation of the status
func (s BatchStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a known lifecycle state
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusActive, BatchStatusDepleted, BatchStatusExpired, BatchStatusQuarantined:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for states that never transition further
func (s BatchStatus) IsTerminal() bool {
	return s != BatchStatusActive
}

// AllBatchStatuses returns every lifecycle state
func AllBatchStatuses() []BatchStatus {
	return []BatchStatus{BatchStatusActive, BatchStatusDepleted, BatchStatusExpired, BatchStatusQuarantined}
}

// StockBatch is one discrete receipt of a raw material. Everything except
// RemainingQuantity, Status, DepletedAt and QuarantineReason is fixed at
// receipt time; in particular a batch never changes cost after creation.
// Batches are never deleted, only transitioned.
type StockBatch struct {
	shared.BaseEntity
	MaterialID          uuid.UUID
	BatchNumber         string
	InitialQuantity     decimal.Decimal
	RemainingQuantity   decimal.Decimal
	Unit                string
	CostPerUnit         decimal.Decimal
	ReceivedDate        time.Time
	ExpirationDate      *time.Time
	Status              BatchStatus
	DepletedAt          *time.Time
	QuarantineReason    string
	PurchaseOrderLineID *uuid.UUID
}

// NewStockBatch creates an ACTIVE batch for a received quantity
func NewStockBatch(materialID uuid.UUID, batchNumber string, quantity decimal.Decimal, unit string,
	costPerUnit decimal.Decimal, receivedDate time.Time, expirationDate *time.Time, purchaseOrderLineID *uuid.UUID) (*StockBatch, error) {
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "material id is required")
	}
	if strings.TrimSpace(batchNumber) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "batch number is required")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "batch quantity must be positive")
	}
	if costPerUnit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "batch unit cost cannot be negative")
	}
	if expirationDate != nil && !expirationDate.After(receivedDate) {
		return nil, shared.NewDomainError("INVALID_INPUT", "expiration date must be after received date")
	}
	return &StockBatch{
		BaseEntity:          shared.NewBaseEntity(),
		MaterialID:          materialID,
		BatchNumber:         batchNumber,
		InitialQuantity:     quantity,
		RemainingQuantity:   quantity,
		Unit:                unit,
		CostPerUnit:         costPerUnit,
		ReceivedDate:        receivedDate,
		ExpirationDate:      expirationDate,
		Status:              BatchStatusActive,
		PurchaseOrderLineID: purchaseOrderLineID,
	}, nil
}

// IsAvailable reports whether the batch is a FIFO candidate
func (b *StockBatch) IsAvailable() bool {
	return b.Status == BatchStatusActive && b.RemainingQuantity.IsPositive()
}

// IsExpired reports whether the expiration date has passed at the given time
func (b *StockBatch) IsExpired(now time.Time) bool {
	return b.ExpirationDate != nil && !b.ExpirationDate.After(now)
}

// RemainingValue returns the monetary value of the remaining quantity
func (b *StockBatch) RemainingValue() decimal.Decimal {
	return b.RemainingQuantity.Mul(b.CostPerUnit)
}

// Deduct draws quantity out of the batch. RemainingQuantity is monotonically
// non-increasing; when it reaches zero through a deduction the batch becomes
// DEPLETED.
func (b *StockBatch) Deduct(quantity decimal.Decimal) error {
	if b.Status != BatchStatusActive {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("cannot deduct from batch %s in status %s", b.BatchNumber, b.Status))
	}
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "deduction quantity must be positive")
	}
	if quantity.GreaterThan(b.RemainingQuantity) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("batch %s holds %s, cannot deduct %s", b.BatchNumber, b.RemainingQuantity, quantity))
	}
	b.RemainingQuantity = b.RemainingQuantity.Sub(quantity)
	if b.RemainingQuantity.IsZero() {
		now := time.Now()
		b.Status = BatchStatusDepleted
		b.DepletedAt = &now
	}
	b.Touch()
	return nil
}

// MarkExpired transitions an ACTIVE batch to EXPIRED, regardless of how much
// quantity remains
func (b *StockBatch) MarkExpired(now time.Time) error {
	if b.Status != BatchStatusActive {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("cannot expire batch %s in status %s", b.BatchNumber, b.Status))
	}
	if !b.IsExpired(now) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("batch %s has not reached its expiration date", b.BatchNumber))
	}
	b.Status = BatchStatusExpired
	b.Touch()
	return nil
}

// Quarantine transitions an ACTIVE batch to QUARANTINED. A reason is
// mandatory so the audit trail explains why stock was pulled.
func (b *StockBatch) Quarantine(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_INPUT", "quarantine reason is required")
	}
	if b.Status != BatchStatusActive {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("cannot quarantine batch %s in status %s", b.BatchNumber, b.Status))
	}
	b.Status = BatchStatusQuarantined
	b.QuarantineReason = reason
	b.Touch()
	return nil
}
