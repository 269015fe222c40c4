package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venueos/backend/internal/domain/shared"
)

// BatchStatistics aggregates batch state for reporting
type BatchStatistics struct {
	CountsByStatus      map[BatchStatus]int64
	TotalRemainingValue decimal.Decimal
}

// RawMaterialRepository defines persistence for raw materials
type RawMaterialRepository interface {
	// Create persists a new material
	Create(ctx context.Context, material *RawMaterial) error

	// FindByID finds a material by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*RawMaterial, error)

	// FindAll lists materials with pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]*RawMaterial, int64, error)

	// Update persists changes to a material
	Update(ctx context.Context, material *RawMaterial) error

	// SoftDelete marks a material as no longer tracked
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// StockBatchRepository defines persistence for stock batches
type StockBatchRepository interface {
	// Create persists a new batch
	Create(ctx context.Context, batch *StockBatch) error

	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockBatch, error)

	// FindActiveByMaterial returns ACTIVE batches with remaining quantity for
	// a material, ordered ascending by received date then creation time.
	// No locks are taken; use for previews and cost quotes only.
	FindActiveByMaterial(ctx context.Context, materialID uuid.UUID) ([]*StockBatch, error)

	// FindActiveByMaterialForUpdate is FindActiveByMaterial under a
	// pessimistic no-wait row lock. It fails with ErrLockContention when any
	// targeted row is already held by a concurrent transaction.
	FindActiveByMaterialForUpdate(ctx context.Context, materialID uuid.UUID) ([]*StockBatch, error)

	// CountByMaterialAndDay counts batches received for a material on the
	// given calendar day, for deriving the daily batch number sequence
	CountByMaterialAndDay(ctx context.Context, materialID uuid.UUID, day time.Time) (int64, error)

	// FindExpirationCandidates returns ACTIVE batches whose expiration date
	// has passed at the given time
	FindExpirationCandidates(ctx context.Context, now time.Time, limit int) ([]*StockBatch, error)

	// Update persists changes to a batch
	Update(ctx context.Context, batch *StockBatch) error

	// GetStatistics returns per-status counts and total remaining value,
	// optionally scoped to one material
	GetStatistics(ctx context.Context, materialID *uuid.UUID) (*BatchStatistics, error)
}

// MovementRepository defines persistence for the append-only movement ledger
type MovementRepository interface {
	// Create appends a movement. Movements are never updated or deleted.
	Create(ctx context.Context, movement *RawMaterialMovement) error

	// FindByMaterial lists movements for a material, newest first
	FindByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]*RawMaterialMovement, int64, error)

	// FindByBatch lists movements that touched a batch, oldest first
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*RawMaterialMovement, error)

	// SumQuantityByMaterial returns the signed sum of all movement quantities
	// for a material, used for ledger reconciliation
	SumQuantityByMaterial(ctx context.Context, materialID uuid.UUID) (decimal.Decimal, error)
}
