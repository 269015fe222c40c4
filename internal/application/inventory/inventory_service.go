package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venueos/backend/internal/domain/inventory"
	"github.com/venueos/backend/internal/domain/shared"
	"github.com/venueos/backend/internal/domain/shared/strategy"
)

// CostStrategyProvider resolves costing strategies by method
type CostStrategyProvider interface {
	// GetCostStrategy returns the strategy for a method; empty selects the
	// venue-wide default
	GetCostStrategy(method strategy.CostMethod) (strategy.CostingStrategy, error)
}

// InventoryService orchestrates the batch ledger, the FIFO deductor, the
// cost calculator and the batch lifecycle. Every mutation runs inside the
// transaction scope so batch rows, movement rows and the material aggregate
// always commit together.
type InventoryService struct {
	materialRepo     inventory.RawMaterialRepository
	batchRepo        inventory.StockBatchRepository
	movementRepo     inventory.MovementRepository
	txScope          TransactionScope
	strategyProvider CostStrategyProvider
	recorder         MovementRecorder
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	materialRepo inventory.RawMaterialRepository,
	batchRepo inventory.StockBatchRepository,
	movementRepo inventory.MovementRepository,
	txScope TransactionScope,
	strategyProvider CostStrategyProvider,
) *InventoryService {
	return &InventoryService{
		materialRepo:     materialRepo,
		batchRepo:        batchRepo,
		movementRepo:     movementRepo,
		txScope:          txScope,
		strategyProvider: strategyProvider,
	}
}

// SetMovementRecorder enables movement counter recording. Must be called
// before the service starts handling requests.
func (s *InventoryService) SetMovementRecorder(recorder MovementRecorder) {
	s.recorder = recorder
}

// CreateRawMaterial registers a new material with zero stock
func (s *InventoryService) CreateRawMaterial(ctx context.Context, req CreateMaterialRequest) (*inventory.RawMaterial, error) {
	material, err := inventory.NewRawMaterial(req.Name, req.SKU, req.Unit, req.CostPerUnit, req.ReorderPoint)
	if err != nil {
		return nil, err
	}
	if err := s.materialRepo.Create(ctx, material); err != nil {
		return nil, err
	}
	return material, nil
}

// GetRawMaterial loads a material by id
func (s *InventoryService) GetRawMaterial(ctx context.Context, id uuid.UUID) (*inventory.RawMaterial, error) {
	return s.materialRepo.FindByID(ctx, id)
}

// ListRawMaterials lists materials with pagination
func (s *InventoryService) ListRawMaterials(ctx context.Context, filter shared.Filter) ([]*inventory.RawMaterial, int64, error) {
	return s.materialRepo.FindAll(ctx, filter)
}

// DeleteRawMaterial soft-deletes a material so it is no longer tracked
func (s *InventoryService) DeleteRawMaterial(ctx context.Context, id uuid.UUID) error {
	return s.materialRepo.SoftDelete(ctx, id)
}

// ListMovements returns the movement ledger for a material, newest first
func (s *InventoryService) ListMovements(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]*inventory.RawMaterialMovement, int64, error) {
	if _, err := s.materialRepo.FindByID(ctx, materialID); err != nil {
		return nil, 0, err
	}
	return s.movementRepo.FindByMaterial(ctx, materialID, filter)
}

// batchNumberAttempts bounds how often a receipt re-derives its batch number
// after losing a same-day numbering race.
const batchNumberAttempts = 3

// CreateStockBatch records one stock receipt: a new ACTIVE batch, a PURCHASE
// movement and the aggregate stock increase, atomically. The batch number is
// derived from the persisted count of batches received for the material that
// day, inside the same transaction, so concurrent instances cannot mint the
// same sequence from process-local state. Two receipts racing the same day can
// still derive the same sequence; the unique batch number index rejects the
// loser and a fresh attempt re-counts.
func (s *InventoryService) CreateStockBatch(ctx context.Context, req CreateBatchRequest) (*inventory.StockBatch, error) {
	if !req.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "batch quantity must be positive")
	}

	receivedDate := req.ReceivedDate
	if receivedDate.IsZero() {
		receivedDate = time.Now()
	}

	var created *inventory.StockBatch
	var err error
	for attempt := 0; attempt < batchNumberAttempts; attempt++ {
		created, err = s.createStockBatchOnce(ctx, req, receivedDate)
		if err == nil || !errors.Is(err, shared.ErrAlreadyExists) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.RecordReceipt(ctx, req.MaterialID.String())
	}
	return created, nil
}

func (s *InventoryService) createStockBatchOnce(ctx context.Context, req CreateBatchRequest, receivedDate time.Time) (*inventory.StockBatch, error) {
	var created *inventory.StockBatch
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		material, err := repos.MaterialRepo().FindByID(ctx, req.MaterialID)
		if err != nil {
			return err
		}

		unit := req.Unit
		if unit == "" {
			unit = material.Unit
		}

		count, err := repos.BatchRepo().CountByMaterialAndDay(ctx, material.ID, receivedDate)
		if err != nil {
			return err
		}
		batchNumber := inventory.FormatBatchNumber(receivedDate, int(count)+1)

		batch, err := inventory.NewStockBatch(material.ID, batchNumber, req.Quantity, unit,
			req.CostPerUnit, receivedDate, req.ExpirationDate, req.PurchaseOrderLineID)
		if err != nil {
			return err
		}
		if err := repos.BatchRepo().Create(ctx, batch); err != nil {
			return err
		}

		previousStock := material.CurrentStock
		if err := material.ApplyStockDelta(req.Quantity); err != nil {
			return err
		}
		if err := material.UpdateCostPerUnit(req.CostPerUnit); err != nil {
			return err
		}

		movement, err := inventory.NewMovement(material.ID, inventory.MovementTypePurchase,
			req.Quantity, previousStock, material.CurrentStock, req.Quantity.Mul(req.CostPerUnit))
		if err != nil {
			return err
		}
		movement.WithBatch(batch.ID, batch.BatchNumber).WithReason("stock received")
		if req.Reference != "" {
			movement.WithReference(req.Reference)
		}
		if req.CreatedBy != nil {
			movement.WithCreatedBy(*req.CreatedBy)
		}
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}

		// Aggregate update is the last write in the transaction
		if err := repos.MaterialRepo().Update(ctx, material); err != nil {
			return err
		}

		created = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeductStockFIFO draws the requested quantity from the material's batches
// oldest first, as one all-or-nothing operation. The candidate batches are
// locked with no-wait row locks before quantities are re-read, so two
// concurrent deductions for the same material can never both draw from the
// same batch row: the second fails fast with ErrLockContention and the
// caller retries with backoff. Returns the movements created, one per batch
// touched.
func (s *InventoryService) DeductStockFIFO(ctx context.Context, req DeductStockRequest) ([]*inventory.RawMaterialMovement, error) {
	if !req.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "deduction quantity must be positive")
	}
	if !req.MovementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("unknown movement type %q", req.MovementType))
	}
	if req.MovementType == inventory.MovementTypePurchase || req.MovementType == inventory.MovementTypeQuarantine {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("movement type %s cannot be used for deductions", req.MovementType))
	}

	var movements []*inventory.RawMaterialMovement
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		material, err := repos.MaterialRepo().FindByID(ctx, req.MaterialID)
		if err != nil {
			return err
		}

		// Lock first, then read: the allocator must see the authoritative
		// remaining quantities, not a snapshot taken before the locks.
		batches, err := repos.BatchRepo().FindActiveByMaterialForUpdate(ctx, material.ID)
		if err != nil {
			return err
		}

		plan, err := inventory.PlanFIFOAllocation(req.Quantity, batches)
		if err != nil {
			return err
		}
		if !plan.FullySatisfied {
			return shared.NewInsufficientStockError(material.ID.String(), req.Quantity, plan.TotalAvailable)
		}

		if err := plan.Apply(batches); err != nil {
			return err
		}

		byID := make(map[uuid.UUID]*inventory.StockBatch, len(batches))
		for _, b := range batches {
			byID[b.ID] = b
		}

		runningStock := material.CurrentStock
		movements = make([]*inventory.RawMaterialMovement, 0, len(plan.Entries))
		for _, entry := range plan.Entries {
			batch := byID[entry.BatchID]
			if err := repos.BatchRepo().Update(ctx, batch); err != nil {
				return err
			}

			previous := runningStock
			runningStock = runningStock.Sub(entry.Quantity)
			movement, err := inventory.NewMovement(material.ID, req.MovementType,
				entry.Quantity.Neg(), previous, runningStock, entry.CostImpact.Neg())
			if err != nil {
				return err
			}
			movement.WithBatch(entry.BatchID, entry.BatchNumber)
			if req.Reason != "" {
				movement.WithReason(req.Reason)
			}
			if req.Reference != "" {
				movement.WithReference(req.Reference)
			}
			if req.CreatedBy != nil {
				movement.WithCreatedBy(*req.CreatedBy)
			}
			if err := repos.MovementRepo().Create(ctx, movement); err != nil {
				return err
			}
			movements = append(movements, movement)
		}

		// One aggregate update with the total delta, last in the transaction
		if err := material.ApplyStockDelta(plan.TotalAllocated.Neg()); err != nil {
			return err
		}
		return repos.MaterialRepo().Update(ctx, material)
	})
	if s.recorder != nil {
		s.recorder.RecordDeduction(ctx, string(req.MovementType), deductionOutcome(err))
	}
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// AllocateStockFIFO computes a read-only allocation preview without taking
// any locks. It is for cost estimation and reporting only and must never be
// used to apply a deduction.
func (s *InventoryService) AllocateStockFIFO(ctx context.Context, materialID uuid.UUID, quantity decimal.Decimal) (*AllocationPreviewResponse, error) {
	if _, err := s.materialRepo.FindByID(ctx, materialID); err != nil {
		return nil, err
	}
	batches, err := s.batchRepo.FindActiveByMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	plan, err := inventory.PlanFIFOAllocation(quantity, batches)
	if err != nil {
		return nil, err
	}
	return &AllocationPreviewResponse{
		MaterialID:     materialID,
		Requested:      plan.Requested,
		TotalAvailable: plan.TotalAvailable,
		TotalCost:      plan.TotalCost,
		FullySatisfied: plan.FullySatisfied,
		Shortfall:      plan.Shortfall(),
		Allocations:    plan.Entries,
	}, nil
}

// QuarantineBatch pulls an ACTIVE batch for quality or damage issues. The
// reason is mandatory and a zero-quantity movement makes the event visible
// in the ledger even though no stock numerically moved. The batch is
// permanently excluded from future FIFO candidate lists.
func (s *InventoryService) QuarantineBatch(ctx context.Context, batchID uuid.UUID, reason string, actor *uuid.UUID) (*inventory.StockBatch, error) {
	var quarantined *inventory.StockBatch
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.BatchRepo().FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		material, err := repos.MaterialRepo().FindByID(ctx, batch.MaterialID)
		if err != nil {
			return err
		}

		if err := batch.Quarantine(reason); err != nil {
			return err
		}
		if err := repos.BatchRepo().Update(ctx, batch); err != nil {
			return err
		}

		movement, err := inventory.NewMovement(material.ID, inventory.MovementTypeQuarantine,
			decimal.Zero, material.CurrentStock, material.CurrentStock, decimal.Zero)
		if err != nil {
			return err
		}
		movement.WithBatch(batch.ID, batch.BatchNumber).
			WithReason(fmt.Sprintf("Batch quarantined: %s", reason))
		if actor != nil {
			movement.WithCreatedBy(*actor)
		}
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}

		quarantined = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quarantined, nil
}

// GetBatchStatistics returns per-status batch counts and the total remaining
// value, across all materials or scoped to one
func (s *InventoryService) GetBatchStatistics(ctx context.Context, materialID *uuid.UUID) (*BatchStatisticsResponse, error) {
	if materialID != nil {
		if _, err := s.materialRepo.FindByID(ctx, *materialID); err != nil {
			return nil, err
		}
	}
	stats, err := s.batchRepo.GetStatistics(ctx, materialID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(stats.CountsByStatus))
	for status, count := range stats.CountsByStatus {
		counts[status.String()] = count
	}
	return &BatchStatisticsResponse{
		MaterialID:          materialID,
		CountsByStatus:      counts,
		TotalRemainingValue: stats.TotalRemainingValue,
	}, nil
}

// CalculateCostImpact prices a quantity of a material under the selected
// costing method without mutating anything
func (s *InventoryService) CalculateCostImpact(ctx context.Context, materialID uuid.UUID, quantity decimal.Decimal, method strategy.CostMethod) (*CostQuoteResponse, error) {
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "quantity must be positive")
	}
	if method != "" && !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("unknown costing method %q", method))
	}

	material, err := s.materialRepo.FindByID(ctx, materialID)
	if err != nil {
		return nil, err
	}
	batches, err := s.batchRepo.FindActiveByMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}

	costStrategy, err := s.strategyProvider.GetCostStrategy(method)
	if err != nil {
		return nil, err
	}

	entries := make([]strategy.StockEntry, len(batches))
	for i, b := range batches {
		entries[i] = strategy.StockEntry{
			BatchID:           b.ID.String(),
			BatchNumber:       b.BatchNumber,
			RemainingQuantity: b.RemainingQuantity,
			UnitCost:          b.CostPerUnit,
			ReceivedDate:      b.ReceivedDate,
		}
	}

	result, err := costStrategy.QuoteCost(ctx, strategy.CostContext{
		MaterialID:       material.ID.String(),
		Quantity:         quantity,
		StandardUnitCost: material.CostPerUnit,
	}, entries)
	if err != nil {
		return nil, err
	}

	return &CostQuoteResponse{
		MaterialID:        material.ID,
		Method:            result.Method,
		Quantity:          quantity,
		UnitCost:          result.UnitCost,
		TotalCost:         result.TotalCost,
		AvailableQuantity: result.AvailableQuantity,
		FullyCovered:      result.FullyCovered,
	}, nil
}
