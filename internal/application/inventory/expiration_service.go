package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	domaininv "github.com/venueos/backend/internal/domain/inventory"
	"go.uber.org/zap"
)

// BatchExpirationService handles automatic expiration of stock batches whose
// expiration date has passed
type BatchExpirationService struct {
	batchRepo domaininv.StockBatchRepository
	txScope   TransactionScope
	logger    *zap.Logger
	sweepSize int
	recorder  MovementRecorder
}

// DefaultSweepSize bounds how many batches one sweep will process
const DefaultSweepSize = 500

// NewBatchExpirationService creates a new BatchExpirationService
func NewBatchExpirationService(
	batchRepo domaininv.StockBatchRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *BatchExpirationService {
	return &BatchExpirationService{
		batchRepo: batchRepo,
		txScope:   txScope,
		logger:    logger,
		sweepSize: DefaultSweepSize,
	}
}

// SetSweepSize overrides how many batches one sweep will process. Values
// below 1 keep the current size.
func (s *BatchExpirationService) SetSweepSize(size int) {
	if size > 0 {
		s.sweepSize = size
	}
}

// SetMovementRecorder enables spoilage counter recording. Must be called
// before the sweep starts running.
func (s *BatchExpirationService) SetMovementRecorder(recorder MovementRecorder) {
	s.recorder = recorder
}

// ExpirationSweepStats contains statistics about one expiration sweep
type ExpirationSweepStats struct {
	TotalCandidates int       `json:"total_candidates"`
	Expired         int       `json:"expired"`
	Failed          int       `json:"failed"`
	ProcessedAt     time.Time `json:"processed_at"`
}

// ExpireOverdueBatches finds ACTIVE batches past their expiration date and
// transitions each to EXPIRED. Each batch moves in its own transaction so
// one failure never blocks the rest of the sweep. The written-off quantity
// leaves the aggregate as a negative SPOILAGE movement, so the material's
// current stock keeps matching the sum of its non-terminal batches and the
// ledger sum stays reconciled.
func (s *BatchExpirationService) ExpireOverdueBatches(ctx context.Context) (*ExpirationSweepStats, error) {
	now := time.Now()
	stats := &ExpirationSweepStats{ProcessedAt: now}

	candidates, err := s.batchRepo.FindExpirationCandidates(ctx, now, s.sweepSize)
	if err != nil {
		s.logger.Error("Failed to find expiration candidates", zap.Error(err))
		return nil, err
	}

	stats.TotalCandidates = len(candidates)
	if stats.TotalCandidates == 0 {
		s.logger.Debug("No overdue stock batches found")
		return stats, nil
	}

	s.logger.Info("Found overdue stock batches",
		zap.Int("count", stats.TotalCandidates),
	)

	for _, batch := range candidates {
		if err := s.expireBatch(ctx, batch.ID, now); err != nil {
			s.logger.Error("Failed to expire batch",
				zap.String("batch_id", batch.ID.String()),
				zap.String("batch_number", batch.BatchNumber),
				zap.Error(err),
			)
			stats.Failed++
			continue
		}
		stats.Expired++
	}

	s.logger.Info("Completed batch expiration sweep",
		zap.Int("candidates", stats.TotalCandidates),
		zap.Int("expired", stats.Expired),
		zap.Int("failed", stats.Failed),
	)

	return stats, nil
}

func (s *BatchExpirationService) expireBatch(ctx context.Context, batchID uuid.UUID, now time.Time) error {
	var materialID uuid.UUID
	var writtenOffCost decimal.Decimal
	expired := false

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Re-read inside the transaction: a concurrent deduction may have
		// depleted the batch since the candidate scan
		batch, err := repos.BatchRepo().FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != domaininv.BatchStatusActive {
			s.logger.Debug("Batch no longer active, skipping expiration",
				zap.String("batch_id", batch.ID.String()),
				zap.String("status", batch.Status.String()),
			)
			return nil
		}

		material, err := repos.MaterialRepo().FindByID(ctx, batch.MaterialID)
		if err != nil {
			return err
		}

		writtenOff := batch.RemainingQuantity
		if err := batch.MarkExpired(now); err != nil {
			return err
		}
		if err := repos.BatchRepo().Update(ctx, batch); err != nil {
			return err
		}

		previousStock := material.CurrentStock
		if err := material.ApplyStockDelta(writtenOff.Neg()); err != nil {
			return err
		}

		movement, err := domaininv.NewMovement(batch.MaterialID, domaininv.MovementTypeSpoilage,
			writtenOff.Neg(), previousStock, material.CurrentStock, writtenOff.Mul(batch.CostPerUnit).Neg())
		if err != nil {
			return err
		}
		movement.WithBatch(batch.ID, batch.BatchNumber).
			WithReason("batch expired")
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}

		// Aggregate update is the last write in the transaction
		if err := repos.MaterialRepo().Update(ctx, material); err != nil {
			return err
		}

		materialID = batch.MaterialID
		writtenOffCost = writtenOff.Mul(batch.CostPerUnit)
		expired = true
		return nil
	})
	if err == nil && expired && s.recorder != nil {
		s.recorder.RecordSpoilage(ctx, materialID.String(), writtenOffCost)
	}
	return err
}
