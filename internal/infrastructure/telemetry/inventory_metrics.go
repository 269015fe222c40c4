// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// InventoryMetrics tracks stock movement activity and batch health.
// Counters are recorded by the application layer as operations happen;
// gauges are refreshed periodically from the database.
type InventoryMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	deductionTotal    *Counter
	receiptTotal      *Counter
	spoilageCostTotal *Counter

	// Gauge metrics (point-in-time values)
	batchCountByStatus  *Gauge
	lowStockCount       *Gauge
	remainingStockValue *FloatGauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	provider InventoryMetricsProvider
}

// InventoryMetricsProvider provides batch and material data for periodic
// metrics collection. This interface allows the telemetry layer to query
// inventory state without depending on the inventory domain directly.
type InventoryMetricsProvider interface {
	// GetBatchCountsByStatus returns the number of stock batches per lifecycle status
	GetBatchCountsByStatus(ctx context.Context) (map[string]int64, error)

	// GetTotalRemainingValue returns the cost value of all remaining active stock
	GetTotalRemainingValue(ctx context.Context) (decimal.Decimal, error)

	// GetLowStockCount returns count of materials at or below their reorder point
	GetLowStockCount(ctx context.Context) (int64, error)
}

// InventoryMetricsConfig holds configuration for inventory metrics.
type InventoryMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	Provider        InventoryMetricsProvider
}

// NewInventoryMetrics creates a new InventoryMetrics instance.
func NewInventoryMetrics(cfg InventoryMetricsConfig) (*InventoryMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	im := &InventoryMetrics{
		meter:    cfg.Meter,
		logger:   logger,
		stopChan: make(chan struct{}),
		provider: cfg.Provider,
	}

	var err error

	im.deductionTotal, err = NewCounter(
		cfg.Meter,
		"inventory_deduction_total",
		"Total number of stock deduction requests processed",
		"{deductions}",
	)
	if err != nil {
		return nil, err
	}

	im.receiptTotal, err = NewCounter(
		cfg.Meter,
		"inventory_receipt_total",
		"Total number of stock batches received",
		"{batches}",
	)
	if err != nil {
		return nil, err
	}

	im.spoilageCostTotal, err = NewCounter(
		cfg.Meter,
		"inventory_spoilage_cost_total",
		"Total cost written off to expired batches, in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	im.batchCountByStatus, err = NewGauge(
		cfg.Meter,
		"inventory_batch_count",
		"Number of stock batches per lifecycle status",
		"{batches}",
	)
	if err != nil {
		return nil, err
	}

	im.lowStockCount, err = NewGauge(
		cfg.Meter,
		"inventory_low_stock_count",
		"Number of materials at or below their reorder point",
		"{materials}",
	)
	if err != nil {
		return nil, err
	}

	im.remainingStockValue, err = NewFloatGauge(
		cfg.Meter,
		"inventory_remaining_stock_value",
		"Cost value of all remaining active stock",
		"{currency}",
	)
	if err != nil {
		return nil, err
	}

	return im, nil
}

// =============================================================================
// Movement Counters
// =============================================================================

// Outcome labels recorded on the deduction counter.
const (
	DeductionOutcomeSuccess      = "success"
	DeductionOutcomeInsufficient = "insufficient_stock"
	DeductionOutcomeContention   = "lock_contention"
	DeductionOutcomeError        = "error"
)

// RecordDeduction records a processed stock deduction request.
// This should be called from the application layer after each attempt.
func (im *InventoryMetrics) RecordDeduction(ctx context.Context, movementType, outcome string) {
	im.deductionTotal.Inc(ctx,
		AttrMovementType.String(movementType),
		AttrDeductionOutcome.String(outcome),
	)
}

// RecordReceipt records a received stock batch.
func (im *InventoryMetrics) RecordReceipt(ctx context.Context, materialID string) {
	im.receiptTotal.Inc(ctx,
		AttrMaterialID.String(materialID),
	)
}

// RecordSpoilage records cost written off when a batch expires.
// Cost is recorded in the smallest currency unit to keep the counter integral.
func (im *InventoryMetrics) RecordSpoilage(ctx context.Context, materialID string, cost decimal.Decimal) {
	cents := cost.Abs().Mul(decimal.NewFromInt(100)).IntPart()
	im.spoilageCostTotal.Add(ctx, cents,
		AttrMaterialID.String(materialID),
	)
}

// =============================================================================
// Batch Health Gauges
// =============================================================================

// RecordBatchCount records the current batch count for a lifecycle status.
func (im *InventoryMetrics) RecordBatchCount(ctx context.Context, status string, count int64) {
	im.batchCountByStatus.Record(ctx, count,
		AttrBatchStatus.String(status),
	)
}

// RecordLowStockCount records the number of materials at or below reorder point.
func (im *InventoryMetrics) RecordLowStockCount(ctx context.Context, count int64) {
	im.lowStockCount.Record(ctx, count)
}

// RecordRemainingValue records the cost value of remaining active stock.
func (im *InventoryMetrics) RecordRemainingValue(ctx context.Context, value decimal.Decimal) {
	f, _ := value.Float64()
	im.remainingStockValue.Record(ctx, f)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It refreshes batch health gauges every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (im *InventoryMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	im.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go im.runPeriodicCollection(ctx, interval)
	})
}

func (im *InventoryMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	im.collectBatchHealthMetrics(ctx)

	for {
		select {
		case <-im.stopChan:
			im.logger.Info("Stopping periodic inventory metrics collection")
			return
		case <-ctx.Done():
			im.logger.Info("Context cancelled, stopping periodic inventory metrics collection")
			return
		case <-ticker.C:
			im.collectBatchHealthMetrics(ctx)
		}
	}
}

func (im *InventoryMetrics) collectBatchHealthMetrics(ctx context.Context) {
	if im.provider == nil {
		im.logger.Debug("No inventory provider configured, skipping gauge collection")
		return
	}

	counts, err := im.provider.GetBatchCountsByStatus(ctx)
	if err != nil {
		im.logger.Warn("Failed to get batch counts by status", zap.Error(err))
	} else {
		for status, count := range counts {
			im.RecordBatchCount(ctx, status, count)
		}
	}

	value, err := im.provider.GetTotalRemainingValue(ctx)
	if err != nil {
		im.logger.Warn("Failed to get remaining stock value", zap.Error(err))
	} else {
		im.RecordRemainingValue(ctx, value)
	}

	lowStock, err := im.provider.GetLowStockCount(ctx)
	if err != nil {
		im.logger.Warn("Failed to get low stock count", zap.Error(err))
	} else {
		im.RecordLowStockCount(ctx, lowStock)
	}
}

// Stop stops the periodic collection.
func (im *InventoryMetrics) Stop() {
	im.stopOnce.Do(func() {
		close(im.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewInventoryMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
