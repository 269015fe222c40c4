// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInventoryMetricsProvider implements InventoryMetricsProvider using GORM.
// It queries the stock_batches and raw_materials tables directly for
// aggregated metrics.
type GormInventoryMetricsProvider struct {
	db *gorm.DB
}

// NewGormInventoryMetricsProvider creates a new GormInventoryMetricsProvider.
func NewGormInventoryMetricsProvider(db *gorm.DB) *GormInventoryMetricsProvider {
	return &GormInventoryMetricsProvider{db: db}
}

// GetBatchCountsByStatus returns the number of stock batches per lifecycle status.
func (p *GormInventoryMetricsProvider) GetBatchCountsByStatus(ctx context.Context) (map[string]int64, error) {
	type result struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:count"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("stock_batches").
		Select("status, COUNT(*) as count").
		Group("status").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[string]int64, len(results))
	for _, r := range results {
		m[r.Status] = r.Count
	}

	return m, nil
}

// GetTotalRemainingValue returns the cost value of all remaining active stock.
func (p *GormInventoryMetricsProvider) GetTotalRemainingValue(ctx context.Context) (decimal.Decimal, error) {
	var value decimal.Decimal
	err := p.db.WithContext(ctx).
		Table("stock_batches").
		Select("COALESCE(SUM(remaining_quantity * cost_per_unit), 0)").
		Where("status = ?", "ACTIVE").
		Scan(&value).Error

	return value, err
}

// GetLowStockCount returns count of materials at or below their reorder point.
func (p *GormInventoryMetricsProvider) GetLowStockCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("raw_materials").
		Where("deleted_at IS NULL").
		Where("reorder_point > 0 AND current_stock <= reorder_point").
		Count(&count).Error

	return count, err
}
