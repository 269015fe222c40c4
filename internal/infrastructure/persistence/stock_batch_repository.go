package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venueos/backend/internal/domain/inventory"
	"github.com/venueos/backend/internal/domain/shared"
	"github.com/venueos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockBatchRepository implements StockBatchRepository using GORM
type GormStockBatchRepository struct {
	db *gorm.DB
}

// NewGormStockBatchRepository creates a new GormStockBatchRepository
func NewGormStockBatchRepository(db *gorm.DB) *GormStockBatchRepository {
	return &GormStockBatchRepository{db: db}
}

// Create persists a new batch
func (r *GormStockBatchRepository) Create(ctx context.Context, batch *inventory.StockBatch) error {
	model := models.StockBatchModelFromDomain(batch)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// FindByID finds a batch by its ID
func (r *GormStockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	var model models.StockBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindActiveByMaterial returns the FIFO candidate set without locking.
// Ordering is received_date then created_at so equal receipt dates resolve
// deterministically by insertion order.
func (r *GormStockBatchRepository) FindActiveByMaterial(ctx context.Context, materialID uuid.UUID) ([]*inventory.StockBatch, error) {
	return r.findActive(ctx, r.db.WithContext(ctx), materialID)
}

// FindActiveByMaterialForUpdate returns the FIFO candidate set under
// SELECT ... FOR UPDATE NOWAIT. If any candidate row is held by a concurrent
// transaction the query fails immediately and surfaces ErrLockContention;
// callers retry with their own backoff instead of queuing on the row lock.
func (r *GormStockBatchRepository) FindActiveByMaterialForUpdate(ctx context.Context, materialID uuid.UUID) ([]*inventory.StockBatch, error) {
	locked := r.db.WithContext(ctx).Clauses(clause.Locking{
		Strength: clause.LockingStrengthUpdate,
		Options:  clause.LockingOptionsNoWait,
	})
	return r.findActive(ctx, locked, materialID)
}

func (r *GormStockBatchRepository) findActive(ctx context.Context, tx *gorm.DB, materialID uuid.UUID) ([]*inventory.StockBatch, error) {
	var rows []models.StockBatchModel
	if err := tx.
		Where("material_id = ? AND status = ? AND remaining_quantity > 0", materialID, inventory.BatchStatusActive).
		Order("received_date ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	batches := make([]*inventory.StockBatch, len(rows))
	for i := range rows {
		batches[i] = rows[i].ToDomain()
	}
	return batches, nil
}

// CountByMaterialAndDay counts batches received for a material on one
// calendar day, terminal states included. The count feeds the daily batch
// number sequence, so it must run inside the same transaction that inserts
// the new batch.
func (r *GormStockBatchRepository) CountByMaterialAndDay(ctx context.Context, materialID uuid.UUID, day time.Time) (int64, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StockBatchModel{}).
		Where("material_id = ? AND received_date >= ? AND received_date < ?", materialID, dayStart, dayEnd).
		Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// FindExpirationCandidates returns ACTIVE batches whose expiration date has
// passed, regardless of remaining quantity
func (r *GormStockBatchRepository) FindExpirationCandidates(ctx context.Context, now time.Time, limit int) ([]*inventory.StockBatch, error) {
	var rows []models.StockBatchModel
	query := r.db.WithContext(ctx).
		Where("status = ?", inventory.BatchStatusActive).
		Where("expiration_date IS NOT NULL AND expiration_date <= ?", now).
		Order("expiration_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	batches := make([]*inventory.StockBatch, len(rows))
	for i := range rows {
		batches[i] = rows[i].ToDomain()
	}
	return batches, nil
}

// Update persists the mutable slice of a batch: remaining quantity, status
// and the lifecycle annotations. Receipt-time fields never change.
func (r *GormStockBatchRepository) Update(ctx context.Context, batch *inventory.StockBatch) error {
	model := models.StockBatchModelFromDomain(batch)
	result := r.db.WithContext(ctx).Model(&models.StockBatchModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"remaining_quantity": model.RemainingQuantity,
			"status":             model.Status,
			"depleted_at":        model.DepletedAt,
			"quarantine_reason":  model.QuarantineReason,
			"updated_at":         model.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// batchStatusCount is a scan target for the statistics query
type batchStatusCount struct {
	Status inventory.BatchStatus
	Count  int64
}

// GetStatistics returns per-status counts and the remaining value held in
// ACTIVE batches, optionally scoped to one material
func (r *GormStockBatchRepository) GetStatistics(ctx context.Context, materialID *uuid.UUID) (*inventory.BatchStatistics, error) {
	scope := func(q *gorm.DB) *gorm.DB {
		if materialID != nil {
			return q.Where("material_id = ?", *materialID)
		}
		return q
	}

	var counts []batchStatusCount
	if err := scope(r.db.WithContext(ctx).Model(&models.StockBatchModel{})).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, translateError(err)
	}

	stats := &inventory.BatchStatistics{
		CountsByStatus:      make(map[inventory.BatchStatus]int64, len(counts)),
		TotalRemainingValue: decimal.Zero,
	}
	for _, status := range inventory.AllBatchStatuses() {
		stats.CountsByStatus[status] = 0
	}
	for _, c := range counts {
		stats.CountsByStatus[c.Status] = c.Count
	}

	var totalValue decimal.Decimal
	if err := scope(r.db.WithContext(ctx).Model(&models.StockBatchModel{})).
		Where("status = ?", inventory.BatchStatusActive).
		Select("COALESCE(SUM(remaining_quantity * cost_per_unit), 0)").
		Scan(&totalValue).Error; err != nil {
		return nil, translateError(err)
	}
	stats.TotalRemainingValue = totalValue

	return stats, nil
}

// Ensure interface compliance
var _ inventory.StockBatchRepository = (*GormStockBatchRepository)(nil)
