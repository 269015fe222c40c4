package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venueos/backend/internal/domain/inventory"
	"github.com/venueos/backend/internal/domain/shared"
	"github.com/venueos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMovementRepository implements MovementRepository using GORM.
// The ledger is append-only: there is deliberately no update or delete.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create appends a movement
func (r *GormMovementRepository) Create(ctx context.Context, movement *inventory.RawMaterialMovement) error {
	model := models.RawMaterialMovementModelFromDomain(movement)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// FindByMaterial lists movements for a material, newest first
func (r *GormMovementRepository) FindByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]*inventory.RawMaterialMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RawMaterialMovementModel{}).
		Where("material_id = ?", materialID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	orderField := ValidateSortField(filter.OrderBy, MovementSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var rows []models.RawMaterialMovementModel
	if err := query.
		Order(orderField + " " + orderDir).
		Limit(filter.Limit()).
		Offset(filter.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}

	movements := make([]*inventory.RawMaterialMovement, len(rows))
	for i := range rows {
		movements[i] = rows[i].ToDomain()
	}
	return movements, total, nil
}

// FindByBatch lists movements that touched a batch, oldest first
func (r *GormMovementRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*inventory.RawMaterialMovement, error) {
	var rows []models.RawMaterialMovementModel
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	movements := make([]*inventory.RawMaterialMovement, len(rows))
	for i := range rows {
		movements[i] = rows[i].ToDomain()
	}
	return movements, nil
}

// SumQuantityByMaterial returns the signed sum of all movement quantities
// for a material, for reconciling the ledger against the aggregate stock
func (r *GormMovementRepository) SumQuantityByMaterial(ctx context.Context, materialID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.db.WithContext(ctx).Model(&models.RawMaterialMovementModel{}).
		Where("material_id = ?", materialID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error; err != nil {
		return decimal.Zero, translateError(err)
	}
	return sum, nil
}

// Ensure interface compliance
var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
