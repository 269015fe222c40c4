package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/venueos/backend/internal/domain/inventory"
	"github.com/venueos/backend/internal/domain/shared"
	"github.com/venueos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRawMaterialRepository implements RawMaterialRepository using GORM
type GormRawMaterialRepository struct {
	db *gorm.DB
}

// NewGormRawMaterialRepository creates a new GormRawMaterialRepository
func NewGormRawMaterialRepository(db *gorm.DB) *GormRawMaterialRepository {
	return &GormRawMaterialRepository{db: db}
}

// Create persists a new material
func (r *GormRawMaterialRepository) Create(ctx context.Context, material *inventory.RawMaterial) error {
	model := models.RawMaterialModelFromDomain(material)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// FindByID finds a material by its ID
func (r *GormRawMaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.RawMaterial, error) {
	var model models.RawMaterialModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists materials with pagination
func (r *GormRawMaterialRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*inventory.RawMaterial, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RawMaterialModel{})
	if filter.Search != "" {
		query = query.Where("name ILIKE ? OR sku ILIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	orderField := ValidateSortField(filter.OrderBy, RawMaterialSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var rows []models.RawMaterialModel
	if err := query.
		Order(orderField + " " + orderDir).
		Limit(filter.Limit()).
		Offset(filter.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}

	materials := make([]*inventory.RawMaterial, len(rows))
	for i := range rows {
		materials[i] = rows[i].ToDomain()
	}
	return materials, total, nil
}

// Update persists changes to a material
func (r *GormRawMaterialRepository) Update(ctx context.Context, material *inventory.RawMaterial) error {
	model := models.RawMaterialModelFromDomain(material)
	result := r.db.WithContext(ctx).Model(&models.RawMaterialModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"current_stock": model.CurrentStock,
			"cost_per_unit": model.CostPerUnit,
			"reorder_point": model.ReorderPoint,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SoftDelete marks a material as no longer tracked
func (r *GormRawMaterialRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.RawMaterialModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure interface compliance
var _ inventory.RawMaterialRepository = (*GormRawMaterialRepository)(nil)
