package repositories

import (
	"context"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/core/domain"

	"gorm.io/gorm"
)

// GormZoneRepository handles disaster zone data access
type GormZoneRepository struct {
	db *gorm.DB
}

// NewZoneRepository creates a new zone repository
func NewZoneRepository(db *gorm.DB) *GormZoneRepository {
	return &GormZoneRepository{db: db}
}

// Create creates a new zone
func (r *GormZoneRepository) Create(ctx context.Context, zone *models.DisasterZone) error {
	return r.db.WithContext(ctx).Create(zone).Error
}

// GetByID gets a zone by ID
func (r *GormZoneRepository) GetByID(ctx context.Context, id uint) (*models.DisasterZone, error) {
	var zone models.DisasterZone
	err := r.db.WithContext(ctx).First(&zone, id).Error
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

// Update writes a zone with an optimistic version check. The matched row must
// still carry the version the caller loaded; otherwise ErrStaleAggregate.
func (r *GormZoneRepository) Update(ctx context.Context, zone *models.DisasterZone) error {
	res := r.db.WithContext(ctx).
		Model(&models.DisasterZone{}).
		Where("id = ? AND version = ?", zone.ID, zone.Version).
		Updates(map[string]interface{}{
			"name":             zone.Name,
			"status":           zone.Status,
			"budget_allocated": zone.BudgetAllocated,
			"budget_used":      zone.BudgetUsed,
			"donation_total":   zone.DonationTotal,
			"issued_total":     zone.IssuedTotal,
			"resolved_at":      zone.ResolvedAt,
			"version":          zone.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleAggregate
	}
	zone.Version++
	return nil
}

// List lists zones with pagination, optionally filtered by status
func (r *GormZoneRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.DisasterZone, int64, error) {
	var zones []*models.DisasterZone
	var total int64

	query := r.db.WithContext(ctx).Model(&models.DisasterZone{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Count(&total)

	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&zones).Error

	return zones, total, err
}
