package repositories

import (
	"context"

	"aidledger/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// GormDonationRepository handles donation ledger data access
type GormDonationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a new donation repository
func NewDonationRepository(db *gorm.DB) *GormDonationRepository {
	return &GormDonationRepository{db: db}
}

// Create appends a donation row
func (r *GormDonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	return r.db.WithContext(ctx).Create(donation).Error
}

// ListByZone lists donations recorded against a zone, newest first
func (r *GormDonationRepository) ListByZone(ctx context.Context, zoneID uint, offset, limit int) ([]*models.Donation, int64, error) {
	var donations []*models.Donation
	var total int64

	r.db.WithContext(ctx).Model(&models.Donation{}).Where("zone_id = ?", zoneID).Count(&total)

	err := r.db.WithContext(ctx).
		Where("zone_id = ?", zoneID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&donations).Error

	return donations, total, err
}
