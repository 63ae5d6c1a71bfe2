package repositories

import (
	"context"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/core/domain"

	"gorm.io/gorm"
)

// GormVoucherRepository handles voucher data access
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository creates a new voucher repository
func NewVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// Create creates a new voucher
func (r *GormVoucherRepository) Create(ctx context.Context, voucher *models.Voucher) error {
	return r.db.WithContext(ctx).Create(voucher).Error
}

// GetByID gets a voucher by ID
func (r *GormVoucherRepository) GetByID(ctx context.Context, id uint) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).First(&voucher, id).Error
	if err != nil {
		return nil, err
	}
	return &voucher, nil
}

// GetByCode gets a voucher by its presentation code
func (r *GormVoucherRepository) GetByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&voucher).Error
	if err != nil {
		return nil, err
	}
	return &voucher, nil
}

// Update writes a voucher with an optimistic version check, as zone Update does
func (r *GormVoucherRepository) Update(ctx context.Context, voucher *models.Voucher) error {
	res := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("id = ? AND version = ?", voucher.ID, voucher.Version).
		Updates(map[string]interface{}{
			"remaining_balance": voucher.RemainingBalance,
			"status":            voucher.Status,
			"version":           voucher.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleAggregate
	}
	voucher.Version++
	return nil
}

// List lists vouchers with pagination, filtered by zone and/or beneficiary
func (r *GormVoucherRepository) List(ctx context.Context, zoneID uint, beneficiaryRef string, offset, limit int) ([]*models.Voucher, int64, error) {
	var vouchers []*models.Voucher
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Voucher{})
	if zoneID != 0 {
		query = query.Where("zone_id = ?", zoneID)
	}
	if beneficiaryRef != "" {
		query = query.Where("beneficiary_ref = ?", beneficiaryRef)
	}
	query.Count(&total)

	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&vouchers).Error

	return vouchers, total, err
}
