package repositories

import (
	"context"
	"errors"

	"aidledger/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// GormRedemptionRepository handles redemption transaction data access
type GormRedemptionRepository struct {
	db *gorm.DB
}

// NewRedemptionRepository creates a new redemption repository
func NewRedemptionRepository(db *gorm.DB) *GormRedemptionRepository {
	return &GormRedemptionRepository{db: db}
}

// Create creates a new redemption transaction
func (r *GormRedemptionRepository) Create(ctx context.Context, tx *models.RedemptionTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetByID gets a transaction by ID
func (r *GormRedemptionRepository) GetByID(ctx context.Context, id uint) (*models.RedemptionTransaction, error) {
	var tx models.RedemptionTransaction
	err := r.db.WithContext(ctx).First(&tx, id).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetByIdempotencyKey looks up a vendor's prior submission. Returns (nil, nil)
// when the key has never been seen, so callers can distinguish replay from miss.
func (r *GormRedemptionRepository) GetByIdempotencyKey(ctx context.Context, vendorRef, key string) (*models.RedemptionTransaction, error) {
	var tx models.RedemptionTransaction
	err := r.db.WithContext(ctx).
		Where("vendor_ref = ? AND idempotency_key = ?", vendorRef, key).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// ListByVoucher lists transactions against a voucher, newest first
func (r *GormRedemptionRepository) ListByVoucher(ctx context.Context, voucherID uint) ([]*models.RedemptionTransaction, error) {
	var txs []*models.RedemptionTransaction
	err := r.db.WithContext(ctx).
		Where("voucher_id = ?", voucherID).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}

// ListByVendor lists a vendor's transactions with pagination
func (r *GormRedemptionRepository) ListByVendor(ctx context.Context, vendorRef string, offset, limit int) ([]*models.RedemptionTransaction, int64, error) {
	var txs []*models.RedemptionTransaction
	var total int64

	r.db.WithContext(ctx).Model(&models.RedemptionTransaction{}).
		Where("vendor_ref = ?", vendorRef).Count(&total)

	err := r.db.WithContext(ctx).
		Where("vendor_ref = ?", vendorRef).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error

	return txs, total, err
}

// VerifiedTotalsByVendor sums COMPLETED redemptions whose proof is VERIFIED,
// grouped by vendor. zoneID of 0 means all zones.
func (r *GormRedemptionRepository) VerifiedTotalsByVendor(ctx context.Context, zoneID uint) (map[string]int64, error) {
	type row struct {
		VendorRef string
		Total     int64
	}
	var rows []row

	query := r.db.WithContext(ctx).
		Model(&models.RedemptionTransaction{}).
		Select("redemption_transactions.vendor_ref AS vendor_ref, SUM(redemption_transactions.amount) AS total").
		Joins("JOIN proofs_of_aid ON proofs_of_aid.transaction_id = redemption_transactions.id").
		Where("redemption_transactions.status = ?", "COMPLETED").
		Where("proofs_of_aid.status = ?", "VERIFIED").
		Group("redemption_transactions.vendor_ref")

	if zoneID != 0 {
		query = query.
			Joins("JOIN vouchers ON vouchers.id = redemption_transactions.voucher_id").
			Where("vouchers.zone_id = ?", zoneID)
	}

	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[string]int64, len(rows))
	for _, r := range rows {
		totals[r.VendorRef] = r.Total
	}
	return totals, nil
}
