package repositories

import (
	"context"

	"aidledger/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// GormBulkPayoutRepository handles bulk payout data access
type GormBulkPayoutRepository struct {
	db *gorm.DB
}

// NewBulkPayoutRepository creates a new bulk payout repository
func NewBulkPayoutRepository(db *gorm.DB) *GormBulkPayoutRepository {
	return &GormBulkPayoutRepository{db: db}
}

// CreateWithItems persists the batch header and every row in one transaction.
// Either the whole batch lands or none of it does.
func (r *GormBulkPayoutRepository) CreateWithItems(ctx context.Context, payout *models.BulkPayout, items []*models.BulkPayoutItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payout).Error; err != nil {
			return err
		}
		for _, item := range items {
			item.BulkPayoutID = payout.ID
			if err := tx.Create(item).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID gets a payout batch with its rows
func (r *GormBulkPayoutRepository) GetByID(ctx context.Context, id uint) (*models.BulkPayout, error) {
	var payout models.BulkPayout
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&payout, id).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// PaidTotalsByVendor sums committed payout amounts per vendor. zoneID of 0 means all zones.
func (r *GormBulkPayoutRepository) PaidTotalsByVendor(ctx context.Context, zoneID uint) (map[string]int64, error) {
	type row struct {
		VendorRef string
		Total     int64
	}
	var rows []row

	query := r.db.WithContext(ctx).
		Model(&models.BulkPayoutItem{}).
		Select("bulk_payout_items.vendor_ref AS vendor_ref, SUM(bulk_payout_items.amount) AS total").
		Joins("JOIN bulk_payouts ON bulk_payouts.id = bulk_payout_items.bulk_payout_id").
		Group("bulk_payout_items.vendor_ref")

	if zoneID != 0 {
		query = query.Where("bulk_payouts.zone_id = ?", zoneID)
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

// GormAuditLogRepository handles audit trail data access
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create appends an audit entry
func (r *GormAuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List lists audit entries, optionally filtered by action, newest first
func (r *GormAuditLogRepository) List(ctx context.Context, action string, offset, limit int) ([]*models.AuditLog, int64, error) {
	var entries []*models.AuditLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if action != "" {
		query = query.Where("action = ?", action)
	}
	query.Count(&total)

	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error

	return entries, total, err
}
