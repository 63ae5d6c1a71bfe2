package repositories

import (
	"context"
	"time"

	"aidledger/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// ZoneRepository defines disaster zone repository interface.
// Update is optimistic: it matches on the stored version and returns
// domain.ErrStaleAggregate when another writer got there first.
type ZoneRepository interface {
	Create(ctx context.Context, zone *models.DisasterZone) error
	GetByID(ctx context.Context, id uint) (*models.DisasterZone, error)
	Update(ctx context.Context, zone *models.DisasterZone) error
	List(ctx context.Context, status string, offset, limit int) ([]*models.DisasterZone, int64, error)
}

// DonationRepository defines donation ledger repository interface.
// Donations are append-only; there is no update or delete.
type DonationRepository interface {
	Create(ctx context.Context, donation *models.Donation) error
	ListByZone(ctx context.Context, zoneID uint, offset, limit int) ([]*models.Donation, int64, error)
}

// VoucherRepository defines voucher repository interface.
// Update is optimistic, same contract as ZoneRepository.Update.
type VoucherRepository interface {
	Create(ctx context.Context, voucher *models.Voucher) error
	GetByID(ctx context.Context, id uint) (*models.Voucher, error)
	GetByCode(ctx context.Context, code string) (*models.Voucher, error)
	Update(ctx context.Context, voucher *models.Voucher) error
	List(ctx context.Context, zoneID uint, beneficiaryRef string, offset, limit int) ([]*models.Voucher, int64, error)
}

// RedemptionRepository defines redemption transaction repository interface.
// GetByIdempotencyKey returns (nil, nil) when no transaction exists for the key.
type RedemptionRepository interface {
	Create(ctx context.Context, tx *models.RedemptionTransaction) error
	GetByID(ctx context.Context, id uint) (*models.RedemptionTransaction, error)
	GetByIdempotencyKey(ctx context.Context, vendorRef, key string) (*models.RedemptionTransaction, error)
	ListByVoucher(ctx context.Context, voucherID uint) ([]*models.RedemptionTransaction, error)
	ListByVendor(ctx context.Context, vendorRef string, offset, limit int) ([]*models.RedemptionTransaction, int64, error)
	// VerifiedTotalsByVendor sums COMPLETED redemption amounts whose proof reached
	// VERIFIED, grouped by vendor. zoneID of 0 means all zones.
	VerifiedTotalsByVendor(ctx context.Context, zoneID uint) (map[string]int64, error)
}

// ProofRepository defines proof-of-aid repository interface.
// GetByTransactionID returns (nil, nil) when the transaction has no proof yet.
type ProofRepository interface {
	Create(ctx context.Context, proof *models.ProofOfAid) error
	GetByID(ctx context.Context, id uint) (*models.ProofOfAid, error)
	GetByTransactionID(ctx context.Context, transactionID uint) (*models.ProofOfAid, error)
	Update(ctx context.Context, proof *models.ProofOfAid) error
	// ListStale returns proofs still SUBMITTED with submitted_at before cutoff.
	ListStale(ctx context.Context, cutoff time.Time) ([]*models.ProofOfAid, error)
	MarkStaleReported(ctx context.Context, ids []uint) error
}

// VerificationRepository defines verification record repository interface.
// Upsert replaces the caller role's own prior record for the proof, never another role's.
type VerificationRepository interface {
	Upsert(ctx context.Context, record *models.VerificationRecord) error
	ListByProof(ctx context.Context, proofID uint) ([]*models.VerificationRecord, error)
}

// BulkPayoutRepository defines bulk payout repository interface.
// CreateWithItems persists the batch and all rows in one transaction.
type BulkPayoutRepository interface {
	CreateWithItems(ctx context.Context, payout *models.BulkPayout, items []*models.BulkPayoutItem) error
	GetByID(ctx context.Context, id uint) (*models.BulkPayout, error)
	// PaidTotalsByVendor sums committed payout amounts per vendor. zoneID of 0 means all zones.
	PaidTotalsByVendor(ctx context.Context, zoneID uint) (map[string]int64, error)
}

// AuditLogRepository defines audit trail repository interface
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, action string, offset, limit int) ([]*models.AuditLog, int64, error)
}
