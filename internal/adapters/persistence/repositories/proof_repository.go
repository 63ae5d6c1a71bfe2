package repositories

import (
	"context"
	"errors"
	"time"

	"aidledger/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProofRepository handles proof-of-aid data access
type GormProofRepository struct {
	db *gorm.DB
}

// NewProofRepository creates a new proof repository
func NewProofRepository(db *gorm.DB) *GormProofRepository {
	return &GormProofRepository{db: db}
}

// Create creates a new proof
func (r *GormProofRepository) Create(ctx context.Context, proof *models.ProofOfAid) error {
	return r.db.WithContext(ctx).Create(proof).Error
}

// GetByID gets a proof by ID
func (r *GormProofRepository) GetByID(ctx context.Context, id uint) (*models.ProofOfAid, error) {
	var proof models.ProofOfAid
	err := r.db.WithContext(ctx).First(&proof, id).Error
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

// GetByTransactionID gets the proof linked to a transaction. Returns (nil, nil)
// when the transaction has no proof yet.
func (r *GormProofRepository) GetByTransactionID(ctx context.Context, transactionID uint) (*models.ProofOfAid, error) {
	var proof models.ProofOfAid
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&proof).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &proof, nil
}

// Update updates a proof
func (r *GormProofRepository) Update(ctx context.Context, proof *models.ProofOfAid) error {
	return r.db.WithContext(ctx).Save(proof).Error
}

// ListStale lists proofs still SUBMITTED past the SLA cutoff
func (r *GormProofRepository) ListStale(ctx context.Context, cutoff time.Time) ([]*models.ProofOfAid, error) {
	var proofs []*models.ProofOfAid
	err := r.db.WithContext(ctx).
		Where("status = ? AND submitted_at < ?", "SUBMITTED", cutoff).
		Order("submitted_at ASC").
		Find(&proofs).Error
	return proofs, err
}

// MarkStaleReported flags proofs already surfaced by the SLA scanner
func (r *GormProofRepository) MarkStaleReported(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ProofOfAid{}).
		Where("id IN ?", ids).
		Update("stale_reported", true).Error
}

// GormVerificationRepository handles verification record data access
type GormVerificationRepository struct {
	db *gorm.DB
}

// NewVerificationRepository creates a new verification repository
func NewVerificationRepository(db *gorm.DB) *GormVerificationRepository {
	return &GormVerificationRepository{db: db}
}

// Upsert inserts the record or, when the role already decided on this proof,
// replaces that role's own prior decision in place.
func (r *GormVerificationRepository) Upsert(ctx context.Context, record *models.VerificationRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "proof_id"}, {Name: "verifier_role"}},
			DoUpdates: clause.AssignmentColumns([]string{"verifier_id", "decision", "confidence", "updated_at"}),
		}).
		Create(record).Error
}

// ListByProof lists all verification records on a proof
func (r *GormVerificationRepository) ListByProof(ctx context.Context, proofID uint) ([]*models.VerificationRecord, error) {
	var records []*models.VerificationRecord
	err := r.db.WithContext(ctx).
		Where("proof_id = ?", proofID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}
