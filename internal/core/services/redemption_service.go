package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/adapters/persistence/repositories"
	"aidledger/internal/core/domain"
	"aidledger/internal/pkg/keylock"
)

// RedemptionService processes vendor claims against voucher balances.
// All compare-and-debit work on one voucher runs under that voucher's lock,
// so two concurrent redemptions can never jointly exceed the balance.
type RedemptionService struct {
	redemptionRepo repositories.RedemptionRepository
	voucherRepo    repositories.VoucherRepository
	voucherLocks   *keylock.KeyLock
	auditor        *Auditor

	// now is swappable for expiry tests
	now func() time.Time
}

// NewRedemptionService creates a new redemption service. voucherLocks must be
// the same table the voucher service revokes under.
func NewRedemptionService(
	redemptionRepo repositories.RedemptionRepository,
	voucherRepo repositories.VoucherRepository,
	voucherLocks *keylock.KeyLock,
	auditor *Auditor,
) *RedemptionService {
	return &RedemptionService{
		redemptionRepo: redemptionRepo,
		voucherRepo:    voucherRepo,
		voucherLocks:   voucherLocks,
		auditor:        auditor,
		now:            time.Now,
	}
}

// RedeemInput represents a vendor redemption request
type RedeemInput struct {
	VoucherID      uint   `json:"voucher_id" validate:"required"`
	VendorRef      string `json:"vendor_ref" validate:"required"`
	Amount         int64  `json:"amount" validate:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
}

// Redeem debits the voucher and records the transaction. Settlement is assumed
// synchronous, so a successful debit lands as COMPLETED. An insufficient
// balance lands as FAILED and is reported distinctly from validation errors so
// the vendor knows a retry with a smaller amount can succeed.
//
// Replaying the same (vendor, idempotency key) returns the original transaction
// without touching the voucher again.
func (s *RedemptionService) Redeem(ctx context.Context, input *RedeemInput, actor Actor) (*models.RedemptionTransaction, error) {
	if input.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if strings.TrimSpace(input.VendorRef) == "" || strings.TrimSpace(input.IdempotencyKey) == "" {
		return nil, domain.ErrInvalidInput
	}

	key := voucherLockKey(input.VoucherID)
	s.voucherLocks.Lock(key)
	defer s.voucherLocks.Unlock(key)

	voucher, err := s.voucherRepo.GetByID(ctx, input.VoucherID)
	if err != nil {
		return nil, domain.ErrVoucherNotFound
	}

	// Lazy expiry: a voucher past its TTL is rejected regardless of balance,
	// and its status is updated on first contact.
	if s.now().After(voucher.ExpiresAt) && !voucher.IsTerminal() {
		voucher.Status = domain.VoucherStatusExpired
		if err := s.voucherRepo.Update(ctx, voucher); err != nil {
			return nil, err
		}
	}

	switch voucher.Status {
	case domain.VoucherStatusExpired:
		return nil, domain.ErrVoucherExpired
	case domain.VoucherStatusRevoked:
		return nil, domain.ErrVoucherRevoked
	case domain.VoucherStatusRedeemed:
		return nil, domain.ErrVoucherRedeemed
	}

	if !voucher.AllowsVendor(input.VendorRef) {
		return nil, domain.ErrVendorNotAuthorized
	}

	// Idempotent replay: return the original outcome unchanged, no re-debit
	existing, err := s.redemptionRepo.GetByIdempotencyKey(ctx, input.VendorRef, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if voucher.RemainingBalance < input.Amount {
		tx := &models.RedemptionTransaction{
			VoucherID:      voucher.ID,
			VendorRef:      input.VendorRef,
			Amount:         input.Amount,
			Status:         domain.RedemptionStatusFailed,
			IdempotencyKey: input.IdempotencyKey,
			FailReason:     "insufficient voucher balance",
		}
		if err := s.redemptionRepo.Create(ctx, tx); err != nil {
			return nil, err
		}
		return tx, domain.ErrInsufficientVoucherBalance
	}

	voucher.RemainingBalance -= input.Amount
	if voucher.RemainingBalance == 0 {
		voucher.Status = domain.VoucherStatusRedeemed
	} else {
		voucher.Status = domain.VoucherStatusPartiallyRedeemed
	}
	if err := s.voucherRepo.Update(ctx, voucher); err != nil {
		return nil, err
	}

	tx := &models.RedemptionTransaction{
		VoucherID:      voucher.ID,
		VendorRef:      input.VendorRef,
		Amount:         input.Amount,
		Status:         domain.RedemptionStatusCompleted,
		IdempotencyKey: input.IdempotencyKey,
	}
	if err := s.redemptionRepo.Create(ctx, tx); err != nil {
		// The debit already landed; surface the storage failure rather than
		// silently re-crediting a voucher a vendor may have already honored.
		return nil, err
	}

	s.auditor.Record(ctx, models.AuditRedemption, "redemption", tx.ID, &tx.Amount,
		fmt.Sprintf("voucher %d vendor %s", voucher.ID, input.VendorRef), actor)

	return tx, nil
}

// GetByID gets a redemption transaction by ID
func (s *RedemptionService) GetByID(ctx context.Context, id uint) (*models.RedemptionTransaction, error) {
	tx, err := s.redemptionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.ErrTransactionNotFound
	}
	return tx, nil
}

// ListByVoucher lists every transaction recorded against a voucher
func (s *RedemptionService) ListByVoucher(ctx context.Context, voucherID uint) ([]*models.RedemptionTransaction, error) {
	return s.redemptionRepo.ListByVoucher(ctx, voucherID)
}

// ListByVendor lists a vendor's transactions
func (s *RedemptionService) ListByVendor(ctx context.Context, vendorRef string, offset, limit int) ([]*models.RedemptionTransaction, int64, error) {
	return s.redemptionRepo.ListByVendor(ctx, vendorRef, offset, limit)
}
