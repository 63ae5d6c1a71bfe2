package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/adapters/persistence/repositories"
	"aidledger/internal/core/domain"
	"aidledger/internal/pkg/keylock"

	"github.com/google/uuid"
)

// DefaultVoucherTTL applies when issuance requests no explicit TTL
const DefaultVoucherTTL = 30 * 24 * time.Hour

// VoucherService handles voucher issuance and administrative revocation
type VoucherService struct {
	voucherRepo  repositories.VoucherRepository
	zoneRepo     repositories.ZoneRepository
	zoneLocks    *keylock.KeyLock
	voucherLocks *keylock.KeyLock
	auditor      *Auditor
}

// NewVoucherService creates a new voucher service. zoneLocks serializes the
// check-and-debit of the zone balance against concurrent issuance and donation
// recording on the same zone.
func NewVoucherService(
	voucherRepo repositories.VoucherRepository,
	zoneRepo repositories.ZoneRepository,
	zoneLocks *keylock.KeyLock,
	voucherLocks *keylock.KeyLock,
	auditor *Auditor,
) *VoucherService {
	return &VoucherService{
		voucherRepo:  voucherRepo,
		zoneRepo:     zoneRepo,
		zoneLocks:    zoneLocks,
		voucherLocks: voucherLocks,
		auditor:      auditor,
	}
}

// IssueVoucherInput represents issue voucher input
type IssueVoucherInput struct {
	ZoneID             uint     `json:"zone_id" validate:"required"`
	BeneficiaryRef     string   `json:"beneficiary_ref" validate:"required"`
	Amount             int64    `json:"amount" validate:"required,gt=0"`
	Category           string   `json:"category" validate:"required"`
	VendorRestrictions []string `json:"vendor_restrictions,omitempty"`
	TTLHours           int      `json:"ttl_hours,omitempty"`
}

// Issue mints a voucher against the zone's available balance. The balance check
// and the debit happen under the zone lock, so two concurrent issuances can
// never jointly overdraw the zone.
func (s *VoucherService) Issue(ctx context.Context, input *IssueVoucherInput, actor Actor) (*models.Voucher, error) {
	if input.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if strings.TrimSpace(input.BeneficiaryRef) == "" || strings.TrimSpace(input.Category) == "" {
		return nil, domain.ErrInvalidInput
	}

	ttl := DefaultVoucherTTL
	if input.TTLHours > 0 {
		ttl = time.Duration(input.TTLHours) * time.Hour
	}

	key := zoneLockKey(input.ZoneID)
	s.zoneLocks.Lock(key)
	defer s.zoneLocks.Unlock(key)

	zone, err := s.zoneRepo.GetByID(ctx, input.ZoneID)
	if err != nil {
		return nil, domain.ErrZoneNotFound
	}
	if zone.Status != domain.ZoneStatusActive {
		return nil, domain.ErrZoneNotActive
	}
	if zone.AvailableBalance() < input.Amount {
		return nil, domain.ErrInsufficientZoneBalance
	}

	zone.IssuedTotal += input.Amount
	if err := s.zoneRepo.Update(ctx, zone); err != nil {
		return nil, err
	}

	now := time.Now()
	voucher := &models.Voucher{
		Code:             uuid.NewString(),
		ZoneID:           zone.ID,
		BeneficiaryRef:   input.BeneficiaryRef,
		TotalAmount:      input.Amount,
		RemainingBalance: input.Amount,
		Category:         input.Category,
		Status:           domain.VoucherStatusActive,
		IssuedAt:         now,
		ExpiresAt:        now.Add(ttl),
	}
	voucher.SetRestrictions(input.VendorRestrictions)

	if err := s.voucherRepo.Create(ctx, voucher); err != nil {
		// Undo the zone debit so the failed mint does not strand balance
		zone.IssuedTotal -= input.Amount
		if undoErr := s.zoneRepo.Update(ctx, zone); undoErr != nil {
			log.Printf("⚠️ Zone %d issued total not rolled back after failed voucher create, reconcile manually: %v", zone.ID, undoErr)
		}
		return nil, err
	}

	s.auditor.Record(ctx, models.AuditVoucherIssue, "voucher", voucher.ID, &voucher.TotalAmount,
		fmt.Sprintf("zone %d beneficiary %s category %s", zone.ID, input.BeneficiaryRef, input.Category), actor)

	return voucher, nil
}

// Revoke puts a voucher in the terminal REVOKED state. No further redemptions
// are accepted; already-completed redemptions stay on the ledger.
func (s *VoucherService) Revoke(ctx context.Context, voucherID uint, actor Actor) (*models.Voucher, error) {
	key := voucherLockKey(voucherID)
	s.voucherLocks.Lock(key)
	defer s.voucherLocks.Unlock(key)

	voucher, err := s.voucherRepo.GetByID(ctx, voucherID)
	if err != nil {
		return nil, domain.ErrVoucherNotFound
	}
	if voucher.IsTerminal() {
		return nil, domain.ErrVoucherNotRevocable
	}

	voucher.Status = domain.VoucherStatusRevoked
	if err := s.voucherRepo.Update(ctx, voucher); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, models.AuditVoucherRevoke, "voucher", voucher.ID, nil, voucher.Code, actor)

	return voucher, nil
}

// GetByID gets a voucher by ID
func (s *VoucherService) GetByID(ctx context.Context, voucherID uint) (*models.Voucher, error) {
	voucher, err := s.voucherRepo.GetByID(ctx, voucherID)
	if err != nil {
		return nil, domain.ErrVoucherNotFound
	}
	return voucher, nil
}

// GetByCode gets a voucher by its presentation code
func (s *VoucherService) GetByCode(ctx context.Context, code string) (*models.Voucher, error) {
	voucher, err := s.voucherRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, domain.ErrVoucherNotFound
	}
	return voucher, nil
}

// List lists vouchers filtered by zone and/or beneficiary
func (s *VoucherService) List(ctx context.Context, zoneID uint, beneficiaryRef string, offset, limit int) ([]*models.Voucher, int64, error) {
	return s.voucherRepo.List(ctx, zoneID, beneficiaryRef, offset, limit)
}

func voucherLockKey(voucherID uint) string {
	return fmt.Sprintf("voucher:%d", voucherID)
}
