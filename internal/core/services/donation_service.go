package services

import (
	"context"
	"fmt"
	"strings"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/adapters/persistence/repositories"
	"aidledger/internal/core/domain"
	"aidledger/internal/pkg/keylock"

	"github.com/google/uuid"
)

// DonationService handles the append-only donation ledger
type DonationService struct {
	donationRepo repositories.DonationRepository
	zoneRepo     repositories.ZoneRepository
	zoneLocks    *keylock.KeyLock
	auditor      *Auditor
}

// NewDonationService creates a new donation service. zoneLocks must be the same
// lock table the voucher issuer uses, so donations and issuances on one zone
// are serialized with respect to each other.
func NewDonationService(
	donationRepo repositories.DonationRepository,
	zoneRepo repositories.ZoneRepository,
	zoneLocks *keylock.KeyLock,
	auditor *Auditor,
) *DonationService {
	return &DonationService{
		donationRepo: donationRepo,
		zoneRepo:     zoneRepo,
		zoneLocks:    zoneLocks,
		auditor:      auditor,
	}
}

// RecordDonationInput represents record donation input
type RecordDonationInput struct {
	ZoneID      uint   `json:"zone_id" validate:"required"`
	DonorRef    string `json:"donor_ref" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	ExternalRef string `json:"external_ref,omitempty"`
}

// Record appends a donation and increases the zone's available balance.
// The row is immutable once written.
func (s *DonationService) Record(ctx context.Context, input *RecordDonationInput, actor Actor) (*models.Donation, error) {
	if input.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if strings.TrimSpace(input.DonorRef) == "" {
		return nil, domain.ErrInvalidInput
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

	donation := &models.Donation{
		ZoneID:      zone.ID,
		DonorRef:    input.DonorRef,
		Amount:      input.Amount,
		ExternalRef: input.ExternalRef,
		ReceiptNo:   uuid.NewString(),
	}

	if err := s.donationRepo.Create(ctx, donation); err != nil {
		return nil, err
	}

	zone.DonationTotal += input.Amount
	if err := s.zoneRepo.Update(ctx, zone); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, models.AuditDonationRecord, "donation", donation.ID, &donation.Amount,
		fmt.Sprintf("zone %d donor %s", zone.ID, input.DonorRef), actor)

	return donation, nil
}

// ListByZone lists donations recorded against a zone
func (s *DonationService) ListByZone(ctx context.Context, zoneID uint, offset, limit int) ([]*models.Donation, int64, error) {
	return s.donationRepo.ListByZone(ctx, zoneID, offset, limit)
}

func zoneLockKey(zoneID uint) string {
	return fmt.Sprintf("zone:%d", zoneID)
}
