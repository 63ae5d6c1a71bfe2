package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/adapters/persistence/repositories"
	"aidledger/internal/core/domain"
)

// PayoutService is the payout/audit reporter: read-only aggregates over the
// verified ledger plus the one mutating operation, atomic bulk payout creation.
type PayoutService struct {
	payoutRepo     repositories.BulkPayoutRepository
	redemptionRepo repositories.RedemptionRepository
	zoneRepo       repositories.ZoneRepository
	proofService   *ProofService
	auditor        *Auditor
}

// NewPayoutService creates a new payout service
func NewPayoutService(
	payoutRepo repositories.BulkPayoutRepository,
	redemptionRepo repositories.RedemptionRepository,
	zoneRepo repositories.ZoneRepository,
	proofService *ProofService,
	auditor *Auditor,
) *PayoutService {
	return &PayoutService{
		payoutRepo:     payoutRepo,
		redemptionRepo: redemptionRepo,
		zoneRepo:       zoneRepo,
		proofService:   proofService,
		auditor:        auditor,
	}
}

// PayoutRow is one recipient row of a bulk payout batch
type PayoutRow struct {
	VendorRef     string `json:"vendor_ref"`
	Amount        int64  `json:"amount"`
	ReferenceNote string `json:"reference_note,omitempty"`
}

// CreateBulkPayoutInput represents create bulk payout input
type CreateBulkPayoutInput struct {
	ZoneID      uint        `json:"zone_id" validate:"required"`
	Description string      `json:"description,omitempty"`
	Rows        []PayoutRow `json:"rows" validate:"required"`
}

// CreateBulkPayout validates the full recipient batch before committing any
// state. One malformed row rejects the entire batch with the offending row
// indices; zero rows are applied.
func (s *PayoutService) CreateBulkPayout(ctx context.Context, input *CreateBulkPayoutInput, actor Actor) (*models.BulkPayout, error) {
	if len(input.Rows) == 0 {
		return nil, domain.ErrBulkPayoutEmpty
	}

	zone, err := s.zoneRepo.GetByID(ctx, input.ZoneID)
	if err != nil {
		return nil, domain.ErrZoneNotFound
	}

	verified, err := s.redemptionRepo.VerifiedTotalsByVendor(ctx, zone.ID)
	if err != nil {
		return nil, err
	}
	paid, err := s.payoutRepo.PaidTotalsByVendor(ctx, zone.ID)
	if err != nil {
		return nil, err
	}

	// Outstanding per vendor, drawn down row by row so duplicate vendors within
	// one batch cannot jointly exceed the owed balance
	outstanding := make(map[string]int64, len(verified))
	for vendor, total := range verified {
		outstanding[vendor] = total - paid[vendor]
	}

	var rowErrors []domain.RowError
	for i, row := range input.Rows {
		switch {
		case strings.TrimSpace(row.VendorRef) == "":
			rowErrors = append(rowErrors, domain.RowError{Index: i, Reason: "missing vendor reference"})
		case row.Amount <= 0:
			rowErrors = append(rowErrors, domain.RowError{Index: i, Reason: "amount must be greater than zero"})
		default:
			owed, known := outstanding[row.VendorRef]
			if !known {
				rowErrors = append(rowErrors, domain.RowError{Index: i, Reason: "unknown vendor for this zone"})
			} else if row.Amount > owed {
				rowErrors = append(rowErrors, domain.RowError{Index: i, Reason: "amount exceeds vendor outstanding balance"})
			} else {
				outstanding[row.VendorRef] = owed - row.Amount
			}
		}
	}
	if len(rowErrors) > 0 {
		return nil, &domain.BulkPayoutValidationError{Rows: rowErrors}
	}

	var total int64
	items := make([]*models.BulkPayoutItem, 0, len(input.Rows))
	for i, row := range input.Rows {
		total += row.Amount
		items = append(items, &models.BulkPayoutItem{
			RowIndex:      i,
			VendorRef:     row.VendorRef,
			Amount:        row.Amount,
			ReferenceNote: row.ReferenceNote,
		})
	}

	payout := &models.BulkPayout{
		ZoneID:      zone.ID,
		Description: input.Description,
		TotalAmount: total,
		RowCount:    len(items),
		Status:      domain.BulkPayoutStatusCommitted,
		CreatedBy:   actor.UserID,
	}

	if err := s.payoutRepo.CreateWithItems(ctx, payout, items); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, models.AuditBulkPayoutCreate, "bulk_payout", payout.ID, &payout.TotalAmount,
		fmt.Sprintf("zone %d rows %d", zone.ID, payout.RowCount), actor)

	return payout, nil
}

// GetBulkPayout gets a payout batch with its rows
func (s *PayoutService) GetBulkPayout(ctx context.Context, id uint) (*models.BulkPayout, error) {
	payout, err := s.payoutRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.ErrBulkPayoutNotFound
	}
	return payout, nil
}

// ZoneUtilization summarizes a zone's budget position
type ZoneUtilization struct {
	Zone           *models.ZoneResponse `json:"zone"`
	UtilizationPct float64              `json:"utilization_pct"`
}

// GetZoneUtilization reports a zone's budget usage
func (s *PayoutService) GetZoneUtilization(ctx context.Context, zoneID uint) (*ZoneUtilization, error) {
	zone, err := s.zoneRepo.GetByID(ctx, zoneID)
	if err != nil {
		return nil, domain.ErrZoneNotFound
	}

	var pct float64
	if zone.BudgetAllocated > 0 {
		pct = float64(zone.BudgetUsed) / float64(zone.BudgetAllocated) * 100
	}

	return &ZoneUtilization{
		Zone:           zone.ToResponse(),
		UtilizationPct: pct,
	}, nil
}

// VendorOutstanding is one vendor's verified-but-unpaid position
type VendorOutstanding struct {
	VendorRef   string `json:"vendor_ref"`
	Verified    int64  `json:"verified_total"`
	Paid        int64  `json:"paid_total"`
	Outstanding int64  `json:"outstanding"`
}

// GetVendorOutstanding lists per-vendor verified-but-unpaid totals.
// zoneID of 0 means all zones.
func (s *PayoutService) GetVendorOutstanding(ctx context.Context, zoneID uint) ([]VendorOutstanding, error) {
	verified, err := s.redemptionRepo.VerifiedTotalsByVendor(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	paid, err := s.payoutRepo.PaidTotalsByVendor(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	vendors := make([]string, 0, len(verified))
	for vendor := range verified {
		vendors = append(vendors, vendor)
	}
	sort.Strings(vendors)

	result := make([]VendorOutstanding, 0, len(vendors))
	for _, vendor := range vendors {
		out := verified[vendor] - paid[vendor]
		if out <= 0 {
			continue
		}
		result = append(result, VendorOutstanding{
			VendorRef:   vendor,
			Verified:    verified[vendor],
			Paid:        paid[vendor],
			Outstanding: out,
		})
	}
	return result, nil
}

// GetStaleProofs lists proofs stuck past the verification SLA
func (s *PayoutService) GetStaleProofs(ctx context.Context) ([]*models.ProofOfAid, error) {
	return s.proofService.ListStale(ctx)
}
