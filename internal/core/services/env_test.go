package services

import (
	"context"
	"testing"
	"time"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/core/domain"
	"aidledger/internal/pkg/keylock"
)

var (
	govActor    = Actor{UserID: 1, Role: domain.RoleGovernment, IP: "10.0.0.1"}
	donorActor  = Actor{UserID: 2, Role: domain.RoleDonor, IP: "10.0.0.2"}
	vendorActor = Actor{UserID: 3, Role: domain.RoleVendor, IP: "10.0.0.3"}
	oracleActor = Actor{UserID: 4, Role: domain.RoleOracle, IP: "10.0.0.4"}
)

// testEnv wires every service against in-memory repositories, sharing the
// lock tables the same way the route setup does.
type testEnv struct {
	zoneRepo        *fakeZoneRepo
	donationRepo    *fakeDonationRepo
	voucherRepo     *fakeVoucherRepo
	redemptionRepo  *fakeRedemptionRepo
	proofRepo       *fakeProofRepo
	verifyRepo      *fakeVerificationRepo
	payoutRepo      *fakePayoutRepo
	zoneService     *ZoneService
	donationService *DonationService
	voucherService  *VoucherService
	redemption      *RedemptionService
	proofService    *ProofService
	payoutService   *PayoutService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		zoneRepo:       newFakeZoneRepo(),
		donationRepo:   newFakeDonationRepo(),
		voucherRepo:    newFakeVoucherRepo(),
		redemptionRepo: newFakeRedemptionRepo(),
		proofRepo:      newFakeProofRepo(),
		verifyRepo:     newFakeVerificationRepo(),
		payoutRepo:     newFakePayoutRepo(),
	}

	zoneLocks := keylock.New()
	voucherLocks := keylock.New()
	proofLocks := keylock.New()
	var auditor *Auditor

	env.zoneService = NewZoneService(env.zoneRepo, auditor)
	env.donationService = NewDonationService(env.donationRepo, env.zoneRepo, zoneLocks, auditor)
	env.voucherService = NewVoucherService(env.voucherRepo, env.zoneRepo, zoneLocks, voucherLocks, auditor)
	env.redemption = NewRedemptionService(env.redemptionRepo, env.voucherRepo, voucherLocks, auditor)
	env.proofService = NewProofService(
		env.proofRepo, env.verifyRepo, env.redemptionRepo, env.voucherRepo, env.zoneRepo,
		zoneLocks, proofLocks, auditor, 72*time.Hour,
	)
	env.payoutService = NewPayoutService(env.payoutRepo, env.redemptionRepo, env.zoneRepo, env.proofService, auditor)

	return env
}

// mustCreateZone creates an active zone with the given budget allocation
func (env *testEnv) mustCreateZone(t *testing.T, budget int64) *models.DisasterZone {
	t.Helper()
	zone, err := env.zoneService.Create(context.Background(), &CreateZoneInput{
		Name:            "Flood Plain North",
		CenterLat:       13.7563,
		CenterLng:       100.5018,
		RadiusKm:        25,
		BudgetAllocated: budget,
		Severity:        domain.SeverityHigh,
	}, govActor)
	if err != nil {
		t.Fatalf("create zone: %v", err)
	}
	return zone
}

// mustDonate records a donation and fails the test on error
func (env *testEnv) mustDonate(t *testing.T, zoneID uint, amount int64) *models.Donation {
	t.Helper()
	donation, err := env.donationService.Record(context.Background(), &RecordDonationInput{
		ZoneID:   zoneID,
		DonorRef: "donor-001",
		Amount:   amount,
	}, donorActor)
	if err != nil {
		t.Fatalf("record donation: %v", err)
	}
	return donation
}

// mustIssue issues a voucher and fails the test on error
func (env *testEnv) mustIssue(t *testing.T, zoneID uint, amount int64, restrictions ...string) *models.Voucher {
	t.Helper()
	voucher, err := env.voucherService.Issue(context.Background(), &IssueVoucherInput{
		ZoneID:             zoneID,
		BeneficiaryRef:     "victim-001",
		Amount:             amount,
		Category:           "FOOD",
		VendorRestrictions: restrictions,
	}, govActor)
	if err != nil {
		t.Fatalf("issue voucher: %v", err)
	}
	return voucher
}

// mustRedeem completes a redemption and fails the test on error
func (env *testEnv) mustRedeem(t *testing.T, voucherID uint, vendorRef string, amount int64, key string) *models.RedemptionTransaction {
	t.Helper()
	tx, err := env.redemption.Redeem(context.Background(), &RedeemInput{
		VoucherID:      voucherID,
		VendorRef:      vendorRef,
		Amount:         amount,
		IdempotencyKey: key,
	}, vendorActor)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	return tx
}
