package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"aidledger/internal/core/domain"
)

// seedOutstanding registers verified and paid vendor totals behind a zone
func seedOutstanding(t *testing.T, env *testEnv, verified, paid map[string]int64) uint {
	t.Helper()
	zone := env.mustCreateZone(t, 10000000)
	env.redemptionRepo.verified = verified
	env.payoutRepo.paid = paid
	return zone.ID
}

func TestCreateBulkPayout(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	zoneID := seedOutstanding(t, env,
		map[string]int64{"vendor-a": 50000, "vendor-b": 30000},
		map[string]int64{"vendor-a": 10000},
	)

	payout, err := env.payoutService.CreateBulkPayout(ctx, &CreateBulkPayoutInput{
		ZoneID:      zoneID,
		Description: "weekly settlement",
		Rows: []PayoutRow{
			{VendorRef: "vendor-a", Amount: 40000},
			{VendorRef: "vendor-b", Amount: 25000, ReferenceNote: "inv-2201"},
		},
	}, govActor)
	if err != nil {
		t.Fatalf("create payout: %v", err)
	}

	if payout.TotalAmount != 65000 {
		t.Fatalf("expected total 65000, got %d", payout.TotalAmount)
	}
	if payout.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", payout.RowCount)
	}
	if payout.Status != domain.BulkPayoutStatusCommitted {
		t.Fatalf("expected COMMITTED, got %s", payout.Status)
	}

	stored, err := env.payoutService.GetBulkPayout(ctx, payout.ID)
	if err != nil {
		t.Fatalf("get payout: %v", err)
	}
	if len(stored.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(stored.Items))
	}
	if stored.Items[1].ReferenceNote != "inv-2201" {
		t.Fatalf("unexpected reference note %q", stored.Items[1].ReferenceNote)
	}
}

func TestBulkPayoutOneBadRowRejectsBatch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	zoneID := seedOutstanding(t, env, map[string]int64{"vendor-a": 10000000}, nil)

	rows := make([]PayoutRow, 15)
	for i := range rows {
		rows[i] = PayoutRow{VendorRef: "vendor-a", Amount: 1000}
	}
	rows[9].Amount = -50

	_, err := env.payoutService.CreateBulkPayout(ctx, &CreateBulkPayoutInput{
		ZoneID: zoneID, Rows: rows,
	}, govActor)

	ve, ok := domain.IsBulkPayoutValidation(err)
	if !ok {
		t.Fatalf("expected BulkPayoutValidationError, got %v", err)
	}
	if len(ve.Rows) != 1 {
		t.Fatalf("expected 1 row error, got %d", len(ve.Rows))
	}
	if ve.Rows[0].Index != 9 {
		t.Fatalf("expected offending index 9, got %d", ve.Rows[0].Index)
	}

	// Nothing committed
	if _, err := env.payoutService.GetBulkPayout(ctx, 1); !errors.Is(err, domain.ErrBulkPayoutNotFound) {
		t.Fatalf("expected no committed payout, got %v", err)
	}
}

func TestBulkPayoutRowValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	zoneID := seedOutstanding(t, env,
		map[string]int64{"vendor-a": 5000},
		map[string]int64{"vendor-a": 2000},
	)

	_, err := env.payoutService.CreateBulkPayout(ctx, &CreateBulkPayoutInput{
		ZoneID: zoneID,
		Rows: []PayoutRow{
			{VendorRef: "", Amount: 100},
			{VendorRef: "vendor-unknown", Amount: 100},
			{VendorRef: "vendor-a", Amount: 4000},
		},
	}, govActor)

	ve, ok := domain.IsBulkPayoutValidation(err)
	if !ok {
		t.Fatalf("expected BulkPayoutValidationError, got %v", err)
	}
	if len(ve.Rows) != 3 {
		t.Fatalf("expected 3 row errors, got %d", len(ve.Rows))
	}
	for i, re := range ve.Rows {
		if re.Index != i {
			t.Fatalf("expected ascending indices, got %+v", ve.Rows)
		}
	}
}

func TestBulkPayoutDuplicateVendorDrawsDown(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	zoneID := seedOutstanding(t, env, map[string]int64{"vendor-a": 5000}, nil)

	// Each row fits alone; together they exceed the outstanding balance
	_, err := env.payoutService.CreateBulkPayout(ctx, &CreateBulkPayoutInput{
		ZoneID: zoneID,
		Rows: []PayoutRow{
			{VendorRef: "vendor-a", Amount: 3000},
			{VendorRef: "vendor-a", Amount: 3000},
		},
	}, govActor)

	ve, ok := domain.IsBulkPayoutValidation(err)
	if !ok {
		t.Fatalf("expected BulkPayoutValidationError, got %v", err)
	}
	if len(ve.Rows) != 1 || ve.Rows[0].Index != 1 {
		t.Fatalf("expected the second row flagged, got %+v", ve.Rows)
	}
}

func TestBulkPayoutEmptyBatch(t *testing.T) {
	env := newTestEnv()
	zoneID := seedOutstanding(t, env, nil, nil)

	_, err := env.payoutService.CreateBulkPayout(context.Background(), &CreateBulkPayoutInput{
		ZoneID: zoneID,
	}, govActor)
	if !errors.Is(err, domain.ErrBulkPayoutEmpty) {
		t.Fatalf("expected ErrBulkPayoutEmpty, got %v", err)
	}
}

func TestGetVendorOutstanding(t *testing.T) {
	env := newTestEnv()
	zoneID := seedOutstanding(t, env,
		map[string]int64{"vendor-b": 30000, "vendor-a": 50000},
		map[string]int64{"vendor-a": 10000},
	)

	vendors, err := env.payoutService.GetVendorOutstanding(context.Background(), zoneID)
	if err != nil {
		t.Fatalf("outstanding: %v", err)
	}
	if len(vendors) != 2 {
		t.Fatalf("expected 2 vendors, got %d", len(vendors))
	}
	// Sorted by vendor reference
	if vendors[0].VendorRef != "vendor-a" || vendors[1].VendorRef != "vendor-b" {
		t.Fatalf("expected sorted vendor order, got %s, %s", vendors[0].VendorRef, vendors[1].VendorRef)
	}
	if vendors[0].Outstanding != 40000 {
		t.Fatalf("expected vendor-a outstanding 40000, got %d", vendors[0].Outstanding)
	}
	if vendors[1].Outstanding != 30000 {
		t.Fatalf("expected vendor-b outstanding 30000, got %d", vendors[1].Outstanding)
	}
}

func TestGetZoneUtilization(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	zone := env.mustCreateZone(t, 200000)
	stored, _ := env.zoneRepo.GetByID(ctx, zone.ID)
	stored.BudgetUsed = 50000
	if err := env.zoneRepo.Update(ctx, stored); err != nil {
		t.Fatalf("seed budget: %v", err)
	}

	report, err := env.payoutService.GetZoneUtilization(ctx, zone.ID)
	if err != nil {
		t.Fatalf("utilization: %v", err)
	}
	if report.UtilizationPct != 25 {
		t.Fatalf("expected 25%%, got %v", report.UtilizationPct)
	}
	if report.Zone.BudgetUsed != 50000 {
		t.Fatalf("expected budget used 50000, got %d", report.Zone.BudgetUsed)
	}

	if _, err := env.payoutService.GetZoneUtilization(ctx, 99); !errors.Is(err, domain.ErrZoneNotFound) {
		t.Fatalf("expected ErrZoneNotFound, got %v", err)
	}
}

func TestBulkPayoutRowCountMatchesItems(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	zoneID := seedOutstanding(t, env, map[string]int64{"vendor-a": 1000000}, nil)

	rows := make([]PayoutRow, 10)
	for i := range rows {
		rows[i] = PayoutRow{VendorRef: "vendor-a", Amount: 100, ReferenceNote: fmt.Sprintf("row-%d", i)}
	}

	payout, err := env.payoutService.CreateBulkPayout(ctx, &CreateBulkPayoutInput{
		ZoneID: zoneID, Rows: rows,
	}, govActor)
	if err != nil {
		t.Fatalf("create payout: %v", err)
	}

	stored, _ := env.payoutService.GetBulkPayout(ctx, payout.ID)
	for i, item := range stored.Items {
		if item.RowIndex != i {
			t.Fatalf("expected row index %d, got %d", i, item.RowIndex)
		}
	}
}
