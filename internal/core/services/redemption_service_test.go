package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"aidledger/internal/core/domain"
)

// setupVoucher funds a zone and issues one voucher against it
func setupVoucher(t *testing.T, env *testEnv, amount int64, restrictions ...string) uint {
	t.Helper()
	zone := env.mustCreateZone(t, amount*2)
	env.mustDonate(t, zone.ID, amount)
	voucher := env.mustIssue(t, zone.ID, amount, restrictions...)
	return voucher.ID
}

func TestRedeemPartialThenFull(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	voucherID := setupVoucher(t, env, 15000)

	tx := env.mustRedeem(t, voucherID, "vendor-a", 10000, "key-1")
	if tx.Status != domain.RedemptionStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", tx.Status)
	}

	voucher, _ := env.voucherService.GetByID(ctx, voucherID)
	if voucher.Status != domain.VoucherStatusPartiallyRedeemed {
		t.Fatalf("expected PARTIALLY_REDEEMED, got %s", voucher.Status)
	}
	if voucher.RemainingBalance != 5000 {
		t.Fatalf("expected remaining 5000, got %d", voucher.RemainingBalance)
	}

	// Over the remaining balance: recorded as FAILED and reported distinctly
	failed, err := env.redemption.Redeem(ctx, &RedeemInput{
		VoucherID: voucherID, VendorRef: "vendor-a", Amount: 8000, IdempotencyKey: "key-2",
	}, vendorActor)
	if !errors.Is(err, domain.ErrInsufficientVoucherBalance) {
		t.Fatalf("expected ErrInsufficientVoucherBalance, got %v", err)
	}
	if failed == nil || failed.Status != domain.RedemptionStatusFailed {
		t.Fatalf("expected a FAILED transaction, got %+v", failed)
	}

	voucher, _ = env.voucherService.GetByID(ctx, voucherID)
	if voucher.RemainingBalance != 5000 {
		t.Fatalf("failed claim must not debit, remaining %d", voucher.RemainingBalance)
	}

	// The exact remainder drains the voucher
	tx = env.mustRedeem(t, voucherID, "vendor-a", 5000, "key-3")
	if tx.Status != domain.RedemptionStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", tx.Status)
	}
	voucher, _ = env.voucherService.GetByID(ctx, voucherID)
	if voucher.Status != domain.VoucherStatusRedeemed {
		t.Fatalf("expected REDEEMED, got %s", voucher.Status)
	}
	if voucher.RemainingBalance != 0 {
		t.Fatalf("expected remaining 0, got %d", voucher.RemainingBalance)
	}

	// Terminal voucher refuses further claims
	if _, err := env.redemption.Redeem(ctx, &RedeemInput{
		VoucherID: voucherID, VendorRef: "vendor-a", Amount: 1, IdempotencyKey: "key-4",
	}, vendorActor); !errors.Is(err, domain.ErrVoucherRedeemed) {
		t.Fatalf("expected ErrVoucherRedeemed, got %v", err)
	}
}

func TestRedeemIdempotentReplay(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	voucherID := setupVoucher(t, env, 10000)

	first := env.mustRedeem(t, voucherID, "vendor-a", 4000, "pos-receipt-77")
	replay := env.mustRedeem(t, voucherID, "vendor-a", 4000, "pos-receipt-77")

	if replay.ID != first.ID {
		t.Fatalf("replay must return the original transaction, got %d and %d", first.ID, replay.ID)
	}

	voucher, _ := env.voucherService.GetByID(ctx, voucherID)
	if voucher.RemainingBalance != 6000 {
		t.Fatalf("replay must not re-debit, remaining %d", voucher.RemainingBalance)
	}

	// Same key, different vendor, is a distinct claim
	other := env.mustRedeem(t, voucherID, "vendor-b", 1000, "pos-receipt-77")
	if other.ID == first.ID {
		t.Fatal("another vendor's key must not collide")
	}
}

func TestRedeemFailedOutcomeReplays(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	voucherID := setupVoucher(t, env, 5000)

	_, err := env.redemption.Redeem(ctx, &RedeemInput{
		VoucherID: voucherID, VendorRef: "vendor-a", Amount: 9000, IdempotencyKey: "key-f",
	}, vendorActor)
	if !errors.Is(err, domain.ErrInsufficientVoucherBalance) {
		t.Fatalf("expected ErrInsufficientVoucherBalance, got %v", err)
	}

	// Replaying the key returns the recorded FAILED outcome without error
	tx, err := env.redemption.Redeem(ctx, &RedeemInput{
		VoucherID: voucherID, VendorRef: "vendor-a", Amount: 9000, IdempotencyKey: "key-f",
	}, vendorActor)
	if err != nil {
		t.Fatalf("replay of failed claim: %v", err)
	}
	if tx.Status != domain.RedemptionStatusFailed {
		t.Fatalf("expected FAILED, got %s", tx.Status)
	}
}

func TestRedeemExpiredVoucher(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	voucherID := setupVoucher(t, env, 5000)

	// First contact after the TTL flips the voucher to EXPIRED
	env.redemption.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

	_, err := env.redemption.Redeem(ctx, &RedeemInput{
		VoucherID: voucherID, VendorRef: "vendor-a", Amount: 1000, IdempotencyKey: "key-1",
	}, vendorActor)
	if !errors.Is(err, domain.ErrVoucherExpired) {
		t.Fatalf("expected ErrVoucherExpired, got %v", err)
	}

	voucher, _ := env.voucherService.GetByID(ctx, voucherID)
	if voucher.Status != domain.VoucherStatusExpired {
		t.Fatalf("expected persisted status EXPIRED, got %s", voucher.Status)
	}
}

func TestRedeemRevokedVoucher(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	voucherID := setupVoucher(t, env, 5000)

	if _, err := env.voucherService.Revoke(ctx, voucherID, govActor); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := env.redemption.Redeem(ctx, &RedeemInput{
		VoucherID: voucherID, VendorRef: "vendor-a", Amount: 1000, IdempotencyKey: "key-1",
	}, vendorActor); !errors.Is(err, domain.ErrVoucherRevoked) {
		t.Fatalf("expected ErrVoucherRevoked, got %v", err)
	}
}

func TestRedeemVendorRestriction(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	voucherID := setupVoucher(t, env, 5000, "vendor-allowed")

	if _, err := env.redemption.Redeem(ctx, &RedeemInput{
		VoucherID: voucherID, VendorRef: "vendor-other", Amount: 1000, IdempotencyKey: "key-1",
	}, vendorActor); !errors.Is(err, domain.ErrVendorNotAuthorized) {
		t.Fatalf("expected ErrVendorNotAuthorized, got %v", err)
	}

	env.mustRedeem(t, voucherID, "vendor-allowed", 1000, "key-2")
}

func TestConcurrentRedemptionsNeverOverdraw(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	voucherID := setupVoucher(t, env, 10000)

	const workers = 20
	const claim = 1000

	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.redemption.Redeem(ctx, &RedeemInput{
				VoucherID:      voucherID,
				VendorRef:      "vendor-a",
				Amount:         claim,
				IdempotencyKey: fmt.Sprintf("key-%d", i),
			}, vendorActor)
			results[i] = err
		}(i)
	}
	wg.Wait()

	var completed int64
	for _, err := range results {
		if err == nil {
			completed++
		} else if !errors.Is(err, domain.ErrInsufficientVoucherBalance) && !errors.Is(err, domain.ErrVoucherRedeemed) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	voucher, _ := env.voucherService.GetByID(ctx, voucherID)
	if completed*claim != 10000-voucher.RemainingBalance {
		t.Fatalf("debits (%d) disagree with remaining balance (%d)", completed*claim, voucher.RemainingBalance)
	}
	if voucher.RemainingBalance < 0 {
		t.Fatalf("voucher overdrawn: %d", voucher.RemainingBalance)
	}
	if completed != 10 {
		t.Fatalf("expected exactly 10 completed claims, got %d", completed)
	}
}
