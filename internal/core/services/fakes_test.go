package services

import (
	"context"
	"sync"
	"time"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/core/domain"
)

// In-memory repositories backing the service tests. Update follows the same
// optimistic contract as the gorm implementations: a version mismatch returns
// domain.ErrStaleAggregate, a successful write bumps the version.

type fakeZoneRepo struct {
	mu    sync.Mutex
	seq   uint
	zones map[uint]models.DisasterZone

	// updateErr, when set, fails Update calls after updateOK successes.
	updateErr error
	updateOK  int
}

func newFakeZoneRepo() *fakeZoneRepo {
	return &fakeZoneRepo{zones: make(map[uint]models.DisasterZone)}
}

func (r *fakeZoneRepo) Create(_ context.Context, zone *models.DisasterZone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	zone.ID = r.seq
	r.zones[zone.ID] = *zone
	return nil
}

func (r *fakeZoneRepo) GetByID(_ context.Context, id uint) (*models.DisasterZone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	zone, ok := r.zones[id]
	if !ok {
		return nil, domain.ErrZoneNotFound
	}
	return &zone, nil
}

func (r *fakeZoneRepo) Update(_ context.Context, zone *models.DisasterZone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		if r.updateOK == 0 {
			return r.updateErr
		}
		r.updateOK--
	}
	stored, ok := r.zones[zone.ID]
	if !ok {
		return domain.ErrZoneNotFound
	}
	if stored.Version != zone.Version {
		return domain.ErrStaleAggregate
	}
	zone.Version++
	r.zones[zone.ID] = *zone
	return nil
}

func (r *fakeZoneRepo) List(_ context.Context, status string, offset, limit int) ([]*models.DisasterZone, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.DisasterZone
	for id := uint(1); id <= r.seq; id++ {
		zone, ok := r.zones[id]
		if !ok || (status != "" && zone.Status != status) {
			continue
		}
		z := zone
		out = append(out, &z)
	}
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

type fakeDonationRepo struct {
	mu        sync.Mutex
	seq       uint
	donations []*models.Donation
}

func newFakeDonationRepo() *fakeDonationRepo {
	return &fakeDonationRepo{}
}

func (r *fakeDonationRepo) Create(_ context.Context, donation *models.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	donation.ID = r.seq
	d := *donation
	r.donations = append(r.donations, &d)
	return nil
}

func (r *fakeDonationRepo) ListByZone(_ context.Context, zoneID uint, offset, limit int) ([]*models.Donation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Donation
	for _, d := range r.donations {
		if d.ZoneID == zoneID {
			out = append(out, d)
		}
	}
	return out, int64(len(out)), nil
}

type fakeVoucherRepo struct {
	mu       sync.Mutex
	seq      uint
	vouchers map[uint]models.Voucher

	createErr error
}

func newFakeVoucherRepo() *fakeVoucherRepo {
	return &fakeVoucherRepo{vouchers: make(map[uint]models.Voucher)}
}

func (r *fakeVoucherRepo) Create(_ context.Context, voucher *models.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	voucher.ID = r.seq
	r.vouchers[voucher.ID] = *voucher
	return nil
}

func (r *fakeVoucherRepo) GetByID(_ context.Context, id uint) (*models.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	voucher, ok := r.vouchers[id]
	if !ok {
		return nil, domain.ErrVoucherNotFound
	}
	return &voucher, nil
}

func (r *fakeVoucherRepo) GetByCode(_ context.Context, code string) (*models.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, voucher := range r.vouchers {
		if voucher.Code == code {
			v := voucher
			return &v, nil
		}
	}
	return nil, domain.ErrVoucherNotFound
}

func (r *fakeVoucherRepo) Update(_ context.Context, voucher *models.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.vouchers[voucher.ID]
	if !ok {
		return domain.ErrVoucherNotFound
	}
	if stored.Version != voucher.Version {
		return domain.ErrStaleAggregate
	}
	voucher.Version++
	r.vouchers[voucher.ID] = *voucher
	return nil
}

func (r *fakeVoucherRepo) List(_ context.Context, zoneID uint, beneficiaryRef string, offset, limit int) ([]*models.Voucher, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Voucher
	for id := uint(1); id <= r.seq; id++ {
		voucher, ok := r.vouchers[id]
		if !ok {
			continue
		}
		if zoneID != 0 && voucher.ZoneID != zoneID {
			continue
		}
		if beneficiaryRef != "" && voucher.BeneficiaryRef != beneficiaryRef {
			continue
		}
		v := voucher
		out = append(out, &v)
	}
	return out, int64(len(out)), nil
}

type fakeRedemptionRepo struct {
	mu  sync.Mutex
	seq uint
	txs []*models.RedemptionTransaction

	// verified is returned by VerifiedTotalsByVendor directly; the join over
	// proofs lives in the gorm implementation.
	verified map[string]int64
}

func newFakeRedemptionRepo() *fakeRedemptionRepo {
	return &fakeRedemptionRepo{verified: make(map[string]int64)}
}

func (r *fakeRedemptionRepo) Create(_ context.Context, tx *models.RedemptionTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.txs {
		if existing.VendorRef == tx.VendorRef && existing.IdempotencyKey == tx.IdempotencyKey {
			return domain.ErrDuplicateEntry
		}
	}
	r.seq++
	tx.ID = r.seq
	tx.CreatedAt = time.Now()
	copied := *tx
	r.txs = append(r.txs, &copied)
	return nil
}

func (r *fakeRedemptionRepo) GetByID(_ context.Context, id uint) (*models.RedemptionTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.ID == id {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *fakeRedemptionRepo) GetByIdempotencyKey(_ context.Context, vendorRef, key string) (*models.RedemptionTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.VendorRef == vendorRef && tx.IdempotencyKey == key {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRedemptionRepo) ListByVoucher(_ context.Context, voucherID uint) ([]*models.RedemptionTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RedemptionTransaction
	for _, tx := range r.txs {
		if tx.VoucherID == voucherID {
			copied := *tx
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeRedemptionRepo) ListByVendor(_ context.Context, vendorRef string, offset, limit int) ([]*models.RedemptionTransaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RedemptionTransaction
	for _, tx := range r.txs {
		if tx.VendorRef == vendorRef {
			copied := *tx
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRedemptionRepo) VerifiedTotalsByVendor(_ context.Context, _ uint) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.verified))
	for k, v := range r.verified {
		out[k] = v
	}
	return out, nil
}

type fakeProofRepo struct {
	mu     sync.Mutex
	seq    uint
	proofs map[uint]models.ProofOfAid
}

func newFakeProofRepo() *fakeProofRepo {
	return &fakeProofRepo{proofs: make(map[uint]models.ProofOfAid)}
}

func (r *fakeProofRepo) Create(_ context.Context, proof *models.ProofOfAid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	proof.ID = r.seq
	r.proofs[proof.ID] = *proof
	return nil
}

func (r *fakeProofRepo) GetByID(_ context.Context, id uint) (*models.ProofOfAid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	proof, ok := r.proofs[id]
	if !ok {
		return nil, domain.ErrProofNotFound
	}
	return &proof, nil
}

func (r *fakeProofRepo) GetByTransactionID(_ context.Context, transactionID uint) (*models.ProofOfAid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, proof := range r.proofs {
		if proof.TransactionID == transactionID {
			p := proof
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakeProofRepo) Update(_ context.Context, proof *models.ProofOfAid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.proofs[proof.ID]; !ok {
		return domain.ErrProofNotFound
	}
	r.proofs[proof.ID] = *proof
	return nil
}

func (r *fakeProofRepo) ListStale(_ context.Context, cutoff time.Time) ([]*models.ProofOfAid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ProofOfAid
	for id := uint(1); id <= r.seq; id++ {
		proof, ok := r.proofs[id]
		if !ok {
			continue
		}
		if proof.Status == domain.ProofStatusSubmitted && proof.SubmittedAt.Before(cutoff) {
			p := proof
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r *fakeProofRepo) MarkStaleReported(_ context.Context, ids []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if proof, ok := r.proofs[id]; ok {
			proof.StaleReported = true
			r.proofs[id] = proof
		}
	}
	return nil
}

type fakeVerificationRepo struct {
	mu      sync.Mutex
	seq     uint
	records map[uint]map[string]*models.VerificationRecord
}

func newFakeVerificationRepo() *fakeVerificationRepo {
	return &fakeVerificationRepo{records: make(map[uint]map[string]*models.VerificationRecord)}
}

func (r *fakeVerificationRepo) Upsert(_ context.Context, record *models.VerificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byRole, ok := r.records[record.ProofID]
	if !ok {
		byRole = make(map[string]*models.VerificationRecord)
		r.records[record.ProofID] = byRole
	}
	if existing, ok := byRole[record.VerifierRole]; ok {
		record.ID = existing.ID
	} else {
		r.seq++
		record.ID = r.seq
	}
	copied := *record
	byRole[record.VerifierRole] = &copied
	return nil
}

func (r *fakeVerificationRepo) ListByProof(_ context.Context, proofID uint) ([]*models.VerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.VerificationRecord
	for _, record := range r.records[proofID] {
		copied := *record
		out = append(out, &copied)
	}
	return out, nil
}

type fakePayoutRepo struct {
	mu      sync.Mutex
	seq     uint
	payouts map[uint]*models.BulkPayout

	// paid is returned by PaidTotalsByVendor directly
	paid map[string]int64
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{
		payouts: make(map[uint]*models.BulkPayout),
		paid:    make(map[string]int64),
	}
}

func (r *fakePayoutRepo) CreateWithItems(_ context.Context, payout *models.BulkPayout, items []*models.BulkPayoutItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	payout.ID = r.seq
	copied := *payout
	for _, item := range items {
		item.BulkPayoutID = payout.ID
		copied.Items = append(copied.Items, *item)
	}
	r.payouts[payout.ID] = &copied
	return nil
}

func (r *fakePayoutRepo) GetByID(_ context.Context, id uint) (*models.BulkPayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payout, ok := r.payouts[id]
	if !ok {
		return nil, domain.ErrBulkPayoutNotFound
	}
	return payout, nil
}

func (r *fakePayoutRepo) PaidTotalsByVendor(_ context.Context, _ uint) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.paid))
	for k, v := range r.paid {
		out[k] = v
	}
	return out, nil
}
