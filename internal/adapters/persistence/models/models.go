package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'DONOR'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Relief Ledger Tables
// ============================================================

// DisasterZone is a declared relief operating area with a funding ceiling.
// BudgetUsed counts only redemptions whose proof reached VERIFIED.
// All amounts across the ledger are minor currency units (satang/cents).
type DisasterZone struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"size:100;not null" json:"name"`
	CenterLat       float64        `gorm:"type:decimal(9,6);not null" json:"center_lat"`
	CenterLng       float64        `gorm:"type:decimal(9,6);not null" json:"center_lng"`
	RadiusKm        float64        `gorm:"type:decimal(8,2);not null" json:"radius_km"`
	Severity        string         `gorm:"size:20;not null" json:"severity"`
	Status          string         `gorm:"size:20;not null;default:'ACTIVE';index" json:"status"`
	BudgetAllocated int64          `gorm:"not null" json:"budget_allocated"`
	BudgetUsed      int64          `gorm:"not null;default:0" json:"budget_used"`
	DonationTotal   int64          `gorm:"not null;default:0" json:"donation_total"`
	IssuedTotal     int64          `gorm:"not null;default:0" json:"issued_total"`
	Version         uint           `gorm:"not null;default:0" json:"-"`
	ResolvedAt      *time.Time     `json:"resolved_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (DisasterZone) TableName() string {
	return "disaster_zones"
}

// AvailableBalance is the amount still issuable as vouchers:
// recorded donations minus voucher totals already minted against the zone.
func (z *DisasterZone) AvailableBalance() int64 {
	return z.DonationTotal - z.IssuedTotal
}

// ZoneResponse DTO
type ZoneResponse struct {
	ID              uint       `json:"id"`
	Name            string     `json:"name"`
	CenterLat       float64    `json:"center_lat"`
	CenterLng       float64    `json:"center_lng"`
	RadiusKm        float64    `json:"radius_km"`
	Severity        string     `json:"severity"`
	Status          string     `json:"status"`
	BudgetAllocated int64      `json:"budget_allocated"`
	BudgetUsed      int64      `json:"budget_used"`
	DonationTotal   int64      `json:"donation_total"`
	IssuedTotal     int64      `json:"issued_total"`
	Available       int64      `json:"available_balance"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (z *DisasterZone) ToResponse() *ZoneResponse {
	return &ZoneResponse{
		ID:              z.ID,
		Name:            z.Name,
		CenterLat:       z.CenterLat,
		CenterLng:       z.CenterLng,
		RadiusKm:        z.RadiusKm,
		Severity:        z.Severity,
		Status:          z.Status,
		BudgetAllocated: z.BudgetAllocated,
		BudgetUsed:      z.BudgetUsed,
		DonationTotal:   z.DonationTotal,
		IssuedTotal:     z.IssuedTotal,
		Available:       z.AvailableBalance(),
		ResolvedAt:      z.ResolvedAt,
		CreatedAt:       z.CreatedAt,
	}
}

// Donation is an append-only ledger row. Never updated or deleted.
type Donation struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ZoneID      uint      `gorm:"not null;index" json:"zone_id"`
	DonorRef    string    `gorm:"size:100;not null;index" json:"donor_ref"`
	Amount      int64     `gorm:"not null" json:"amount"`
	ExternalRef string    `gorm:"size:200" json:"external_ref"`
	ReceiptNo   string    `gorm:"size:40;uniqueIndex" json:"receipt_no"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Zone *DisasterZone `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
}

func (Donation) TableName() string {
	return "donations"
}

// Voucher is a bounded claim against a zone's funds, issued to one beneficiary.
// Code is the opaque presentation token vendors scan; lookups accept id or code.
type Voucher struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Code               string         `gorm:"size:40;uniqueIndex;not null" json:"code"`
	ZoneID             uint           `gorm:"not null;index" json:"zone_id"`
	BeneficiaryRef     string         `gorm:"size:100;not null;index" json:"beneficiary_ref"`
	TotalAmount        int64          `gorm:"not null" json:"total_amount"`
	RemainingBalance   int64          `gorm:"not null" json:"remaining_balance"`
	Category           string         `gorm:"size:50;not null" json:"category"`
	VendorRestrictions string         `gorm:"type:text" json:"-"`
	Status             string         `gorm:"size:30;not null;default:'ACTIVE';index" json:"status"`
	Version            uint           `gorm:"not null;default:0" json:"-"`
	IssuedAt           time.Time      `gorm:"not null" json:"issued_at"`
	ExpiresAt          time.Time      `gorm:"not null;index" json:"expires_at"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	Zone *DisasterZone `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
}

func (Voucher) TableName() string {
	return "vouchers"
}

// Restrictions decodes the allowed-vendor set. Empty slice = unrestricted.
func (v *Voucher) Restrictions() []string {
	if v.VendorRestrictions == "" {
		return nil
	}
	var refs []string
	if err := json.Unmarshal([]byte(v.VendorRestrictions), &refs); err != nil {
		return nil
	}
	return refs
}

// SetRestrictions encodes the allowed-vendor set
func (v *Voucher) SetRestrictions(refs []string) {
	if len(refs) == 0 {
		v.VendorRestrictions = ""
		return
	}
	b, _ := json.Marshal(refs)
	v.VendorRestrictions = string(b)
}

// AllowsVendor reports whether vendorRef may redeem this voucher
func (v *Voucher) AllowsVendor(vendorRef string) bool {
	refs := v.Restrictions()
	if len(refs) == 0 {
		return true
	}
	for _, r := range refs {
		if r == vendorRef {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the voucher accepts no further redemptions
func (v *Voucher) IsTerminal() bool {
	switch v.Status {
	case "REDEEMED", "EXPIRED", "REVOKED":
		return true
	}
	return false
}

// VoucherResponse DTO
type VoucherResponse struct {
	ID               uint      `json:"id"`
	Code             string    `json:"code"`
	ZoneID           uint      `json:"zone_id"`
	BeneficiaryRef   string    `json:"beneficiary_ref"`
	TotalAmount      int64     `json:"total_amount"`
	RemainingBalance int64     `json:"remaining_balance"`
	Category         string    `json:"category"`
	Restrictions     []string  `json:"vendor_restrictions,omitempty"`
	Status           string    `json:"status"`
	IssuedAt         time.Time `json:"issued_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

func (v *Voucher) ToResponse() *VoucherResponse {
	return &VoucherResponse{
		ID:               v.ID,
		Code:             v.Code,
		ZoneID:           v.ZoneID,
		BeneficiaryRef:   v.BeneficiaryRef,
		TotalAmount:      v.TotalAmount,
		RemainingBalance: v.RemainingBalance,
		Category:         v.Category,
		Restrictions:     v.Restrictions(),
		Status:           v.Status,
		IssuedAt:         v.IssuedAt,
		ExpiresAt:        v.ExpiresAt,
	}
}

// RedemptionTransaction records one vendor claim against a voucher.
// Immutable once COMPLETED or FAILED, except for the linked proof.
// IdempotencyKey is unique per vendor so replays return the original outcome.
type RedemptionTransaction struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	VoucherID      uint      `gorm:"not null;index" json:"voucher_id"`
	VendorRef      string    `gorm:"size:100;not null;index;uniqueIndex:idx_vendor_idem,priority:1" json:"vendor_ref"`
	Amount         int64     `gorm:"not null" json:"amount"`
	Status         string    `gorm:"size:20;not null;index" json:"status"`
	IdempotencyKey string    `gorm:"size:100;not null;uniqueIndex:idx_vendor_idem,priority:2" json:"idempotency_key"`
	FailReason     string    `gorm:"size:200" json:"fail_reason,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	Voucher *Voucher `gorm:"foreignKey:VoucherID" json:"voucher,omitempty"`
}

func (RedemptionTransaction) TableName() string {
	return "redemption_transactions"
}

// ProofOfAid holds post-redemption evidence. Exactly one per transaction.
// MediaRefs are opaque content identifiers; the ledger never stores media bytes.
type ProofOfAid struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TransactionID uint      `gorm:"not null;uniqueIndex" json:"transaction_id"`
	MediaRefs     string    `gorm:"type:text" json:"-"`
	Description   string    `gorm:"type:text" json:"description"`
	Location      string    `gorm:"size:200" json:"location"`
	Status        string    `gorm:"size:20;not null;default:'SUBMITTED';index" json:"status"`
	StaleReported bool      `gorm:"not null;default:false" json:"stale_reported"`
	SubmittedAt   time.Time `gorm:"not null;index" json:"submitted_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Transaction *RedemptionTransaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
}

func (ProofOfAid) TableName() string {
	return "proofs_of_aid"
}

// Media decodes the content reference list
func (p *ProofOfAid) Media() []string {
	if p.MediaRefs == "" {
		return nil
	}
	var refs []string
	if err := json.Unmarshal([]byte(p.MediaRefs), &refs); err != nil {
		return nil
	}
	return refs
}

// SetMedia encodes the content reference list
func (p *ProofOfAid) SetMedia(refs []string) {
	if len(refs) == 0 {
		p.MediaRefs = ""
		return
	}
	b, _ := json.Marshal(refs)
	p.MediaRefs = string(b)
}

// ProofResponse DTO
type ProofResponse struct {
	ID            uint       `json:"id"`
	TransactionID uint       `json:"transaction_id"`
	MediaRefs     []string   `json:"media_refs,omitempty"`
	Description   string     `json:"description"`
	Location      string     `json:"location"`
	Status        string     `json:"status"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

func (p *ProofOfAid) ToResponse() *ProofResponse {
	return &ProofResponse{
		ID:            p.ID,
		TransactionID: p.TransactionID,
		MediaRefs:     p.Media(),
		Description:   p.Description,
		Location:      p.Location,
		Status:        p.Status,
		SubmittedAt:   p.SubmittedAt,
		ResolvedAt:    p.ResolvedAt,
	}
}

// VerificationRecord is one verifier role's decision on a proof.
// Unique per (proof, role); a role resubmitting overwrites its own prior record.
type VerificationRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProofID      uint      `gorm:"not null;index;uniqueIndex:idx_proof_role,priority:1" json:"proof_id"`
	VerifierRole string    `gorm:"size:20;not null;uniqueIndex:idx_proof_role,priority:2" json:"verifier_role"`
	VerifierID   uint      `gorm:"not null" json:"verifier_id"`
	Decision     string    `gorm:"size:10;not null" json:"decision"`
	Confidence   int       `gorm:"not null" json:"confidence"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Proof *ProofOfAid `gorm:"foreignKey:ProofID" json:"proof,omitempty"`
}

func (VerificationRecord) TableName() string {
	return "verification_records"
}

// BulkPayout is a government disbursement batch, committed all-or-nothing.
type BulkPayout struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ZoneID      uint      `gorm:"not null;index" json:"zone_id"`
	Description string    `gorm:"type:text" json:"description"`
	TotalAmount int64     `gorm:"not null" json:"total_amount"`
	RowCount    int       `gorm:"not null" json:"row_count"`
	Status      string    `gorm:"size:20;not null;default:'COMMITTED'" json:"status"`
	CreatedBy   uint      `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Zone  *DisasterZone    `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
	Items []BulkPayoutItem `gorm:"foreignKey:BulkPayoutID" json:"items,omitempty"`
}

func (BulkPayout) TableName() string {
	return "bulk_payouts"
}

// BulkPayoutItem is one recipient row within a committed batch
type BulkPayoutItem struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BulkPayoutID  uint      `gorm:"not null;index" json:"bulk_payout_id"`
	RowIndex      int       `gorm:"not null" json:"row_index"`
	VendorRef     string    `gorm:"size:100;not null;index" json:"vendor_ref"`
	Amount        int64     `gorm:"not null" json:"amount"`
	ReferenceNote string    `gorm:"size:200" json:"reference_note"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (BulkPayoutItem) TableName() string {
	return "bulk_payout_items"
}

// AuditLog is the append-only trail behind every mutating operation
type AuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Action      string    `gorm:"size:50;not null;index" json:"action"`
	EntityType  string    `gorm:"size:50;not null" json:"entity_type"`
	EntityID    uint      `gorm:"not null;index" json:"entity_id"`
	Amount      *int64    `json:"amount,omitempty"`
	Description string    `gorm:"type:text" json:"description"`
	PerformedBy uint      `gorm:"not null" json:"performed_by"`
	ActorRole   string    `gorm:"size:20" json:"actor_role"`
	IPAddress   string    `gorm:"size:50" json:"ip_address"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit actions
const (
	AuditZoneCreate       = "ZONE_CREATE"
	AuditZoneResolve      = "ZONE_RESOLVE"
	AuditDonationRecord   = "DONATION_RECORD"
	AuditVoucherIssue     = "VOUCHER_ISSUE"
	AuditVoucherRevoke    = "VOUCHER_REVOKE"
	AuditRedemption       = "REDEMPTION"
	AuditProofSubmit      = "PROOF_SUBMIT"
	AuditVerification     = "VERIFICATION"
	AuditBulkPayoutCreate = "BULK_PAYOUT_CREATE"
	AuditRoleChange       = "ROLE_CHANGE"
)

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all ledger tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Auth
		&User{},
		&RefreshToken{},
		// Ledger
		&DisasterZone{},
		&Donation{},
		&Voucher{},
		&RedemptionTransaction{},
		&ProofOfAid{},
		&VerificationRecord{},
		&BulkPayout{},
		&BulkPayoutItem{},
		&AuditLog{},
	)
}
