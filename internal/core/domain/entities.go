package domain

import "time"

// Role represents a caller role in the system
type Role string

const (
	RoleDonor      Role = "DONOR"
	RoleVictim     Role = "VICTIM"
	RoleVendor     Role = "VENDOR"
	RoleGovernment Role = "GOVERNMENT"
	RoleOracle     Role = "ORACLE"
	RoleTreasury   Role = "TREASURY"
	RoleAdmin      Role = "ADMIN"
)

// AllRoles lists every role accepted by the platform
var AllRoles = []Role{
	RoleDonor, RoleVictim, RoleVendor,
	RoleGovernment, RoleOracle, RoleTreasury, RoleAdmin,
}

// IsValidRole reports whether r is a known role
func IsValidRole(r string) bool {
	for _, role := range AllRoles {
		if string(role) == r {
			return true
		}
	}
	return false
}

// User represents an authenticated platform user in the domain layer
type User struct {
	ID        uint
	Username  string
	Email     string
	Password  string // Hashed
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RefreshToken represents a refresh token in the domain
type RefreshToken struct {
	ID        uint
	UserID    uint
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// GeoBoundary is a circular operating area: center point + radius in kilometers
type GeoBoundary struct {
	CenterLat float64
	CenterLng float64
	RadiusKm  float64
}

// Valid reports whether the boundary is a usable center+radius
func (g GeoBoundary) Valid() bool {
	if g.CenterLat < -90 || g.CenterLat > 90 {
		return false
	}
	if g.CenterLng < -180 || g.CenterLng > 180 {
		return false
	}
	return g.RadiusKm > 0
}

// Zone statuses
const (
	ZoneStatusActive   = "ACTIVE"
	ZoneStatusResolved = "RESOLVED"
)

// Zone severities
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// IsValidSeverity reports whether s is a known severity level
func IsValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Voucher statuses
const (
	VoucherStatusActive            = "ACTIVE"
	VoucherStatusPartiallyRedeemed = "PARTIALLY_REDEEMED"
	VoucherStatusRedeemed          = "REDEEMED"
	VoucherStatusExpired           = "EXPIRED"
	VoucherStatusRevoked           = "REVOKED"
)

// Redemption transaction statuses
const (
	RedemptionStatusInitiated = "INITIATED"
	RedemptionStatusPending   = "PENDING"
	RedemptionStatusCompleted = "COMPLETED"
	RedemptionStatusFailed    = "FAILED"
)

// Proof-of-aid statuses
const (
	ProofStatusSubmitted = "SUBMITTED"
	ProofStatusVerified  = "VERIFIED"
	ProofStatusRejected  = "REJECTED"
)

// Verification decisions
const (
	DecisionApprove = "APPROVE"
	DecisionReject  = "REJECT"
)

// Bulk payout statuses
const (
	BulkPayoutStatusCommitted = "COMMITTED"
	BulkPayoutStatusDisbursed = "DISBURSED"
)
