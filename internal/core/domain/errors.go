package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrStaleAggregate     = errors.New("aggregate modified concurrently")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrInvalidRole       = errors.New("invalid role")
)

// Zone errors
var (
	ErrZoneNotFound          = errors.New("zone not found")
	ErrInvalidZoneParameters = errors.New("invalid zone parameters")
	ErrZoneAlreadyResolved   = errors.New("zone already resolved")
	ErrZoneNotActive         = errors.New("zone not active")
)

// Donation errors
var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
)

// Voucher errors
var (
	ErrVoucherNotFound         = errors.New("voucher not found")
	ErrInsufficientZoneBalance = errors.New("insufficient zone balance")
	ErrVoucherExpired          = errors.New("voucher expired")
	ErrVoucherRevoked          = errors.New("voucher revoked")
	ErrVoucherRedeemed         = errors.New("voucher fully redeemed")
	ErrVoucherNotRevocable     = errors.New("voucher is in a terminal state")
)

// Redemption errors
var (
	ErrVendorNotAuthorized        = errors.New("vendor not authorized for this voucher")
	ErrInsufficientVoucherBalance = errors.New("insufficient voucher balance")
	ErrTransactionNotFound        = errors.New("redemption transaction not found")
)

// Proof & verification errors
var (
	ErrProofNotFound          = errors.New("proof not found")
	ErrProofAlreadySubmitted  = errors.New("proof already submitted for this transaction")
	ErrTransactionNotEligible = errors.New("transaction not eligible for proof submission")
	ErrProofAlreadyResolved   = errors.New("proof already verified or rejected")
	ErrInvalidVerifierRole    = errors.New("role may not submit verifications")
	ErrInvalidConfidence      = errors.New("confidence must be between 0 and 100")
	ErrZoneBudgetExceeded     = errors.New("verification would exceed zone budget allocation")
)

// Bulk payout errors
var (
	ErrBulkPayoutNotFound = errors.New("bulk payout not found")
	ErrBulkPayoutEmpty    = errors.New("bulk payout batch is empty")
)

// RowError describes a single invalid row in a bulk payout batch
type RowError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// BulkPayoutValidationError rejects an entire batch, reporting the offending rows.
// No rows are applied when this error is returned.
type BulkPayoutValidationError struct {
	Rows []RowError
}

func (e *BulkPayoutValidationError) Error() string {
	return fmt.Sprintf("bulk payout validation failed: %d invalid row(s)", len(e.Rows))
}

// IsBulkPayoutValidation extracts a BulkPayoutValidationError from err, if any
func IsBulkPayoutValidation(err error) (*BulkPayoutValidationError, bool) {
	var ve *BulkPayoutValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
