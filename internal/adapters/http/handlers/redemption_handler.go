package handlers

import (
	"errors"

	"aidledger/internal/core/domain"
	"aidledger/internal/core/services"
	"aidledger/internal/pkg/pagination"
	"aidledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RedemptionHandler handles voucher redemption endpoints
type RedemptionHandler struct {
	redemptionService *services.RedemptionService
	voucherService    *services.VoucherService
}

// NewRedemptionHandler creates a new redemption handler
func NewRedemptionHandler(redemptionService *services.RedemptionService, voucherService *services.VoucherService) *RedemptionHandler {
	return &RedemptionHandler{
		redemptionService: redemptionService,
		voucherService:    voucherService,
	}
}

// RedeemRequest represents redemption request body. The voucher may be
// addressed by numeric id or by its code token. The idempotency key is
// scoped per vendor; replaying it returns the original outcome.
type RedeemRequest struct {
	VoucherID      uint   `json:"voucher_id"`
	VoucherCode    string `json:"voucher_code"`
	VendorRef      string `json:"vendor_ref"`
	Amount         int64  `json:"amount"`
	IdempotencyKey string `json:"idempotency_key"`
}

// Redeem settles a vendor claim against a voucher
// @Summary Redeem voucher
// @Description Debit a voucher for a vendor claim and settle synchronously
// @Tags Redemptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RedeemRequest true "Redemption data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /redemptions [post]
func (h *RedemptionHandler) Redeem(c *fiber.Ctx) error {
	var req RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.VendorRef == "" {
		return response.BadRequest(c, "Vendor reference is required")
	}
	if req.IdempotencyKey == "" {
		return response.BadRequest(c, "Idempotency key is required")
	}

	voucherID := req.VoucherID
	if voucherID == 0 {
		if req.VoucherCode == "" {
			return response.BadRequest(c, "Voucher ID or code is required")
		}
		voucher, err := h.voucherService.GetByCode(c.Context(), req.VoucherCode)
		if err != nil {
			return response.NotFound(c, "Voucher not found")
		}
		voucherID = voucher.ID
	}

	input := &services.RedeemInput{
		VoucherID:      voucherID,
		VendorRef:      req.VendorRef,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
	}

	tx, err := h.redemptionService.Redeem(c.Context(), input, getActor(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrVoucherNotFound):
			return response.NotFound(c, "Voucher not found")
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Amount must be greater than zero")
		case errors.Is(err, domain.ErrVoucherExpired):
			return response.Conflict(c, "Voucher has expired")
		case errors.Is(err, domain.ErrVoucherRevoked):
			return response.Conflict(c, "Voucher has been revoked")
		case errors.Is(err, domain.ErrVoucherRedeemed):
			return response.Conflict(c, "Voucher is fully redeemed")
		case errors.Is(err, domain.ErrVendorNotAuthorized):
			return response.Forbidden(c, "Vendor is not authorized for this voucher")
		case errors.Is(err, domain.ErrInsufficientVoucherBalance):
			// The failed attempt is recorded; surface it so the vendor
			// can reconcile against the idempotency key.
			return response.ErrorWithDetails(c, fiber.StatusConflict,
				"Insufficient voucher balance", fiber.Map{"transaction": tx})
		case errors.Is(err, domain.ErrStaleAggregate):
			return response.Conflict(c, "Voucher was modified concurrently, please retry")
		default:
			return response.InternalServerError(c, "Failed to redeem voucher")
		}
	}

	return response.Created(c, "Redemption completed successfully", fiber.Map{
		"transaction": tx,
	})
}

// Get returns a single redemption transaction
// @Summary Get redemption by ID
// @Tags Redemptions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /redemptions/{id} [get]
func (h *RedemptionHandler) Get(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	tx, err := h.redemptionService.GetByID(c.Context(), id)
	if err != nil {
		return response.NotFound(c, "Transaction not found")
	}

	return response.Success(c, "Transaction retrieved successfully", fiber.Map{
		"transaction": tx,
	})
}

// ListByVendor returns a vendor's redemption history
// @Summary List vendor redemptions
// @Tags Redemptions
// @Produce json
// @Security BearerAuth
// @Param vendor_ref query string true "Vendor reference"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /redemptions [get]
func (h *RedemptionHandler) ListByVendor(c *fiber.Ctx) error {
	vendorRef := c.Query("vendor_ref")
	if vendorRef == "" {
		return response.BadRequest(c, "Vendor reference is required")
	}

	params := pagination.GetParams(c)

	txs, total, err := h.redemptionService.ListByVendor(c.Context(), vendorRef, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list redemptions")
	}

	return response.Success(c, "Redemptions retrieved successfully", pagination.NewResponse(txs, params, total))
}
