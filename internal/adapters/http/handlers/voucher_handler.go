package handlers

import (
	"errors"
	"strconv"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/core/domain"
	"aidledger/internal/core/services"
	"aidledger/internal/pkg/pagination"
	"aidledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// VoucherHandler handles voucher endpoints
type VoucherHandler struct {
	voucherService    *services.VoucherService
	redemptionService *services.RedemptionService
}

// NewVoucherHandler creates a new voucher handler
func NewVoucherHandler(voucherService *services.VoucherService, redemptionService *services.RedemptionService) *VoucherHandler {
	return &VoucherHandler{
		voucherService:    voucherService,
		redemptionService: redemptionService,
	}
}

// IssueVoucherRequest represents voucher issuance request body.
// Amount is in minor currency units. An empty vendor_restrictions list
// means any vendor may redeem.
type IssueVoucherRequest struct {
	ZoneID             uint     `json:"zone_id"`
	BeneficiaryRef     string   `json:"beneficiary_ref"`
	Amount             int64    `json:"amount"`
	Category           string   `json:"category"`
	VendorRestrictions []string `json:"vendor_restrictions"`
	TTLHours           int      `json:"ttl_hours"`
}

// Issue issues a voucher against a zone's donated funds
// @Summary Issue voucher
// @Description Issue a voucher to a beneficiary, debiting the zone's available balance
// @Tags Vouchers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body IssueVoucherRequest true "Voucher data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /vouchers [post]
func (h *VoucherHandler) Issue(c *fiber.Ctx) error {
	var req IssueVoucherRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.ZoneID == 0 {
		return response.BadRequest(c, "Zone ID is required")
	}
	if req.BeneficiaryRef == "" {
		return response.BadRequest(c, "Beneficiary reference is required")
	}
	if req.Category == "" {
		return response.BadRequest(c, "Category is required")
	}

	input := &services.IssueVoucherInput{
		ZoneID:             req.ZoneID,
		BeneficiaryRef:     req.BeneficiaryRef,
		Amount:             req.Amount,
		Category:           req.Category,
		VendorRestrictions: req.VendorRestrictions,
		TTLHours:           req.TTLHours,
	}

	voucher, err := h.voucherService.Issue(c.Context(), input, getActor(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrZoneNotFound):
			return response.NotFound(c, "Zone not found")
		case errors.Is(err, domain.ErrZoneNotActive):
			return response.Conflict(c, "Zone is not active")
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Amount must be greater than zero")
		case errors.Is(err, domain.ErrInsufficientZoneBalance):
			return response.Conflict(c, "Insufficient zone balance")
		case errors.Is(err, domain.ErrStaleAggregate):
			return response.Conflict(c, "Zone was modified concurrently, please retry")
		default:
			return response.InternalServerError(c, "Failed to issue voucher")
		}
	}

	return response.Created(c, "Voucher issued successfully", fiber.Map{
		"voucher": voucher.ToResponse(),
	})
}

// Revoke revokes an outstanding voucher
// @Summary Revoke voucher
// @Description Revoke a voucher so no further redemptions are accepted. Already settled redemptions stand.
// @Tags Vouchers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Voucher ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /vouchers/{id}/revoke [post]
func (h *VoucherHandler) Revoke(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid voucher ID")
	}

	voucher, err := h.voucherService.Revoke(c.Context(), id, getActor(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrVoucherNotFound):
			return response.NotFound(c, "Voucher not found")
		case errors.Is(err, domain.ErrVoucherNotRevocable):
			return response.Conflict(c, "Voucher is already in a terminal state")
		case errors.Is(err, domain.ErrStaleAggregate):
			return response.Conflict(c, "Voucher was modified concurrently, please retry")
		default:
			return response.InternalServerError(c, "Failed to revoke voucher")
		}
	}

	return response.Success(c, "Voucher revoked successfully", fiber.Map{
		"voucher": voucher.ToResponse(),
	})
}

// Get returns a voucher by numeric ID or by its code token
// @Summary Get voucher
// @Tags Vouchers
// @Produce json
// @Security BearerAuth
// @Param ref path string true "Voucher ID or code"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /vouchers/{ref} [get]
func (h *VoucherHandler) Get(c *fiber.Ctx) error {
	ref := c.Params("ref")

	var (
		voucher *models.Voucher
		err     error
	)
	if id, perr := strconv.ParseUint(ref, 10, 32); perr == nil {
		voucher, err = h.voucherService.GetByID(c.Context(), uint(id))
	} else {
		voucher, err = h.voucherService.GetByCode(c.Context(), ref)
	}
	if err != nil {
		return response.NotFound(c, "Voucher not found")
	}

	return response.Success(c, "Voucher retrieved successfully", fiber.Map{
		"voucher": voucher.ToResponse(),
	})
}

// List returns vouchers filtered by zone and/or beneficiary
// @Summary List vouchers
// @Tags Vouchers
// @Produce json
// @Security BearerAuth
// @Param zone_id query int false "Filter by zone"
// @Param beneficiary_ref query string false "Filter by beneficiary"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /vouchers [get]
func (h *VoucherHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	zoneID := queryUint(c, "zone_id")
	beneficiaryRef := c.Query("beneficiary_ref")

	vouchers, total, err := h.voucherService.List(c.Context(), zoneID, beneficiaryRef, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list vouchers")
	}

	items := make([]*models.VoucherResponse, 0, len(vouchers))
	for _, v := range vouchers {
		items = append(items, v.ToResponse())
	}

	return response.Success(c, "Vouchers retrieved successfully", pagination.NewResponse(items, params, total))
}

// ListRedemptions returns a voucher's redemption history
// @Summary List voucher redemptions
// @Tags Vouchers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Voucher ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /vouchers/{id}/redemptions [get]
func (h *VoucherHandler) ListRedemptions(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid voucher ID")
	}

	if _, err := h.voucherService.GetByID(c.Context(), id); err != nil {
		return response.NotFound(c, "Voucher not found")
	}

	txs, err := h.redemptionService.ListByVoucher(c.Context(), id)
	if err != nil {
		return response.InternalServerError(c, "Failed to list redemptions")
	}

	return response.Success(c, "Redemptions retrieved successfully", fiber.Map{
		"transactions": txs,
	})
}
