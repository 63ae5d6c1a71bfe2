package handlers

import (
	"errors"

	"aidledger/internal/core/domain"
	"aidledger/internal/core/services"
	"aidledger/internal/pkg/pagination"
	"aidledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DonationHandler handles donation endpoints
type DonationHandler struct {
	donationService *services.DonationService
}

// NewDonationHandler creates a new donation handler
func NewDonationHandler(donationService *services.DonationService) *DonationHandler {
	return &DonationHandler{donationService: donationService}
}

// RecordDonationRequest represents donation request body.
// Amount is in minor currency units.
type RecordDonationRequest struct {
	ZoneID      uint   `json:"zone_id"`
	DonorRef    string `json:"donor_ref"`
	Amount      int64  `json:"amount"`
	ExternalRef string `json:"external_ref"`
}

// Record books a donation against an active zone
// @Summary Record donation
// @Description Record a donation to a zone and return its receipt number
// @Tags Donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RecordDonationRequest true "Donation data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /donations [post]
func (h *DonationHandler) Record(c *fiber.Ctx) error {
	var req RecordDonationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.ZoneID == 0 {
		return response.BadRequest(c, "Zone ID is required")
	}
	if req.DonorRef == "" {
		return response.BadRequest(c, "Donor reference is required")
	}

	input := &services.RecordDonationInput{
		ZoneID:      req.ZoneID,
		DonorRef:    req.DonorRef,
		Amount:      req.Amount,
		ExternalRef: req.ExternalRef,
	}

	donation, err := h.donationService.Record(c.Context(), input, getActor(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrZoneNotFound):
			return response.NotFound(c, "Zone not found")
		case errors.Is(err, domain.ErrZoneNotActive):
			return response.Conflict(c, "Zone is not accepting donations")
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Amount must be greater than zero")
		case errors.Is(err, domain.ErrStaleAggregate):
			return response.Conflict(c, "Zone was modified concurrently, please retry")
		default:
			return response.InternalServerError(c, "Failed to record donation")
		}
	}

	return response.Created(c, "Donation recorded successfully", fiber.Map{
		"donation": donation,
	})
}

// ListByZone returns a zone's donations
// @Summary List zone donations
// @Tags Donations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /zones/{id}/donations [get]
func (h *DonationHandler) ListByZone(c *fiber.Ctx) error {
	zoneID, err := paramUint(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid zone ID")
	}

	params := pagination.GetParams(c)

	donations, total, err := h.donationService.ListByZone(c.Context(), zoneID, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list donations")
	}

	return response.Success(c, "Donations retrieved successfully", pagination.NewResponse(donations, params, total))
}
