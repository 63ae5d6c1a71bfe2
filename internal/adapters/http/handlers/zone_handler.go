package handlers

import (
	"errors"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/core/domain"
	"aidledger/internal/core/services"
	"aidledger/internal/pkg/pagination"
	"aidledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ZoneHandler handles disaster zone endpoints
type ZoneHandler struct {
	zoneService *services.ZoneService
}

// NewZoneHandler creates a new zone handler
func NewZoneHandler(zoneService *services.ZoneService) *ZoneHandler {
	return &ZoneHandler{zoneService: zoneService}
}

// CreateZoneRequest represents zone creation request body
type CreateZoneRequest struct {
	Name            string  `json:"name"`
	CenterLat       float64 `json:"center_lat"`
	CenterLng       float64 `json:"center_lng"`
	RadiusKm        float64 `json:"radius_km"`
	BudgetAllocated int64   `json:"budget_allocated"`
	Severity        string  `json:"severity"`
}

// Create declares a new disaster zone
// @Summary Create disaster zone
// @Description Declare a zone with a geo boundary, severity and budget allocation in minor currency units
// @Tags Zones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateZoneRequest true "Zone data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /zones [post]
func (h *ZoneHandler) Create(c *fiber.Ctx) error {
	var req CreateZoneRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.CreateZoneInput{
		Name:            req.Name,
		CenterLat:       req.CenterLat,
		CenterLng:       req.CenterLng,
		RadiusKm:        req.RadiusKm,
		BudgetAllocated: req.BudgetAllocated,
		Severity:        req.Severity,
	}

	zone, err := h.zoneService.Create(c.Context(), input, getActor(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidZoneParameters):
			return response.BadRequest(c, "Invalid zone parameters")
		default:
			return response.InternalServerError(c, "Failed to create zone")
		}
	}

	return response.Created(c, "Zone created successfully", fiber.Map{
		"zone": zone.ToResponse(),
	})
}

// Resolve closes a zone. Existing vouchers keep redeeming until expiry;
// new donations and issuances are refused.
// @Summary Resolve disaster zone
// @Tags Zones
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /zones/{id}/resolve [post]
func (h *ZoneHandler) Resolve(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid zone ID")
	}

	zone, err := h.zoneService.Resolve(c.Context(), id, getActor(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrZoneNotFound):
			return response.NotFound(c, "Zone not found")
		case errors.Is(err, domain.ErrZoneAlreadyResolved):
			return response.Conflict(c, "Zone already resolved")
		case errors.Is(err, domain.ErrStaleAggregate):
			return response.Conflict(c, "Zone was modified concurrently, please retry")
		default:
			return response.InternalServerError(c, "Failed to resolve zone")
		}
	}

	return response.Success(c, "Zone resolved successfully", fiber.Map{
		"zone": zone.ToResponse(),
	})
}

// Get returns a single zone with its running totals
// @Summary Get zone by ID
// @Tags Zones
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /zones/{id} [get]
func (h *ZoneHandler) Get(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid zone ID")
	}

	zone, err := h.zoneService.GetByID(c.Context(), id)
	if err != nil {
		return response.NotFound(c, "Zone not found")
	}

	return response.Success(c, "Zone retrieved successfully", fiber.Map{
		"zone": zone.ToResponse(),
	})
}

// List returns zones, optionally filtered by status
// @Summary List disaster zones
// @Tags Zones
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (ACTIVE or RESOLVED)"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /zones [get]
func (h *ZoneHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	status := c.Query("status")

	zones, total, err := h.zoneService.List(c.Context(), status, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list zones")
	}

	items := make([]*models.ZoneResponse, 0, len(zones))
	for _, z := range zones {
		items = append(items, z.ToResponse())
	}

	return response.Success(c, "Zones retrieved successfully", pagination.NewResponse(items, params, total))
}
