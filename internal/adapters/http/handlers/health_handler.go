package handlers

import (
	"aidledger/internal/config"
	"aidledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health and info endpoints
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Root handles the root endpoint
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return response.Success(c, "Aid voucher ledger API", fiber.Map{
		"name":    "aidledger",
		"version": "1.0.0",
	})
}

// HealthCheck reports service and database health
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	if err := config.HealthCheck(); err != nil {
		return response.Error(c, fiber.StatusServiceUnavailable, "Database unavailable")
	}

	return response.Success(c, "OK", fiber.Map{
		"status": "healthy",
	})
}

// APIInfo returns basic API info
// @Summary API info
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Router / [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return response.Success(c, "Aid voucher ledger API v1", fiber.Map{
		"endpoints": []string{
			"/api/v1/auth",
			"/api/v1/zones",
			"/api/v1/donations",
			"/api/v1/vouchers",
			"/api/v1/redemptions",
			"/api/v1/proofs",
			"/api/v1/payouts",
			"/api/v1/reports",
		},
	})
}
