package handlers

import (
	"strconv"

	"aidledger/internal/core/domain"
	"aidledger/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// getClientIP gets client IP address
func getClientIP(c *fiber.Ctx) string {
	ip := c.Get("X-Real-IP")
	if ip == "" {
		ip = c.Get("X-Forwarded-For")
	}
	if ip == "" {
		ip = c.IP()
	}
	return ip
}

// getActor builds the acting identity from the authenticated context
func getActor(c *fiber.Ctx) services.Actor {
	userID, _ := c.Locals("userID").(uint)
	role, _ := c.Locals("role").(string)
	return services.Actor{
		UserID: userID,
		Role:   domain.Role(role),
		IP:     getClientIP(c),
	}
}

// paramUint parses a numeric path parameter
func paramUint(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

// queryUint parses a numeric query parameter, 0 when absent
func queryUint(c *fiber.Ctx, name string) uint {
	v, _ := strconv.ParseUint(c.Query(name, "0"), 10, 32)
	return uint(v)
}
