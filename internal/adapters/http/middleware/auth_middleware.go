package middleware

import (
	"strings"

	"aidledger/internal/config"
	"aidledger/internal/core/domain"
	"aidledger/internal/pkg/jwt"
	"aidledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		// 1. Try to get token from cookie first
		accessToken = c.Cookies("access_token")

		// 2. If not in cookie, try Authorization header
		if accessToken == "" {
			authHeader := c.Get("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				accessToken = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		// 3. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 4. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 5. Set user info in context
		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware. Authorization is
// checked before any state is touched; a wrong role never reaches a handler.
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowed := range allowedRoles {
			if role == string(allowed) {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly allows only ADMIN
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// GovernmentOrAdmin allows GOVERNMENT or ADMIN
func GovernmentOrAdmin() fiber.Handler {
	return RoleMiddleware(domain.RoleGovernment, domain.RoleAdmin)
}

// VendorOnly allows only VENDOR
func VendorOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleVendor)
}

// DonorRoles allows the roles that may record donations
func DonorRoles() fiber.Handler {
	return RoleMiddleware(domain.RoleDonor, domain.RoleTreasury, domain.RoleAdmin)
}

// VerifierOnly allows the verification quorum roles
func VerifierOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleOracle, domain.RoleGovernment)
}

// ReporterRoles allows the roles that may read payout/audit reports
func ReporterRoles() fiber.Handler {
	return RoleMiddleware(domain.RoleGovernment, domain.RoleTreasury, domain.RoleAdmin)
}

// StaleProofRoles allows the roles that may read the stale-proof listing
func StaleProofRoles() fiber.Handler {
	return RoleMiddleware(domain.RoleGovernment, domain.RoleOracle, domain.RoleAdmin)
}
