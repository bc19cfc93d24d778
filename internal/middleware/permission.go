package middleware

import (
	"slices"

	"notisync/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// RequireCapability checks that the authenticated owner holds a capability
// before the handler runs.
func RequireCapability(capability string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if !slices.Contains(claims.Capabilities, capability) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Insufficient permissions",
			})
		}

		return c.Next()
	}
}
