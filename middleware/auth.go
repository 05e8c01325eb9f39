// middleware/auth.go
package middleware

import (
	"log"

	"club-platform/models"
	"club-platform/services"

	"github.com/gofiber/fiber/v2"
)

const (
	LocalUser   = "user"
	LocalUserID = "user_id"
	LocalRole   = "user_role"
)

// UserContextMiddleware resolves the gateway's identity headers to a local
// user, creating it on first login, and attaches it to the request.
func UserContextMiddleware(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		externalID := c.Get("X-User-ID")
		if externalID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
			})
		}

		user, err := users.EnsureUser(c.UserContext(), services.Identity{
			ExternalID:  externalID,
			DisplayName: c.Get("X-User-Name"),
			Email:       c.Get("X-User-Email"),
		})
		if err != nil {
			log.Printf("❌ [USER_CTX] cannot resolve user %s: %v", externalID, err)
			if services.KindOf(err) == services.KindValidation {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "user lookup failed"})
		}

		c.Locals(LocalUser, user)
		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalRole, user.Role)
		return c.Next()
	}
}

// RequireRole rejects callers below min. It must run after UserContextMiddleware.
func RequireRole(min models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalRole).(models.Role)
		if !role.AtLeast(min) {
			log.Printf("🚫 [ROLE] %s needs %s, caller is %q", c.Path(), min, role)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient role",
				"need":  min,
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the user attached by UserContextMiddleware.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(LocalUser).(*models.User)
	return u
}
