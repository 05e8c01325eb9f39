// middleware/gateway.go
package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// HeaderServiceToken carries the shared secret on service-to-service calls
// that do not go through the gateway's Authorization rewrite.
const HeaderServiceToken = "X-Service-Token"

// GatewayAuthMiddleware admits only requests carrying the gateway's shared
// token. Identity headers are trusted only behind it.
func GatewayAuthMiddleware(expectedToken string) fiber.Handler {
	if expectedToken == "" {
		log.Fatal("❌ GATEWAY_TOKEN is not set, refusing to start without gateway auth")
	}
	expected := []byte(expectedToken)

	return func(c *fiber.Ctx) error {
		token, source := presentedToken(c)
		if token == "" {
			log.Printf("🚫 [GATEWAY_AUTH] no token on %s %s", c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
				"code":  "GATEWAY_TOKEN_MISSING",
			})
		}
		if subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
			log.Printf("❌ [GATEWAY_AUTH] bad %s token on %s %s", source, c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
				"code":  "GATEWAY_TOKEN_INVALID",
			})
		}
		return c.Next()
	}
}

// presentedToken reads "Authorization: Bearer <t>" (scheme case-insensitive,
// bare token accepted) and falls back to X-Service-Token.
func presentedToken(c *fiber.Ctx) (token, source string) {
	if auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); auth != "" {
		if scheme, rest, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(rest), "bearer"
		}
		return auth, "authorization"
	}
	return strings.TrimSpace(c.Get(HeaderServiceToken)), "service"
}
