// middleware/sse_auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SSEAuthMiddleware reads the session token from the `token` query param,
// since EventSource cannot send headers.
//
// Usage:
//
//	app.Get("/profile/endolots/stream", middleware.SSEAuthMiddleware(authService), profileService.StreamBalanceSSE)
func SSEAuthMiddleware(auth SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			log.Printf("[SSEAuth] ❌ Missing token query param for %s", c.Path())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing token in query",
			})
		}
		return attachUser(c, auth, token)
	}
}
