// middleware/auth.go
package middleware

import (
	"context"
	"log"
	"strings"

	"endotrack/models"

	"github.com/gofiber/fiber/v2"
)

// SessionResolver turns a session token into the signed-in account.
type SessionResolver interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// UserContextMiddleware requires a "Bearer <token>" Authorization header
// and stores the account id in c.Locals("user_id").
func UserContextMiddleware(auth SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			log.Printf("🚫 [USER_CTX] Missing session token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing session token",
			})
		}
		return attachUser(c, auth, token)
	}
}

func attachUser(c *fiber.Ctx, auth SessionResolver, token string) error {
	user, err := auth.CurrentUser(c.UserContext(), token)
	if err != nil {
		log.Printf("❌ [USER_CTX] Rejected session for %s: %v", c.Path(), err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid session",
		})
	}

	c.Locals("user_id", user.ID)
	c.Locals("user_email", user.Email)
	c.Locals("session_token", token)
	return c.Next()
}
