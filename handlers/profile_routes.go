// handlers/profile_routes.go
package handlers

import (
	"endotrack/middleware"
	"endotrack/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(app *fiber.App, auth middleware.SessionResolver, profileService *services.ProfileService) {
	// EventSource cannot send headers, so the stream authenticates by query.
	app.Get("/profile/endolots/stream", middleware.SSEAuthMiddleware(auth), profileService.StreamBalanceSSE)

	profile := app.Group("/profile", middleware.UserContextMiddleware(auth))

	profile.Get("/", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		p, err := profileService.EnsureProfile(c.UserContext(), userID, c.Locals("user_email").(string))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"profile": p,
			"styles":  p.Character.Avatar.Styles(),
		})
	})

	profile.Patch("/", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req services.ProfileUpdate
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		p, err := profileService.Update(c.UserContext(), userID, req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"profile": p})
	})
}
