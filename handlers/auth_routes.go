// handlers/auth_routes.go
package handlers

import (
	"endotrack/middleware"
	"endotrack/services"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService, profileService *services.ProfileService) {
	authGroup := app.Group("/auth")

	authGroup.Post("/register", func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		user, err := authService.Register(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return respondError(c, err)
		}
		profile, err := profileService.EnsureProfile(c.UserContext(), user.ID, user.Email)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"user":    user,
			"profile": profile,
		})
	})

	authGroup.Post("/login", func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		token, user, err := authService.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"token": token, "user": user})
	})

	requireSession := middleware.UserContextMiddleware(authService)

	authGroup.Post("/logout", requireSession, func(c *fiber.Ctx) error {
		if err := authService.Logout(c.UserContext(), c.Locals("session_token").(string)); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	authGroup.Get("/me", requireSession, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"id":    c.Locals("user_id").(string),
			"email": c.Locals("user_email").(string),
		})
	})
}
