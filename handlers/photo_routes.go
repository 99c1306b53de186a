// handlers/photo_routes.go
package handlers

import (
	"io"

	"endotrack/middleware"
	"endotrack/services"

	"github.com/gofiber/fiber/v2"
)

// maxPhotoSize caps a single upload.
const maxPhotoSize = 10 * 1024 * 1024

func SetupPhotoRoutes(app *fiber.App, auth middleware.SessionResolver, photoService *services.PhotoService) {
	photos := app.Group("/photos", middleware.UserContextMiddleware(auth))

	photos.Get("/", func(c *fiber.Ctx) error {
		list, err := photoService.List(c.UserContext(), c.Locals("user_id").(string))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"photos": list})
	})

	// multipart form: file=<image>, date=YYYY-MM-DD
	photos.Post("/", func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
		}
		if fileHeader.Size > maxPhotoSize {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "photo too large"})
		}
		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to open file"})
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxPhotoSize))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to read file"})
		}

		photo, err := photoService.Upload(c.UserContext(), c.Locals("user_id").(string), c.FormValue("date"),
			fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(photo)
	})

	photos.Delete("/:id", func(c *fiber.Ctx) error {
		if err := photoService.Delete(c.UserContext(), c.Locals("user_id").(string), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
