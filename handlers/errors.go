// handlers/errors.go
package handlers

import (
	"context"
	"errors"
	"log"

	"endotrack/models"
	"endotrack/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

var errBadBody = errors.New("Invalid request body")

// respondError maps core errors to a JSON error body and status code.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"error": err.Error()}

	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs), errors.Is(err, errBadBody):
		status = fiber.StatusBadRequest
	case errors.Is(err, models.ErrInvalidDate), errors.Is(err, models.ErrInvalidAvatar):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrUnknownTask), errors.Is(err, services.ErrPhotoNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrTaskIncomplete):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrUnsupportedPhoto):
		status = fiber.StatusUnsupportedMediaType
	case errors.Is(err, services.ErrClaimNotPersisted):
		status = fiber.StatusServiceUnavailable
		body["retryable"] = true
	case errors.Is(err, services.ErrUnavailable):
		status = fiber.StatusServiceUnavailable
		body["retryable"] = true
	case errors.Is(err, context.Canceled):
		status = fiber.StatusConflict
		body["error"] = "superseded"
	case services.IsAuthError(err):
		kind, _ := services.AuthErrorKindOf(err)
		body["kind"] = kind
		switch kind {
		case services.AuthEmailInUse:
			status = fiber.StatusConflict
		case services.AuthDisabled:
			status = fiber.StatusForbidden
		default:
			status = fiber.StatusUnauthorized
		}
	}

	if status == fiber.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(body)
}

// parseBody decodes the JSON body into req and validates it.
func parseBody(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return errBadBody
	}
	return validate.Struct(req)
}
