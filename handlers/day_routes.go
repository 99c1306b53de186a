// handlers/day_routes.go
package handlers

import (
	"log"
	"time"

	"endotrack/middleware"
	"endotrack/models"
	"endotrack/services"

	"github.com/gofiber/fiber/v2"
)

type weightRequest struct {
	Weight float64 `json:"weight" validate:"required,gt=20,lt=400"`
}

func SetupDayRoutes(app *fiber.App, auth middleware.SessionResolver, home *services.HomeService, loads *services.LoadTracker) {
	days := app.Group("/days", middleware.UserContextMiddleware(auth))

	// ?from=YYYY-MM-DD&to=YYYY-MM-DD, defaulting to the last 7 days.
	days.Get("/", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		today := time.Now().UTC()
		from := c.Query("from", today.AddDate(0, 0, -6).Format(models.DateLayout))
		to := c.Query("to", today.Format(models.DateLayout))

		records, err := home.Data.ListDays(c.UserContext(), userID, from, to)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"from": from, "to": to, "records": records})
	})

	days.Get("/:date", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		date := c.Params("date")

		ctx, gen, done := loads.Begin(c.UserContext(), userID)
		defer done()

		view, err := home.LoadDayView(ctx, userID, date)
		if !loads.IsCurrent(userID, gen) {
			log.Printf("[HOME] Dropping superseded load of %s for %s", date, userID)
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "superseded"})
		}
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(view)
	})

	days.Put("/:date", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var rec models.DailyRecord
		if err := parseBody(c, &rec); err != nil {
			return respondError(c, err)
		}
		rec.UserID = userID
		rec.Date = c.Params("date")
		// The weight has its own validated endpoint.
		rec.Weight = nil

		if err := home.Data.SaveDay(c.UserContext(), &rec); err != nil {
			return respondError(c, err)
		}
		view, err := home.LoadDayView(c.UserContext(), userID, rec.Date)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(view)
	})

	days.Put("/:date/weight", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req weightRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		date := c.Params("date")
		if err := home.Data.SaveWeight(c.UserContext(), userID, date, req.Weight); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"date": date, "weight": req.Weight})
	})

	days.Get("/:date/tasks/:taskId/claim", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		date := c.Params("date")
		if _, err := models.ParseDate(date); err != nil {
			return respondError(c, err)
		}
		can, err := home.Ledger.CanClaim(c.UserContext(), userID, date, c.Params("taskId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"task_id": c.Params("taskId"), "can_claim": can})
	})

	days.Post("/:date/tasks/:taskId/claim", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		result, err := home.ClaimTask(c.UserContext(), userID, c.Params("date"), c.Params("taskId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	})
}
