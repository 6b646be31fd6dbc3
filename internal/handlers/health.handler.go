package handlers

import (
	"fieldvisit/internal/app"

	"github.com/gofiber/fiber/v2"
)

func HealthHandler(router fiber.Router, app *app.App) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": app.Config.GeneralVersion,
			"service": "fieldvisit_api",
		})
	})

	// Readiness verifies the database connection so load balancers stop
	// routing before the pool is actually unusable
	router.Get("/health/ready", func(c *fiber.Ctx) error {
		if err := app.Database.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
			})
		}

		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})
}
