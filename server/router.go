package server

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.HealthCheck)

	api := app.Group("/api/v1")
	{
		api.Get("/states", h.ListStates)
		api.Get("/states/:state/localities", h.ListLocalities)
		api.Get("/options", h.FormOptions)

		api.Post("/score", h.Score)
	}
}
