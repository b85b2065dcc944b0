// Package server exposes the scoring engine over HTTP.
package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"fairprice/services"
	"fairprice/utils"
)

// New builds the fiber app with middleware and routes.
func New(loader *services.Loader, log *utils.Logger, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "FairPrice API v1.0",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler:          errorHandler(log),
		UnescapePath:          true,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if accessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	SetupRoutes(app, NewHandler(loader, log))
	return app
}
