package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"fairprice/models"
	"fairprice/utils"
)

// statusFor maps a typed scoring failure to an HTTP status.
func statusFor(kind string) int {
	switch kind {
	case "invalid_listing":
		return fiber.StatusBadRequest
	case "locality_not_found":
		return fiber.StatusNotFound
	case "scoring_failed":
		return fiber.StatusBadGateway
	case "init_error":
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// errorHandler renders every error as {error, kind, message}. Refused
// scoring calls read "cannot classify: <reason>" so clients never mistake
// them for a low-confidence result.
func errorHandler(logger *utils.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error":   true,
				"kind":    "request",
				"message": fe.Message,
			})
		}

		kind := models.ErrorKind(err)
		code := statusFor(kind)
		message := "cannot classify: " + err.Error()
		if code >= fiber.StatusInternalServerError {
			logger.Error("[server] %s %s: %v", c.Method(), c.Path(), err)
		}
		if kind == "internal" {
			message = "Internal Server Error"
		}

		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"kind":    kind,
			"message": message,
		})
	}
}
