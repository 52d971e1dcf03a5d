// handlers/errors.go - Service error to HTTP status mapping
package handlers

import (
	"errors"
	"log"

	"scavengerhunt/services"

	"github.com/gofiber/fiber/v2"
)

// svcError translates the service taxonomy into HTTP responses.
// Authorization failures are reported distinctly; storage hiccups come
// back retryable; everything else collapses into a generic 500 that
// exposes no internals.
func svcError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrSelfKick):
		return c.Status(403).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(403).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrInvalid):
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrTransient):
		return c.Status(503).JSON(fiber.Map{"success": false, "error": "Temporarily unavailable, please retry"})
	}

	log.Printf("Unhandled service error: %v", err)
	return c.Status(500).JSON(fiber.Map{"success": false, "error": "Internal server error"})
}
