// handlers/notifications.go
package handlers

import (
	"scavengerhunt/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications returns the caller's notifications, newest first.
// GET /api/notifications
func GetNotifications(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	notifications, err := notificationService.List(userID)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// MarkNotificationsSeen marks the caller's notifications as seen. Ids
// that belong to other users are ignored.
// POST /api/notifications/seen
func MarkNotificationsSeen(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	var req struct {
		IDs []uint `json:"ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	if err := notificationService.MarkSeen(userID, req.IDs); err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
