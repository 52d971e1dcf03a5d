// handlers/leaderboard.go
package handlers

import "github.com/gofiber/fiber/v2"

// GetLeaderboard returns team standings, best score first.
// GET /api/leaderboard
func GetLeaderboard(c *fiber.Ctx) error {
	standings, err := leaderboardService.GetLeaderboard()
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "leaderboard": standings})
}
