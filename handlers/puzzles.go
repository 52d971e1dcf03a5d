// handlers/puzzles.go - Puzzle and Submission HTTP Handlers
package handlers

import (
	"errors"
	"strconv"

	"scavengerhunt/middleware"
	"scavengerhunt/models"
	"scavengerhunt/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SubmitRequest struct {
	PuzzleID uint   `json:"puzzle_id"`
	Order    int    `json:"order"`
	Answer   string `json:"answer"`

	// Optional submitter position for location-gated subpuzzles.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// SubmitAnswer scores an answer attempt.
// POST /api/puzzles/submit
func SubmitAnswer(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	if req.PuzzleID == 0 || req.Order == 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "puzzle_id and order are required"})
	}

	if resp := checkLocation(c, &req); resp != nil {
		return resp
	}

	result, err := puzzleService.RecordSubmission(userID, req.PuzzleID, req.Order, req.Answer)
	if err != nil {
		return svcError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "result": result})
}

// checkLocation enforces the geofence on location-tagged subpuzzles.
// Returns a response to send when the check fails, nil to proceed.
func checkLocation(c *fiber.Ctx, req *SubmitRequest) error {
	var sub models.Subpuzzle
	err := db.Where("puzzle_id = ? AND order_no = ?", req.PuzzleID, req.Order).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "error": "Subpuzzle not found"})
		}
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Internal server error"})
	}

	if sub.Latitude == nil || sub.Longitude == nil {
		return nil
	}
	if req.Latitude == nil || req.Longitude == nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "This subpuzzle requires your location"})
	}
	if !utils.IsWithinRange(*sub.Latitude, *sub.Longitude, *req.Latitude, *req.Longitude, sub.RadiusMeters) {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "You are not at the right location"})
	}
	return nil
}

// GetPuzzleList returns every puzzle with team-aggregated progress.
// GET /api/puzzles
func GetPuzzleList(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	puzzles, err := puzzleService.GetPuzzleList(userID)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "puzzles": puzzles})
}

// GetPuzzle returns one puzzle with team-aggregated progress.
// GET /api/puzzles/:id
func GetPuzzle(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	puzzleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid puzzle ID"})
	}

	puzzle, err := puzzleService.GetPuzzle(userID, uint(puzzleID))
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "puzzle": puzzle})
}

// GetSeed reports the puzzle's seed word once unlocked.
// GET /api/puzzles/:id/seed
func GetSeed(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	puzzleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid puzzle ID"})
	}

	seed, err := puzzleService.GetSeed(userID, uint(puzzleID))
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "seed": seed})
}
