// handlers/teams.go - Team Membership HTTP Handlers
package handlers

import (
	"strconv"

	"scavengerhunt/middleware"

	"github.com/gofiber/fiber/v2"
)

// CreateTeam registers a new, empty team.
// POST /api/teams
func CreateTeam(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	team, err := teamService.CreateTeam(req.Name)
	if err != nil {
		return svcError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "team": team})
}

// ListTeams returns all teams with member counts.
// GET /api/teams
func ListTeams(c *fiber.Ctx) error {
	teams, err := teamService.ListTeams()
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "teams": teams, "count": len(teams)})
}

// JoinTeam asks to join a team; joining an empty team grants ownership.
// POST /api/teams/:id/join
func JoinTeam(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	teamID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid team ID"})
	}

	if err := teamService.Join(userID, uint(teamID)); err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Join request submitted"})
}

// ApproveMember approves a pending join request (owner only).
// POST /api/teams/approve
func ApproveMember(c *fiber.Ctx) error {
	return ownerAction(c, teamService.Approve, "Member approved")
}

// RejectMember declines a pending join request (owner only).
// POST /api/teams/reject
func RejectMember(c *fiber.Ctx) error {
	return ownerAction(c, teamService.Reject, "Join request rejected")
}

// KickMember removes a member from the team (owner only).
// POST /api/teams/kick
func KickMember(c *fiber.Ctx) error {
	return ownerAction(c, teamService.Kick, "Member removed")
}

// LeaveTeam removes the caller from their team.
// POST /api/teams/leave
func LeaveTeam(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	if err := teamService.Leave(userID); err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Left the team"})
}

// ownerAction parses the shared owner-on-member request shape and runs
// the given membership operation.
func ownerAction(c *fiber.Ctx, op func(ownerID, targetID uint) error, okMessage string) error {
	ownerID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "user_id is required"})
	}

	if err := op(ownerID, req.UserID); err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": okMessage})
}
