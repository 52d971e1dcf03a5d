// handlers/handlers.go - Handler wiring
package handlers

import (
	"scavengerhunt/services"

	"gorm.io/gorm"
)

var (
	db                  *gorm.DB
	teamService         *services.TeamService
	puzzleService       *services.PuzzleService
	leaderboardService  *services.LeaderboardService
	notificationService *services.NotificationService
)

// Init wires every handler to its service. Call once after the database
// is ready, before registering routes.
func Init(database *gorm.DB, mailer services.Mailer) {
	if database == nil {
		panic("Database not initialized before handlers.Init")
	}
	db = database
	teamService = services.NewTeamService(database, mailer)
	puzzleService = services.NewPuzzleService(database)
	leaderboardService = services.NewLeaderboardService(database)
	notificationService = services.NewNotificationService(database)
}
