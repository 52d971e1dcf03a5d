// services/testutil_test.go - Shared fixtures for service tests
package services

import (
	"testing"

	"scavengerhunt/database"
	"scavengerhunt/models"
	"scavengerhunt/utils"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "irrelevant-hash"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTeam(t *testing.T, db *gorm.DB, name string) *models.Team {
	t.Helper()
	team := &models.Team{Name: name}
	require.NoError(t, db.Create(team).Error)
	return team
}

// putOnTeam places a user on a team as an approved member, optionally as
// owner, bypassing the join flow.
func putOnTeam(t *testing.T, db *gorm.DB, user *models.User, team *models.Team, owner bool) {
	t.Helper()
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"team_id":        team.ID,
		"is_owner":       owner,
		"approval_state": models.ApprovalApproved,
	}).Error)
	reload(t, db, user)
}

func reload(t *testing.T, db *gorm.DB, user *models.User) {
	t.Helper()
	require.NoError(t, db.First(user, user.ID).Error)
}

func createPuzzle(t *testing.T, db *gorm.DB, title string, displayOrder int) *models.Puzzle {
	t.Helper()
	puzzle := &models.Puzzle{Title: title, DisplayOrder: displayOrder}
	require.NoError(t, db.Create(puzzle).Error)
	return puzzle
}

func createSubpuzzle(t *testing.T, db *gorm.DB, puzzleID uint, orderNo int, answer string, required bool) *models.Subpuzzle {
	t.Helper()
	sub := &models.Subpuzzle{
		PuzzleID:        puzzleID,
		OrderNo:         orderNo,
		Question:        "q",
		AnswerHash:      utils.HashAnswer(answer),
		RequiredForSeed: required,
		RadiusMeters:    100,
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func createSeedWord(t *testing.T, db *gorm.DB, puzzleID uint, word string) {
	t.Helper()
	require.NoError(t, db.Create(&models.SeedWord{PuzzleID: puzzleID, Seed: word}).Error)
}

// progressRow fetches the single ledger row for the triple, failing the
// test when it does not exist.
func progressRow(t *testing.T, db *gorm.DB, userID, puzzleID uint, orderNo int) *models.ProgressRecord {
	t.Helper()
	var row models.ProgressRecord
	require.NoError(t, db.Where("user_id = ? AND puzzle_id = ? AND order_no = ?", userID, puzzleID, orderNo).
		First(&row).Error)
	return &row
}

func notificationsFor(t *testing.T, db *gorm.DB, userID uint) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error)
	return rows
}

func countNotifications(t *testing.T, db *gorm.DB, userID uint, action models.NotificationAction) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND action = ?", userID, action).
		Count(&count).Error)
	return count
}
