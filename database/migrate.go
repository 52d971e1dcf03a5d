// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"scavengerhunt/models"

	"gorm.io/gorm"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	if err := Migrate(GetDB()); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}
	log.Println("✅ All migrations completed successfully")
}

// Migrate creates all tables and indexes on the given connection.
// Split out from RunMigrations so tests can migrate their own databases.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.Puzzle{},
		&models.Subpuzzle{},
		&models.SeedWord{},
		&models.ProgressRecord{},
		&models.Submission{},
		&models.Notification{},
	); err != nil {
		return err
	}

	createIndexes(db)
	return nil
}

// createIndexes creates supporting indexes; the unique keys on
// (user_id, puzzle_id, order_no), team name and subpuzzle order come from
// the model tags.
func createIndexes(db *gorm.DB) {
	// Roster lookups by team
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_team ON users(team_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_team_owner ON users(team_id, is_owner)")

	// Ledger scans by contended subpuzzle and by team
	db.Exec("CREATE INDEX IF NOT EXISTS idx_progress_puzzle_order ON puzzle_progress(puzzle_id, order_no)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_progress_team ON puzzle_progress(team_id)")

	// Notification feed, newest first
	db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at DESC)")

	// Audit trail lookups
	db.Exec("CREATE INDEX IF NOT EXISTS idx_submissions_puzzle_order ON submissions(puzzle_id, order_no)")
}
