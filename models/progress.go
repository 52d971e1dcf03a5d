// models/progress.go
package models

import "time"

type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "not-started"
	StatusInProgress ProgressStatus = "in-progress"
	StatusCompleted  ProgressStatus = "completed"
)

// ProgressRecord is the ledger row for one user on one subpuzzle. Exactly
// one row exists per (user_id, puzzle_id, order_no); the award a submission
// earned is stored in Progress and never decreases once the row completes.
type ProgressRecord struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	UserID   uint `json:"user_id" gorm:"not null;uniqueIndex:idx_progress_user_puzzle_order"`
	PuzzleID uint `json:"puzzle_id" gorm:"not null;uniqueIndex:idx_progress_user_puzzle_order"`
	OrderNo  int  `json:"order" gorm:"not null;uniqueIndex:idx_progress_user_puzzle_order"`

	// Team the user belonged to when the row was last written. Kept
	// denormalized so team-level guards and the leaderboard never need to
	// reconstruct historical rosters.
	TeamID *uint `json:"team_id,omitempty" gorm:"index"`

	Progress    int            `json:"progress" gorm:"default:0"`
	IsCompleted bool           `json:"is_completed" gorm:"default:false"`
	Status      ProgressStatus `json:"status" gorm:"size:16;default:'not-started'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProgressRecord) TableName() string {
	return "puzzle_progress"
}

// Submission is the audit trail of every answer attempt, correct or not.
// It persists independently of the scoring transaction.
type Submission struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	TeamID    *uint     `json:"team_id,omitempty"`
	PuzzleID  uint      `json:"puzzle_id" gorm:"not null;index"`
	OrderNo   int       `json:"order" gorm:"not null"`
	Answer    string    `json:"answer" gorm:"size:500"`
	IsCorrect bool      `json:"is_correct"`
	CreatedAt time.Time `json:"created_at"`
}

func (Submission) TableName() string {
	return "submissions"
}
