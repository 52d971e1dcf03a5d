// models/puzzle.go
package models

import "time"

type Puzzle struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"not null;size:200"`
	Description  string    `json:"description" gorm:"type:text"`
	DisplayOrder int       `json:"display_order" gorm:"default:0;index"`
	CreatedAt    time.Time `json:"created_at"`

	Subpuzzles []Subpuzzle `json:"subpuzzles,omitempty" gorm:"foreignKey:PuzzleID"`
}

func (Puzzle) TableName() string {
	return "puzzles"
}

type Subpuzzle struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	PuzzleID uint `json:"puzzle_id" gorm:"not null;uniqueIndex:idx_subpuzzles_puzzle_order"`
	OrderNo  int  `json:"order" gorm:"not null;uniqueIndex:idx_subpuzzles_puzzle_order"`

	Question string `json:"question" gorm:"type:text"`
	// Hex-encoded SHA-256 of the normalized answer. The plaintext answer
	// is never stored.
	AnswerHash      string `json:"-" gorm:"not null;size:64"`
	RequiredForSeed bool   `json:"required_for_seed" gorm:"default:false"`
	// Message revealed to the player on a correct answer.
	Message string `json:"message,omitempty" gorm:"type:text"`

	// Optional geofence. When set, submissions must carry coordinates
	// within RadiusMeters of this point.
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	RadiusMeters float64  `json:"radius_meters" gorm:"default:100"`
}

func (Subpuzzle) TableName() string {
	return "subpuzzles"
}

type SeedWord struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	PuzzleID uint   `json:"puzzle_id" gorm:"not null;uniqueIndex"`
	Seed     string `json:"seed" gorm:"not null;size:200"`
}

func (SeedWord) TableName() string {
	return "seeds"
}
