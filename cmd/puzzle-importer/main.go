// cmd/puzzle-importer - Loads a JSON puzzle catalog into the database.
//
// Catalog format:
//
//	[
//	  {
//	    "title": "The Old Mill",
//	    "description": "...",
//	    "display_order": 1,
//	    "seed": "correct horse battery staple",
//	    "subpuzzles": [
//	      {"order": 1, "question": "...", "answer": "bitcoin",
//	       "required_for_seed": true, "message": "Well done",
//	       "latitude": 52.37, "longitude": 4.89, "radius_meters": 150}
//	    ]
//	  }
//	]
//
// Answers are hashed before storage; plaintext never reaches the database.
// Existing users get not-started ledger rows backfilled for any subpuzzle
// they are missing.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"scavengerhunt/database"
	"scavengerhunt/models"
	"scavengerhunt/utils"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

type catalogSubpuzzle struct {
	Order           int      `json:"order"`
	Question        string   `json:"question"`
	Answer          string   `json:"answer"`
	RequiredForSeed bool     `json:"required_for_seed"`
	Message         string   `json:"message"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	RadiusMeters    float64  `json:"radius_meters"`
}

type catalogPuzzle struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	DisplayOrder int                `json:"display_order"`
	Seed         string             `json:"seed"`
	Subpuzzles   []catalogSubpuzzle `json:"subpuzzles"`
}

func main() {
	catalogPath := flag.String("catalog", "./catalog.json", "path to the puzzle catalog JSON")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	database.InitDB()
	defer database.CloseDB()
	db := database.GetDB()

	data, err := os.ReadFile(*catalogPath)
	if err != nil {
		log.Fatal("Failed to read catalog file:", err)
	}

	var catalog []catalogPuzzle
	if err := json.Unmarshal(data, &catalog); err != nil {
		log.Fatal("Failed to parse catalog:", err)
	}

	fmt.Printf("Found %d puzzles\n\n", len(catalog))

	if err := db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range catalog {
			if err := importPuzzle(tx, entry); err != nil {
				return fmt.Errorf("import %q: %w", entry.Title, err)
			}
		}
		return backfillProgress(tx)
	}); err != nil {
		log.Fatal("Import failed:", err)
	}

	fmt.Println("\n✅ Catalog imported")
}

func importPuzzle(tx *gorm.DB, entry catalogPuzzle) error {
	fmt.Printf("Importing: %s (%d subpuzzles)\n", entry.Title, len(entry.Subpuzzles))

	var puzzle models.Puzzle
	err := tx.Where("title = ?", entry.Title).First(&puzzle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		puzzle = models.Puzzle{
			Title:        entry.Title,
			Description:  entry.Description,
			DisplayOrder: entry.DisplayOrder,
		}
		if err := tx.Create(&puzzle).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	} else {
		if err := tx.Model(&puzzle).Updates(map[string]interface{}{
			"description":   entry.Description,
			"display_order": entry.DisplayOrder,
		}).Error; err != nil {
			return err
		}
	}

	for _, sub := range entry.Subpuzzles {
		radius := sub.RadiusMeters
		if radius <= 0 {
			radius = 100
		}
		row := models.Subpuzzle{
			PuzzleID:        puzzle.ID,
			OrderNo:         sub.Order,
			Question:        sub.Question,
			AnswerHash:      utils.HashAnswer(sub.Answer),
			RequiredForSeed: sub.RequiredForSeed,
			Message:         sub.Message,
			Latitude:        sub.Latitude,
			Longitude:       sub.Longitude,
			RadiusMeters:    radius,
		}

		var existing models.Subpuzzle
		err := tx.Where("puzzle_id = ? AND order_no = ?", puzzle.ID, sub.Order).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			continue
		} else if err != nil {
			return err
		}
		row.ID = existing.ID
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
	}

	if entry.Seed != "" {
		var seed models.SeedWord
		err := tx.Where("puzzle_id = ?", puzzle.ID).First(&seed).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.SeedWord{PuzzleID: puzzle.ID, Seed: entry.Seed}).Error
		} else if err != nil {
			return err
		}
		return tx.Model(&seed).Update("seed", entry.Seed).Error
	}
	return nil
}

// backfillProgress creates missing not-started ledger rows for every
// existing user, so users registered before a catalog update still get
// rows for the new subpuzzles.
func backfillProgress(tx *gorm.DB) error {
	var userIDs []uint
	if err := tx.Model(&models.User{}).Pluck("id", &userIDs).Error; err != nil {
		return err
	}

	var subpuzzles []models.Subpuzzle
	if err := tx.Find(&subpuzzles).Error; err != nil {
		return err
	}

	created := 0
	for _, userID := range userIDs {
		for _, sub := range subpuzzles {
			var count int64
			if err := tx.Model(&models.ProgressRecord{}).
				Where("user_id = ? AND puzzle_id = ? AND order_no = ?", userID, sub.PuzzleID, sub.OrderNo).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&models.ProgressRecord{
				UserID:   userID,
				PuzzleID: sub.PuzzleID,
				OrderNo:  sub.OrderNo,
				Status:   models.StatusNotStarted,
			}).Error; err != nil {
				return err
			}
			created++
		}
	}

	if created > 0 {
		fmt.Printf("Backfilled %d progress rows\n", created)
	}
	return nil
}
