// services/puzzle_service.go - Puzzle Progress Ledger & Scoring Policy
package services

import (
	"errors"
	"fmt"
	"log"

	"scavengerhunt/models"
	"scavengerhunt/utils"

	"gorm.io/gorm"
)

const (
	baseAward       = 10
	firstSolveBonus = 10
)

type PuzzleService struct {
	db *gorm.DB
}

func NewPuzzleService(db *gorm.DB) *PuzzleService {
	return &PuzzleService{db: db}
}

// SubmissionResult is what the player sees after an attempt.
type SubmissionResult struct {
	Correct      bool   `json:"correct"`
	Awarded      int    `json:"awarded"`
	Message      string `json:"message,omitempty"`
	SeedUnlocked bool   `json:"seed_unlocked"`
}

// SubpuzzleView is the per-subpuzzle slice of a puzzle view, aggregated
// across the viewer's team.
type SubpuzzleView struct {
	OrderNo         int                   `json:"order"`
	Question        string                `json:"question"`
	RequiredForSeed bool                  `json:"required_for_seed"`
	Progress        int                   `json:"progress"`
	IsCompleted     bool                  `json:"is_completed"`
	Status          models.ProgressStatus `json:"status"`
	Message         string                `json:"message,omitempty"`
}

// PuzzleView aggregates a puzzle's ledger rows for one user or one team.
type PuzzleView struct {
	ID           uint                  `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	DisplayOrder int                   `json:"display_order"`
	Percent      int                   `json:"percent"`
	Status       models.ProgressStatus `json:"status"`
	Score        int                   `json:"score"`
	Subpuzzles   []SubpuzzleView       `json:"subpuzzles"`
}

// SeedResult reports whether a puzzle's seed word is unlocked.
type SeedResult struct {
	Unlocked bool   `json:"unlocked"`
	Seed     string `json:"seed,omitempty"`
}

// RecordSubmission verifies an answer, persists the audit row, and applies
// the scoring policy. The existence checks (team already scored, global
// first solve) and the ledger write run in one transaction over locked
// ledger rows, so concurrent submissions cannot double-award.
func (s *PuzzleService) RecordSubmission(userID, puzzleID uint, orderNo int, answerText string) (*SubmissionResult, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, classify(err)
	}

	var sub models.Subpuzzle
	err := s.db.Where("puzzle_id = ? AND order_no = ?", puzzleID, orderNo).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: subpuzzle", ErrNotFound)
		}
		return nil, classify(err)
	}

	normalized := utils.NormalizeAnswer(answerText)
	correct := utils.VerifyAnswer(answerText, sub.AnswerHash)

	// The audit record persists no matter what happens to scoring; it is
	// deliberately outside the scoring transaction.
	audit := models.Submission{
		UserID:    userID,
		TeamID:    user.TeamID,
		PuzzleID:  puzzleID,
		OrderNo:   orderNo,
		Answer:    normalized,
		IsCorrect: correct,
	}
	if err := s.db.Create(&audit).Error; err != nil {
		log.Printf("Failed to persist submission audit: %v", err)
	}

	if !correct {
		return s.recordIncorrect(&user, &sub)
	}
	return s.recordCorrect(&user, &sub)
}

// recordIncorrect consumes the attempt. Seed-prerequisite subpuzzles stay
// open for retry; anything else completes with zero progress after a
// single wrong answer.
func (s *PuzzleService) recordIncorrect(user *models.User, sub *models.Subpuzzle) (*SubmissionResult, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		row, err := loadOwnRow(tx, user, sub)
		if err != nil {
			return err
		}
		if row.IsCompleted {
			return nil
		}

		if sub.RequiredForSeed {
			return tx.Model(row).Updates(map[string]interface{}{
				"status":  models.StatusInProgress,
				"team_id": user.TeamID,
			}).Error
		}
		return tx.Model(row).Updates(map[string]interface{}{
			"progress":     0,
			"is_completed": true,
			"status":       models.StatusCompleted,
			"team_id":      user.TeamID,
		}).Error
	})
	if err != nil {
		return nil, classify(err)
	}
	return &SubmissionResult{Correct: false}, nil
}

func (s *PuzzleService) recordCorrect(user *models.User, sub *models.Subpuzzle) (*SubmissionResult, error) {
	result := &SubmissionResult{Correct: true, Message: sub.Message}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Serialize scoring on the subpuzzle's catalog row. The ledger rows
		// alone cannot anchor the lock: the set can be empty, and FOR UPDATE
		// over an empty set locks nothing.
		var anchor models.Subpuzzle
		if err := forUpdate(tx).
			Where("puzzle_id = ? AND order_no = ?", sub.PuzzleID, sub.OrderNo).
			First(&anchor).Error; err != nil {
			return err
		}

		// With the anchor held, the first-solve and team-scored checks below
		// cannot race a concurrent write.
		var rows []models.ProgressRecord
		if err := forUpdate(tx).
			Where("puzzle_id = ? AND order_no = ?", sub.PuzzleID, sub.OrderNo).
			Find(&rows).Error; err != nil {
			return err
		}

		wasUnlocked, err := requiredSeedComplete(tx, user.ID, sub.PuzzleID)
		if err != nil {
			return err
		}

		row, err := loadOwnRow(tx, user, sub)
		if err != nil {
			return err
		}

		// A completed row is settled: no award recomputation, no write,
		// and progress never decreases.
		if !row.IsCompleted {
			firstSolve := true
			teamScored := false
			for i := range rows {
				if rows[i].Progress <= 0 {
					continue
				}
				firstSolve = false
				if sameScope(&rows[i], user) {
					teamScored = true
				}
			}

			award := 0
			if !teamScored {
				award = baseAward
				if firstSolve {
					award += firstSolveBonus
				}
			}
			result.Awarded = award

			if err := tx.Model(row).Updates(map[string]interface{}{
				"progress":     award,
				"is_completed": true,
				"status":       models.StatusCompleted,
				"team_id":      user.TeamID,
			}).Error; err != nil {
				return err
			}
		}

		nowUnlocked, err := requiredSeedComplete(tx, user.ID, sub.PuzzleID)
		if err != nil {
			return err
		}
		if nowUnlocked && !wasUnlocked {
			// Unlock fires only on the incomplete-to-complete transition,
			// so redundant resubmissions cannot duplicate the notice.
			var puzzle models.Puzzle
			if err := tx.First(&puzzle, sub.PuzzleID).Error; err != nil {
				return err
			}
			if err := appendNotification(tx, user.ID,
				fmt.Sprintf("Seed word for %s unlocked", puzzle.Title),
				models.ActionSeedUnlock, nil); err != nil {
				return err
			}
			result.SeedUnlocked = true
		}

		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// sameScope reports whether a ledger row counts toward the submitter's
// accumulated progress: same team when they have one, same user when they
// play solo. Solo play reuses the team guard this way without a sentinel
// team id.
func sameScope(row *models.ProgressRecord, user *models.User) bool {
	if user.TeamID != nil {
		return row.TeamID != nil && *row.TeamID == *user.TeamID
	}
	return row.UserID == user.ID
}

// loadOwnRow fetches the submitter's ledger row, creating the not-started
// row on the fly for users registered before the subpuzzle entered the
// catalog.
func loadOwnRow(tx *gorm.DB, user *models.User, sub *models.Subpuzzle) (*models.ProgressRecord, error) {
	var row models.ProgressRecord
	err := forUpdate(tx).
		Where("user_id = ? AND puzzle_id = ? AND order_no = ?", user.ID, sub.PuzzleID, sub.OrderNo).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.ProgressRecord{
			UserID:   user.ID,
			PuzzleID: sub.PuzzleID,
			OrderNo:  sub.OrderNo,
			TeamID:   user.TeamID,
			Status:   models.StatusNotStarted,
		}
		if err := tx.Create(&row).Error; err != nil {
			return nil, err
		}
		return &row, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// requiredSeedComplete reports whether every seed-prerequisite subpuzzle
// of the puzzle has nonzero progress for this user. A puzzle without
// prerequisites never unlocks its seed through scoring.
func requiredSeedComplete(tx *gorm.DB, userID, puzzleID uint) (bool, error) {
	var required []models.Subpuzzle
	if err := tx.Where("puzzle_id = ? AND required_for_seed = ?", puzzleID, true).
		Find(&required).Error; err != nil {
		return false, err
	}
	if len(required) == 0 {
		return false, nil
	}

	orders := make([]int, 0, len(required))
	for _, sub := range required {
		orders = append(orders, sub.OrderNo)
	}

	var solved int64
	if err := tx.Model(&models.ProgressRecord{}).
		Where("user_id = ? AND puzzle_id = ? AND order_no IN ? AND progress > 0", userID, puzzleID, orders).
		Count(&solved).Error; err != nil {
		return false, err
	}
	return solved == int64(len(required)), nil
}

// GetSeed returns the puzzle's seed word once every prerequisite
// subpuzzle is solved with nonzero progress.
func (s *PuzzleService) GetSeed(userID, puzzleID uint) (*SeedResult, error) {
	var puzzle models.Puzzle
	if err := s.db.First(&puzzle, puzzleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: puzzle", ErrNotFound)
		}
		return nil, classify(err)
	}

	unlocked, err := requiredSeedComplete(s.db, userID, puzzleID)
	if err != nil {
		return nil, classify(err)
	}
	if !unlocked {
		return &SeedResult{Unlocked: false}, nil
	}

	var seed models.SeedWord
	if err := s.db.Where("puzzle_id = ?", puzzleID).First(&seed).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &SeedResult{Unlocked: false}, nil
		}
		return nil, classify(err)
	}
	return &SeedResult{Unlocked: true, Seed: seed.Seed}, nil
}

// GetPuzzleList aggregates every puzzle for the viewer: across teammates
// when they have a team, across their own rows when playing solo.
func (s *PuzzleService) GetPuzzleList(userID uint) ([]PuzzleView, error) {
	var puzzles []models.Puzzle
	if err := s.db.Order("display_order ASC, id ASC").
		Preload("Subpuzzles", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_no ASC")
		}).
		Find(&puzzles).Error; err != nil {
		return nil, classify(err)
	}

	memberIDs, err := s.viewerScope(userID)
	if err != nil {
		return nil, err
	}

	views := make([]PuzzleView, 0, len(puzzles))
	for i := range puzzles {
		view, err := s.buildView(&puzzles[i], memberIDs)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// GetPuzzle aggregates a single puzzle for the viewer.
func (s *PuzzleService) GetPuzzle(userID, puzzleID uint) (*PuzzleView, error) {
	var puzzle models.Puzzle
	err := s.db.Preload("Subpuzzles", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_no ASC")
	}).First(&puzzle, puzzleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: puzzle", ErrNotFound)
		}
		return nil, classify(err)
	}

	memberIDs, err := s.viewerScope(userID)
	if err != nil {
		return nil, err
	}
	return s.buildView(&puzzle, memberIDs)
}

// viewerScope returns the user ids whose ledger rows the viewer sees:
// all teammates, or just themselves.
func (s *PuzzleService) viewerScope(userID uint) ([]uint, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, classify(err)
	}
	if user.TeamID == nil {
		return []uint{userID}, nil
	}

	var memberIDs []uint
	if err := s.db.Model(&models.User{}).
		Where("team_id = ?", *user.TeamID).
		Pluck("id", &memberIDs).Error; err != nil {
		return nil, classify(err)
	}
	return memberIDs, nil
}

// buildView folds the scope's ledger rows into one view: best progress
// per subpuzzle, completion percentage, and a status ranked
// not-started < in-progress < completed.
func (s *PuzzleService) buildView(puzzle *models.Puzzle, memberIDs []uint) (*PuzzleView, error) {
	var rows []models.ProgressRecord
	if err := s.db.Where("puzzle_id = ? AND user_id IN ?", puzzle.ID, memberIDs).
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}

	type slot struct {
		progress  int
		completed bool
		started   bool
	}
	best := make(map[int]slot)
	for _, row := range rows {
		cur := best[row.OrderNo]
		if row.Progress > cur.progress {
			cur.progress = row.Progress
		}
		cur.completed = cur.completed || row.IsCompleted
		cur.started = cur.started || row.Status != models.StatusNotStarted
		best[row.OrderNo] = cur
	}

	view := &PuzzleView{
		ID:           puzzle.ID,
		Title:        puzzle.Title,
		Description:  puzzle.Description,
		DisplayOrder: puzzle.DisplayOrder,
		Status:       models.StatusNotStarted,
		Subpuzzles:   make([]SubpuzzleView, 0, len(puzzle.Subpuzzles)),
	}

	completed := 0
	started := false
	for _, sub := range puzzle.Subpuzzles {
		cur := best[sub.OrderNo]

		status := models.StatusNotStarted
		switch {
		case cur.completed:
			status = models.StatusCompleted
			completed++
		case cur.started:
			status = models.StatusInProgress
		}
		if status != models.StatusNotStarted {
			started = true
		}

		sv := SubpuzzleView{
			OrderNo:         sub.OrderNo,
			Question:        sub.Question,
			RequiredForSeed: sub.RequiredForSeed,
			Progress:        cur.progress,
			IsCompleted:     cur.completed,
			Status:          status,
		}
		if cur.completed {
			sv.Message = sub.Message
		}
		view.Score += cur.progress
		view.Subpuzzles = append(view.Subpuzzles, sv)
	}

	if total := len(puzzle.Subpuzzles); total > 0 {
		view.Percent = completed * 100 / total
		switch {
		case completed == total:
			view.Status = models.StatusCompleted
		case started:
			view.Status = models.StatusInProgress
		}
	}
	return view, nil
}
