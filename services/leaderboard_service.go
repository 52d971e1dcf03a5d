// services/leaderboard_service.go - Read-only team standings
package services

import (
	"sort"

	"scavengerhunt/models"

	"gorm.io/gorm"
)

type LeaderboardService struct {
	db *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{db: db}
}

// PuzzleScore is one puzzle's contribution to a team's total.
type PuzzleScore struct {
	PuzzleID     uint   `json:"puzzle_id"`
	Title        string `json:"title"`
	DisplayOrder int    `json:"display_order"`
	Score        int    `json:"score"`
}

// TeamStanding is one leaderboard row.
type TeamStanding struct {
	TeamID   uint          `json:"team_id"`
	TeamName string        `json:"team_name"`
	Score    int           `json:"score"`
	Puzzles  []PuzzleScore `json:"puzzles"`
}

// GetLeaderboard computes team standings: per subpuzzle, the best progress
// across current members (the users join discards rows from people who
// since left, and collapses duplicate rows); per puzzle, the sum of those
// bests; per team, the sum over puzzles. Teams that have not scored are
// omitted from the result.
func (s *LeaderboardService) GetLeaderboard() ([]TeamStanding, error) {
	type puzzleRow struct {
		TeamID       uint
		PuzzleID     uint
		Title        string
		DisplayOrder int
		Score        int
	}

	var rows []puzzleRow
	err := s.db.Raw(`
		SELECT team_id, puzzle_id, title, display_order, SUM(best_progress) AS score
		FROM (
			SELECT pp.team_id, pp.puzzle_id, pp.order_no,
			       p.title, p.display_order,
			       MAX(pp.progress) AS best_progress
			FROM puzzle_progress pp
			JOIN puzzles p ON p.id = pp.puzzle_id
			JOIN users u ON u.id = pp.user_id AND u.team_id = pp.team_id
			WHERE pp.team_id IS NOT NULL
			GROUP BY pp.team_id, pp.puzzle_id, pp.order_no, p.title, p.display_order
		) per_subpuzzle
		GROUP BY team_id, puzzle_id, title, display_order
		ORDER BY team_id, display_order, puzzle_id`).Scan(&rows).Error
	if err != nil {
		return nil, classify(err)
	}

	var teams []models.Team
	if err := s.db.Find(&teams).Error; err != nil {
		return nil, classify(err)
	}
	names := make(map[uint]string, len(teams))
	for _, team := range teams {
		names[team.ID] = team.Name
	}

	byTeam := make(map[uint]*TeamStanding)
	order := make([]uint, 0)
	for _, row := range rows {
		standing, ok := byTeam[row.TeamID]
		if !ok {
			standing = &TeamStanding{
				TeamID:   row.TeamID,
				TeamName: names[row.TeamID],
			}
			byTeam[row.TeamID] = standing
			order = append(order, row.TeamID)
		}
		standing.Score += row.Score
		standing.Puzzles = append(standing.Puzzles, PuzzleScore{
			PuzzleID:     row.PuzzleID,
			Title:        row.Title,
			DisplayOrder: row.DisplayOrder,
			Score:        row.Score,
		})
	}

	standings := make([]TeamStanding, 0, len(byTeam))
	for _, teamID := range order {
		standing := byTeam[teamID]
		// Zero-score teams are a display decision, not a data one.
		if standing.Score <= 0 {
			continue
		}
		standings = append(standings, *standing)
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})
	return standings, nil
}
