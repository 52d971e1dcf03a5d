// handlers/api_test.go - End-to-end handler tests over fiber's test client
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"scavengerhunt/database"
	"scavengerhunt/middleware"
	"scavengerhunt/models"
	"scavengerhunt/utils"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupApp wires the handlers to a fresh in-memory database and registers
// the same routes as the server entrypoint, minus rate limiting.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-that-is-long-enough-for-hmac")

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(gdb))

	Init(gdb, nil)

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/auth/register", Register)
	api.Post("/auth/login", Login)

	users := api.Group("/users", middleware.AuthMiddleware)
	users.Get("/me", GetCurrentUser)

	teams := api.Group("/teams", middleware.AuthMiddleware)
	teams.Get("/", ListTeams)
	teams.Post("/", CreateTeam)
	teams.Post("/:id/join", JoinTeam)
	teams.Post("/approve", ApproveMember)
	teams.Post("/reject", RejectMember)
	teams.Post("/kick", KickMember)
	teams.Post("/leave", LeaveTeam)

	puzzles := api.Group("/puzzles", middleware.AuthMiddleware)
	puzzles.Get("/", GetPuzzleList)
	puzzles.Post("/submit", SubmitAnswer)
	puzzles.Get("/:id", GetPuzzle)
	puzzles.Get("/:id/seed", GetSeed)

	api.Get("/leaderboard", middleware.AuthMiddleware, GetLeaderboard)

	notifications := api.Group("/notifications", middleware.AuthMiddleware)
	notifications.Get("/", GetNotifications)
	notifications.Post("/seen", MarkNotificationsSeen)

	return app, gdb
}

// doJSON issues a request and decodes the JSON response body.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp.StatusCode, decoded
}

// register creates an account and returns its bearer token and user id.
func register(t *testing.T, app *fiber.App, email string) (string, uint) {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    email,
		"password": "hunter2hunter2",
	})
	require.Equal(t, 201, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	user, _ := body["user"].(map[string]interface{})
	require.NotNil(t, user)
	return token, uint(user["id"].(float64))
}

func seedCatalog(t *testing.T, db *gorm.DB) *models.Puzzle {
	t.Helper()
	puzzle := &models.Puzzle{Title: "The Old Mill", DisplayOrder: 1}
	require.NoError(t, db.Create(puzzle).Error)
	require.NoError(t, db.Create(&models.Subpuzzle{
		PuzzleID: puzzle.ID, OrderNo: 1, Question: "q",
		AnswerHash: utils.HashAnswer("bitcoin"), RequiredForSeed: true, RadiusMeters: 100,
	}).Error)
	return puzzle
}

func TestRegisterLoginFlow(t *testing.T) {
	app, _ := setupApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    "Alice@Example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, 201, status)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", user["email"])

	// Duplicate registration is rejected.
	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	})
	assert.Equal(t, 400, status)

	// Short passwords are rejected.
	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    "bob@example.com",
		"password": "short",
	})
	assert.Equal(t, 400, status)

	status, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, 200, status)
	assert.NotEmpty(t, body["token"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, 401, status)
}

func TestRegisterSeedsProgressLedger(t *testing.T) {
	app, db := setupApp(t)
	puzzle := seedCatalog(t, db)
	require.NoError(t, db.Create(&models.Subpuzzle{
		PuzzleID: puzzle.ID, OrderNo: 2, Question: "q2",
		AnswerHash: utils.HashAnswer("beta"), RadiusMeters: 100,
	}).Error)

	_, userID := register(t, app, "alice@example.com")

	var count int64
	require.NoError(t, db.Model(&models.ProgressRecord{}).
		Where("user_id = ? AND status = ?", userID, models.StatusNotStarted).
		Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, _ := setupApp(t)

	status, _ := doJSON(t, app, http.MethodGet, "/api/puzzles/", "", nil)
	assert.Equal(t, 401, status)

	status, _ = doJSON(t, app, http.MethodGet, "/api/puzzles/", "not-a-token", nil)
	assert.Equal(t, 401, status)
}

func TestSubmitAnswerOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	puzzle := seedCatalog(t, db)
	token, _ := register(t, app, "alice@example.com")

	status, body := doJSON(t, app, http.MethodPost, "/api/puzzles/submit", token, fiber.Map{
		"puzzle_id": puzzle.ID,
		"order":     1,
		"answer":    " Bitcoin ",
	})
	require.Equal(t, 200, status)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, true, result["correct"])
	assert.Equal(t, float64(20), result["awarded"])

	// Unknown subpuzzle maps to 404.
	status, _ = doJSON(t, app, http.MethodPost, "/api/puzzles/submit", token, fiber.Map{
		"puzzle_id": puzzle.ID,
		"order":     42,
		"answer":    "bitcoin",
	})
	assert.Equal(t, 404, status)
}

func TestSubmitEnforcesGeofence(t *testing.T) {
	app, db := setupApp(t)

	lat, lon := 52.3700, 4.8900
	puzzle := &models.Puzzle{Title: "On Location", DisplayOrder: 1}
	require.NoError(t, db.Create(puzzle).Error)
	require.NoError(t, db.Create(&models.Subpuzzle{
		PuzzleID: puzzle.ID, OrderNo: 1, Question: "q",
		AnswerHash: utils.HashAnswer("bitcoin"), RequiredForSeed: true,
		Latitude: &lat, Longitude: &lon, RadiusMeters: 100,
	}).Error)

	token, _ := register(t, app, "alice@example.com")

	// No position supplied.
	status, _ := doJSON(t, app, http.MethodPost, "/api/puzzles/submit", token, fiber.Map{
		"puzzle_id": puzzle.ID, "order": 1, "answer": "bitcoin",
	})
	assert.Equal(t, 400, status)

	// Too far away.
	status, _ = doJSON(t, app, http.MethodPost, "/api/puzzles/submit", token, fiber.Map{
		"puzzle_id": puzzle.ID, "order": 1, "answer": "bitcoin",
		"latitude": 53.0, "longitude": 5.0,
	})
	assert.Equal(t, 400, status)

	// Close enough.
	status, body := doJSON(t, app, http.MethodPost, "/api/puzzles/submit", token, fiber.Map{
		"puzzle_id": puzzle.ID, "order": 1, "answer": "bitcoin",
		"latitude": 52.3701, "longitude": 4.8901,
	})
	require.Equal(t, 200, status)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, true, result["correct"])
}

func TestTeamLifecycleOverHTTP(t *testing.T) {
	app, _ := setupApp(t)

	ownerToken, _ := register(t, app, "owner@example.com")
	joinerToken, joinerID := register(t, app, "joiner@example.com")

	status, body := doJSON(t, app, http.MethodPost, "/api/teams/", ownerToken, fiber.Map{
		"name": "Night Owls",
	})
	require.Equal(t, 201, status)
	team := body["team"].(map[string]interface{})
	teamID := int(team["id"].(float64))

	// Duplicate name maps to 400.
	status, _ = doJSON(t, app, http.MethodPost, "/api/teams/", joinerToken, fiber.Map{
		"name": "Night Owls",
	})
	assert.Equal(t, 400, status)

	joinPath := "/api/teams/" + strconv.Itoa(teamID) + "/join"
	status, _ = doJSON(t, app, http.MethodPost, joinPath, ownerToken, nil)
	require.Equal(t, 200, status)
	status, _ = doJSON(t, app, http.MethodPost, joinPath, joinerToken, nil)
	require.Equal(t, 200, status)

	// The owner sees the pending join request.
	status, body = doJSON(t, app, http.MethodGet, "/api/notifications/", ownerToken, nil)
	require.Equal(t, 200, status)
	assert.Equal(t, float64(1), body["count"])

	// Only the owner may approve.
	status, _ = doJSON(t, app, http.MethodPost, "/api/teams/approve", joinerToken, fiber.Map{
		"user_id": joinerID,
	})
	assert.Equal(t, 403, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/teams/approve", ownerToken, fiber.Map{
		"user_id": joinerID,
	})
	require.Equal(t, 200, status)

	status, body = doJSON(t, app, http.MethodGet, "/api/users/me", joinerToken, nil)
	require.Equal(t, 200, status)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "approved", user["approval_state"])
	assert.Equal(t, "Night Owls", user["team_name"])

	// An owner cannot kick themselves.
	status, _ = doJSON(t, app, http.MethodPost, "/api/teams/kick", ownerToken, fiber.Map{
		"user_id": ownerID(t, app, ownerToken),
	})
	assert.Equal(t, 403, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/teams/leave", joinerToken, nil)
	require.Equal(t, 200, status)
}

func TestLeaderboardOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	puzzle := seedCatalog(t, db)
	token, _ := register(t, app, "alice@example.com")

	status, body := doJSON(t, app, http.MethodPost, "/api/teams/", token, fiber.Map{
		"name": "Scorers",
	})
	require.Equal(t, 201, status)
	teamID := int(body["team"].(map[string]interface{})["id"].(float64))

	status, _ = doJSON(t, app, http.MethodPost, "/api/teams/"+strconv.Itoa(teamID)+"/join", token, nil)
	require.Equal(t, 200, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/puzzles/submit", token, fiber.Map{
		"puzzle_id": puzzle.ID, "order": 1, "answer": "bitcoin",
	})
	require.Equal(t, 200, status)

	status, body = doJSON(t, app, http.MethodGet, "/api/leaderboard", token, nil)
	require.Equal(t, 200, status)
	standings := body["leaderboard"].([]interface{})
	require.Len(t, standings, 1)
	top := standings[0].(map[string]interface{})
	assert.Equal(t, "Scorers", top["team_name"])
	assert.Equal(t, float64(20), top["score"])
}

func TestMarkNotificationsSeenOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	token, userID := register(t, app, "alice@example.com")

	note := &models.Notification{UserID: userID, Message: "hello", Action: models.ActionTeam}
	require.NoError(t, db.Create(note).Error)

	status, _ := doJSON(t, app, http.MethodPost, "/api/notifications/seen", token, fiber.Map{
		"ids": []uint{note.ID},
	})
	require.Equal(t, 200, status)

	var got models.Notification
	require.NoError(t, db.First(&got, note.ID).Error)
	assert.True(t, got.Seen)
}

func TestDuplicateEmailDetection(t *testing.T) {
	_, db := setupApp(t)

	require.NoError(t, db.Create(&models.User{Email: "alice@example.com", Password: "x"}).Error)

	// A second insert landing on the unique email index must read as a
	// duplicate, not as a generic storage failure.
	err := db.Create(&models.User{Email: "alice@example.com", Password: "x"}).Error
	require.Error(t, err)
	assert.True(t, isDuplicateKey(err))

	assert.True(t, isDuplicateKey(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`)))
	assert.True(t, isDuplicateKey(errors.New("UNIQUE constraint failed: users.email")))
	assert.False(t, isDuplicateKey(errors.New("connection refused")))
}

func ownerID(t *testing.T, app *fiber.App, token string) uint {
	t.Helper()
	status, body := doJSON(t, app, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, 200, status)
	return uint(body["user"].(map[string]interface{})["id"].(float64))
}

