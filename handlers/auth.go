// handlers/auth.go
package handlers

import (
	"errors"
	"os"
	"strings"
	"time"

	"scavengerhunt/middleware"
	"scavengerhunt/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token,omitempty"`
	User    UserInfo `json:"user,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type UserInfo struct {
	ID            uint                 `json:"id"`
	Email         string               `json:"email"`
	TeamID        *uint                `json:"team_id,omitempty"`
	TeamName      string               `json:"team_name,omitempty"`
	IsOwner       bool                 `json:"is_owner"`
	ApprovalState models.ApprovalState `json:"approval_state"`
}

// Register creates an account and seeds its ledger from the current
// subpuzzle catalog, all in one transaction.
// POST /api/auth/register
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Invalid request body"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Email and password are required"})
	}
	if len(req.Password) < 8 {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Password must be at least 8 characters"})
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to create account"})
	}
	if count > 0 {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "User already exists"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to create account"})
	}

	user := models.User{Email: req.Email, Password: string(hash)}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return seedProgress(tx, user.ID)
	})
	if err != nil {
		// A racing registration can slip past the count check and land on
		// the unique email index instead.
		if isDuplicateKey(err) {
			return c.Status(400).JSON(AuthResponse{Success: false, Error: "User already exists"})
		}
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to create account"})
	}

	token, err := generateToken(&user)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to generate token"})
	}

	return c.Status(201).JSON(AuthResponse{
		Success: true,
		Token:   token,
		User:    userInfo(&user),
	})
}

// Login authenticates a registered user.
// POST /api/auth/login
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Invalid request body"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(401).JSON(AuthResponse{Success: false, Error: "Invalid credentials"})
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return c.Status(401).JSON(AuthResponse{Success: false, Error: "Invalid credentials"})
	}

	db.Model(&user).Update("last_login", time.Now())

	token, err := generateToken(&user)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to generate token"})
	}

	return c.JSON(AuthResponse{
		Success: true,
		Token:   token,
		User:    userInfo(&user),
	})
}

// GetCurrentUser returns the caller's profile.
// GET /api/users/me
func GetCurrentUser(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	var user models.User
	if err := db.Preload("Team").First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "User not found"})
	}

	info := userInfo(&user)
	if user.Team != nil {
		info.TeamName = user.Team.Name
	}

	return c.JSON(fiber.Map{"success": true, "user": info})
}

// isDuplicateKey recognizes unique-index violations across the postgres
// and sqlite drivers.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// seedProgress creates a not-started ledger row per catalog subpuzzle for
// a brand-new user.
func seedProgress(tx *gorm.DB, userID uint) error {
	var subpuzzles []models.Subpuzzle
	if err := tx.Find(&subpuzzles).Error; err != nil {
		return err
	}
	if len(subpuzzles) == 0 {
		return nil
	}

	records := make([]models.ProgressRecord, 0, len(subpuzzles))
	for _, sub := range subpuzzles {
		records = append(records, models.ProgressRecord{
			UserID:   userID,
			PuzzleID: sub.PuzzleID,
			OrderNo:  sub.OrderNo,
			Status:   models.StatusNotStarted,
		})
	}
	return tx.Create(&records).Error
}

func userInfo(user *models.User) UserInfo {
	return UserInfo{
		ID:            user.ID,
		Email:         user.Email,
		TeamID:        user.TeamID,
		IsOwner:       user.IsOwner,
		ApprovalState: user.ApprovalState,
	}
}

func generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":     user.Email,
		"user_id": user.ID,
		"jti":     uuid.New().String(),
		"exp":     time.Now().Add(2 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
