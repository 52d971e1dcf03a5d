// database/seed.go - First-boot seeding
package database

import (
	"log"
	"os"

	"scavengerhunt/models"

	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin creates the admin account when the users table is empty.
// Puzzle catalog rows are loaded separately via cmd/puzzle-importer.
func SeedAdmin() {
	db := GetDB()

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	email := getEnvOrDefault("ADMIN_EMAIL", "admin@scavengerhunt.local")
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Println("ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash admin password: %v", err)
		return
	}

	admin := models.User{
		Email:    email,
		Password: string(hash),
		IsAdmin:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("Failed to seed admin account: %v", err)
		return
	}

	log.Printf("✅ Seeded admin account %s", email)
}
