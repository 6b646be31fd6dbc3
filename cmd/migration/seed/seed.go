package seed

import (
	"fieldvisit/config"
	"fieldvisit/internal/logger"

	. "fieldvisit/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedUser struct {
	Name     string
	Email    string
	Password string
	Role     UserRole
}

// Seed loads a development login set. Idempotent by email so it can run
// against a database that was already seeded.
func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	users := []seedUser{
		{
			Name:     "Admin User",
			Email:    "admin@example.com",
			Password: "password123",
			Role:     RoleAdmin,
		},
		{
			Name:     "Paula Auditor",
			Email:    "auditor@example.com",
			Password: "password123",
			Role:     RoleAuditor,
		},
		{
			Name:     "Carlos Fuentes",
			Email:    "carlos.fuentes@example.com",
			Password: "password123",
			Role:     RoleTechnician,
		},
		{
			Name:     "Marta Rojas",
			Email:    "marta.rojas@example.com",
			Password: "password123",
			Role:     RoleTechnician,
		},
	}

	for _, entry := range users {
		var existing User
		if err := db.First(&existing, "email = ?", entry.Email).Error; err == nil {
			log.Info("User already exists", "email", entry.Email)
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(entry.Password), bcrypt.DefaultCost)
		if err != nil {
			return log.Err("failed to hash seed password", err, "email", entry.Email)
		}

		user := User{
			Name:         entry.Name,
			Email:        entry.Email,
			PasswordHash: string(hash),
			Role:         entry.Role,
			IsActive:     true,
		}

		log.Info("Seeding user", "email", entry.Email, "role", entry.Role)
		if err := db.Create(&user).Error; err != nil {
			return log.Err("failed to create user", err, "email", entry.Email)
		}
	}

	return nil
}
