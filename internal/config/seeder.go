package config

import (
	"fmt"
	"log"
	"strings"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/core/domain"
	"aidledger/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}
	if err := s.seedRoleUsers(); err != nil {
		log.Printf("⚠️ Role user seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds default admin user
// This is for development/testing only
// In production, create admin through secure process
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: "admin",
		Email:    "admin@aidledger.local",
		Password: hashedPassword,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Println("🌱 Seeded default admin user")
	return nil
}

// seedRoleUsers seeds one development user per platform role
func (s *Seeder) seedRoleUsers() error {
	for _, role := range domain.AllRoles {
		if role == domain.RoleAdmin {
			continue
		}

		name := strings.ToLower(string(role))

		var count int64
		s.db.Model(&models.User{}).Where("username = ?", name).Count(&count)
		if count > 0 {
			continue
		}

		hashedPassword, err := password.Hash(name + "123456")
		if err != nil {
			return err
		}

		user := &models.User{
			Username: name,
			Email:    fmt.Sprintf("%s@aidledger.local", name),
			Password: hashedPassword,
			Role:     string(role),
			IsActive: true,
		}

		if err := s.db.Create(user).Error; err != nil {
			return err
		}
	}

	log.Println("🌱 Seeded development role users")
	return nil
}

// SeedAll runs seeders against db (convenience for main)
func SeedAll(db *gorm.DB) error {
	return NewSeeder(db).Run()
}
