package database

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sangkips/receipts-api/internal/domain/entity"
)

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")

	err := db.AutoMigrate(
		&entity.User{},
		&entity.Template{},
		&entity.Business{},
		&entity.Receipt{},
		&entity.ReceiptItem{},
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("database migrations completed")
	return nil
}

// SystemTemplates are the layouts available to every business
var SystemTemplates = []entity.Template{
	{Name: "Classic", Description: "Centered header with itemized table", IsSystem: true},
	{Name: "Modern", Description: "Bold totals with a compact item list", IsSystem: true},
	{Name: "Minimal", Description: "Plain text layout for thermal printers", IsSystem: true},
}

// SeedDefaultData creates missing system templates and, when ADMIN_EMAIL and
// ADMIN_PASSWORD are set, a staff user
func SeedDefaultData(db *gorm.DB, log *zap.Logger) error {
	for _, tmpl := range SystemTemplates {
		var count int64
		if err := db.Model(&entity.Template{}).
			Where("name = ? AND is_system = ?", tmpl.Name, true).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check template %s: %w", tmpl.Name, err)
		}
		if count > 0 {
			continue
		}
		t := tmpl
		if err := db.Create(&t).Error; err != nil {
			return fmt.Errorf("failed to create template %s: %w", tmpl.Name, err)
		}
		log.Info("system template created", zap.String("name", tmpl.Name))
	}

	adminEmail := strings.ToLower(strings.TrimSpace(viper.GetString("ADMIN_EMAIL")))
	adminPassword := viper.GetString("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&entity.User{}).Where("email = ?", adminEmail).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if count > 0 {
		log.Debug("staff user already exists", zap.String("email", adminEmail))
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := entity.User{
		Email:     adminEmail,
		Password:  string(hashed),
		FirstName: "Admin",
		IsStaff:   true,
		IsActive:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Info("staff user created", zap.String("email", adminEmail))
	return nil
}
