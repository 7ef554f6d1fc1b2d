package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Isba24ha/Barliberty-vultr/internal/config"
	"github.com/Isba24ha/Barliberty-vultr/internal/middleware"
	"github.com/Isba24ha/Barliberty-vultr/internal/models"
)

// Connect opens the postgres connection described by cfg. All gorm-managed
// timestamps are written in UTC so they compare cleanly against the UTC
// session windows. Driver errors are translated so unique violations come
// back as gorm.ErrDuplicatedKey.
func Connect(cfg config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the schema for every model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Table{},
		&models.Category{},
		&models.Product{},
		&models.CreditClient{},
		&models.CreditPayment{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusLog{},
		&models.Session{},
		&models.User{},
	)
}

// Migrate runs the schema migration, applies the seed SQL from migrations/
// and makes sure a default admin account exists.
func Migrate(db *gorm.DB) error {
	log.Println("Running schema migrations (gorm AutoMigrate)...")
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("schema migration: %w", err)
	}

	seedPath := filepath.Join("migrations", "000001_initial_schema.up.sql")
	seedSQL, err := os.ReadFile(seedPath)
	if err != nil {
		return fmt.Errorf("read seed file %s: %w", seedPath, err)
	}
	log.Println("Applying seed data...")
	if err := db.Exec(string(seedSQL)).Error; err != nil {
		return fmt.Errorf("apply seed data: %w", err)
	}

	if err := seedAdmin(db); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	log.Println("Migrations and seeding completed.")
	return nil
}

// seedAdmin creates the bootstrap admin account when no users exist yet.
// The password comes from ADMIN_PASSWORD and is hashed at seed time; bcrypt
// hashes cannot live in the static seed SQL.
func seedAdmin(db *gorm.DB) error {
	var existing models.User
	err := db.Where("username = ?", "admin").First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		log.Println("ADMIN_PASSWORD not set; seeding admin with the default password")
	}
	hash, err := middleware.HashPassword(password)
	if err != nil {
		return err
	}
	return db.Create(&models.User{
		Username: "admin",
		Password: hash,
		Role:     models.RoleAdmin,
	}).Error
}
