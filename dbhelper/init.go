package dbhelper

import (
	"fmt"
	"time"

	"wardrobeapi/config"
	"wardrobeapi/models"
	"wardrobeapi/services"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func OpenDB(cfg config.Database) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Minute * 5)

	// gen_random_uuid() for clothing_items.id
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto;").Error; err != nil {
		return nil, fmt.Errorf("enable pgcrypto: %w", err)
	}
	for _, model := range []interface{}{&models.ClothingItem{}, &models.StylePreferences{}} {
		if err := Migrate(db, model); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func SetupDB(cfg config.Database) *gorm.DB {
	db, err := OpenDB(cfg)
	if err != nil {
		panic(err)
	}
	return db
}

// SetupTestDB connects to the local test database. It returns an error
// when nothing is listening so callers can skip.
func SetupTestDB() (*gorm.DB, error) {
	return OpenDB(config.Database{
		Host:     services.GetEnv("TEST_DB_HOST", "localhost"),
		Port:     services.GetEnv("TEST_DB_PORT", "5432"),
		Username: services.GetEnv("TEST_DB_USERNAME", "wardrobe"),
		Password: services.GetEnv("TEST_DB_PASSWORD", "wardrobe"),
		Name:     services.GetEnv("TEST_DB_NAME", "wardrobe_test"),
		SSLMode:  "disable",
	})
}
