package dbhelper

import (
	"fmt"

	"wardrobeapi/models"

	"gorm.io/gorm"
)

func SetupCleaner(db *gorm.DB) func() {
	return func() {
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ClothingItem{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.StylePreferences{})
	}
}

func Migrate(db *gorm.DB, model interface{}) error {
	if err := db.AutoMigrate(model); err != nil {
		return fmt.Errorf("migrate %T: %w", model, err)
	}
	return nil
}
