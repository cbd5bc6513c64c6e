package services

import (
	"context"
	"errors"
	"fmt"

	"wardrobeapi/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferencesStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.StylePreferences, error)
	Save(ctx context.Context, preferences models.StylePreferences) (*models.StylePreferences, error)
}

type GormPreferencesStore struct {
	DB *gorm.DB
}

func NewGormPreferencesStore(db *gorm.DB) *GormPreferencesStore {
	return &GormPreferencesStore{DB: db}
}

// Get returns ErrNotFound for users that never saved preferences.
func (s *GormPreferencesStore) Get(ctx context.Context, userID uuid.UUID) (*models.StylePreferences, error) {
	var preferences models.StylePreferences
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Take(&preferences).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get style preferences: %w", err)
	}
	return &preferences, nil
}

// Save replaces all three lists for the user.
func (s *GormPreferencesStore) Save(ctx context.Context, preferences models.StylePreferences) (*models.StylePreferences, error) {
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"favorite_colors", "preferred_styles", "occasion_types", "updated_at"}),
		}).
		Create(&preferences).Error
	if err != nil {
		return nil, fmt.Errorf("save style preferences: %w", err)
	}
	return &preferences, nil
}
