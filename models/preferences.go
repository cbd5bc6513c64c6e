package models

import (
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// StylePreferences is what a user picked during onboarding. One row per user.
type StylePreferences struct {
	UserID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	FavoriteColors  pq.StringArray `gorm:"type:text[]" json:"favorite_colors"`
	PreferredStyles pq.StringArray `gorm:"type:text[]" json:"preferred_styles"`
	OccasionTypes   pq.StringArray `gorm:"type:text[]" json:"occasion_types"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (StylePreferences) TableName() string {
	return "style_preferences"
}

func EmptyStylePreferences(userID uuid.UUID) StylePreferences {
	return StylePreferences{
		UserID:          userID,
		FavoriteColors:  pq.StringArray{},
		PreferredStyles: pq.StringArray{},
		OccasionTypes:   pq.StringArray{},
	}
}

func (p StylePreferences) IsEmpty() bool {
	return len(p.FavoriteColors) == 0 && len(p.PreferredStyles) == 0 && len(p.OccasionTypes) == 0
}

// Onboarding choices. These are display labels and do not line up with
// StyleType or OccasionType.
var preferenceOptions = map[string][]string{
	"color":    {"Siyah", "Beyaz", "Mavi", "Kırmızı", "Yeşil", "Sarı", "Mor", "Turuncu", "Pembe", "Kahverengi", "Gri"},
	"style":    {"Casual", "Şık", "Spor", "Klasik", "Vintage", "Modern", "Bohem", "Minimal"},
	"occasion": {"İş", "Günlük", "Akşam", "Spor", "Tatil", "Özel Etkinlik", "Randevu"},
}

func PreferenceOptions(kind string) []string {
	return append([]string(nil), preferenceOptions[kind]...)
}

// ValidatePreference checks one value against the option list named by the
// tag parameter, e.g. `validate:"dive,preference=color"`.
func ValidatePreference(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, option := range preferenceOptions[fl.Param()] {
		if option == value {
			return true
		}
	}
	return false
}
