package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ClothingItem struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID             uuid.UUID         `gorm:"type:uuid;index;not null" json:"user_id"`
	ImageURL           string            `gorm:"type:text;not null" json:"image_url"`
	OriginalImageURL   *string           `gorm:"type:text" json:"original_image_url"`
	Description        *string           `gorm:"type:text" json:"description"`
	Category           *ClothingCategory `gorm:"type:text" json:"category"`
	Color              *string           `json:"color"`
	SecondaryColors    pq.StringArray    `gorm:"type:text[]" json:"secondary_colors"`
	Style              *StyleType        `gorm:"type:text" json:"style"`
	OccasionTypes      pq.StringArray    `gorm:"type:text[]" json:"occasion_types"`
	WeatherSuitability pq.StringArray    `gorm:"type:text[]" json:"weather_suitability"`
	FabricType         *string           `json:"fabric_type"`
	Texture            *string           `json:"texture"`
	CreatedAt          time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func (ClothingItem) TableName() string {
	return "clothing_items"
}

func (item ClothingItem) Weather() []WeatherSuitability {
	var out []WeatherSuitability
	for _, raw := range item.WeatherSuitability {
		if w, ok := ParseWeatherSuitability(raw); ok {
			out = append(out, w)
		}
	}
	return out
}

type UploadOptions struct {
	ShouldRemoveBackground bool
	Category               *ClothingCategory
}

func DefaultUploadOptions() UploadOptions {
	return UploadOptions{ShouldRemoveBackground: true}
}

// AnalysisResult holds the attributes recovered from a model response.
// Every field is optional; unknown enumeration values are already dropped.
type AnalysisResult struct {
	Category           *ClothingCategory    `json:"category"`
	MainColor          *string              `json:"main_color"`
	SecondaryColors    []string             `json:"secondary_colors"`
	Style              *StyleType           `json:"style"`
	OccasionTypes      []OccasionType       `json:"occasion_types"`
	WeatherSuitability []WeatherSuitability `json:"weather_suitability"`
	FabricType         *string              `json:"fabric_type"`
	Texture            *string              `json:"texture"`
	Description        *string              `json:"description"`
}

// ApplyTo copies the analysed attributes onto item. The analysed category
// wins over whatever the item already carries.
func (r *AnalysisResult) ApplyTo(item *ClothingItem) {
	if r == nil {
		return
	}
	if r.Category != nil {
		item.Category = r.Category
	}
	item.Color = r.MainColor
	item.Description = r.Description
	item.Style = r.Style
	item.FabricType = r.FabricType
	item.Texture = r.Texture
	if len(r.SecondaryColors) > 0 {
		item.SecondaryColors = pq.StringArray(r.SecondaryColors)
	}
	if len(r.OccasionTypes) > 0 {
		occasions := make(pq.StringArray, 0, len(r.OccasionTypes))
		for _, o := range r.OccasionTypes {
			occasions = append(occasions, string(o))
		}
		item.OccasionTypes = occasions
	}
	if len(r.WeatherSuitability) > 0 {
		weather := make(pq.StringArray, 0, len(r.WeatherSuitability))
		for _, w := range r.WeatherSuitability {
			weather = append(weather, string(w))
		}
		item.WeatherSuitability = weather
	}
}
