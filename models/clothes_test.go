package models

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestAnalysisResultApplyTo(t *testing.T) {
	callerCategory := CategoryShirt
	item := ClothingItem{Category: &callerCategory}

	analysed := CategoryTShirt
	color := "Mavi"
	result := &AnalysisResult{
		Category:      &analysed,
		MainColor:     &color,
		OccasionTypes: []OccasionType{OccasionCasual, OccasionTravel},
	}
	result.ApplyTo(&item)

	assert.Equal(t, CategoryTShirt, *item.Category)
	assert.Equal(t, "Mavi", *item.Color)
	assert.Equal(t, pq.StringArray{"Günlük", "Seyahat"}, item.OccasionTypes)
	assert.Nil(t, item.WeatherSuitability)

	var empty *AnalysisResult
	other := ClothingItem{Category: &callerCategory}
	empty.ApplyTo(&other)
	assert.Equal(t, CategoryShirt, *other.Category)
}

func TestClothingItemWeatherSkipsUnknownValues(t *testing.T) {
	item := ClothingItem{WeatherSuitability: pq.StringArray{"Serin", "Tropik", "Yağmurlu"}}
	assert.Equal(t, []WeatherSuitability{WeatherCool, WeatherRainy}, item.Weather())
}
