package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryGroupAndParse(t *testing.T) {
	c, ok := ParseClothingCategory("Kot Pantolon")
	assert.True(t, ok)
	assert.Equal(t, CategoryJeans, c)
	assert.Equal(t, GroupBottoms, c.Group())

	_, ok = ParseClothingCategory("Pantolon")
	assert.False(t, ok)

	assert.Equal(t, GroupShoes, CategorySneakers.Group())
	assert.Equal(t, GroupOnePiece, CategoryRomper.Group())
	assert.False(t, ClothingCategory("").IsValid())
}

func TestWeatherTemperatureRange(t *testing.T) {
	assert.Equal(t, "25°C+", WeatherHot.TemperatureRange())
	assert.Equal(t, "15-25°C", WeatherWarm.TemperatureRange())
	assert.Equal(t, "Karlı", WeatherSnowy.TemperatureRange())
}
