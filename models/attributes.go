package models

import "database/sql/driver"

type StyleType string

const (
	StyleMinimalist StyleType = "Minimalist"
	StyleClassic    StyleType = "Klasik"
	StyleTrendy     StyleType = "Trend"
	StyleBohemian   StyleType = "Bohem"
	StyleSporty     StyleType = "Sportif"
	StyleElegant    StyleType = "Şık"
	StyleCasual     StyleType = "Rahat"
	StyleVintage    StyleType = "Vintage"
	StylePreppy     StyleType = "Preppy"
	StyleEdgy       StyleType = "Cesur"
)

var AllStyles = []StyleType{
	StyleMinimalist, StyleClassic, StyleTrendy, StyleBohemian, StyleSporty,
	StyleElegant, StyleCasual, StyleVintage, StylePreppy, StyleEdgy,
}

func ParseStyleType(value string) (StyleType, bool) {
	for _, s := range AllStyles {
		if string(s) == value {
			return s, true
		}
	}
	return "", false
}

func (s *StyleType) Scan(value interface{}) error {
	raw, err := scanString(value)
	if err != nil {
		return err
	}
	*s = StyleType(raw)
	return nil
}

func (s StyleType) Value() (driver.Value, error) {
	return string(s), nil
}

type OccasionType string

const (
	OccasionWork     OccasionType = "İş"
	OccasionCasual   OccasionType = "Günlük"
	OccasionFormal   OccasionType = "Resmi"
	OccasionSport    OccasionType = "Spor"
	OccasionEvening  OccasionType = "Akşam"
	OccasionBeach    OccasionType = "Plaj"
	OccasionTravel   OccasionType = "Seyahat"
	OccasionDate     OccasionType = "Randevu"
	OccasionParty    OccasionType = "Parti"
	OccasionMeeting  OccasionType = "Toplantı"
	OccasionWedding  OccasionType = "Düğün"
	OccasionShopping OccasionType = "Alışveriş"
)

var AllOccasions = []OccasionType{
	OccasionWork, OccasionCasual, OccasionFormal, OccasionSport, OccasionEvening, OccasionBeach,
	OccasionTravel, OccasionDate, OccasionParty, OccasionMeeting, OccasionWedding, OccasionShopping,
}

func ParseOccasionType(value string) (OccasionType, bool) {
	for _, o := range AllOccasions {
		if string(o) == value {
			return o, true
		}
	}
	return "", false
}

type WeatherSuitability string

const (
	WeatherHot   WeatherSuitability = "Sıcak"
	WeatherWarm  WeatherSuitability = "Ilık"
	WeatherCool  WeatherSuitability = "Serin"
	WeatherCold  WeatherSuitability = "Soğuk"
	WeatherRainy WeatherSuitability = "Yağmurlu"
	WeatherSnowy WeatherSuitability = "Karlı"
	WeatherWindy WeatherSuitability = "Rüzgarlı"
)

var AllWeather = []WeatherSuitability{
	WeatherHot, WeatherWarm, WeatherCool, WeatherCold, WeatherRainy, WeatherSnowy, WeatherWindy,
}

func ParseWeatherSuitability(value string) (WeatherSuitability, bool) {
	for _, w := range AllWeather {
		if string(w) == value {
			return w, true
		}
	}
	return "", false
}

// TemperatureRange is the label shown next to a weather tag. Conditions
// without a temperature band return their own raw value.
func (w WeatherSuitability) TemperatureRange() string {
	switch w {
	case WeatherHot:
		return "25°C+"
	case WeatherWarm:
		return "15-25°C"
	case WeatherCool:
		return "5-15°C"
	case WeatherCold:
		return "5°C-"
	default:
		return string(w)
	}
}
