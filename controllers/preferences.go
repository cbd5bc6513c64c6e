package controllers

import (
	"errors"
	"net/http"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
)

type StylePreferencesIn struct {
	FavoriteColors  []string `json:"favorite_colors" validate:"max=11,dive,preference=color"`
	PreferredStyles []string `json:"preferred_styles" validate:"max=8,dive,preference=style"`
	OccasionTypes   []string `json:"occasion_types" validate:"max=7,dive,preference=occasion"`
}

type PreferencesController struct {
	Store services.PreferencesStore
}

func (controller *PreferencesController) PreferencesRoutes(g *echo.Group) {
	g.GET("", controller.GetPreferences)
	g.PUT("", controller.SavePreferences)
	g.GET("/options", controller.PreferenceOptions)
}

func (controller *PreferencesController) PreferenceOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{
		"favorite_colors":  models.PreferenceOptions("color"),
		"preferred_styles": models.PreferenceOptions("style"),
		"occasion_types":   models.PreferenceOptions("occasion"),
	})
}

// GetPreferences answers with empty lists for users that skipped onboarding.
func (controller *PreferencesController) GetPreferences(c echo.Context) error {
	ownerID, ok := c.Get("ownerID").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	preferences, err := controller.Store.Get(c.Request().Context(), ownerID)
	if errors.Is(err, services.ErrNotFound) {
		return c.JSON(http.StatusOK, models.EmptyStylePreferences(ownerID))
	}
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch style preferences"})
	}
	return c.JSON(http.StatusOK, preferences)
}

func (controller *PreferencesController) SavePreferences(c echo.Context) error {
	ownerID, ok := c.Get("ownerID").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	var req StylePreferencesIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	preferences := models.EmptyStylePreferences(ownerID)
	preferences.FavoriteColors = append(preferences.FavoriteColors, dedupe(req.FavoriteColors)...)
	preferences.PreferredStyles = append(preferences.PreferredStyles, dedupe(req.PreferredStyles)...)
	preferences.OccasionTypes = append(preferences.OccasionTypes, dedupe(req.OccasionTypes)...)
	if preferences.IsEmpty() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Please pick at least one preference"})
	}

	saved, err := controller.Store.Save(c.Request().Context(), preferences)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save style preferences, please try again"})
	}
	return c.JSON(http.StatusOK, saved)
}

// dedupe keeps the first occurrence of every value, in order.
func dedupe(values []string) pq.StringArray {
	seen := make(map[string]bool, len(values))
	out := pq.StringArray{}
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
