package controllers

import (
	"net/http"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/tasks"

	"github.com/go-playground/validator"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// ServerDeps are the collaborators the API is built from. URLCache is nil
// when the bucket is public. Gatherer defaults to the global registry.
type ServerDeps struct {
	JWTSecret     string
	Store         services.WardrobeStore
	Preferences   services.PreferencesStore
	Storage       services.StorageServiceProvider
	Remover       services.BackgroundRemovalProvider
	Analyzer      services.ClothingAnalyzer
	URLCache      services.URLCacheServiceProvider
	Metrics       *tasks.Metrics
	Gatherer      prometheus.Gatherer
	MaxImageBytes int
	ResetDelay    time.Duration
}

func SetupServer(deps ServerDeps) *echo.Echo {
	e := echo.New()
	v := validator.New()
	v.RegisterValidation("category", models.ValidateCategory)
	v.RegisterValidation("preference", models.ValidatePreference)
	e.Validator = &CustomValidator{validator: v}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	uploaders := NewUploaderRegistry(func() *tasks.ClothingUploader {
		uploader := tasks.NewClothingUploader(
			services.ContextSessionProvider{}, deps.Storage, deps.Remover, deps.Analyzer, deps.Store,
		)
		if deps.MaxImageBytes > 0 {
			uploader.MaxImageBytes = deps.MaxImageBytes
		}
		uploader.ResetDelay = deps.ResetDelay
		uploader.Metrics = deps.Metrics
		return uploader
	})

	clothesController := ClothesController{
		Store:     deps.Store,
		Storage:   deps.Storage,
		URLCache:  deps.URLCache,
		Uploaders: uploaders,
	}
	userGroup := e.Group("/users/:userId", echojwt.JWT([]byte(deps.JWTSecret)), UserSessionMiddleware, OwnerMiddleware)
	clothesController.ClothingRoutes(userGroup.Group("/clothes"))

	preferencesController := PreferencesController{Store: deps.Preferences}
	preferencesController.PreferencesRoutes(userGroup.Group("/style-preferences"))

	return e
}
