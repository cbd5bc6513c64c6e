package main

import (
	"context"
	"log"
	"time"

	"wardrobeapi/config"
	"wardrobeapi/controllers"
	"wardrobeapi/dbhelper"
	"wardrobeapi/services"
	"wardrobeapi/tasks"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, reading configuration from the environment")
	}
	cfg := config.MustLoad()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set!")
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Env,
		Release:          "wardrobeapi@1.0.0",
		Debug:            false,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Recover()
	defer sentry.Flush(2 * time.Second)

	db := dbhelper.SetupDB(cfg.Database)

	storage := services.NewS3StorageService(cfg.Storage)
	var urlCache services.URLCacheServiceProvider
	if cfg.Storage.PrivateBucket {
		cache, err := services.NewURLCacheService(storage)
		if err != nil {
			log.Fatal("Failed to initialize URL cache service")
		}
		urlCache = cache
	}

	analyzer, err := services.NewGeminiClothingAnalyzer(context.Background(), cfg.Analysis.GeminiAPIKey, cfg.Analysis.Model)
	if err != nil {
		log.Fatalf("Failed to initialize clothing analyzer: %v", err)
	}

	e := controllers.SetupServer(controllers.ServerDeps{
		JWTSecret:     cfg.JWTSecret,
		Store:         services.NewGormWardrobeStore(db),
		Preferences:   services.NewGormPreferencesStore(db),
		Storage:       storage,
		Remover:       services.NewBackgroundRemover(cfg.BackgroundRemoval),
		Analyzer:      analyzer,
		URLCache:      urlCache,
		Metrics:       tasks.DefaultMetrics(),
		MaxImageBytes: cfg.Upload.MaxImageBytes,
		ResetDelay:    cfg.Upload.ResetDelay,
	})
	e.Debug = cfg.Env == "local"
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(3)))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	e.Logger.Fatal(e.Start(cfg.HTTPAddr))
}
