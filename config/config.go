package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the API process needs. It is loaded once at
// startup and handed to constructors explicitly.
type Config struct {
	Env       string `mapstructure:"env"`
	HTTPAddr  string `mapstructure:"http_addr"`
	JWTSecret string `mapstructure:"jwt_secret"`
	SentryDSN string `mapstructure:"sentry_dsn"`

	Database          Database          `mapstructure:"db"`
	Storage           Storage           `mapstructure:"storage"`
	BackgroundRemoval BackgroundRemoval `mapstructure:"bg"`
	Analysis          Analysis          `mapstructure:"analysis"`
	Upload            Upload            `mapstructure:"upload"`
}

type Database struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d Database) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Storage is an S3-compatible bucket. PublicBaseURL is the prefix that
// public object URLs are built from.
type Storage struct {
	Endpoint        string        `mapstructure:"endpoint"`
	PublicBaseURL   string        `mapstructure:"public_base_url"`
	Bucket          string        `mapstructure:"bucket"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	PrivateBucket   bool          `mapstructure:"private_bucket"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
}

type BackgroundRemoval struct {
	APIURL       string        `mapstructure:"api_url"`
	APIToken     string        `mapstructure:"api_token"`
	ModelVersion string        `mapstructure:"model_version"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	FastAttempts int           `mapstructure:"fast_attempts"`
	FastInterval time.Duration `mapstructure:"fast_interval"`
	SlowInterval time.Duration `mapstructure:"slow_interval"`
}

type Analysis struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	Model        string `mapstructure:"model"`
}

type Upload struct {
	MaxImageBytes int           `mapstructure:"max_image_bytes"`
	ResetDelay    time.Duration `mapstructure:"reset_delay"`
}

var defaults = map[string]any{
	"env":        "local",
	"http_addr":  ":8083",
	"jwt_secret": "",
	"sentry_dsn": "",

	"db.host":     "localhost",
	"db.port":     "5432",
	"db.username": "",
	"db.password": "",
	"db.name":     "",
	"db.sslmode":  "disable",

	"storage.endpoint":          "",
	"storage.public_base_url":   "",
	"storage.bucket":            "wardrobe-images",
	"storage.region":            "us-east-1",
	"storage.access_key_id":     "",
	"storage.secret_access_key": "",
	"storage.private_bucket":    false,
	"storage.max_attempts":      3,
	"storage.retry_delay":       500 * time.Millisecond,

	"bg.api_url":       "https://api.replicate.com/v1",
	"bg.api_token":     "",
	"bg.model_version": "fb8af171cfa1616ddcf1242c093f9c46bcada5ad4cf6f2fbe8b81b330ec5c003",
	"bg.max_attempts":  60,
	"bg.fast_attempts": 10,
	"bg.fast_interval": time.Second,
	"bg.slow_interval": 2 * time.Second,

	"analysis.gemini_api_key": "",
	"analysis.model":          "gemini-2.0-flash",

	"upload.max_image_bytes": 200 * 1024,
	"upload.reset_delay":     time.Second,
}

// Load reads configuration from the environment. Nested keys map to
// upper-case variables joined by underscores, so storage.bucket is read
// from STORAGE_BUCKET.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Storage.PublicBaseURL == "" {
		cfg.Storage.PublicBaseURL = cfg.Storage.Endpoint
	}
	return &cfg, nil
}

// MustLoad panics when the configuration cannot be read.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
