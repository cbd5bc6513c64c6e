package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 200*1024, cfg.Upload.MaxImageBytes)
	assert.Equal(t, 60, cfg.BackgroundRemoval.MaxAttempts)
	assert.Equal(t, 10, cfg.BackgroundRemoval.FastAttempts)
	assert.Equal(t, time.Second, cfg.BackgroundRemoval.FastInterval)
	assert.Equal(t, 2*time.Second, cfg.BackgroundRemoval.SlowInterval)
	assert.Equal(t, 3, cfg.Storage.MaxAttempts)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_BUCKET", "closet")
	t.Setenv("STORAGE_ENDPOINT", "https://project.supabase.co/storage/v1/s3")
	t.Setenv("STORAGE_RETRY_DELAY", "250ms")
	t.Setenv("BG_MAX_ATTEMPTS", "5")
	t.Setenv("DB_NAME", "wardrobe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "closet", cfg.Storage.Bucket)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.RetryDelay)
	assert.Equal(t, 5, cfg.BackgroundRemoval.MaxAttempts)
	// public base falls back to the endpoint
	assert.Equal(t, cfg.Storage.Endpoint, cfg.Storage.PublicBaseURL)
	assert.Contains(t, cfg.Database.DSN(), "/wardrobe?sslmode=disable")
}
