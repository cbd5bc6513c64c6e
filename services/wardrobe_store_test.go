package services_test

import (
	"context"
	"testing"
	"time"

	"wardrobeapi/dbhelper"
	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/test"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) (*services.GormWardrobeStore, *gorm.DB) {
	t.Helper()
	db, err := dbhelper.SetupTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	cleaner := dbhelper.SetupCleaner(db)
	cleaner()
	t.Cleanup(cleaner)
	return services.NewGormWardrobeStore(db), db
}

func TestGormWardrobeStoreCreate(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	owner := uuid.New()
	category := models.CategoryJeans
	style := models.StyleCasual

	saved, err := store.Create(ctx, models.ClothingItem{
		UserID:             owner,
		ImageURL:           "https://cdn.example.com/wardrobe/a.png",
		OriginalImageURL:   test.NewRefString("https://cdn.example.com/wardrobe/a.jpg"),
		Category:           &category,
		Style:              &style,
		OccasionTypes:      pq.StringArray{string(models.OccasionCasual)},
		WeatherSuitability: pq.StringArray{string(models.WeatherCool), string(models.WeatherCold)},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	fetched, err := store.Get(ctx, saved.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryJeans, *fetched.Category)
	assert.Equal(t, models.StyleCasual, *fetched.Style)
	assert.Equal(t, pq.StringArray{string(models.OccasionCasual)}, fetched.OccasionTypes)
	assert.Equal(t, []models.WeatherSuitability{models.WeatherCool, models.WeatherCold}, fetched.Weather())
	assert.Equal(t, "https://cdn.example.com/wardrobe/a.jpg", *fetched.OriginalImageURL)
}

func TestGormWardrobeStoreListByOwner(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	base := time.Now().Add(-time.Hour)
	for i, url := range []string{"first", "second", "third"} {
		item := models.ClothingItem{UserID: owner, ImageURL: url, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, db.Create(&item).Error)
	}
	_, err := store.Create(ctx, models.ClothingItem{UserID: other, ImageURL: "foreign"})
	require.NoError(t, err)

	items, err := store.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "third", items[0].ImageURL)
	assert.Equal(t, "second", items[1].ImageURL)
	assert.Equal(t, "first", items[2].ImageURL)

	empty, err := store.ListByOwner(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGormWardrobeStoreDelete(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	owner := uuid.New()

	saved, err := store.Create(ctx, models.ClothingItem{UserID: owner, ImageURL: "x"})
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, saved.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	deleted, err = store.Delete(ctx, saved.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = store.Get(ctx, saved.ID, owner)
	assert.ErrorIs(t, err, services.ErrNotFound)

	deleted, err = store.Delete(ctx, saved.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}
