package services_test

import (
	"context"
	"testing"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPreferencesStoreSaveAndGet(t *testing.T) {
	_, db := setupStore(t)
	store := services.NewGormPreferencesStore(db)
	ctx := context.Background()
	user := uuid.New()

	_, err := store.Get(ctx, user)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = store.Save(ctx, models.StylePreferences{
		UserID:          user,
		FavoriteColors:  pq.StringArray{"Siyah", "Mavi"},
		PreferredStyles: pq.StringArray{"Minimal"},
		OccasionTypes:   pq.StringArray{"İş"},
	})
	require.NoError(t, err)

	_, err = store.Save(ctx, models.StylePreferences{
		UserID:          user,
		FavoriteColors:  pq.StringArray{"Gri"},
		PreferredStyles: pq.StringArray{},
		OccasionTypes:   pq.StringArray{"Tatil", "Randevu"},
	})
	require.NoError(t, err)

	fetched, err := store.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"Gri"}, fetched.FavoriteColors)
	assert.Empty(t, fetched.PreferredStyles)
	assert.Equal(t, pq.StringArray{"Tatil", "Randevu"}, fetched.OccasionTypes)
	assert.False(t, fetched.UpdatedAt.IsZero())
}
