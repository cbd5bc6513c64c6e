package tasks

import (
	"context"
	"errors"
	"fmt"

	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

// DeleteClothingItem removes the owner's item and then tries to remove its
// stored images. A missing or foreign item is a no-op. Storage failures
// are logged and reported, never returned, since the row is already gone.
func DeleteClothingItem(
	ctx context.Context,
	store services.WardrobeStore,
	storage services.StorageServiceProvider,
	itemID uuid.UUID,
	ownerID uuid.UUID,
) error {
	item, err := store.Get(ctx, itemID, ownerID)
	if errors.Is(err, services.ErrNotFound) {
		fmt.Printf("[Cleanup %s] Item %s not found, nothing to delete\n", ownerID, itemID)
		return nil
	}
	if err != nil {
		return err
	}

	deleted, err := store.Delete(ctx, itemID, ownerID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return nil
	}

	urls := []string{item.ImageURL}
	if item.OriginalImageURL != nil {
		urls = append(urls, *item.OriginalImageURL)
	}
	for _, url := range urls {
		key, ok := storage.KeyFromURL(url)
		if !ok {
			fmt.Printf("[Cleanup %s] %s is not in our bucket, skipping\n", ownerID, url)
			continue
		}
		if err := storage.Delete(ctx, key); err != nil {
			fmt.Printf("[Cleanup %s] Failed to delete object %s: %v\n", ownerID, key, err)
			sentry.CaptureException(fmt.Errorf("[Cleanup %s] delete object %s: %w", ownerID, key, err))
		}
	}
	return nil
}

// DeleteClothingItems deletes itemIDs in order and stops at the first
// failure. The returned ids are the ones handled before that failure.
func DeleteClothingItems(
	ctx context.Context,
	store services.WardrobeStore,
	storage services.StorageServiceProvider,
	itemIDs []uuid.UUID,
	ownerID uuid.UUID,
) ([]uuid.UUID, error) {
	deleted := make([]uuid.UUID, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		if err := DeleteClothingItem(ctx, store, storage, itemID, ownerID); err != nil {
			return deleted, fmt.Errorf("delete item %s: %w", itemID, err)
		}
		deleted = append(deleted, itemID)
	}
	return deleted, nil
}
