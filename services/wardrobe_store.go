package services

import (
	"context"
	"errors"
	"fmt"

	"wardrobeapi/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WardrobeStore interface {
	Create(ctx context.Context, item models.ClothingItem) (*models.ClothingItem, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ClothingItem, error)
	Get(ctx context.Context, itemID, ownerID uuid.UUID) (*models.ClothingItem, error)
	Delete(ctx context.Context, itemID, ownerID uuid.UUID) (int64, error)
}

type GormWardrobeStore struct {
	DB *gorm.DB
}

func NewGormWardrobeStore(db *gorm.DB) *GormWardrobeStore {
	return &GormWardrobeStore{DB: db}
}

// Create inserts item and returns the stored row. Anything other than
// exactly one inserted row is reported as ErrDataDecoding.
func (s *GormWardrobeStore) Create(ctx context.Context, item models.ClothingItem) (*models.ClothingItem, error) {
	result := s.DB.WithContext(ctx).Clauses(clause.Returning{}).Create(&item)
	if result.Error != nil {
		return nil, fmt.Errorf("save clothing item: %w", result.Error)
	}
	if result.RowsAffected != 1 {
		return nil, fmt.Errorf("%w: insert affected %d rows", ErrDataDecoding, result.RowsAffected)
	}
	return &item, nil
}

func (s *GormWardrobeStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ClothingItem, error) {
	var items []models.ClothingItem
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list clothing items: %w", err)
	}
	return items, nil
}

func (s *GormWardrobeStore) Get(ctx context.Context, itemID, ownerID uuid.UUID) (*models.ClothingItem, error) {
	var item models.ClothingItem
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, ownerID).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get clothing item: %w", err)
	}
	return &item, nil
}

// Delete removes the item only when it belongs to ownerID. Deleting
// somebody else's item affects zero rows and is not an error.
func (s *GormWardrobeStore) Delete(ctx context.Context, itemID, ownerID uuid.UUID) (int64, error) {
	result := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, ownerID).
		Delete(&models.ClothingItem{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete clothing item: %w", result.Error)
	}
	return result.RowsAffected, nil
}
