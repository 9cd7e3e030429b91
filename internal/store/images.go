package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmoreau/go-image-pipeline/models"
)

// Images persists one record per completed upload+transform cycle. Records
// are created once, after both binaries exist in storage, and never mutated.
type Images struct {
	db *gorm.DB
}

func NewImages(db *gorm.DB) *Images {
	return &Images{db: db}
}

// Create persists the record. Fewer than MinTransformations descriptors is an
// invalid record and is rejected before touching the database. The write is
// atomic: readers never observe a partial record.
func (s *Images) Create(ctx context.Context, img *models.Image) error {
	if len(img.AppliedTransformations) < MinTransformations {
		return fmt.Errorf("%w: got %d", ErrTransformCount, len(img.AppliedTransformations))
	}
	if img.ID == "" {
		img.ID = uuid.NewString()
	}

	if err := s.db.WithContext(ctx).Create(img).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("creating image record: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's records, newest first. No record belonging
// to another account is ever included.
func (s *Images) ListByOwner(ctx context.Context, ownerID string) ([]models.Image, error) {
	var images []models.Image
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	return images, nil
}

// GetByIDForOwner returns ErrNotFound both for an unknown id and for a record
// owned by a different account, so callers cannot probe for existence.
func (s *Images) GetByIDForOwner(ctx context.Context, ownerID, id string) (*models.Image, error) {
	var img models.Image
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting image: %w", err)
	}
	return &img, nil
}
