package repository

import (
	"context"

	"github.com/minwoo/facetrack/internal/domain"
	"gorm.io/gorm"
)

// ImageRepository handles the append-only captured image log.
type ImageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new ImageRepository.
func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Append inserts a new captured image record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - img: image record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *ImageRepository) Append(ctx context.Context, img *domain.CapturedImage) error {
	return r.db.WithContext(ctx).Create(img).Error
}

// GetByID retrieves a captured image by its ID.
func (r *ImageRepository) GetByID(ctx context.Context, id string) (*domain.CapturedImage, error) {
	var img domain.CapturedImage
	if err := r.db.WithContext(ctx).First(&img, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

// ListByIdentity retrieves captured images linked to an identity, newest first.
func (r *ImageRepository) ListByIdentity(ctx context.Context, identityID string, limit, offset int) ([]domain.CapturedImage, error) {
	var images []domain.CapturedImage
	if err := r.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// Delete removes a captured image record by ID. Used only to compensate a
// failed resolution; the log is append-only otherwise.
func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.CapturedImage{}, "id = ?", id).Error
}

// List retrieves captured images with pagination, newest first.
func (r *ImageRepository) List(ctx context.Context, limit, offset int) ([]domain.CapturedImage, error) {
	var images []domain.CapturedImage
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}
