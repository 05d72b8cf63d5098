package repository

import (
	"context"
	"time"

	"github.com/minwoo/facetrack/internal/domain"
	"gorm.io/gorm"
)

// AppearanceRepository handles the append-only appearance log.
type AppearanceRepository struct {
	db *gorm.DB
}

// NewAppearanceRepository creates a new AppearanceRepository.
func NewAppearanceRepository(db *gorm.DB) *AppearanceRepository {
	return &AppearanceRepository{db: db}
}

// Append inserts a new appearance record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - appearance: appearance record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *AppearanceRepository) Append(ctx context.Context, appearance *domain.Appearance) error {
	return r.db.WithContext(ctx).Create(appearance).Error
}

// GetByID retrieves an appearance by its ID.
func (r *AppearanceRepository) GetByID(ctx context.Context, id string) (*domain.Appearance, error) {
	var appearance domain.Appearance
	if err := r.db.WithContext(ctx).First(&appearance, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &appearance, nil
}

// ListByIdentity retrieves appearances for an identity, most recent first.
func (r *AppearanceRepository) ListByIdentity(ctx context.Context, identityID string, limit, offset int) ([]domain.Appearance, error) {
	var appearances []domain.Appearance
	if err := r.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		Order("seen_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&appearances).Error; err != nil {
		return nil, err
	}
	return appearances, nil
}

// ListByCamera retrieves appearances for a camera, most recent first.
func (r *AppearanceRepository) ListByCamera(ctx context.Context, cameraID string, limit, offset int) ([]domain.Appearance, error) {
	var appearances []domain.Appearance
	if err := r.db.WithContext(ctx).
		Where("camera_id = ?", cameraID).
		Order("seen_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&appearances).Error; err != nil {
		return nil, err
	}
	return appearances, nil
}

// ListByTimeRange retrieves appearances within [start, end], most recent first.
func (r *AppearanceRepository) ListByTimeRange(ctx context.Context, start, end time.Time) ([]domain.Appearance, error) {
	var appearances []domain.Appearance
	if err := r.db.WithContext(ctx).
		Where("seen_at >= ? AND seen_at <= ?", start, end).
		Order("seen_at DESC").
		Find(&appearances).Error; err != nil {
		return nil, err
	}
	return appearances, nil
}

// CountByIdentity counts appearances recorded for an identity.
func (r *AppearanceRepository) CountByIdentity(ctx context.Context, identityID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Appearance{}).
		Where("identity_id = ?", identityID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes an appearance by ID. Used only to compensate a failed
// resolution; the log is append-only otherwise.
func (r *AppearanceRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Appearance{}, "id = ?", id).Error
}
