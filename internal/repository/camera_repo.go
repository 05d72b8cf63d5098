package repository

import (
	"context"

	"github.com/minwoo/facetrack/internal/domain"
	"gorm.io/gorm"
)

// CameraRepository handles camera data operations.
type CameraRepository struct {
	db *gorm.DB
}

// NewCameraRepository creates a new CameraRepository.
func NewCameraRepository(db *gorm.DB) *CameraRepository {
	return &CameraRepository{db: db}
}

// Create inserts a new camera record.
func (r *CameraRepository) Create(ctx context.Context, camera *domain.Camera) error {
	return r.db.WithContext(ctx).Create(camera).Error
}

// GetByID retrieves a camera by its ID.
func (r *CameraRepository) GetByID(ctx context.Context, id string) (*domain.Camera, error) {
	var camera domain.Camera
	if err := r.db.WithContext(ctx).First(&camera, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &camera, nil
}

// FindByLocation retrieves the camera registered at a (floor, sub-floor) pair.
// The pair is unique across the installation.
func (r *CameraRepository) FindByLocation(ctx context.Context, floorNum, floorSubNum int) (*domain.Camera, error) {
	var camera domain.Camera
	if err := r.db.WithContext(ctx).
		Where("floor_num = ? AND floor_sub_num = ?", floorNum, floorSubNum).
		First(&camera).Error; err != nil {
		return nil, err
	}
	return &camera, nil
}

// List retrieves all cameras ordered by location.
func (r *CameraRepository) List(ctx context.Context) ([]domain.Camera, error) {
	var cameras []domain.Camera
	if err := r.db.WithContext(ctx).
		Order("floor_num, floor_sub_num").
		Find(&cameras).Error; err != nil {
		return nil, err
	}
	return cameras, nil
}

// Update updates an existing camera record.
func (r *CameraRepository) Update(ctx context.Context, camera *domain.Camera) error {
	return r.db.WithContext(ctx).Save(camera).Error
}

// Delete removes a camera by ID.
func (r *CameraRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Camera{}, "id = ?", id).Error
}
