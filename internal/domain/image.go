package domain

import "time"

// ImageType classifies a captured image.
// Values include ImageTypeFace and ImageTypeCamera.
type ImageType string

const (
	ImageTypeFace   ImageType = "face"
	ImageTypeCamera ImageType = "camera"
)

// CapturedImage is an append-only record of a captured image reference.
// The identity, camera, and appearance links are optional but must reference
// existing rows when present.
type CapturedImage struct {
	ID           string    `gorm:"type:text;primaryKey" json:"id"`
	IdentityID   *string   `gorm:"type:text;index:idx_images_identity" json:"identity_id,omitempty"`
	CameraID     *string   `gorm:"type:text;index:idx_images_camera" json:"camera_id,omitempty"`
	AppearanceID *string   `gorm:"type:text" json:"appearance_id,omitempty"`
	Type         ImageType `gorm:"type:text;not null;default:face" json:"type"`
	URL          string    `gorm:"type:text;not null" json:"url"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for CapturedImage.
func (CapturedImage) TableName() string {
	return "captured_images"
}
