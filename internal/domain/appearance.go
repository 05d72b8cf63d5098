package domain

import "time"

// Appearance is an append-only sighting of an identity at a camera.
// Both foreign keys must reference existing rows at creation time.
type Appearance struct {
	ID         string    `gorm:"type:text;primaryKey" json:"id"`
	IdentityID string    `gorm:"type:text;not null;index:idx_appearances_identity" json:"identity_id"`
	CameraID   string    `gorm:"type:text;not null;index:idx_appearances_camera" json:"camera_id"`
	SeenAt     time.Time `gorm:"not null;index:idx_appearances_seen_at" json:"seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Appearance.
func (Appearance) TableName() string {
	return "appearances"
}
