package domain

import "time"

// Camera represents a fixed camera registered at a physical location.
// The (floor_num, floor_sub_num) pair is unique across the installation.
type Camera struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	Title       string    `gorm:"type:text;not null" json:"title"`
	SubTitle    string    `gorm:"type:text" json:"sub_title"`
	FloorNum    int       `gorm:"not null;uniqueIndex:idx_cameras_location" json:"floor_num"`
	FloorSubNum int       `gorm:"not null;uniqueIndex:idx_cameras_location" json:"floor_sub_num"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Camera.
func (Camera) TableName() string {
	return "cameras"
}
