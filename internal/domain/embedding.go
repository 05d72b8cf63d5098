package domain

import "time"

// FaceEmbedding is the durable record of an identity's most recent embedding.
// At most one live record exists per identity; every successful resolution
// overwrites it (latest-wins, no historical averaging).
type FaceEmbedding struct {
	IdentityID string    `gorm:"type:text;primaryKey" json:"identity_id"`
	Vector     Vector    `gorm:"type:text;not null" json:"vector"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for FaceEmbedding.
func (FaceEmbedding) TableName() string {
	return "face_embeddings"
}
