package repository

import (
	"context"

	"github.com/minwoo/facetrack/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmbeddingRepository handles durable face embedding records. One live record
// exists per identity; updates overwrite the previous vector.
type EmbeddingRepository struct {
	db *gorm.DB
}

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(db *gorm.DB) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// LoadAll retrieves every persisted embedding record, oldest update first.
// Used once at startup to warm the in-memory cache.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.FaceEmbedding: all persisted records.
//   - error: non-nil if the query fails.
func (r *EmbeddingRepository) LoadAll(ctx context.Context) ([]domain.FaceEmbedding, error) {
	var records []domain.FaceEmbedding
	if err := r.db.WithContext(ctx).
		Order("updated_at").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Upsert creates or overwrites the embedding record for an identity.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - record: embedding record to persist.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *EmbeddingRepository) Upsert(ctx context.Context, record *domain.FaceEmbedding) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity_id"}},
		UpdateAll: true,
	}).Create(record).Error
}

// Delete removes the embedding record for an identity. Used only to compensate
// a failed resolution.
func (r *EmbeddingRepository) Delete(ctx context.Context, identityID string) error {
	return r.db.WithContext(ctx).Delete(&domain.FaceEmbedding{}, "identity_id = ?", identityID).Error
}
