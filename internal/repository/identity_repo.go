package repository

import (
	"context"
	"time"

	"github.com/minwoo/facetrack/internal/domain"
	"gorm.io/gorm"
)

// IdentityRepository handles identity data operations.
type IdentityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository creates a new IdentityRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *IdentityRepository: repository instance bound to db.
func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Create inserts a new identity record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - identity: identity record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	return r.db.WithContext(ctx).Create(identity).Error
}

// GetByID retrieves an identity by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: identity ID.
// Returns:
//   - *domain.Identity: identity record if found.
//   - error: non-nil if lookup fails.
func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	var identity domain.Identity
	if err := r.db.WithContext(ctx).First(&identity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// Update updates an existing identity record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - identity: identity record with updated fields.
// Returns:
//   - error: non-nil if the update fails.
func (r *IdentityRepository) Update(ctx context.Context, identity *domain.Identity) error {
	return r.db.WithContext(ctx).Save(identity).Error
}

// TouchLastSeen updates only the last_seen_at column of an identity.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: identity ID.
//   - ts: sighting timestamp.
// Returns:
//   - error: non-nil if the update fails.
func (r *IdentityRepository) TouchLastSeen(ctx context.Context, id string, ts time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Identity{}).
		Where("id = ?", id).
		Update("last_seen_at", ts).Error
}

// List retrieves identities with pagination, most recently seen first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.Identity: matching identity records.
//   - error: non-nil if the query fails.
func (r *IdentityRepository) List(ctx context.Context, limit, offset int) ([]domain.Identity, error) {
	var identities []domain.Identity
	if err := r.db.WithContext(ctx).
		Limit(limit).
		Offset(offset).
		Order("last_seen_at DESC").
		Find(&identities).Error; err != nil {
		return nil, err
	}
	return identities, nil
}

// CountByRole counts identities grouped by role classification.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - map[domain.RoleClass]int64: record count per role.
//   - error: non-nil if the query fails.
func (r *IdentityRepository) CountByRole(ctx context.Context) (map[domain.RoleClass]int64, error) {
	type roleCount struct {
		Role  domain.RoleClass
		Count int64
	}
	var rows []roleCount
	if err := r.db.WithContext(ctx).Model(&domain.Identity{}).
		Select("role, count(*) as count").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[domain.RoleClass]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

// Delete removes an identity by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: identity ID to delete.
// Returns:
//   - error: non-nil if the delete fails.
func (r *IdentityRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Identity{}, "id = ?", id).Error
}
