package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minwoo/facetrack/internal/domain"
	"github.com/minwoo/facetrack/internal/logger"
	"github.com/minwoo/facetrack/internal/matcher"
	"gorm.io/gorm"
)

// Detail string given to identities auto-registered by the resolution engine.
const autoRegisteredDetail = "auto-registered from camera detection"

// CameraDirectory resolves a physical location to a camera. Read-only from
// the resolution engine's perspective.
type CameraDirectory interface {
	FindByLocation(ctx context.Context, floorNum, floorSubNum int) (*domain.Camera, error)
}

// IdentityStore creates and updates identity records.
type IdentityStore interface {
	Create(ctx context.Context, identity *domain.Identity) error
	TouchLastSeen(ctx context.Context, id string, ts time.Time) error
	Delete(ctx context.Context, id string) error
}

// AppearanceLog is the append-only sighting store. Delete exists only for
// compensation of a failed resolution.
type AppearanceLog interface {
	Append(ctx context.Context, appearance *domain.Appearance) error
	Delete(ctx context.Context, id string) error
}

// ImageLog is the append-only captured image store. Delete exists only for
// compensation of a failed resolution.
type ImageLog interface {
	Append(ctx context.Context, img *domain.CapturedImage) error
	Delete(ctx context.Context, id string) error
}

// Resolver turns one detection into identity, appearance, image, and cache
// side effects. The no-match check-then-create section is serialized so two
// concurrent detections of the same unseen person cannot both miss the cache
// and create duplicate identities.
type Resolver struct {
	cameras     CameraDirectory
	identities  IdentityStore
	appearances AppearanceLog
	images      ImageLog
	cache       *matcher.Cache
	threshold   float64
	logger      *logger.Logger

	// mu guards the match → create → cache-upsert window for no-match
	// outcomes. Matched outcomes release it right after the scan.
	mu sync.Mutex
}

// NewResolver creates a Resolver with the given collaborators and match
// threshold.
func NewResolver(
	cameras CameraDirectory,
	identities IdentityStore,
	appearances AppearanceLog,
	images ImageLog,
	cache *matcher.Cache,
	threshold float64,
	log *logger.Logger,
) *Resolver {
	return &Resolver{
		cameras:     cameras,
		identities:  identities,
		appearances: appearances,
		images:      images,
		cache:       cache,
		threshold:   threshold,
		logger:      log,
	}
}

func (r *Resolver) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return r.logger
}

// Resolve processes one detection to a terminal Matched or Created state.
// A failed camera lookup aborts with no side effects; failures after identity
// creation are compensated so no orphan identity survives.
func (r *Resolver) Resolve(ctx context.Context, det *domain.Detection) (*domain.Resolution, error) {
	camera, err := r.cameras.FindByLocation(ctx, det.FloorNum, det.FloorSubNum)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: floor %d.%d", ErrCameraNotFound, det.FloorNum, det.FloorSubNum)
		}
		return nil, fmt.Errorf("camera lookup: %w", err)
	}

	now := time.Now().UTC()

	r.mu.Lock()
	match, err := r.cache.FindNearest(det.Embedding, r.threshold)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}

	res := &domain.Resolution{Outcome: domain.OutcomeMatched}
	var createdID string

	if match != nil {
		res.IdentityID = match.IdentityID
		res.Distance = match.Distance
		r.mu.Unlock()
	} else {
		identity := &domain.Identity{
			ID:         uuid.New().String(),
			Name:       "Visitor " + now.Format("20060102-150405"),
			Role:       domain.RoleUser,
			DetailInfo: autoRegisteredDetail,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := r.identities.Create(ctx, identity); err != nil {
			r.mu.Unlock()
			return nil, fmt.Errorf("create identity: %w", err)
		}
		// The new vector must be visible before the lock is released so a
		// sibling detection of the same person matches it instead of
		// creating a duplicate.
		if err := r.cache.Upsert(ctx, identity.ID, det.Embedding, now); err != nil {
			r.mu.Unlock()
			r.deleteIdentity(ctx, identity.ID)
			return nil, fmt.Errorf("cache embedding: %w", err)
		}
		r.mu.Unlock()

		res.IdentityID = identity.ID
		res.Outcome = domain.OutcomeCreated
		createdID = identity.ID

		r.log(ctx).WithFields(logger.Fields{
			logger.FieldIdentityID: identity.ID,
			logger.FieldCameraID:   camera.ID,
		}).Info("Registered new identity")
	}

	appearance := &domain.Appearance{
		ID:         uuid.New().String(),
		IdentityID: res.IdentityID,
		CameraID:   camera.ID,
		SeenAt:     now,
		CreatedAt:  now,
	}
	if err := r.appearances.Append(ctx, appearance); err != nil {
		r.compensate(ctx, "", "", createdID)
		return nil, fmt.Errorf("append appearance: %w", err)
	}
	res.AppearanceID = appearance.ID

	img := &domain.CapturedImage{
		ID:           uuid.New().String(),
		IdentityID:   &res.IdentityID,
		CameraID:     &camera.ID,
		AppearanceID: &appearance.ID,
		Type:         domain.ImageTypeFace,
		URL:          det.ImageURL,
		CreatedAt:    now,
	}
	if err := r.images.Append(ctx, img); err != nil {
		r.compensate(ctx, "", appearance.ID, createdID)
		return nil, fmt.Errorf("append image: %w", err)
	}

	if err := r.identities.TouchLastSeen(ctx, res.IdentityID, now); err != nil {
		r.compensate(ctx, img.ID, appearance.ID, createdID)
		return nil, fmt.Errorf("touch last seen: %w", err)
	}

	// Latest-wins overwrite of the cached vector; the created branch already
	// wrote it under the lock.
	if res.Outcome == domain.OutcomeMatched {
		if err := r.cache.Upsert(ctx, res.IdentityID, det.Embedding, now); err != nil {
			r.compensate(ctx, img.ID, appearance.ID, "")
			return nil, fmt.Errorf("refresh embedding: %w", err)
		}
	}

	return res, nil
}

// compensate unwinds the side effects of a failed resolution in reverse
// order. Compensation failures are logged, not propagated; the original
// resolution error is what the caller reports.
func (r *Resolver) compensate(ctx context.Context, imageID, appearanceID, createdIdentityID string) {
	if imageID != "" {
		if err := r.images.Delete(ctx, imageID); err != nil {
			r.log(ctx).WithField("image_id", imageID).WithError(err).Error("Failed to roll back image record")
		}
	}
	if appearanceID != "" {
		if err := r.appearances.Delete(ctx, appearanceID); err != nil {
			r.log(ctx).WithField("appearance_id", appearanceID).WithError(err).Error("Failed to roll back appearance record")
		}
	}
	if createdIdentityID != "" {
		r.deleteIdentity(ctx, createdIdentityID)
	}
}

// deleteIdentity removes a freshly created identity and its embedding from
// cache and durable storage.
func (r *Resolver) deleteIdentity(ctx context.Context, identityID string) {
	if err := r.cache.Evict(ctx, identityID); err != nil {
		r.log(ctx).WithField(logger.FieldIdentityID, identityID).WithError(err).Error("Failed to roll back cached embedding")
	}
	if err := r.identities.Delete(ctx, identityID); err != nil {
		r.log(ctx).WithField(logger.FieldIdentityID, identityID).WithError(err).Error("Failed to roll back identity record")
	}
}
