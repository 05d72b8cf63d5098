package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/minwoo/facetrack/internal/domain"
	"github.com/minwoo/facetrack/internal/logger"
	"github.com/minwoo/facetrack/internal/matcher"
	"gorm.io/gorm"
)

// embedStore is an in-memory matcher.Store for resolver tests.
type embedStore struct {
	mu      sync.Mutex
	records map[string]domain.FaceEmbedding
}

func newEmbedStore() *embedStore {
	return &embedStore{records: make(map[string]domain.FaceEmbedding)}
}

func (s *embedStore) LoadAll(ctx context.Context) ([]domain.FaceEmbedding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.FaceEmbedding, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}

func (s *embedStore) Upsert(ctx context.Context, record *domain.FaceEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.IdentityID] = *record
	return nil
}

func (s *embedStore) Delete(ctx context.Context, identityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identityID)
	return nil
}

type fakeCameras struct {
	cameras []*domain.Camera
}

func (f *fakeCameras) FindByLocation(ctx context.Context, floorNum, floorSubNum int) (*domain.Camera, error) {
	for _, c := range f.cameras {
		if c.FloorNum == floorNum && c.FloorSubNum == floorSubNum {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeIdentities struct {
	mu        sync.Mutex
	created   []*domain.Identity
	touched   map[string]time.Time
	deleted   []string
	createErr error
	touchErr  error
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{touched: make(map[string]time.Time)}
}

func (f *fakeIdentities) Create(ctx context.Context, identity *domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, identity)
	return nil
}

func (f *fakeIdentities) TouchLastSeen(ctx context.Context, id string, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touched[id] = ts
	return nil
}

func (f *fakeIdentities) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeAppearances struct {
	mu        sync.Mutex
	appended  []*domain.Appearance
	deleted   []string
	appendErr error
}

func (f *fakeAppearances) Append(ctx context.Context, appearance *domain.Appearance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, appearance)
	return nil
}

func (f *fakeAppearances) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeImages struct {
	mu        sync.Mutex
	appended  []*domain.CapturedImage
	deleted   []string
	appendErr error
}

func (f *fakeImages) Append(ctx context.Context, img *domain.CapturedImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, img)
	return nil
}

func (f *fakeImages) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type resolverFixture struct {
	cameras     *fakeCameras
	identities  *fakeIdentities
	appearances *fakeAppearances
	images      *fakeImages
	store       *embedStore
	cache       *matcher.Cache
	resolver    *Resolver
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()

	f := &resolverFixture{
		cameras: &fakeCameras{cameras: []*domain.Camera{
			{ID: "cam-1", Title: "Main Entrance", FloorNum: 1, FloorSubNum: 1},
		}},
		identities:  newFakeIdentities(),
		appearances: &fakeAppearances{},
		images:      &fakeImages{},
		store:       newEmbedStore(),
	}
	f.cache = matcher.NewCache(f.store)
	if err := f.cache.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	f.resolver = NewResolver(
		f.cameras, f.identities, f.appearances, f.images,
		f.cache, 0.6, logger.GetDefault(),
	)
	return f
}

func detection(embedding domain.Vector) *domain.Detection {
	return &domain.Detection{
		ImageURL:    "https://cdn.example.com/frame.jpg",
		Embedding:   embedding,
		FloorNum:    1,
		FloorSubNum: 1,
	}
}

func TestResolveCreatesIdentityWhenNoMatch(t *testing.T) {
	f := newResolverFixture(t)

	res, err := f.resolver.Resolve(context.Background(), detection(domain.Vector{1, 0}))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if res.Outcome != domain.OutcomeCreated {
		t.Errorf("outcome = %q, want %q", res.Outcome, domain.OutcomeCreated)
	}
	if len(f.identities.created) != 1 {
		t.Fatalf("created %d identities, want 1", len(f.identities.created))
	}
	identity := f.identities.created[0]
	if identity.ID != res.IdentityID {
		t.Errorf("resolution identity %q does not match created identity %q", res.IdentityID, identity.ID)
	}
	if identity.Role != domain.RoleUser {
		t.Errorf("auto-registered role = %q, want %q", identity.Role, domain.RoleUser)
	}

	if len(f.appearances.appended) != 1 {
		t.Fatalf("appended %d appearances, want 1", len(f.appearances.appended))
	}
	appearance := f.appearances.appended[0]
	if appearance.IdentityID != identity.ID || appearance.CameraID != "cam-1" {
		t.Errorf("appearance links = (%q, %q), want (%q, %q)",
			appearance.IdentityID, appearance.CameraID, identity.ID, "cam-1")
	}
	if res.AppearanceID != appearance.ID {
		t.Errorf("resolution appearance %q does not match appended %q", res.AppearanceID, appearance.ID)
	}

	if len(f.images.appended) != 1 {
		t.Fatalf("appended %d images, want 1", len(f.images.appended))
	}
	img := f.images.appended[0]
	if img.Type != domain.ImageTypeFace || img.URL != "https://cdn.example.com/frame.jpg" {
		t.Errorf("image record = (%q, %q), unexpected", img.Type, img.URL)
	}

	if _, ok := f.identities.touched[identity.ID]; !ok {
		t.Error("last seen timestamp was not touched")
	}
	if _, ok := f.cache.Get(identity.ID); !ok {
		t.Error("new embedding was not cached")
	}
}

func TestResolveMatchesExistingIdentity(t *testing.T) {
	f := newResolverFixture(t)
	ctx := context.Background()

	if err := f.cache.Upsert(ctx, "existing", domain.Vector{1, 0}, time.Now()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	res, err := f.resolver.Resolve(ctx, detection(domain.Vector{1, 0.05}))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if res.Outcome != domain.OutcomeMatched {
		t.Errorf("outcome = %q, want %q", res.Outcome, domain.OutcomeMatched)
	}
	if res.IdentityID != "existing" {
		t.Errorf("identity = %q, want %q", res.IdentityID, "existing")
	}
	if len(f.identities.created) != 0 {
		t.Errorf("created %d identities on a match, want 0", len(f.identities.created))
	}
	if _, ok := f.identities.touched["existing"]; !ok {
		t.Error("last seen timestamp was not touched")
	}

	// Latest wins: the cached vector is replaced by the new detection's.
	v, _ := f.cache.Get("existing")
	if v[1] != 0.05 {
		t.Errorf("cached vector = %v, want the latest detection's", v)
	}
}

func TestResolveUnknownCameraHasNoSideEffects(t *testing.T) {
	f := newResolverFixture(t)

	det := detection(domain.Vector{1, 0})
	det.FloorNum = 9
	det.FloorSubNum = 9

	_, err := f.resolver.Resolve(context.Background(), det)
	if !errors.Is(err, ErrCameraNotFound) {
		t.Fatalf("expected ErrCameraNotFound, got %v", err)
	}

	if len(f.identities.created) != 0 || len(f.appearances.appended) != 0 || len(f.images.appended) != 0 {
		t.Error("a failed camera lookup must leave no side effects")
	}
	if f.cache.Len() != 0 {
		t.Error("a failed camera lookup must not touch the cache")
	}
}

func TestResolveCompensatesWhenAppearanceFails(t *testing.T) {
	f := newResolverFixture(t)
	f.appearances.appendErr = errors.New("db down")

	_, err := f.resolver.Resolve(context.Background(), detection(domain.Vector{1, 0}))
	if err == nil {
		t.Fatal("expected Resolve() to fail")
	}

	if len(f.identities.created) != 1 {
		t.Fatalf("created %d identities, want 1", len(f.identities.created))
	}
	createdID := f.identities.created[0].ID
	if len(f.identities.deleted) != 1 || f.identities.deleted[0] != createdID {
		t.Errorf("created identity %q was not rolled back, deleted = %v", createdID, f.identities.deleted)
	}
	if _, ok := f.cache.Get(createdID); ok {
		t.Error("cached embedding was not rolled back")
	}
}

func TestResolveCompensatesWhenImageFails(t *testing.T) {
	f := newResolverFixture(t)
	f.images.appendErr = errors.New("db down")

	_, err := f.resolver.Resolve(context.Background(), detection(domain.Vector{1, 0}))
	if err == nil {
		t.Fatal("expected Resolve() to fail")
	}

	if len(f.appearances.appended) != 1 {
		t.Fatalf("appended %d appearances, want 1", len(f.appearances.appended))
	}
	appearanceID := f.appearances.appended[0].ID
	if len(f.appearances.deleted) != 1 || f.appearances.deleted[0] != appearanceID {
		t.Errorf("appearance %q was not rolled back, deleted = %v", appearanceID, f.appearances.deleted)
	}
	if len(f.identities.deleted) != 1 {
		t.Error("created identity was not rolled back")
	}
}

func TestResolveCompensatesWhenTouchFails(t *testing.T) {
	f := newResolverFixture(t)
	f.identities.touchErr = errors.New("db down")

	_, err := f.resolver.Resolve(context.Background(), detection(domain.Vector{1, 0}))
	if err == nil {
		t.Fatal("expected Resolve() to fail")
	}

	if len(f.images.deleted) != 1 {
		t.Error("image record was not rolled back")
	}
	if len(f.appearances.deleted) != 1 {
		t.Error("appearance record was not rolled back")
	}
	if len(f.identities.deleted) != 1 {
		t.Error("created identity was not rolled back")
	}
}

func TestResolveConcurrentSamePersonCreatesOneIdentity(t *testing.T) {
	f := newResolverFixture(t)

	const n = 8
	var wg sync.WaitGroup
	results := make([]*domain.Resolution, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.resolver.Resolve(context.Background(), detection(domain.Vector{1, 0}))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Resolve() #%d error = %v", i, err)
		}
	}

	if len(f.identities.created) != 1 {
		t.Fatalf("created %d identities for the same person, want 1", len(f.identities.created))
	}

	createdID := f.identities.created[0].ID
	var createdCount int
	for _, res := range results {
		if res.IdentityID != createdID {
			t.Errorf("resolution identity = %q, want %q", res.IdentityID, createdID)
		}
		if res.Outcome == domain.OutcomeCreated {
			createdCount++
		}
	}
	if createdCount != 1 {
		t.Errorf("%d resolutions report created, want exactly 1", createdCount)
	}

	if len(f.appearances.appended) != n {
		t.Errorf("appended %d appearances, want %d", len(f.appearances.appended), n)
	}
}
