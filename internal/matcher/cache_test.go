package matcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minwoo/facetrack/internal/domain"
)

// fakeStore is an in-memory Store for cache tests.
type fakeStore struct {
	records   []domain.FaceEmbedding
	upserts   int
	deletes   int
	loadErr   error
	upsertErr error
}

func (s *fakeStore) LoadAll(ctx context.Context) ([]domain.FaceEmbedding, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.records, nil
}

func (s *fakeStore) Upsert(ctx context.Context, record *domain.FaceEmbedding) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts++
	for i := range s.records {
		if s.records[i].IdentityID == record.IdentityID {
			s.records[i] = *record
			return nil
		}
	}
	s.records = append(s.records, *record)
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, identityID string) error {
	s.deletes++
	for i := range s.records {
		if s.records[i].IdentityID == identityID {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func TestCacheWarm(t *testing.T) {
	store := &fakeStore{
		records: []domain.FaceEmbedding{
			{IdentityID: "a", Vector: domain.Vector{1, 0}, UpdatedAt: time.Now()},
			{IdentityID: "b", Vector: domain.Vector{0, 1}, UpdatedAt: time.Now()},
		},
	}
	cache := NewCache(store)

	if err := cache.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
	if _, ok := cache.Get("a"); !ok {
		t.Error("expected identity a to be cached")
	}
}

func TestCacheWarmReplacesContents(t *testing.T) {
	store := &fakeStore{
		records: []domain.FaceEmbedding{
			{IdentityID: "a", Vector: domain.Vector{1, 0}},
		},
	}
	cache := NewCache(store)
	if err := cache.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}

	store.records = []domain.FaceEmbedding{
		{IdentityID: "b", Vector: domain.Vector{0, 1}},
	}
	if err := cache.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}

	if _, ok := cache.Get("a"); ok {
		t.Error("identity a should have been dropped by the second warm")
	}
	if _, ok := cache.Get("b"); !ok {
		t.Error("expected identity b to be cached")
	}
}

func TestCacheWarmPropagatesStoreError(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("db down")}
	cache := NewCache(store)

	if err := cache.Warm(context.Background()); err == nil {
		t.Fatal("expected Warm() to fail when the store fails")
	}
}

func TestCacheUpsertOverwrites(t *testing.T) {
	store := &fakeStore{}
	cache := NewCache(store)
	ctx := context.Background()

	if err := cache.Upsert(ctx, "a", domain.Vector{1, 0}, time.Now()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := cache.Upsert(ctx, "a", domain.Vector{0, 1}, time.Now()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	v, ok := cache.Get("a")
	if !ok {
		t.Fatal("expected identity a to be cached")
	}
	if v[0] != 0 || v[1] != 1 {
		t.Errorf("cached vector = %v, want the most recent one", v)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after overwrite", cache.Len())
	}
	if store.upserts != 2 {
		t.Errorf("store upserts = %d, want 2 (write-through)", store.upserts)
	}
}

func TestCacheUpsertStoreFailureLeavesMemoryUntouched(t *testing.T) {
	store := &fakeStore{upsertErr: errors.New("db down")}
	cache := NewCache(store)

	if err := cache.Upsert(context.Background(), "a", domain.Vector{1, 0}, time.Now()); err == nil {
		t.Fatal("expected Upsert() to fail when the store fails")
	}
	if cache.Len() != 0 {
		t.Error("memory must not run ahead of the durable store")
	}
}

func TestCacheEvict(t *testing.T) {
	store := &fakeStore{}
	cache := NewCache(store)
	ctx := context.Background()

	if err := cache.Upsert(ctx, "a", domain.Vector{1, 0}, time.Now()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := cache.Evict(ctx, "a"); err != nil {
		t.Fatalf("Evict() error = %v", err)
	}
	if _, ok := cache.Get("a"); ok {
		t.Error("identity a should have been evicted")
	}
	if store.deletes != 1 {
		t.Errorf("store deletes = %d, want 1", store.deletes)
	}
}

func TestCacheFindNearest(t *testing.T) {
	store := &fakeStore{}
	cache := NewCache(store)
	ctx := context.Background()

	seed := map[string]domain.Vector{
		"near":     {1, 0.1},
		"far":      {0, 1},
		"opposite": {-1, 0},
	}
	for id, v := range seed {
		if err := cache.Upsert(ctx, id, v, time.Now()); err != nil {
			t.Fatalf("Upsert(%s) error = %v", id, err)
		}
	}

	match, err := cache.FindNearest(domain.Vector{1, 0}, 0.6)
	if err != nil {
		t.Fatalf("FindNearest() error = %v", err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.IdentityID != "near" {
		t.Errorf("matched %q, want %q", match.IdentityID, "near")
	}
}

func TestCacheFindNearestEmptyCache(t *testing.T) {
	cache := NewCache(&fakeStore{})

	match, err := cache.FindNearest(domain.Vector{1, 0}, 0.6)
	if err != nil {
		t.Fatalf("FindNearest() error = %v", err)
	}
	if match != nil {
		t.Errorf("expected no match on empty cache, got %v", match)
	}
}

func TestCacheFindNearestThresholdIsExclusive(t *testing.T) {
	cache := NewCache(&fakeStore{})
	ctx := context.Background()

	// Orthogonal to the target: distance is exactly 1.
	if err := cache.Upsert(ctx, "a", domain.Vector{0, 1}, time.Now()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	match, err := cache.FindNearest(domain.Vector{1, 0}, 1.0)
	if err != nil {
		t.Fatalf("FindNearest() error = %v", err)
	}
	if match != nil {
		t.Errorf("distance equal to threshold must not match, got %v", match)
	}

	match, err = cache.FindNearest(domain.Vector{1, 0}, 1.0000001)
	if err != nil {
		t.Fatalf("FindNearest() error = %v", err)
	}
	if match == nil {
		t.Error("distance strictly below threshold should match")
	}
}

func TestCacheFindNearestTieBreak(t *testing.T) {
	cache := NewCache(&fakeStore{})
	ctx := context.Background()

	// Two identities with identical vectors produce identical distances.
	// Insert in reverse lexicographic order so insertion order alone cannot
	// explain the result.
	if err := cache.Upsert(ctx, "zz", domain.Vector{1, 0}, time.Now()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := cache.Upsert(ctx, "aa", domain.Vector{1, 0}, time.Now()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	match, err := cache.FindNearest(domain.Vector{1, 0}, 0.6)
	if err != nil {
		t.Fatalf("FindNearest() error = %v", err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.IdentityID != "aa" {
		t.Errorf("tie resolved to %q, want lexicographically smallest %q", match.IdentityID, "aa")
	}
}

func TestCacheFindNearestDimensionMismatch(t *testing.T) {
	cache := NewCache(&fakeStore{})
	ctx := context.Background()

	if err := cache.Upsert(ctx, "a", domain.Vector{1, 0, 0}, time.Now()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	_, err := cache.FindNearest(domain.Vector{1, 0}, 0.6)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
