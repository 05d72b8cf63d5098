package matcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minwoo/facetrack/internal/domain"
)

// Store is the durable backing of the embedding cache. The cache writes
// through to it on every upsert and repopulates from it at startup.
type Store interface {
	LoadAll(ctx context.Context) ([]domain.FaceEmbedding, error)
	Upsert(ctx context.Context, record *domain.FaceEmbedding) error
	Delete(ctx context.Context, identityID string) error
}

// Match is the best candidate found by a nearest-neighbor scan.
type Match struct {
	IdentityID string
	Distance   float64
}

type entry struct {
	vector    domain.Vector
	updatedAt time.Time
}

// Cache holds the most recent embedding per identity in memory. It must be
// warmed to completion before any matching is served; main enforces that
// ordering at startup. All mutation is write-through to the durable store.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string // insertion order, preserved for the matcher's scan
	store   Store
}

// NewCache creates an empty cache backed by the given store.
func NewCache(store Store) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		store:   store,
	}
}

// Warm loads every persisted embedding record into memory. It replaces any
// previous contents and must complete before FindNearest is first called.
func (c *Cache) Warm(ctx context.Context) error {
	records, err := c.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load embedding records: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry, len(records))
	c.order = make([]string, 0, len(records))
	for _, record := range records {
		c.entries[record.IdentityID] = &entry{
			vector:    record.Vector,
			updatedAt: record.UpdatedAt,
		}
		c.order = append(c.order, record.IdentityID)
	}
	return nil
}

// Get returns the cached vector for an identity.
func (c *Cache) Get(identityID string) (domain.Vector, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[identityID]
	if !ok {
		return nil, false
	}
	return e.vector, true
}

// Len returns the number of cached identities.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Upsert overwrites the entry for an identity, persisting the durable record
// first so memory never runs ahead of the store. Overwrite semantics: the
// previous vector is discarded, not merged.
func (c *Cache) Upsert(ctx context.Context, identityID string, vector domain.Vector, ts time.Time) error {
	record := &domain.FaceEmbedding{
		IdentityID: identityID,
		Vector:     vector,
		UpdatedAt:  ts,
	}
	if err := c.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to persist embedding record: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[identityID]; !ok {
		c.order = append(c.order, identityID)
	}
	c.entries[identityID] = &entry{vector: vector, updatedAt: ts}
	return nil
}

// Evict removes an identity from memory and the durable store. Used only to
// compensate a failed resolution after identity creation.
func (c *Cache) Evict(ctx context.Context, identityID string) error {
	if err := c.store.Delete(ctx, identityID); err != nil {
		return fmt.Errorf("failed to delete embedding record: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[identityID]; !ok {
		return nil
	}
	delete(c.entries, identityID)
	for i, id := range c.order {
		if id == identityID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// FindNearest scans every cached entry in insertion order and returns the
// identity with the minimum cosine distance to target, or nil when no entry
// is strictly below threshold. A distance exactly equal to the threshold is
// not a match. Ties on the minimal distance resolve to the lexicographically
// smallest identity ID so results are stable across cache rebuilds.
func (c *Cache) FindNearest(target domain.Vector, threshold float64) (*Match, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *Match
	for _, id := range c.order {
		e := c.entries[id]
		dist, err := CosineDistance(target, e.vector)
		if err != nil {
			return nil, err
		}
		if dist >= threshold {
			continue
		}
		if best == nil || dist < best.Distance || (dist == best.Distance && id < best.IdentityID) {
			best = &Match{IdentityID: id, Distance: dist}
		}
	}
	return best, nil
}
