package storage

import (
	"context"
	"io"
)

// SnapshotStorage is the object store holding captured face snapshots.
type SnapshotStorage interface {
	// Put uploads a snapshot under the given key
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Get downloads a snapshot
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// URL returns the public URL for a stored snapshot
	URL(key string) string

	// Delete removes a snapshot
	Delete(ctx context.Context, key string) error

	// Exists checks whether a snapshot is already stored
	Exists(ctx context.Context, key string) (bool, error)
}
