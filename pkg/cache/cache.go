// Package cache stores intermediate pipeline results keyed by content hash.
//
// Three stages are cached: parsed trees, computed layouts, and rendered
// artifacts. Keys come from a [Keyer] so that every caller (CLI, API server)
// derives identical keys for identical inputs.
//
// Backends:
//   - [NullCache]: caching disabled
//   - [FileCache]: a directory on local disk, used by the CLI
//   - [RedisCache]: a shared Redis instance, used by the API server
package cache

import (
	"context"
	"time"
)

// TTLs for each cached stage.
const (
	TTLTree     = 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A zero ttl stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
