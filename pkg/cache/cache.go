// Package cache provides byte caches for resolved frames and rendered
// artifacts.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for the HTTP server and [NullCache] when caching is off. A [Keyer] builds
// the keys so the CLI and the server agree on them.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values by key.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default time-to-live per entry kind.
const (
	TTLFrame    = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
