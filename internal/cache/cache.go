// Package cache provides tagged, time-bounded key/value stores used to
// memoize geocoding lookups. Entries are never updated in place: a Set on an
// existing key replaces it, and whole groups of entries are dropped by tag.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache with per-entry TTL and tag invalidation.
type Store interface {
	// Get returns the value stored under key. ok is false on a miss or an
	// expired entry.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key for ttl and associates it with tags.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error

	// InvalidateTag removes every entry associated with tag and reports how
	// many were removed.
	InvalidateTag(ctx context.Context, tag string) (int, error)
}
