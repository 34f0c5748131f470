package storage

import (
	"context"
	"time"
)

// Cache is the key/value contract the snapshot cache is built on. Both the
// Redis backend and the in-process backend implement identical semantics:
// values expire after their TTL, writes replace whole values atomically, and
// deletes are idempotent.
type Cache interface {
	// Get returns the raw value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores a value with a TTL, overwriting any prior value.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPrefix removes every key sharing a prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error
	// Ping checks backend reachability.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}
