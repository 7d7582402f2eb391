// Package cache defines the port interface for the in-process read cache.
package cache

import (
	"context"
	"time"
)

// Cache holds serialized requirements keyed by id to absorb repeated reads.
// Implementations are best-effort: a miss is never an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}
