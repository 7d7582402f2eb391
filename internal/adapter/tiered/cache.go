// Package tiered composes two cache levels behind the single cache port.
package tiered

import (
	"context"
	"time"

	"github.com/batonworks/baton/internal/port/cache"
)

// Cache reads through an in-process L1 before a remote L2 and backfills L1
// on an L2 hit. Writes and deletes go to both levels so a stale entry never
// outlives the record it shadows.
type Cache struct {
	l1          cache.Cache
	l2          cache.Cache
	backfillTTL time.Duration
}

// New creates a tiered cache. backfillTTL bounds how long an L2-sourced entry
// stays in L1.
func New(l1, l2 cache.Cache, backfillTTL time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, backfillTTL: backfillTTL}
}

// Get checks L1, then L2, backfilling L1 on an L2 hit.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, ok := c.l1.Get(ctx, key); ok {
		return val, true
	}
	if val, ok := c.l2.Get(ctx, key); ok {
		c.l1.Set(ctx, key, val, c.backfillTTL)
		return val, true
	}
	return nil, false
}

// Set writes to both levels.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.l1.Set(ctx, key, value, ttl)
	c.l2.Set(ctx, key, value, ttl)
}

// Delete removes the key from both levels.
func (c *Cache) Delete(ctx context.Context, key string) {
	c.l1.Delete(ctx, key)
	c.l2.Delete(ctx, key)
}
