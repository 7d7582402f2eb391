// Package natskv implements the cache port on a NATS JetStream key-value
// bucket, giving replicas a shared second cache level.
package natskv

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const bucketName = "baton_requirements"

// Cache stores serialized requirements in a JetStream KV bucket. Entry TTL is
// set on the bucket, so per-call TTLs are ignored. All operations are
// best-effort; a broker hiccup degrades to a miss.
type Cache struct {
	kv jetstream.KeyValue
}

// New creates the bucket if needed and returns a Cache over it.
func New(ctx context.Context, js jetstream.JetStream, ttl time.Duration) (*Cache, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucketName,
		TTL:    ttl,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{kv: kv}, nil
}

// Get fetches a value from the bucket.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, jetstream.ErrKeyNotFound) {
			slog.Warn("nats kv get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return entry.Value(), true
}

// Set stores a value in the bucket. The bucket TTL applies, not the argument.
func (c *Cache) Set(ctx context.Context, key string, value []byte, _ time.Duration) {
	if _, err := c.kv.Put(ctx, key, value); err != nil {
		slog.Warn("nats kv put failed", "key", key, "error", err)
	}
}

// Delete removes a value from the bucket.
func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		slog.Warn("nats kv delete failed", "key", key, "error", err)
	}
}
