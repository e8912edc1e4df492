// Package cache provides the read-through cache used in front of problem queries.
//
// Entries older than the configured TTL are reported as misses. The cache is only ever
// invalidated as a whole; there is no per-key delete.
package cache

import (
	"context"
	"time"
)

const DefaultTTL = time.Hour

type Cache interface {
	// Get returns the stored value and true, or false when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Generation identifies the current contents. It changes on every Clear.
	Generation(ctx context.Context) (string, error)
	// SetAt stores value only while gen is still the current generation, so a load that
	// started before a Clear cannot bring back what the Clear removed.
	SetAt(ctx context.Context, gen, key string, value []byte) error
	// Clear drops every entry.
	Clear(ctx context.Context) error
	// Len reports the number of stored entries. Expired entries not yet evicted may be counted.
	Len(ctx context.Context) (int, error)
}
