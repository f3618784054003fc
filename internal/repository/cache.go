package repository

import (
	"context"
	"strconv"
	"time"
)

// =============================================================================
// Cache Interface
// =============================================================================

// Cache defines the interface for caching operations. The memory backend is
// private to one process; only Redis is shared with faucet-admin.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an optional TTL.
	// If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error
}

// =============================================================================
// Common Cache Keys
// =============================================================================

// CacheKeys provides cache key generation.
var CacheKeys = cacheKeys{}

type cacheKeys struct{}

// Identity returns the cache key for an access key's active identity.
func (cacheKeys) Identity(accessKeyID string) string {
	return "cache:identity:" + accessKeyID
}

// Product returns the cache key for a product by ID.
func (cacheKeys) Product(id int64) string {
	return "cache:product:" + strconv.FormatInt(id, 10)
}
