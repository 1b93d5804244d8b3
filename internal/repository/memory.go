package repository

import (
	"context"
	"sync"
	"time"

	"arrival-guide/internal/models"
)

type cacheKey struct {
	city        string
	countryCode string
	airportCode string
}

// MemoryCache is an in-process transport cache with the same merge and
// expiry semantics as the Postgres implementation. Used by tests and the
// CLI's --no-db mode.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]models.TransportCacheEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory transport cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[cacheKey]models.TransportCacheEntry),
		now:     time.Now,
	}
}

// Get returns the entry for the key, or nil when absent or expired.
func (c *MemoryCache) Get(_ context.Context, city, countryCode, airportCode string) (*models.TransportCacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey{city, countryCode, airportCode}]
	if !ok || entry.Expired(c.now()) {
		return nil, nil
	}
	copied := entry
	return &copied, nil
}

// Upsert merges non-nil fields into any existing entry and refreshes the
// expiry.
func (c *MemoryCache) Upsert(_ context.Context, params UpsertParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{params.City, params.CountryCode, params.AirportCode}
	entry := c.entries[key]
	entry.City = params.City
	entry.CountryCode = params.CountryCode
	entry.AirportCode = params.AirportCode
	if params.Transport != nil {
		entry.Transport = params.Transport
	}
	if params.Highway != nil {
		entry.Highway = params.Highway
	}
	entry.ExpiresAt = c.now().Add(params.TTL)
	c.entries[key] = entry
	return nil
}
