package authcoordinator

import (
	"sync"
	"time"

	"go-genai-core/internal/authstrategy"
	"go-genai-core/internal/constants"
)

// cacheEntry is a CredentialCacheEntry: usable iff time.Now().Before(expiresAt).
type cacheEntry struct {
	credentials authstrategy.Credentials
	expiresAt   time.Time
}

func (e cacheEntry) usable(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.Before(e.expiresAt)
}

// expiryFor computes the cache entry's expiry for a freshly authenticated
// credential, applying the strategy-specific TTL and (for VertexAI) the
// safety margin ahead of the token's actual upstream expiry.
func expiryFor(strategy authstrategy.Strategy, authenticated authstrategy.Credentials, now time.Time) time.Time {
	switch strategy {
	case authstrategy.VertexAI:
		cap := now.Add(constants.VertexCredentialCacheTTL)
		if !authenticated.ExpiresAt.IsZero() {
			withMargin := authenticated.ExpiresAt.Add(-constants.VertexTokenSafetyMargin)
			if withMargin.Before(cap) {
				return withMargin
			}
		}
		return cap
	default:
		return now.Add(constants.GeminiCredentialCacheTTL)
	}
}

// cache holds one entry per strategy. A single RWMutex guards all entries and
// is held only for the map access itself; authentication runs outside it, so
// a refresh in progress for one strategy never blocks reads or refreshes of
// the other.
type cache struct {
	mu      sync.RWMutex
	entries map[authstrategy.Strategy]cacheEntry
}

func newCache() *cache {
	return &cache{entries: make(map[authstrategy.Strategy]cacheEntry)}
}

func (c *cache) get(strategy authstrategy.Strategy, now time.Time) (authstrategy.Credentials, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[strategy]
	if !ok || !entry.usable(now) {
		return authstrategy.Credentials{}, false
	}
	return entry.credentials, true
}

func (c *cache) put(strategy authstrategy.Strategy, creds authstrategy.Credentials, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[strategy] = cacheEntry{credentials: creds, expiresAt: expiresAt}
}

func (c *cache) invalidate(strategy authstrategy.Strategy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, strategy)
}
