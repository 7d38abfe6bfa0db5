package iam

import (
	"sync"
	"time"

	"github.com/tenantgate/tenantgate/internal/accesscontrol/domain"
)

type tokenCacheEntry struct {
	verification *domain.TokenVerification
	expiresAt    time.Time
}

// TokenCache is C1's TTL cache: a map under a single reader-writer lock.
// Readers proceed in parallel; writers exclude all. Entries are never
// mutated in place (spec.md §5).
type TokenCache struct {
	mu      sync.RWMutex
	entries map[string]tokenCacheEntry
	ttl     time.Duration
}

// NewTokenCache creates a token cache with the given entry TTL.
func NewTokenCache(ttl time.Duration) *TokenCache {
	return &TokenCache{
		entries: make(map[string]tokenCacheEntry),
		ttl:     ttl,
	}
}

// Get returns the cached verification for key if present and unexpired.
func (c *TokenCache) Get(key string) (*domain.TokenVerification, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.verification, true
}

// Set stores verification under key, valid for the cache's configured TTL
// from now — not the token's own expiry, per spec.md §4.1 step 3.
func (c *TokenCache) Set(key string, verification *domain.TokenVerification) {
	c.mu.Lock()
	c.entries[key] = tokenCacheEntry{verification: verification, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}
