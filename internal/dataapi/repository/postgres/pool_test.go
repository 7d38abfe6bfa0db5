package postgres

import (
	"context"
	"testing"

	"github.com/tenantgate/tenantgate/pkg/logger"
)

// TestPoolCache_InvalidDSNIsNotCached exercises C4's double-checked
// construction with a DSN lib/pq rejects before ever dialing out, so this
// stays a fast unit test. A failed build must not leave a half-built entry
// behind for the next call to return silently.
func TestPoolCache_InvalidDSNIsNotCached(t *testing.T) {
	cache := NewPoolCache(logger.New("test", "test"))

	_, err := cache.GetOrCreate(context.Background(), "postgres://[invalid-host")
	if err == nil {
		t.Fatal("expected malformed DSN to fail")
	}

	cache.mu.RLock()
	_, cached := cache.pools["postgres://[invalid-host"]
	cache.mu.RUnlock()
	if cached {
		t.Fatal("a failed pool build must not populate the cache")
	}
}
