package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/tenantgate/tenantgate/pkg/database"
	"github.com/tenantgate/tenantgate/pkg/logger"
)

// PoolCache is C4: a reader-writer-locked map of connection URL to an
// established *database.DB, built lazily and kept for process lifetime.
// Double-checked construction avoids two concurrent first-requests for the
// same tenant opening duplicate pools (spec.md §4.3, §5).
type PoolCache struct {
	mu    sync.RWMutex
	pools map[string]*database.DB
	log   *logger.Logger
}

// NewPoolCache creates an empty tenant pool cache.
func NewPoolCache(log *logger.Logger) *PoolCache {
	return &PoolCache{
		pools: make(map[string]*database.DB),
		log:   log.WithComponent("dataapi.poolcache"),
	}
}

// GetOrCreate returns the pool for url, building it on first use.
func (c *PoolCache) GetOrCreate(ctx context.Context, url string) (*database.DB, error) {
	c.mu.RLock()
	pool, ok := c.pools[url]
	c.mu.RUnlock()
	if ok {
		return pool, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check: another goroutine may have built it while we waited for
	// the exclusive lock.
	if pool, ok := c.pools[url]; ok {
		return pool, nil
	}

	pool, err := database.NewWithDSN(url, c.log)
	if err != nil {
		return nil, fmt.Errorf("failed to establish tenant pool: %w", err)
	}

	c.pools[url] = pool
	return pool, nil
}
