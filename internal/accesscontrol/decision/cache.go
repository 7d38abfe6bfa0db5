package decision

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tenantgate/tenantgate/internal/accesscontrol/domain"
)

// cacheEntry pairs a cached decision with its expiry instant.
type cacheEntry struct {
	decision  domain.AuthorizationDecision
	expiresAt time.Time
}

// Cache is C8: a TTL map keyed by request fingerprint, guarded by a single
// reader-writer lock so concurrent readers never block each other while a
// writer excludes all (mirrors the token cache's locking discipline).
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewCache creates a decision cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Get returns the cached decision for req if present and unexpired.
func (c *Cache) Get(req domain.PermissionRequest) (domain.AuthorizationDecision, bool) {
	key := fingerprint(req)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return domain.AuthorizationDecision{}, false
	}
	return entry.decision, true
}

// Set stores decision for req, valid for the cache's TTL.
func (c *Cache) Set(req domain.PermissionRequest, decision domain.AuthorizationDecision) {
	key := fingerprint(req)

	c.mu.Lock()
	c.entries[key] = cacheEntry{decision: decision, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// fingerprint builds the cache key: (tenant, principal, resource, action,
// sorted(requested_columns), subject_owner_id?, row_owner_id?). It
// deliberately omits authorization_mode — see DESIGN.md's open-question
// note on stale allow decisions after a table switches to acl mode.
func fingerprint(req domain.PermissionRequest) string {
	cols := append([]string(nil), req.RequestedColumns...)
	sort.Strings(cols)

	var b strings.Builder
	b.WriteString(req.TenantID)
	b.WriteByte('|')
	b.WriteString(req.PrincipalID)
	b.WriteByte('|')
	b.WriteString(req.ResourceName)
	b.WriteByte('|')
	b.WriteString(req.ActionName)
	b.WriteByte('|')
	b.WriteString(strings.Join(cols, ","))
	b.WriteByte('|')
	if req.SubjectOwnerID != nil {
		b.WriteString(*req.SubjectOwnerID)
	}
	b.WriteByte('|')
	if req.RowOwnerID != nil {
		b.WriteString(*req.RowOwnerID)
	}
	return b.String()
}
