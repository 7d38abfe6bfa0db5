package decision

import (
	"sync"
	"testing"
	"time"

	"github.com/tenantgate/tenantgate/internal/accesscontrol/domain"
)

func TestCache_MissThenHit(t *testing.T) {
	c := NewCache(time.Minute)
	req := domain.PermissionRequest{TenantID: "t1", PrincipalID: "p1", ResourceName: "productos", ActionName: "read"}

	if _, ok := c.Get(req); ok {
		t.Fatalf("expected miss on empty cache")
	}

	decision := domain.AuthorizationDecision{Allowed: true, Reason: "allow rule matched"}
	c.Set(req, decision)

	got, ok := c.Get(req)
	if !ok {
		t.Fatalf("expected hit after Set")
	}
	if got != decision {
		t.Errorf("got %+v, want %+v", got, decision)
	}
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	c := NewCache(time.Millisecond)
	req := domain.PermissionRequest{TenantID: "t1", PrincipalID: "p1", ResourceName: "productos", ActionName: "read"}
	c.Set(req, domain.AuthorizationDecision{Allowed: true, Reason: "allow rule matched"})

	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(req); ok {
		t.Fatalf("expected entry to have expired")
	}
}

// TestCache_FingerprintIgnoresColumnOrder: the fingerprint sorts requested
// columns, so two requests differing only in column order share an entry.
func TestCache_FingerprintIgnoresColumnOrder(t *testing.T) {
	c := NewCache(time.Minute)
	reqA := domain.PermissionRequest{TenantID: "t1", PrincipalID: "p1", ResourceName: "productos", ActionName: "read", RequestedColumns: []string{"a", "b"}}
	reqB := domain.PermissionRequest{TenantID: "t1", PrincipalID: "p1", ResourceName: "productos", ActionName: "read", RequestedColumns: []string{"b", "a"}}

	c.Set(reqA, domain.AuthorizationDecision{Allowed: true, Reason: "allow rule matched"})

	if _, ok := c.Get(reqB); !ok {
		t.Fatalf("expected fingerprint to be order-independent over columns")
	}
}

func TestCache_DistinctTenantsDoNotCollide(t *testing.T) {
	c := NewCache(time.Minute)
	reqT1 := domain.PermissionRequest{TenantID: "t1", PrincipalID: "p1", ResourceName: "productos", ActionName: "read"}
	reqT2 := domain.PermissionRequest{TenantID: "t2", PrincipalID: "p1", ResourceName: "productos", ActionName: "read"}

	c.Set(reqT1, domain.AuthorizationDecision{Allowed: true, Reason: "allow rule matched"})

	if _, ok := c.Get(reqT2); ok {
		t.Fatalf("tenant isolation violated: t2 saw t1's cached decision")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache(time.Minute)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		req := domain.PermissionRequest{TenantID: "t1", PrincipalID: "p1", ResourceName: "productos", ActionName: "read"}
		go func() {
			defer wg.Done()
			c.Set(req, domain.AuthorizationDecision{Allowed: true, Reason: "allow rule matched"})
		}()
		go func() {
			defer wg.Done()
			c.Get(req)
		}()
	}
	wg.Wait()
}
