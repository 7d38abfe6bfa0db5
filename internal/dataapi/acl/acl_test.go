package acl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tenantgate/tenantgate/internal/accesscontrol/facade"
	"github.com/tenantgate/tenantgate/internal/dataapi/acl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFacade is a hand-rolled stand-in for facade.Facade, confirming the
// Adapter is a pure pass-through across the data_api/access_control
// boundary (spec.md §9 "Implicit cycles").
type fakeFacade struct {
	auth         facade.Authentication
	authErr      error
	decision     facade.PermissionDecision
	checkErr     error
	bootstrapErr error
	lastCheck    facade.PermissionRequest
	lastBoot     facade.BootstrapRequest
}

func (f *fakeFacade) Authenticate(ctx context.Context, tenantID, bearerHeader string) (facade.Authentication, error) {
	return f.auth, f.authErr
}
func (f *fakeFacade) CheckPermission(ctx context.Context, req facade.PermissionRequest) (facade.PermissionDecision, error) {
	f.lastCheck = req
	return f.decision, f.checkErr
}
func (f *fakeFacade) BootstrapDataApiAccess(ctx context.Context, req facade.BootstrapRequest) error {
	f.lastBoot = req
	return f.bootstrapErr
}

func TestAdapter_Authenticate_PassesThrough(t *testing.T) {
	fake := &fakeFacade{auth: facade.Authentication{PrincipalID: "p1"}}
	adapter := acl.NewAdapter(fake)

	auth, err := adapter.Authenticate(context.Background(), "t1", "Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "p1", auth.PrincipalID)
}

func TestAdapter_Authenticate_PropagatesError(t *testing.T) {
	fake := &fakeFacade{authErr: errors.New("identity service unavailable")}
	adapter := acl.NewAdapter(fake)

	_, err := adapter.Authenticate(context.Background(), "t1", "Bearer abc")
	require.Error(t, err)
}

func TestAdapter_CheckPermission_PassesRequestThrough(t *testing.T) {
	fake := &fakeFacade{decision: facade.PermissionDecision{Allowed: true, Reason: "allow rule matched"}}
	adapter := acl.NewAdapter(fake)

	req := acl.PermissionRequest{TenantID: "t1", PrincipalID: "p1", ResourceName: "productos", ActionName: "read"}
	decision, err := adapter.CheckPermission(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, "productos", fake.lastCheck.ResourceName)
}

func TestAdapter_BootstrapDataApiAccess_PassesRequestThrough(t *testing.T) {
	fake := &fakeFacade{}
	adapter := acl.NewAdapter(fake)

	req := acl.BootstrapRequest{TenantID: "t1", PrincipalID: "p1", ResourceName: "productos", WritableColumns: []string{"nombre"}}
	require.NoError(t, adapter.BootstrapDataApiAccess(context.Background(), req))
	assert.Equal(t, []string{"nombre"}, fake.lastBoot.WritableColumns)
}
