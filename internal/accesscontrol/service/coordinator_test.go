package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/tenantgate/tenantgate/internal/accesscontrol/decision"
	"github.com/tenantgate/tenantgate/internal/accesscontrol/domain"
	"github.com/tenantgate/tenantgate/internal/accesscontrol/facade"
	"github.com/tenantgate/tenantgate/internal/accesscontrol/service"
	"github.com/tenantgate/tenantgate/pkg/errors"
	"github.com/tenantgate/tenantgate/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVerifier is a hand-rolled stand-in for iam.Verifier, per spec.md §9's
// "component boundaries must remain substitutable so tests can inject
// fakes".
type fakeVerifier struct {
	verification *domain.TokenVerification
	err          error
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (*domain.TokenVerification, error) {
	return f.verification, f.err
}

type fakeOwnershipStore struct {
	owners map[string]bool // "tenant|principal" -> owns
}

func (f *fakeOwnershipStore) Exists(ctx context.Context, tenantID, principalID string) (bool, error) {
	return f.owners[tenantID+"|"+principalID], nil
}
func (f *fakeOwnershipStore) Save(ctx context.Context, tenantID, principalID string) error {
	if f.owners == nil {
		f.owners = map[string]bool{}
	}
	f.owners[tenantID+"|"+principalID] = true
	return nil
}
func (f *fakeOwnershipStore) ListTenantsByPrincipal(ctx context.Context, principalID string) ([]string, error) {
	return nil, nil
}

type fakePolicyStore struct {
	roles       map[string][]string // "tenant|principal" -> roles
	rules       []domain.PolicyRule
	upsertCalls int
}

func (f *fakePolicyStore) AssignRole(ctx context.Context, tenantID, principalID, roleName string) error {
	if f.roles == nil {
		f.roles = map[string][]string{}
	}
	key := tenantID + "|" + principalID
	for _, r := range f.roles[key] {
		if r == roleName {
			return nil
		}
	}
	f.roles[key] = append(f.roles[key], roleName)
	return nil
}
func (f *fakePolicyStore) FindRolesByPrincipal(ctx context.Context, tenantID, principalID string) ([]string, error) {
	return f.roles[tenantID+"|"+principalID], nil
}
func (f *fakePolicyStore) UpsertRule(ctx context.Context, rule domain.PolicyRule) error {
	f.upsertCalls++
	f.rules = append(f.rules, rule)
	return nil
}
func (f *fakePolicyStore) FindRulesForRoles(ctx context.Context, tenantID, resourceName, actionName string, roles []string) ([]domain.PolicyRule, error) {
	roleSet := map[string]bool{}
	for _, r := range roles {
		roleSet[r] = true
	}
	var out []domain.PolicyRule
	for _, rule := range f.rules {
		if rule.TenantID != tenantID || !roleSet[rule.RoleName] {
			continue
		}
		if rule.ResourceName != resourceName && rule.ResourceName != "*" {
			continue
		}
		if rule.ActionName != actionName && rule.ActionName != "*" {
			continue
		}
		out = append(out, rule)
	}
	return out, nil
}

type fakeAuditSink struct {
	records []domain.DecisionAuditRecord
}

func (f *fakeAuditSink) RecordDecision(ctx context.Context, record domain.DecisionAuditRecord) error {
	f.records = append(f.records, record)
	return nil
}

func newCoordinator(verifier *fakeVerifier, owners *fakeOwnershipStore, policies *fakePolicyStore, audit *fakeAuditSink) *service.Coordinator {
	cache := decision.NewCache(time.Minute)
	log := logger.New("test", "test")
	return service.NewCoordinator(verifier, owners, policies, cache, audit, log)
}

func TestCoordinator_Authenticate_MissingHeader(t *testing.T) {
	c := newCoordinator(&fakeVerifier{}, &fakeOwnershipStore{}, &fakePolicyStore{}, &fakeAuditSink{})
	_, err := c.Authenticate(context.Background(), "t1", "")
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 401, appErr.StatusCode)
}

func TestCoordinator_Authenticate_MalformedBearer(t *testing.T) {
	c := newCoordinator(&fakeVerifier{}, &fakeOwnershipStore{}, &fakePolicyStore{}, &fakeAuditSink{})
	_, err := c.Authenticate(context.Background(), "t1", "Bearer ")
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 401, appErr.StatusCode)
}

func TestCoordinator_Authenticate_InvalidToken(t *testing.T) {
	verifier := &fakeVerifier{err: errors.InvalidToken("bad token")}
	c := newCoordinator(verifier, &fakeOwnershipStore{}, &fakePolicyStore{}, &fakeAuditSink{})
	_, err := c.Authenticate(context.Background(), "t1", "Bearer abc")
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 401, appErr.StatusCode)
}

func TestCoordinator_Authenticate_VerifierUnavailable(t *testing.T) {
	verifier := &fakeVerifier{err: errors.Unavailable("circuit open")}
	c := newCoordinator(verifier, &fakeOwnershipStore{}, &fakePolicyStore{}, &fakeAuditSink{})
	_, err := c.Authenticate(context.Background(), "t1", "Bearer abc")
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 503, appErr.StatusCode)
}

func TestCoordinator_Authenticate_TenantNotOwned(t *testing.T) {
	verifier := &fakeVerifier{verification: &domain.TokenVerification{SubjectID: "p1"}}
	c := newCoordinator(verifier, &fakeOwnershipStore{}, &fakePolicyStore{}, &fakeAuditSink{})
	_, err := c.Authenticate(context.Background(), "t1", "Bearer abc")
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 403, appErr.StatusCode)
}

func TestCoordinator_Authenticate_Success(t *testing.T) {
	verifier := &fakeVerifier{verification: &domain.TokenVerification{SubjectID: "p1"}}
	owners := &fakeOwnershipStore{owners: map[string]bool{"t1|p1": true}}
	c := newCoordinator(verifier, owners, &fakePolicyStore{}, &fakeAuditSink{})
	auth, err := c.Authenticate(context.Background(), "t1", "Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "p1", auth.PrincipalID)
}

func TestCoordinator_CheckPermission_NoRolesAssigned(t *testing.T) {
	audit := &fakeAuditSink{}
	c := newCoordinator(&fakeVerifier{}, &fakeOwnershipStore{}, &fakePolicyStore{}, audit)

	got, err := c.CheckPermission(context.Background(), facade.PermissionRequest{
		TenantID: "t1", PrincipalID: "p1", ResourceName: "productos", ActionName: "read",
	})
	require.NoError(t, err)
	assert.False(t, got.Allowed)
	assert.Equal(t, "no roles assigned", got.Reason)
	require.Len(t, audit.records, 1)
	assert.False(t, audit.records[0].Allowed)
}

func TestCoordinator_CheckPermission_AllowsThenCaches(t *testing.T) {
	policies := &fakePolicyStore{
		roles: map[string][]string{"t1|p1": {"admin"}},
		rules: []domain.PolicyRule{
			{TenantID: "t1", RoleName: "admin", ResourceName: "productos", ActionName: "read", Effect: domain.EffectAllow},
		},
	}
	audit := &fakeAuditSink{}
	c := newCoordinator(&fakeVerifier{}, &fakeOwnershipStore{}, policies, audit)

	req := facade.PermissionRequest{TenantID: "t1", PrincipalID: "p1", ResourceName: "productos", ActionName: "read"}

	decision1, err := c.CheckPermission(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, decision1.Allowed)
	assert.Equal(t, "allow rule matched", decision1.Reason)

	decision2, err := c.CheckPermission(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, decision2.Allowed)
	require.Len(t, audit.records, 2)
	assert.Equal(t, "cached: allow rule matched", audit.records[1].Reason)
}

func TestCoordinator_BootstrapDataApiAccess_IsIdempotent(t *testing.T) {
	policies := &fakePolicyStore{}
	c := newCoordinator(&fakeVerifier{}, &fakeOwnershipStore{}, policies, &fakeAuditSink{})

	req := facade.BootstrapRequest{
		TenantID: "t1", PrincipalID: "p1", ResourceName: "productos",
		ReadableColumns: []string{"nombre"}, WritableColumns: []string{"nombre"},
	}
	require.NoError(t, c.BootstrapDataApiAccess(context.Background(), req))
	require.NoError(t, c.BootstrapDataApiAccess(context.Background(), req))

	assert.Equal(t, []string{domain.ImplicitRole}, policies.roles["t1|p1"], "re-bootstrapping must not duplicate the role assignment")
	assert.Equal(t, 8, policies.upsertCalls, "four rules upserted per bootstrap call, twice")
}
