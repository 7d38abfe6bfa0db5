package service_test

import (
	"context"
	"testing"

	"github.com/tenantgate/tenantgate/internal/dataapi/domain"
	"github.com/tenantgate/tenantgate/internal/dataapi/service"
	"github.com/tenantgate/tenantgate/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCatalog_ReturnsSynchronizedTables(t *testing.T) {
	f := newFixture()

	tables, err := f.svc.ListCatalog(context.Background(), rcFor("t1"))
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "productos", tables[0].TableName)
	assert.Equal(t, 1, f.metadata.synchronizeCalled)
}

func TestListPolicyTemplates_ReturnsAllThree(t *testing.T) {
	f := newFixture()

	templates, err := f.svc.ListPolicyTemplates(context.Background(), rcFor("t1"))
	require.NoError(t, err)
	require.Len(t, templates, 3)
}

func TestApplyPolicyTemplate_UnknownNameIsInvalid(t *testing.T) {
	f := newFixture()

	err := f.svc.ApplyPolicyTemplate(context.Background(), rcFor("t1"), "productos", domain.PolicyTemplateName("not_a_template"))
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_POLICY_TEMPLATE", appErr.Code)
}

func TestApplyPolicyTemplate_AuthenticatedCrudSkipsBootstrap(t *testing.T) {
	f := newFixture()

	err := f.svc.ApplyPolicyTemplate(context.Background(), rcFor("t1"), "productos", domain.TemplateAuthenticatedCrud)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeAuthenticated, f.metadata.access.AuthorizationMode)
	assert.Empty(t, f.aclPort.bootstrapReqs)
}

func TestApplyPolicyTemplate_AclCrudBootstrapsAccess(t *testing.T) {
	f := newFixture()

	err := f.svc.ApplyPolicyTemplate(context.Background(), rcFor("t1"), "productos", domain.TemplateACLCrud)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeACL, f.metadata.access.AuthorizationMode)
	require.Len(t, f.aclPort.bootstrapReqs, 1)
	assert.Equal(t, "productos", f.aclPort.bootstrapReqs[0].ResourceName)
}

func TestUpsertTableAccess_PersistsFlags(t *testing.T) {
	f := newFixture()

	updated, err := f.svc.UpsertTableAccess(context.Background(), rcFor("t1"), "productos", domain.TableAccessMetadata{
		Exposed: true, ReadEnabled: true, AuthorizationMode: domain.ModeACL,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeACL, updated.AuthorizationMode)
	assert.Equal(t, "productos", f.metadata.access.TableName)
}

func TestUpsertColumnAccess_Persists(t *testing.T) {
	f := newFixture()

	err := f.svc.UpsertColumnAccess(context.Background(), rcFor("t1"), "productos", "precio", true, false)
	require.NoError(t, err)
}

func rcFor(tenantID string) service.RequestContext {
	return service.RequestContext{TenantID: tenantID, BearerHeader: "Bearer abc"}
}
