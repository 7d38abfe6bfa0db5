package postgres_test

import (
	"context"
	"testing"

	"github.com/tenantgate/tenantgate/internal/accesscontrol/domain"
	"github.com/tenantgate/tenantgate/internal/accesscontrol/repository/postgres"
	"github.com/tenantgate/tenantgate/pkg/database"
	"github.com/tenantgate/tenantgate/pkg/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyStore_AssignRole(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.Mock.ExpectExec("INSERT INTO access_role_assignments").WillReturnResult(sqlmock.NewResult(1, 1))

	store := postgres.NewPolicyStore(&database.DB{DB: mockDB.DB})
	require.NoError(t, store.AssignRole(context.Background(), "t1", "p1", "admin"))
}

func TestPolicyStore_FindRolesByPrincipal_EmptyIsNotAnError(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.Mock.ExpectQuery("SELECT role_name FROM access_role_assignments").WillReturnRows(testutil.MockRows("role_name"))

	store := postgres.NewPolicyStore(&database.DB{DB: mockDB.DB})
	roles, err := store.FindRolesByPrincipal(context.Background(), "t1", "p-unknown")
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestPolicyStore_UpsertRule(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.Mock.ExpectExec("INSERT INTO access_policy_rules").WillReturnResult(sqlmock.NewResult(1, 1))

	store := postgres.NewPolicyStore(&database.DB{DB: mockDB.DB})
	cols := []string{"nombre", "precio"}
	err := store.UpsertRule(context.Background(), domain.PolicyRule{
		TenantID: "t1", RoleName: "admin", ResourceName: "productos", ActionName: "read",
		Effect: domain.EffectAllow, AllowedColumns: &cols,
	})
	require.NoError(t, err)
}

func TestPolicyStore_FindRulesForRoles_EmptyRolesShortCircuits(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	store := postgres.NewPolicyStore(&database.DB{DB: mockDB.DB})
	rules, err := store.FindRulesForRoles(context.Background(), "t1", "productos", "read", nil)
	require.NoError(t, err)
	assert.Empty(t, rules)
	mockDB.ExpectationsWereMet(t)
}

func TestPolicyStore_FindRulesForRoles_ScansColumnArrays(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"tenant_id", "role_name", "resource_name", "action_name", "effect", "allowed_columns", "denied_columns", "owner_scope"}).
		AddRow("t1", "admin", "productos", "read", "allow", pqArray("nombre", "precio"), pqArray(), false)
	mockDB.Mock.ExpectQuery("SELECT tenant_id, role_name, resource_name, action_name, effect, allowed_columns, denied_columns, owner_scope").WillReturnRows(rows)

	store := postgres.NewPolicyStore(&database.DB{DB: mockDB.DB})
	rules, err := store.FindRulesForRoles(context.Background(), "t1", "productos", "read", []string{"admin"})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, domain.EffectAllow, rules[0].Effect)
	require.NotNil(t, rules[0].AllowedColumns)
	assert.Equal(t, []string{"nombre", "precio"}, *rules[0].AllowedColumns)
}

// pqArray renders a Postgres text array literal the way lib/pq scans it
// back out of a driver.Value string, matching what pq.StringArray.Scan
// expects from a sqlmock row.
func pqArray(values ...string) string {
	if len(values) == 0 {
		return "{}"
	}
	out := "{"
	for i, v := range values {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out + "}"
}
