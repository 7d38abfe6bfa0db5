package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/tenantgate/tenantgate/internal/accesscontrol/domain"
	"github.com/tenantgate/tenantgate/pkg/database"
)

// PolicyStore is C6. Backed by the admin database's
// access_role_assignments and access_policy_rules tables.
type PolicyStore struct {
	db *database.DB
}

// NewPolicyStore creates a new policy store.
func NewPolicyStore(db *database.DB) *PolicyStore {
	return &PolicyStore{db: db}
}

// AssignRole grants roleName to principalID within tenantID. Idempotent.
func (s *PolicyStore) AssignRole(ctx context.Context, tenantID, principalID, roleName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_role_assignments (tenant_id, principal_id, role_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, principal_id, role_name) DO NOTHING
	`, tenantID, principalID, roleName)
	return err
}

// FindRolesByPrincipal returns every role_name assigned to principalID
// within tenantID. An empty result is not an error; the caller (C9) treats
// it as "no roles assigned".
func (s *PolicyStore) FindRolesByPrincipal(ctx context.Context, tenantID, principalID string) ([]string, error) {
	var roles []string
	err := s.db.SelectContext(ctx, &roles, `
		SELECT role_name FROM access_role_assignments
		WHERE tenant_id = $1 AND principal_id = $2
	`, tenantID, principalID)
	if err == sql.ErrNoRows {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// UpsertRule replaces effect, column lists, and owner scope for the key
// (tenant, role, resource, action).
func (s *PolicyStore) UpsertRule(ctx context.Context, rule domain.PolicyRule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_policy_rules
			(tenant_id, role_name, resource_name, action_name, effect, allowed_columns, denied_columns, owner_scope)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id, role_name, resource_name, action_name)
		DO UPDATE SET
			effect = EXCLUDED.effect,
			allowed_columns = EXCLUDED.allowed_columns,
			denied_columns = EXCLUDED.denied_columns,
			owner_scope = EXCLUDED.owner_scope
	`, rule.TenantID, rule.RoleName, rule.ResourceName, rule.ActionName, string(rule.Effect),
		pq.Array(optionalSlice(rule.AllowedColumns)), pq.Array(optionalSlice(rule.DeniedColumns)), rule.OwnerScope)
	return err
}

// FindRulesForRoles returns every candidate rule matching (tenant, resource,
// action) whose role is among roles, in one round trip; a rule whose
// resource or action is the wildcard '*' also matches. Applicability
// filtering (columns, owner scope) happens in the decision engine, not here.
func (s *PolicyStore) FindRulesForRoles(ctx context.Context, tenantID, resourceName, actionName string, roles []string) ([]domain.PolicyRule, error) {
	if len(roles) == 0 {
		return []domain.PolicyRule{}, nil
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT tenant_id, role_name, resource_name, action_name, effect, allowed_columns, denied_columns, owner_scope
		FROM access_policy_rules
		WHERE tenant_id = $1
		  AND (resource_name = $2 OR resource_name = '*')
		  AND (action_name = $3 OR action_name = '*')
		  AND role_name = ANY($4)
	`, tenantID, resourceName, actionName, pq.Array(roles))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.PolicyRule
	for rows.Next() {
		var rule domain.PolicyRule
		var effect string
		var allowed, denied pq.StringArray

		if err := rows.Scan(&rule.TenantID, &rule.RoleName, &rule.ResourceName, &rule.ActionName,
			&effect, &allowed, &denied, &rule.OwnerScope); err != nil {
			return nil, err
		}
		rule.Effect = domain.Effect(effect)
		if allowed != nil {
			cols := []string(allowed)
			rule.AllowedColumns = &cols
		}
		if denied != nil {
			cols := []string(denied)
			rule.DeniedColumns = &cols
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func optionalSlice(s *[]string) []string {
	if s == nil {
		return nil
	}
	return *s
}
