// Package repository declares the storage contracts for access_control:
// C2 Tenant Ownership Store, C6 Policy Store, and the context's own audit
// sink (C11). Concrete Postgres implementations live in repository/postgres.
package repository

import (
	"context"

	"github.com/tenantgate/tenantgate/internal/accesscontrol/domain"
)

// TenantOwnershipStore is C2.
type TenantOwnershipStore interface {
	Exists(ctx context.Context, tenantID, principalID string) (bool, error)
	Save(ctx context.Context, tenantID, principalID string) error
	ListTenantsByPrincipal(ctx context.Context, principalID string) ([]string, error)
}

// PolicyStore is C6.
type PolicyStore interface {
	AssignRole(ctx context.Context, tenantID, principalID, roleName string) error
	FindRolesByPrincipal(ctx context.Context, tenantID, principalID string) ([]string, error)
	UpsertRule(ctx context.Context, rule domain.PolicyRule) error
	FindRulesForRoles(ctx context.Context, tenantID, resourceName, actionName string, roles []string) ([]domain.PolicyRule, error)
}

// AuditSink is access_control's half of C11: one row per authorization
// decision.
type AuditSink interface {
	RecordDecision(ctx context.Context, record domain.DecisionAuditRecord) error
}
