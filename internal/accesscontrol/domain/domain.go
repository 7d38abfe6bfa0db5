// Package domain holds the value types and sentinel errors shared across
// the access_control bounded context: role assignments, policy rules, and
// the decisions the engine produces from them.
package domain

import (
	"errors"
	"regexp"
	"time"
)

// identifierPattern is the character shape of ResourceName, ActionName,
// RoleName, and ColumnName: lowercase, starting with a letter. The length
// bound is checked by ValidIdentifier.
var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidIdentifier reports whether value is a well-formed identifier of 3-63
// characters. ResourceName/ActionName additionally accept the
// literal wildcard "*" — callers check that separately.
func ValidIdentifier(value string) bool {
	if len(value) < 3 || len(value) > 63 {
		return false
	}
	return identifierPattern.MatchString(value)
}

// Effect is the outcome a PolicyRule grants: Allow or Deny.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// AuthorizationMode switches a table between authentication-only gating and
// full ACL evaluation.
type AuthorizationMode string

const (
	ModeAuthenticated AuthorizationMode = "authenticated"
	ModeACL           AuthorizationMode = "acl"
)

// ImplicitRole is assigned to every principal the first time a table in
// acl mode is accessed, per the bootstrap step (spec.md §4.8 step 9).
const ImplicitRole = "data_api_authenticated"

// RoleAssignment maps a principal to a role within a tenant. The triple
// (tenant, principal, role) is unique; re-assigning is idempotent.
type RoleAssignment struct {
	TenantID    string    `db:"tenant_id"`
	PrincipalID string    `db:"principal_id"`
	RoleName    string    `db:"role_name"`
	CreatedAt   time.Time `db:"created_at"`
}

// PolicyRule is keyed by (tenant, role, resource, action); upserting an
// existing key replaces effect, column lists, and owner scope atomically.
type PolicyRule struct {
	TenantID       string    `db:"tenant_id"`
	RoleName       string    `db:"role_name"`
	ResourceName   string    `db:"resource_name"`
	ActionName     string    `db:"action_name"`
	Effect         Effect    `db:"effect"`
	AllowedColumns *[]string `db:"allowed_columns"`
	DeniedColumns  *[]string `db:"denied_columns"`
	OwnerScope     bool      `db:"owner_scope"`
}

// PermissionRequest is the input to the decision engine: the resolved
// context of a single authorization check.
type PermissionRequest struct {
	TenantID         string
	PrincipalID      string
	ResourceName     string
	ActionName       string
	RequestedColumns []string
	SubjectOwnerID   *string
	RowOwnerID       *string
}

// AuthorizationDecision is the engine's verdict, also the shape persisted
// by the audit sink.
type AuthorizationDecision struct {
	Allowed bool
	Reason  string
}

// TokenVerification is C1's cached result for a single bearer token.
type TokenVerification struct {
	SubjectID string
	JTI       string
	ExpiresAt time.Time
}

// DecisionAuditRecord is one row written by the access_control audit sink
// (C11), one per authorization decision.
type DecisionAuditRecord struct {
	TenantID    string
	PrincipalID string
	RequestID   string
	Resource    string
	Action      string
	Allowed     bool
	Reason      string
	OccurredAt  time.Time
}

var (
	// ErrTenantNotOwned is returned by the Tenant Ownership Store when the
	// principal has no recorded ownership of the tenant.
	ErrTenantNotOwned = errors.New("tenant not owned by principal")
	// ErrNoRulesApplicable signals the applicability filter rejected every
	// candidate rule.
	ErrNoRulesApplicable = errors.New("no rule applicable to context/columns")
)
