// Package facade defines the anti-corruption boundary data_api uses to
// reach into access_control. Nothing under internal/dataapi imports
// access_control's domain, repository, or decision packages directly; it
// only ever sees these value types and the Facade interface (spec.md §9
// "Implicit cycles").
package facade

import "context"

// PermissionRequest is the request half of check_permission.
type PermissionRequest struct {
	TenantID         string
	PrincipalID      string
	ResourceName     string
	ActionName       string
	RequestedColumns []string
	SubjectOwnerID   *string
	RowOwnerID       *string
	RequestID        *string
}

// PermissionDecision is the response half of check_permission.
type PermissionDecision struct {
	Allowed bool
	Reason  string
}

// BootstrapRequest is the input to bootstrap_data_api_access: ensure a
// principal's default ACL membership for a table the first time it is
// accessed in acl mode.
type BootstrapRequest struct {
	TenantID        string
	PrincipalID     string
	ResourceName    string
	ReadableColumns []string
	WritableColumns []string
}

// Authentication is the result of verifying a bearer token and confirming
// tenant ownership (spec.md §4.8 steps 1-3). This is not one of the two
// named facade operations in the original source, but the bounded-context
// split (access_control owns C1/C2, data_api owns transport) leaves no
// other place for the HTTP layer to reach C1/C2 without importing
// access_control internals, so it rides the same facade.
type Authentication struct {
	PrincipalID string
}

// Facade is the port data_api depends on. access_control's coordinator
// (service.Coordinator) is the only implementation.
type Facade interface {
	// Authenticate verifies the bearer token via C1 and confirms the
	// caller owns the tenant via C2. bearerHeader is the raw
	// "Authorization" header value, including the "Bearer " prefix.
	Authenticate(ctx context.Context, tenantID, bearerHeader string) (Authentication, error)

	// CheckPermission runs the ACL portion of C9 (steps 9-10): role
	// lookup, decision cache, and the C7 decision engine.
	CheckPermission(ctx context.Context, req PermissionRequest) (PermissionDecision, error)

	// BootstrapDataApiAccess grants the implicit role and the four
	// default CRUD rules for a table the first time a principal reaches
	// it in acl mode (spec.md §4.8 step 9, §9 "bootstrap").
	BootstrapDataApiAccess(ctx context.Context, req BootstrapRequest) error
}
