// Package acl is data_api's own small port onto access_control, and the
// adapter that calls the real facade. Nothing here imports
// internal/accesscontrol/domain, repository, or decision — only the
// facade's value types (spec.md §9 "Implicit cycles").
package acl

import (
	"context"

	"github.com/tenantgate/tenantgate/internal/accesscontrol/facade"
)

// PermissionRequest mirrors facade.PermissionRequest; data_api builds this
// shape itself rather than importing access_control's package name into
// its call sites.
type PermissionRequest = facade.PermissionRequest

// PermissionDecision mirrors facade.PermissionDecision.
type PermissionDecision = facade.PermissionDecision

// BootstrapRequest mirrors facade.BootstrapRequest.
type BootstrapRequest = facade.BootstrapRequest

// Authentication mirrors facade.Authentication.
type Authentication = facade.Authentication

// Port is the dependency data_api's service layer depends on.
type Port interface {
	Authenticate(ctx context.Context, tenantID, bearerHeader string) (Authentication, error)
	CheckPermission(ctx context.Context, req PermissionRequest) (PermissionDecision, error)
	BootstrapDataApiAccess(ctx context.Context, req BootstrapRequest) error
}

// Adapter wraps a facade.Facade so data_api can depend on the local Port
// type instead of reaching into access_control directly.
type Adapter struct {
	facade facade.Facade
}

// NewAdapter wraps the access_control facade implementation.
func NewAdapter(f facade.Facade) *Adapter {
	return &Adapter{facade: f}
}

func (a *Adapter) Authenticate(ctx context.Context, tenantID, bearerHeader string) (Authentication, error) {
	return a.facade.Authenticate(ctx, tenantID, bearerHeader)
}

func (a *Adapter) CheckPermission(ctx context.Context, req PermissionRequest) (PermissionDecision, error) {
	return a.facade.CheckPermission(ctx, req)
}

func (a *Adapter) BootstrapDataApiAccess(ctx context.Context, req BootstrapRequest) error {
	return a.facade.BootstrapDataApiAccess(ctx, req)
}
