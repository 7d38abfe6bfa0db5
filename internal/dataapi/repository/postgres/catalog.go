// Package postgres implements data_api's storage contracts: C3 against the
// admin database, C4's in-memory pool cache, C5/C10 against each tenant's
// own database.
package postgres

import (
	"database/sql"

	"github.com/tenantgate/tenantgate/pkg/database"
	"github.com/tenantgate/tenantgate/pkg/errors"

	"context"
)

// TenantCatalog is C3. Backed by the admin database's
// provisioned_databases table.
type TenantCatalog struct {
	admin *database.DB
}

// NewTenantCatalog creates a new tenant connection resolver.
func NewTenantCatalog(admin *database.DB) *TenantCatalog {
	return &TenantCatalog{admin: admin}
}

// Resolve looks up tenantID in the admin catalog; a missing row is
// TenantDatabaseNotFound, a row whose status isn't active is AccessDenied
// (spec.md §4.3).
func (c *TenantCatalog) Resolve(ctx context.Context, tenantID string) (string, error) {
	var row struct {
		DatabaseURL string `db:"database_url"`
		Status      string `db:"status"`
	}

	err := c.admin.GetContext(ctx, &row, `
		SELECT database_url, status FROM provisioned_databases WHERE tenant_id = $1
	`, tenantID)
	if err == sql.ErrNoRows {
		return "", errors.TenantDatabaseNotFound()
	}
	if err != nil {
		return "", errors.Wrap(err, "INTERNAL_ERROR", "failed to resolve tenant database", 500)
	}

	if row.Status != "active" {
		return "", errors.AccessDenied("tenant database is not active")
	}
	return row.DatabaseURL, nil
}
