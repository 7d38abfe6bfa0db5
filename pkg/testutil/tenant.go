package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TestTenant represents a tenant provisioned for testing. Unlike the
// schema-per-tenant layouts seen elsewhere in the examples, a TenantGate
// tenant owns a physically separate database, so each TestTenant carries
// its own connection string.
type TestTenant struct {
	ID       string
	Name     string
	Slug     string
	Database string
	DSN      string
}

// TenantManager provisions and tracks tenant databases inside a single
// shared Postgres instance (the test container). CreateTenant issues a real
// CREATE DATABASE rather than a schema, mirroring the one-database-per-tenant
// model C3's Tenant Connection Resolver assumes in production.
type TenantManager struct {
	adminDSN string
	admin    *sqlx.DB
	tenants  []TestTenant
	mu       sync.Mutex
}

// NewTenantManager creates a new tenant manager backed by the admin
// connection of a test Postgres instance.
func NewTenantManager(admin *sqlx.DB, adminDSN string) *TenantManager {
	return &TenantManager{
		adminDSN: adminDSN,
		admin:    admin,
		tenants:  make([]TestTenant, 0),
	}
}

// CreateTenant provisions a new tenant database and registers it with the
// admin catalog's provisioned_databases table.
//
// Usage:
//
//	tm := testutil.NewTenantManager(adminDB, adminDSN)
//	tenant, err := tm.CreateTenant(ctx, "acme-clinic")
//	tenantDB, err := tenant.Connect(ctx)
func (tm *TenantManager) CreateTenant(ctx context.Context, name string) (*TestTenant, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	id := uuid.New().String()
	slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	dbName := fmt.Sprintf("tenant_%s", strings.ReplaceAll(slug, "-", "_"))

	if _, err := tm.admin.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pqIdent(dbName))); err != nil {
		return nil, fmt.Errorf("failed to create tenant database: %w", err)
	}

	dsn := replaceDatabaseInDSN(tm.adminDSN, dbName)

	if _, err := tm.admin.ExecContext(ctx, `
		INSERT INTO provisioned_databases (tenant_id, name, slug, database_url, status)
		VALUES ($1, $2, $3, $4, 'active')
		ON CONFLICT (slug) DO NOTHING
	`, id, name, slug, dsn); err != nil {
		return nil, fmt.Errorf("failed to register tenant: %w", err)
	}

	t := TestTenant{ID: id, Name: name, Slug: slug, Database: dbName, DSN: dsn}
	tm.tenants = append(tm.tenants, t)
	return &t, nil
}

// Connect opens a connection to this tenant's database.
func (t *TestTenant) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", t.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to tenant database: %w", err)
	}
	return db, nil
}

// DropAll drops every tenant database this manager created. Intended for
// suite teardown; the container itself is disposable so this is best-effort.
func (tm *TenantManager) DropAll(ctx context.Context) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for _, t := range tm.tenants {
		_, _ = tm.admin.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", pqIdent(t.Database)))
	}
	tm.tenants = nil
}

func pqIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// replaceDatabaseInDSN swaps the path component (database name) of a
// postgres:// DSN, leaving host/credentials/params untouched.
func replaceDatabaseInDSN(dsn, dbName string) string {
	qIdx := strings.IndexByte(dsn, '?')
	query := ""
	base := dsn
	if qIdx >= 0 {
		base = dsn[:qIdx]
		query = dsn[qIdx:]
	}
	slashIdx := strings.LastIndexByte(base, '/')
	if slashIdx < 0 {
		return dsn
	}
	return base[:slashIdx+1] + dbName + query
}
