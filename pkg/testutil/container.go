// Package testutil provides testing utilities for TenantGate: a disposable
// Postgres testcontainer, tenant-database provisioning, mock factories, and
// common test fixtures.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance used as the
// admin database. Tenant databases are additional databases created inside
// the same instance via TenantManager.
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container.
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers.
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "tenantgate_admin",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container standing in
// for the admin database.
//
// Usage:
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer container.Terminate(ctx)
//	    os.Exit(m.Run())
//	}
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "tenantgate_admin"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the admin database.
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container.
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// AdminSchemaMigration creates the admin-database catalog tables named in
// spec.md §6 "Persisted state": the provisioning control plane's catalog
// (consumed read-only by C3), plus access_control's and data_api's own
// tables (C2, C6, and both audit sinks).
func AdminSchemaMigration() string {
	return `
		CREATE TABLE IF NOT EXISTS provisioned_databases (
			tenant_id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(100) UNIQUE NOT NULL,
			database_url TEXT NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS tenant_ownerships (
			tenant_id UUID NOT NULL,
			user_id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (tenant_id, user_id)
		);

		CREATE TABLE IF NOT EXISTS access_role_assignments (
			tenant_id UUID NOT NULL,
			principal_id UUID NOT NULL,
			role_name VARCHAR(100) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (tenant_id, principal_id, role_name)
		);

		CREATE TABLE IF NOT EXISTS access_policy_rules (
			tenant_id UUID NOT NULL,
			role_name VARCHAR(100) NOT NULL,
			resource_name VARCHAR(100) NOT NULL,
			action_name VARCHAR(50) NOT NULL,
			effect VARCHAR(10) NOT NULL,
			allowed_columns TEXT[],
			denied_columns TEXT[],
			owner_scope BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (tenant_id, role_name, resource_name, action_name)
		);

		CREATE TABLE IF NOT EXISTS access_authorization_decision_audit (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			principal_id UUID NOT NULL,
			request_id VARCHAR(100),
			resource_name VARCHAR(100) NOT NULL,
			action_name VARCHAR(50) NOT NULL,
			allowed BOOLEAN NOT NULL,
			reason TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS data_api_audit_logs (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			request_id VARCHAR(100),
			schema_name VARCHAR(100) NOT NULL,
			table_name VARCHAR(100) NOT NULL,
			action_name VARCHAR(50) NOT NULL,
			principal_id UUID NOT NULL,
			success BOOLEAN NOT NULL,
			status_code INT NOT NULL,
			details TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
}

// ProductosMigration creates the "productos" base table used by the seed
// scenarios inside a tenant's own database: a plain owner-scoped resource
// exercised by both the ACL policy templates and owner-scoped policy rules.
func ProductosMigration() string {
	return `
		CREATE TABLE IF NOT EXISTS productos (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			sku TEXT NOT NULL UNIQUE,
			owner_id UUID,
			price INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
}

// DataAPITenantSchemaMigration creates C5's exposure tables
// (data_api_table_metadata, data_api_column_metadata) inside a tenant's own
// database, alongside its base tables.
func DataAPITenantSchemaMigration() string {
	return `
		CREATE TABLE IF NOT EXISTS data_api_table_metadata (
			schema_name VARCHAR(100) NOT NULL,
			table_name VARCHAR(100) NOT NULL,
			exposed BOOLEAN NOT NULL DEFAULT TRUE,
			read_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			create_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			update_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			delete_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			introspect_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			authorization_mode VARCHAR(20) NOT NULL DEFAULT 'authenticated',
			PRIMARY KEY (schema_name, table_name)
		);

		CREATE TABLE IF NOT EXISTS data_api_column_metadata (
			schema_name VARCHAR(100) NOT NULL,
			table_name VARCHAR(100) NOT NULL,
			column_name VARCHAR(100) NOT NULL,
			readable BOOLEAN NOT NULL DEFAULT TRUE,
			writable BOOLEAN NOT NULL DEFAULT TRUE,
			PRIMARY KEY (schema_name, table_name, column_name)
		);
	`
}
