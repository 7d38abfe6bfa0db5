// Package repository declares the storage and pooling contracts for
// data_api: C3 Tenant Connection Resolver, C4 Tenant Pool Cache, C5 Table
// Access Metadata Store, C10 Data Executor, and data_api's own audit sink.
// Concrete implementations live in repository/postgres.
package repository

import (
	"context"

	"github.com/tenantgate/tenantgate/internal/dataapi/domain"
	"github.com/tenantgate/tenantgate/pkg/database"
)

// TenantCatalog is C3: resolves a tenant id to its database connection URL
// by reading the admin database's provisioned_databases table.
type TenantCatalog interface {
	Resolve(ctx context.Context, tenantID string) (url string, err error)
}

// PoolCache is C4: lazily builds and caches one *database.DB per tenant
// connection URL for the lifetime of the process.
type PoolCache interface {
	GetOrCreate(ctx context.Context, url string) (*database.DB, error)
}

// MetadataStore is C5. Every method operates against a tenant's own
// database, already resolved through C3/C4.
type MetadataStore interface {
	Synchronize(ctx context.Context, tenantDB *database.DB, schema string) error
	GetTableAccess(ctx context.Context, tenantDB *database.DB, schema, table string) (*domain.TableAccessMetadata, error)
	ListWritableColumns(ctx context.Context, tenantDB *database.DB, schema, table string) ([]string, error)
	ListReadableColumns(ctx context.Context, tenantDB *database.DB, schema, table string) ([]string, error)
	ListCatalog(ctx context.Context, tenantDB *database.DB, schema string) ([]domain.TableAccessMetadata, error)
	UpsertTableAccess(ctx context.Context, tenantDB *database.DB, metadata domain.TableAccessMetadata) error
	UpsertColumnAccess(ctx context.Context, tenantDB *database.DB, metadata domain.ColumnAccessMetadata) error
}

// Executor is C10.
type Executor interface {
	IntrospectTable(ctx context.Context, tenantDB *database.DB, schema, table string) (*domain.TableSchema, error)
	ListRows(ctx context.Context, tenantDB *database.DB, schema, table string, criteria domain.ListCriteria) ([]map[string]any, error)
	GetRowByPrimaryKey(ctx context.Context, tenantDB *database.DB, schema, table, pkColumn, pkValue string) (map[string]any, error)
	CreateRow(ctx context.Context, tenantDB *database.DB, schema, table string, payload map[string]any) (map[string]any, error)
	PatchRow(ctx context.Context, tenantDB *database.DB, schema, table, pkColumn, pkValue string, payload map[string]any) (map[string]any, error)
	DeleteRow(ctx context.Context, tenantDB *database.DB, schema, table, pkColumn, pkValue string) (bool, error)
}

// AuditSink is data_api's half of C11: one row per data-operation outcome.
type AuditSink interface {
	RecordRequest(ctx context.Context, record domain.RequestAuditRecord) error
}
