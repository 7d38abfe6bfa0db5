// Package domain holds the value types and sentinel errors of the data_api
// bounded context: table/column exposure metadata, the policy templates
// that seed them, and the catalog entry a tenant resolves to.
package domain

import "errors"

// TableAccessMetadata is C5's per-(tenant, schema, table) exposure record.
// Created lazily by synchronize with every flag true and mode
// authenticated (spec.md §3).
type TableAccessMetadata struct {
	TenantID          string            `db:"tenant_id" json:"tenant_id,omitempty"`
	SchemaName        string            `db:"schema_name" json:"schema_name,omitempty"`
	TableName         string            `db:"table_name" json:"table_name,omitempty"`
	Exposed           bool              `db:"exposed" json:"exposed"`
	ReadEnabled       bool              `db:"read_enabled" json:"read_enabled"`
	CreateEnabled     bool              `db:"create_enabled" json:"create_enabled"`
	UpdateEnabled     bool              `db:"update_enabled" json:"update_enabled"`
	DeleteEnabled     bool              `db:"delete_enabled" json:"delete_enabled"`
	IntrospectEnabled bool              `db:"introspect_enabled" json:"introspect_enabled"`
	AuthorizationMode AuthorizationMode `db:"authorization_mode" json:"authorization_mode"`
}

// AuthorizationMode mirrors accesscontrol/domain.AuthorizationMode without
// importing the access_control bounded context — data_api only ever
// reaches access_control through the facade (spec.md §9 "implicit
// cycles").
type AuthorizationMode string

const (
	ModeAuthenticated AuthorizationMode = "authenticated"
	ModeACL           AuthorizationMode = "acl"
)

// ColumnAccessMetadata is C5's per-(tenant, schema, table, column) record.
// Primary-key columns default to writable=false; every other column
// defaults to both true (spec.md §3).
type ColumnAccessMetadata struct {
	TenantID   string `db:"tenant_id" json:"tenant_id,omitempty"`
	SchemaName string `db:"schema_name" json:"schema_name,omitempty"`
	TableName  string `db:"table_name" json:"table_name,omitempty"`
	ColumnName string `db:"column_name" json:"column_name,omitempty"`
	Readable   bool   `db:"readable" json:"readable"`
	Writable   bool   `db:"writable" json:"writable"`
}

// ColumnInfo is the result of introspecting a real table's columns via
// information_schema (spec.md §4.9).
type ColumnInfo struct {
	Name       string `json:"name" db:"column_name"`
	DataType   string `json:"data_type" db:"data_type"`
	Nullable   bool   `json:"nullable" db:"nullable"`
	PrimaryKey bool   `json:"primary_key" db:"primary_key"`
}

// TableSchema is the response shape of GET /api/v1/{table}/_schema.
type TableSchema struct {
	Schema  string       `json:"schema"`
	Table   string       `json:"table"`
	Columns []ColumnInfo `json:"columns"`
}

// PolicyTemplateName is one of the three named templates a table's access
// metadata can be seeded from.
type PolicyTemplateName string

const (
	TemplateACLCrud           PolicyTemplateName = "acl_crud"
	TemplateACLReadOnly       PolicyTemplateName = "acl_read_only"
	TemplateAuthenticatedCrud PolicyTemplateName = "authenticated_crud"
)

// PolicyTemplate is the flag 6-tuple a named template applies to a table's
// TableAccessMetadata row.
type PolicyTemplate struct {
	Name              PolicyTemplateName `json:"name"`
	AuthorizationMode AuthorizationMode  `json:"authorization_mode"`
	Exposed           bool               `json:"exposed"`
	ReadEnabled       bool               `json:"read_enabled"`
	CreateEnabled     bool               `json:"create_enabled"`
	UpdateEnabled     bool               `json:"update_enabled"`
	DeleteEnabled     bool               `json:"delete_enabled"`
	IntrospectEnabled bool               `json:"introspect_enabled"`
}

// Templates is the closed set of supplemented policy templates (SPEC_FULL
// "Supplemented features").
var Templates = map[PolicyTemplateName]PolicyTemplate{
	TemplateACLCrud: {
		Name: TemplateACLCrud, AuthorizationMode: ModeACL,
		Exposed: true, ReadEnabled: true, CreateEnabled: true, UpdateEnabled: true, DeleteEnabled: true, IntrospectEnabled: true,
	},
	TemplateACLReadOnly: {
		Name: TemplateACLReadOnly, AuthorizationMode: ModeACL,
		Exposed: true, ReadEnabled: true, CreateEnabled: false, UpdateEnabled: false, DeleteEnabled: false, IntrospectEnabled: true,
	},
	TemplateAuthenticatedCrud: {
		Name: TemplateAuthenticatedCrud, AuthorizationMode: ModeAuthenticated,
		Exposed: true, ReadEnabled: true, CreateEnabled: true, UpdateEnabled: true, DeleteEnabled: true, IntrospectEnabled: true,
	},
}

// RequestAuditRecord is one row written by the data_api audit sink (C11's
// other half), one per data-operation outcome.
type RequestAuditRecord struct {
	TenantID    string
	RequestID   string
	SchemaName  string
	TableName   string
	ActionName  string
	PrincipalID string
	Success     bool
	StatusCode  int
	Details     string
}

// ListCriteria describes a list-rows request (spec.md §4.9 "List").
type ListCriteria struct {
	Fields    []string
	Filters   map[string]string
	OrderBy   string
	OrderDesc bool
	Limit     int
	Offset    int
}

var (
	// ErrTableNotFound is returned when introspection finds no such table.
	ErrTableNotFound = errors.New("table not found")
	// ErrRecordNotFound is returned when no row matches a primary key.
	ErrRecordNotFound = errors.New("record not found")
)
