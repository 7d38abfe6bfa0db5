package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RoleAssignmentFixture mirrors a row in access_role_assignments.
type RoleAssignmentFixture struct {
	TenantID    string
	PrincipalID string
	RoleName    string
	CreatedAt   time.Time
}

// PolicyRuleFixture mirrors a row in access_policy_rules: (tenant, role,
// resource, action) is the primary key.
type PolicyRuleFixture struct {
	TenantID       string
	RoleName       string
	ResourceName   string
	ActionName     string
	Effect         string // "allow" or "deny"
	AllowedColumns []string
	DeniedColumns  []string
	OwnerScope     bool
}

// TableAccessMetadataFixture mirrors a row in data_api_table_metadata.
type TableAccessMetadataFixture struct {
	TenantID          string
	SchemaName        string
	TableName         string
	Exposed           bool
	ReadEnabled       bool
	CreateEnabled     bool
	UpdateEnabled     bool
	DeleteEnabled     bool
	IntrospectEnabled bool
	AuthorizationMode string // "authenticated" or "acl"
}

// ColumnAccessMetadataFixture mirrors a row in data_api_column_metadata.
type ColumnAccessMetadataFixture struct {
	TenantID   string
	SchemaName string
	TableName  string
	ColumnName string
	Readable   bool
	Writable   bool
}

// ProductFixture represents a row of the "productos" seed table used across
// the seed scenarios: a plain tenant-owned resource with an owner column,
// exercised by both the ACL policy templates and owner-scoped policy rules.
type ProductFixture struct {
	ID      string
	Name    string
	SKU     string
	OwnerID string
	Price   int
}

// FixtureFactory creates test fixtures with sensible, collision-free
// defaults for a given test run.
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory.
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// RoleAssignment creates a role assignment fixture with defaults.
func (f *FixtureFactory) RoleAssignment(tenantID, principalID, roleName string) RoleAssignmentFixture {
	return RoleAssignmentFixture{
		TenantID:    tenantID,
		PrincipalID: principalID,
		RoleName:    roleName,
		CreatedAt:   time.Now(),
	}
}

// AllowRule creates an unconditional allow rule fixture.
func (f *FixtureFactory) AllowRule(tenantID, roleName, resourceName, actionName string) PolicyRuleFixture {
	return PolicyRuleFixture{
		TenantID:     tenantID,
		RoleName:     roleName,
		ResourceName: resourceName,
		ActionName:   actionName,
		Effect:       "allow",
	}
}

// DenyRule creates an unconditional deny rule fixture.
func (f *FixtureFactory) DenyRule(tenantID, roleName, resourceName, actionName string) PolicyRuleFixture {
	rule := f.AllowRule(tenantID, roleName, resourceName, actionName)
	rule.Effect = "deny"
	return rule
}

// ACLCrudTableMetadata creates a table access metadata fixture equivalent
// to applying the acl_crud policy template.
func (f *FixtureFactory) ACLCrudTableMetadata(tenantID, tableName string) TableAccessMetadataFixture {
	return TableAccessMetadataFixture{
		TenantID: tenantID, SchemaName: "public", TableName: tableName,
		Exposed: true, ReadEnabled: true, CreateEnabled: true, UpdateEnabled: true, DeleteEnabled: true, IntrospectEnabled: true,
		AuthorizationMode: "acl",
	}
}

// Product creates a productos fixture with defaults.
func (f *FixtureFactory) Product(opts ...func(*ProductFixture)) ProductFixture {
	seq := f.nextSeq()

	p := ProductFixture{
		ID:    uuid.New().String(),
		Name:  fmt.Sprintf("Test Product %d", seq),
		SKU:   fmt.Sprintf("SKU-%04d", seq),
		Price: 1000 + seq,
	}

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// WithOwner sets the product's owner_id.
func WithOwner(ownerID string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.OwnerID = ownerID
	}
}

// DefaultProductColumns returns the column access metadata fixtures matching
// the productos table created by ProductosMigration.
func (f *FixtureFactory) DefaultProductColumns(tenantID string) []ColumnAccessMetadataFixture {
	col := func(name string, readable, writable bool) ColumnAccessMetadataFixture {
		return ColumnAccessMetadataFixture{
			TenantID: tenantID, SchemaName: "public", TableName: "productos",
			ColumnName: name, Readable: readable, Writable: writable,
		}
	}
	return []ColumnAccessMetadataFixture{
		col("id", true, false),
		col("name", true, true),
		col("sku", true, true),
		col("owner_id", true, false),
		col("price", true, true),
		col("created_at", true, false),
	}
}
