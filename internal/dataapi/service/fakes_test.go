package service_test

import (
	"context"

	"github.com/tenantgate/tenantgate/internal/dataapi/acl"
	"github.com/tenantgate/tenantgate/internal/dataapi/domain"
	"github.com/tenantgate/tenantgate/pkg/database"
	"github.com/tenantgate/tenantgate/pkg/errors"
)

// fakeCatalog is a hand-rolled stand-in for repository.TenantCatalog, per
// spec.md §9's "component boundaries must remain substitutable so tests
// can inject fakes".
type fakeCatalog struct {
	url string
	err error
}

func (f *fakeCatalog) Resolve(ctx context.Context, tenantID string) (string, error) {
	return f.url, f.err
}

// fakePoolCache stands in for repository.PoolCache. Since the executor and
// metadata fakes below never actually dereference *database.DB, a nil
// pool is enough to exercise the prepare() pipeline.
type fakePoolCache struct{}

func (f *fakePoolCache) GetOrCreate(ctx context.Context, url string) (*database.DB, error) {
	return nil, nil
}

type fakeMetadataStore struct {
	access            *domain.TableAccessMetadata
	readableColumns   []string
	writableColumns   []string
	synchronizeCalled int
}

func (f *fakeMetadataStore) Synchronize(ctx context.Context, tenantDB *database.DB, schema string) error {
	f.synchronizeCalled++
	return nil
}
func (f *fakeMetadataStore) GetTableAccess(ctx context.Context, tenantDB *database.DB, schema, table string) (*domain.TableAccessMetadata, error) {
	return f.access, nil
}
func (f *fakeMetadataStore) ListWritableColumns(ctx context.Context, tenantDB *database.DB, schema, table string) ([]string, error) {
	return f.writableColumns, nil
}
func (f *fakeMetadataStore) ListReadableColumns(ctx context.Context, tenantDB *database.DB, schema, table string) ([]string, error) {
	return f.readableColumns, nil
}
func (f *fakeMetadataStore) ListCatalog(ctx context.Context, tenantDB *database.DB, schema string) ([]domain.TableAccessMetadata, error) {
	if f.access == nil {
		return nil, nil
	}
	return []domain.TableAccessMetadata{*f.access}, nil
}
func (f *fakeMetadataStore) UpsertTableAccess(ctx context.Context, tenantDB *database.DB, metadata domain.TableAccessMetadata) error {
	f.access = &metadata
	return nil
}
func (f *fakeMetadataStore) UpsertColumnAccess(ctx context.Context, tenantDB *database.DB, metadata domain.ColumnAccessMetadata) error {
	return nil
}

type fakeExecutor struct {
	schema     *domain.TableSchema
	introErr   error
	rows       []map[string]any
	getRow     map[string]any
	getRowErr  error
	createRow  map[string]any
	createErr  error
	patchRow   map[string]any
	patchErr   error
	deleted    bool
	deleteErr  error
	lastCreate map[string]any
	lastPatch  map[string]any
}

func (f *fakeExecutor) IntrospectTable(ctx context.Context, tenantDB *database.DB, schema, table string) (*domain.TableSchema, error) {
	if f.introErr != nil {
		return nil, f.introErr
	}
	return f.schema, nil
}
func (f *fakeExecutor) ListRows(ctx context.Context, tenantDB *database.DB, schema, table string, criteria domain.ListCriteria) ([]map[string]any, error) {
	return f.rows, nil
}
func (f *fakeExecutor) GetRowByPrimaryKey(ctx context.Context, tenantDB *database.DB, schema, table, pkColumn, pkValue string) (map[string]any, error) {
	return f.getRow, f.getRowErr
}
func (f *fakeExecutor) CreateRow(ctx context.Context, tenantDB *database.DB, schema, table string, payload map[string]any) (map[string]any, error) {
	f.lastCreate = payload
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createRow, nil
}
func (f *fakeExecutor) PatchRow(ctx context.Context, tenantDB *database.DB, schema, table, pkColumn, pkValue string, payload map[string]any) (map[string]any, error) {
	f.lastPatch = payload
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	return f.patchRow, nil
}
func (f *fakeExecutor) DeleteRow(ctx context.Context, tenantDB *database.DB, schema, table, pkColumn, pkValue string) (bool, error) {
	return f.deleted, f.deleteErr
}

type fakeAuditSink struct {
	records []domain.RequestAuditRecord
}

func (f *fakeAuditSink) RecordRequest(ctx context.Context, record domain.RequestAuditRecord) error {
	f.records = append(f.records, record)
	return nil
}

// fakeACL stands in for acl.Port, the data_api-side anti-corruption
// adapter onto access_control (spec.md §9 "Implicit cycles").
type fakeACL struct {
	auth          acl.Authentication
	authErr       error
	decision      acl.PermissionDecision
	checkErr      error
	bootstrapErr  error
	bootstrapReqs []acl.BootstrapRequest
	checkReqs     []acl.PermissionRequest
}

func (f *fakeACL) Authenticate(ctx context.Context, tenantID, bearerHeader string) (acl.Authentication, error) {
	return f.auth, f.authErr
}
func (f *fakeACL) CheckPermission(ctx context.Context, req acl.PermissionRequest) (acl.PermissionDecision, error) {
	f.checkReqs = append(f.checkReqs, req)
	return f.decision, f.checkErr
}
func (f *fakeACL) BootstrapDataApiAccess(ctx context.Context, req acl.BootstrapRequest) error {
	f.bootstrapReqs = append(f.bootstrapReqs, req)
	return f.bootstrapErr
}

var _ = errors.InvalidPayload // keep errors import alive if unused below
