// Package service implements the data_api bounded context's operations:
// the query service (list/get/schema), the command service
// (create/patch/delete), and the policy-template/metadata administration
// service. Together they run spec.md §4.8 steps 4-12, calling into
// access_control only through the acl.Port facade adapter.
package service

import (
	"encoding/json"
	"strings"

	"github.com/tenantgate/tenantgate/internal/dataapi/acl"
	"github.com/tenantgate/tenantgate/internal/dataapi/domain"
	"github.com/tenantgate/tenantgate/internal/dataapi/repository"
	"github.com/tenantgate/tenantgate/pkg/database"
	"github.com/tenantgate/tenantgate/pkg/errors"
	"github.com/tenantgate/tenantgate/pkg/logger"

	"context"
)

// MaxPayloadBytes is the 64 KiB cap on serialized request payloads
// (spec.md §4.9).
const MaxPayloadBytes = 64 * 1024

// RequestContext carries everything the HTTP layer extracts from headers
// before a data-API operation starts (spec.md §6 "Optional headers").
type RequestContext struct {
	TenantID       string
	BearerHeader   string
	SchemaName     string
	RequestID      string
	SubjectOwnerID *string
	RowOwnerID     *string
}

// Service wires C3/C4 (via repository.TenantCatalog/PoolCache), C5
// (MetadataStore), C10 (Executor), data_api's audit sink, and the
// access_control facade adapter into the shared authorization-and-prepare
// pipeline used by both the query and command services.
type Service struct {
	catalog  repository.TenantCatalog
	pools    repository.PoolCache
	metadata repository.MetadataStore
	executor repository.Executor
	audit    repository.AuditSink
	acl      acl.Port
	logger   *logger.Logger
}

// New creates the shared data_api service.
func New(
	catalog repository.TenantCatalog,
	pools repository.PoolCache,
	metadata repository.MetadataStore,
	executor repository.Executor,
	audit repository.AuditSink,
	aclPort acl.Port,
	log *logger.Logger,
) *Service {
	return &Service{
		catalog:  catalog,
		pools:    pools,
		metadata: metadata,
		executor: executor,
		audit:    audit,
		acl:      aclPort,
		logger:   log.WithComponent("dataapi.service"),
	}
}

// preparedOperation is everything gathered by the shared pipeline
// (spec.md §4.8 steps 1-10) and handed off to C10 (step 11).
type preparedOperation struct {
	tenantDB       *database.DB
	principalID    string
	schema         string
	table          string
	allowedColumns []string
	pkColumn       string
	tableAccess    domain.TableAccessMetadata
}

// action names, closed set per spec.md §3.
const (
	actionRead       = "read"
	actionCreate     = "create"
	actionUpdate     = "update"
	actionDelete     = "delete"
	actionIntrospect = "introspect"
)

// prepare runs spec.md §4.8 steps 1-10 for one data-API call: authenticate
// and confirm tenant ownership, resolve the tenant pool, synchronize and
// gate table access, filter columns, and (in acl mode) consult the
// authorization coordinator. requestedFields is the caller's explicit
// column request (list's "fields", or a write payload's keys); when empty,
// every readable/writable column is used instead, so ACL evaluation never
// silently widens scope just because the caller omitted a filter.
func (s *Service) prepare(ctx context.Context, rc RequestContext, table, action string, requestedFields []string) (*preparedOperation, error) {
	auth, err := s.acl.Authenticate(ctx, rc.TenantID, rc.BearerHeader)
	if err != nil {
		return nil, err
	}

	url, err := s.catalog.Resolve(ctx, rc.TenantID)
	if err != nil {
		return nil, err
	}
	tenantDB, err := s.pools.GetOrCreate(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "INTERNAL_ERROR", "failed to acquire tenant connection", 500)
	}

	schema := rc.SchemaName
	if schema == "" {
		schema = "public"
	}

	if err := s.metadata.Synchronize(ctx, tenantDB, schema); err != nil {
		return nil, errors.Wrap(err, "INTERNAL_ERROR", "failed to synchronize table metadata", 500)
	}

	access, err := s.metadata.GetTableAccess(ctx, tenantDB, schema, table)
	if err != nil {
		return nil, errors.Wrap(err, "INTERNAL_ERROR", "failed to load table access metadata", 500)
	}
	if access == nil {
		return nil, errors.TableNotAllowed(table)
	}
	if !access.Exposed || !actionEnabled(*access, action) {
		return nil, errors.TableNotAllowed(table)
	}

	tableSchema, err := s.executor.IntrospectTable(ctx, tenantDB, schema, table)
	if err != nil {
		return nil, errors.TableNotFound(table)
	}

	pkColumn := ""
	realColumns := make(map[string]bool, len(tableSchema.Columns))
	for _, col := range tableSchema.Columns {
		realColumns[col.Name] = true
		if col.PrimaryKey {
			pkColumn = col.Name
		}
	}

	var scopeColumns []string
	switch action {
	case actionCreate, actionUpdate:
		scopeColumns, err = s.metadata.ListWritableColumns(ctx, tenantDB, schema, table)
	case actionRead:
		scopeColumns, err = s.metadata.ListReadableColumns(ctx, tenantDB, schema, table)
	default:
		scopeColumns = nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "INTERNAL_ERROR", "failed to load column access metadata", 500)
	}

	if len(requestedFields) > 0 {
		scope := toSet(scopeColumns)
		switch action {
		case actionCreate, actionUpdate:
			for _, field := range requestedFields {
				if !scope[field] {
					return nil, errors.NonEditableColumn(field)
				}
			}
			scopeColumns = requestedFields
		default:
			filtered := make([]string, 0, len(requestedFields))
			for _, field := range requestedFields {
				if scope[field] {
					filtered = append(filtered, field)
				}
			}
			scopeColumns = filtered
		}
	}

	allowedColumns := make([]string, 0, len(scopeColumns))
	for _, col := range scopeColumns {
		if realColumns[col] && !(action == actionUpdate && col == pkColumn) {
			allowedColumns = append(allowedColumns, col)
		}
	}

	if access.AuthorizationMode == domain.ModeACL {
		writable, err := s.metadata.ListWritableColumns(ctx, tenantDB, schema, table)
		if err != nil {
			return nil, errors.Wrap(err, "INTERNAL_ERROR", "failed to load writable columns", 500)
		}
		if err := s.acl.BootstrapDataApiAccess(ctx, acl.BootstrapRequest{
			TenantID:        rc.TenantID,
			PrincipalID:     auth.PrincipalID,
			ResourceName:    table,
			ReadableColumns: scopeColumnsOrFetch(ctx, s, tenantDB, schema, table, access, s.logger),
			WritableColumns: writable,
		}); err != nil {
			return nil, err
		}

		decision, err := s.acl.CheckPermission(ctx, acl.PermissionRequest{
			TenantID:         rc.TenantID,
			PrincipalID:      auth.PrincipalID,
			ResourceName:     table,
			ActionName:       action,
			RequestedColumns: allowedColumns,
			SubjectOwnerID:   rc.SubjectOwnerID,
			RowOwnerID:       rc.RowOwnerID,
			RequestID:        nonEmptyPtr(rc.RequestID),
		})
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			return nil, errors.AccessDenied(decision.Reason)
		}
	}

	return &preparedOperation{
		tenantDB:       tenantDB,
		principalID:    auth.PrincipalID,
		schema:         schema,
		table:          table,
		allowedColumns: allowedColumns,
		pkColumn:       pkColumn,
		tableAccess:    *access,
	}, nil
}

func actionEnabled(access domain.TableAccessMetadata, action string) bool {
	switch action {
	case actionRead:
		return access.ReadEnabled
	case actionCreate:
		return access.CreateEnabled
	case actionUpdate:
		return access.UpdateEnabled
	case actionDelete:
		return access.DeleteEnabled
	case actionIntrospect:
		return access.IntrospectEnabled
	default:
		return false
	}
}

// scopeColumnsOrFetch fetches the table's full readable column set for the
// bootstrap step, since scopeColumns holds only the current request's
// column scope.
func scopeColumnsOrFetch(ctx context.Context, s *Service, tenantDB *database.DB, schema, table string, access *domain.TableAccessMetadata, log *logger.Logger) []string {
	readable, err := s.metadata.ListReadableColumns(ctx, tenantDB, schema, table)
	if err != nil {
		log.Error().Err(err).Msg("failed to load readable columns for bootstrap")
		return nil
	}
	return readable
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// filterPayloadColumns extracts the top-level keys of a JSON payload
// (spec.md §4.8 step 7).
func filterPayloadColumns(payload map[string]any) []string {
	cols := make([]string, 0, len(payload))
	for k := range payload {
		cols = append(cols, k)
	}
	return cols
}

// decodePayload enforces the 64 KiB cap and structural "must be a JSON
// object" check (spec.md §4.9, §7) before any DB work.
func decodePayload(body []byte) (map[string]any, error) {
	if len(body) > MaxPayloadBytes {
		return nil, errors.PayloadTooLarge()
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, errors.InvalidPayload("request body must be a JSON object")
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.InvalidPayload("request body must be a JSON object")
	}
	return payload, nil
}
