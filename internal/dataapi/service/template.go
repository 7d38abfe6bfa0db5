package service

import (
	"context"

	"github.com/tenantgate/tenantgate/internal/dataapi/acl"
	"github.com/tenantgate/tenantgate/internal/dataapi/domain"
	"github.com/tenantgate/tenantgate/pkg/database"
	"github.com/tenantgate/tenantgate/pkg/errors"
)

// ListCatalog implements `GET /api/v1/_metadata`.
func (s *Service) ListCatalog(ctx context.Context, rc RequestContext) ([]domain.TableAccessMetadata, error) {
	if _, err := s.acl.Authenticate(ctx, rc.TenantID, rc.BearerHeader); err != nil {
		return nil, err
	}

	tenantDB, schema, err := s.resolveTenantSchema(ctx, rc)
	if err != nil {
		return nil, err
	}
	if err := s.metadata.Synchronize(ctx, tenantDB, schema); err != nil {
		return nil, errors.Wrap(err, "INTERNAL_ERROR", "failed to synchronize table metadata", 500)
	}
	return s.metadata.ListCatalog(ctx, tenantDB, schema)
}

// ListPolicyTemplates implements `GET /api/v1/_metadata/policy-templates`.
func (s *Service) ListPolicyTemplates(ctx context.Context, rc RequestContext) ([]domain.PolicyTemplate, error) {
	if _, err := s.acl.Authenticate(ctx, rc.TenantID, rc.BearerHeader); err != nil {
		return nil, err
	}

	templates := make([]domain.PolicyTemplate, 0, len(domain.Templates))
	for _, name := range []domain.PolicyTemplateName{domain.TemplateACLCrud, domain.TemplateACLReadOnly, domain.TemplateAuthenticatedCrud} {
		templates = append(templates, domain.Templates[name])
	}
	return templates, nil
}

// UpsertTableAccess implements `PUT /api/v1/_metadata/{table}`.
func (s *Service) UpsertTableAccess(ctx context.Context, rc RequestContext, table string, flags domain.TableAccessMetadata) (domain.TableAccessMetadata, error) {
	if _, err := s.acl.Authenticate(ctx, rc.TenantID, rc.BearerHeader); err != nil {
		return domain.TableAccessMetadata{}, err
	}

	tenantDB, schema, err := s.resolveTenantSchema(ctx, rc)
	if err != nil {
		return domain.TableAccessMetadata{}, err
	}

	flags.SchemaName = schema
	flags.TableName = table
	if err := s.metadata.UpsertTableAccess(ctx, tenantDB, flags); err != nil {
		return domain.TableAccessMetadata{}, errors.Wrap(err, "INTERNAL_ERROR", "failed to upsert table access metadata", 500)
	}
	return flags, nil
}

// UpsertColumnAccess implements `PUT /api/v1/_metadata/{table}/columns/{column}`.
func (s *Service) UpsertColumnAccess(ctx context.Context, rc RequestContext, table, column string, readable, writable bool) error {
	if _, err := s.acl.Authenticate(ctx, rc.TenantID, rc.BearerHeader); err != nil {
		return err
	}

	tenantDB, schema, err := s.resolveTenantSchema(ctx, rc)
	if err != nil {
		return err
	}

	return s.metadata.UpsertColumnAccess(ctx, tenantDB, domain.ColumnAccessMetadata{
		TenantID:   rc.TenantID,
		SchemaName: schema,
		TableName:  table,
		ColumnName: column,
		Readable:   readable,
		Writable:   writable,
	})
}

// ApplyPolicyTemplate implements `POST /api/v1/_metadata/{table}/policy-templates`
// (SPEC_FULL "Supplemented features" — policy templates). Applying an
// acl_* template seeds the table's default CRUD rules the same way the
// first ACL-mode request to an unseen table would, through the same
// facade bootstrap operation, so the two paths never diverge.
func (s *Service) ApplyPolicyTemplate(ctx context.Context, rc RequestContext, table string, templateName domain.PolicyTemplateName) error {
	auth, err := s.acl.Authenticate(ctx, rc.TenantID, rc.BearerHeader)
	if err != nil {
		return err
	}

	template, ok := domain.Templates[templateName]
	if !ok {
		return errors.InvalidPolicyTemplate(string(templateName))
	}

	tenantDB, schema, err := s.resolveTenantSchema(ctx, rc)
	if err != nil {
		return err
	}

	metadata := domain.TableAccessMetadata{
		TenantID: rc.TenantID, SchemaName: schema, TableName: table,
		Exposed: template.Exposed, ReadEnabled: template.ReadEnabled, CreateEnabled: template.CreateEnabled,
		UpdateEnabled: template.UpdateEnabled, DeleteEnabled: template.DeleteEnabled, IntrospectEnabled: template.IntrospectEnabled,
		AuthorizationMode: template.AuthorizationMode,
	}
	if err := s.metadata.UpsertTableAccess(ctx, tenantDB, metadata); err != nil {
		return errors.Wrap(err, "INTERNAL_ERROR", "failed to upsert table access metadata", 500)
	}

	if template.AuthorizationMode != domain.ModeACL {
		return nil
	}

	readable, err := s.metadata.ListReadableColumns(ctx, tenantDB, schema, table)
	if err != nil {
		return errors.Wrap(err, "INTERNAL_ERROR", "failed to load readable columns", 500)
	}
	writable, err := s.metadata.ListWritableColumns(ctx, tenantDB, schema, table)
	if err != nil {
		return errors.Wrap(err, "INTERNAL_ERROR", "failed to load writable columns", 500)
	}

	return s.acl.BootstrapDataApiAccess(ctx, acl.BootstrapRequest{
		TenantID:        rc.TenantID,
		PrincipalID:     auth.PrincipalID,
		ResourceName:    table,
		ReadableColumns: readable,
		WritableColumns: writable,
	})
}

func (s *Service) resolveTenantSchema(ctx context.Context, rc RequestContext) (*database.DB, string, error) {
	url, err := s.catalog.Resolve(ctx, rc.TenantID)
	if err != nil {
		return nil, "", err
	}
	tenantDB, err := s.pools.GetOrCreate(ctx, url)
	if err != nil {
		return nil, "", errors.Wrap(err, "INTERNAL_ERROR", "failed to acquire tenant connection", 500)
	}
	schema := rc.SchemaName
	if schema == "" {
		schema = "public"
	}
	return tenantDB, schema, nil
}
