package service

import (
	"context"

	"github.com/tenantgate/tenantgate/internal/dataapi/domain"
	"github.com/tenantgate/tenantgate/pkg/errors"
)

// ListRows implements `GET /api/v1/{table}` (spec.md §4.8-9, §6).
func (s *Service) ListRows(ctx context.Context, rc RequestContext, table string, criteria domain.ListCriteria) ([]map[string]any, error) {
	prepared, err := s.prepare(ctx, rc, table, actionRead, criteria.Fields)
	if err != nil {
		return nil, err
	}

	criteria.Fields = prepared.allowedColumns
	rows, err := s.executor.ListRows(ctx, prepared.tenantDB, prepared.schema, table, criteria)
	if err != nil {
		wrapped := errors.Wrap(err, "INTERNAL_ERROR", "failed to list rows", 500)
		s.auditDataOperation(ctx, rc, table, actionRead, prepared.principalID, wrapped)
		return nil, wrapped
	}
	s.auditDataOperation(ctx, rc, table, actionRead, prepared.principalID, nil)
	return rows, nil
}

// GetRow implements `GET /api/v1/{table}/{rowId}`.
func (s *Service) GetRow(ctx context.Context, rc RequestContext, table, rowID string) (map[string]any, error) {
	prepared, err := s.prepare(ctx, rc, table, actionRead, nil)
	if err != nil {
		return nil, err
	}
	if prepared.pkColumn == "" {
		err := errors.TableNotFound(table)
		s.auditDataOperation(ctx, rc, table, actionRead, prepared.principalID, err)
		return nil, err
	}

	row, err := s.executor.GetRowByPrimaryKey(ctx, prepared.tenantDB, prepared.schema, table, prepared.pkColumn, rowID)
	if err == domain.ErrRecordNotFound {
		notFound := errors.RecordNotFound()
		s.auditDataOperation(ctx, rc, table, actionRead, prepared.principalID, notFound)
		return nil, notFound
	}
	if err != nil {
		wrapped := errors.Wrap(err, "INTERNAL_ERROR", "failed to get row", 500)
		s.auditDataOperation(ctx, rc, table, actionRead, prepared.principalID, wrapped)
		return nil, wrapped
	}
	s.auditDataOperation(ctx, rc, table, actionRead, prepared.principalID, nil)
	return row, nil
}

// GetSchema implements `GET /api/v1/{table}/_schema`.
func (s *Service) GetSchema(ctx context.Context, rc RequestContext, table string) (*domain.TableSchema, error) {
	prepared, err := s.prepare(ctx, rc, table, actionIntrospect, nil)
	if err != nil {
		return nil, err
	}

	schema, err := s.executor.IntrospectTable(ctx, prepared.tenantDB, prepared.schema, table)
	if err == domain.ErrTableNotFound {
		notFound := errors.TableNotFound(table)
		s.auditDataOperation(ctx, rc, table, actionIntrospect, prepared.principalID, notFound)
		return nil, notFound
	}
	if err != nil {
		wrapped := errors.Wrap(err, "INTERNAL_ERROR", "failed to introspect table", 500)
		s.auditDataOperation(ctx, rc, table, actionIntrospect, prepared.principalID, wrapped)
		return nil, wrapped
	}
	s.auditDataOperation(ctx, rc, table, actionIntrospect, prepared.principalID, nil)
	return schema, nil
}

// auditDataOperation writes one data_api_audit_logs row for an outcome that
// reached step 11 or later (spec.md §4.8 "Audit"). Failures earlier in
// prepare — authentication, tenant resolution, table-access gating — are
// not data-operation outcomes and are not audited here.
func (s *Service) auditDataOperation(ctx context.Context, rc RequestContext, table, action, principalID string, opErr error) {
	record := domain.RequestAuditRecord{
		TenantID:    rc.TenantID,
		RequestID:   rc.RequestID,
		SchemaName:  rc.SchemaName,
		TableName:   table,
		ActionName:  action,
		PrincipalID: principalID,
		Success:     opErr == nil,
		StatusCode:  statusCodeOf(opErr),
	}
	if opErr != nil {
		record.Details = opErr.Error()
	}
	if err := s.audit.RecordRequest(ctx, record); err != nil {
		s.logger.Error().Err(err).Msg("failed to audit data-operation outcome")
	}
}

func statusCodeOf(err error) int {
	if err == nil {
		return 200
	}
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr.StatusCode
	}
	return 500
}
