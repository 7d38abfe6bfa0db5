package service

import (
	"context"

	"github.com/tenantgate/tenantgate/pkg/errors"
)

// CreateRow implements `POST /api/v1/{table}` (spec.md §4.8-9 "Create").
func (s *Service) CreateRow(ctx context.Context, rc RequestContext, table string, body []byte) (map[string]any, error) {
	payload, err := decodePayload(body)
	if err != nil {
		return nil, err
	}

	prepared, err := s.prepare(ctx, rc, table, actionCreate, filterPayloadColumns(payload))
	if err != nil {
		return nil, err
	}

	scoped := scopedPayload(payload, prepared.allowedColumns)
	row, err := s.executor.CreateRow(ctx, prepared.tenantDB, prepared.schema, table, scoped)
	if err != nil {
		wrapped := errors.Wrap(err, "INTERNAL_ERROR", "failed to create row", 500)
		s.auditDataOperation(ctx, rc, table, actionCreate, prepared.principalID, wrapped)
		return nil, wrapped
	}
	s.auditDataOperation(ctx, rc, table, actionCreate, prepared.principalID, nil)
	return row, nil
}

// PatchRow implements `PATCH /api/v1/{table}/{rowId}` (spec.md §4.8-9 "Patch").
func (s *Service) PatchRow(ctx context.Context, rc RequestContext, table, rowID string, body []byte) (map[string]any, error) {
	payload, err := decodePayload(body)
	if err != nil {
		return nil, err
	}

	prepared, err := s.prepare(ctx, rc, table, actionUpdate, filterPayloadColumns(payload))
	if err != nil {
		return nil, err
	}
	if prepared.pkColumn == "" {
		notFound := errors.TableNotFound(table)
		s.auditDataOperation(ctx, rc, table, actionUpdate, prepared.principalID, notFound)
		return nil, notFound
	}

	scoped := scopedPayload(payload, prepared.allowedColumns)
	row, err := s.executor.PatchRow(ctx, prepared.tenantDB, prepared.schema, table, prepared.pkColumn, rowID, scoped)
	if err != nil {
		wrapped := errors.Wrap(err, "INTERNAL_ERROR", "failed to patch row", 500)
		s.auditDataOperation(ctx, rc, table, actionUpdate, prepared.principalID, wrapped)
		return nil, wrapped
	}
	if row == nil {
		notFound := errors.RecordNotFound()
		s.auditDataOperation(ctx, rc, table, actionUpdate, prepared.principalID, notFound)
		return nil, notFound
	}
	s.auditDataOperation(ctx, rc, table, actionUpdate, prepared.principalID, nil)
	return row, nil
}

// DeleteRow implements `DELETE /api/v1/{table}/{rowId}` (spec.md §4.8-9 "Delete").
func (s *Service) DeleteRow(ctx context.Context, rc RequestContext, table, rowID string) error {
	prepared, err := s.prepare(ctx, rc, table, actionDelete, nil)
	if err != nil {
		return err
	}
	if prepared.pkColumn == "" {
		notFound := errors.TableNotFound(table)
		s.auditDataOperation(ctx, rc, table, actionDelete, prepared.principalID, notFound)
		return notFound
	}

	deleted, err := s.executor.DeleteRow(ctx, prepared.tenantDB, prepared.schema, table, prepared.pkColumn, rowID)
	if err != nil {
		wrapped := errors.Wrap(err, "INTERNAL_ERROR", "failed to delete row", 500)
		s.auditDataOperation(ctx, rc, table, actionDelete, prepared.principalID, wrapped)
		return wrapped
	}
	if !deleted {
		notFound := errors.RecordNotFound()
		s.auditDataOperation(ctx, rc, table, actionDelete, prepared.principalID, notFound)
		return notFound
	}
	s.auditDataOperation(ctx, rc, table, actionDelete, prepared.principalID, nil)
	return nil
}

// scopedPayload drops any payload key prepare() did not carry forward into
// allowedColumns (e.g. a primary key on patch), so the executor never sees
// a column outside what was authorized.
func scopedPayload(payload map[string]any, allowedColumns []string) map[string]any {
	allowed := toSet(allowedColumns)
	scoped := make(map[string]any, len(payload))
	for k, v := range payload {
		if allowed[k] {
			scoped[k] = v
		}
	}
	return scoped
}
