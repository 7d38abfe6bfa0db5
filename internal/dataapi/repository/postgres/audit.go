package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tenantgate/tenantgate/internal/dataapi/domain"
	"github.com/tenantgate/tenantgate/pkg/database"
	"github.com/tenantgate/tenantgate/pkg/logger"
	"github.com/tenantgate/tenantgate/pkg/messaging"
)

// AuditSink is data_api's half of C11: one row per data-operation outcome,
// written to the admin database's data_api_audit_logs table, plus a
// best-effort RabbitMQ fan-out.
type AuditSink struct {
	admin     *database.DB
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewAuditSink creates a new request audit sink. publisher may be nil.
func NewAuditSink(admin *database.DB, publisher *messaging.Publisher, log *logger.Logger) *AuditSink {
	return &AuditSink{admin: admin, publisher: publisher, logger: log}
}

// RecordRequest writes one row to data_api_audit_logs.
func (s *AuditSink) RecordRequest(ctx context.Context, record domain.RequestAuditRecord) error {
	_, err := s.admin.ExecContext(ctx, `
		INSERT INTO data_api_audit_logs
			(id, tenant_id, request_id, schema_name, table_name, action_name, principal_id, success, status_code, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, uuid.New().String(), record.TenantID, record.RequestID, record.SchemaName, record.TableName,
		record.ActionName, record.PrincipalID, record.Success, record.StatusCode, record.Details, time.Now())
	if err != nil {
		s.logger.Error().Err(err).
			Str("tenant_id", record.TenantID).
			Str("table", record.TableName).
			Msg("failed to record data-operation audit")
	}

	if s.publisher != nil {
		event := messaging.DataAPIRequestAuditedEvent{
			TenantID: record.TenantID, RequestID: record.RequestID, Schema: record.SchemaName, Table: record.TableName,
			Action: record.ActionName, PrincipalID: record.PrincipalID, Success: record.Success,
			StatusCode: record.StatusCode, Details: record.Details,
		}
		if pubErr := s.publisher.Publish(ctx, messaging.EventDataAPIRequestAudited, event); pubErr != nil {
			s.logger.Error().Err(pubErr).Msg("failed to publish data-operation audit event")
		}
	}

	return err
}
