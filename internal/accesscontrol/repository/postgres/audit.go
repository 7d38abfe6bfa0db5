package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/tenantgate/tenantgate/internal/accesscontrol/domain"
	"github.com/tenantgate/tenantgate/pkg/database"
	"github.com/tenantgate/tenantgate/pkg/logger"
	"github.com/tenantgate/tenantgate/pkg/messaging"
)

// AuditSink is access_control's half of C11. A failed durable write is
// logged and also returned to the caller; the coordinator's call site is
// what swallows it, so a database hiccup in auditing can't block an
// authorization decision. The durable write to
// access_authorization_decision_audit is the record of truth; the
// RabbitMQ publish alongside it is a best-effort fan-out for downstream
// consumers and may be nil in tests or when messaging isn't configured.
type AuditSink struct {
	db        *database.DB
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewAuditSink creates a new decision audit sink. publisher may be nil.
func NewAuditSink(db *database.DB, publisher *messaging.Publisher, log *logger.Logger) *AuditSink {
	return &AuditSink{db: db, publisher: publisher, logger: log}
}

// RecordDecision writes one row to access_authorization_decision_audit and
// best-effort publishes the same event to the audit exchange.
func (s *AuditSink) RecordDecision(ctx context.Context, record domain.DecisionAuditRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_authorization_decision_audit
			(id, tenant_id, principal_id, request_id, resource_name, action_name, allowed, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.New().String(), record.TenantID, record.PrincipalID, record.RequestID,
		record.Resource, record.Action, record.Allowed, record.Reason, record.OccurredAt)
	if err != nil {
		s.logger.Error().Err(err).
			Str("tenant_id", record.TenantID).
			Str("resource", record.Resource).
			Msg("failed to record authorization decision audit")
	}

	if s.publisher != nil {
		event := messaging.AccessControlDecisionAuditedEvent{
			TenantID: record.TenantID, PrincipalID: record.PrincipalID, RequestID: record.RequestID,
			Resource: record.Resource, Action: record.Action, Allowed: record.Allowed, Reason: record.Reason,
		}
		if pubErr := s.publisher.Publish(ctx, messaging.EventAccessControlDecisionAudited, event); pubErr != nil {
			s.logger.Error().Err(pubErr).Msg("failed to publish authorization decision audit event")
		}
	}

	return err
}
