package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types published by the two audit sinks (C11), best-effort fan-out
// alongside their durable admin-database writes.
const (
	EventAccessControlDecisionAudited = "access_control.decision.audited"
	EventDataAPIRequestAudited        = "data_api.request.audited"
)

// ExchangeAuditEvents is the single topic exchange both audit sinks publish to.
const ExchangeAuditEvents = "tenantgate.audit"

// Event is the base event envelope.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data.
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct.
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// AccessControlDecisionAuditedEvent mirrors a row written to
// access_authorization_decision_audit.
type AccessControlDecisionAuditedEvent struct {
	TenantID    string `json:"tenant_id"`
	PrincipalID string `json:"principal_id"`
	RequestID   string `json:"request_id,omitempty"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason"`
}

// DataAPIRequestAuditedEvent mirrors a row written to data_api_audit_logs.
type DataAPIRequestAuditedEvent struct {
	TenantID    string `json:"tenant_id"`
	RequestID   string `json:"request_id,omitempty"`
	Schema      string `json:"schema"`
	Table       string `json:"table"`
	Action      string `json:"action"`
	PrincipalID string `json:"principal_id"`
	Success     bool   `json:"success"`
	StatusCode  int    `json:"status_code"`
	Details     string `json:"details,omitempty"`
}

// GenerateEventID generates a unique event ID.
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
