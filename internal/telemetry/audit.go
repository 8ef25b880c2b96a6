package telemetry

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Publisher is the broker surface the audit trail needs.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// AuditEmitter records user-visible actions (bids, deletions) on the event
// bus for offline inspection.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

// AuditEnvelope is the wire form of one audit record.
type AuditEnvelope struct {
	SchemaVersion int            `json:"schema_version"`
	EventType     string         `json:"event_type"`
	OccurredAt    string         `json:"occurred_at"`
	Service       string         `json:"service"`
	Environment   string         `json:"environment"`
	RequestID     string         `json:"request_id"`
	UserID        string         `json:"user_id,omitempty"`
	Action        string         `json:"action"`
	Details       map[string]any `json:"details,omitempty"`
}

// NewAuditEmitter constructs an AuditEmitter.
func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one audit record. A nil emitter or publisher is a no-op.
func (e *AuditEmitter) Emit(ctx context.Context, action, requestID, userID string, details map[string]any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Action:        action,
		Details:       details,
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.WithError(err).WithField("action", action).Error("audit publish failed")
	}
}
