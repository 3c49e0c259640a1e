package telemetry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"collab-service/internal/observability"
)

// Publisher is the subset of the event publisher the emitter needs.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error
}

// AuditEmitter publishes audit_log envelopes for user-visible state changes:
// sign-ups, friendship changes, project edits, payments.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	now         func() time.Time
	log         *logrus.Entry
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	TraceID       string       `json:"trace_id,omitempty"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string, logger *logrus.Logger) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		now:         time.Now,
		log:         logger.WithField("component", "audit"),
	}
}

// Emit is best effort: publish failures are logged and never reach the caller.
// A nil emitter is a no-op.
func (e *AuditEmitter) Emit(ctx context.Context, level, text, requestID string, userID *string) {
	if e == nil || e.publisher == nil {
		return
	}

	traceID := observability.TraceIDFromContext(ctx)
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		TraceID:       traceID,
		UserID:        userID,
		Payload:       AuditPayload{Level: level, Text: text},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope, observability.BuildHeaders(requestID, traceID)); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"request_id": requestID,
			"text":       text,
		}).Warn("audit publish failed")
	}
}
