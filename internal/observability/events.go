package observability

import "context"

type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// EventPublisher is satisfied by the rabbitmq publishers.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error
}

var defaultPublisher EventPublisher

func SetPublisher(publisher EventPublisher) {
	defaultPublisher = publisher
}

// PublishEvent sends a domain event through the process publisher, if any.
// Publish failures are counted by the publisher itself.
func PublishEvent(ctx context.Context, routingKey string, envelope EventEnvelope, headers map[string]string) error {
	if defaultPublisher == nil {
		return nil
	}

	return defaultPublisher.Publish(ctx, routingKey, envelope, headers)
}

func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
