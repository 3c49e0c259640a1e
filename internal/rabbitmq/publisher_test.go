package rabbitmq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"collab-service/internal/logging"
	"collab-service/internal/observability"
)

func TestNewPublisherFallsBackToNoop(t *testing.T) {
	p := NewPublisher("", "collab.events", logging.Discard())

	assert.Equal(t, "noop", PublisherMode(p))
	assert.Equal(t, "empty amqp url", PublisherNoopReason(p))
	assert.NoError(t, p.Publish(context.Background(), "chat.message_sent", observability.EventEnvelope{EventName: "message_sent"}, nil))
	assert.NoError(t, p.Close())
}
