package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"collab-service/internal/logging"
	"collab-service/internal/mocks"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.log", "collab-service", "test", logging.Discard())
	emitter.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	var got AuditEnvelope
	publisher.On("Publish", mock.Anything, "audit.log", mock.Anything, map[string]string{"x-request-id": "req-1"}).
		Run(func(args mock.Arguments) { got = args.Get(2).(AuditEnvelope) }).
		Return(nil).Once()

	userID := "u1"
	emitter.Emit(context.Background(), "INFO", "project created", "req-1", &userID)

	publisher.AssertExpectations(t)
	assert.Equal(t, "audit_log", got.EventType)
	assert.Equal(t, "2026-01-02T03:04:05Z", got.OccurredAt)
	assert.Equal(t, "collab-service", got.Service)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "u1", *got.UserID)
	assert.Equal(t, AuditPayload{Level: "INFO", Text: "project created"}, got.Payload)
	assert.Empty(t, got.TraceID)
}

func TestEmitSwallowsPublishError(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError).Once()
	emitter := NewAuditEmitter(publisher, "audit.log", "collab-service", "test", logging.Discard())

	assert.NotPanics(t, func() { emitter.Emit(context.Background(), "WARN", "x", "", nil) })
	publisher.AssertExpectations(t)
}

func TestNilEmitterIsNoop(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() { emitter.Emit(context.Background(), "INFO", "x", "", nil) })
}
