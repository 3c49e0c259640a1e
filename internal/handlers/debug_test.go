package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"collab-service/internal/apperrors"
	"collab-service/internal/logging"
	"collab-service/internal/mocks"
	"collab-service/internal/telemetry"
)

func debugRouter(userID string, guard gin.HandlerFunc, pub *mocks.PublisherMock) *gin.Engine {
	r := testRouter(userID)
	audit := telemetry.NewAuditEmitter(pub, "audit.log", "collab-service", "test", logging.Discard())
	RegisterDebugRoutes(r, guard, NewDebugHandler(audit))
	return r
}

func TestDebugAuditRequiresGuard(t *testing.T) {
	pub := new(mocks.PublisherMock)
	deny := func(c *gin.Context) { apperrors.Respond(c, apperrors.Unauthorized("not authenticated")) }

	rec := do(debugRouter("", deny, pub), http.MethodPost, "/api/debug/audit", jsonBody(t, gin.H{"level": "INFO", "text": "hello"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDebugAuditPublishesForCaller(t *testing.T) {
	pub := new(mocks.PublisherMock)
	pub.On("Publish", mock.Anything, "audit.log", mock.MatchedBy(func(e telemetry.AuditEnvelope) bool {
		return e.UserID != nil && *e.UserID == "u1" && e.Payload.Text == "hello"
	}), mock.Anything).Return(nil).Once()

	rec := do(debugRouter("u1", func(c *gin.Context) { c.Next() }, pub), http.MethodPost, "/api/debug/audit", jsonBody(t, gin.H{"level": "INFO", "text": "hello"}))

	require.Equal(t, http.StatusAccepted, rec.Code)
	pub.AssertExpectations(t)
}

func TestDebugAuditValidatesLevel(t *testing.T) {
	pub := new(mocks.PublisherMock)

	rec := do(debugRouter("u1", func(c *gin.Context) { c.Next() }, pub), http.MethodPost, "/api/debug/audit", jsonBody(t, gin.H{"level": "LOUD", "text": "hello"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
