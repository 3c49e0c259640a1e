package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"collab-service/internal/apperrors"
	"collab-service/internal/middleware"
	"collab-service/internal/telemetry"
	"collab-service/internal/validation"
)

func requestIDFromContext(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}

	requestID := c.GetHeader("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *string {
	if userID := c.GetString(middleware.UserIDKey); userID != "" {
		return &userID
	}
	return nil
}

// currentUserID is the id set by the access guard.
func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// bindJSON decodes the body into req and runs its validate tags.
func bindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperrors.BadRequest("invalid request payload")
	}
	return validation.Struct(req)
}

type auditor struct {
	audit *telemetry.AuditEmitter
}

func (a auditor) emitAudit(c *gin.Context, level, text string) {
	a.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
