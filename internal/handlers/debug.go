package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"collab-service/internal/apperrors"
	"collab-service/internal/telemetry"
)

type auditRecordRequest struct {
	Level string `json:"level" validate:"required,oneof=INFO WARN ERROR"`
	Text  string `json:"text" validate:"notblank,max=500"`
}

// DebugHandler lets operators push a hand-written audit record through the
// event pipeline to check the exchange wiring end to end.
type DebugHandler struct {
	auditor
}

func NewDebugHandler(audit *telemetry.AuditEmitter) *DebugHandler {
	return &DebugHandler{auditor: auditor{audit: audit}}
}

// EmitAudit publishes one audit record attributed to the caller.
func (h *DebugHandler) EmitAudit(c *gin.Context) {
	if h.audit == nil {
		apperrors.Respond(c, apperrors.New(apperrors.KindInternal, "audit emitter not configured"))
		return
	}

	var req auditRecordRequest
	if err := bindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	h.emitAudit(c, req.Level, req.Text)
	c.JSON(http.StatusAccepted, gin.H{"requestId": requestIDFromContext(c)})
}

// RegisterDebugRoutes mounts operator endpoints behind guard. Callers decide
// whether to mount them at all.
func RegisterDebugRoutes(router gin.IRouter, guard gin.HandlerFunc, h *DebugHandler) {
	router.POST("/api/debug/audit", guard, h.EmitAudit)
}
