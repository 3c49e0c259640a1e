package observability

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

const RequestIDHeader = "X-Request-Id"

func RequestIDFromRequest(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}

// TraceIDFromContext returns the active span's trace id or "".
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
