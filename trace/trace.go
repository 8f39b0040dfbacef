// Package trace carries request correlation IDs through a context.
package trace

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

var traceIDKey contextKey

// HeaderXRequestID is the header used to propagate the request ID.
const HeaderXRequestID = "X-Request-ID"

// WithTraceID stores a trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// IDFromContext returns the trace ID stored in ctx.
func IDFromContext(ctx context.Context) (string, bool) {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		return traceID, true
	}
	return "", false
}

// EnsureTraceID returns the trace ID from ctx, or a new random one.
func EnsureTraceID(ctx context.Context) string {
	if traceID, ok := IDFromContext(ctx); ok {
		return traceID
	}
	return NewID()
}

// NewID generates a request ID.
func NewID() string {
	return uuid.NewString()
}
