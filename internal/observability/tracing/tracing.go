package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type traceIDKey struct{}

// InjectTraceID attaches a fresh trace id to ctx and to the zerolog logger
// carried by ctx, so every log line of one load cycle can be correlated.
func InjectTraceID(ctx context.Context) context.Context {
	id := uuid.New().String()
	logger := log.With().Str("traceId", id).Logger()
	ctx = context.WithValue(ctx, traceIDKey{}, id)
	return logger.WithContext(ctx)
}

// TraceID returns the trace id injected by InjectTraceID, or an empty string.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
