package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ContextKeyCorrelationId contextKey = "correlation_id"

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyCorrelationId).(string)
	return v, ok
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationId, correlationId)
}

// CorrelationIdFromContextOrNew never returns empty: batch jobs launched outside
// a request still need a stable id for log joins.
func CorrelationIdFromContextOrNew(ctx context.Context) string {
	if v, ok := GetCorrelationIdFromContext(ctx); ok && v != "" {
		return v
	}
	return uuid.NewString()
}
