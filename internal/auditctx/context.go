// Package auditctx propagates the acting identity through request contexts so
// audit rows and transition logs record who triggered an operation.
package auditctx

import (
	"context"
	"strings"
)

type actorKey struct{}
type requestIDKey struct{}

// WithActor stores the actor type and ID in the context.
func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, [2]string{actorType, actorID})
}

// ActorFromContext returns the actor type and ID, empty when absent.
func ActorFromContext(ctx context.Context) (actorType, actorID string) {
	if ctx == nil {
		return "", ""
	}
	if pair, ok := ctx.Value(actorKey{}).([2]string); ok {
		return pair[0], pair[1]
	}
	return "", ""
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

// RequestIDFromContext returns the request ID, empty when absent.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
